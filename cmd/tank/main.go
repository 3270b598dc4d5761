package main

import (
	"fmt"
	"os"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/client"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/ui"
	"github.com/spf13/cobra"
)

const version = "0.4.0"

var (
	httpURL    string
	authToken  string
	jsonOutput bool

	tank *client.HTTPClient
)

func defaultHTTPURL() string {
	if s := os.Getenv("TANK_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

var rootCmd = &cobra.Command{
	Use:   "tank <command>",
	Short: "Shark Tank pitch simulator",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		tank = client.NewHTTPClient(httpURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if tank != nil {
			tank.Close()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tank", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("TANK_AUTH_TOKEN"), "bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pitchCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
