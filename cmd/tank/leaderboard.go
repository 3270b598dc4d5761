package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/client"
)

var (
	leaderboardLimit int
	leaderboardAll   bool
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the closed-deal leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := tank.Leaderboard(context.Background(), !leaderboardAll, leaderboardLimit)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
				return fmt.Errorf("leaderboard is not enabled on this server")
			}
			return err
		}
		if jsonOutput {
			printJSON(resp.Entries)
			return nil
		}
		printLeaderboardTable(resp.Entries)
		return nil
	},
}

var leaderboardUserCmd = &cobra.Command{
	Use:   "user <user-id>",
	Short: "Show a user's best closed deal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := tank.UserBestPitch(context.Background(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(resp.Entry)
			return nil
		}
		if resp.Entry == nil {
			fmt.Println("No closed deals for this user.")
			return nil
		}
		printPitchRecord(resp.Entry)
		return nil
	},
}

func init() {
	leaderboardCmd.Flags().IntVar(&leaderboardLimit, "limit", 0, "maximum entries (server default when 0)")
	leaderboardCmd.Flags().BoolVar(&leaderboardAll, "all", false, "include unverified deals")
	leaderboardCmd.AddCommand(leaderboardUserCmd)
}
