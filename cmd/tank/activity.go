package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var activityStale time.Duration

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show who is in the tank right now",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := tank.Activity(context.Background(), activityStale)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(sessions)
			return nil
		}
		if len(sessions) == 0 {
			fmt.Println("The tank is empty.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tCOMPANY\tLAST ACTION\tIDLE\tVIEWERS\tDURATION")
		for _, e := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				e.SessionID,
				e.Company,
				e.LastAction,
				(time.Duration(e.IdleSecs) * time.Second).Round(time.Second),
				e.Viewers,
				(time.Duration(e.SessionDurationSecs) * time.Second).Round(time.Second),
			)
		}
		w.Flush()
		return nil
	},
}

func init() {
	activityCmd.Flags().DurationVar(&activityStale, "stale", 10*time.Minute, "hide sessions quiet for longer than this (0 shows all)")
}
