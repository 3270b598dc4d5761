package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify business claims against public data sources",
}

var verifySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search DeFi protocols by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := tank.SearchProtocols(context.Background(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(results)
			return nil
		}
		if len(results) == 0 {
			fmt.Println("No matching protocols.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tNAME\tCATEGORY\tTVL\tTWITTER")
		for _, p := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, verify.FormatUSD(p.TVL), p.Twitter)
		}
		w.Flush()
		return nil
	},
}

var verifyDefiCmd = &cobra.Command{
	Use:   "defi <protocol-slug> <twitter-handle>",
	Short: "Check DeFi protocol ownership via Twitter handle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := tank.VerifyDefi(context.Background(), args[1], args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(res)
			return nil
		}
		printVerifyResult(res)
		return nil
	},
}

var verifyMRRCmd = &cobra.Command{
	Use:   "mrr <profile-url> <twitter-handle>",
	Short: "Check SaaS revenue claims via a TrustMRR profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := tank.VerifyMRR(context.Background(), args[1], args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(res)
			return nil
		}
		printVerifyResult(res)
		return nil
	},
}

func init() {
	verifyCmd.AddCommand(verifySearchCmd)
	verifyCmd.AddCommand(verifyDefiCmd)
	verifyCmd.AddCommand(verifyMRRCmd)
}
