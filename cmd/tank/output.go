package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/ui"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/verify"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// printPanel renders the shark panel as a table, sorted by confidence.
func printPanel(sharks map[string]*model.SharkState) {
	list := make([]*model.SharkState, 0, len(sharks))
	for _, s := range sharks {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Confidence != list[j].Confidence {
			return list[i].Confidence > list[j].Confidence
		}
		return list[i].Name < list[j].Name
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SHARK\tSTATUS\tCONFIDENCE\t")
	for _, s := range list {
		status := string(s.Status)
		if s.Status == model.SharkOut {
			status = ui.RenderOut(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%3d %s\t\n", s.Name, status, s.Confidence, ui.ConfidenceBar(s.Confidence))
	}
	w.Flush()
}

func printOffer(o *model.Offer) {
	fmt.Printf("%s offers %s for %.1f%% equity", ui.RenderShark(o.SharkName), verify.FormatUSD(float64(o.Amount)), o.Equity)
	if o.Royalty != nil {
		fmt.Printf(" plus a %s per-unit royalty", verify.FormatUSD(*o.Royalty))
		if o.RoyaltyUntil != nil {
			fmt.Printf(" until %s recouped", verify.FormatUSD(float64(*o.RoyaltyUntil)))
		}
	}
	fmt.Printf("  [%s]\n", o.ID)
	for _, c := range o.Conditions {
		fmt.Printf("  condition: %s\n", c)
	}
}

func printLeaderboardTable(entries []*model.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Println("No deals on the board yet.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tCOMPANY\tFOUNDER\tDEAL\tEQUITY\tSHARK\tVERIFIED")
	for _, e := range entries {
		founder := e.TwitterHandle
		if founder == "" {
			founder = e.UserID
		}
		verified := "no"
		if e.Verification != nil && e.Verification.Verified {
			verified = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f%%\t%s\t%s\n",
			e.Rank,
			e.PitchData.CompanyName,
			founder,
			verify.FormatUSD(float64(e.Outcome.DealAmount)),
			e.Outcome.DealEquity,
			e.Outcome.Shark,
			verified,
		)
	}
	w.Flush()
}

func printPitchRecord(r *model.PitchRecord) {
	fmt.Printf("Company:  %s\n", r.PitchData.CompanyName)
	fmt.Printf("Deal:     %s for %.1f%%\n", verify.FormatUSD(float64(r.Outcome.DealAmount)), r.Outcome.DealEquity)
	fmt.Printf("Shark:    %s\n", r.Outcome.Shark)
	if r.Verification != nil {
		fmt.Printf("Verified: %v (%s)\n", r.Verification.Verified, r.Verification.Level)
	}
	fmt.Printf("Closed:   %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printVerifyResult(res *verify.Result) {
	status := ui.RenderOut("UNVERIFIED")
	if res.Verified {
		status = ui.RenderDeal("VERIFIED")
	}
	fmt.Printf("%s (%s via %s)\n", status, res.Level, res.Source)
	if res.Message != "" {
		fmt.Println(res.Message)
	}
	if res.Metrics.PrimaryLabel != "" {
		fmt.Printf("%s: %s\n", res.Metrics.PrimaryLabel, verify.FormatUSD(res.Metrics.PrimaryValue))
	}
}
