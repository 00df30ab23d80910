package main

import (
	"fmt"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/stats"
	"github.com/spf13/cobra"
)

func (a *app) statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show review statistics for the last N days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := deckFilter(cmd)
			if err != nil {
				return err
			}
			days, _ := cmd.Flags().GetInt("days")
			if days < 1 {
				return &domain.ValidationError{Field: "days", Reason: "must be at least 1"}
			}
			replay, _ := cmd.Flags().GetBool("replay")

			agg := a.stats()
			r := stats.LastDays(a.now(), days, a.loc)
			summary, err := agg.Summary(cmd.Context(), r, deckID)
			if replay {
				summary, err = agg.Recompute(cmd.Context(), r, deckID)
			}
			if err != nil {
				return err
			}
			streak, err := agg.Streak(cmd.Context(), a.now(), a.loc, deckID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s to %s\n", r.From, r.To)
			fmt.Fprintf(w, "Reviews: %d  Correct: %d  Accuracy: %.1f%%  Study time: %s  Streak: %d day(s)\n\n",
				summary.Total, summary.Correct(), summary.Accuracy()*100, summary.StudyTime.Round(time.Second), streak)
			if len(summary.Days) == 0 {
				return nil
			}
			tw := newTable(w)
			fmt.Fprintln(tw, "DATE\tTOTAL\tAGAIN\tHARD\tGOOD\tEASY\tPERFECT\tTIME")
			for _, d := range summary.Days {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n", d.Date, d.Total, d.Again, d.Hard,
					d.Good, d.Easy, d.Perfect, d.StudyTime.Round(time.Second))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int("days", 7, "Number of days to include, ending today")
	cmd.Flags().Int64("deck", 0, "Only count reviews in this deck")
	cmd.Flags().Bool("replay", false, "Compute from the review log instead of the stored daily counters")
	cmd.AddCommand(a.statsVerifyCmd(), a.statsRebuildCmd())
	return cmd
}

func (a *app) statsVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Compare stored daily counters against a replay of the review log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mismatches, err := a.stats().Verify(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(mismatches) == 0 {
				fmt.Fprintln(w, "Daily statistics match the review log.")
				return nil
			}
			tw := newTable(w)
			fmt.Fprintln(tw, "DATE\tDECK\tSTORED\tREPLAYED")
			for _, m := range mismatches {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", m.Date, m.DeckID, m.Stored.Total, m.Replayed.Total)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return fmt.Errorf("%d daily statistic row(s) differ from the review log; run 'knoldeck stats rebuild'", len(mismatches))
		},
	}
}

func (a *app) statsRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Recreate the daily counters from the review log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.stats().Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %d daily statistic row(s).\n", n)
			return nil
		},
	}
}
