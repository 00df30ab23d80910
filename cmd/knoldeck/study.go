package main

import (
	"fmt"
	"strconv"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/spf13/cobra"
)

func (a *app) dueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List cards due for review, most overdue first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := deckFilter(cmd)
			if err != nil {
				return err
			}
			cards, err := a.study().Due(cmd.Context(), deckID)
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due.")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDECK\tFRONT\tDUE SINCE")
			for _, c := range cards {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", c.ID, c.DeckID, firstLine(c.Front), formatTime(c.Schedule.NextReview, a.loc))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int64("deck", 0, "Only show cards in this deck")
	return cmd
}

func (a *app) reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review CARD_ID RATING",
		Short: "Record a review with a rating from 0 (forgot) to 5 (perfect)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("card", args[0])
			if err != nil {
				return err
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return &domain.ValidationError{Field: "rating", Reason: fmt.Sprintf("%q is not a number", args[1])}
			}
			spent, _ := cmd.Flags().GetDuration("time")
			out, err := a.study().Review(cmd.Context(), id, rating, spent)
			if err != nil {
				return err
			}
			s := out.Card.Schedule
			fmt.Fprintf(cmd.OutOrStdout(), "Card %d rated %s: next review in %d day(s) on %s (ease %.2f)\n",
				out.Card.ID, out.Event.Rating, s.Interval, formatTime(s.NextReview, a.loc), s.Ease)
			return nil
		},
	}
	cmd.Flags().Duration("time", 0, "Time spent on the card, e.g. 12s")
	return cmd
}

func (a *app) previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview CARD_ID",
		Short: "Show the schedule each rating would give a card, without reviewing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("card", args[0])
			if err != nil {
				return err
			}
			projections, err := a.study().Preview(cmd.Context(), id)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "RATING\tINTERVAL\tEASE\tNEXT REVIEW")
			for _, p := range projections {
				fmt.Fprintf(tw, "%d %s\t%d\t%.2f\t%s\n", int(p.Rating), p.Rating, p.Schedule.Interval,
					p.Schedule.Ease, formatTime(p.Schedule.NextReview, a.loc))
			}
			return tw.Flush()
		},
	}
}
