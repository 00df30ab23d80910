package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) cardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Add, list, edit and delete cards",
	}
	cmd.AddCommand(a.cardAddCmd(), a.cardListCmd(), a.cardEditCmd(), a.cardDeleteCmd())
	return cmd
}

func (a *app) cardAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add DECK_ID FRONT BACK",
		Short: "Add a card to a deck",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := parseID("deck", args[0])
			if err != nil {
				return err
			}
			card, err := a.db.CreateCard(cmd.Context(), deckID, args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created card %d in deck %d\n", card.ID, card.DeckID)
			return nil
		},
	}
}

func (a *app) cardListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards with their schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := deckFilter(cmd)
			if err != nil {
				return err
			}
			cards, err := a.db.ListCards(cmd.Context(), deckID)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDECK\tFRONT\tINTERVAL\tEASE\tREPS\tNEXT REVIEW")
			for _, c := range cards {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%.2f\t%d\t%s\n",
					c.ID, c.DeckID, firstLine(c.Front), c.Schedule.Interval, c.Schedule.Ease,
					c.Schedule.Repetitions, formatTime(c.Schedule.NextReview, a.loc))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int64("deck", 0, "Only list cards in this deck")
	return cmd
}

func (a *app) cardEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a card's front or back; the schedule is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("card", args[0])
			if err != nil {
				return err
			}
			card, err := a.db.GetCard(cmd.Context(), id)
			if err != nil {
				return err
			}
			front, back := card.Front, card.Back
			if cmd.Flags().Changed("front") {
				front, _ = cmd.Flags().GetString("front")
			}
			if cmd.Flags().Changed("back") {
				back, _ = cmd.Flags().GetString("back")
			}
			if _, err := a.db.UpdateCardContent(cmd.Context(), id, front, back); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated card %d\n", id)
			return nil
		},
	}
	cmd.Flags().String("front", "", "New front text")
	cmd.Flags().String("back", "", "New back text")
	cmd.MarkFlagsOneRequired("front", "back")
	return cmd
}

func (a *app) cardDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a card and its review history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("card", args[0])
			if err != nil {
				return err
			}
			if err := a.db.DeleteCard(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %d\n", id)
			return nil
		},
	}
}
