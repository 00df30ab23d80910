package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) deckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck",
		Short: "Create, list, rename and delete decks",
	}
	cmd.AddCommand(a.deckCreateCmd(), a.deckListCmd(), a.deckRenameCmd(), a.deckDeleteCmd())
	return cmd
}

func (a *app) deckCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			deck, err := a.db.CreateDeck(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created deck %d: %s\n", deck.ID, deck.Name)
			return nil
		},
	}
	cmd.Flags().StringP("description", "d", "", "Deck description")
	return cmd
}

func (a *app) deckListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List decks with card and due counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			decks, err := a.db.ListDecks(cmd.Context(), a.now())
			if err != nil {
				return err
			}
			if len(decks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No decks yet. Create one with: knoldeck deck create NAME")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tCARDS\tDUE\tDESCRIPTION")
			for _, d := range decks {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", d.ID, d.Name, d.CardCount, d.DueCount, firstLine(d.Description))
			}
			return tw.Flush()
		},
	}
}

func (a *app) deckRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a deck, optionally replacing its description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("deck", args[0])
			if err != nil {
				return err
			}
			deck, err := a.db.GetDeck(cmd.Context(), id)
			if err != nil {
				return err
			}
			description := deck.Description
			if cmd.Flags().Changed("description") {
				description, _ = cmd.Flags().GetString("description")
			}
			deck, err = a.db.UpdateDeck(cmd.Context(), id, args[1], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed deck %d to %s\n", deck.ID, deck.Name)
			return nil
		},
	}
	cmd.Flags().StringP("description", "d", "", "New description")
	return cmd
}

func (a *app) deckDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a deck with its cards, reviews and statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("deck", args[0])
			if err != nil {
				return err
			}
			if err := a.db.DeleteDeck(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %d\n", id)
			return nil
		},
	}
}
