package main

import (
	"fmt"

	"github.com/conorfennell/knoldeck/internal/importer"
	"github.com/spf13/cobra"
)

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import SOURCE",
		Short: "Import Q:/A: markdown notes from a directory or git repository",
		Long: `Import reads every .md file under SOURCE and adds each note as a card.

A note starts with a "Q:" line, its answer with "A:" and optional context
with "C:". SOURCE may be a local directory or a git URL, which is cloned
into the repos directory (or pulled if already cloned). Notes the deck
already holds are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, _ := cmd.Flags().GetString("deck")
			workers, _ := cmd.Flags().GetInt("workers")
			report, err := importer.Import(cmd.Context(), a.db, deck, args[0], importer.Options{
				ReposDir: a.cfg.Import.ReposDir,
				Workers:  workers,
				Progress: cmd.ErrOrStderr(),
				Logger:   a.log,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if report.DeckCreated {
				fmt.Fprintf(w, "Created deck %d: %s\n", report.Deck.ID, report.Deck.Name)
			}
			fmt.Fprintf(w, "Imported %d card(s) from %d file(s); %d already present, %d skipped.\n",
				report.Imported, report.Files, report.Duplicates, len(report.Skipped))
			for _, s := range report.Skipped {
				fmt.Fprintf(w, "  skipped %s:%d %q: %s\n", s.Path, s.Line, s.Question, s.Reason)
			}
			for _, e := range report.FileErrors {
				fmt.Fprintf(w, "  error: %v\n", e)
			}
			return nil
		},
	}
	cmd.Flags().String("deck", "", "Deck to import into; created if missing")
	cmd.Flags().Int("workers", 0, "Files parsed in parallel (default: one per CPU)")
	_ = cmd.MarkFlagRequired("deck")
	return cmd
}
