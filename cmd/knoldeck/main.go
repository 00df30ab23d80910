package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/conorfennell/knoldeck/internal/config"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/srs"
	"github.com/conorfennell/knoldeck/internal/stats"
	"github.com/conorfennell/knoldeck/internal/storage"
	"github.com/conorfennell/knoldeck/internal/study"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// execute runs one command line. The database is closed afterwards even
// when the command fails.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{now: time.Now}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	db     *storage.DB
	loc    *time.Location
	params *srs.Params
	log    *slog.Logger
	now    func() time.Time
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "knoldeck",
		Short:         "Spaced-repetition flashcards backed by SQLite",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(a.deckCmd())
	root.AddCommand(a.cardCmd())
	root.AddCommand(a.dueCmd())
	root.AddCommand(a.reviewCmd())
	root.AddCommand(a.previewCmd())
	root.AddCommand(a.statsCmd())
	root.AddCommand(a.importCmd())
	return root
}

// open loads configuration and opens the database.
func (a *app) open(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.log, err = newLogger(cfg.Log, cmd.ErrOrStderr()); err != nil {
		return err
	}
	slog.SetDefault(a.log)

	if a.loc, err = cfg.Location(); err != nil {
		return err
	}
	if a.params, err = cfg.Params(); err != nil {
		return err
	}
	a.db, err = storage.Open(cfg.DB.Path,
		storage.WithLocation(a.loc),
		storage.WithParams(a.params),
		storage.WithClock(a.now),
	)
	if err != nil {
		return err
	}
	a.log.Debug("database opened", "path", cfg.DB.Path)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *app) study() *study.Service {
	return study.NewService(a.db, a.params, study.WithClock(a.now), study.WithLogger(a.log))
}

func (a *app) stats() *stats.Aggregator {
	return stats.NewAggregator(a.db)
}

func newLogger(c config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: kind, Reason: fmt.Sprintf("%q is not an id", s)}
	}
	return id, nil
}

// deckFilter reads the --deck flag. Zero means every deck.
func deckFilter(cmd *cobra.Command) (*int64, error) {
	id, err := cmd.Flags().GetInt64("deck")
	if err != nil || id == 0 {
		return nil, err
	}
	if id < 0 {
		return nil, &domain.ValidationError{Field: "deck", Reason: "must be positive"}
	}
	return &id, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// firstLine shortens card text for one-row listings.
func firstLine(s string) string {
	line, _, cut := strings.Cut(s, "\n")
	if r := []rune(line); len(r) > 40 {
		return string(r[:39]) + "…"
	} else if cut {
		return line + " …"
	}
	return line
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04")
}
