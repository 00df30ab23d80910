// Package importer turns Q:/A:/C: markdown notes into cards. Sources are a
// local directory or a git repository, which is cloned or pulled first.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/gitsource"
	"github.com/conorfennell/knoldeck/internal/knol"
	"github.com/conorfennell/knoldeck/internal/parser"
	"golang.org/x/sync/errgroup"
)

// Store is the part of the record store an import writes to.
type Store interface {
	FindDeckByName(ctx context.Context, name string) (*domain.Deck, error)
	CreateDeck(ctx context.Context, name, description string) (*domain.Deck, error)
	ListCards(ctx context.Context, deckID *int64) ([]domain.Card, error)
	CreateCard(ctx context.Context, deckID int64, front, back string) (*domain.Card, error)
}

// Options tunes an import. The zero value parses with one worker per CPU and
// clones into "repos".
type Options struct {
	ReposDir string
	Workers  int
	Progress io.Writer // git clone/pull progress; nil discards it
	Logger   *slog.Logger
}

// Skipped is a note that was read but not turned into a card.
type Skipped struct {
	Path     string
	Line     int
	Question string
	Reason   string
}

// Report summarises an import.
type Report struct {
	Deck        domain.Deck
	DeckCreated bool
	Files       int
	Notes       int
	Imported    int
	Duplicates  int
	Skipped     []Skipped
	FileErrors  []error // files that could not be read; the rest still import
}

type parsed struct {
	path  string
	notes []domain.Note
	err   error
}

// Import reads every markdown file under source and adds the notes that the
// deck does not already hold. The deck is created when missing.
func Import(ctx context.Context, store Store, deckName, source string, opts Options) (*Report, error) {
	deckName = strings.TrimSpace(deckName)
	if deckName == "" {
		return nil, &domain.ValidationError{Field: "deck", Reason: "must not be empty"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := resolve(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	files, err := markdownFiles(dir)
	if err != nil {
		return nil, err
	}
	results, err := parseAll(ctx, files, opts.Workers)
	if err != nil {
		return nil, err
	}

	report := &Report{Files: len(files)}
	deck, err := store.FindDeckByName(ctx, deckName)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		if deck, err = store.CreateDeck(ctx, deckName, "Imported from "+source); err != nil {
			return nil, err
		}
		report.DeckCreated = true
	}
	report.Deck = *deck

	existing, err := store.ListCards(ctx, &deck.ID)
	if err != nil {
		return nil, err
	}
	seen := knol.Set{}
	for _, c := range existing {
		seen.Add(c.Front, c.Back)
	}

	for _, res := range results {
		if res.err != nil {
			logger.Warn("skipping unreadable file", "path", res.path, "error", res.err)
			report.FileErrors = append(report.FileErrors, fmt.Errorf("parsing %s: %w", res.path, res.err))
			continue
		}
		for _, note := range res.notes {
			report.Notes++
			if strings.TrimSpace(note.Answer) == "" {
				report.Skipped = append(report.Skipped, skipped(res.path, note, "no answer"))
				continue
			}
			front, back := note.Question, note.Back()
			if !seen.Add(front, back) {
				report.Duplicates++
				continue
			}
			if _, err := store.CreateCard(ctx, deck.ID, front, back); err != nil {
				var verr *domain.ValidationError
				if errors.As(err, &verr) {
					report.Skipped = append(report.Skipped, skipped(res.path, note, verr.Error()))
					continue
				}
				return report, err
			}
			report.Imported++
		}
	}

	logger.Info("import complete",
		"deck", deck.Name,
		"source", source,
		"files", report.Files,
		"notes", report.Notes,
		"imported", report.Imported,
		"duplicates", report.Duplicates,
		"skipped", len(report.Skipped),
		"errors", len(report.FileErrors),
	)
	return report, nil
}

func skipped(path string, n domain.Note, reason string) Skipped {
	return Skipped{Path: path, Line: n.Line, Question: n.Question, Reason: reason}
}

// resolve returns the local directory to scan, syncing git sources first.
func resolve(ctx context.Context, source string, opts Options) (string, error) {
	if gitsource.IsRemote(source) {
		reposDir := opts.ReposDir
		if reposDir == "" {
			reposDir = "repos"
		}
		localPath, err := gitsource.LocalPath(reposDir, source)
		if err != nil {
			return "", &domain.ValidationError{Field: "source", Reason: err.Error()}
		}
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return "", fmt.Errorf("failed to create repos directory: %w", err)
		}
		if err := gitsource.Sync(ctx, source, localPath, opts.Progress); err != nil {
			return "", err
		}
		return localPath, nil
	}

	info, err := os.Stat(source)
	if err != nil {
		return "", &domain.ValidationError{Field: "source", Reason: err.Error()}
	}
	if !info.IsDir() {
		return "", &domain.ValidationError{Field: "source", Reason: "not a directory"}
	}
	return source, nil
}

// markdownFiles lists the .md files under dir in lexical order, skipping
// hidden directories such as .git.
func markdownFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}

// parseAll parses files concurrently. Results keep the order of files. A
// file that fails to parse is reported in its result; only cancellation
// fails the whole call.
func parseAll(ctx context.Context, files []string, workers int) ([]parsed, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]parsed, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			notes, err := parser.ParseFile(path)
			results[i] = parsed{path: path, notes: notes, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
