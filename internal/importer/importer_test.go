package importer

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:", storage.WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func quietOptions() (Options, *bytes.Buffer) {
	var buf bytes.Buffer
	return Options{Logger: slog.New(slog.NewTextHandler(&buf, nil)), Workers: 2}, &buf
}

func TestImportLocalDirectory(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	dir := writeFiles(t, map[string]string{
		"greetings.md":      "Q: hola\nA: hello\n\nQ: adiós\nA: goodbye\nC: farewell\n",
		"nested/numbers.md": "Q: uno\nA: one\n---\nQ: dos\n",
		"notes.txt":         "Q: ignored\nA: not markdown\n",
		".git/HEAD.md":      "Q: hidden\nA: skipped\n",
	})
	opts, logs := quietOptions()

	report, err := Import(ctx, db, "Spanish", dir, opts)
	require.NoError(t, err)

	assert.True(t, report.DeckCreated)
	assert.Equal(t, "Spanish", report.Deck.Name)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 4, report.Notes)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 0, report.Duplicates)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "dos", report.Skipped[0].Question)
	assert.Equal(t, 4, report.Skipped[0].Line)
	assert.Equal(t, "no answer", report.Skipped[0].Reason)
	assert.Contains(t, logs.String(), "import complete")

	cards, err := db.ListCards(ctx, &report.Deck.ID)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	backs := map[string]string{}
	for _, c := range cards {
		backs[c.Front] = c.Back
	}
	assert.Equal(t, "goodbye\n\nfarewell", backs["adiós"])
	assert.Equal(t, "hello", backs["hola"])
}

func TestImportDeduplicates(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	opts, _ := quietOptions()

	deck, err := db.CreateDeck(ctx, "Spanish", "")
	require.NoError(t, err)
	_, err = db.CreateCard(ctx, deck.ID, "Hola", "Hello")
	require.NoError(t, err)

	dir := writeFiles(t, map[string]string{
		"a.md": "Q: hola\nA: hello\n\nQ: gato\nA: cat\n",
		"b.md": "Q: GATO\nA: cat \n",
	})

	report, err := Import(ctx, db, " Spanish ", dir, opts)
	require.NoError(t, err)
	assert.False(t, report.DeckCreated)
	assert.Equal(t, deck.ID, report.Deck.ID)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 2, report.Duplicates)

	// A second run finds nothing new.
	report, err = Import(ctx, db, "Spanish", dir, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 3, report.Duplicates)

	cards, err := db.ListCards(ctx, &deck.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestImportRejectsBadInput(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	opts, _ := quietOptions()
	dir := writeFiles(t, map[string]string{"a.md": "Q: x\nA: y\n"})

	tests := []struct {
		name   string
		deck   string
		source string
		field  string
	}{
		{"empty deck", "  ", dir, "deck"},
		{"missing directory", "Deck", filepath.Join(dir, "absent"), "source"},
		{"file source", "Deck", filepath.Join(dir, "a.md"), "source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(ctx, db, tt.deck, tt.source, opts)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	decks, err := db.ListDecks(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, decks, "failed imports must not create decks")
}

func TestImportCancelled(t *testing.T) {
	db := openDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts, _ := quietOptions()
	dir := writeFiles(t, map[string]string{"a.md": "Q: x\nA: y\n"})

	_, err := Import(ctx, db, "Deck", dir, opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseAllKeepsFileOrder(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a.md", "b.md", "c.md", "d.md", "e.md"} {
		files[name] = "Q: " + name + "\nA: yes\n"
	}
	dir := writeFiles(t, files)

	paths, err := markdownFiles(dir)
	require.NoError(t, err)
	results, err := parseAll(context.Background(), append(paths, filepath.Join(dir, "gone.md")), 3)
	require.NoError(t, err)
	require.Len(t, results, 6)
	for i, name := range []string{"a.md", "b.md", "c.md", "d.md", "e.md"} {
		require.Len(t, results[i].notes, 1)
		assert.Equal(t, name, results[i].notes[0].Question)
	}
	assert.Error(t, results[5].err)
}
