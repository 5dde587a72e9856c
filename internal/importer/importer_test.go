package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setup(t *testing.T) (*storage.DB, int64) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "import.db"), storage.WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	deckID, err := db.AddDeck(context.Background(), "Imported")
	require.NoError(t, err)
	return db, deckID
}

func TestImportLocalDirectory(t *testing.T) {
	ctx := context.Background()
	db, deckID := setup(t)

	src := t.TempDir()
	writeFile(t, filepath.Join(src, "go.md"), `
Q: What is a goroutine?
A: A lightweight thread
T: go, concurrency

Q: What does defer do?
A: Runs a call when the function returns
C: Deferred calls run in LIFO order
`)
	writeFile(t, filepath.Join(src, "nested", "deeper", "more.markdown"), "Q: Nested?\nA: Yes")
	writeFile(t, filepath.Join(src, "notes.txt"), "Q: Ignored\nA: Not markdown")
	writeFile(t, filepath.Join(src, "broken.md"), "Q: "+strings.Repeat("x", 70*1024))

	im := New(db, WithLogger(quietLogger()))

	report, err := im.Import(ctx, deckID, src)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Files)
	assert.Equal(t, 3, report.Parsed)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.ErrorMessages()[0], "broken.md")

	cards, err := db.GetCardsFromDeck(ctx, deckID, "concurrency")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "What is a goroutine?", cards[0].Question)

	all, err := db.GetCardsFromDeck(ctx, deckID, "")
	require.NoError(t, err)
	var deferAnswer string
	for _, c := range all {
		if c.Question == "What does defer do?" {
			deferAnswer = c.Answer
		}
	}
	assert.Equal(t, "Runs a call when the function returns\n\nDeferred calls run in LIFO order", deferAnswer)

	t.Run("re-import skips existing cards", func(t *testing.T) {
		report, err := im.Import(ctx, deckID, src)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Imported)
		assert.Equal(t, 3, report.Skipped)

		all, err := db.GetCardsFromDeck(ctx, deckID, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestImportGitSource(t *testing.T) {
	ctx := context.Background()
	db, deckID := setup(t)
	reposDir := t.TempDir()

	var synced []string
	fakeSync := func(_ *slog.Logger, url, localPath string, _ io.Writer) error {
		synced = append(synced, url)
		writeFile(t, filepath.Join(localPath, "deck.md"), "Q: From git?\nA: Yes")
		return nil
	}

	im := New(db,
		WithLogger(quietLogger()),
		WithReposDir(reposDir),
		WithSync(fakeSync),
	)

	report, err := im.Import(ctx, deckID, "https://github.com/example/cards.git")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://github.com/example/cards.git"}, synced)
	assert.Equal(t, 1, report.Imported)
	assert.DirExists(t, filepath.Join(reposDir, "github.com", "example", "cards"))
}

func TestImportErrors(t *testing.T) {
	ctx := context.Background()
	db, deckID := setup(t)
	im := New(db, WithLogger(quietLogger()))

	_, err := im.Import(ctx, deckID+100, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)

	_, err = im.Import(ctx, deckID, filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, domain.ErrPrecondition)

	file := filepath.Join(t.TempDir(), "single.md")
	writeFile(t, file, "Q: a\nA: b")
	_, err = im.Import(ctx, deckID, file)
	assert.ErrorIs(t, err, domain.ErrPrecondition)

	bad := New(db, WithLogger(quietLogger()), WithPattern("[unclosed"))
	_, err = bad.Import(ctx, deckID, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}
