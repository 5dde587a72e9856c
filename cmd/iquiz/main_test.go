package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/iquiz/internal/domain"
)

// runCLI runs iquiz against dbPath with input on stdin and returns stdout.
func runCLI(t *testing.T, dbPath, input string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	base := []string{"--db", dbPath, "--log-level", "error"}
	err := run(t.Context(), append(base, args...), strings.NewReader(input), &out, &errOut)
	return out.String(), err
}

// runCLIAt is runCLI with the clock pinned to now.
func runCLIAt(t *testing.T, now time.Time, dbPath, input string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := &application{now: func() time.Time { return now }}
	base := []string{"--db", dbPath, "--log-level", "error"}
	err := app.execute(t.Context(), append(base, args...), strings.NewReader(input), &out, &errOut)
	return out.String(), err
}

func mustRun(t *testing.T, dbPath string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dbPath, "", args...)
	require.NoError(t, err, out)
	return out
}

func addCard(t *testing.T, dbPath, question, answer string, extra ...string) string {
	t.Helper()
	out := mustRun(t, dbPath, append([]string{"card", "add", "-q", question, "-a", answer}, extra...)...)
	id, ok := strings.CutPrefix(strings.TrimSpace(out), "Added card ")
	require.True(t, ok, out)
	return id
}

func TestDeckAndCardCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	assert.Equal(t, "No decks yet.\n", mustRun(t, db, "deck", "list"))
	assert.Equal(t, "Created deck 1: Go\n", mustRun(t, db, "deck", "add", "Go"))

	id := addCard(t, db, "What is a goroutine?", "A lightweight thread", "-t", "concurrency")
	addCard(t, db, "What is a channel?", "A typed conduit")

	out := mustRun(t, db, "card", "list", "--tag", "concurrency")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "due")
	assert.NotContains(t, out, "channel")

	out = mustRun(t, db, "deck", "show")
	assert.Contains(t, out, "Deck 1: Go")
	assert.Contains(t, out, "Cards: 2")
	assert.Contains(t, out, "Due:   2")

	mustRun(t, db, "card", "edit", id, "-q", "Define goroutine")
	out = mustRun(t, db, "card", "show", id)
	assert.Contains(t, out, "Q: Define goroutine")
	assert.Contains(t, out, "A: A lightweight thread")
	assert.Contains(t, out, "Tags: concurrency")
	assert.Contains(t, out, "Easiness:    2.50")

	assert.Equal(t, "Tags: basics, concurrency\n", mustRun(t, db, "card", "tag", id, "basics"))
	mustRun(t, db, "card", "untag", id, "concurrency")
	assert.Equal(t, "basics\nconcurrency\n", mustRun(t, db, "tags"))
	mustRun(t, db, "tags", "delete", "concurrency")
	assert.Equal(t, "basics\n", mustRun(t, db, "tags"))

	mustRun(t, db, "card", "delete", id)
	_, err := runCLI(t, db, "", "card", "show", id)
	assert.ErrorIs(t, err, domain.ErrCardNotFound)

	mustRun(t, db, "deck", "delete", "1")
	_, err = runCLI(t, db, "", "deck", "show", "1")
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)
}

func TestCommandErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	_, err := runCLI(t, db, "", "card", "add", "-q", "q", "-a", "a")
	assert.ErrorIs(t, err, domain.ErrNoDeckSelected)

	mustRun(t, db, "deck", "add", "Go")
	_, err = runCLI(t, db, "", "card", "add", "-q", " ", "-a", "a")
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	_, err = runCLI(t, db, "", "deck", "add", "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyDeckName)

	_, err = runCLI(t, db, "", "deck", "show", "abc")
	assert.Error(t, err)

	_, err = runCLI(t, db, "", "--log-level", "loud", "deck", "list")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestReviewCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	mustRun(t, db, "deck", "add", "Go")
	addCard(t, db, "2+2?", "4")

	out, err := runCLI(t, db, "\nbanana\n7\nagain\n", "review")
	require.NoError(t, err)
	assert.Contains(t, out, "Q: 2+2?")
	assert.Contains(t, out, "A: 4")
	assert.Contains(t, out, "unknown difficulty label")
	assert.Contains(t, out, "grade must be between 0 and 5")
	assert.Contains(t, out, "Next review in 1 day(s). Streak: 0")
	assert.Contains(t, out, "Nothing due.")
	assert.Contains(t, out, "Reviewed 1 card(s), 0 passed.")

	out, err = runCLI(t, db, "", "review")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing due.")
}

func TestReviewFollowsTheClock(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	at := func(d time.Duration, input string, args ...string) string {
		t.Helper()
		out, err := runCLIAt(t, start.Add(d), db, input, args...)
		require.NoError(t, err, out)
		return out
	}

	at(0, "", "deck", "add", "Go")
	at(0, "", "card", "add", "-q", "2+2?", "-a", "4")
	out := at(0, "\neasy\n", "review")
	assert.Contains(t, out, "Next review in 1 day(s).")

	out = at(12*time.Hour, "", "review")
	assert.Contains(t, out, "Nothing due.")
	assert.NotContains(t, out, "Q: 2+2?")
	assert.NotContains(t, at(12*time.Hour, "", "card", "list"), "\tdue\t")

	out = at(25*time.Hour, "\n", "review")
	assert.Contains(t, out, "Q: 2+2?")
	assert.Contains(t, at(25*time.Hour, "", "card", "list"), "\tdue\t")
	assert.Contains(t, at(25*time.Hour, "", "deck", "show"), "Due:   1")
}

func TestReviewStreakMilestone(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	mustRun(t, db, "deck", "add", "Go")
	for _, q := range []string{"one", "two", "three", "four", "five", "six"} {
		addCard(t, db, q, q)
	}

	input := strings.Repeat("\neasy\n", 5) + "q\n"
	out, err := runCLI(t, db, input, "review")
	require.NoError(t, err)
	assert.Contains(t, out, "Streak: 4\n")
	assert.Contains(t, out, "Streak: 5\nMilestone: five in a row!")
	assert.Equal(t, 1, strings.Count(out, "Milestone:"))
	assert.Contains(t, out, "Reviewed 5 card(s), 5 passed.")
}

func TestReviewByTag(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	mustRun(t, db, "deck", "add", "Go")
	addCard(t, db, "tagged", "yes", "-t", "focus")
	addCard(t, db, "untagged", "no")

	out, err := runCLI(t, db, "\nhard\n", "review", "--tag", "focus")
	require.NoError(t, err)
	assert.Contains(t, out, "Q: tagged")
	assert.NotContains(t, out, "Q: untagged")
}

func TestImportCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	mustRun(t, db, "deck", "add", "Go")

	dir := t.TempDir()
	content := "Q: one\nA: 1\n\nQ: two\nA: 2\nC: even\nT: numbers\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cards.md"), []byte(content), 0o644))

	out := mustRun(t, db, "import", "--deck", "1", dir)
	assert.Contains(t, out, "Scanned 1 file(s): 2 card(s) found, 2 imported, 0 already present.")
	out = mustRun(t, db, "import", dir)
	assert.Contains(t, out, "0 imported, 2 already present.")

	assert.Equal(t, "numbers\n", mustRun(t, db, "tags"))

	_, err := runCLI(t, db, "", "import", "--deck", "1", filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
