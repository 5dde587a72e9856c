// Package importer loads markdown flashcards from a local directory or a
// git repository into a deck.
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
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/gitsource"
	"github.com/conorfennell/iquiz/internal/knol"
	"github.com/conorfennell/iquiz/internal/parser"
)

// DefaultPattern matches markdown files at any depth.
const DefaultPattern = "**/*.{md,markdown}"

// Store is the persistence surface the importer writes to.
type Store interface {
	GetDeckInfo(ctx context.Context, deckID int64) (*domain.Deck, error)
	FindCardByHash(ctx context.Context, deckID int64, hash string) (*domain.CardSummary, error)
	AddFlashcard(ctx context.Context, deckID int64, question, answer string, tags ...string) (string, error)
}

// SyncFunc fetches a git repository into a local directory.
type SyncFunc func(logger *slog.Logger, url, localPath string, progress io.Writer) error

// Importer walks markdown sources and adds their cards to a deck.
type Importer struct {
	store    Store
	reposDir string
	pattern  string
	logger   *slog.Logger
	progress io.Writer
	sync     SyncFunc
}

// Option configures an Importer.
type Option func(*Importer)

// WithReposDir sets where git sources are cloned.
func WithReposDir(dir string) Option {
	return func(im *Importer) { im.reposDir = dir }
}

// WithPattern sets the doublestar pattern selecting card files.
func WithPattern(pattern string) Option {
	return func(im *Importer) { im.pattern = pattern }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.logger = l
		}
	}
}

// WithProgress sets where git clone/pull progress is written.
func WithProgress(w io.Writer) Option {
	return func(im *Importer) { im.progress = w }
}

// WithSync replaces the git fetcher.
func WithSync(fn SyncFunc) Option {
	return func(im *Importer) {
		if fn != nil {
			im.sync = fn
		}
	}
}

// New creates an Importer.
func New(store Store, opts ...Option) *Importer {
	im := &Importer{
		store:    store,
		reposDir: "repos",
		pattern:  DefaultPattern,
		logger:   slog.Default(),
		sync:     gitsource.Sync,
	}
	for _, opt := range opts {
		opt(im)
	}
	im.logger = im.logger.With("component", "importer")
	return im
}

// Report summarizes an import run.
type Report struct {
	Source   string  `json:"source"`
	Files    int     `json:"files"`
	Parsed   int     `json:"parsed"`
	Imported int     `json:"imported"`
	Skipped  int     `json:"skipped"`
	Errors   []error `json:"-"`
}

// ErrorMessages returns the per-file errors as strings.
func (r *Report) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

// Import adds every card found under source to the deck. source is a
// local directory or a git URL. Cards whose content already exists in the
// deck are skipped. Files that fail to parse are recorded in the report
// and do not stop the run; store failures do.
func (im *Importer) Import(ctx context.Context, deckID int64, source string) (*Report, error) {
	if !doublestar.ValidatePattern(im.pattern) {
		return nil, fmt.Errorf("%w: invalid file pattern %q", domain.ErrPrecondition, im.pattern)
	}

	deck, err := im.store.GetDeckInfo(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrDeckNotFound, deckID)
	}

	root, err := im.resolve(source)
	if err != nil {
		return nil, err
	}

	matches, err := doublestar.Glob(os.DirFS(root), im.pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	slices.Sort(matches)

	report := &Report{Source: source}
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		report.Files++

		cards, err := parser.ParseFile(path)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", rel, err))
			continue
		}
		for _, card := range cards {
			report.Parsed++
			added, err := im.add(ctx, deckID, card)
			if err != nil {
				return report, err
			}
			if added {
				report.Imported++
			} else {
				report.Skipped++
			}
		}
	}

	im.logger.Info("import complete",
		"deck_id", deckID,
		"source", source,
		"files", report.Files,
		"parsed_cards", report.Parsed,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"errors", len(report.Errors),
	)
	return report, nil
}

// resolve returns the local directory holding source, fetching it first
// when it is a git URL.
func (im *Importer) resolve(source string) (string, error) {
	if !gitsource.IsGitURL(source) {
		info, err := os.Stat(source)
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: source %s does not exist", domain.ErrPrecondition, source)
		}
		if err != nil {
			return "", fmt.Errorf("failed to open source %s: %w", source, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("%w: source %s is not a directory", domain.ErrPrecondition, source)
		}
		return source, nil
	}

	localPath, err := gitsource.LocalPath(im.reposDir, source)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPrecondition, err)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create repos directory: %w", err)
	}
	if err := im.sync(im.logger, source, localPath, im.progress); err != nil {
		return "", err
	}
	return localPath, nil
}

func (im *Importer) add(ctx context.Context, deckID int64, card domain.Card) (bool, error) {
	card.Hash = knol.HashCard(card)

	existing, err := im.store.FindCardByHash(ctx, deckID, card.Hash)
	if err != nil {
		return false, err
	}
	if existing != nil {
		im.logger.Debug("card already in deck, skipping", "hash", card.Hash, "card_id", existing.ID)
		return false, nil
	}

	id, err := im.store.AddFlashcard(ctx, deckID, card.Question, card.Body(), card.Tags...)
	if err != nil {
		return false, err
	}
	im.logger.Debug("card imported", "card_id", id, "hash", card.Hash)
	return true, nil
}
