package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/iquiz/internal/config"
	"github.com/conorfennell/iquiz/internal/logger"
	"github.com/conorfennell/iquiz/internal/review"
	"github.com/conorfennell/iquiz/internal/storage"
)

// application carries what every command needs once flags are parsed.
type application struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
	db     *storage.DB
	now    func() time.Time
}

// run builds the command tree, executes it against args and closes the
// store afterwards.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	app := &application{now: time.Now}
	return app.execute(ctx, args, in, out, errOut)
}

func (a *application) execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	defer a.close()

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

func (a *application) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "iquiz",
		Short: "Spaced-repetition flashcards in the terminal",
		Long: `iquiz keeps decks of question and answer cards in a SQLite database and
schedules their reviews with the SM-2 algorithm.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Log.Level = "debug"
			}
			a.cfg = cfg
			a.logger = logger.Setup(cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	flags.String("db", "", "Path to the SQLite database file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text, json)")
	flags.Int("max-retries", 0, "Retries when a card changes while it is being graded")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		a.newDeckCmd(),
		a.newCardCmd(),
		a.newTagsCmd(),
		a.newReviewCmd(),
		a.newImportCmd(),
		a.newServeCmd(),
	)
	return root
}

// store opens the database on first use.
func (a *application) store() (*storage.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := storage.Open(a.cfg.DB.Path, storage.WithLogger(a.logger), storage.WithClock(a.now))
	if err != nil {
		return nil, err
	}
	a.logger.Debug("database opened", "path", a.cfg.DB.Path)
	a.db = db
	return db, nil
}

func (a *application) reviewer(db *storage.DB, opts ...review.Option) *review.Reviewer {
	base := []review.Option{
		review.WithLogger(a.logger),
		review.WithMaxRetries(a.cfg.Review.MaxRetries),
		review.WithClock(a.now),
	}
	return review.NewReviewer(db, append(base, opts...)...)
}

// session opens a review session on deckID, or on the latest deck when
// deckID is zero.
func (a *application) session(ctx context.Context, deckID int64, opts ...review.Option) (*review.Session, error) {
	db, err := a.store()
	if err != nil {
		return nil, err
	}
	sess, err := review.NewSession(ctx, db, a.reviewer(db, opts...), nil)
	if err != nil {
		return nil, err
	}
	if deckID != 0 {
		if err := sess.SelectDeck(ctx, deckID); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (a *application) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}
	a.db = nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid deck id %q", s)
	}
	return id, nil
}
