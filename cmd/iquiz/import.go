package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/importer"
)

func (a *application) newImportCmd() *cobra.Command {
	var deckID int64
	cmd := &cobra.Command{
		Use:   "import <dir|git-url>",
		Short: "Import markdown flashcards from a directory or git repository",
		Long: `Import markdown flashcards into a deck. Cards are written as

  Q: question
  A: answer
  C: optional context
  T: comma, separated, tags

A git URL is cloned into the repos directory, or pulled when it is already
there. Cards whose content is already in the deck are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context(), deckID)
			if err != nil {
				return err
			}
			id, ok := sess.CurrentDeck()
			if !ok {
				return domain.ErrNoDeckSelected
			}

			imp := importer.New(a.db,
				importer.WithReposDir(a.cfg.Import.ReposDir),
				importer.WithPattern(a.cfg.Import.Pattern),
				importer.WithLogger(a.logger),
				importer.WithProgress(cmd.ErrOrStderr()),
			)
			report, err := imp.Import(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d file(s): %d card(s) found, %d imported, %d already present.\n",
				report.Files, report.Parsed, report.Imported, report.Skipped)
			if len(report.Errors) > 0 {
				fmt.Fprintln(out, "\nErrors:")
				for _, msg := range report.ErrorMessages() {
					fmt.Fprintf(out, "- %s\n", msg)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&deckID, "deck", 0, "Deck id (defaults to the most recent deck)")
	cmd.Flags().String("repos-dir", "", "Directory git sources are cloned into")
	cmd.Flags().String("pattern", "", "Glob selecting card files")
	return cmd
}
