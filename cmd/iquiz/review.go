package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/review"
	"github.com/conorfennell/iquiz/internal/sm2"
)

// reviewTally counts graded cards for the end-of-session summary.
type reviewTally struct {
	reviewed, passed int
}

func (a *application) newReviewCmd() *cobra.Command {
	var (
		deckID int64
		tag    string
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review the cards that are due",
		Long: `Review the cards that are due, one at a time. Press Enter to reveal the
answer, then grade it with easy, hard, very hard, again or a number from 0 to 5.
Enter q at any prompt to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tally := &reviewTally{}
			sess, err := a.session(cmd.Context(), deckID, review.WithObserver(review.ObserverFuncs{
				OnGraded: func(_ context.Context, e review.GradedEvent) {
					tally.reviewed++
					if e.Passed {
						tally.passed++
					}
				},
			}))
			if err != nil {
				return err
			}
			sess.FilterTag(tag)

			err = reviewLoop(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "Reviewed %d card(s), %d passed.\n", tally.reviewed, tally.passed)
			return err
		},
	}
	cmd.Flags().Int64Var(&deckID, "deck", 0, "Deck id (defaults to the most recent deck)")
	cmd.Flags().StringVar(&tag, "tag", "", "Only review cards with this tag")
	return cmd
}

var errQuit = errors.New("quit")

// reviewLoop presents due cards until none are left, the input ends or
// the user quits.
func reviewLoop(ctx context.Context, sess *review.Session, in io.Reader, out io.Writer) error {
	lines := bufio.NewScanner(in)
	prompt := func(text string) (string, error) {
		fmt.Fprint(out, text)
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return "", err
			}
			return "", errQuit
		}
		line := strings.TrimSpace(lines.Text())
		if strings.EqualFold(line, "q") {
			return "", errQuit
		}
		return line, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		card, err := sess.Next(ctx)
		if err != nil {
			return err
		}
		if card == nil {
			fmt.Fprintln(out, "No cards available.")
			return nil
		}
		if !card.IsDue(sess.Now()) {
			fmt.Fprintf(out, "Nothing due. Next review on %s.\n", card.NextReviewDate.Local().Format("2006-01-02"))
			return nil
		}

		fmt.Fprintf(out, "\nQ: %s\n", card.Question)
		if _, err := prompt("[Enter to show the answer] "); err != nil {
			return ignoreQuit(err)
		}
		fmt.Fprintf(out, "A: %s\n", card.Answer)

		for {
			input, err := prompt("Grade (easy, hard, very hard, again or 0-5): ")
			if err != nil {
				return ignoreQuit(err)
			}
			outcome, err := gradeInput(ctx, sess, card.ID, input)
			if errors.Is(err, domain.ErrPrecondition) {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Next review in %d day(s). Streak: %d\n", outcome.Next.IntervalDays, outcome.Streak)
			if outcome.Milestone != review.NoMilestone {
				fmt.Fprintf(out, "Milestone: %s!\n", outcome.Milestone)
			}
			break
		}
	}
}

func gradeInput(ctx context.Context, sess *review.Session, cardID, input string) (review.Outcome, error) {
	if n, err := strconv.Atoi(input); err == nil {
		return sess.Grade(ctx, cardID, sm2.Grade(n))
	}
	return sess.GradeLabel(ctx, cardID, input)
}

func ignoreQuit(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}
