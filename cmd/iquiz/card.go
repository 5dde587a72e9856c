package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/review"
)

func (a *application) newCardCmd() *cobra.Command {
	cardCmd := &cobra.Command{
		Use:   "card",
		Short: "Manage flashcards",
	}
	cardCmd.AddCommand(
		a.newCardAddCmd(),
		a.newCardListCmd(),
		a.newCardShowCmd(),
		a.newCardEditCmd(),
		&cobra.Command{
			Use:   "delete <card-id>",
			Short: "Delete a card",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := a.store()
				if err != nil {
					return err
				}
				if err := db.DeleteCard(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "tag <card-id> <tag>...",
			Short: "Attach tags to a card",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := a.store()
				if err != nil {
					return err
				}
				if err := db.SetTags(cmd.Context(), args[0], args[1:]...); err != nil {
					return err
				}
				tags, err := db.GetTags(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tags: %s\n", strings.Join(tags, ", "))
				return nil
			},
		},
		&cobra.Command{
			Use:   "untag <card-id> <tag>",
			Short: "Detach a tag from a card",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := a.store()
				if err != nil {
					return err
				}
				return db.RemoveTag(cmd.Context(), args[0], args[1])
			},
		},
	)
	return cardCmd
}

func (a *application) newCardAddCmd() *cobra.Command {
	var (
		deckID           int64
		question, answer string
		tags             []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a card to a deck",
		Long:  "Add a card to a deck. Without --deck the most recently created deck is used.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context(), deckID)
			if err != nil {
				return err
			}
			id, err := sess.AddFlashcard(cmd.Context(), question, answer, tags...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added card %s\n", id)
			return nil
		},
	}
	cmd.Flags().Int64Var(&deckID, "deck", 0, "Deck id")
	cmd.Flags().StringVarP(&question, "question", "q", "", "Question text")
	cmd.Flags().StringVarP(&answer, "answer", "a", "", "Answer text")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag to attach (repeatable)")
	cmd.MarkFlagRequired("question")
	cmd.MarkFlagRequired("answer")
	return cmd
}

func (a *application) newCardListCmd() *cobra.Command {
	var (
		deckID int64
		tag    string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the cards of a deck, soonest due first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context(), deckID)
			if err != nil {
				return err
			}
			id, ok := sess.CurrentDeck()
			if !ok {
				return domain.ErrNoDeckSelected
			}
			cards, err := a.db.GetCardsFromDeck(cmd.Context(), id, tag)
			if err != nil {
				return err
			}
			review.SortByDue(cards)

			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintln(out, "No cards.")
				return nil
			}
			now := sess.Now()
			for _, c := range cards {
				due := c.NextReviewDate.Local().Format("2006-01-02")
				if c.IsDue(now) {
					due = "due"
				}
				fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", c.ID, due, c.RepetitionCount, firstLine(c.Question))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&deckID, "deck", 0, "Deck id")
	cmd.Flags().StringVar(&tag, "tag", "", "Only list cards with this tag")
	return cmd
}

func (a *application) newCardShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <card-id>",
		Short: "Show a card with its schedule and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}
			card, err := db.GetFullCardData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if card == nil {
				return fmt.Errorf("%w: %s", domain.ErrCardNotFound, args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Card %s (deck %d)\n", card.ID, card.DeckID)
			fmt.Fprintf(out, "Q: %s\n", card.Question)
			fmt.Fprintf(out, "A: %s\n", card.Answer)
			if len(card.Tags) > 0 {
				fmt.Fprintf(out, "Tags: %s\n", strings.Join(card.Tags, ", "))
			}
			fmt.Fprintf(out, "Repetitions: %d\n", card.Schedule.RepetitionCount)
			fmt.Fprintf(out, "Easiness:    %.2f\n", card.Schedule.EasinessFactor)
			fmt.Fprintf(out, "Interval:    %d day(s)\n", card.Schedule.IntervalDays)
			fmt.Fprintf(out, "Next review: %s\n", card.Schedule.NextReviewDate.Local().Format(time.DateTime))
			if card.LastReviewedAt != nil {
				fmt.Fprintf(out, "Last review: %s\n", card.LastReviewedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

func (a *application) newCardEditCmd() *cobra.Command {
	var question, answer string
	cmd := &cobra.Command{
		Use:   "edit <card-id>",
		Short: "Change the question or answer of a card",
		Long:  "Change the question or answer of a card. The card keeps its schedule.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}
			card, err := db.GetFullCardData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if card == nil {
				return fmt.Errorf("%w: %s", domain.ErrCardNotFound, args[0])
			}
			if cmd.Flags().Changed("question") {
				card.Question = question
			}
			if cmd.Flags().Changed("answer") {
				card.Answer = answer
			}
			if strings.TrimSpace(card.Question) == "" || strings.TrimSpace(card.Answer) == "" {
				return domain.ErrEmptyContent
			}
			if err := db.UpdateCard(cmd.Context(), card.ID, card.Question, card.Answer); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated card %s\n", card.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "New question text")
	cmd.Flags().StringVarP(&answer, "answer", "a", "", "New answer text")
	cmd.MarkFlagsOneRequired("question", "answer")
	return cmd
}

func (a *application) newTagsCmd() *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "List every tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}
			tags, err := db.GetTags(cmd.Context(), "")
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
	tagsCmd.AddCommand(&cobra.Command{
		Use:   "delete <tag>",
		Short: "Delete a tag and detach it from every card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}
			return db.DeleteTag(cmd.Context(), args[0])
		},
	})
	return tagsCmd
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
