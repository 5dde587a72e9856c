package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/iquiz/internal/domain"
)

func (a *application) newDeckCmd() *cobra.Command {
	deckCmd := &cobra.Command{
		Use:   "deck",
		Short: "Manage decks",
	}

	deckCmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a deck",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := a.store()
				if err != nil {
					return err
				}
				id, err := db.AddDeck(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created deck %d: %s\n", id, args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List all decks",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := a.store()
				if err != nil {
					return err
				}
				decks, err := db.GetDecks(cmd.Context())
				if err != nil {
					return err
				}
				if len(decks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No decks yet.")
					return nil
				}
				for _, d := range decks {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", d.ID, d.Name, d.CreatedAt.Local().Format("2006-01-02"))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show [id]",
			Short: "Show a deck and how many of its cards are due",
			Long:  "Show a deck and how many of its cards are due. Without an id the most recently created deck is shown.",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var deckID int64
				if len(args) == 1 {
					id, err := parseID(args[0])
					if err != nil {
						return err
					}
					deckID = id
				}
				sess, err := a.session(cmd.Context(), deckID)
				if err != nil {
					return err
				}
				info, err := sess.DeckInfo(cmd.Context())
				if err != nil {
					return err
				}
				if info == nil {
					return domain.ErrDeckNotFound
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Deck %d: %s\n", info.Deck.ID, info.Deck.Name)
				fmt.Fprintf(out, "Cards: %d\n", info.CardCount)
				fmt.Fprintf(out, "Due:   %d\n", info.DueCount)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a deck and all of its cards",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				db, err := a.store()
				if err != nil {
					return err
				}
				if err := db.DeleteDeck(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %d\n", id)
				return nil
			},
		},
	)
	return deckCmd
}
