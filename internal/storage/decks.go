package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/conorfennell/iquiz/internal/domain"
)

// AddDeck creates a deck and returns its freshly assigned id.
func (db *DB) AddDeck(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, domain.ErrEmptyDeckName
	}

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO decks (name, created_at)
		VALUES (?, ?)
	`, name, db.timestamp())
	if err != nil {
		return 0, db.fail("add deck", err, "name", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, db.fail("add deck", err, "name", name)
	}
	db.logger.Info("deck added", "deck_id", id, "name", name)
	return id, nil
}

// GetDecks returns every deck ordered by id.
func (db *DB) GetDecks(ctx context.Context) ([]domain.Deck, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM decks ORDER BY id
	`)
	if err != nil {
		return nil, db.fail("get decks", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		var d domain.Deck
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, db.fail("get decks", err)
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail("get decks", err)
	}
	return decks, nil
}

// GetDeckInfo returns the deck with the given id, or nil if there is none.
func (db *DB) GetDeckInfo(ctx context.Context, deckID int64) (*domain.Deck, error) {
	var d domain.Deck
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM decks WHERE id = ?
	`, deckID).Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Deck not found
		}
		return nil, db.fail("get deck info", err, "deck_id", deckID)
	}
	return &d, nil
}

// GetLatestDeckID returns the most recently created deck. ok is false when
// there are no decks.
func (db *DB) GetLatestDeckID(ctx context.Context) (id int64, ok bool, err error) {
	err = db.conn.QueryRowContext(ctx, `
		SELECT id FROM decks ORDER BY id DESC LIMIT 1
	`).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, db.fail("get latest deck id", err)
	}
	return id, true, nil
}

// DeleteDeck removes a deck together with its flashcards and their tag links.
func (db *DB) DeleteDeck(ctx context.Context, deckID int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, deckID)
	if err != nil {
		return db.fail("delete deck", err, "deck_id", deckID)
	}
	if n, err := res.RowsAffected(); err != nil {
		return db.fail("delete deck", err, "deck_id", deckID)
	} else if n == 0 {
		return fmt.Errorf("%w: %d", domain.ErrDeckNotFound, deckID)
	}
	db.logger.Info("deck deleted", "deck_id", deckID)
	return nil
}
