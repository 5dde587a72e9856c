package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/knol"
)

const summaryColumns = `f.id, f.deck_id, f.question, f.answer, f.next_review_date, f.repetition_count`

func scanSummary(row scanner) (domain.CardSummary, error) {
	var c domain.CardSummary
	err := row.Scan(&c.ID, &c.DeckID, &c.Question, &c.Answer, &c.NextReviewDate, &c.RepetitionCount)
	return c, err
}

// AddFlashcard inserts a card into the deck with default scheduling state
// and returns its new id. Ids are random UUIDs and are never reused.
// deckID must reference an existing deck. The card and its tags are
// written in one transaction, so a rejected tag leaves nothing behind.
func (db *DB) AddFlashcard(ctx context.Context, deckID int64, question, answer string, tags ...string) (string, error) {
	if err := checkTagNames(tags); err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := db.timestamp()
	state := domain.NewSchedulingState(now)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", db.fail("add flashcard", err, "deck_id", deckID)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO flashcards (id, deck_id, question, answer, content_hash,
			repetition_count, last_reviewed_at, easiness_factor, interval_days,
			next_review_date, revision, created_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, 0, ?)
	`,
		id,
		deckID,
		question,
		answer,
		knol.Hash(question, answer),
		state.RepetitionCount,
		state.EasinessFactor,
		state.IntervalDays,
		state.NextReviewDate,
		now,
	)
	if err != nil {
		return "", db.fail("add flashcard", err, "deck_id", deckID)
	}
	if err := db.attachTags(ctx, tx, id, tags); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", db.fail("add flashcard", err, "deck_id", deckID)
	}
	db.logger.Info("flashcard added", "card_id", id, "deck_id", deckID, "tags", tags)
	return id, nil
}

// GetCardsFromDeck lists the cards of a deck. When tag is non-empty only
// cards carrying that tag are returned. Order is unspecified.
func (db *DB) GetCardsFromDeck(ctx context.Context, deckID int64, tag string) ([]domain.CardSummary, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if tag == "" {
		rows, err = db.conn.QueryContext(ctx, `
			SELECT `+summaryColumns+`
			FROM flashcards f WHERE f.deck_id = ?
		`, deckID)
	} else {
		rows, err = db.conn.QueryContext(ctx, `
			SELECT `+summaryColumns+`
			FROM flashcards f
			JOIN flashcard_tags ft ON ft.flashcard_id = f.id
			JOIN tags t ON t.id = ft.tag_id
			WHERE f.deck_id = ? AND t.name = ?
		`, deckID, tag)
	}
	if err != nil {
		return nil, db.fail("get cards from deck", err, "deck_id", deckID, "tag", tag)
	}
	defer rows.Close()

	var cards []domain.CardSummary
	for rows.Next() {
		c, err := scanSummary(rows)
		if err != nil {
			return nil, db.fail("get cards from deck", err, "deck_id", deckID)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail("get cards from deck", err, "deck_id", deckID)
	}
	return cards, nil
}

// GetCardData returns the scheduling state of a card, or nil if the card
// does not exist.
func (db *DB) GetCardData(ctx context.Context, cardID string) (*domain.SchedulingState, error) {
	var s domain.SchedulingState
	err := db.conn.QueryRowContext(ctx, `
		SELECT repetition_count, easiness_factor, interval_days, next_review_date, revision
		FROM flashcards WHERE id = ?
	`, cardID).Scan(&s.RepetitionCount, &s.EasinessFactor, &s.IntervalDays, &s.NextReviewDate, &s.Revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Card not found
		}
		return nil, db.fail("get card data", err, "card_id", cardID)
	}
	return &s, nil
}

// GetFullCardData returns the full snapshot of a card including its tags,
// or nil if the card does not exist.
func (db *DB) GetFullCardData(ctx context.Context, cardID string) (*domain.Flashcard, error) {
	var (
		f            domain.Flashcard
		lastReviewed sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, deck_id, question, answer, content_hash,
			repetition_count, easiness_factor, interval_days, next_review_date, revision,
			last_reviewed_at, created_at
		FROM flashcards WHERE id = ?
	`, cardID).Scan(
		&f.ID,
		&f.DeckID,
		&f.Question,
		&f.Answer,
		&f.ContentHash,
		&f.Schedule.RepetitionCount,
		&f.Schedule.EasinessFactor,
		&f.Schedule.IntervalDays,
		&f.Schedule.NextReviewDate,
		&f.Schedule.Revision,
		&lastReviewed,
		&f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Card not found
		}
		return nil, db.fail("get full card data", err, "card_id", cardID)
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time
		f.LastReviewedAt = &t
	}

	tags, err := db.GetTags(ctx, cardID)
	if err != nil {
		return nil, err
	}
	f.Tags = tags
	return &f, nil
}

// UpdateCardData overwrites the scheduling fields of a card and stamps
// last_reviewed_at with the current time. Question, answer and tags are
// left untouched. Revision is ignored on input and incremented in storage.
func (db *DB) UpdateCardData(ctx context.Context, cardID string, state domain.SchedulingState) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE flashcards
		SET repetition_count = ?, easiness_factor = ?, interval_days = ?,
			next_review_date = ?, last_reviewed_at = ?, revision = revision + 1
		WHERE id = ?
	`,
		state.RepetitionCount,
		state.EasinessFactor,
		state.IntervalDays,
		state.NextReviewDate.UTC(),
		db.timestamp(),
		cardID,
	)
	if err != nil {
		return db.fail("update card data", err, "card_id", cardID)
	}
	if err := db.requireAffected(res, "update card data", cardID); err != nil {
		return err
	}
	db.logger.Info("card scheduling updated", "card_id", cardID, "interval_days", state.IntervalDays)
	return nil
}

// CompareAndSwapCardData writes state only if the card is still at
// state.Revision. swapped is false when another write got there first.
func (db *DB) CompareAndSwapCardData(ctx context.Context, cardID string, state domain.SchedulingState) (swapped bool, err error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE flashcards
		SET repetition_count = ?, easiness_factor = ?, interval_days = ?,
			next_review_date = ?, last_reviewed_at = ?, revision = revision + 1
		WHERE id = ? AND revision = ?
	`,
		state.RepetitionCount,
		state.EasinessFactor,
		state.IntervalDays,
		state.NextReviewDate.UTC(),
		db.timestamp(),
		cardID,
		state.Revision,
	)
	if err != nil {
		return false, db.fail("compare and swap card data", err, "card_id", cardID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, db.fail("compare and swap card data", err, "card_id", cardID)
	}
	if n == 1 {
		db.logger.Info("card scheduling updated", "card_id", cardID, "interval_days", state.IntervalDays, "revision", state.Revision+1)
		return true, nil
	}

	current, err := db.GetCardData(ctx, cardID)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, fmt.Errorf("%w: %s", domain.ErrCardNotFound, cardID)
	}
	db.logger.Warn("stale card revision", "card_id", cardID, "expected", state.Revision, "actual", current.Revision)
	return false, nil
}

// UpdateCard replaces the question and answer of a card.
func (db *DB) UpdateCard(ctx context.Context, cardID, question, answer string) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE flashcards
		SET question = ?, answer = ?, content_hash = ?
		WHERE id = ?
	`, question, answer, knol.Hash(question, answer), cardID)
	if err != nil {
		return db.fail("update card", err, "card_id", cardID)
	}
	if err := db.requireAffected(res, "update card", cardID); err != nil {
		return err
	}
	db.logger.Info("card updated", "card_id", cardID)
	return nil
}

// DeleteCard removes a card and its tag links.
func (db *DB) DeleteCard(ctx context.Context, cardID string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ?`, cardID)
	if err != nil {
		return db.fail("delete card", err, "card_id", cardID)
	}
	if err := db.requireAffected(res, "delete card", cardID); err != nil {
		return err
	}
	db.logger.Info("card deleted", "card_id", cardID)
	return nil
}

// GetRandomFlashcard returns a random card from the deck, or nil if the
// deck is empty.
func (db *DB) GetRandomFlashcard(ctx context.Context, deckID int64) (*domain.CardSummary, error) {
	c, err := scanSummary(db.conn.QueryRowContext(ctx, `
		SELECT `+summaryColumns+`
		FROM flashcards f WHERE f.deck_id = ?
		ORDER BY RANDOM() LIMIT 1
	`, deckID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, db.fail("get random flashcard", err, "deck_id", deckID)
	}
	return &c, nil
}

// FindCardByHash returns a card of the deck with the given content hash,
// or nil if there is none.
func (db *DB) FindCardByHash(ctx context.Context, deckID int64, hash string) (*domain.CardSummary, error) {
	c, err := scanSummary(db.conn.QueryRowContext(ctx, `
		SELECT `+summaryColumns+`
		FROM flashcards f WHERE f.deck_id = ? AND f.content_hash = ?
		LIMIT 1
	`, deckID, hash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, db.fail("find card by hash", err, "deck_id", deckID, "hash", hash)
	}
	return &c, nil
}

// DueCount returns how many cards of the deck are due at now.
func (db *DB) DueCount(ctx context.Context, deckID int64, now time.Time) (int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT next_review_date FROM flashcards WHERE deck_id = ?
	`, deckID)
	if err != nil {
		return 0, db.fail("due count", err, "deck_id", deckID)
	}
	defer rows.Close()

	// Stored timestamps are text, so the comparison happens here rather
	// than in SQL.
	var due int
	for rows.Next() {
		var next time.Time
		if err := rows.Scan(&next); err != nil {
			return 0, db.fail("due count", err, "deck_id", deckID)
		}
		if !next.After(now) {
			due++
		}
	}
	if err := rows.Err(); err != nil {
		return 0, db.fail("due count", err, "deck_id", deckID)
	}
	return due, nil
}

func (db *DB) requireAffected(res sql.Result, op, cardID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return db.fail(op, err, "card_id", cardID)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrCardNotFound, cardID)
	}
	return nil
}
