package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/conorfennell/iquiz/internal/domain"
)

// SetTags attaches the named tags to a card, creating tags that do not
// exist yet. Tags already on the card are left as they are. All tags are
// written in one transaction.
func (db *DB) SetTags(ctx context.Context, cardID string, names ...string) error {
	if err := checkTagNames(names); err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return db.fail("set tags", err, "card_id", cardID)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM flashcards WHERE id = ?`, cardID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrCardNotFound, cardID)
		}
		return db.fail("set tags", err, "card_id", cardID)
	}

	if err := db.attachTags(ctx, tx, cardID, names); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return db.fail("set tags", err, "card_id", cardID)
	}
	db.logger.Info("tags set", "card_id", cardID, "tags", names)
	return nil
}

func checkTagNames(names []string) error {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return domain.ErrEmptyTag
		}
	}
	return nil
}

// attachTags creates missing tags and links them to the card within tx.
func (db *DB) attachTags(ctx context.Context, tx *sql.Tx, cardID string, names []string) error {
	for _, name := range names {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tags (name) VALUES (?)
			ON CONFLICT(name) DO NOTHING
		`, name); err != nil {
			return db.fail("attach tags", err, "card_id", cardID, "tag", name)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO flashcard_tags (flashcard_id, tag_id)
			SELECT ?, id FROM tags WHERE name = ?
		`, cardID, name); err != nil {
			return db.fail("attach tags", err, "card_id", cardID, "tag", name)
		}
	}
	return nil
}

// RemoveTag detaches a tag from a card. Removing a tag the card does not
// carry is not an error. The tag itself is kept.
func (db *DB) RemoveTag(ctx context.Context, cardID, name string) error {
	_, err := db.conn.ExecContext(ctx, `
		DELETE FROM flashcard_tags
		WHERE flashcard_id = ? AND tag_id = (SELECT id FROM tags WHERE name = ?)
	`, cardID, name)
	if err != nil {
		return db.fail("remove tag", err, "card_id", cardID, "tag", name)
	}
	db.logger.Info("tag removed", "card_id", cardID, "tag", name)
	return nil
}

// GetTags returns the tag names of a card, or every tag name when cardID
// is empty. Names are sorted.
func (db *DB) GetTags(ctx context.Context, cardID string) ([]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if cardID == "" {
		rows, err = db.conn.QueryContext(ctx, `SELECT name FROM tags ORDER BY name`)
	} else {
		rows, err = db.conn.QueryContext(ctx, `
			SELECT t.name FROM tags t
			JOIN flashcard_tags ft ON ft.tag_id = t.id
			WHERE ft.flashcard_id = ?
			ORDER BY t.name
		`, cardID)
	}
	if err != nil {
		return nil, db.fail("get tags", err, "card_id", cardID)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, db.fail("get tags", err, "card_id", cardID)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, db.fail("get tags", err, "card_id", cardID)
	}
	return names, nil
}

// DeleteTag removes a tag and detaches it from every card.
func (db *DB) DeleteTag(ctx context.Context, name string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM tags WHERE name = ?`, name)
	if err != nil {
		return db.fail("delete tag", err, "tag", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return db.fail("delete tag", err, "tag", name)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTagNotFound, name)
	}
	db.logger.Info("tag deleted", "tag", name)
	return nil
}
