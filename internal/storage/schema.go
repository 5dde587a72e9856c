package storage

const schema = `
-- Decks own flashcards; deleting a deck cascades to its cards.
CREATE TABLE IF NOT EXISTS decks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

-- Flashcards carry their content and SM-2 scheduling state.
-- revision increments on every scheduling write and backs compare-and-swap updates.
CREATE TABLE IF NOT EXISTS flashcards (
    id TEXT PRIMARY KEY,
    deck_id INTEGER NOT NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    content_hash TEXT NOT NULL DEFAULT '',
    repetition_count INTEGER NOT NULL DEFAULT 0,
    last_reviewed_at DATETIME,
    easiness_factor REAL NOT NULL DEFAULT 2.5,
    interval_days INTEGER NOT NULL DEFAULT 1,
    next_review_date DATETIME NOT NULL,
    revision INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,

    FOREIGN KEY(deck_id) REFERENCES decks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_flashcards_deck ON flashcards(deck_id);
CREATE INDEX IF NOT EXISTS idx_flashcards_hash ON flashcards(deck_id, content_hash);

-- Tag names are unique and compared case-sensitively.
CREATE TABLE IF NOT EXISTS tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS flashcard_tags (
    flashcard_id TEXT NOT NULL,
    tag_id INTEGER NOT NULL,

    PRIMARY KEY(flashcard_id, tag_id),
    FOREIGN KEY(flashcard_id) REFERENCES flashcards(id) ON DELETE CASCADE,
    FOREIGN KEY(tag_id) REFERENCES tags(id) ON DELETE CASCADE
);
`
