package domain

import "time"

// Deck owns zero or more flashcards. Deleting a deck deletes its flashcards.
type Deck struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag is a case-sensitive label attached to flashcards.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
