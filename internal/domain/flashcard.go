package domain

import "time"

// Default scheduling values for a newly created flashcard.
const (
	DefaultEasinessFactor = 2.5
	DefaultIntervalDays   = 1
)

// SchedulingState is the per-card SM-2 state.
//
// Revision is the storage revision the state was read at. The scheduler
// carries it through untouched; the store uses it for compare-and-swap
// writes.
type SchedulingState struct {
	RepetitionCount int       `json:"repetition_count"`
	EasinessFactor  float64   `json:"easiness_factor"`
	IntervalDays    int       `json:"interval_days"`
	NextReviewDate  time.Time `json:"next_review_date"`
	Revision        int64     `json:"revision"`
}

// NewSchedulingState returns the state every flashcard starts with.
func NewSchedulingState(now time.Time) SchedulingState {
	return SchedulingState{
		RepetitionCount: 0,
		EasinessFactor:  DefaultEasinessFactor,
		IntervalDays:    DefaultIntervalDays,
		NextReviewDate:  now,
	}
}

// CardSummary is the row shape returned when listing a deck.
type CardSummary struct {
	ID              string    `json:"id"`
	DeckID          int64     `json:"deck_id"`
	Question        string    `json:"question"`
	Answer          string    `json:"answer"`
	NextReviewDate  time.Time `json:"next_review_date"`
	RepetitionCount int       `json:"repetition_count"`
}

// IsDue reports whether the card is scheduled at or before now.
func (c CardSummary) IsDue(now time.Time) bool {
	return !c.NextReviewDate.After(now)
}

// Flashcard is the full snapshot of a stored card.
type Flashcard struct {
	ID             string          `json:"id"`
	DeckID         int64           `json:"deck_id"`
	Question       string          `json:"question"`
	Answer         string          `json:"answer"`
	ContentHash    string          `json:"content_hash"`
	Tags           []string        `json:"tags"`
	Schedule       SchedulingState `json:"schedule"`
	LastReviewedAt *time.Time      `json:"last_reviewed_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Summary returns the listing view of the card.
func (f Flashcard) Summary() CardSummary {
	return CardSummary{
		ID:              f.ID,
		DeckID:          f.DeckID,
		Question:        f.Question,
		Answer:          f.Answer,
		NextReviewDate:  f.Schedule.NextReviewDate,
		RepetitionCount: f.Schedule.RepetitionCount,
	}
}
