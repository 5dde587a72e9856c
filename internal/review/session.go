package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/sm2"
)

// SessionStore is the persistence surface a Session works against.
type SessionStore interface {
	Store
	AddDeck(ctx context.Context, name string) (int64, error)
	GetDeckInfo(ctx context.Context, deckID int64) (*domain.Deck, error)
	GetLatestDeckID(ctx context.Context) (int64, bool, error)
	AddFlashcard(ctx context.Context, deckID int64, question, answer string, tags ...string) (string, error)
	DueCount(ctx context.Context, deckID int64, now time.Time) (int, error)
}

// Outcome is the result of grading a card within a session.
type Outcome struct {
	GradedEvent
	Streak    int
	Milestone Milestone
}

// DeckInfo summarizes the current deck.
type DeckInfo struct {
	Deck      domain.Deck
	CardCount int
	DueCount  int
}

// Session is one user's review session: a current deck, an optional tag
// filter and a streak. Sessions are independent of each other and not
// safe for concurrent use.
type Session struct {
	store    SessionStore
	reviewer *Reviewer
	streak   *Streak
	logger   *slog.Logger
	now      func() time.Time

	deckID  int64
	hasDeck bool
	tag     string
}

// NewSession starts a session on the most recently created deck, if any.
// A nil streak starts a fresh one.
func NewSession(ctx context.Context, store SessionStore, reviewer *Reviewer, streak *Streak) (*Session, error) {
	if streak == nil {
		streak = &Streak{}
	}
	s := &Session{
		store:    store,
		reviewer: reviewer,
		streak:   streak,
		logger:   reviewer.logger.With("component", "session"),
		now:      reviewer.now,
	}

	id, ok, err := store.GetLatestDeckID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest deck: %w", err)
	}
	if ok {
		s.deckID, s.hasDeck = id, true
	}
	return s, nil
}

// Now reports the session's current time, the one cards are judged due against.
func (s *Session) Now() time.Time {
	return s.now()
}

// CurrentDeck returns the selected deck id. ok is false when none is selected.
func (s *Session) CurrentDeck() (id int64, ok bool) {
	return s.deckID, s.hasDeck
}

// SelectDeck switches the session to an existing deck.
func (s *Session) SelectDeck(ctx context.Context, deckID int64) error {
	deck, err := s.store.GetDeckInfo(ctx, deckID)
	if err != nil {
		return fmt.Errorf("failed to look up deck %d: %w", deckID, err)
	}
	if deck == nil {
		return fmt.Errorf("%w: %d", domain.ErrDeckNotFound, deckID)
	}
	s.deckID, s.hasDeck = deckID, true
	s.logger.Debug("deck selected", "deck_id", deckID)
	return nil
}

// FilterTag restricts Next to cards with the given tag. An empty tag
// clears the filter.
func (s *Session) FilterTag(tag string) {
	s.tag = tag
}

// CreateDeck creates a deck and selects it.
func (s *Session) CreateDeck(ctx context.Context, name string) (int64, error) {
	id, err := s.store.AddDeck(ctx, name)
	if err != nil {
		return 0, err
	}
	s.deckID, s.hasDeck = id, true
	return id, nil
}

// AddFlashcard adds a card with its tags to the current deck. Blank
// content or a blank tag is rejected before anything is stored.
func (s *Session) AddFlashcard(ctx context.Context, question, answer string, tags ...string) (string, error) {
	if !s.hasDeck {
		return "", domain.ErrNoDeckSelected
	}
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return "", domain.ErrEmptyContent
	}

	return s.store.AddFlashcard(ctx, s.deckID, question, answer, tags...)
}

// Next returns the next card to review from the current deck, or nil when
// the deck has no cards.
func (s *Session) Next(ctx context.Context) (*domain.CardSummary, error) {
	if !s.hasDeck {
		return nil, domain.ErrNoDeckSelected
	}
	return s.reviewer.Next(ctx, s.deckID, s.tag)
}

// Random returns a random card from the current deck, or nil when empty.
func (s *Session) Random(ctx context.Context) (*domain.CardSummary, error) {
	if !s.hasDeck {
		return nil, domain.ErrNoDeckSelected
	}
	return s.reviewer.Random(ctx, s.deckID)
}

// Grade grades a card and advances or resets the streak.
func (s *Session) Grade(ctx context.Context, cardID string, g sm2.Grade) (Outcome, error) {
	event, err := s.reviewer.Grade(ctx, cardID, g)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{GradedEvent: event}
	if event.Passed {
		out.Milestone = s.streak.Increment()
	} else {
		s.streak.Reset()
	}
	out.Streak = s.streak.Count()
	if out.Milestone != NoMilestone {
		s.logger.Info("streak milestone", "streak", out.Streak, "milestone", out.Milestone.String())
	}
	return out, nil
}

// GradeLabel grades a card by difficulty label.
func (s *Session) GradeLabel(ctx context.Context, cardID, label string) (Outcome, error) {
	g, err := sm2.ParseLabel(label)
	if err != nil {
		return Outcome{}, err
	}
	return s.Grade(ctx, cardID, g)
}

// Streak returns the session's streak counter.
func (s *Session) Streak() *Streak {
	return s.streak
}

// DeckInfo describes the current deck, or returns nil when the selected
// deck no longer exists.
func (s *Session) DeckInfo(ctx context.Context) (*DeckInfo, error) {
	if !s.hasDeck {
		return nil, domain.ErrNoDeckSelected
	}
	deck, err := s.store.GetDeckInfo(ctx, s.deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, nil
	}
	cards, err := s.store.GetCardsFromDeck(ctx, s.deckID, "")
	if err != nil {
		return nil, err
	}
	due, err := s.store.DueCount(ctx, s.deckID, s.now())
	if err != nil {
		return nil, err
	}
	return &DeckInfo{Deck: *deck, CardCount: len(cards), DueCount: due}, nil
}
