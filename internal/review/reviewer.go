package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/sm2"
)

// ErrConflict is returned when a card kept changing underneath a grading
// attempt until the retries ran out.
var ErrConflict = errors.New("review: card was modified concurrently")

// Store is the part of the persistence layer the reviewer needs.
type Store interface {
	GetCardsFromDeck(ctx context.Context, deckID int64, tag string) ([]domain.CardSummary, error)
	GetRandomFlashcard(ctx context.Context, deckID int64) (*domain.CardSummary, error)
	GetCardData(ctx context.Context, cardID string) (*domain.SchedulingState, error)
	CompareAndSwapCardData(ctx context.Context, cardID string, state domain.SchedulingState) (bool, error)
}

// Reviewer selects cards and applies grades. It reads a card's state,
// runs the scheduler and writes the result back with a compare-and-swap,
// retrying when another writer got in between. It is safe for concurrent use.
type Reviewer struct {
	store      Store
	params     *sm2.Params
	now        func() time.Time
	logger     *slog.Logger
	maxRetries int

	mu        sync.RWMutex
	observers []Observer
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithParams sets the scheduler constants.
func WithParams(p *sm2.Params) Option {
	return func(r *Reviewer) {
		if p != nil {
			r.params = p
		}
	}
}

// WithClock overrides the clock used as "now" for scheduling.
func WithClock(now func() time.Time) Option {
	return func(r *Reviewer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reviewer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMaxRetries sets how many times a lost compare-and-swap is retried.
func WithMaxRetries(n int) Option {
	return func(r *Reviewer) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithObserver subscribes o at construction time.
func WithObserver(o Observer) Option {
	return func(r *Reviewer) {
		r.observers = append(r.observers, o)
	}
}

// NewReviewer creates a Reviewer over store.
func NewReviewer(store Store, opts ...Option) *Reviewer {
	r := &Reviewer{
		store:      store,
		params:     sm2.DefaultParams(),
		now:        time.Now,
		logger:     slog.Default(),
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "reviewer")
	return r
}

// Subscribe adds an observer.
func (r *Reviewer) Subscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Next returns the card of the deck that is due soonest, optionally
// restricted to a tag, or nil when the deck has no cards. Next does not
// change any state.
func (r *Reviewer) Next(ctx context.Context, deckID int64, tag string) (*domain.CardSummary, error) {
	cards, err := r.store.GetCardsFromDeck(ctx, deckID, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards of deck %d: %w", deckID, err)
	}
	card, ok := Select(cards)
	if !ok {
		r.logger.Debug("no cards available", "deck_id", deckID, "tag", tag)
		return nil, nil
	}
	r.presented(ctx, card)
	return &card, nil
}

// Random returns a random card of the deck, or nil when the deck is empty.
func (r *Reviewer) Random(ctx context.Context, deckID int64) (*domain.CardSummary, error) {
	card, err := r.store.GetRandomFlashcard(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to pick a random card of deck %d: %w", deckID, err)
	}
	if card != nil {
		r.presented(ctx, *card)
	}
	return card, nil
}

// Grade schedules the card according to grade g and stores the result.
func (r *Reviewer) Grade(ctx context.Context, cardID string, g sm2.Grade) (GradedEvent, error) {
	if err := g.Validate(); err != nil {
		return GradedEvent{}, err
	}

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		current, err := r.store.GetCardData(ctx, cardID)
		if err != nil {
			return GradedEvent{}, fmt.Errorf("failed to read card %s: %w", cardID, err)
		}
		if current == nil {
			return GradedEvent{}, fmt.Errorf("%w: %s", domain.ErrCardNotFound, cardID)
		}

		now := r.now()
		next, err := r.params.Next(*current, g, now)
		if err != nil {
			return GradedEvent{}, err
		}

		swapped, err := r.store.CompareAndSwapCardData(ctx, cardID, next)
		if err != nil {
			return GradedEvent{}, fmt.Errorf("failed to store schedule of card %s: %w", cardID, err)
		}
		if !swapped {
			r.logger.Debug("card changed during grading, retrying", "card_id", cardID, "attempt", attempt+1)
			continue
		}

		next.Revision = current.Revision + 1
		event := GradedEvent{
			CardID:   cardID,
			Grade:    g,
			Passed:   r.params.Passed(g),
			Previous: *current,
			Next:     next,
			At:       now,
		}
		r.logger.Info("card graded",
			"card_id", cardID,
			"grade", int(g),
			"repetition_count", next.RepetitionCount,
			"easiness_factor", next.EasinessFactor,
			"interval_days", next.IntervalDays,
		)
		r.graded(ctx, event)
		return event, nil
	}
	return GradedEvent{}, fmt.Errorf("%w: %s", ErrConflict, cardID)
}

// GradeLabel grades a card by difficulty label.
func (r *Reviewer) GradeLabel(ctx context.Context, cardID, label string) (GradedEvent, error) {
	g, err := sm2.ParseLabel(label)
	if err != nil {
		return GradedEvent{}, err
	}
	return r.Grade(ctx, cardID, g)
}

func (r *Reviewer) snapshot() []Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.observers)
}

func (r *Reviewer) presented(ctx context.Context, card domain.CardSummary) {
	for _, o := range r.snapshot() {
		o.CardPresented(ctx, card)
	}
}

func (r *Reviewer) graded(ctx context.Context, event GradedEvent) {
	for _, o := range r.snapshot() {
		o.CardGraded(ctx, event)
	}
}
