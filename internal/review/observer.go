package review

import (
	"context"
	"time"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/sm2"
)

// GradedEvent describes a completed review.
type GradedEvent struct {
	CardID   string
	Grade    sm2.Grade
	Passed   bool
	Previous domain.SchedulingState
	Next     domain.SchedulingState
	At       time.Time
}

// Observer is notified as cards move through a review. Front ends use it
// to react to presentation and grading without the core knowing about them.
type Observer interface {
	CardPresented(ctx context.Context, card domain.CardSummary)
	CardGraded(ctx context.Context, event GradedEvent)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnPresented func(ctx context.Context, card domain.CardSummary)
	OnGraded    func(ctx context.Context, event GradedEvent)
}

func (o ObserverFuncs) CardPresented(ctx context.Context, card domain.CardSummary) {
	if o.OnPresented != nil {
		o.OnPresented(ctx, card)
	}
}

func (o ObserverFuncs) CardGraded(ctx context.Context, event GradedEvent) {
	if o.OnGraded != nil {
		o.OnGraded(ctx, event)
	}
}
