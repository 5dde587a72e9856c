package review

import (
	"slices"

	"github.com/conorfennell/iquiz/internal/domain"
)

// Select picks the card with the earliest next review date. Cards sharing
// a date are ordered by ascending id. ok is false when cards is empty.
// The input slice is not modified.
func Select(cards []domain.CardSummary) (card domain.CardSummary, ok bool) {
	if len(cards) == 0 {
		return domain.CardSummary{}, false
	}
	return slices.MinFunc(cards, compareDue), true
}

// SortByDue orders cards in place by next review date, then id.
func SortByDue(cards []domain.CardSummary) {
	slices.SortFunc(cards, compareDue)
}

func compareDue(a, b domain.CardSummary) int {
	if c := a.NextReviewDate.Compare(b.NextReviewDate); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
