package sm2

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/conorfennell/iquiz/internal/domain"
)

// Grade is the recall quality of a review, from 0 (blackout) to 5 (perfect).
type Grade int

const (
	MinGrade Grade = 0
	MaxGrade Grade = 5
)

var (
	// ErrInvalidGrade is returned for grades outside MinGrade..MaxGrade.
	// Out-of-range grades are rejected, never clamped.
	ErrInvalidGrade = fmt.Errorf("%w: grade must be between %d and %d", domain.ErrPrecondition, MinGrade, MaxGrade)

	// ErrUnknownLabel is returned by ParseLabel for labels with no grade.
	ErrUnknownLabel = fmt.Errorf("%w: unknown difficulty label", domain.ErrPrecondition)
)

// Difficulty labels offered by review front ends.
const (
	LabelEasy     = "easy"
	LabelHard     = "hard"
	LabelVeryHard = "very_hard"
	LabelAgain    = "again"
)

var labelGrades = map[string]Grade{
	LabelEasy:     5,
	LabelHard:     3,
	LabelVeryHard: 2,
	LabelAgain:    0,
}

// ParseLabel maps a difficulty label to its grade. Matching is
// case-insensitive and "very hard" / "very-hard" are accepted spellings.
func ParseLabel(label string) (Grade, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	g, ok := labelGrades[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return g, nil
}

// Validate reports ErrInvalidGrade for grades outside the 0..5 scale.
func (g Grade) Validate() error {
	if g < MinGrade || g > MaxGrade {
		return fmt.Errorf("%w: got %d", ErrInvalidGrade, int(g))
	}
	return nil
}

// Params holds the constants of the SM-2 policy.
type Params struct {
	InitialEasiness float64 // easiness factor of a new card
	MinEasiness     float64 // floor applied after every update
	PassGrade       Grade   // lowest grade counted as a successful recall
	FirstInterval   int     // days after the first successful review
	SecondInterval  int     // days after the second successful review
}

// DefaultParams returns the classic SM-2 constants.
func DefaultParams() *Params {
	return &Params{
		InitialEasiness: domain.DefaultEasinessFactor,
		MinEasiness:     1.3,
		PassGrade:       3,
		FirstInterval:   1,
		SecondInterval:  6,
	}
}

// Passed reports whether g counts as a successful recall.
func (p *Params) Passed(g Grade) bool {
	return g >= p.PassGrade
}

// Next computes the scheduling state that follows a review graded g at now.
// It is a pure function of its arguments.
func (p *Params) Next(state domain.SchedulingState, g Grade, now time.Time) (domain.SchedulingState, error) {
	if err := g.Validate(); err != nil {
		return state, err
	}

	next := state
	if p.Passed(g) {
		switch {
		case state.RepetitionCount <= 0:
			next.IntervalDays = p.FirstInterval
		case state.RepetitionCount == 1:
			next.IntervalDays = p.SecondInterval
		default:
			// The interval grows by the easiness factor held before this review.
			next.IntervalDays = p.scaleInterval(state.IntervalDays, state.EasinessFactor)
		}
		next.RepetitionCount = max(state.RepetitionCount, 0) + 1
	} else {
		next.RepetitionCount = 0
		next.IntervalDays = p.FirstInterval
	}

	next.EasinessFactor = p.nextEasiness(state.EasinessFactor, g)
	if next.IntervalDays < 1 {
		next.IntervalDays = 1
	}
	next.NextReviewDate = NextDueDate(now, next.IntervalDays)
	return next, nil
}

// nextEasiness applies EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02)),
// floored at MinEasiness.
func (p *Params) nextEasiness(ef float64, g Grade) float64 {
	d := float64(MaxGrade - g)
	ef += 0.1 - d*(0.08+d*0.02)
	return math.Max(ef, p.MinEasiness)
}

// scaleInterval multiplies the previous interval by ef, rounding half to even.
func (p *Params) scaleInterval(interval int, ef float64) int {
	if interval < 1 {
		interval = 1
	}
	return int(math.RoundToEven(float64(interval) * ef))
}

// NextDueDate returns the time interval days after now.
func NextDueDate(now time.Time, interval int) time.Time {
	return now.AddDate(0, 0, interval)
}
