package review

// Milestone marks a streak length worth celebrating.
type Milestone int

const (
	NoMilestone Milestone = iota
	FiveInARow            // every 5th consecutive success
	TenInARow             // every 10th consecutive success
)

func (m Milestone) String() string {
	switch m {
	case FiveInARow:
		return "five in a row"
	case TenInARow:
		return "ten in a row"
	}
	return "none"
}

// Streak counts consecutive successful reviews within one session.
// The zero value is ready to use. A Streak is not safe for concurrent use.
type Streak struct {
	count int
}

// Increment records a success and reports the milestone it reached, if any.
// A streak divisible by ten reports TenInARow rather than FiveInARow.
func (s *Streak) Increment() Milestone {
	s.count++
	switch {
	case s.count%10 == 0:
		return TenInARow
	case s.count%5 == 0:
		return FiveInARow
	}
	return NoMilestone
}

// Reset ends the streak.
func (s *Streak) Reset() {
	s.count = 0
}

// Count returns the current streak length.
func (s *Streak) Count() int {
	return s.count
}
