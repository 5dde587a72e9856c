package domain

// Card is a question-answer entry parsed from a markdown source, before it
// is stored as a Flashcard.
type Card struct {
	Question string
	Answer   string
	Context  string
	Tags     []string
	Hash     string
}

// Body returns the answer text as stored, with the context appended as a
// trailing paragraph when present.
func (c Card) Body() string {
	if c.Context == "" {
		return c.Answer
	}
	if c.Answer == "" {
		return c.Context
	}
	return c.Answer + "\n\n" + c.Context
}
