package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/iquiz/internal/domain"
)

// Normalize joins question and answer after cleaning each part.
// Each part is trimmed, lowercased and has its line endings normalized.
func Normalize(question, answer string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return p
	}

	// Joined with a newline so "question" and "answer" can never collapse
	// into "questionanswer".
	return normalizePart(question) + "\n" + normalizePart(answer)
}

// Hash returns the hex SHA-256 of the normalized question and answer.
func Hash(question, answer string) string {
	sum := sha256.Sum256([]byte(Normalize(question, answer)))
	return fmt.Sprintf("%x", sum)
}

// HashCard hashes a parsed card the way it will be stored.
func HashCard(card domain.Card) string {
	return Hash(card.Question, card.Body())
}
