package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/iquiz/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	tagsPrefix     = "T:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
	afterTags
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards.
//
// A card starts with a "Q:" line and may carry "A:", "C:" and "T:" lines.
// Question, answer and context can span several lines; a tags line is a
// single comma-separated list. A new "Q:" or a "---" line ends the card.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Card
	var current domain.Card
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimRight(strings.Join(block, "\n"), "\n")
		switch currentState {
		case readingQuestion:
			current.Question = content
		case readingAnswer:
			current.Answer = content
		case readingContext:
			current.Context = content
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Question != "" {
			cards = append(cards, current)
		}
		current = domain.Card{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == separator:
			finishCard()
		case strings.HasPrefix(line, questionPrefix):
			if currentState != seeking {
				finishCard()
			}
			currentState = readingQuestion
			block = append(block, stripPrefix(line, questionPrefix))
		case strings.HasPrefix(line, answerPrefix):
			flushBlock()
			currentState = readingAnswer
			block = append(block, stripPrefix(line, answerPrefix))
		case strings.HasPrefix(line, contextPrefix):
			flushBlock()
			currentState = readingContext
			block = append(block, stripPrefix(line, contextPrefix))
		case strings.HasPrefix(line, tagsPrefix):
			flushBlock()
			current.Tags = appendTags(current.Tags, stripPrefix(line, tagsPrefix))
			currentState = afterTags
		default:
			if currentState != seeking && currentState != afterTags {
				block = append(block, line)
			}
		}
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func stripPrefix(line, prefix string) string {
	content := line[len(prefix):]
	return strings.TrimPrefix(content, " ")
}

// appendTags adds the comma-separated names in raw to tags, skipping blanks
// and duplicates while keeping first-seen order.
func appendTags(tags []string, raw string) []string {
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		dup := false
		for _, existing := range tags {
			if existing == name {
				dup = true
				break
			}
		}
		if !dup {
			tags = append(tags, name)
		}
	}
	return tags
}
