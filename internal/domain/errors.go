package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a deck, card or tag id has no matching row.
	ErrNotFound = errors.New("not found")

	// ErrPrecondition is returned when a request is rejected before it
	// reaches the store.
	ErrPrecondition = errors.New("precondition failed")

	ErrDeckNotFound = fmt.Errorf("%w: deck", ErrNotFound)
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)
	ErrTagNotFound  = fmt.Errorf("%w: tag", ErrNotFound)

	ErrNoDeckSelected = fmt.Errorf("%w: no deck selected", ErrPrecondition)
	ErrEmptyDeckName  = fmt.Errorf("%w: deck name cannot be empty", ErrPrecondition)
	ErrEmptyContent   = fmt.Errorf("%w: question and answer cannot be empty", ErrPrecondition)
	ErrEmptyTag       = fmt.Errorf("%w: tag name cannot be empty", ErrPrecondition)
)
