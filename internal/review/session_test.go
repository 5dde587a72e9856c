package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/iquiz/internal/domain"
)

func TestSessionWithoutDeck(t *testing.T) {
	ctx := context.Background()
	db := openStore(t)

	s, err := NewSession(ctx, db, newTestReviewer(db), nil)
	require.NoError(t, err)

	_, ok := s.CurrentDeck()
	assert.False(t, ok)

	_, err = s.AddFlashcard(ctx, "Q", "A")
	assert.ErrorIs(t, err, domain.ErrNoDeckSelected)
	assert.ErrorIs(t, err, domain.ErrPrecondition)

	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrNoDeckSelected)

	_, err = s.DeckInfo(ctx)
	assert.ErrorIs(t, err, domain.ErrNoDeckSelected)

	assert.ErrorIs(t, s.SelectDeck(ctx, 77), domain.ErrDeckNotFound)
}

func TestSessionStartsOnLatestDeck(t *testing.T) {
	ctx := context.Background()
	db := openStore(t)
	_, err := db.AddDeck(ctx, "old")
	require.NoError(t, err)
	latest, err := db.AddDeck(ctx, "new")
	require.NoError(t, err)

	s, err := NewSession(ctx, db, newTestReviewer(db), nil)
	require.NoError(t, err)

	id, ok := s.CurrentDeck()
	assert.True(t, ok)
	assert.Equal(t, latest, id)
	assert.Equal(t, testNow, s.Now())
}

func TestSessionReviewFlow(t *testing.T) {
	ctx := context.Background()
	db := openStore(t)
	streak := &Streak{}
	s, err := NewSession(ctx, db, newTestReviewer(db), streak)
	require.NoError(t, err)

	deckID, err := s.CreateDeck(ctx, "Hebrew")
	require.NoError(t, err)
	current, _ := s.CurrentDeck()
	assert.Equal(t, deckID, current)

	_, err = s.AddFlashcard(ctx, " ", "A")
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	_, err = s.AddFlashcard(ctx, "Q", "A", " ")
	assert.ErrorIs(t, err, domain.ErrEmptyTag)
	info, err := s.DeckInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.CardCount)

	cardID, err := s.AddFlashcard(ctx, "shalom", "peace", "greetings")
	require.NoError(t, err)

	tags, err := db.GetTags(ctx, cardID)
	require.NoError(t, err)
	assert.Equal(t, []string{"greetings"}, tags)

	info, err = s.DeckInfo(ctx)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "Hebrew", info.Deck.Name)
	assert.Equal(t, 1, info.CardCount)
	assert.Equal(t, 1, info.DueCount)

	next, err := s.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, cardID, next.ID)

	var milestone Milestone
	for i := 0; i < 5; i++ {
		out, err := s.GradeLabel(ctx, cardID, "easy")
		require.NoError(t, err)
		assert.Equal(t, i+1, out.Streak)
		milestone = out.Milestone
	}
	assert.Equal(t, FiveInARow, milestone)
	assert.Equal(t, 5, streak.Count(), "the caller's streak is the one updated")

	out, err := s.GradeLabel(ctx, cardID, "very hard")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Streak)
	assert.Equal(t, 0, out.Next.RepetitionCount)

	info, err = s.DeckInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.DueCount)

	t.Run("tag filter", func(t *testing.T) {
		s.FilterTag("absent")
		card, err := s.Next(ctx)
		require.NoError(t, err)
		assert.Nil(t, card)
		s.FilterTag("")
	})

	t.Run("random", func(t *testing.T) {
		card, err := s.Random(ctx)
		require.NoError(t, err)
		require.NotNil(t, card)
		assert.Equal(t, cardID, card.ID)
	})
}
