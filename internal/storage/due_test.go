package storage

import (
	"context"
	"testing"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(cards []domain.Card) []int64 {
	out := make([]int64, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestDueCards(t *testing.T) {
	db, clock := openTestDB(t)
	ctx := context.Background()

	deck, err := db.CreateDeck(ctx, "Spanish", "")
	require.NoError(t, err)
	other, err := db.CreateDeck(ctx, "French", "")
	require.NoError(t, err)

	// Created at t0, t0+1h and t0+2h, so due in that order.
	var cards []*domain.Card
	for i, deckID := range []int64{deck.ID, other.ID, deck.ID} {
		c, err := db.CreateCard(ctx, deckID, "q", "a")
		require.NoError(t, err, "card %d", i)
		cards = append(cards, c)
		clock.Advance(time.Hour)
	}

	t.Run("exactly the cards due at now", func(t *testing.T) {
		due, err := db.DueCards(ctx, t0.Add(time.Hour), nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{cards[0].ID, cards[1].ID}, ids(due))

		n, err := db.CountDue(ctx, t0.Add(time.Hour), nil)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("oldest due first across decks", func(t *testing.T) {
		due, err := db.DueCards(ctx, clock.Now(), nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{cards[0].ID, cards[1].ID, cards[2].ID}, ids(due))
	})

	t.Run("deck filter", func(t *testing.T) {
		due, err := db.DueCards(ctx, clock.Now(), &deck.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{cards[0].ID, cards[2].ID}, ids(due))
	})

	t.Run("reviewed card with a future due date is excluded", func(t *testing.T) {
		_, _, err := db.ApplyReview(ctx, ReviewInput{CardID: cards[0].ID, Rating: domain.Good, At: clock.Now()}, bump)
		require.NoError(t, err)

		due, err := db.DueCards(ctx, clock.Now(), nil)
		require.NoError(t, err)
		assert.NotContains(t, ids(due), cards[0].ID)

		// Long after the app was closed the card is due again.
		later, err := db.DueCards(ctx, clock.Now().Add(365*24*time.Hour), nil)
		require.NoError(t, err)
		assert.Contains(t, ids(later), cards[0].ID)
	})
}

func TestDueCardsTieBreakOnID(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	deck, err := db.CreateDeck(ctx, "Spanish", "")
	require.NoError(t, err)
	first, err := db.CreateCard(ctx, deck.ID, "uno", "one")
	require.NoError(t, err)
	second, err := db.CreateCard(ctx, deck.ID, "dos", "two")
	require.NoError(t, err)

	same := first.Schedule
	same.NextReview = t0.Add(-time.Hour)
	// Write the later id first so insertion order cannot explain the result.
	require.NoError(t, db.UpdateCardState(ctx, second.ID, same))
	require.NoError(t, db.UpdateCardState(ctx, first.ID, same))

	due, err := db.DueCards(ctx, t0, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, second.ID}, ids(due))
}

func TestDueCardsEmpty(t *testing.T) {
	db, _ := openTestDB(t)
	due, err := db.DueCards(context.Background(), t0, nil)
	require.NoError(t, err)
	assert.Empty(t, due)
}
