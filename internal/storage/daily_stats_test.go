package storage

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/srs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reviewRandomly applies n random reviews spread over several days and two
// decks.
func reviewRandomly(t *testing.T, db *DB, clock *testClock, seed uint64, n int) {
	t.Helper()
	ctx := context.Background()
	params := srs.DefaultParams()
	rng := rand.New(rand.NewPCG(seed, seed+1))

	var cards []int64
	for _, name := range []string{"Spanish", "French"} {
		deck, err := db.CreateDeck(ctx, name, "")
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			c, err := db.CreateCard(ctx, deck.ID, "q", "a")
			require.NoError(t, err)
			cards = append(cards, c.ID)
		}
	}

	for i := 0; i < n; i++ {
		clock.Advance(time.Duration(rng.IntN(12)) * time.Hour)
		at := clock.Now()
		r := domain.Rating(rng.IntN(6))
		_, _, err := db.ApplyReview(ctx, ReviewInput{
			CardID:   cards[rng.IntN(len(cards))],
			Rating:   r,
			At:       at,
			Duration: time.Duration(rng.IntN(30_000)) * time.Millisecond,
		}, func(s domain.Schedule) domain.Schedule { return params.Next(s, r, at) })
		require.NoError(t, err)
	}
}

func TestRebuildMatchesIncremental(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42} {
		db, clock := openTestDB(t)
		ctx := context.Background()
		reviewRandomly(t, db, clock, seed, 120)

		incremental, err := db.DailyStats(ctx, "", "", nil)
		require.NoError(t, err)

		events, err := db.ReviewEvents(ctx, nil, "", "")
		require.NoError(t, err)
		assert.Equal(t, domain.Rollup(events), incremental, "seed %d", seed)

		n, err := db.RebuildDailyStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(incremental), n)

		rebuilt, err := db.DailyStats(ctx, "", "", nil)
		require.NoError(t, err)
		assert.Equal(t, incremental, rebuilt, "seed %d", seed)

		// Totals per date equal the number of events on that date.
		perDay := map[string]int{}
		for _, ev := range events {
			perDay[ev.Day]++
		}
		for _, ds := range rebuilt {
			perDay[ds.Date] -= ds.Total
		}
		for day, diff := range perDay {
			assert.Zero(t, diff, "day %s", day)
		}
	}
}

func TestRebuildRecoversFromLostStatsUpdate(t *testing.T) {
	db, clock := openTestDB(t)
	ctx := context.Background()

	deck, err := db.CreateDeck(ctx, "Spanish", "")
	require.NoError(t, err)
	card, err := db.CreateCard(ctx, deck.ID, "hola", "hello")
	require.NoError(t, err)
	_, _, err = db.ApplyReview(ctx, ReviewInput{CardID: card.ID, Rating: domain.Good, At: clock.Now()}, bump)
	require.NoError(t, err)

	// An event that reached the log while its stats update did not, as if
	// the process died between the two writes.
	_, err = db.conn.Exec(`
		INSERT INTO review_events (card_id, deck_id, rating, ts, day, interval_before, interval_after, ease_before, ease_after, duration_ms)
		VALUES (?, ?, 5, ?, '2025-06-15', 1, 3, 2.5, 2.65, 4000)
	`, card.ID, deck.ID, millis(clock.Now()))
	require.NoError(t, err)

	stale, err := db.DailyStats(ctx, "", "", nil)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, 1, stale[0].Total)

	_, err = db.RebuildDailyStats(ctx)
	require.NoError(t, err)

	fixed, err := db.DailyStats(ctx, "", "", nil)
	require.NoError(t, err)
	require.Len(t, fixed, 1)
	assert.Equal(t, 2, fixed[0].Total)
	assert.Equal(t, 1, fixed[0].Good)
	assert.Equal(t, 1, fixed[0].Perfect)
	assert.Equal(t, 4*time.Second, fixed[0].StudyTime)

	// Rebuilding again changes nothing.
	_, err = db.RebuildDailyStats(ctx)
	require.NoError(t, err)
	again, err := db.DailyStats(ctx, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, fixed, again)
}

func TestRebuildFailureLeavesLogIntact(t *testing.T) {
	db, clock := openTestDB(t)
	ctx := context.Background()
	reviewRandomly(t, db, clock, 3, 20)

	before, err := db.ReviewEvents(ctx, nil, "", "")
	require.NoError(t, err)
	stats, err := db.DailyStats(ctx, "", "", nil)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = db.RebuildDailyStats(cancelled)
	require.Error(t, err)

	after, err := db.ReviewEvents(ctx, nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	unchanged, err := db.DailyStats(ctx, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, stats, unchanged)
}

func TestDailyStatsFilter(t *testing.T) {
	db, clock := openTestDB(t)
	ctx := context.Background()

	spanish, err := db.CreateDeck(ctx, "Spanish", "")
	require.NoError(t, err)
	french, err := db.CreateDeck(ctx, "French", "")
	require.NoError(t, err)
	es, err := db.CreateCard(ctx, spanish.ID, "hola", "hello")
	require.NoError(t, err)
	fr, err := db.CreateCard(ctx, french.ID, "bonjour", "hello")
	require.NoError(t, err)

	for day := 0; day < 3; day++ {
		for _, id := range []int64{es.ID, fr.ID} {
			_, _, err := db.ApplyReview(ctx, ReviewInput{CardID: id, Rating: domain.Easy, At: clock.Now()}, bump)
			require.NoError(t, err)
		}
		clock.Advance(24 * time.Hour)
	}

	rows, err := db.DailyStats(ctx, "2025-06-16", "", &spanish.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-06-16", rows[0].Date)
	assert.Equal(t, "2025-06-17", rows[1].Date)
	for _, r := range rows {
		assert.Equal(t, spanish.ID, r.DeckID)
		assert.Equal(t, 1, r.Easy)
	}

	rows, err = db.DailyStats(ctx, "", "2025-06-15", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
