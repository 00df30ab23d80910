// Package stats answers aggregate questions about the review log: totals
// and accuracy over a date range, study streaks, and whether the
// incrementally maintained daily rows still agree with the log.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// Source is the part of the record store the aggregator reads.
type Source interface {
	DailyStats(ctx context.Context, from, to string, deckID *int64) ([]domain.DailyStat, error)
	ReviewEvents(ctx context.Context, deckID *int64, from, to string) ([]domain.ReviewEvent, error)
	RebuildDailyStats(ctx context.Context) (int, error)
}

// Range is an inclusive span of calendar dates. An empty bound is open.
type Range struct {
	From string
	To   string
}

// All covers every date.
var All = Range{}

// LastDays is the n days ending on the date of today in loc.
func LastDays(today time.Time, n int, loc *time.Location) Range {
	if n < 1 {
		n = 1
	}
	end := today.In(loc)
	start := end.AddDate(0, 0, -(n - 1))
	return Range{From: start.Format(domain.DateLayout), To: end.Format(domain.DateLayout)}
}

// Validate checks that both bounds are dates and in order.
func (r Range) Validate() error {
	for _, b := range []struct{ field, v string }{{"from", r.From}, {"to", r.To}} {
		if b.v == "" {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, b.v); err != nil {
			return &domain.ValidationError{Field: b.field, Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", b.v)}
		}
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return &domain.ValidationError{Field: "from", Reason: "must not be after to"}
	}
	return nil
}

// Day is the rollup of one date across the selected decks.
type Day struct {
	Date string
	domain.Tally
}

// Summary is the aggregate over a range.
type Summary struct {
	Range  Range
	DeckID *int64
	domain.Tally
	Days []Day // ascending by date, only dates with reviews
}

// Aggregator computes summaries from a Source.
type Aggregator struct {
	src Source
}

// NewAggregator creates an aggregator over src.
func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Summary aggregates the incrementally maintained daily rows.
func (a *Aggregator) Summary(ctx context.Context, r Range, deckID *int64) (*Summary, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	rows, err := a.src.DailyStats(ctx, r.From, r.To, deckID)
	if err != nil {
		return nil, err
	}
	return summarize(r, deckID, rows), nil
}

// Recompute derives the same summary by replaying the review log. Nothing
// is written.
func (a *Aggregator) Recompute(ctx context.Context, r Range, deckID *int64) (*Summary, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	events, err := a.src.ReviewEvents(ctx, deckID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	return summarize(r, deckID, domain.Rollup(events)), nil
}

func summarize(r Range, deckID *int64, rows []domain.DailyStat) *Summary {
	s := &Summary{Range: r, DeckID: deckID}
	for _, row := range rows {
		s.Merge(row.Tally)
		if n := len(s.Days); n > 0 && s.Days[n-1].Date == row.Date {
			s.Days[n-1].Merge(row.Tally)
			continue
		}
		s.Days = append(s.Days, Day{Date: row.Date, Tally: row.Tally})
	}
	return s
}

// Mismatch is a (date, deck) key whose stored row differs from the replay.
type Mismatch struct {
	Date     string
	DeckID   int64
	Stored   domain.Tally
	Replayed domain.Tally
}

// Verify compares every stored daily row against a full replay of the log.
// An empty result means the two agree.
func (a *Aggregator) Verify(ctx context.Context) ([]Mismatch, error) {
	stored, err := a.src.DailyStats(ctx, "", "", nil)
	if err != nil {
		return nil, err
	}
	events, err := a.src.ReviewEvents(ctx, nil, "", "")
	if err != nil {
		return nil, err
	}

	type key struct {
		date string
		deck int64
	}
	diff := make(map[key]*Mismatch)
	get := func(k key) *Mismatch {
		m, ok := diff[k]
		if !ok {
			m = &Mismatch{Date: k.date, DeckID: k.deck}
			diff[k] = m
		}
		return m
	}
	for _, row := range stored {
		get(key{row.Date, row.DeckID}).Stored = row.Tally
	}
	for _, row := range domain.Rollup(events) {
		get(key{row.Date, row.DeckID}).Replayed = row.Tally
	}

	var out []Mismatch
	for _, m := range diff {
		if m.Stored != m.Replayed {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].DeckID < out[j].DeckID
	})
	return out, nil
}

// Rebuild replaces the stored daily rows with a replay of the log. It is
// safe to retry after a failure.
func (a *Aggregator) Rebuild(ctx context.Context) (int, error) {
	return a.src.RebuildDailyStats(ctx)
}

// Streak counts consecutive days with at least one review, ending today.
// A streak that ended yesterday still counts, since today may not have been
// studied yet.
func (a *Aggregator) Streak(ctx context.Context, today time.Time, loc *time.Location, deckID *int64) (int, error) {
	rows, err := a.src.DailyStats(ctx, "", today.In(loc).Format(domain.DateLayout), deckID)
	if err != nil {
		return 0, err
	}
	studied := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row.Total > 0 {
			studied[row.Date] = true
		}
	}

	day := today.In(loc)
	if !studied[day.Format(domain.DateLayout)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for studied[day.Format(domain.DateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}
