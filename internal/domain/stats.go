package domain

import (
	"sort"
	"time"
)

// DateLayout is the format of DailyStat dates and ReviewEvent days.
const DateLayout = "2006-01-02"

// DayOf returns the calendar date of ts in loc.
func DayOf(ts time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return ts.In(loc).Format(DateLayout)
}

// Tally counts reviews by outcome tier.
type Tally struct {
	Total     int
	Again     int
	Hard      int
	Good      int
	Easy      int
	Perfect   int
	StudyTime time.Duration
}

// Add counts one review.
func (t *Tally) Add(r Rating, spent time.Duration) {
	t.Total++
	t.StudyTime += spent
	switch r.Tier() {
	case TierAgain:
		t.Again++
	case TierHard:
		t.Hard++
	case TierGood:
		t.Good++
	case TierEasy:
		t.Easy++
	case TierPerfect:
		t.Perfect++
	}
}

// Merge adds o into t.
func (t *Tally) Merge(o Tally) {
	t.Total += o.Total
	t.Again += o.Again
	t.Hard += o.Hard
	t.Good += o.Good
	t.Easy += o.Easy
	t.Perfect += o.Perfect
	t.StudyTime += o.StudyTime
}

// Sub removes o from t.
func (t *Tally) Sub(o Tally) {
	t.Total -= o.Total
	t.Again -= o.Again
	t.Hard -= o.Hard
	t.Good -= o.Good
	t.Easy -= o.Easy
	t.Perfect -= o.Perfect
	t.StudyTime -= o.StudyTime
}

// Correct is the number of reviews rated Good or better.
func (t Tally) Correct() int {
	return t.Good + t.Easy + t.Perfect
}

// Accuracy is Correct/Total, or 0 when nothing was reviewed.
func (t Tally) Accuracy() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Correct()) / float64(t.Total)
}

// DailyStat is the rollup of one deck's reviews on one date.
type DailyStat struct {
	Date   string
	DeckID int64
	Tally
}

// Rollup folds review events into daily stats keyed by (day, deck), sorted
// by date then deck id. It is the replay counterpart of the incremental
// counters kept by the store; both go through Tally.Add.
func Rollup(events []ReviewEvent) []DailyStat {
	type key struct {
		day  string
		deck int64
	}
	byKey := make(map[key]*DailyStat)
	for _, ev := range events {
		k := key{ev.Day, ev.DeckID}
		ds, ok := byKey[k]
		if !ok {
			ds = &DailyStat{Date: ev.Day, DeckID: ev.DeckID}
			byKey[k] = ds
		}
		ds.Add(ev.Rating, ev.Duration)
	}

	out := make([]DailyStat, 0, len(byKey))
	for _, ds := range byKey {
		out = append(out, *ds)
	}
	SortDailyStats(out)
	return out
}

// SortDailyStats orders stats by date, then deck id.
func SortDailyStats(stats []DailyStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Date != stats[j].Date {
			return stats[i].Date < stats[j].Date
		}
		return stats[i].DeckID < stats[j].DeckID
	})
}
