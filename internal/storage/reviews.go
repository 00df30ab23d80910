package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
)

const eventColumns = `id, card_id, deck_id, rating, ts, day, interval_before, interval_after, ease_before, ease_after, duration_ms`

// ReviewInput describes one rating submission.
type ReviewInput struct {
	CardID   int64
	Rating   domain.Rating
	At       time.Time
	Duration time.Duration // time spent on the card, zero if not tracked
}

// ApplyReview records a review. In a single transaction it reads the card's
// current schedule, computes the next one with next, writes it back, appends
// the review event and counts the event in the day's stats. Either all of
// these are committed or none are.
func (db *DB) ApplyReview(ctx context.Context, in ReviewInput, next func(domain.Schedule) domain.Schedule) (*domain.Card, *domain.ReviewEvent, error) {
	if _, err := domain.ParseRating(int(in.Rating)); err != nil {
		return nil, nil, err
	}
	if in.Duration < 0 {
		return nil, nil, &domain.ValidationError{Field: "duration", Reason: "must not be negative"}
	}
	if in.At.IsZero() {
		return nil, nil, &domain.ValidationError{Field: "at", Reason: "must be set"}
	}

	unlock := db.lockCard(in.CardID)
	defer unlock()

	var (
		card  *domain.Card
		event *domain.ReviewEvent
	)
	err := db.withTx(ctx, "apply review", func(tx *sql.Tx) error {
		before, err := getCard(ctx, tx, in.CardID)
		if err != nil {
			return err
		}
		after := next(before.Schedule)
		if err := db.checkSchedule(after); err != nil {
			return err
		}

		if err := db.updateCardState(ctx, tx, in.CardID, after); err != nil {
			return err
		}
		event, err = appendReview(ctx, tx, &domain.ReviewEvent{
			CardID:         in.CardID,
			DeckID:         before.DeckID,
			Rating:         in.Rating,
			Timestamp:      in.At,
			Day:            domain.DayOf(in.At, db.loc),
			IntervalBefore: before.Schedule.Interval,
			IntervalAfter:  after.Interval,
			EaseBefore:     before.Schedule.Ease,
			EaseAfter:      after.Ease,
			Duration:       in.Duration,
		})
		if err != nil {
			return err
		}

		var delta domain.Tally
		delta.Add(event.Rating, event.Duration)
		if err := addDailyStat(ctx, tx, event.Day, event.DeckID, delta); err != nil {
			return err
		}

		card, err = getCard(ctx, tx, in.CardID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return card, event, nil
}

// appendReview inserts ev and fills in its id. It is only called inside the
// transaction that also updates the card's state.
func appendReview(ctx context.Context, tx *sql.Tx, ev *domain.ReviewEvent) (*domain.ReviewEvent, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO review_events (card_id, deck_id, rating, ts, day, interval_before, interval_after, ease_before, ease_after, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.CardID,
		ev.DeckID,
		int(ev.Rating),
		millis(ev.Timestamp),
		ev.Day,
		ev.IntervalBefore,
		ev.IntervalAfter,
		ev.EaseBefore,
		ev.EaseAfter,
		ev.Duration.Milliseconds(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append review for card %d: %w", ev.CardID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for review: %w", err)
	}

	out := *ev
	out.ID = id
	out.Timestamp = fromMillis(millis(ev.Timestamp))
	out.Duration = time.Duration(ev.Duration.Milliseconds()) * time.Millisecond
	return &out, nil
}

// ReviewEvents returns the review log in append order, optionally limited to
// one deck and to days between from and to inclusive. Empty bounds are open.
func (db *DB) ReviewEvents(ctx context.Context, deckID *int64, from, to string) ([]domain.ReviewEvent, error) {
	events, err := queryEvents(ctx, db.conn, `
		WHERE (?1 IS NULL OR deck_id = ?1)
		  AND (?2 = '' OR day >= ?2)
		  AND (?3 = '' OR day <= ?3)
	`, nullID(deckID), from, to)
	if err != nil {
		return nil, &domain.StorageError{Op: "list review events", Err: err}
	}
	return events, nil
}

func queryEvents(ctx context.Context, q querier, where string, args ...any) ([]domain.ReviewEvent, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+eventColumns+` FROM review_events `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query review events: %w", err)
	}
	defer rows.Close()

	var events []domain.ReviewEvent
	for rows.Next() {
		var (
			ev         domain.ReviewEvent
			rating     int
			ts         int64
			durationMS int64
		)
		if err := rows.Scan(
			&ev.ID,
			&ev.CardID,
			&ev.DeckID,
			&rating,
			&ts,
			&ev.Day,
			&ev.IntervalBefore,
			&ev.IntervalAfter,
			&ev.EaseBefore,
			&ev.EaseAfter,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review event row: %w", err)
		}
		ev.Rating = domain.Rating(rating)
		ev.Timestamp = fromMillis(ts)
		ev.Duration = time.Duration(durationMS) * time.Millisecond
		events = append(events, ev)
	}
	return events, rows.Err()
}
