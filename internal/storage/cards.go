package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/knoldeck/internal/domain"
)

const cardColumns = `id, deck_id, front, back, interval, ease, next_review, repetitions, last_reviewed, created_at, updated_at`

// CreateCard inserts a new card into a deck. New cards start with the
// initial ease and are due immediately.
func (db *DB) CreateCard(ctx context.Context, deckID int64, front, back string) (*domain.Card, error) {
	in, err := domain.CardInput{Front: front, Back: back}.Normalize()
	if err != nil {
		return nil, err
	}

	var card *domain.Card
	err = db.withTx(ctx, "create card", func(tx *sql.Tx) error {
		if _, err := getDeck(ctx, tx, deckID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.ValidationError{Field: "deck", Reason: fmt.Sprintf("deck %d does not exist", deckID)}
			}
			return err
		}

		now := db.now()
		sched := db.params.NewSchedule(now)
		res, err := tx.ExecContext(ctx, `
			INSERT INTO cards (deck_id, front, back, interval, ease, next_review, repetitions, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			deckID,
			in.Front,
			in.Back,
			sched.Interval,
			sched.Ease,
			millis(sched.NextReview),
			sched.Repetitions,
			millis(now),
			millis(now),
		)
		if err != nil {
			return fmt.Errorf("failed to insert card: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID for card: %w", err)
		}
		card, err = getCard(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// GetCard retrieves a card by id.
func (db *DB) GetCard(ctx context.Context, id int64) (*domain.Card, error) {
	card, err := getCard(ctx, db.conn, id)
	if err != nil {
		return nil, wrap("get card", err)
	}
	return card, nil
}

// ListCards returns the cards of one deck, or of every deck when deckID is
// nil, in id order.
func (db *DB) ListCards(ctx context.Context, deckID *int64) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE (?1 IS NULL OR deck_id = ?1)
		ORDER BY id
	`, nullID(deckID))
	if err != nil {
		return nil, &domain.StorageError{Op: "list cards", Err: err}
	}
	cards, err := collectCards(rows)
	if err != nil {
		return nil, &domain.StorageError{Op: "list cards", Err: err}
	}
	return cards, nil
}

// UpdateCardContent replaces the front and back text of a card. Scheduling
// state is left alone.
func (db *DB) UpdateCardContent(ctx context.Context, id int64, front, back string) (*domain.Card, error) {
	in, err := domain.CardInput{Front: front, Back: back}.Normalize()
	if err != nil {
		return nil, err
	}

	var card *domain.Card
	err = db.withTx(ctx, "update card", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE cards SET front = ?, back = ?, updated_at = ?
			WHERE id = ?
		`, in.Front, in.Back, millis(db.now()), id)
		if err != nil {
			return fmt.Errorf("failed to update card %d: %w", id, err)
		}
		if err := expectOne(res, "card", id); err != nil {
			return err
		}
		card, err = getCard(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// DeleteCard removes a card and its review events. The card's events are
// taken back out of the daily stats in the same transaction.
func (db *DB) DeleteCard(ctx context.Context, id int64) error {
	unlock := db.lockCard(id)
	defer unlock()

	return db.withTx(ctx, "delete card", func(tx *sql.Tx) error {
		events, err := queryEvents(ctx, tx, `WHERE card_id = ?`, id)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete card %d: %w", id, err)
		}
		if err := expectOne(res, "card", id); err != nil {
			return err
		}
		return subtractDailyStats(ctx, tx, domain.Rollup(events))
	})
}

// UpdateCardState overwrites a card's scheduling state.
func (db *DB) UpdateCardState(ctx context.Context, id int64, state domain.Schedule) error {
	if err := db.checkSchedule(state); err != nil {
		return err
	}
	unlock := db.lockCard(id)
	defer unlock()

	return db.withTx(ctx, "update card state", func(tx *sql.Tx) error {
		return db.updateCardState(ctx, tx, id, state)
	})
}

func (db *DB) updateCardState(ctx context.Context, tx *sql.Tx, id int64, state domain.Schedule) error {
	var lastReviewed sql.NullInt64
	if state.LastReviewed != nil {
		lastReviewed = sql.NullInt64{Int64: millis(*state.LastReviewed), Valid: true}
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET interval = ?, ease = ?, next_review = ?, repetitions = ?, last_reviewed = ?, updated_at = ?
		WHERE id = ?
	`,
		state.Interval,
		state.Ease,
		millis(state.NextReview),
		state.Repetitions,
		lastReviewed,
		millis(db.now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update card state for card %d: %w", id, err)
	}
	return expectOne(res, "card", id)
}

// checkSchedule enforces the stored-state invariants.
func (db *DB) checkSchedule(s domain.Schedule) error {
	switch {
	case s.Interval < 0:
		return &domain.ValidationError{Field: "interval", Reason: "must not be negative"}
	case s.Repetitions < 0:
		return &domain.ValidationError{Field: "repetitions", Reason: "must not be negative"}
	case !(s.Ease >= db.params.MinEase):
		return &domain.ValidationError{Field: "ease", Reason: fmt.Sprintf("must be at least %.2f", db.params.MinEase)}
	case s.NextReview.IsZero():
		return &domain.ValidationError{Field: "next_review", Reason: "must be set"}
	}
	return nil
}

func getCard(ctx context.Context, q querier, id int64) (*domain.Card, error) {
	row := q.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "card", ID: id}
		}
		return nil, fmt.Errorf("failed to find card %d: %w", id, err)
	}
	return card, nil
}

func scanCard(row scanner) (*domain.Card, error) {
	var (
		c                    domain.Card
		nextReview           int64
		lastReviewed         sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&c.ID,
		&c.DeckID,
		&c.Front,
		&c.Back,
		&c.Schedule.Interval,
		&c.Schedule.Ease,
		&nextReview,
		&c.Schedule.Repetitions,
		&lastReviewed,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Schedule.NextReview = fromMillis(nextReview)
	if lastReviewed.Valid {
		t := fromMillis(lastReviewed.Int64)
		c.Schedule.LastReviewed = &t
	}
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return &c, nil
}

func collectCards(rows *sql.Rows) ([]domain.Card, error) {
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

func expectOne(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}
