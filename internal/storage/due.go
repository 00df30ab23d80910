package storage

import (
	"context"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// DueCards returns every card whose next review is at or before now, oldest
// due first with card id as the tie-break. deckID limits the query to one
// deck; nil means all decks. The set is computed from stored state on every
// call.
func (db *DB) DueCards(ctx context.Context, now time.Time, deckID *int64) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE next_review <= ?1
		  AND (?2 IS NULL OR deck_id = ?2)
		ORDER BY next_review ASC, id ASC
	`, millis(now), nullID(deckID))
	if err != nil {
		return nil, &domain.StorageError{Op: "get due cards", Err: err}
	}
	cards, err := collectCards(rows)
	if err != nil {
		return nil, &domain.StorageError{Op: "get due cards", Err: err}
	}
	return cards, nil
}

// CountDue returns the number of cards DueCards would return.
func (db *DB) CountDue(ctx context.Context, now time.Time, deckID *int64) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM cards
		WHERE next_review <= ?1
		  AND (?2 IS NULL OR deck_id = ?2)
	`, millis(now), nullID(deckID)).Scan(&n)
	if err != nil {
		return 0, &domain.StorageError{Op: "count due cards", Err: err}
	}
	return n, nil
}
