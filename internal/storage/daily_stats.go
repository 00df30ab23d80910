package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// addDailyStat adds delta to the (date, deck) row, creating it if needed.
func addDailyStat(ctx context.Context, tx *sql.Tx, date string, deckID int64, delta domain.Tally) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO daily_stats (date, deck_id, total, again, hard, good, easy, perfect, study_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date, deck_id) DO UPDATE SET
			total    = total    + excluded.total,
			again    = again    + excluded.again,
			hard     = hard     + excluded.hard,
			good     = good     + excluded.good,
			easy     = easy     + excluded.easy,
			perfect  = perfect  + excluded.perfect,
			study_ms = study_ms + excluded.study_ms
	`,
		date,
		deckID,
		delta.Total,
		delta.Again,
		delta.Hard,
		delta.Good,
		delta.Easy,
		delta.Perfect,
		delta.StudyTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to update daily stats for %s deck %d: %w", date, deckID, err)
	}
	return nil
}

// subtractDailyStats removes rollups of deleted events and drops rows that
// no longer count anything.
func subtractDailyStats(ctx context.Context, tx *sql.Tx, rows []domain.DailyStat) error {
	for _, ds := range rows {
		var neg domain.Tally
		neg.Sub(ds.Tally)
		if err := addDailyStat(ctx, tx, ds.Date, ds.DeckID, neg); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_stats WHERE total <= 0`); err != nil {
		return fmt.Errorf("failed to prune daily stats: %w", err)
	}
	return nil
}

// DailyStats returns the incrementally maintained rows for dates between
// from and to inclusive (empty bounds are open), optionally for one deck,
// ordered by date then deck.
func (db *DB) DailyStats(ctx context.Context, from, to string, deckID *int64) ([]domain.DailyStat, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT date, deck_id, total, again, hard, good, easy, perfect, study_ms
		FROM daily_stats
		WHERE (?1 = '' OR date >= ?1)
		  AND (?2 = '' OR date <= ?2)
		  AND (?3 IS NULL OR deck_id = ?3)
		ORDER BY date, deck_id
	`, from, to, nullID(deckID))
	if err != nil {
		return nil, &domain.StorageError{Op: "get daily stats", Err: err}
	}
	defer rows.Close()

	var stats []domain.DailyStat
	for rows.Next() {
		var (
			ds      domain.DailyStat
			deck    sql.NullInt64
			studyMS int64
		)
		if err := rows.Scan(&ds.Date, &deck, &ds.Total, &ds.Again, &ds.Hard, &ds.Good, &ds.Easy, &ds.Perfect, &studyMS); err != nil {
			return nil, &domain.StorageError{Op: "scan daily stats row", Err: err}
		}
		ds.DeckID = deck.Int64
		ds.StudyTime = time.Duration(studyMS) * time.Millisecond
		stats = append(stats, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "get daily stats", Err: err}
	}
	return stats, nil
}

// RebuildDailyStats replaces every daily stats row with a rollup of the
// review event log. It runs in one transaction, never touches the log, and
// can be repeated safely. It returns the number of rows written.
func (db *DB) RebuildDailyStats(ctx context.Context) (int, error) {
	var written int
	err := db.withTx(ctx, "rebuild daily stats", func(tx *sql.Tx) error {
		events, err := queryEvents(ctx, tx, "")
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_stats`); err != nil {
			return fmt.Errorf("failed to clear daily stats: %w", err)
		}
		for _, ds := range domain.Rollup(events) {
			if err := addDailyStat(ctx, tx, ds.Date, ds.DeckID, ds.Tally); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}
