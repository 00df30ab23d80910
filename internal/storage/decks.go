package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const deckColumns = `id, name, description, created_at, updated_at`

// CreateDeck inserts a new deck. The name must be non-empty and not yet taken.
func (db *DB) CreateDeck(ctx context.Context, name, description string) (*domain.Deck, error) {
	in, err := domain.DeckInput{Name: name, Description: description}.Normalize()
	if err != nil {
		return nil, err
	}

	var deck *domain.Deck
	err = db.withTx(ctx, "create deck", func(tx *sql.Tx) error {
		if err := ensureNameFree(ctx, tx, in.Name, 0); err != nil {
			return err
		}
		ms := millis(db.now())
		res, err := tx.ExecContext(ctx, `
			INSERT INTO decks (name, description, created_at, updated_at)
			VALUES (?, ?, ?, ?)
		`, in.Name, in.Description, ms, ms)
		if err != nil {
			return nameConflict(in.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID for deck %s: %w", in.Name, err)
		}
		deck = &domain.Deck{
			ID:          id,
			Name:        in.Name,
			Description: in.Description,
			CreatedAt:   fromMillis(ms),
			UpdatedAt:   fromMillis(ms),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deck, nil
}

// GetDeck retrieves a deck by id.
func (db *DB) GetDeck(ctx context.Context, id int64) (*domain.Deck, error) {
	deck, err := getDeck(ctx, db.conn, id)
	if err != nil {
		return nil, wrap("get deck", err)
	}
	return deck, nil
}

// FindDeckByName retrieves a deck by its exact name. It returns nil, nil
// when no deck has that name.
func (db *DB) FindDeckByName(ctx context.Context, name string) (*domain.Deck, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE name = ?`, name)
	deck, err := scanDeck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Deck not found
		}
		return nil, &domain.StorageError{Op: "find deck " + name, Err: err}
	}
	return deck, nil
}

// ListDecks returns every deck, newest first, with its card count and the
// number of cards due at now.
func (db *DB) ListDecks(ctx context.Context, now time.Time) ([]domain.Deck, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT d.id, d.name, d.description, d.created_at, d.updated_at,
		       COUNT(c.id),
		       COALESCE(SUM(CASE WHEN c.next_review <= ? THEN 1 ELSE 0 END), 0)
		FROM decks d
		LEFT JOIN cards c ON c.deck_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at DESC, d.id DESC
	`, millis(now))
	if err != nil {
		return nil, &domain.StorageError{Op: "list decks", Err: err}
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		var (
			d                domain.Deck
			created, updated int64
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &created, &updated, &d.CardCount, &d.DueCount); err != nil {
			return nil, &domain.StorageError{Op: "scan deck row", Err: err}
		}
		d.CreatedAt = fromMillis(created)
		d.UpdatedAt = fromMillis(updated)
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "list decks", Err: err}
	}
	return decks, nil
}

// UpdateDeck renames a deck and replaces its description.
func (db *DB) UpdateDeck(ctx context.Context, id int64, name, description string) (*domain.Deck, error) {
	in, err := domain.DeckInput{Name: name, Description: description}.Normalize()
	if err != nil {
		return nil, err
	}

	var deck *domain.Deck
	err = db.withTx(ctx, "update deck", func(tx *sql.Tx) error {
		if _, err := getDeck(ctx, tx, id); err != nil {
			return err
		}
		if err := ensureNameFree(ctx, tx, in.Name, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE decks SET name = ?, description = ?, updated_at = ?
			WHERE id = ?
		`, in.Name, in.Description, millis(db.now()), id); err != nil {
			return nameConflict(in.Name, err)
		}
		deck, err = getDeck(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return deck, nil
}

// DeleteDeck removes a deck together with its cards, their review events and
// the deck's daily stats.
func (db *DB) DeleteDeck(ctx context.Context, id int64) error {
	return db.withTx(ctx, "delete deck", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete deck %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &domain.NotFoundError{Kind: "deck", ID: id}
		}
		return nil
	})
}

func getDeck(ctx context.Context, q querier, id int64) (*domain.Deck, error) {
	row := q.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id)
	deck, err := scanDeck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "deck", ID: id}
		}
		return nil, fmt.Errorf("failed to find deck %d: %w", id, err)
	}
	return deck, nil
}

func scanDeck(row scanner) (*domain.Deck, error) {
	var (
		d                domain.Deck
		created, updated int64
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &created, &updated); err != nil {
		return nil, err
	}
	d.CreatedAt = fromMillis(created)
	d.UpdatedAt = fromMillis(updated)
	return &d, nil
}

// ensureNameFree fails with a ValidationError when another deck than self
// already uses name.
func ensureNameFree(ctx context.Context, q querier, name string, self int64) error {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM decks WHERE name = ?`, name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up deck name %s: %w", name, err)
	case id != self:
		return &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("deck %q already exists", name)}
	}
	return nil
}

// nameConflict turns a unique constraint failure into the ValidationError
// ensureNameFree would have returned.
func nameConflict(name string, err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	if code := se.Code(); code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT {
		return &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("deck %q already exists", name)}
	}
	return err
}
