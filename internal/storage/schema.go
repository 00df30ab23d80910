package storage

// Timestamps are stored as UTC unix milliseconds so that ordering and due
// comparisons are plain integer comparisons.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS decks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS cards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		deck_id INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
		front TEXT NOT NULL,
		back TEXT NOT NULL,
		interval INTEGER NOT NULL DEFAULT 0 CHECK (interval >= 0),
		ease REAL NOT NULL,
		next_review INTEGER NOT NULL,
		repetitions INTEGER NOT NULL DEFAULT 0,
		last_reviewed INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,

	// Append-only. day is the calendar date the event was counted under.
	`CREATE TABLE IF NOT EXISTS review_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		card_id INTEGER NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
		deck_id INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 0 AND 5),
		ts INTEGER NOT NULL,
		day TEXT NOT NULL,
		interval_before INTEGER NOT NULL,
		interval_after INTEGER NOT NULL,
		ease_before REAL NOT NULL,
		ease_after REAL NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	)`,

	// Rows are written per deck; deck_id stays nullable to match the
	// logical schema.
	`CREATE TABLE IF NOT EXISTS daily_stats (
		date TEXT NOT NULL,
		deck_id INTEGER REFERENCES decks(id) ON DELETE CASCADE,
		total INTEGER NOT NULL DEFAULT 0,
		again INTEGER NOT NULL DEFAULT 0,
		hard INTEGER NOT NULL DEFAULT 0,
		good INTEGER NOT NULL DEFAULT 0,
		easy INTEGER NOT NULL DEFAULT 0,
		perfect INTEGER NOT NULL DEFAULT 0,
		study_ms INTEGER NOT NULL DEFAULT 0,
		UNIQUE (date, deck_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(next_review, id)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck_id)`,
	`CREATE INDEX IF NOT EXISTS idx_review_events_card ON review_events(card_id)`,
	`CREATE INDEX IF NOT EXISTS idx_review_events_day ON review_events(day, deck_id)`,
}
