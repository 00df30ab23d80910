package domain

import "time"

// Deck is a named collection of cards.
type Deck struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Populated by listings only.
	CardCount int
	DueCount  int
}

// Schedule is the spaced-repetition state carried by every card. It is a
// cache of the outcome of the card's latest review event.
type Schedule struct {
	Interval     int // days until the next review
	Ease         float64
	Repetitions  int // consecutive correct reviews
	NextReview   time.Time
	LastReviewed *time.Time
}

// Card represents a single front/back study item.
type Card struct {
	ID        int64
	DeckID    int64
	Front     string
	Back      string
	Schedule  Schedule
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Due reports whether the card should be shown at now.
func (c Card) Due(now time.Time) bool {
	return !c.Schedule.NextReview.After(now)
}

// ReviewEvent records a single rating submission for a card. Events are
// append-only; Day is the calendar date the event counts towards.
type ReviewEvent struct {
	ID             int64
	CardID         int64
	DeckID         int64
	Rating         Rating
	Timestamp      time.Time
	Day            string
	IntervalBefore int
	IntervalAfter  int
	EaseBefore     float64
	EaseAfter      float64
	Duration       time.Duration
}

// Note is a question/answer pair read from a markdown source before it
// becomes a card.
type Note struct {
	Question string
	Answer   string
	Context  string
	Line     int // line of the Q: prefix, 1-based
}

// Back is the card back a note becomes: the answer followed by any context.
func (n Note) Back() string {
	if n.Context == "" {
		return n.Answer
	}
	return n.Answer + "\n\n" + n.Context
}
