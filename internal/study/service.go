// Package study is the entry point a front-end uses to run reviews. Every
// call names its deck or card explicitly; the service keeps no session.
package study

import (
	"context"
	"log/slog"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/srs"
	"github.com/conorfennell/knoldeck/internal/storage"
)

// Store is the part of the record store the service needs.
type Store interface {
	GetCard(ctx context.Context, id int64) (*domain.Card, error)
	DueCards(ctx context.Context, now time.Time, deckID *int64) ([]domain.Card, error)
	ApplyReview(ctx context.Context, in storage.ReviewInput, next func(domain.Schedule) domain.Schedule) (*domain.Card, *domain.ReviewEvent, error)
}

// Service runs reviews against a Store.
type Service struct {
	store  Store
	params *srs.Params
	now    func() time.Time
	log    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a service that schedules with params.
func NewService(store Store, params *srs.Params, opts ...Option) *Service {
	s := &Service{
		store:  store,
		params: params,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Due returns the cards due now, oldest first. A nil deckID means every deck.
func (s *Service) Due(ctx context.Context, deckID *int64) ([]domain.Card, error) {
	return s.store.DueCards(ctx, s.now(), deckID)
}

// Outcome is the result of one review.
type Outcome struct {
	Card  domain.Card
	Event domain.ReviewEvent
}

// Review validates a raw rating, schedules the card and records the review.
// Out-of-range ratings fail with a ValidationError before anything is read
// or written.
func (s *Service) Review(ctx context.Context, cardID int64, rating int, spent time.Duration) (*Outcome, error) {
	r, err := domain.ParseRating(rating)
	if err != nil {
		return nil, err
	}

	now := s.now()
	card, event, err := s.store.ApplyReview(ctx, storage.ReviewInput{
		CardID:   cardID,
		Rating:   r,
		At:       now,
		Duration: spent,
	}, func(cur domain.Schedule) domain.Schedule {
		return s.params.Next(cur, r, now)
	})
	if err != nil {
		s.log.Warn("review failed", "card_id", cardID, "rating", rating, "error", err)
		return nil, err
	}

	s.log.Debug("card reviewed",
		"card_id", cardID,
		"rating", r.String(),
		"interval_before", event.IntervalBefore,
		"interval_after", event.IntervalAfter,
		"ease", event.EaseAfter,
		"next_review", card.Schedule.NextReview,
	)
	return &Outcome{Card: *card, Event: *event}, nil
}

// Projection is the schedule a card would get for one rating.
type Projection struct {
	Rating   domain.Rating
	Schedule domain.Schedule
}

// Preview returns what every rating would do to the card if it were
// reviewed now. Nothing is written.
func (s *Service) Preview(ctx context.Context, cardID int64) ([]Projection, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Projection, 0, int(domain.MaxRating-domain.MinRating)+1)
	for r := domain.MinRating; r <= domain.MaxRating; r++ {
		out = append(out, Projection{Rating: r, Schedule: s.params.Next(card.Schedule, r, now)})
	}
	return out, nil
}
