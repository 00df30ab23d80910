// Package srs implements the simplified SM-2 scheduler: a pure mapping from
// a card's scheduling state and a rating to its next state.
package srs

import (
	"math"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// Params holds the parameters for the scheduler.
type Params struct {
	InitialEase   float64 `validate:"gtefield=MinEase"`
	MinEase       float64 `validate:"gte=1"` // floor; intervals must not shrink on success
	ResetInterval int     `validate:"gte=1"` // days after an incorrect answer
	FirstInterval int     `validate:"gtefield=ResetInterval"`
	MaxInterval   int     `validate:"gtefield=FirstInterval"`

	// EaseAdjust is added to the ease after a review, indexed by tier.
	EaseAdjust [domain.NumTiers]float64
}

// DefaultParams provides the stock parameters.
func DefaultParams() *Params {
	return &Params{
		InitialEase:   2.5,
		MinEase:       1.3,
		ResetInterval: 1,
		FirstInterval: 1,
		MaxInterval:   36500,
		EaseAdjust: [domain.NumTiers]float64{
			domain.TierAgain:   -0.20,
			domain.TierHard:    -0.20,
			domain.TierGood:    -0.05,
			domain.TierEasy:    +0.10,
			domain.TierPerfect: +0.15,
		},
	}
}

// Validate checks the parameters for internal consistency.
func (p *Params) Validate() error {
	if err := domain.Check(p); err != nil {
		return err
	}
	if p.EaseAdjust[domain.TierAgain] > 0 || p.EaseAdjust[domain.TierHard] > 0 {
		return &domain.ValidationError{Field: "easeadjust", Reason: "incorrect tiers must not raise the ease"}
	}
	for t := domain.TierGood; t < domain.TierPerfect; t++ {
		if p.EaseAdjust[t] > p.EaseAdjust[t+1] {
			return &domain.ValidationError{Field: "easeadjust", Reason: "must not decrease from good to perfect"}
		}
	}
	return nil
}

// State is the part of a card's schedule the scheduler reads.
type State struct {
	Interval    int
	Ease        float64
	Repetitions int
}

// Initial is the state of a card that has never been reviewed.
func (p *Params) Initial() State {
	return State{Interval: 0, Ease: p.InitialEase, Repetitions: 0}
}

// NextState calculates the state after a review with the given rating.
// It is deterministic and defined for every input: out-of-range state is
// normalised first, and ratings off the 0-5 scale clamp to the nearest tier.
func (p *Params) NextState(cur State, rating domain.Rating) State {
	cur = p.normalize(cur)
	ease := p.clampEase(cur.Ease + p.EaseAdjust[rating.Tier()])

	if !rating.Correct() {
		return State{Interval: p.ResetInterval, Ease: ease, Repetitions: 0}
	}

	reps := cur.Repetitions + 1
	if reps == 1 {
		return State{Interval: max(p.FirstInterval, cur.Interval), Ease: ease, Repetitions: reps}
	}
	return State{Interval: p.growInterval(cur), Ease: ease, Repetitions: reps}
}

// growInterval multiplies the interval by the ease held before the review.
// The result is at least one day, never below the current interval and
// capped at MaxInterval unless the card already sits above the cap.
func (p *Params) growInterval(cur State) int {
	ceiling := max(p.MaxInterval, cur.Interval)
	grown := math.Round(float64(cur.Interval) * cur.Ease)
	if math.IsNaN(grown) {
		return max(1, cur.Interval)
	}
	if grown >= float64(ceiling) {
		return ceiling
	}
	return max(1, int(grown), cur.Interval)
}

func (p *Params) normalize(s State) State {
	if s.Interval < 0 {
		s.Interval = 0
	}
	if s.Repetitions < 0 {
		s.Repetitions = 0
	}
	s.Ease = p.clampEase(s.Ease)
	return s
}

func (p *Params) clampEase(e float64) float64 {
	if !(e >= p.MinEase) { // also catches NaN
		return p.MinEase
	}
	return e
}

// NextDueDate is the time interval days after now.
func NextDueDate(now time.Time, interval int) time.Time {
	return now.Add(time.Duration(interval) * 24 * time.Hour)
}

// Next applies a review to a full schedule at the given time.
func (p *Params) Next(cur domain.Schedule, rating domain.Rating, now time.Time) domain.Schedule {
	next := p.NextState(State{Interval: cur.Interval, Ease: cur.Ease, Repetitions: cur.Repetitions}, rating)
	reviewed := now
	return domain.Schedule{
		Interval:     next.Interval,
		Ease:         next.Ease,
		Repetitions:  next.Repetitions,
		NextReview:   NextDueDate(now, next.Interval),
		LastReviewed: &reviewed,
	}
}

// NewSchedule is the schedule of a card created at now: due immediately.
func (p *Params) NewSchedule(now time.Time) domain.Schedule {
	init := p.Initial()
	return domain.Schedule{
		Interval:    init.Interval,
		Ease:        init.Ease,
		Repetitions: init.Repetitions,
		NextReview:  now,
	}
}
