package domain

import "fmt"

// Rating is the user's recall-quality score for one review, 0 through 5.
type Rating int

const (
	Again   Rating = 0 // no recall
	Hard    Rating = 1 // recalled the wrong answer
	Poor    Rating = 2 // recognised the answer once shown
	Good    Rating = 3 // correct with effort
	Easy    Rating = 4 // correct after a short hesitation
	Perfect Rating = 5 // instant recall
)

// MinRating and MaxRating bound the accepted scale.
const (
	MinRating = Again
	MaxRating = Perfect
)

var ratingNames = [...]string{
	Again:   "Again",
	Hard:    "Hard",
	Poor:    "Poor",
	Good:    "Good",
	Easy:    "Easy",
	Perfect: "Perfect",
}

// ParseRating validates a raw value coming from a caller into a Rating.
// Rating 2 is accepted and scores as an incorrect answer.
func ParseRating(v int) (Rating, error) {
	r := Rating(v)
	if !r.IsValid() {
		return 0, &ValidationError{Field: "rating", Reason: fmt.Sprintf("must be between %d and %d, got %d", MinRating, MaxRating, v)}
	}
	return r, nil
}

// IsValid reports whether r is on the 0-5 scale.
func (r Rating) IsValid() bool {
	return r >= MinRating && r <= MaxRating
}

// Correct reports whether the rating counts as a successful recall.
func (r Rating) Correct() bool {
	return r >= Good
}

// Tier maps the rating onto its adjustment tier. Values off the scale are
// clamped so the mapping stays total.
func (r Rating) Tier() Tier {
	switch {
	case r <= Again:
		return TierAgain
	case r <= Poor:
		return TierHard
	case r == Good:
		return TierGood
	case r == Easy:
		return TierEasy
	default:
		return TierPerfect
	}
}

func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// Tier is one of the five outcome buckets used for ease adjustment and for
// daily statistics.
type Tier int

const (
	TierAgain Tier = iota
	TierHard
	TierGood
	TierEasy
	TierPerfect

	NumTiers = 5
)

var tierNames = [NumTiers]string{"again", "hard", "good", "easy", "perfect"}

func (t Tier) String() string {
	if t < 0 || int(t) >= NumTiers {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}
