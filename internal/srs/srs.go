package srs

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ogunacik/kartbox/internal/domain"
)

// ErrInvalidRating is returned when a rating outside Again..Easy reaches
// the scheduler. Such a rating never touches persistence.
var ErrInvalidRating = errors.New("invalid rating")

const (
	initialEase   = 2.5
	easeFloor     = 1.3
	easePenalty   = 0.2  // subtracted on failure
	easeStep      = 0.15 // added on Easy, subtracted on Hard
	firstInterval = 1    // days after the first success
	secondInterval = 6   // days after the second consecutive success

	// A card graduates once its interval grows past this many days.
	graduationThreshold = 21

	// Due dates for future days are anchored to 04:00 local time, so a
	// post-midnight session still counts toward the same study day and
	// repeated same-day reviews do not drift the due hour.
	rolloverHour = 4

	// Fuzz is skipped below this interval so short steps stay exact.
	minFuzzInterval = 3
)

// Config holds the tunable scheduler parameters.
//
// When Fuzz is enabled, computed intervals of minFuzzInterval days or more
// receive a random ±5% adjustment to spread cards that would otherwise land
// on the same day. This makes ProcessReview non-deterministic; it is off by
// default and requires an injected Rand so tests can seed it.
type Config struct {
	EasyBonus   float64 // interval multiplier for Easy
	HardPenalty float64 // interval multiplier for Hard
	MaxInterval int     // interval cap in days
	Fuzz        bool
	Rand        *rand.Rand // used only when Fuzz is set
}

// DefaultConfig returns the scheduler defaults.
func DefaultConfig() Config {
	return Config{
		EasyBonus:   1.3,
		HardPenalty: 0.8,
		MaxInterval: 365,
	}
}

// NewCard constructs a fresh card due immediately.
func NewCard(front, back, tag string, now time.Time) (domain.Card, error) {
	id, err := gonanoid.New()
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to generate card id: %w", err)
	}
	return domain.Card{
		ID:         id,
		Front:      front,
		Back:       back,
		Tag:        tag,
		CreatedAt:  now,
		Status:     domain.StatusNew,
		DueDate:    now,
		Interval:   0,
		EaseFactor: initialEase,
		Reps:       0,
	}, nil
}

// ProcessReview applies a rating to a card and returns the updated card with
// its new interval, ease factor, repetition count, status and due date.
// The input card is not modified. The function is pure given its arguments;
// only the opt-in fuzz (cfg.Fuzz) introduces randomness.
func ProcessReview(card domain.Card, rating domain.Rating, cfg Config, now time.Time) (domain.Card, error) {
	if !rating.Valid() {
		return domain.Card{}, fmt.Errorf("%w: %d", ErrInvalidRating, rating)
	}

	next := card

	if rating == domain.Again {
		// Failure: back to square one. The ease penalty marks the card
		// as difficult but is floored so it can still graduate.
		next.Reps = 0
		next.Interval = 0
		next.Status = domain.StatusLearning
		next.EaseFactor = math.Max(easeFloor, card.EaseFactor-easePenalty)
	} else {
		switch {
		case card.Reps == 0:
			// First success, including right after a failure.
			next.Interval = firstInterval
			next.Status = domain.StatusLearning
		case card.Reps == 1:
			next.Interval = secondInterval
			next.Status = domain.StatusReview
		default:
			modifier := 1.0
			switch rating {
			case domain.Hard:
				modifier = cfg.HardPenalty
			case domain.Easy:
				modifier = cfg.EasyBonus
			}
			next.Interval = int(math.Ceil(float64(card.Interval) * card.EaseFactor * modifier))
			if cfg.Fuzz && cfg.Rand != nil {
				next.Interval = fuzz(next.Interval, cfg.Rand)
			}
		}

		next.Reps = card.Reps + 1

		// Only the Easy/Hard extremes move the ease factor; Good leaves
		// it untouched so drift comes from deliberate signals.
		switch rating {
		case domain.Easy:
			next.EaseFactor = card.EaseFactor + easeStep
		case domain.Hard:
			next.EaseFactor = card.EaseFactor - easeStep
		}
		if next.EaseFactor < easeFloor {
			next.EaseFactor = easeFloor
		}

		if next.Interval > cfg.MaxInterval {
			next.Interval = cfg.MaxInterval
		}
		// Status check runs after clamping.
		if next.Interval > graduationThreshold {
			next.Status = domain.StatusGraduated
		}
	}

	next.DueDate = nextDueDate(next.Interval, now)
	return next, nil
}

// fuzz applies a ±5% adjustment to intervals of minFuzzInterval days or more.
func fuzz(interval int, r *rand.Rand) int {
	if interval < minFuzzInterval {
		return interval
	}
	factor := 0.95 + r.Float64()*0.1
	return int(math.Round(float64(interval) * factor))
}

// nextDueDate schedules interval days out, normalized to the rollover hour
// of that calendar day. A zero interval keeps the card due right now so it
// reappears in the current queue.
func nextDueDate(interval int, now time.Time) time.Time {
	if interval <= 0 {
		return now
	}
	d := now.AddDate(0, 0, interval)
	return time.Date(d.Year(), d.Month(), d.Day(), rolloverHour, 0, 0, 0, d.Location())
}
