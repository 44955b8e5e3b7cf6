// Package progress maintains the per-user study aggregate: streak, daily
// counters, a rolling year of per-day history and one-shot achievements.
package progress

import (
	"fmt"
	"time"

	"github.com/ogunacik/kartbox/internal/domain"
)

// historyWindow caps the per-day history to a rolling year.
const historyWindow = 365

// Store persists the singleton progress aggregate.
type Store interface {
	GetProgress() (domain.Progress, error)
	SaveProgress(domain.Progress) error
}

// StatsProvider supplies the card-collection counters some achievement
// predicates look at.
type StatsProvider interface {
	DeckStats(now time.Time) (domain.DeckStats, error)
	CountPacks() (int, error)
}

// Result is what a tracked review reports back.
type Result struct {
	// Achievement is non-nil when this review newly unlocked one.
	Achievement  *domain.Achievement
	ReviewsToday int
	Streak       int
}

// Tracker consumes review events and updates the progress aggregate.
type Tracker struct {
	store Store
	stats StatsProvider
	now   func() time.Time
}

// NewTracker builds a tracker with an injected clock.
func NewTracker(store Store, stats StatsProvider, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: store, stats: stats, now: now}
}

// Track records one review: it advances the streak, bumps today's counters
// and history entry, evaluates the achievement table and persists the
// updated aggregate. Each achievement fires at most once across the
// lifetime of the aggregate.
func (t *Tracker) Track(rating domain.Rating, duration time.Duration) (Result, error) {
	now := t.now()

	p, err := t.store.GetProgress()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load progress: %w", err)
	}

	today := midnight(now)
	switch {
	case p.LastStudyDate.IsZero():
		p.CurrentStreak = 1
		p.ReviewsToday = 0
	case midnight(p.LastStudyDate).Equal(today):
		// Same calendar day, streak unchanged.
	case midnight(p.LastStudyDate).AddDate(0, 0, 1).Equal(today):
		p.CurrentStreak++
		p.ReviewsToday = 0
	default:
		p.CurrentStreak = 1
		p.ReviewsToday = 0
	}
	p.LastStudyDate = now
	p.TotalReviews++
	p.ReviewsToday++

	correct := 0
	if rating != domain.Again {
		correct = 1
	}
	p.History = appendDay(p.History, today, correct, int(duration.Seconds()))

	res := Result{ReviewsToday: p.ReviewsToday, Streak: p.CurrentStreak}
	if ach := t.evaluate(&p, now); ach != nil {
		res.Achievement = ach
	}

	if err := t.store.SaveProgress(p); err != nil {
		return Result{}, fmt.Errorf("failed to save progress: %w", err)
	}
	return res, nil
}

// appendDay folds one review into the ordered per-day history, trimming the
// window from the front once it exceeds a year.
func appendDay(history []domain.DayStat, day time.Time, correct, seconds int) []domain.DayStat {
	if n := len(history); n > 0 && history[n-1].Date.Equal(day) {
		history[n-1].Count++
		history[n-1].CorrectCount += correct
		history[n-1].TimeSpent += seconds
		return history
	}
	history = append(history, domain.DayStat{
		Date:         day,
		Count:        1,
		CorrectCount: correct,
		TimeSpent:    seconds,
	})
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	return history
}

// Retention returns the fraction of correct reviews across the stored
// history window, or zero when nothing has been reviewed.
func Retention(history []domain.DayStat) float64 {
	var total, correct int
	for _, d := range history {
		total += d.Count
		correct += d.CorrectCount
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
