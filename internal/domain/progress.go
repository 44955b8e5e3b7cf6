package domain

import "time"

// DayStat aggregates one calendar day of study activity.
type DayStat struct {
	Date         time.Time // midnight-aligned, local
	Count        int
	CorrectCount int
	TimeSpent    int // seconds
}

// Progress is the single per-user aggregate of study history.
type Progress struct {
	LastStudyDate        time.Time
	CurrentStreak        int
	UnlockedAchievements []string
	TotalReviews         int
	ReviewsToday         int
	History              []DayStat // ordered by date, capped to a rolling year
}

// Unlocked reports whether the achievement with the given id has fired.
func (p Progress) Unlocked(id string) bool {
	for _, a := range p.UnlockedAchievements {
		if a == id {
			return true
		}
	}
	return false
}

// Achievement is a one-time unlockable badge.
type Achievement struct {
	ID          string
	Title       string
	Description string
	Icon        string
}

// DeckStats summarizes the card collection for dashboard display.
type DeckStats struct {
	Total    int
	Due      int
	New      int
	Mastered int
	Streak   int
	XP       int
}
