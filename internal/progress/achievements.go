package progress

import (
	"log/slog"
	"time"

	"github.com/ogunacik/kartbox/internal/domain"
)

// evalContext carries everything an unlock predicate may look at.
type evalContext struct {
	progress *domain.Progress
	now      time.Time
	mastered int
	library  int
	packs    int
}

type achievementDef struct {
	domain.Achievement
	unlocked func(evalContext) bool
}

// achievementTable is the fixed set of unlockable badges. Order matters:
// the first newly satisfied entry is the one surfaced for this review, so
// milestones are listed before flavor badges.
var achievementTable = []achievementDef{
	{
		Achievement: domain.Achievement{ID: "first_review", Title: "İlk Adım", Description: "Complete your first review", Icon: "🌱"},
		unlocked:    func(c evalContext) bool { return c.progress.TotalReviews >= 1 },
	},
	{
		Achievement: domain.Achievement{ID: "streak_3", Title: "Isınıyorsun", Description: "Study 3 days in a row", Icon: "🔥"},
		unlocked:    func(c evalContext) bool { return c.progress.CurrentStreak >= 3 },
	},
	{
		Achievement: domain.Achievement{ID: "streak_7", Title: "Haftalık Ritim", Description: "Study 7 days in a row", Icon: "📅"},
		unlocked:    func(c evalContext) bool { return c.progress.CurrentStreak >= 7 },
	},
	{
		Achievement: domain.Achievement{ID: "streak_30", Title: "Demir İrade", Description: "Study 30 days in a row", Icon: "🏆"},
		unlocked:    func(c evalContext) bool { return c.progress.CurrentStreak >= 30 },
	},
	{
		Achievement: domain.Achievement{ID: "reviews_100", Title: "Yüzler Kulübü", Description: "Complete 100 reviews", Icon: "💯"},
		unlocked:    func(c evalContext) bool { return c.progress.TotalReviews >= 100 },
	},
	{
		Achievement: domain.Achievement{ID: "reviews_1000", Title: "Bin Tekrar", Description: "Complete 1000 reviews", Icon: "🚀"},
		unlocked:    func(c evalContext) bool { return c.progress.TotalReviews >= 1000 },
	},
	{
		Achievement: domain.Achievement{ID: "mastered_10", Title: "Usta Çırağı", Description: "Graduate 10 cards", Icon: "🎓"},
		unlocked:    func(c evalContext) bool { return c.mastered >= 10 },
	},
	{
		Achievement: domain.Achievement{ID: "library_100", Title: "Koleksiyoncu", Description: "Grow your library to 100 cards", Icon: "📚"},
		unlocked:    func(c evalContext) bool { return c.library >= 100 },
	},
	{
		Achievement: domain.Achievement{ID: "packs_5", Title: "Düzenli Zihin", Description: "Create 5 packs", Icon: "🗂️"},
		unlocked:    func(c evalContext) bool { return c.packs >= 5 },
	},
	{
		Achievement: domain.Achievement{ID: "early_bird", Title: "Erken Kalkan", Description: "Study before 7 AM", Icon: "🌅"},
		unlocked:    func(c evalContext) bool { return c.now.Hour() < 7 },
	},
	{
		Achievement: domain.Achievement{ID: "night_owl", Title: "Gece Kuşu", Description: "Study after 11 PM", Icon: "🦉"},
		unlocked:    func(c evalContext) bool { return c.now.Hour() >= 23 },
	},
	{
		Achievement: domain.Achievement{ID: "weekend_warrior", Title: "Hafta Sonu Savaşçısı", Description: "Study on a weekend", Icon: "⚔️"},
		unlocked: func(c evalContext) bool {
			wd := c.now.Weekday()
			return wd == time.Saturday || wd == time.Sunday
		},
	},
}

// Achievements returns the full badge table for display purposes.
func Achievements() []domain.Achievement {
	out := make([]domain.Achievement, len(achievementTable))
	for i, def := range achievementTable {
		out[i] = def.Achievement
	}
	return out
}

// evaluate runs the table against the updated aggregate and unlocks at most
// one achievement per review, so every badge gets its own notification.
// Already unlocked ids never fire again.
func (t *Tracker) evaluate(p *domain.Progress, now time.Time) *domain.Achievement {
	ctx := evalContext{progress: p, now: now}

	if t.stats != nil {
		stats, err := t.stats.DeckStats(now)
		if err != nil {
			// Collection counters are best-effort; the streak badges
			// still evaluate.
			slog.Warn("failed to load deck stats for achievements", "error", err)
		} else {
			ctx.mastered = stats.Mastered
			ctx.library = stats.Total
		}
		packs, err := t.stats.CountPacks()
		if err != nil {
			slog.Warn("failed to count packs for achievements", "error", err)
		} else {
			ctx.packs = packs
		}
	}

	for _, def := range achievementTable {
		if p.Unlocked(def.ID) {
			continue
		}
		if def.unlocked(ctx) {
			p.UnlockedAchievements = append(p.UnlockedAchievements, def.ID)
			ach := def.Achievement
			return &ach
		}
	}
	return nil
}
