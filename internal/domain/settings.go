package domain

// Settings are the user-tunable study parameters, persisted alongside the
// cards so they survive restarts and config changes.
type Settings struct {
	EasyBonus   float64
	HardPenalty float64
	MaxInterval int
	DailyGoal   int
	SessionSize int
	Fuzz        bool
}

// DefaultSettings mirrors the scheduler defaults plus a 20-card daily goal.
func DefaultSettings() Settings {
	return Settings{
		EasyBonus:   1.3,
		HardPenalty: 0.8,
		MaxInterval: 365,
		DailyGoal:   20,
		SessionSize: 20,
	}
}
