package web

import (
	"math/rand"
	"time"

	"github.com/ogunacik/kartbox/internal/domain"
	"github.com/ogunacik/kartbox/internal/session"
)

// Wire types. Timestamps travel as epoch milliseconds.

type cardJSON struct {
	ID         string  `json:"id"`
	Front      string  `json:"front"`
	Back       string  `json:"back"`
	Tag        string  `json:"tag"`
	CreatedAt  int64   `json:"createdAt"`
	Status     string  `json:"status"`
	DueDate    int64   `json:"dueDate"`
	Interval   int     `json:"interval"`
	EaseFactor float64 `json:"easeFactor"`
	Reps       int     `json:"reps"`
}

func toCardJSON(c domain.Card) cardJSON {
	return cardJSON{
		ID:         c.ID,
		Front:      c.Front,
		Back:       c.Back,
		Tag:        c.Tag,
		CreatedAt:  c.CreatedAt.UnixMilli(),
		Status:     string(c.Status),
		DueDate:    c.DueDate.UnixMilli(),
		Interval:   c.Interval,
		EaseFactor: c.EaseFactor,
		Reps:       c.Reps,
	}
}

type packJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

func toPackJSON(p domain.Pack) packJSON {
	return packJSON{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt.UnixMilli()}
}

type settingsJSON struct {
	EasyBonus   float64 `json:"easyBonus" validate:"gte=1"`
	HardPenalty float64 `json:"hardPenalty" validate:"gt=0,lte=1"`
	MaxInterval int     `json:"maxInterval" validate:"gte=1"`
	DailyGoal   int     `json:"dailyGoal" validate:"gte=1"`
	SessionSize int     `json:"sessionSize" validate:"gte=1"`
	Fuzz        bool    `json:"fuzz"`
}

func toSettingsJSON(s domain.Settings) settingsJSON {
	return settingsJSON{
		EasyBonus:   s.EasyBonus,
		HardPenalty: s.HardPenalty,
		MaxInterval: s.MaxInterval,
		DailyGoal:   s.DailyGoal,
		SessionSize: s.SessionSize,
		Fuzz:        s.Fuzz,
	}
}

func (s settingsJSON) toDomain() domain.Settings {
	return domain.Settings{
		EasyBonus:   s.EasyBonus,
		HardPenalty: s.HardPenalty,
		MaxInterval: s.MaxInterval,
		DailyGoal:   s.DailyGoal,
		SessionSize: s.SessionSize,
		Fuzz:        s.Fuzz,
	}
}

type achievementJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func toAchievementJSON(a domain.Achievement) *achievementJSON {
	return &achievementJSON{ID: a.ID, Title: a.Title, Description: a.Description, Icon: a.Icon}
}

type rateJSON struct {
	Requeued     bool             `json:"requeued"`
	NextInterval int              `json:"nextInterval"`
	Correct      bool             `json:"correct"`
	StoreMiss    bool             `json:"storeMiss"`
	ReviewsToday int              `json:"reviewsToday"`
	Streak       int              `json:"streak"`
	GoalReached  bool             `json:"goalReached"`
	Achievement  *achievementJSON `json:"achievement,omitempty"`
}

type summaryJSON struct {
	Completed int `json:"completed"`
	Requeued  int `json:"requeued"`
	Correct   int `json:"correct"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

type sessionJSON struct {
	Mode      string       `json:"mode"`
	State     string       `json:"state"`
	Remaining int          `json:"remaining"`
	CanUndo   bool         `json:"canUndo"`
	Current   *cardJSON    `json:"current,omitempty"`
	Summary   *summaryJSON `json:"summary,omitempty"`
	Rate      *rateJSON    `json:"rate,omitempty"`
	Undone    *bool        `json:"undone,omitempty"`
}

// sessionState renders the active session for the client. The summary only
// appears once the queue is exhausted.
func (s *Server) sessionState() sessionJSON {
	sess := s.session
	out := sessionJSON{
		Mode:      modeString(sess.Mode()),
		State:     sess.State().String(),
		Remaining: sess.Remaining(),
		CanUndo:   sess.CanUndo(),
	}
	if card, ok := sess.Current(); ok {
		c := toCardJSON(card)
		out.Current = &c
	}
	if sess.State() == session.Complete {
		sum := sess.Summary()
		out.Summary = &summaryJSON{
			Completed: sum.Completed,
			Requeued:  sum.Requeued,
			Correct:   sum.Correct,
			Total:     sum.Total,
			Percent:   sum.Percent,
		}
	}
	return out
}

func modeString(m session.Mode) string {
	if m == session.Cram {
		return "cram"
	}
	return "standard"
}

func newFuzzRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
