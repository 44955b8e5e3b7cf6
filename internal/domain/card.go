package domain

import "time"

// Status is the coarse lifecycle stage of a card. It is derived from the
// card's interval and repetition count, never set directly.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusLearning  Status = "LEARNING"
	StatusReview    Status = "REVIEW"
	StatusGraduated Status = "GRADUATED"
)

// Rating is the user's self-assessed recall quality at review time.
// 1: Again (forgot)
// 2: Hard (recalled with effort)
// 3: Good (recalled correctly)
// 4: Easy (recalled instantly)
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Valid reports whether r is one of the four defined ratings.
func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

func (r Rating) String() string {
	switch r {
	case Again:
		return "again"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	}
	return "invalid"
}

// Card is a single question-answer study unit together with its
// scheduling state.
type Card struct {
	ID        string
	Front     string
	Back      string
	Tag       string
	CreatedAt time.Time

	Status     Status
	DueDate    time.Time
	Interval   int // days until the next review; 0 means due immediately
	EaseFactor float64
	Reps       int // consecutive successful reviews since the last failure
}

// IsDue reports whether the card is eligible for review at the given time.
func (c Card) IsDue(now time.Time) bool {
	return !c.DueDate.After(now)
}

// Pack is a named grouping label for cards. Cards reference a pack loosely
// by matching their Tag to the pack's Name; no foreign key is enforced.
type Pack struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
