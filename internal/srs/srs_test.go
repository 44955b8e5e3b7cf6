package srs

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/ogunacik/kartbox/internal/domain"
)

var testNow = time.Date(2024, 3, 15, 20, 30, 0, 0, time.UTC)

func newTestCard() domain.Card {
	return domain.Card{
		ID:         "card-1",
		Front:      "Q",
		Back:       "A",
		Tag:        "history",
		CreatedAt:  testNow,
		Status:     domain.StatusNew,
		DueDate:    testNow,
		Interval:   0,
		EaseFactor: 2.5,
		Reps:       0,
	}
}

func TestNewCard(t *testing.T) {
	card, err := NewCard("front", "back", "geo", testNow)
	if err != nil {
		t.Fatalf("NewCard failed: %v", err)
	}
	if card.ID == "" {
		t.Error("expected a generated id")
	}
	if card.Status != domain.StatusNew {
		t.Errorf("expected status NEW, got %s", card.Status)
	}
	if card.Interval != 0 || card.Reps != 0 {
		t.Errorf("expected interval=0 reps=0, got %d/%d", card.Interval, card.Reps)
	}
	if card.EaseFactor != 2.5 {
		t.Errorf("expected ease factor 2.5, got %v", card.EaseFactor)
	}
	if !card.DueDate.Equal(testNow) {
		t.Errorf("expected card due immediately, got %v", card.DueDate)
	}
}

func TestProcessReviewInvalidRating(t *testing.T) {
	for _, rating := range []domain.Rating{0, 5, -1} {
		_, err := ProcessReview(newTestCard(), rating, DefaultConfig(), testNow)
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}

func TestProcessReviewFirstSuccess(t *testing.T) {
	card := newTestCard()
	got, err := ProcessReview(card, domain.Good, DefaultConfig(), testNow)
	if err != nil {
		t.Fatalf("ProcessReview failed: %v", err)
	}
	if got.Interval != 1 {
		t.Errorf("expected interval 1, got %d", got.Interval)
	}
	if got.Status != domain.StatusLearning {
		t.Errorf("expected status LEARNING, got %s", got.Status)
	}
	if got.Reps != 1 {
		t.Errorf("expected reps 1, got %d", got.Reps)
	}
	if got.EaseFactor != 2.5 {
		t.Errorf("Good must not move the ease factor, got %v", got.EaseFactor)
	}
	// Tomorrow at the 04:00 rollover, not a rolling 24 hours.
	wantDue := time.Date(2024, 3, 16, 4, 0, 0, 0, time.UTC)
	if !got.DueDate.Equal(wantDue) {
		t.Errorf("expected due %v, got %v", wantDue, got.DueDate)
	}
}

func TestProcessReviewSecondSuccess(t *testing.T) {
	card := newTestCard()
	card.Interval = 1
	card.Reps = 1
	card.Status = domain.StatusLearning

	got, err := ProcessReview(card, domain.Good, DefaultConfig(), testNow)
	if err != nil {
		t.Fatalf("ProcessReview failed: %v", err)
	}
	if got.Interval != 6 {
		t.Errorf("expected interval 6, got %d", got.Interval)
	}
	if got.Status != domain.StatusReview {
		t.Errorf("expected status REVIEW, got %s", got.Status)
	}
	if got.Reps != 2 {
		t.Errorf("expected reps 2, got %d", got.Reps)
	}
}

func TestProcessReviewFailureResets(t *testing.T) {
	card := newTestCard()
	card.Interval = 6
	card.Reps = 2
	card.Status = domain.StatusReview

	got, err := ProcessReview(card, domain.Again, DefaultConfig(), testNow)
	if err != nil {
		t.Fatalf("ProcessReview failed: %v", err)
	}
	if got.Interval != 0 {
		t.Errorf("expected interval 0, got %d", got.Interval)
	}
	if got.Reps != 0 {
		t.Errorf("expected reps 0, got %d", got.Reps)
	}
	if got.Status != domain.StatusLearning {
		t.Errorf("expected status LEARNING, got %s", got.Status)
	}
	if !got.DueDate.Equal(testNow) {
		t.Errorf("failed card must be due immediately, got %v", got.DueDate)
	}
	// 2.5 - 0.2
	if got.EaseFactor != 2.3 {
		t.Errorf("expected ease factor 2.3, got %v", got.EaseFactor)
	}
}

func TestProcessReviewGeometricGrowth(t *testing.T) {
	base := newTestCard()
	base.Interval = 10
	base.Reps = 3
	base.EaseFactor = 2.5
	base.Status = domain.StatusReview

	t.Run("Easy graduates past the threshold", func(t *testing.T) {
		got, err := ProcessReview(base, domain.Easy, DefaultConfig(), testNow)
		if err != nil {
			t.Fatalf("ProcessReview failed: %v", err)
		}
		// ceil(10 * 2.5 * 1.3) = 33, within the 365 cap
		if got.Interval != 33 {
			t.Errorf("expected interval 33, got %d", got.Interval)
		}
		if got.Status != domain.StatusGraduated {
			t.Errorf("interval 33 > 21 must graduate, got %s", got.Status)
		}
		if got.EaseFactor != 2.65 {
			t.Errorf("expected ease factor 2.65, got %v", got.EaseFactor)
		}
	})

	t.Run("Good uses the plain ease multiple", func(t *testing.T) {
		got, err := ProcessReview(base, domain.Good, DefaultConfig(), testNow)
		if err != nil {
			t.Fatalf("ProcessReview failed: %v", err)
		}
		// ceil(10 * 2.5) = 25
		if got.Interval != 25 {
			t.Errorf("expected interval 25, got %d", got.Interval)
		}
		if got.EaseFactor != 2.5 {
			t.Errorf("Good must not move the ease factor, got %v", got.EaseFactor)
		}
	})

	t.Run("Hard slows growth without shrinking it", func(t *testing.T) {
		got, err := ProcessReview(base, domain.Hard, DefaultConfig(), testNow)
		if err != nil {
			t.Fatalf("ProcessReview failed: %v", err)
		}
		// ceil(10 * 2.5 * 0.8) = 20
		if got.Interval != 20 {
			t.Errorf("expected interval 20, got %d", got.Interval)
		}
		if got.Interval < base.Interval {
			t.Errorf("Hard must not reduce the interval: %d < %d", got.Interval, base.Interval)
		}
		if got.Status != domain.StatusReview {
			t.Errorf("interval 20 <= 21 must not graduate, got %s", got.Status)
		}
		if got.EaseFactor != 2.35 {
			t.Errorf("expected ease factor 2.35, got %v", got.EaseFactor)
		}
	})
}

func TestProcessReviewMaxIntervalClamp(t *testing.T) {
	card := newTestCard()
	card.Interval = 300
	card.Reps = 8
	card.EaseFactor = 2.5
	card.Status = domain.StatusGraduated

	got, err := ProcessReview(card, domain.Good, DefaultConfig(), testNow)
	if err != nil {
		t.Fatalf("ProcessReview failed: %v", err)
	}
	if got.Interval != 365 {
		t.Errorf("expected interval clamped to 365, got %d", got.Interval)
	}
	if got.Status != domain.StatusGraduated {
		t.Errorf("expected status GRADUATED, got %s", got.Status)
	}
}

func TestProcessReviewClampBeforeGraduationCheck(t *testing.T) {
	// With a cap below the graduation threshold a card can never graduate.
	cfg := DefaultConfig()
	cfg.MaxInterval = 15

	card := newTestCard()
	card.Interval = 10
	card.Reps = 3
	card.Status = domain.StatusReview

	got, err := ProcessReview(card, domain.Easy, cfg, testNow)
	if err != nil {
		t.Fatalf("ProcessReview failed: %v", err)
	}
	if got.Interval != 15 {
		t.Errorf("expected interval clamped to 15, got %d", got.Interval)
	}
	if got.Status != domain.StatusReview {
		t.Errorf("clamped interval 15 must not graduate, got %s", got.Status)
	}
}

func TestEaseFactorFloor(t *testing.T) {
	card := newTestCard()
	card.EaseFactor = 1.3
	card.Interval = 6
	card.Reps = 2
	card.Status = domain.StatusReview

	// A floored card rated Hard or Again stays at the floor without error.
	ratings := []domain.Rating{domain.Hard, domain.Again, domain.Again, domain.Hard}
	for _, rating := range ratings {
		var err error
		card, err = ProcessReview(card, rating, DefaultConfig(), testNow)
		if err != nil {
			t.Fatalf("ProcessReview(%s) failed: %v", rating, err)
		}
		if card.EaseFactor < 1.3 {
			t.Fatalf("ease factor fell below the floor: %v", card.EaseFactor)
		}
	}
	if card.EaseFactor != 1.3 {
		t.Errorf("expected ease factor pinned at 1.3, got %v", card.EaseFactor)
	}
}

func TestEaseFloorHoldsOverRandomSequences(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	cfg := DefaultConfig()

	card := newTestCard()
	now := testNow
	for i := 0; i < 500; i++ {
		rating := domain.Rating(r.Intn(4) + 1)
		var err error
		card, err = ProcessReview(card, rating, cfg, now)
		if err != nil {
			t.Fatalf("step %d: ProcessReview failed: %v", i, err)
		}
		if card.EaseFactor < 1.3 {
			t.Fatalf("step %d: ease factor %v below floor", i, card.EaseFactor)
		}
		if card.Interval < 0 {
			t.Fatalf("step %d: negative interval %d", i, card.Interval)
		}
		if card.Interval > cfg.MaxInterval {
			t.Fatalf("step %d: interval %d above cap", i, card.Interval)
		}
		if (card.Status == domain.StatusGraduated) != (card.Interval > 21) {
			t.Fatalf("step %d: status %s inconsistent with interval %d", i, card.Status, card.Interval)
		}
		now = card.DueDate
	}
}

func TestFuzz(t *testing.T) {
	t.Run("short intervals are never fuzzed", func(t *testing.T) {
		r := rand.New(rand.NewSource(1))
		for i := 0; i < 50; i++ {
			if got := fuzz(2, r); got != 2 {
				t.Fatalf("expected 2, got %d", got)
			}
		}
	})

	t.Run("stays within five percent", func(t *testing.T) {
		r := rand.New(rand.NewSource(1))
		for i := 0; i < 200; i++ {
			got := fuzz(100, r)
			if got < 95 || got > 105 {
				t.Fatalf("fuzz(100) = %d, outside ±5%%", got)
			}
		}
	})

	t.Run("off by default", func(t *testing.T) {
		card := newTestCard()
		card.Interval = 10
		card.Reps = 3

		first, err := ProcessReview(card, domain.Good, DefaultConfig(), testNow)
		if err != nil {
			t.Fatalf("ProcessReview failed: %v", err)
		}
		for i := 0; i < 10; i++ {
			again, err := ProcessReview(card, domain.Good, DefaultConfig(), testNow)
			if err != nil {
				t.Fatalf("ProcessReview failed: %v", err)
			}
			if again.Interval != first.Interval {
				t.Fatalf("expected deterministic interval, got %d then %d", first.Interval, again.Interval)
			}
		}
	})
}

func TestDueDateRollover(t *testing.T) {
	// Studying at 02:00 still anchors the next day to 04:00.
	lateNight := time.Date(2024, 3, 16, 2, 0, 0, 0, time.UTC)
	card := newTestCard()

	got, err := ProcessReview(card, domain.Good, DefaultConfig(), lateNight)
	if err != nil {
		t.Fatalf("ProcessReview failed: %v", err)
	}
	wantDue := time.Date(2024, 3, 17, 4, 0, 0, 0, time.UTC)
	if !got.DueDate.Equal(wantDue) {
		t.Errorf("expected due %v, got %v", wantDue, got.DueDate)
	}
}
