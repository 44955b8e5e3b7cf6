// Package session drives a single review session: it builds a queue of
// cards, applies the scheduler on each rating, re-queues failures for a
// same-session retry and supports stepwise undo of past ratings.
package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/ogunacik/kartbox/internal/domain"
	"github.com/ogunacik/kartbox/internal/srs"
)

// Store is the card persistence the session writes through to.
type Store interface {
	// GetDueCards returns all cards with a due date at or before now,
	// ordered ascending by due date.
	GetDueCards(now time.Time) ([]domain.Card, error)
	// UpdateCard replaces the stored card with the same id. It returns
	// domain.ErrNotFound when the card no longer exists.
	UpdateCard(card domain.Card) error
}

// State of the session lifecycle. Loading only exists while a constructor
// runs; callers observe Active or Complete.
type State int

const (
	Loading State = iota
	Active
	Complete
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Active:
		return "active"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Mode selects between scheduled study and a throwaway self-test.
type Mode int

const (
	// Standard reviews due cards and writes scheduling updates through
	// to the store.
	Standard Mode = iota
	// Cram reviews an explicit card list, keeps a correct/incorrect tally
	// and never touches persisted scheduling state.
	Cram
)

// DefaultLimit caps a standard session's queue to bound its length.
const DefaultLimit = 20

// ErrComplete is returned when an operation needs an active session.
var ErrComplete = errors.New("session already complete")

// historyEntry snapshots one rating so it can be undone. The card is stored
// by value so later queue mutations cannot alias into it.
type historyEntry struct {
	original   domain.Card
	queueIndex int
	requeued   bool
	correct    bool
}

// RateResult reports what a single rating did.
type RateResult struct {
	Requeued     bool // the card failed and went to the back of the queue
	NextInterval int  // days until the card comes back (standard mode)
	Correct      bool
	StoreMiss    bool // the card vanished from the store; session continues
}

// Summary is the session-end report.
type Summary struct {
	Mode      Mode
	Completed int // successfully reviewed (standard)
	Requeued  int // still owed a retry at session end (standard)
	Correct   int // cram tally
	Total     int // cram tally
	Percent   int // cram success percentage, rounded
}

// Options configures session construction.
type Options struct {
	Tags  []string         // standard mode: restrict due cards to these tags
	Limit int              // standard mode queue cap; DefaultLimit when zero
	Srs   srs.Config       // scheduler parameters
	Now   func() time.Time // injected clock
	Rand  *rand.Rand       // cram mode shuffle source; time-seeded when nil
}

// Session is a state machine over an ordered queue of card snapshots.
// It is not safe for concurrent use; the app is single-user and synchronous.
type Session struct {
	mode      Mode
	state     State
	queue     []domain.Card
	cursor    int
	completed int
	correct   int
	total     int
	history   []historyEntry

	store Store
	cfg   srs.Config
	now   func() time.Time
}

// NewStandard builds a session over the currently due cards, optionally
// filtered by tag, oldest due first, capped at opts.Limit. An empty queue
// yields a session that is already Complete; that is not an error.
func NewStandard(store Store, opts Options) (*Session, error) {
	s := newSession(Standard, store, opts)

	due, err := store.GetDueCards(s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load due cards: %w", err)
	}
	if len(opts.Tags) > 0 {
		allowed := make(map[string]bool, len(opts.Tags))
		for _, t := range opts.Tags {
			allowed[t] = true
		}
		kept := due[:0]
		for _, c := range due {
			if allowed[c.Tag] {
				kept = append(kept, c)
			}
		}
		due = kept
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DueDate.Before(due[j].DueDate)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(due) > limit {
		due = due[:limit]
	}

	s.queue = append(s.queue, due...)
	s.start()
	return s, nil
}

// NewCram builds a shuffled session over an explicit card list. Ratings in
// cram mode only feed the tally; nothing is written to the store.
func NewCram(store Store, cards []domain.Card, opts Options) *Session {
	s := newSession(Cram, store, opts)

	s.queue = append(s.queue, cards...)
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(s.now().UnixNano()))
	}
	rnd.Shuffle(len(s.queue), func(i, j int) {
		s.queue[i], s.queue[j] = s.queue[j], s.queue[i]
	})
	s.start()
	return s
}

func newSession(mode Mode, store Store, opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		mode:  mode,
		state: Loading,
		store: store,
		cfg:   opts.Srs,
		now:   now,
	}
}

func (s *Session) start() {
	if len(s.queue) == 0 {
		s.state = Complete
		return
	}
	s.state = Active
}

// Mode returns the session mode.
func (s *Session) Mode() Mode { return s.mode }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Remaining returns how many cards are left including the current one.
func (s *Session) Remaining() int {
	if s.state != Active {
		return 0
	}
	return len(s.queue) - s.cursor
}

// Current returns the card under the cursor.
func (s *Session) Current() (domain.Card, bool) {
	if s.state != Active || s.cursor >= len(s.queue) {
		return domain.Card{}, false
	}
	return s.queue[s.cursor], true
}

// Rate applies a rating to the current card and advances the cursor,
// completing the session when the queue is exhausted. In standard mode the
// scheduler runs and the updated card is written through; a failed card is
// re-queued at the back with an immediate due date. A card missing from the
// store is a soft miss: the in-memory queue proceeds and the result flags it.
func (s *Session) Rate(rating domain.Rating) (RateResult, error) {
	if s.state != Active {
		return RateResult{}, ErrComplete
	}
	if !rating.Valid() {
		return RateResult{}, fmt.Errorf("%w: %d", srs.ErrInvalidRating, rating)
	}

	card := s.queue[s.cursor]
	correct := rating != domain.Again
	res := RateResult{Correct: correct}

	entry := historyEntry{
		original:   card,
		queueIndex: s.cursor,
		requeued:   rating == domain.Again && s.mode == Standard,
		correct:    correct,
	}

	if s.mode == Cram {
		s.total++
		if correct {
			s.correct++
		}
	} else {
		now := s.now()
		updated, err := srs.ProcessReview(card, rating, s.cfg, now)
		if err != nil {
			return RateResult{}, err
		}
		switch err := s.store.UpdateCard(updated); {
		case errors.Is(err, domain.ErrNotFound):
			res.StoreMiss = true
		case err != nil:
			// Hard failure: leave the session untouched so the caller
			// can retry the same card.
			return RateResult{}, fmt.Errorf("failed to persist review: %w", err)
		}

		s.queue[s.cursor] = updated
		res.NextInterval = updated.Interval

		if rating == domain.Again {
			requeued := updated
			requeued.DueDate = now
			s.queue = append(s.queue, requeued)
			res.Requeued = true
		} else {
			s.completed++
		}
	}

	s.history = append(s.history, entry)

	s.cursor++
	if s.cursor >= len(s.queue) {
		s.state = Complete
	}
	return res, nil
}

// Undo reverts the most recent rating: the card snapshot, queue shape,
// cursor, counters and lifecycle state all return to their pre-rating
// values. Repeated calls walk further back, one rating per call. Undo with
// no history is a no-op and reports false.
func (s *Session) Undo() (bool, error) {
	if len(s.history) == 0 {
		return false, nil
	}
	entry := s.history[len(s.history)-1]

	if s.mode == Cram {
		s.total--
		if entry.correct {
			s.correct--
		}
	} else {
		switch err := s.store.UpdateCard(entry.original); {
		case errors.Is(err, domain.ErrNotFound):
			// Card deleted mid-session; revert in memory only.
		case err != nil:
			return false, fmt.Errorf("failed to restore card: %w", err)
		}
		if !entry.requeued {
			s.completed--
		}
	}

	s.queue[entry.queueIndex] = entry.original
	if entry.requeued {
		s.queue = s.queue[:len(s.queue)-1]
	}
	s.cursor = entry.queueIndex
	s.state = Active
	s.history = s.history[:len(s.history)-1]
	return true, nil
}

// CanUndo reports whether any history remains.
func (s *Session) CanUndo() bool { return len(s.history) > 0 }

// EditCurrentCard rewrites the content of the card under the cursor and
// writes it through immediately. Scheduling state and undo history are
// untouched.
func (s *Session) EditCurrentCard(front, back string) error {
	if s.state != Active {
		return ErrComplete
	}
	card := s.queue[s.cursor]
	card.Front = front
	card.Back = back

	switch err := s.store.UpdateCard(card); {
	case errors.Is(err, domain.ErrNotFound):
		// Soft miss, keep the in-memory edit.
	case err != nil:
		return fmt.Errorf("failed to save card edit: %w", err)
	}
	s.queue[s.cursor] = card
	return nil
}

// Summary reports the session outcome. Valid at any point, though normally
// read once the session is Complete.
func (s *Session) Summary() Summary {
	sum := Summary{Mode: s.mode}
	if s.mode == Cram {
		sum.Correct = s.correct
		sum.Total = s.total
		if s.total > 0 {
			sum.Percent = int(float64(s.correct)/float64(s.total)*100 + 0.5)
		}
		return sum
	}
	sum.Completed = s.completed
	sum.Requeued = len(s.queue) - s.completed
	return sum
}
