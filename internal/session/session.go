package session

import (
	"sync"
	"time"

	"github.com/emberdate/engine/internal/db"

	"github.com/google/uuid"
)

// State of one discovery session. Transitions are driven solely by the
// Controller; nothing here is persisted.
type State int

const (
	// StateIdle: the queue is drained, nothing to present.
	StateIdle State = iota
	// StatePresenting: a candidate is on screen awaiting a decision.
	StatePresenting
	// StateSwiping: a swipe is in flight; further swipes are dropped.
	StateSwiping
	// StateMatchModal: a match notification is on screen.
	StateMatchModal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePresenting:
		return "presenting"
	case StateSwiping:
		return "swiping"
	case StateMatchModal:
		return "match_modal"
	default:
		return "unknown"
	}
}

// Candidate is the profile projection a session presents.
type Candidate struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	Age       int    `json:"age"`
	PhotoURL  string `json:"photo_url"`
	Bio       string `json:"bio"`
	Interests string `json:"interests"`
}

func candidateFromUser(u db.User, now time.Time) Candidate {
	return Candidate{
		ID:        u.ID,
		FirstName: u.FirstName,
		Age:       u.Age(now),
		PhotoURL:  u.PhotoURL,
		Bio:       u.Bio,
		Interests: u.Interests,
	}
}

// Session holds one user's ephemeral discovery state: the candidate queue
// computed at entry, an advancing position into it, and the UI flags.
// All access goes through the Controller, which serializes with mu.
type Session struct {
	ID     string
	UserID uint64

	mu             sync.Mutex
	state          State
	queue          []Candidate
	pos            int
	match          *Candidate
	detailExpanded bool
	startedAt      time.Time
}

func newSession(userID uint64, queue []Candidate) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		queue:     queue,
		startedAt: time.Now(),
	}
	if len(queue) > 0 {
		s.state = StatePresenting
	} else {
		s.state = StateIdle
	}
	return s
}

// currentLocked returns the candidate at the head of the queue, if any.
// Caller holds mu.
func (s *Session) currentLocked() *Candidate {
	if s.pos < len(s.queue) {
		c := s.queue[s.pos]
		return &c
	}
	return nil
}

// advanceLocked drops exactly one element from the front and resets the
// expanded-details flag. Caller holds mu.
func (s *Session) advanceLocked() {
	s.pos++
	s.detailExpanded = false
	if s.pos < len(s.queue) {
		s.state = StatePresenting
	} else {
		s.state = StateIdle
	}
}

// Snapshot is the render-facing view of a session.
type Snapshot struct {
	SessionID         string     `json:"session_id"`
	State             string     `json:"state"`
	CurrentCandidate  *Candidate `json:"current_candidate,omitempty"`
	SwipePending      bool       `json:"swipe_pending"`
	MatchNotification *Candidate `json:"match_notification,omitempty"`
	DetailExpanded    bool       `json:"detail_expanded"`
	Remaining         int        `json:"remaining"`
}

// snapshotLocked builds the view. Caller holds mu.
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:      s.ID,
		State:          s.state.String(),
		SwipePending:   s.state == StateSwiping,
		DetailExpanded: s.detailExpanded,
		Remaining:      len(s.queue) - s.pos,
	}
	if snap.Remaining < 0 {
		snap.Remaining = 0
	}
	if s.state == StatePresenting || s.state == StateSwiping {
		snap.CurrentCandidate = s.currentLocked()
	}
	if s.state == StateMatchModal {
		snap.MatchNotification = s.match
	}
	return snap
}

// Snapshot returns a consistent view of the session for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}
