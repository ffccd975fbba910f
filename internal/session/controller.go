package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/matching"
)

// UserSource resolves a validated user identity to a profile.
type UserSource interface {
	Get(ctx context.Context, id uint64) (*db.User, error)
}

// CandidateSource computes the eligible candidates for a requester.
type CandidateSource interface {
	Candidates(ctx context.Context, requesterID uint64) ([]db.User, error)
}

// SwipeEngine records a decision and resolves any resulting match.
type SwipeEngine interface {
	Swipe(ctx context.Context, actorID, targetID uint64, action db.SwipeAction) (*matching.Outcome, error)
}

// Controller sequences a discovery session: it builds the queue at entry,
// forwards swipes to the engine, and drives the per-session state machine.
type Controller struct {
	users      UserSource
	candidates CandidateSource
	engine     SwipeEngine
	log        *slog.Logger
}

// NewController wires a controller from its collaborators.
func NewController(users UserSource, candidates CandidateSource, engine SwipeEngine, log *slog.Logger) *Controller {
	return &Controller{
		users:      users,
		candidates: candidates,
		engine:     engine,
		log:        log,
	}
}

// Begin starts a discovery session for the given (already authenticated)
// user. The candidate queue is computed once, here; it is drained in
// memory as swipes resolve rather than re-queried per swipe.
//
// A requester with an incomplete profile is denied entry.
func (c *Controller) Begin(ctx context.Context, userID uint64) (*Session, error) {
	user, err := c.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.ProfileComplete() {
		return nil, svcErr.Validation("profile", "complete your profile before discovery")
	}

	users, err := c.candidates.Candidates(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	queue := make([]Candidate, 0, len(users))
	for _, u := range users {
		queue = append(queue, candidateFromUser(u, now))
	}

	s := newSession(userID, queue)
	c.log.Info("session started", "session", s.ID, "user", userID, "candidates", len(queue))
	return s, nil
}

// SubmitSwipe resolves a decision on the current candidate.
//
// Guard: only a Presenting session accepts a swipe. A request arriving
// while one is already in flight, while the match modal is up, or with an
// empty queue is dropped: the current snapshot is returned and no store
// call is made.
//
// Resolution:
//   - success + mutual like → queue advances, match modal is raised
//   - success without match, or pass → queue advances
//   - conflict (pair already decided) or vanished target → queue advances,
//     non-fatal
//   - store failure → session returns to Presenting unchanged so the same
//     action can be retried
func (c *Controller) SubmitSwipe(ctx context.Context, s *Session, action db.SwipeAction) (Snapshot, error) {
	s.mu.Lock()
	if s.state != StatePresenting {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		c.log.Debug("swipe dropped", "session", s.ID, "state", snap.State)
		return snap, nil
	}
	cand := *s.currentLocked()
	s.state = StateSwiping
	s.mu.Unlock()

	// lock released while the store round-trip runs so concurrent
	// double-submissions observe StateSwiping and fall into the guard
	out, err := c.engine.Swipe(ctx, s.UserID, cand.ID, action)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err == nil:
		s.advanceLocked()
		if out.Mutual {
			matched := cand
			s.match = &matched
			s.state = StateMatchModal
		}

	case errors.Is(err, svcErr.ErrConflict), errors.Is(err, svcErr.ErrNotFound):
		// already decided elsewhere, or the profile is gone: skip it
		c.log.Debug("candidate skipped", "session", s.ID, "candidate", cand.ID, "reason", err)
		s.advanceLocked()

	default:
		// failed swipe leaves the session exactly where it was
		s.state = StatePresenting
		return s.snapshotLocked(), err
	}

	return s.snapshotLocked(), nil
}

// DismissMatch closes the match notification and resumes presenting the
// head of the queue, which already advanced when the match was made.
func (c *Controller) DismissMatch(s *Session) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateMatchModal {
		s.match = nil
		if s.pos < len(s.queue) {
			s.state = StatePresenting
		} else {
			s.state = StateIdle
		}
	}
	return s.snapshotLocked()
}

// ToggleDetail flips the expanded-details flag for the current candidate.
// Meaningless without a candidate on screen, so dropped outside Presenting.
func (c *Controller) ToggleDetail(s *Session) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePresenting {
		s.detailExpanded = !s.detailExpanded
	}
	return s.snapshotLocked()
}
