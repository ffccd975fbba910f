package matching

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/repository"
)

// Service implements swipe resolution: the ledger write, the reverse-like
// check, and match creation. It is the only writer of swipe and match rows.
type Service struct {
	appCtx  *app.AppContext
	swipes  *repository.SwipeRepository
	matches *repository.MatchRepository
	users   *repository.UserRepository
}

// NewService creates a matching service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		swipes:  repository.NewSwipeRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
		users:   repository.NewUserRepository(appCtx.DB),
	}
}

// Outcome is the result of a resolved swipe.
type Outcome struct {
	Swipe  *db.Swipe
	Match  *db.Match
	Mutual bool
}

// Swipe records the actor's decision and resolves any resulting match.
//
// Behavior:
//   - Rejects self-swipes and unknown actions before touching the store.
//   - Appends the swipe; a prior decision on the pair is ErrConflict.
//   - For likes: after the swipe is durably stored, checks whether the
//     target already liked the actor. The happens-before order matters:
//     whichever side writes second is guaranteed to observe the first
//     side's like, so at least one of two racing flows detects the match.
//   - Creates the match row; ErrAlreadyExists from the losing side of the
//     race is folded into success by loading the existing row.
func (s *Service) Swipe(
	ctx context.Context,
	actorID, targetID uint64,
	action db.SwipeAction,
) (*Outcome, error) {
	log := s.appCtx.Logger
	log.Debug("swipe received", "actor", actorID, "target", targetID, "action", action)

	if actorID == targetID {
		return nil, svcErr.Validation("target_id", "cannot swipe on yourself")
	}
	if !action.Valid() {
		return nil, svcErr.Validation("action", "must be like or pass")
	}

	// target must still exist; a vanished profile aborts this step and the
	// caller skips the candidate
	if _, err := s.users.Get(ctx, targetID); err != nil {
		return nil, err
	}

	swipe, err := s.swipes.Create(ctx, actorID, targetID, action)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Swipe: swipe}
	if action != db.ActionLike {
		return out, nil
	}

	// keep the target's admirer counter warm; best effort
	_ = s.appCtx.RedisCache.BumpAdmirerCount(ctx, targetID)

	mutual, err := s.swipes.HasLiked(ctx, targetID, actorID)
	if err != nil {
		log.Error("reverse-like check failed", "actor", actorID, "target", targetID, "err", err)
		return nil, err
	}
	if !mutual {
		return out, nil
	}

	match, err := s.matches.Create(ctx, actorID, targetID)
	if errors.Is(err, svcErr.ErrAlreadyExists) {
		// the other side won the race; same outcome
		match, err = s.matches.ForPair(ctx, actorID, targetID)
	}
	if err != nil {
		return nil, err
	}

	log.Info("match created", "user_a", match.UserAID, "user_b", match.UserBID)
	out.Match = match
	out.Mutual = true
	return out, nil
}

// Admirer is one entry of the "who liked me" listing.
type Admirer struct {
	UserID    string `json:"user_id"`
	Timestamp uint64 `json:"unix_timestamp"`
}

// ListAdmirers returns users who liked the target, newest first, with
// cursor pagination. Actors the target passed are excluded.
func (s *Service) ListAdmirers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]Admirer, *string, error) {
	swipes, nextToken, err := s.swipes.Admirers(ctx, targetID, paginationToken, limit)
	if err != nil {
		return nil, nil, err
	}

	admirers := make([]Admirer, 0, len(swipes))
	for _, sw := range swipes {
		admirers = append(admirers, Admirer{
			UserID:    strconv.FormatUint(sw.ActorID, 10),
			Timestamp: uint64(sw.CreatedAt.UnixMilli()),
		})
	}
	return admirers, nextToken, nil
}

// ListNewAdmirers returns users whose like the target has not answered:
// mutual likes and passed-back actors are excluded. Same ordering and
// cursor pagination as ListAdmirers.
func (s *Service) ListNewAdmirers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]Admirer, *string, error) {
	swipes, nextToken, err := s.swipes.NewAdmirers(ctx, targetID, paginationToken, limit)
	if err != nil {
		return nil, nil, err
	}

	admirers := make([]Admirer, 0, len(swipes))
	for _, sw := range swipes {
		admirers = append(admirers, Admirer{
			UserID:    strconv.FormatUint(sw.ActorID, 10),
			Timestamp: uint64(sw.CreatedAt.UnixMilli()),
		})
	}
	return admirers, nextToken, nil
}

// CountAdmirers returns how many users liked the target.
// Cache-first strategy:
//  1. Attempts to read from Redis (admirers:count:userID).
//  2. On cache miss, falls back to the DB count.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountAdmirers(ctx context.Context, targetID uint64) (int64, error) {
	if n, ok, err := s.appCtx.RedisCache.GetAdmirerCount(ctx, targetID); err == nil && ok {
		return n, nil
	}

	count, err := s.swipes.CountAdmirers(ctx, targetID)
	if err != nil {
		return 0, err
	}

	_ = s.appCtx.RedisCache.UpdateAdmirerCount(ctx, targetID, count)
	return count, nil
}

// MatchView is a match projected for one side of the pair.
type MatchView struct {
	MatchedUserID string    `json:"matched_user_id"`
	FirstName     string    `json:"first_name"`
	PhotoURL      string    `json:"photo_url"`
	MatchedAt     time.Time `json:"matched_at"`
}

// ListMatches returns the user's matches, newest first, each projected
// onto the other member of the pair.
func (s *Service) ListMatches(ctx context.Context, userID uint64) ([]MatchView, error) {
	matches, err := s.matches.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	otherIDs := make([]uint64, 0, len(matches))
	for _, m := range matches {
		if other, ok := m.OtherUserID(userID); ok {
			otherIDs = append(otherIDs, other)
		}
	}
	profiles, err := s.users.GetMany(ctx, otherIDs)
	if err != nil {
		return nil, err
	}

	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		other, ok := m.OtherUserID(userID)
		if !ok {
			continue
		}
		view := MatchView{
			MatchedUserID: strconv.FormatUint(other, 10),
			MatchedAt:     m.CreatedAt,
		}
		if p, ok := profiles[other]; ok {
			view.FirstName = p.FirstName
			view.PhotoURL = p.PhotoURL
		}
		views = append(views, view)
	}
	return views, nil
}
