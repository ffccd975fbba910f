package repository

import (
	"context"
	"time"

	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultPageSize caps listing queries when callers pass no usable limit.
const defaultPageSize = 20

// SwipeRepository is the durable ledger of like/pass decisions.
// Rows are append-only: a pair is decided once and never rewritten.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Create appends a decision made by actor -> target.
//
// Behavior:
//   - If no row exists for (actor_id, target_id) → inserted, swipe returned.
//   - If the pair was already decided → ErrConflict. The caller treats
//     this as "already decided, move on", not as a failure.
//
// The composite PK makes the insert race-safe: concurrent duplicate
// submissions are rejected by the store, not by application logic.
func (r *SwipeRepository) Create(
	ctx context.Context,
	actorID, targetID uint64,
	action db.SwipeAction,
) (*db.Swipe, error) {
	swipe := db.Swipe{
		ActorID:  actorID,
		TargetID: targetID,
		Action:   action,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(&swipe)
	if res.Error != nil {
		return nil, svcErr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, svcErr.ErrConflict
	}
	return &swipe, nil
}

// HasLiked checks whether an actor has liked a target.
//
// Used for the reverse-like check during match detection; must be called
// only after the caller's own like has been durably recorded.
func (r *SwipeRepository) HasLiked(
	ctx context.Context,
	actorID, targetID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("actor_id = ? AND target_id = ? AND action = ?", actorID, targetID, db.ActionLike).
		Count(&count).Error
	if err != nil {
		return false, svcErr.Map(err)
	}
	return count > 0, nil
}

// Admirers returns users who liked the given target and have not been
// passed back by the target.
//
// Behavior:
//   - Only rows where target_id = X and action = like are returned.
//   - Excludes actors the target explicitly passed.
//   - Ordered by created_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via paginationToken.
func (r *SwipeRepository) Admirers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	if limit <= 0 {
		limit = defaultPageSize
	}

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, svcErr.Validation("pagination_token", err.Error())
	}

	query := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.action = ?", targetID, db.ActionLike).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.target_id = s.actor_id
				  AND s2.action = ?
			)`, targetID, db.ActionPass).
		Order("s.created_at DESC, s.actor_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.ActorID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(s.created_at < ? OR (s.created_at = ? AND s.actor_id < ?))",
			ts, ts, cursor.ActorID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, svcErr.Map(err)
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ActorID:     last.ActorID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// NewAdmirers returns users who liked the target but have not been liked
// back, i.e. likes still awaiting the target's decision.
//
// Behavior:
//   - Only rows where target_id = X and action = like are considered.
//   - Excludes mutual likes (target already liked them back).
//   - Excludes actors the target explicitly passed.
//   - Ordered by created_at DESC, actor_id DESC.
//   - Supports cursor-based pagination.
func (r *SwipeRepository) NewAdmirers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	if limit <= 0 {
		limit = defaultPageSize
	}

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, svcErr.Validation("pagination_token", err.Error())
	}

	// subquery to exclude mutual likes
	subQuery := r.db.
		Table("swipes").
		Select("1").
		Where("actor_id = s.target_id AND target_id = s.actor_id AND action = ?", db.ActionLike)

	query := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.action = ? AND NOT EXISTS (?)", targetID, db.ActionLike, subQuery).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.target_id = s.actor_id
				  AND s2.action = ?
			)`, targetID, db.ActionPass).
		Order("s.created_at DESC, s.actor_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.ActorID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(s.created_at < ? OR (s.created_at = ? AND s.actor_id < ?))",
			ts, ts, cursor.ActorID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, svcErr.Map(err)
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ActorID:     last.ActorID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// CountAdmirers returns how many users liked the given target, with the
// same pass exclusion as Admirers. Used behind the Redis counter.
func (r *SwipeRepository) CountAdmirers(
	ctx context.Context,
	targetID uint64,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.action = ?", targetID, db.ActionLike).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.target_id = s.actor_id
				  AND s2.action = ?
			)`, targetID, db.ActionPass).
		Count(&count).Error
	if err != nil {
		return 0, svcErr.Map(err)
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
