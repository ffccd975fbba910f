package repository

import (
	"context"

	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRepository stores one row per mutually-liked pair.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// canonicalPair orders the two ids smaller-first so both directions of a
// mutual like map onto the same row.
func canonicalPair(a, b uint64) (uint64, uint64) {
	if b < a {
		return b, a
	}
	return a, b
}

// Create inserts the match row for the unordered pair {a, b}.
//
// Behavior:
//   - Pair is canonicalized before insert.
//   - If the row already exists → ErrAlreadyExists. When two sides of a
//     mutual like race to create the match, the loser observes this and
//     treats it as success (idempotent outcome, no user-visible error).
func (r *MatchRepository) Create(
	ctx context.Context,
	userA, userB uint64,
) (*db.Match, error) {
	a, b := canonicalPair(userA, userB)
	match := db.Match{UserAID: a, UserBID: b}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return nil, svcErr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, svcErr.ErrAlreadyExists
	}
	return &match, nil
}

// ForPair returns the match row for the unordered pair, or ErrNotFound.
func (r *MatchRepository) ForPair(
	ctx context.Context,
	userA, userB uint64,
) (*db.Match, error) {
	a, b := canonicalPair(userA, userB)
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", a, b).
		First(&match).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &match, nil
}

// ForUser returns every match the user is part of, newest first.
func (r *MatchRepository) ForUser(
	ctx context.Context,
	userID uint64,
) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return matches, nil
}
