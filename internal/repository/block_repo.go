package repository

import (
	"context"

	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockRepository stores unidirectional visibility blocks.
type BlockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new repository bound to the given DB connection.
func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Create records blocker -> blocked. Self-blocks are rejected before the
// store is touched; a duplicate block is ErrConflict.
func (r *BlockRepository) Create(
	ctx context.Context,
	blockerID, blockedID uint64,
) (*db.Block, error) {
	if blockerID == blockedID {
		return nil, svcErr.Validation("blocked_id", "cannot block yourself")
	}

	block := db.Block{BlockerID: blockerID, BlockedID: blockedID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoNothing: true,
		}).
		Create(&block)
	if res.Error != nil {
		return nil, svcErr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, svcErr.ErrConflict
	}
	return &block, nil
}

// Delete removes blocker -> blocked if present. Missing rows are ErrNotFound.
func (r *BlockRepository) Delete(
	ctx context.Context,
	blockerID, blockedID uint64,
) error {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&db.Block{})
	if res.Error != nil {
		return svcErr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.ErrNotFound
	}
	return nil
}

// Between reports whether any block exists between the two users, in
// either direction. Discovery excludes bidirectionally even though the
// relation itself is directional.
func (r *BlockRepository) Between(
	ctx context.Context,
	userA, userB uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where(
			"(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA,
		).
		Count(&count).Error
	if err != nil {
		return false, svcErr.Map(err)
	}
	return count > 0, nil
}
