package repository

import (
	"context"

	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"

	"gorm.io/gorm"
)

// UserRepository reads profiles for the engine and owns the cascade that
// runs when an account is removed. Profile mutation lives elsewhere.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Get returns the user by id, or ErrNotFound.
func (r *UserRepository) Get(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, svcErr.Map(err)
	}
	return &user, nil
}

// GetMany returns the users for the given ids, keyed by id. Missing ids
// are simply absent from the result.
func (r *UserRepository) GetMany(
	ctx context.Context,
	ids []uint64,
) (map[uint64]db.User, error) {
	if len(ids) == 0 {
		return map[uint64]db.User{}, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, svcErr.Map(err)
	}
	out := make(map[uint64]db.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Delete removes the user and every row that references them: swipes in
// either role, blocks in either role, and any match containing them.
// Runs in one transaction so no orphaned rows survive a partial failure.
func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&db.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("actor_id = ? OR target_id = ?", id, id).
			Delete(&db.Swipe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("blocker_id = ? OR blocked_id = ?", id, id).
			Delete(&db.Block{}).Error; err != nil {
			return err
		}
		return tx.Where("user_a_id = ? OR user_b_id = ?", id, id).
			Delete(&db.Match{}).Error
	})
	return svcErr.Map(err)
}
