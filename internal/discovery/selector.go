package discovery

import (
	"context"

	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"

	"gorm.io/gorm"
)

// Selector computes the eligible-candidate list for a discovery session.
// The list is queried once per session entry; the session drains its own
// in-memory copy as swipes resolve instead of re-querying per swipe.
type Selector struct {
	db    *gorm.DB
	order Ordering
}

// Option configures a Selector.
type Option func(*Selector)

// WithOrdering overrides the default candidate ordering strategy.
func WithOrdering(o Ordering) Option {
	return func(s *Selector) { s.order = o }
}

// NewSelector creates a Selector bound to the given DB connection.
// Default ordering is stable ascending by id.
func NewSelector(database *gorm.DB, opts ...Option) *Selector {
	s := &Selector{db: database, order: OrderByID()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Candidates returns the profiles the requester may be shown.
//
// Exclusions, all applied in a single query:
//   - the requester themselves
//   - inactive users and users with incomplete profiles
//   - anyone the requester has already swiped, either action
//   - anyone in a block relation with the requester, either direction
//
// The base query orders by id so re-entry with the same data and the
// same ordering strategy yields the same sequence.
func (s *Selector) Candidates(ctx context.Context, requesterID uint64) ([]db.User, error) {
	var users []db.User
	err := s.db.WithContext(ctx).
		Model(&db.User{}).
		Where("users.id <> ?", requesterID).
		Where("users.active = ?", true).
		Where("users.photo_url <> '' AND users.first_name <> '' AND users.birthdate IS NOT NULL AND users.gender <> ''").
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s
				WHERE s.actor_id = ? AND s.target_id = users.id
			)`, requesterID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = ? AND b.blocked_id = users.id)
				   OR (b.blocker_id = users.id AND b.blocked_id = ?)
			)`, requesterID, requesterID).
		Order("users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}

	s.order(users)
	return users, nil
}
