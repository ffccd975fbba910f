package discovery

import (
	"math/rand"
	"sort"

	"github.com/emberdate/engine/internal/db"
)

// Ordering rearranges a candidate slice in place. The observed behavior
// only requires determinism, so ordering is a pluggable strategy rather
// than a fixed ranking formula.
type Ordering func([]db.User)

// OrderByID keeps the stable id-ascending order from the store.
func OrderByID() Ordering {
	return func(users []db.User) {
		sort.Slice(users, func(i, j int) bool {
			return users[i].ID < users[j].ID
		})
	}
}

// OrderBySeed shuffles deterministically from a fixed seed, e.g. a per-day
// or per-session seed, so the same session always replays the same order.
func OrderBySeed(seed int64) Ordering {
	return func(users []db.User) {
		r := rand.New(rand.NewSource(seed))
		r.Shuffle(len(users), func(i, j int) {
			users[i], users[j] = users[j], users[i]
		})
	}
}
