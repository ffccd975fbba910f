package discovery_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/emberdate/engine/internal/db"
	"github.com/emberdate/engine/internal/discovery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(&db.User{}, &db.Swipe{}, &db.Match{}, &db.Block{}))
	return database
}

func addUser(t *testing.T, dbase *gorm.DB, id uint64, complete bool) {
	t.Helper()
	name := fmt.Sprintf("user%d", id)
	birth := time.Date(1993, 3, 3, 0, 0, 0, 0, time.UTC)
	u := db.User{
		ID:           id,
		Username:     name,
		Email:        name + "@test.com",
		PasswordHash: "x",
		Gender:       "female",
		FirstName:    "Test",
		Birthdate:    &birth,
		PhotoURL:     "https://example.com/p.jpg",
		Active:       true,
	}
	if !complete {
		u.PhotoURL = ""
	}
	require.NoError(t, dbase.Create(&u).Error)
}

func candidateIDs(users []db.User) []uint64 {
	ids := make([]uint64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestCandidatesExcludesSelf(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	for id := uint64(1); id <= 4; id++ {
		addUser(t, dbase, id, true)
	}

	sel := discovery.NewSelector(dbase)
	users, err := sel.Candidates(ctx, 1)
	require.NoError(t, err)
	assert.NotContains(t, candidateIDs(users), uint64(1))
	assert.ElementsMatch(t, []uint64{2, 3, 4}, candidateIDs(users))
}

func TestCandidatesExcludesSwiped(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	for id := uint64(1); id <= 4; id++ {
		addUser(t, dbase, id, true)
	}
	// any prior decision excludes the target, like or pass
	require.NoError(t, dbase.Create(&db.Swipe{ActorID: 1, TargetID: 2, Action: db.ActionLike}).Error)
	require.NoError(t, dbase.Create(&db.Swipe{ActorID: 1, TargetID: 3, Action: db.ActionPass}).Error)
	// someone else's swipe on 4 does not affect user 1's list
	require.NoError(t, dbase.Create(&db.Swipe{ActorID: 2, TargetID: 4, Action: db.ActionLike}).Error)

	sel := discovery.NewSelector(dbase)
	users, err := sel.Candidates(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{4}, candidateIDs(users))
}

func TestCandidatesExcludesBlocksBothDirections(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	for id := uint64(1); id <= 4; id++ {
		addUser(t, dbase, id, true)
	}
	// 1 blocked 2; 3 blocked 1; both disappear from 1's list
	require.NoError(t, dbase.Create(&db.Block{BlockerID: 1, BlockedID: 2}).Error)
	require.NoError(t, dbase.Create(&db.Block{BlockerID: 3, BlockedID: 1}).Error)

	sel := discovery.NewSelector(dbase)
	users, err := sel.Candidates(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{4}, candidateIDs(users))

	// and 1 disappears from theirs
	users, err = sel.Candidates(ctx, 2)
	require.NoError(t, err)
	assert.NotContains(t, candidateIDs(users), uint64(1))

	users, err = sel.Candidates(ctx, 3)
	require.NoError(t, err)
	assert.NotContains(t, candidateIDs(users), uint64(1))
}

func TestCandidatesExcludesIncompleteProfiles(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	addUser(t, dbase, 1, true)
	addUser(t, dbase, 2, true)
	addUser(t, dbase, 3, false) // missing photo, never shown

	sel := discovery.NewSelector(dbase)
	users, err := sel.Candidates(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2}, candidateIDs(users))
}

func TestCandidatesDeterministicOrder(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	for id := uint64(1); id <= 6; id++ {
		addUser(t, dbase, id, true)
	}

	sel := discovery.NewSelector(dbase)
	first, err := sel.Candidates(ctx, 1)
	require.NoError(t, err)
	second, err := sel.Candidates(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, candidateIDs(first), candidateIDs(second))
	assert.Equal(t, []uint64{2, 3, 4, 5, 6}, candidateIDs(first))
}

func TestCandidatesSeededShuffleIsStable(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	for id := uint64(1); id <= 10; id++ {
		addUser(t, dbase, id, true)
	}

	selA := discovery.NewSelector(dbase, discovery.WithOrdering(discovery.OrderBySeed(77)))
	selB := discovery.NewSelector(dbase, discovery.WithOrdering(discovery.OrderBySeed(77)))

	a, err := selA.Candidates(ctx, 1)
	require.NoError(t, err)
	b, err := selB.Candidates(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, candidateIDs(a), candidateIDs(b))
	assert.Len(t, a, 9)
}
