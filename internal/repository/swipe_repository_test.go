package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/emberdate/engine/internal/db"
	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&db.User{}, &db.Swipe{}, &db.Match{}, &db.Block{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestCreateSwipeAppendOnly(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// first decision lands
	swipe, err := repo.Create(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	assert.Equal(t, db.ActionLike, swipe.Action)

	// second decision on the same pair is rejected, not overwritten
	_, err = repo.Create(ctx, 1, 2, db.ActionPass)
	assert.ErrorIs(t, err, svcErr.ErrConflict)

	var stored []db.Swipe
	require.NoError(t, dbase.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, db.ActionLike, stored[0].Action)
}

func TestCreateSwipeOppositeDirectionAllowed(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	_, err := repo.Create(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)

	// reverse direction is a different pair
	_, err = repo.Create(ctx, 2, 1, db.ActionLike)
	assert.NoError(t, err)
}

func TestHasLiked(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	_, err := repo.Create(ctx, 5, 6, db.ActionLike)
	require.NoError(t, err)
	_, err = repo.Create(ctx, 6, 7, db.ActionPass)
	require.NoError(t, err)

	liked, err := repo.HasLiked(ctx, 5, 6)
	require.NoError(t, err)
	assert.True(t, liked)

	// a pass is not a like
	liked, err = repo.HasLiked(ctx, 6, 7)
	require.NoError(t, err)
	assert.False(t, liked)

	// nothing recorded at all
	liked, err = repo.HasLiked(ctx, 6, 5)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestAdmirersExcludesPassedBack(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// actors 1,2 liked target 99
	_, _ = repo.Create(ctx, 1, 99, db.ActionLike)
	_, _ = repo.Create(ctx, 2, 99, db.ActionLike)
	// target passed actor 2 → excluded
	_, _ = repo.Create(ctx, 99, 2, db.ActionPass)

	swipes, _, err := repo.Admirers(ctx, 99, nil, 10)
	require.NoError(t, err)
	require.Len(t, swipes, 1)
	assert.Equal(t, uint64(1), swipes[0].ActorID)

	count, err := repo.CountAdmirers(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNewAdmirersExcludesMutual(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	// actor 1 liked 99, and 99 liked back → mutual, not "new"
	_, _ = repo.Create(ctx, 1, 99, db.ActionLike)
	_, _ = repo.Create(ctx, 99, 1, db.ActionLike)

	// actor 2 liked 99, still awaiting a decision
	_, _ = repo.Create(ctx, 2, 99, db.ActionLike)

	// actor 3 liked 99 but was passed back → excluded
	_, _ = repo.Create(ctx, 3, 99, db.ActionLike)
	_, _ = repo.Create(ctx, 99, 3, db.ActionPass)

	swipes, _, err := repo.NewAdmirers(ctx, 99, nil, 10)
	require.NoError(t, err)
	require.Len(t, swipes, 1)
	assert.Equal(t, uint64(2), swipes[0].ActorID)
}

func TestAdmirersZeroLimitDefaults(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	_, err := repo.Create(ctx, 1, 99, db.ActionLike)
	require.NoError(t, err)

	// a non-positive limit falls back to the default page size
	swipes, next, err := repo.Admirers(ctx, 99, nil, 0)
	require.NoError(t, err)
	assert.Len(t, swipes, 1)
	assert.Nil(t, next)

	swipes, _, err = repo.NewAdmirers(ctx, 99, nil, -1)
	require.NoError(t, err)
	assert.Len(t, swipes, 1)
}

func TestAdmirersPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	for actor := uint64(1); actor <= 5; actor++ {
		_, err := repo.Create(ctx, actor, 99, db.ActionLike)
		require.NoError(t, err)
	}

	first, next, err := repo.Admirers(ctx, 99, nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.NotNil(t, next)

	second, next2, err := repo.Admirers(ctx, 99, next, 3)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Nil(t, next2)

	// no overlap between pages
	seen := map[uint64]bool{}
	for _, s := range append(first, second...) {
		assert.False(t, seen[s.ActorID], "actor %d returned twice", s.ActorID)
		seen[s.ActorID] = true
	}
}
