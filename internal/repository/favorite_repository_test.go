package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkmatch/discovery/internal/db"
	"github.com/sparkmatch/discovery/internal/repository"
)

func TestAddFavoriteIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewFavoriteRepository(dbase)

	first, err := repo.Add(ctx, 1, 2)
	require.NoError(t, err)

	second, err := repo.Add(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "second add must not touch the row")

	var count int64
	require.NoError(t, dbase.Model(&db.Favorite{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRemoveFavorite(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewFavoriteRepository(dbase)

	_, err := repo.Add(ctx, 1, 2)
	require.NoError(t, err)

	removed, err := repo.Remove(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, removed)

	// removing again is a no-op, not an error
	removed, err = repo.Remove(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListFavoritesPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewFavoriteRepository(dbase)

	for target := uint64(10); target < 17; target++ {
		_, err := repo.Add(ctx, 1, target)
		require.NoError(t, err)
	}
	// another user's bookmarks must not leak in
	_, err := repo.Add(ctx, 2, 10)
	require.NoError(t, err)

	seen := map[uint64]bool{}
	var token *string
	for {
		favorites, next, err := repo.List(ctx, 1, token, 3)
		require.NoError(t, err)
		for _, f := range favorites {
			assert.Equal(t, uint64(1), f.UserID)
			assert.False(t, seen[f.TargetID], "target %d repeated across pages", f.TargetID)
			seen[f.TargetID] = true
		}
		if next == nil {
			break
		}
		token = next
	}

	assert.Len(t, seen, 7)
}
