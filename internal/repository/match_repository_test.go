package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkmatch/discovery/internal/db"
	"github.com/sparkmatch/discovery/internal/repository"
)

func TestCreateIfAbsentCanonicalizesPair(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	match, created, err := repo.CreateIfAbsent(ctx, 5, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(2), match.User1ID)
	assert.Equal(t, uint64(5), match.User2ID)
	assert.Less(t, match.User1ID, match.User2ID)
}

func TestCreateIfAbsentIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	first, created, err := repo.CreateIfAbsent(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, created)

	// same pair, reversed order → existing row, no duplicate, no error
	second, created, err := repo.CreateIfAbsent(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetByUsers(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	created, _, err := repo.CreateIfAbsent(ctx, 7, 3)
	require.NoError(t, err)

	got, err := repo.GetByUsers(ctx, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = repo.GetByUsers(ctx, 3, 8)
	assert.Error(t, err)
}

func TestListForUserPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	for other := uint64(2); other <= 8; other++ {
		_, _, err := repo.CreateIfAbsent(ctx, 1, other)
		require.NoError(t, err)
	}
	// a match not involving user 1 must not appear
	_, _, err := repo.CreateIfAbsent(ctx, 2, 3)
	require.NoError(t, err)

	seen := map[uint64]bool{}
	var token *string
	for {
		matches, next, err := repo.ListForUser(ctx, 1, token, 3)
		require.NoError(t, err)
		for _, m := range matches {
			assert.True(t, m.User1ID == 1 || m.User2ID == 1)
			assert.False(t, seen[m.ID], "match %d repeated across pages", m.ID)
			seen[m.ID] = true
		}
		if next == nil {
			break
		}
		token = next
	}

	assert.Len(t, seen, 7)
}
