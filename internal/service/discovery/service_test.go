package discovery_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sparkmatch/discovery/internal/app"
	"github.com/sparkmatch/discovery/internal/cache"
	"github.com/sparkmatch/discovery/internal/config"
	"github.com/sparkmatch/discovery/internal/db"
	svcErr "github.com/sparkmatch/discovery/internal/errors"
	"github.com/sparkmatch/discovery/internal/repository"
	"github.com/sparkmatch/discovery/internal/service/discovery"
)

//
// Test helpers
//

// seedProfiles inserts n active profiles and returns their ids in creation
// order. Profile 1 is "the user" in most tests.
func seedProfiles(t *testing.T, gdb *gorm.DB, n int) []uint64 {
	t.Helper()

	ids := make([]uint64, 0, n)
	for i := 1; i <= n; i++ {
		gender := "male"
		if i%2 == 0 {
			gender = "female"
		}
		p := db.Profile{
			Name:      fmt.Sprintf("user%d", i),
			Age:       20 + i,
			Gender:    gender,
			City:      "Moscow",
			Height:    160 + i,
			Goal:      "relationship",
			Education: "bachelor",
			Verified:  i%2 == 0,
			Active:    true,
		}
		require.NoError(t, gdb.Create(&p).Error)
		ids = append(ids, p.ID)
	}
	return ids
}

// setupService spins up an in-memory SQLite DB, applies migrations, starts
// a miniredis, and wires everything into a discovery Service.
//
// Each test gets its own isolated DB + Redis + page cache.
func setupService(t *testing.T) (*discovery.Service, *app.AppContext) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	memCache := cache.NewMemoryCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	appCtx := app.New(dbase, memCache, redisCache, logger, cfg)
	return discovery.NewService(appCtx), appCtx
}

func matchCount(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, gdb.Model(&db.Match{}).Count(&count).Error)
	return count
}

//
// Interactions & matching
//

func TestCreateInteraction_MutualLikeCreatesExactlyOneMatch(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 2)

	// first direction: no match yet
	res, err := svc.CreateInteraction(ctx, ids[0], ids[1], db.KindLike)
	require.NoError(t, err)
	assert.Nil(t, res.MatchID)
	assert.Equal(t, db.KindLike, res.Interaction.Type)

	// reciprocal like: match created
	res, err = svc.CreateInteraction(ctx, ids[1], ids[0], db.KindLike)
	require.NoError(t, err)
	require.NotNil(t, res.MatchID)
	assert.Equal(t, int64(1), matchCount(t, appCtx.DB))

	// canonical ordering holds
	var match db.Match
	require.NoError(t, appCtx.DB.First(&match, *res.MatchID).Error)
	assert.Less(t, match.User1ID, match.User2ID)

	// liking again afterwards does not create a second match
	res, err = svc.CreateInteraction(ctx, ids[0], ids[1], db.KindLike)
	require.NoError(t, err)
	assert.Nil(t, res.MatchID, "repeat like on a matched pair stays silent")
	assert.Equal(t, int64(1), matchCount(t, appCtx.DB))
}

func TestCreateInteraction_SuperlikeCountsAsPositive(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 2)

	_, err := svc.CreateInteraction(ctx, ids[0], ids[1], db.KindSuperlike)
	require.NoError(t, err)

	res, err := svc.CreateInteraction(ctx, ids[1], ids[0], db.KindLike)
	require.NoError(t, err)
	assert.NotNil(t, res.MatchID)
}

func TestCreateInteraction_PassNeverMatches(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 2)

	_, err := svc.CreateInteraction(ctx, ids[0], ids[1], db.KindLike)
	require.NoError(t, err)

	res, err := svc.CreateInteraction(ctx, ids[1], ids[0], db.KindPass)
	require.NoError(t, err)
	assert.Nil(t, res.MatchID)
	assert.Equal(t, int64(0), matchCount(t, appCtx.DB))
}

func TestCreateInteraction_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 2)

	first, err := svc.CreateInteraction(ctx, ids[0], ids[1], db.KindLike)
	require.NoError(t, err)
	second, err := svc.CreateInteraction(ctx, ids[0], ids[1], db.KindLike)
	require.NoError(t, err)

	assert.Equal(t, first.Interaction.ActorID, second.Interaction.ActorID)
	assert.Equal(t, first.Interaction.Type, second.Interaction.Type)

	var count int64
	require.NoError(t, appCtx.DB.Model(&db.Interaction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateInteraction_Validation(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 2)

	// self-interaction
	_, err := svc.CreateInteraction(ctx, ids[0], ids[0], db.KindLike)
	require.Error(t, err)
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))

	// unknown kind
	_, err = svc.CreateInteraction(ctx, ids[0], ids[1], db.InteractionKind("wink"))
	require.Error(t, err)
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))

	// unknown target
	_, err = svc.CreateInteraction(ctx, ids[0], 9999, db.KindLike)
	require.Error(t, err)
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))
}

func TestCheckMutualLike(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 2)

	mutual, err := svc.CheckMutualLike(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.False(t, mutual)

	_, err = svc.CreateInteraction(ctx, ids[0], ids[1], db.KindLike)
	require.NoError(t, err)
	mutual, err = svc.CheckMutualLike(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.False(t, mutual, "one direction is not mutual")

	_, err = svc.CreateInteraction(ctx, ids[1], ids[0], db.KindSuperlike)
	require.NoError(t, err)
	mutual, err = svc.CheckMutualLike(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.True(t, mutual)
}

//
// Discovery
//

func TestFindCandidates_ExcludesDecidedMatchedAndSelf(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 5)
	me := ids[0]

	_, err := svc.CreateInteraction(ctx, me, ids[1], db.KindPass)
	require.NoError(t, err)
	_, err = svc.CreateInteraction(ctx, me, ids[2], db.KindLike)
	require.NoError(t, err)
	// mutual with ids[3] → matched
	_, err = svc.CreateInteraction(ctx, ids[3], me, db.KindLike)
	require.NoError(t, err)
	_, err = svc.CreateInteraction(ctx, me, ids[3], db.KindLike)
	require.NoError(t, err)

	page, err := svc.FindCandidates(ctx, me, repository.CandidateFilter{}, nil, 0)
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	assert.Equal(t, ids[4], page.Profiles[0].ID)
	assert.Nil(t, page.NextCursor)
}

func TestFindCandidates_EmptyPageIsNotAnError(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 1)

	page, err := svc.FindCandidates(ctx, ids[0], repository.CandidateFilter{}, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Profiles)
	assert.Nil(t, page.NextCursor)
}

func TestFindCandidates_InvertedRangeFails(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 2)

	ageMin, ageMax := 30, 25
	_, err := svc.FindCandidates(ctx, ids[0], repository.CandidateFilter{
		AgeMin: &ageMin, AgeMax: &ageMax,
	}, nil, 0)
	require.Error(t, err)
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))
}

func TestFindCandidates_NegativeLimitFails(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 2)

	_, err := svc.FindCandidates(ctx, ids[0], repository.CandidateFilter{}, nil, -1)
	require.Error(t, err)
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))
}

func TestFindCandidates_PaginationStability(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 11)
	me := ids[0]

	seen := map[uint64]bool{}
	var token *string
	for {
		page, err := svc.FindCandidates(ctx, me, repository.CandidateFilter{}, token, 3)
		require.NoError(t, err)
		for _, p := range page.Profiles {
			assert.False(t, seen[p.ID], "candidate %d repeated across pages", p.ID)
			seen[p.ID] = true
		}
		if page.NextCursor == nil {
			break
		}
		token = page.NextCursor
	}

	assert.Len(t, seen, 10)
}

func TestFindCandidates_CachesPages(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 3)
	me := ids[0]

	_, err := svc.FindCandidates(ctx, me, repository.CandidateFilter{}, nil, 0)
	require.NoError(t, err)
	_, err = svc.FindCandidates(ctx, me, repository.CandidateFilter{}, nil, 0)
	require.NoError(t, err)

	stats := appCtx.Cache.Stats()
	assert.GreaterOrEqual(t, stats.Hits, uint64(1), "second identical read should hit the page cache")
}

func TestFindCandidates_InvalidatedAfterInteraction(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 3)
	me := ids[0]

	page, err := svc.FindCandidates(ctx, me, repository.CandidateFilter{}, nil, 0)
	require.NoError(t, err)
	require.Len(t, page.Profiles, 2)

	// decide on one candidate: the cached page must not resurface it
	_, err = svc.CreateInteraction(ctx, me, ids[1], db.KindPass)
	require.NoError(t, err)

	page, err = svc.FindCandidates(ctx, me, repository.CandidateFilter{}, nil, 0)
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	assert.Equal(t, ids[2], page.Profiles[0].ID)
}

//
// Matches listing
//

func TestGetMatches_JoinsCounterpartAndInvalidates(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 3)
	me := ids[0]

	// warm the (empty) cache
	page, err := svc.GetMatches(ctx, me, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Matches)

	// new match must invalidate both users' cached lists
	_, err = svc.CreateInteraction(ctx, ids[1], me, db.KindLike)
	require.NoError(t, err)
	res, err := svc.CreateInteraction(ctx, me, ids[1], db.KindLike)
	require.NoError(t, err)
	require.NotNil(t, res.MatchID)

	page, err = svc.GetMatches(ctx, me, nil, 0)
	require.NoError(t, err)
	require.Len(t, page.Matches, 1)
	assert.Equal(t, *res.MatchID, page.Matches[0].MatchID)
	assert.Equal(t, ids[1], page.Matches[0].Profile.ID)

	other, err := svc.GetMatches(ctx, ids[1], nil, 0)
	require.NoError(t, err)
	require.Len(t, other.Matches, 1)
	assert.Equal(t, me, other.Matches[0].Profile.ID)
}

//
// Favorites
//

func TestFavorites_IdempotentAddAndRemove(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 2)
	me := ids[0]

	_, err := svc.AddFavorite(ctx, me, ids[1])
	require.NoError(t, err)
	_, err = svc.AddFavorite(ctx, me, ids[1])
	require.NoError(t, err)

	page, err := svc.GetFavorites(ctx, me, nil, 0)
	require.NoError(t, err)
	require.Len(t, page.Favorites, 1)
	assert.Equal(t, ids[1], page.Favorites[0].TargetID)
	require.NotNil(t, page.Favorites[0].Profile)
	assert.Equal(t, ids[1], page.Favorites[0].Profile.ID)

	removed, err := svc.RemoveFavorite(ctx, me, ids[1])
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveFavorite(ctx, me, ids[1])
	require.NoError(t, err)
	assert.False(t, removed, "removing a non-existent favorite is a no-op")

	page, err = svc.GetFavorites(ctx, me, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Favorites)
}

func TestFavorites_Validation(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 1)

	_, err := svc.AddFavorite(ctx, ids[0], ids[0])
	require.Error(t, err)
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))

	_, err = svc.AddFavorite(ctx, ids[0], 9999)
	require.Error(t, err)
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))
}

func TestFavorites_IndependentOfInteractions(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 2)
	me := ids[0]

	// favoriting someone never liked is fine
	_, err := svc.AddFavorite(ctx, me, ids[1])
	require.NoError(t, err)

	// passing them later does not remove the bookmark
	_, err = svc.CreateInteraction(ctx, me, ids[1], db.KindPass)
	require.NoError(t, err)

	page, err := svc.GetFavorites(ctx, me, nil, 0)
	require.NoError(t, err)
	assert.Len(t, page.Favorites, 1)
}

//
// Admirers
//

func TestCountAdmirers_CacheFirstWithBump(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 4)
	me := ids[0]

	_, err := svc.CreateInteraction(ctx, ids[1], me, db.KindLike)
	require.NoError(t, err)

	// first call → DB, backfills redis
	count, err := svc.CountAdmirers(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// a new like nudges the warm counter
	_, err = svc.CreateInteraction(ctx, ids[2], me, db.KindSuperlike)
	require.NoError(t, err)

	count, err = svc.CountAdmirers(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestListAdmirers_ExcludesPassed(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	ids := seedProfiles(t, appCtx.DB, 4)
	me := ids[0]

	_, err := svc.CreateInteraction(ctx, ids[1], me, db.KindLike)
	require.NoError(t, err)
	_, err = svc.CreateInteraction(ctx, ids[2], me, db.KindLike)
	require.NoError(t, err)
	// I passed ids[2] → they drop out of my admirer list
	_, err = svc.CreateInteraction(ctx, me, ids[2], db.KindPass)
	require.NoError(t, err)

	page, err := svc.ListAdmirers(ctx, me, nil, 0)
	require.NoError(t, err)
	require.Len(t, page.Admirers, 1)
	assert.Equal(t, ids[1], page.Admirers[0].Profile.ID)
}
