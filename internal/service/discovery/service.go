package discovery

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/sparkmatch/discovery/internal/app"
	"github.com/sparkmatch/discovery/internal/db"
	svcErr "github.com/sparkmatch/discovery/internal/errors"
	"github.com/sparkmatch/discovery/internal/repository"
	"github.com/sparkmatch/discovery/internal/utils/pagination"
)

// Service is the discovery engine: candidate generation with filters,
// idempotent interactions with mutual-match detection, match and favorite
// listings, and the admirer counter. It is stateless between calls except
// for the shared caches and the DB pool.
type Service struct {
	appCtx       *app.AppContext
	profiles     *repository.ProfileRepository
	interactions *repository.InteractionRepository
	matches      *repository.MatchRepository
	favorites    *repository.FavoriteRepository
}

// NewService creates the engine with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		profiles:     repository.NewProfileRepository(appCtx.DB),
		interactions: repository.NewInteractionRepository(appCtx.DB),
		matches:      repository.NewMatchRepository(appCtx.DB),
		favorites:    repository.NewFavoriteRepository(appCtx.DB),
	}
}

//
// Interactions & match detection
//

// CreateInteraction upserts the actor -> target action and, for a like or
// superlike, detects reciprocity and records the match.
//
// Behavior:
//   - actor == target or an unknown kind fails validation; an unknown
//     target profile is a not-found error.
//   - Upsert + reciprocity check + match creation run in one transaction
//     so an interaction is never recorded without its should-exist match.
//   - MatchID is set only when this call created the match; a repeated
//     like on an already-matched pair stays silent.
//   - On a new match both users' match-list cache entries are invalidated;
//     the actor's discovery pages are always invalidated since the decided
//     profile must not resurface.
func (s *Service) CreateInteraction(
	ctx context.Context,
	actorID, targetID uint64,
	kind db.InteractionKind,
) (*InteractionResult, error) {
	s.appCtx.Logger.Debug("CreateInteraction called", "actor", actorID, "target", targetID, "kind", kind)

	if !kind.Valid() {
		return nil, svcErr.Validation("type must be one of like, superlike, pass")
	}
	if actorID == targetID {
		return nil, svcErr.Validation("cannot interact with yourself")
	}

	exists, err := s.profiles.Exists(ctx, targetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("target profile not found")
	}

	var (
		stored       db.Interaction
		match        db.Match
		matchCreated bool
	)
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txInteractions := repository.NewInteractionRepository(tx)

		var txErr error
		stored, txErr = txInteractions.Upsert(ctx, actorID, targetID, kind)
		if txErr != nil {
			return txErr
		}

		if !kind.Positive() {
			return nil
		}

		reciprocal, txErr := txInteractions.HasPositive(ctx, targetID, actorID)
		if txErr != nil {
			return txErr
		}
		if !reciprocal {
			return nil
		}

		match, matchCreated, txErr = repository.NewMatchRepository(tx).CreateIfAbsent(ctx, actorID, targetID)
		return txErr
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	s.invalidateAfterInteraction(ctx, actorID, targetID, kind, matchCreated)

	result := &InteractionResult{Interaction: toInteractionView(stored)}
	if matchCreated {
		id := match.ID
		result.MatchID = &id
		s.appCtx.Logger.Info("match created", "match_id", id, "user1", match.User1ID, "user2", match.User2ID)
	}
	return result, nil
}

// CheckMutualLike reports whether both directions between a and b carry a
// like or superlike. Pure read.
func (s *Service) CheckMutualLike(ctx context.Context, a, b uint64) (bool, error) {
	ab, err := s.interactions.HasPositive(ctx, a, b)
	if err != nil || !ab {
		return false, svcErr.Map(err)
	}
	ba, err := s.interactions.HasPositive(ctx, b, a)
	if err != nil {
		return false, svcErr.Map(err)
	}
	return ba, nil
}

func (s *Service) invalidateAfterInteraction(
	ctx context.Context,
	actorID, targetID uint64,
	kind db.InteractionKind,
	matchCreated bool,
) {
	s.appCtx.Cache.DeletePrefix(discoverPrefix(actorID))
	if matchCreated {
		s.appCtx.Cache.DeletePrefix(matchesPrefix(actorID))
		s.appCtx.Cache.DeletePrefix(matchesPrefix(targetID))
		// the matched counterpart must also stop seeing the actor
		s.appCtx.Cache.DeletePrefix(discoverPrefix(targetID))
	}

	// Counter nudge is best effort: redis being down never fails a request.
	delta := int64(1)
	if kind == db.KindPass {
		delta = -1
	}
	if err := s.appCtx.RedisCache.BumpAdmirerCount(ctx, targetID, delta); err != nil {
		s.appCtx.Logger.Warn("failed to bump admirer count", "target", targetID, "err", err)
	}
}

//
// Candidate discovery
//

// FindCandidates returns a cursor-paginated page of profiles eligible to
// be shown to userID under the given filters.
//
// This is the hot path: computed pages are cached keyed by
// (user, filter-hash, cursor, limit) with a short TTL, since candidate
// sets change slowly relative to browsing speed. The query itself runs
// under a bounded timeout; a timeout surfaces as a retryable error, not a
// validation failure.
func (s *Service) FindCandidates(
	ctx context.Context,
	userID uint64,
	filter repository.CandidateFilter,
	paginationToken *string,
	limit int,
) (*CandidatePage, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	limit, err := s.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	if err := validateToken(paginationToken); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s:%s:%d", discoverPrefix(userID), filterHash(filter), getString(paginationToken), limit)
	if v, ok := s.appCtx.Cache.Get(key); ok {
		if page, ok := v.(*CandidatePage); ok {
			return page, nil
		}
	}

	qctx, cancel := context.WithTimeout(ctx, s.appCtx.Config.Discovery.QueryTimeout)
	defer cancel()

	profiles, nextToken, err := s.profiles.FindCandidates(qctx, userID, filter, paginationToken, limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	page := &CandidatePage{
		Profiles:   make([]ProfileSummary, 0, len(profiles)),
		NextCursor: nextToken,
	}
	for _, p := range profiles {
		page.Profiles = append(page.Profiles, toProfileSummary(p))
	}

	s.appCtx.Cache.Set(key, page, s.appCtx.Config.Cache.DiscoverTTL)
	return page, nil
}

//
// Matches
//

// GetMatches returns matches involving userID, most recent first, each
// joined with the counterpart's profile summary. Cached per user and
// invalidated on new-match creation.
func (s *Service) GetMatches(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) (*MatchPage, error) {
	limit, err := s.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	if err := validateToken(paginationToken); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s:%d", matchesPrefix(userID), getString(paginationToken), limit)
	if v, ok := s.appCtx.Cache.Get(key); ok {
		if page, ok := v.(*MatchPage); ok {
			return page, nil
		}
	}

	matches, nextToken, err := s.matches.ListForUser(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	counterparts := make([]uint64, 0, len(matches))
	for _, m := range matches {
		counterparts = append(counterparts, counterpartID(m, userID))
	}
	profilesByID, err := s.profiles.GetByIDs(ctx, counterparts)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	page := &MatchPage{
		Matches:    make([]MatchView, 0, len(matches)),
		NextCursor: nextToken,
	}
	for _, m := range matches {
		other := counterpartID(m, userID)
		profile, ok := profilesByID[other]
		if !ok {
			continue // counterpart row gone, nothing to render
		}
		page.Matches = append(page.Matches, MatchView{
			MatchID:   m.ID,
			Profile:   toProfileSummary(profile),
			CreatedAt: m.CreatedAt,
		})
	}

	s.appCtx.Cache.Set(key, page, s.appCtx.Config.Cache.ListTTL)
	return page, nil
}

//
// Favorites
//

// AddFavorite bookmarks target for userID. Idempotent: adding twice
// yields one row and both calls succeed.
func (s *Service) AddFavorite(ctx context.Context, userID, targetID uint64) (*FavoriteView, error) {
	if userID == targetID {
		return nil, svcErr.Validation("cannot favorite yourself")
	}

	exists, err := s.profiles.Exists(ctx, targetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("target profile not found")
	}

	favorite, err := s.favorites.Add(ctx, userID, targetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	s.appCtx.Cache.DeletePrefix(favoritesPrefix(userID))

	return &FavoriteView{
		UserID:    favorite.UserID,
		TargetID:  favorite.TargetID,
		CreatedAt: favorite.CreatedAt,
	}, nil
}

// RemoveFavorite deletes the bookmark and reports whether one existed.
// Removing a non-existent favorite is a no-op, never an error.
func (s *Service) RemoveFavorite(ctx context.Context, userID, targetID uint64) (bool, error) {
	removed, err := s.favorites.Remove(ctx, userID, targetID)
	if err != nil {
		return false, svcErr.Map(err)
	}
	if removed {
		s.appCtx.Cache.DeletePrefix(favoritesPrefix(userID))
	}
	return removed, nil
}

// GetFavorites returns the user's bookmarks joined with profile summaries,
// cursor-paginated and cached per user.
func (s *Service) GetFavorites(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) (*FavoritePage, error) {
	limit, err := s.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	if err := validateToken(paginationToken); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s:%d", favoritesPrefix(userID), getString(paginationToken), limit)
	if v, ok := s.appCtx.Cache.Get(key); ok {
		if page, ok := v.(*FavoritePage); ok {
			return page, nil
		}
	}

	favorites, nextToken, err := s.favorites.List(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	targets := make([]uint64, 0, len(favorites))
	for _, f := range favorites {
		targets = append(targets, f.TargetID)
	}
	profilesByID, err := s.profiles.GetByIDs(ctx, targets)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	page := &FavoritePage{
		Favorites:  make([]FavoriteView, 0, len(favorites)),
		NextCursor: nextToken,
	}
	for _, f := range favorites {
		view := FavoriteView{UserID: f.UserID, TargetID: f.TargetID, CreatedAt: f.CreatedAt}
		if profile, ok := profilesByID[f.TargetID]; ok {
			summary := toProfileSummary(profile)
			view.Profile = &summary
		}
		page.Favorites = append(page.Favorites, view)
	}

	s.appCtx.Cache.Set(key, page, s.appCtx.Config.Cache.ListTTL)
	return page, nil
}

//
// Admirers ("liked you")
//

// CountAdmirers returns how many users liked userID.
// Cache-first strategy:
//  1. Read the Redis counter (admirers:count:{id}).
//  2. On miss, fall back to the DB count.
//  3. Backfill Redis with a 1h TTL.
//
// Redis failures degrade to the DB path and are only logged.
func (s *Service) CountAdmirers(ctx context.Context, userID uint64) (int64, error) {
	count, found, err := s.appCtx.RedisCache.GetAdmirerCount(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Warn("admirer count cache read failed", "user", userID, "err", err)
	} else if found {
		return count, nil
	}

	count, err = s.interactions.CountAdmirers(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}

	if err := s.appCtx.RedisCache.SetAdmirerCount(ctx, userID, count); err != nil {
		s.appCtx.Logger.Warn("admirer count cache write failed", "user", userID, "err", err)
	}
	return count, nil
}

// ListAdmirers returns who liked userID, newest first, joined with profile
// summaries. Excludes admirers the user already passed.
func (s *Service) ListAdmirers(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) (*AdmirerPage, error) {
	limit, err := s.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	if err := validateToken(paginationToken); err != nil {
		return nil, err
	}

	interactions, nextToken, err := s.interactions.ListAdmirers(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	actors := make([]uint64, 0, len(interactions))
	for _, i := range interactions {
		actors = append(actors, i.ActorID)
	}
	profilesByID, err := s.profiles.GetByIDs(ctx, actors)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	page := &AdmirerPage{
		Admirers:   make([]AdmirerView, 0, len(interactions)),
		NextCursor: nextToken,
	}
	for _, i := range interactions {
		profile, ok := profilesByID[i.ActorID]
		if !ok {
			continue
		}
		page.Admirers = append(page.Admirers, AdmirerView{
			Profile: toProfileSummary(profile),
			LikedAt: i.UpdatedAt,
		})
	}
	return page, nil
}

//
// helpers
//

// normalizeLimit applies the page-size policy: negative limits are invalid
// input, zero means the default, anything above the maximum is clamped.
func (s *Service) normalizeLimit(limit int) (int, error) {
	cfg := s.appCtx.Config.Discovery
	switch {
	case limit < 0:
		return 0, svcErr.Validation("limit must not be negative")
	case limit == 0:
		return cfg.DefaultPageSize, nil
	case limit > cfg.MaxPageSize:
		return cfg.MaxPageSize, nil
	}
	return limit, nil
}

func validateToken(token *string) error {
	if _, err := pagination.Decode(getString(token)); err != nil {
		return svcErr.Validation("invalid pagination cursor")
	}
	return nil
}

func validateFilter(f repository.CandidateFilter) error {
	if f.AgeMin != nil && f.AgeMax != nil && *f.AgeMin > *f.AgeMax {
		return svcErr.Validation("age_min must not exceed age_max")
	}
	if f.HeightMin != nil && f.HeightMax != nil && *f.HeightMin > *f.HeightMax {
		return svcErr.Validation("height_min must not exceed height_max")
	}
	return nil
}

func counterpartID(m db.Match, userID uint64) uint64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

func discoverPrefix(userID uint64) string  { return fmt.Sprintf("discover:%d:", userID) }
func matchesPrefix(userID uint64) string   { return fmt.Sprintf("matches:%d:", userID) }
func favoritesPrefix(userID uint64) string { return fmt.Sprintf("favorites:%d:", userID) }

func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
