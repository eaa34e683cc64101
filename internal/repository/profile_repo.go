package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sparkmatch/discovery/internal/db"
	"github.com/sparkmatch/discovery/internal/utils/pagination"
)

// CandidateFilter is the recognized discovery filter set. Nil fields impose
// no constraint; the engine validates ranges before the query runs.
type CandidateFilter struct {
	AgeMin       *int
	AgeMax       *int
	HeightMin    *int
	HeightMax    *int
	Goal         *string
	Education    *string
	VerifiedOnly bool
}

// ProfileRepository reads the profile table. The discovery core never
// mutates profiles outside of dev seeding.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetByID returns one active profile.
func (r *ProfileRepository) GetByID(ctx context.Context, id uint64) (db.Profile, error) {
	var profile db.Profile
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&profile).Error
	return profile, err
}

// Exists reports whether an active profile with the id exists.
func (r *ProfileRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	_, err := r.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// GetByIDs fetches a batch of profiles keyed by id. Inactive profiles are
// included here: a matched or bookmarked counterpart that deactivated
// later should still render in lists.
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]db.Profile, error) {
	out := make(map[uint64]db.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var profiles []db.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// FindCandidates returns profiles eligible to be shown to userID.
//
// Exclusion rule: never the requesting user, never a profile the user
// already acted on (liked, superliked or passed), never an existing match
// counterpart.
//
// Ordering: created_at DESC, id DESC, reverse-chronological registration
// with the id as the monotonic tie-break, so repeated calls advancing the
// cursor neither skip nor repeat a candidate on a fixed snapshot.
func (r *ProfileRepository) FindCandidates(
	ctx context.Context,
	userID uint64,
	filter CandidateFilter,
	paginationToken *string,
	limit int,
) ([]db.Profile, *string, error) {
	var profiles []db.Profile

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("profiles p").
		Where("p.active = ?", true).
		Where("p.id <> ?", userID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interactions i
				WHERE i.actor_id = ?
				  AND i.target_id = p.id
			)`, userID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE (m.user1_id = ? AND m.user2_id = p.id)
				   OR (m.user1_id = p.id AND m.user2_id = ?)
			)`, userID, userID)

	query = applyFilter(query, filter)

	query = query.
		Order("p.created_at DESC, p.id DESC").
		Limit(limit + 1)

	if !cursor.Zero() {
		ts := time.UnixMilli(cursor.TsUnix)
		query = query.Where(
			"(p.created_at < ? OR (p.created_at = ? AND p.id < ?))",
			ts, ts, cursor.LastID,
		)
	}

	if err := query.Find(&profiles).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(profiles) > limit {
		last := profiles[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LastID: last.ID,
			TsUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		profiles = profiles[:limit]
	}

	return profiles, nextToken, nil
}

func applyFilter(query *gorm.DB, f CandidateFilter) *gorm.DB {
	if f.AgeMin != nil {
		query = query.Where("p.age >= ?", *f.AgeMin)
	}
	if f.AgeMax != nil {
		query = query.Where("p.age <= ?", *f.AgeMax)
	}
	if f.HeightMin != nil {
		query = query.Where("p.height >= ?", *f.HeightMin)
	}
	if f.HeightMax != nil {
		query = query.Where("p.height <= ?", *f.HeightMax)
	}
	if f.Goal != nil {
		query = query.Where("p.goal = ?", *f.Goal)
	}
	if f.Education != nil {
		query = query.Where("p.education = ?", *f.Education)
	}
	if f.VerifiedOnly {
		query = query.Where("p.verified = ?", true)
	}
	return query
}
