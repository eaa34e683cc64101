package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sparkmatch/discovery/internal/db"
	"github.com/sparkmatch/discovery/internal/utils/pagination"
)

// MatchRepository provides data access for mutual-like pairs.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CanonicalPair orders two user ids so user1 < user2, making the pair
// unique regardless of who liked whom last.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if b < a {
		return b, a
	}
	return a, b
}

// CreateIfAbsent records a match for the pair (a, b).
//
// Behavior:
//   - The pair is canonicalized before insert.
//   - Insert uses ON CONFLICT DO NOTHING against the unique pair index;
//     when the row already exists the existing match is fetched and
//     returned. This is the idempotence mechanism, not error handling:
//     concurrent reciprocal likes race to insert and exactly one wins,
//     the loser reads the winner's row.
//
// Returns the match and whether this call created it.
func (r *MatchRepository) CreateIfAbsent(
	ctx context.Context,
	a, b uint64,
) (db.Match, bool, error) {
	u1, u2 := CanonicalPair(a, b)
	match := db.Match{User1ID: u1, User2ID: u2}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return db.Match{}, false, res.Error
	}

	if res.RowsAffected == 1 {
		return match, true, nil
	}

	existing, err := r.GetByUsers(ctx, a, b)
	return existing, false, err
}

// GetByUsers returns the match for the unordered pair (a, b), if any.
func (r *MatchRepository) GetByUsers(ctx context.Context, a, b uint64) (db.Match, error) {
	u1, u2 := CanonicalPair(a, b)
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		First(&match).Error
	return match, err
}

// ListForUser returns matches involving userID, most recent first.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC; the id tie-break keeps
//     pagination stable for matches created in the same millisecond.
//   - Cursor-based pagination via the +1 overfetch.
func (r *MatchRepository) ListForUser(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Match, *string, error) {
	var matches []db.Match

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if !cursor.Zero() {
		ts := time.UnixMilli(cursor.TsUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.LastID,
		)
	}

	if err := query.Find(&matches).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(matches) > limit {
		last := matches[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LastID: last.ID,
			TsUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		matches = matches[:limit]
	}

	return matches, nextToken, nil
}
