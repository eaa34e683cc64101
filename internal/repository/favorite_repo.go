package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sparkmatch/discovery/internal/db"
	"github.com/sparkmatch/discovery/internal/utils/pagination"
)

// FavoriteRepository provides data access for bookmarked profiles.
type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(database *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: database}
}

// Add bookmarks target for user. Adding twice yields one row: the insert
// is ON CONFLICT DO NOTHING against the composite PK.
func (r *FavoriteRepository) Add(
	ctx context.Context,
	userID, targetID uint64,
) (db.Favorite, error) {
	favorite := db.Favorite{UserID: userID, TargetID: targetID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(&favorite).Error
	if err != nil {
		return db.Favorite{}, err
	}

	var stored db.Favorite
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		First(&stored).Error
	return stored, err
}

// Remove deletes the bookmark and reports whether a row was removed.
// Removing an absent favorite is not an error.
func (r *FavoriteRepository) Remove(
	ctx context.Context,
	userID, targetID uint64,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		Delete(&db.Favorite{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List returns the user's bookmarks, most recent first, cursor-paginated.
// target_id is the tie-break within a creation timestamp.
func (r *FavoriteRepository) List(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Favorite, *string, error) {
	var favorites []db.Favorite

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at DESC, target_id DESC").
		Limit(limit + 1)

	if !cursor.Zero() {
		ts := time.UnixMilli(cursor.TsUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND target_id < ?))",
			ts, ts, cursor.LastID,
		)
	}

	if err := query.Find(&favorites).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(favorites) > limit {
		last := favorites[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LastID: last.TargetID,
			TsUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		favorites = favorites[:limit]
	}

	return favorites, nextToken, nil
}
