package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sparkmatch/discovery/internal/db"
	"github.com/sparkmatch/discovery/internal/utils/pagination"
)

// InteractionRepository provides data access for like/superlike/pass rows.
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a repository bound to the given DB
// handle. Bind it to a transaction handle to run inside that transaction.
func NewInteractionRepository(database *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: database}
}

// Upsert inserts or updates the interaction actor -> target.
//
// Behavior:
//   - If the (actor_id, target_id) pair exists, the row's kind and
//     updated_at are overwritten; otherwise a new row is inserted.
//   - Composite PK ensures the overwrite guarantee, which makes repeated
//     identical actions idempotent.
//
// Returns the stored row.
func (r *InteractionRepository) Upsert(
	ctx context.Context,
	actorID, targetID uint64,
	kind db.InteractionKind,
) (db.Interaction, error) {
	interaction := db.Interaction{
		ActorID:  actorID,
		TargetID: targetID,
		Kind:     kind,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
		}).
		Create(&interaction).Error
	if err != nil {
		return db.Interaction{}, err
	}

	// Re-read so the update path returns the real stored timestamps.
	var stored db.Interaction
	err = r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		First(&stored).Error
	return stored, err
}

// Get returns the interaction actor -> target, if any.
func (r *InteractionRepository) Get(
	ctx context.Context,
	actorID, targetID uint64,
) (db.Interaction, error) {
	var interaction db.Interaction
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		First(&interaction).Error
	return interaction, err
}

// HasPositive checks whether actor has liked or superliked target.
// Used for mutual-like detection.
func (r *InteractionRepository) HasPositive(
	ctx context.Context,
	actorID, targetID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Interaction{}).
		Where("actor_id = ? AND target_id = ? AND kind IN ?",
			actorID, targetID, []db.InteractionKind{db.KindLike, db.KindSuperlike}).
		Count(&count).Error
	return count > 0, err
}

// CountAdmirers returns how many users liked/superliked the target.
//
// Behavior:
//   - Excludes users the target explicitly passed.
//   - Used in conjunction with the Redis counter (DB is the fallback).
func (r *InteractionRepository) CountAdmirers(
	ctx context.Context,
	targetID uint64,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("interactions i").
		Where("i.target_id = ? AND i.kind IN ?",
			targetID, []db.InteractionKind{db.KindLike, db.KindSuperlike}).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interactions i2
				WHERE i2.actor_id = ?
				  AND i2.target_id = i.actor_id
				  AND i2.kind = ?
			)`, targetID, db.KindPass).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListAdmirers returns users who liked/superliked the target.
//
// Behavior:
//   - Excludes users the target explicitly passed.
//   - Ordered by updated_at DESC, actor_id DESC.
//   - Cursor-based pagination: the +1 overfetch decides whether a next
//     page exists.
func (r *InteractionRepository) ListAdmirers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]db.Interaction, *string, error) {
	var interactions []db.Interaction

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("interactions i").
		Where("i.target_id = ? AND i.kind IN ?",
			targetID, []db.InteractionKind{db.KindLike, db.KindSuperlike}).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interactions i2
				WHERE i2.actor_id = ?
				  AND i2.target_id = i.actor_id
				  AND i2.kind = ?
			)`, targetID, db.KindPass).
		Order("i.updated_at DESC, i.actor_id DESC").
		Limit(limit + 1)

	if !cursor.Zero() {
		ts := time.UnixMilli(cursor.TsUnix)
		query = query.Where(
			"(i.updated_at < ? OR (i.updated_at = ? AND i.actor_id < ?))",
			ts, ts, cursor.LastID,
		)
	}

	if err := query.Find(&interactions).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(interactions) > limit {
		last := interactions[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LastID: last.ActorID,
			TsUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		interactions = interactions[:limit]
	}

	return interactions, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
