package db

import (
	"time"
)

// InteractionKind is the one-directional action a user takes on a profile.
type InteractionKind string

const (
	KindLike      InteractionKind = "like"
	KindSuperlike InteractionKind = "superlike"
	KindPass      InteractionKind = "pass"
)

// Valid reports whether the kind is one of the three enumerated actions.
func (k InteractionKind) Valid() bool {
	switch k {
	case KindLike, KindSuperlike, KindPass:
		return true
	}
	return false
}

// Positive reports whether the kind counts toward mutual-match detection.
func (k InteractionKind) Positive() bool {
	return k == KindLike || k == KindSuperlike
}

// Profile is the read model of a dating profile. The profile service owns
// the table; the discovery core only reads it (and seeds it in dev).
type Profile struct {
	ID           uint64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string   `gorm:"size:64;not null" json:"name"`
	Age          int      `gorm:"not null;index" json:"age"`
	Gender       string   `gorm:"size:16;not null" json:"gender"`
	Bio          string   `gorm:"size:1024" json:"bio"`
	City         string   `gorm:"size:64;index" json:"city"`
	Height       int      `gorm:"index" json:"height"` // centimeters
	Education    string   `gorm:"size:32;index" json:"education"`
	Goal         string   `gorm:"size:32;index" json:"goal"`
	Verified     bool     `gorm:"default:false" json:"verified"`
	Interests    []string `gorm:"serializer:json;type:text" json:"interests"`
	Active       bool     `gorm:"default:true" json:"-"`
	PasswordHash string   `gorm:"size:255" json:"-"` // owned by the auth service

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_profile_created_id,priority:1,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Interaction represents an actor's like/superlike/pass toward a target.
//
// Composite PK: (ActorID, TargetID)
//   - Ensures a single row per pair (overwrite guarantee); a repeated
//     action upserts the kind instead of inserting a duplicate.
//
// Indexes:
//   - idx_target_kind_updated_actor(target_id, kind, updated_at DESC, actor_id)
//     Optimizes "who liked me" lists with pagination.
type Interaction struct {
	ActorID   uint64          `gorm:"primaryKey" json:"actor_id"`
	TargetID  uint64          `gorm:"primaryKey;index:idx_target_kind_updated_actor,priority:1" json:"target_id"`
	Kind      InteractionKind `gorm:"size:16;not null;index:idx_target_kind_updated_actor,priority:2" json:"type"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime;index:idx_target_kind_updated_actor,priority:3,sort:desc" json:"updated_at"`
}

// Match records a mutual like between two users, once per unordered pair.
// The application canonicalizes the pair (User1ID < User2ID) before insert;
// the unique index makes creation exactly-once under concurrent reciprocal
// likes.
type Match struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"match_id"`
	User1ID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1" json:"user1_id"`
	User2ID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2" json:"user2_id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// Favorite is a user's bookmark of a profile, independent of interactions.
type Favorite struct {
	UserID    uint64    `gorm:"primaryKey" json:"user_id"`
	TargetID  uint64    `gorm:"primaryKey" json:"target_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
