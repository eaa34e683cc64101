package discovery

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/sparkmatch/discovery/internal/db"
	"github.com/sparkmatch/discovery/internal/repository"
)

// ProfileSummary is the read model rendered in discovery, match, favorite
// and admirer lists.
type ProfileSummary struct {
	ID        uint64   `json:"id"`
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Gender    string   `json:"gender"`
	Bio       string   `json:"bio"`
	City      string   `json:"city"`
	Height    int      `json:"height"`
	Education string   `json:"education"`
	Goal      string   `json:"goal"`
	Verified  bool     `json:"verified"`
	Interests []string `json:"interests"`
}

type CandidatePage struct {
	Profiles   []ProfileSummary `json:"profiles"`
	NextCursor *string          `json:"next_cursor"`
}

type InteractionView struct {
	ActorID   uint64             `json:"actor_id"`
	TargetID  uint64             `json:"target_id"`
	Type      db.InteractionKind `json:"type"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// InteractionResult carries the stored interaction plus the match id when
// this very call created the match.
type InteractionResult struct {
	Interaction InteractionView `json:"interaction"`
	MatchID     *uint64         `json:"match_id,omitempty"`
}

type MatchView struct {
	MatchID   uint64         `json:"match_id"`
	Profile   ProfileSummary `json:"profile"`
	CreatedAt time.Time      `json:"created_at"`
}

type MatchPage struct {
	Matches    []MatchView `json:"matches"`
	NextCursor *string     `json:"next_cursor"`
}

type FavoriteView struct {
	UserID    uint64          `json:"user_id"`
	TargetID  uint64          `json:"target_id"`
	Profile   *ProfileSummary `json:"profile,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type FavoritePage struct {
	Favorites  []FavoriteView `json:"favorites"`
	NextCursor *string        `json:"next_cursor"`
}

type AdmirerView struct {
	Profile ProfileSummary `json:"profile"`
	LikedAt time.Time      `json:"liked_at"`
}

type AdmirerPage struct {
	Admirers   []AdmirerView `json:"admirers"`
	NextCursor *string       `json:"next_cursor"`
}

func toProfileSummary(p db.Profile) ProfileSummary {
	return ProfileSummary{
		ID:        p.ID,
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Bio:       p.Bio,
		City:      p.City,
		Height:    p.Height,
		Education: p.Education,
		Goal:      p.Goal,
		Verified:  p.Verified,
		Interests: p.Interests,
	}
}

func toInteractionView(i db.Interaction) InteractionView {
	return InteractionView{
		ActorID:   i.ActorID,
		TargetID:  i.TargetID,
		Type:      i.Kind,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// filterHash derives a compact cache-key component from the filter set.
// Equal filters hash equally; collisions only cost a wrong-type cache
// lookup, never wrong data, since the full key still includes user and
// cursor.
func filterHash(f repository.CandidateFilter) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%t",
		intOrNil(f.AgeMin), intOrNil(f.AgeMax),
		intOrNil(f.HeightMin), intOrNil(f.HeightMax),
		strOrNil(f.Goal), strOrNil(f.Education),
		f.VerifiedOnly,
	)
	return strconv.FormatUint(h.Sum64(), 36)
}

func intOrNil(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func strOrNil(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}
