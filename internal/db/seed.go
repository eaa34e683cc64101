package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	seedCities     = []string{"Moscow", "Saint Petersburg", "Kazan", "Novosibirsk", "Yekaterinburg"}
	seedGoals      = []string{"relationship", "friendship", "casual", "networking"}
	seedEducations = []string{"school", "bachelor", "master", "phd"}
	seedInterests  = []string{"travel", "music", "sport", "movies", "books", "cooking", "hiking", "photography"}
)

// SeedTestData resets the database and populates it with demo profiles,
// interactions, matches and favorites.
//
// Behavior:
//  1. Clears existing data in all four tables.
//  2. Creates 20 profiles (10 male, 10 female) with hashed passwords.
//  3. Generates ~200 interactions with ~70% likes; every 3rd pair is made
//     mutual, and a match row is created for each mutual pair the same way
//     the engine would.
//  4. Bookmarks a few profiles per user.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"favorites", "matches", "interactions", "profiles"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE profiles AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE matches AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('profiles', 'matches')")
	}

	log.Println("Cleared existing data")

	// --- Profiles (10 male, 10 female) ---
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender := "male"
		if i > 10 {
			gender = "female"
		}

		interests := make([]string, 0, 3)
		for _, idx := range r.Perm(len(seedInterests))[:3] {
			interests = append(interests, seedInterests[idx])
		}

		profile := Profile{
			Name:         fmt.Sprintf("user%d", i),
			Age:          18 + r.Intn(22),
			Gender:       gender,
			Bio:          fmt.Sprintf("Hi, I am user%d. Ask me about %s.", i, interests[0]),
			City:         seedCities[r.Intn(len(seedCities))],
			Height:       150 + r.Intn(50),
			Education:    seedEducations[r.Intn(len(seedEducations))],
			Goal:         seedGoals[r.Intn(len(seedGoals))],
			Verified:     r.Intn(100) < 40,
			Interests:    interests,
			Active:       true,
			PasswordHash: string(hash),
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	}
	log.Println("Seeded 20 profiles.")

	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
	}

	// --- Interactions (~200) ---
	counter := 0
	for actorID := uint64(1); actorID <= 20; actorID++ {
		for j := 0; j < 12; j++ { // each user decides on ~12 others
			targetID := uint64(r.Intn(20) + 1)
			if actorID == targetID {
				continue
			}

			var actor, target Profile
			if err := db.First(&actor, actorID).Error; err != nil {
				continue
			}
			if err := db.First(&target, targetID).Error; err != nil {
				continue
			}
			if actor.Gender == target.Gender {
				continue
			}

			kind := KindPass
			if r.Intn(100) < 70 {
				kind = KindLike
			}

			// guarantee mutual likes (and their match) every 3rd pair
			if counter%3 == 0 {
				kind = KindLike
				recip := Interaction{ActorID: targetID, TargetID: actorID, Kind: KindLike}
				db.Clauses(upsert).Create(&recip)

				u1, u2 := actorID, targetID
				if u2 < u1 {
					u1, u2 = u2, u1
				}
				match := Match{User1ID: u1, User2ID: u2}
				db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
					DoNothing: true,
				}).Create(&match)
			}

			interaction := Interaction{ActorID: actorID, TargetID: targetID, Kind: kind}
			if err := db.Clauses(upsert).Create(&interaction).Error; err != nil {
				return fmt.Errorf("failed to seed interaction: %w", err)
			}

			counter++
		}
	}

	// --- Favorites (a few per user) ---
	for userID := uint64(1); userID <= 20; userID++ {
		for j := 0; j < 2; j++ {
			targetID := uint64(r.Intn(20) + 1)
			if userID == targetID {
				continue
			}
			fav := Favorite{UserID: userID, TargetID: targetID}
			db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav)
		}
	}

	return nil
}
