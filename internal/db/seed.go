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

// SeedTestData resets the database and populates it with demo profiles,
// swipes, blocks, and the matches implied by mutual likes.
//
// Behavior:
//  1. Clears `users`, `swipes`, `blocks`, `matches`.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords and
//     complete profiles, except two left incomplete to exercise the
//     discovery filter.
//  3. Generates swipes with ~70% likes; every 3rd decision pair gets a
//     guaranteed reciprocal like plus its match row.
//  4. Sprinkles a few blocks between users.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"matches", "blocks", "swipes", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}

	log.Println("Cleared existing data")

	// --- Seed Users (10 male, 10 female) ---
	bios := []string{
		"Coffee first, questions later.",
		"Weekend hiker, weekday couch potato.",
		"Will trade playlists on the first date.",
		"Fluent in sarcasm and three languages.",
	}
	interests := []string{
		"hiking,cooking", "music,travel", "films,board games", "running,photography",
	}

	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender := "male"
		if i > 10 {
			gender = "female"
		}

		birth := time.Date(1990+i%12, time.Month(1+i%12), 1+i%27, 0, 0, 0, 0, time.UTC)
		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Gender:       gender,
			FirstName:    fmt.Sprintf("Demo%d", i),
			Birthdate:    &birth,
			PhotoURL:     fmt.Sprintf("https://cdn.example.com/photos/%d.jpg", i),
			Bio:          bios[i%len(bios)],
			Interests:    interests[i%len(interests)],
			Active:       true,
			LastLoginAt:  time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}

		// users 7 and 17 stay out of discovery
		if i == 7 {
			user.PhotoURL = ""
		}
		if i == 17 {
			user.Birthdate = nil
		}

		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	// --- Seed Swipes + Matches ---
	insertSwipe := func(actor, target uint64, action SwipeAction) error {
		swipe := Swipe{ActorID: actor, TargetID: target, Action: action}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).Create(&swipe).Error
	}

	counter := 0
	for actorID := uint64(1); actorID <= 20; actorID++ {
		for j := 0; j < 12; j++ { // each user decides on ~12 others
			targetID := uint64(r.Intn(20) + 1)
			if actorID == targetID {
				continue
			}

			var actor, target User
			if err := db.First(&actor, actorID).Error; err != nil {
				continue
			}
			if err := db.First(&target, targetID).Error; err != nil {
				continue
			}
			if actor.Gender == target.Gender {
				continue
			}

			action := ActionPass
			if r.Intn(100) < 70 {
				action = ActionLike
			}

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 {
				action = ActionLike
				if err := insertSwipe(targetID, actorID, ActionLike); err != nil {
					return fmt.Errorf("failed to seed reciprocal swipe: %w", err)
				}
			}

			if err := insertSwipe(actorID, targetID, action); err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}

			// earlier passes may have pre-empted either insert, so derive
			// the match from what actually landed
			var mutual int64
			db.Model(&Swipe{}).
				Where("(actor_id = ? AND target_id = ?) OR (actor_id = ? AND target_id = ?)",
					actorID, targetID, targetID, actorID).
				Where("action = ?", ActionLike).
				Count(&mutual)
			if mutual == 2 {
				a, b := actorID, targetID
				if b < a {
					a, b = b, a
				}
				match := Match{UserAID: a, UserBID: b}
				if err := db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
					DoNothing: true,
				}).Create(&match).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
			}

			counter++
		}
	}

	// --- A few blocks ---
	blocks := []Block{
		{BlockerID: 1, BlockedID: 15},
		{BlockerID: 12, BlockedID: 3},
	}
	for _, b := range blocks {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoNothing: true,
		}).Create(&b).Error; err != nil {
			return fmt.Errorf("failed to seed block: %w", err)
		}
	}

	return nil
}
