package db

import (
	"time"
)

// SwipeAction is the decision an actor takes on a target profile.
type SwipeAction string

const (
	ActionLike SwipeAction = "like"
	ActionPass SwipeAction = "pass"
)

// Valid reports whether a is one of the known actions.
func (a SwipeAction) Valid() bool {
	return a == ActionLike || a == ActionPass
}

// User table. Identity is immutable; profile fields are mutated by the
// profile service, this engine only reads them.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	FirstName    string `gorm:"size:64"`
	Gender       string `gorm:"size:16"`
	Birthdate    *time.Time
	PhotoURL     string `gorm:"size:255"`
	Bio          string `gorm:"size:1024"`
	Interests    string `gorm:"size:512"`
	LastLoginAt  time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// ProfileComplete reports whether the profile may appear in discovery.
// Photo, first name, birthdate and gender are all required.
func (u *User) ProfileComplete() bool {
	return u.PhotoURL != "" && u.FirstName != "" && u.Birthdate != nil && u.Gender != ""
}

// Age in whole years at the given instant. Zero when birthdate is unset.
func (u *User) Age(now time.Time) int {
	if u.Birthdate == nil {
		return 0
	}
	years := now.Year() - u.Birthdate.Year()
	anniversary := u.Birthdate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// Swipe represents an actor's like/pass decision on a target.
//
// Composite PK: (ActorID, TargetID)
//   - The store rejects a second decision for the same pair; the ledger
//     is append-only, decisions are never overwritten.
//
// Index idx_target_action(target_id, action) serves the reverse-like
// lookup during match detection and the "who liked me" listings.
type Swipe struct {
	ActorID   uint64      `gorm:"primaryKey"`
	TargetID  uint64      `gorm:"primaryKey;index:idx_target_action,priority:1"`
	Action    SwipeAction `gorm:"size:8;not null;index:idx_target_action,priority:2"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
}

// Match records a mutual like, one row per unordered pair.
//
// Composite PK: (UserAID, UserBID) with UserAID < UserBID enforced by
// the repository, so racing flows collapse onto the same row and the
// loser observes a duplicate-key conflict.
type Match struct {
	UserAID   uint64    `gorm:"primaryKey"`
	UserBID   uint64    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// HasUser reports whether id is either side of the match.
func (m *Match) HasUser(id uint64) bool {
	return m.UserAID == id || m.UserBID == id
}

// OtherUserID returns the opposite side of the match for id.
func (m *Match) OtherUserID(id uint64) (uint64, bool) {
	if m.UserAID == id {
		return m.UserBID, true
	}
	if m.UserBID == id {
		return m.UserAID, true
	}
	return 0, false
}

// Block is a unidirectional visibility suppression. Discovery excludes
// in both directions regardless of who created the block.
type Block struct {
	BlockerID uint64    `gorm:"primaryKey"`
	BlockedID uint64    `gorm:"primaryKey;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
