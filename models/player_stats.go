package models

import "time"

// PlayerStats holds per-user aggregate counters. Rows are mutated only through
// atomic increments issued by settlement, never read-modify-write.
type PlayerStats struct {
	UserID        string    `json:"user_id" gorm:"primaryKey;type:uuid"`
	MatchesPlayed int       `json:"matches_played" gorm:"not null;default:0"`
	Wins          int       `json:"wins" gorm:"not null;default:0"`
	Losses        int       `json:"losses" gorm:"not null;default:0"`
	UpdatedAt     time.Time `json:"updated_at"`
}
