package models

import "time"

// MatchQuestion is immutable once created; one row per (match, question_index).
// CorrectOption is never serialized; clients only ever see sanitized copies.
type MatchQuestion struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	MatchID       string    `json:"match_id" gorm:"type:uuid;not null;index"`
	QuestionIndex int       `json:"question_index" gorm:"not null"`
	QuestionText  string    `json:"question_text" gorm:"not null"`
	CorrectOption int       `json:"-" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`

	// Relationships
	Options []MatchOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

type MatchOption struct {
	ID          uint   `json:"-" gorm:"primaryKey"`
	QuestionID  string `json:"-" gorm:"type:uuid;not null;index"`
	OptionIndex int    `json:"index" gorm:"not null"`
	Label       string `json:"label" gorm:"not null"`
}
