package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MatchStatus string

const (
	MatchWaiting   MatchStatus = "waiting"
	MatchReady     MatchStatus = "ready"
	MatchStarting  MatchStatus = "starting"
	MatchActive    MatchStatus = "active"
	MatchFinished  MatchStatus = "finished"
	MatchCancelled MatchStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchFinished || s == MatchCancelled
}

type Match struct {
	ID                      string          `json:"id" gorm:"primaryKey;type:uuid"`
	Player1ID               string          `json:"player1_id" gorm:"type:uuid;not null;index"`
	Player2ID               *string         `json:"player2_id" gorm:"type:uuid;index"`
	Status                  MatchStatus     `json:"status" gorm:"type:varchar(16);not null;default:'waiting';index"`
	Category                string          `json:"category" gorm:"not null"`
	StakeAmount             decimal.Decimal `json:"stake_amount" gorm:"type:numeric(12,2);not null"`
	WinnerID                *string         `json:"winner_id" gorm:"type:uuid"` // nil on a finished match means draw
	CurrentQuestionIndex    int             `json:"current_question_index" gorm:"not null;default:0"`
	QuestionStartTime       *time.Time      `json:"question_start_time"`
	QuestionDurationSeconds int             `json:"question_duration_seconds" gorm:"not null"`
	TotalQuestions          int             `json:"total_questions" gorm:"not null"`
	CreatedAt               time.Time       `json:"created_at"`
	StartedAt               *time.Time      `json:"started_at"`
	FinishedAt              *time.Time      `json:"finished_at"`

	// Relationships
	Questions []MatchQuestion `json:"questions,omitempty" gorm:"foreignKey:MatchID"`
	Answers   []MatchAnswer   `json:"answers,omitempty" gorm:"foreignKey:MatchID"`
}

// IsParticipant reports whether userID is one of the two players.
func (m *Match) IsParticipant(userID string) bool {
	if m.Player1ID == userID {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == userID
}
