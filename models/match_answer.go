package models

import "time"

// MatchAnswer is an append-only submission record. The composite unique index
// guarantees at most one answer per player per question.
type MatchAnswer struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid"`
	MatchID        string    `json:"match_id" gorm:"type:uuid;not null;uniqueIndex:idx_match_player_question"`
	PlayerID       string    `json:"player_id" gorm:"type:uuid;not null;uniqueIndex:idx_match_player_question"`
	QuestionID     string    `json:"question_id" gorm:"type:uuid;not null;uniqueIndex:idx_match_player_question"`
	SelectedOption int       `json:"selected_option" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
}
