package storage

import (
	"context"
	"errors"
	"time"

	"quizclash/models"
)

var (
	// ErrNotFound is returned when a referenced match or question does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateAnswer is returned when a player already answered that question.
	ErrDuplicateAnswer = errors.New("answer already submitted")
)

// MatchStore is the persistence gateway for the match engine. Every state
// transition is a single conditional write: the bool result reports whether
// the row still matched the expected prior state. A false result means another
// actor got there first and the caller must skip, not retry.
type MatchStore interface {
	CreateMatch(ctx context.Context, match *models.Match) error
	DeleteMatch(ctx context.Context, matchID string) error
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	ListMatchesByStatus(ctx context.Context, status models.MatchStatus) ([]models.Match, error)

	SetPlayer2(ctx context.Context, matchID, userID string) (bool, error)
	MarkStarting(ctx context.Context, matchID string, at time.Time) (bool, error)
	ActivateMatch(ctx context.Context, matchID string, at time.Time) (bool, error)
	AdvanceQuestion(ctx context.Context, matchID string, fromIndex int, at time.Time) (bool, error)
	FinishMatch(ctx context.Context, matchID string, winnerID *string, at time.Time) (bool, error)
	CancelMatch(ctx context.Context, matchID string) (bool, error)

	CreateQuestions(ctx context.Context, questions []models.MatchQuestion) error
	ListQuestions(ctx context.Context, matchID string) ([]models.MatchQuestion, error)
	GetQuestionByIndex(ctx context.Context, matchID string, index int) (*models.MatchQuestion, error)

	CreateAnswer(ctx context.Context, answer *models.MatchAnswer) error
	HasAnswer(ctx context.Context, matchID, playerID, questionID string) (bool, error)
	ListAnswers(ctx context.Context, matchID string) ([]models.MatchAnswer, error)

	IncrementPlayerStats(ctx context.Context, userID string, played, wins, losses int) error
}
