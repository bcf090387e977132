package services

import (
	"context"
	"fmt"
	"time"

	"quizclash/models"
	"quizclash/storage"

	"go.uber.org/zap"
)

const (
	testPlayer1  = "11111111-1111-1111-1111-111111111111"
	testPlayer2  = "22222222-2222-2222-2222-222222222222"
	testOutsider = "33333333-3333-3333-3333-333333333333"
)

type stubGenerator struct {
	questions []GeneratedQuestion
	err       error
}

func (g *stubGenerator) Generate(ctx context.Context, topic string, count int, difficulty string) ([]GeneratedQuestion, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.questions, nil
}

func generatedQuestions(count int) []GeneratedQuestion {
	questions := make([]GeneratedQuestion, count)
	for i := range questions {
		options := make([]GeneratedOption, 4)
		for j := range options {
			options[j] = GeneratedOption{Index: j, Option: fmt.Sprintf("option %d", j)}
		}
		questions[i] = GeneratedQuestion{
			Question: fmt.Sprintf("question %d", i),
			Options:  options,
			Answer:   i % 4,
		}
	}
	return questions
}

// seedMatch inserts a match with both players and total question rows, in the
// given status. Question i's correct option is i%4.
func seedMatch(store *storage.MemoryStore, id string, status models.MatchStatus, total, durationSec int) *models.Match {
	p2 := testPlayer2
	match := &models.Match{
		ID:                      id,
		Player1ID:               testPlayer1,
		Player2ID:               &p2,
		Status:                  status,
		Category:                "history",
		CurrentQuestionIndex:    0,
		QuestionDurationSeconds: durationSec,
		TotalQuestions:          total,
		CreatedAt:               time.Now(),
	}
	if status == models.MatchWaiting {
		match.Player2ID = nil
	}
	store.CreateMatch(context.Background(), match)

	questions := make([]models.MatchQuestion, total)
	for i := range questions {
		questions[i] = models.MatchQuestion{
			ID:            fmt.Sprintf("%s-q%d", id, i),
			MatchID:       id,
			QuestionIndex: i,
			QuestionText:  fmt.Sprintf("question %d", i),
			CorrectOption: i % 4,
		}
	}
	store.CreateQuestions(context.Background(), questions)

	stored, _ := store.GetMatch(context.Background(), id)
	return stored
}

func answerQuestion(store *storage.MemoryStore, matchID, playerID string, questionIndex, option int) {
	store.CreateAnswer(context.Background(), &models.MatchAnswer{
		ID:             fmt.Sprintf("%s-a-%s-%d", matchID, playerID, questionIndex),
		MatchID:        matchID,
		PlayerID:       playerID,
		QuestionID:     fmt.Sprintf("%s-q%d", matchID, questionIndex),
		SelectedOption: option,
		CreatedAt:      time.Now(),
	})
}

// activateAt drives a ready match to active at the given question index with
// the question clock set to start.
func activateAt(store *storage.MemoryStore, matchID string, start time.Time, index int) {
	ctx := context.Background()
	store.MarkStarting(ctx, matchID, start)
	store.ActivateMatch(ctx, matchID, start)
	for i := 0; i < index; i++ {
		store.AdvanceQuestion(ctx, matchID, i, start)
	}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
