package services

import (
	"context"
	"sync"
	"time"

	"quizclash/models"
	"quizclash/storage"

	"go.uber.org/zap"
)

// Settler computes final scores and performs the one-time terminal transition
// for a match. It is safe to call concurrently for the same match: only the
// actor whose conditional finish write lands also writes the stats.
type Settler struct {
	store    storage.MatchStore
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewSettler(store storage.MatchStore, notifier Notifier, logger *zap.Logger) *Settler {
	return &Settler{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Settle scores the match from its full answer set, writes the terminal
// transition and, if that write landed, increments both players' stats.
func (s *Settler) Settle(ctx context.Context, match *models.Match) error {
	if match.Player2ID == nil {
		s.logger.Error("active match missing player2, skipping settlement", zap.String("match_id", match.ID))
		return nil
	}
	player2ID := *match.Player2ID

	questions, err := s.store.ListQuestions(ctx, match.ID)
	if err != nil {
		return err
	}
	correctByQuestion := make(map[string]int, len(questions))
	for _, q := range questions {
		correctByQuestion[q.ID] = q.CorrectOption
	}

	answers, err := s.store.ListAnswers(ctx, match.ID)
	if err != nil {
		return err
	}

	var player1Score, player2Score int
	for _, answer := range answers {
		correct, ok := correctByQuestion[answer.QuestionID]
		if !ok || answer.SelectedOption != correct {
			continue
		}
		switch answer.PlayerID {
		case match.Player1ID:
			player1Score++
		case player2ID:
			player2Score++
		}
	}

	var winnerID *string
	switch {
	case player1Score > player2Score:
		winnerID = &match.Player1ID
	case player2Score > player1Score:
		winnerID = &player2ID
	}
	// nil winner means draw

	finished, err := s.store.FinishMatch(ctx, match.ID, winnerID, s.now())
	if err != nil {
		return err
	}
	if !finished {
		// Another actor settled this match first; it already owns the
		// stats writes.
		s.logger.Debug("match already settled elsewhere", zap.String("match_id", match.ID))
		return nil
	}

	s.logger.Info("match settled",
		zap.String("match_id", match.ID),
		zap.Int("player1_score", player1Score),
		zap.Int("player2_score", player2Score),
		zap.Stringp("winner_id", winnerID))

	s.updateStats(ctx, match.Player1ID, player2ID, winnerID)

	if s.notifier != nil {
		if updated, err := s.store.GetMatch(ctx, match.ID); err == nil {
			s.notifier.PublishMatch(ctx, updated)
		}
	}
	return nil
}

// updateStats issues both players' increments concurrently. A failed
// increment is logged but never unwinds the terminal transition.
func (s *Settler) updateStats(ctx context.Context, player1ID, player2ID string, winnerID *string) {
	type statUpdate struct {
		userID               string
		played, wins, losses int
	}

	var updates []statUpdate
	if winnerID == nil {
		updates = []statUpdate{
			{userID: player1ID, played: 1},
			{userID: player2ID, played: 1},
		}
	} else {
		loserID := player1ID
		if *winnerID == player1ID {
			loserID = player2ID
		}
		updates = []statUpdate{
			{userID: *winnerID, played: 1, wins: 1},
			{userID: loserID, played: 1, losses: 1},
		}
	}

	var wg sync.WaitGroup
	for _, u := range updates {
		wg.Add(1)
		go func(u statUpdate) {
			defer wg.Done()
			if err := s.store.IncrementPlayerStats(ctx, u.userID, u.played, u.wins, u.losses); err != nil {
				s.logger.Error("failed to update player stats",
					zap.String("user_id", u.userID),
					zap.Error(err))
			}
		}(u)
	}
	wg.Wait()
}
