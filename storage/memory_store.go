package storage

import (
	"context"
	"sync"
	"time"

	"quizclash/models"
)

// MemoryStore is an in-memory MatchStore with the same conditional-write
// semantics as the Postgres implementation. It backs package tests and local
// development without a database.
type MemoryStore struct {
	mu        sync.Mutex
	matches   map[string]*models.Match
	questions map[string][]models.MatchQuestion
	answers   map[string][]models.MatchAnswer
	stats     map[string]*models.PlayerStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches:   make(map[string]*models.Match),
		questions: make(map[string][]models.MatchQuestion),
		answers:   make(map[string][]models.MatchAnswer),
		stats:     make(map[string]*models.PlayerStats),
	}
}

func (s *MemoryStore) CreateMatch(ctx context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *match
	s.matches[match.ID] = &clone
	return nil
}

func (s *MemoryStore) DeleteMatch(ctx context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, matchID)
	delete(s.questions, matchID)
	delete(s.answers, matchID)
	return nil
}

func (s *MemoryStore) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[matchID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *match
	return &clone, nil
}

func (s *MemoryStore) ListMatchesByStatus(ctx context.Context, status models.MatchStatus) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Match
	for _, match := range s.matches {
		if match.Status == status {
			out = append(out, *match)
		}
	}
	return out, nil
}

func (s *MemoryStore) SetPlayer2(ctx context.Context, matchID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[matchID]
	if !ok || match.Status != models.MatchWaiting || match.Player2ID != nil {
		return false, nil
	}
	uid := userID
	match.Player2ID = &uid
	match.Status = models.MatchReady
	return true, nil
}

func (s *MemoryStore) MarkStarting(ctx context.Context, matchID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[matchID]
	if !ok || match.Status != models.MatchReady {
		return false, nil
	}
	t := at
	match.Status = models.MatchStarting
	match.StartedAt = &t
	return true, nil
}

func (s *MemoryStore) ActivateMatch(ctx context.Context, matchID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[matchID]
	if !ok || match.Status != models.MatchStarting {
		return false, nil
	}
	t := at
	match.Status = models.MatchActive
	match.CurrentQuestionIndex = 0
	match.QuestionStartTime = &t
	return true, nil
}

func (s *MemoryStore) AdvanceQuestion(ctx context.Context, matchID string, fromIndex int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[matchID]
	if !ok || match.Status != models.MatchActive || match.CurrentQuestionIndex != fromIndex {
		return false, nil
	}
	t := at
	match.CurrentQuestionIndex = fromIndex + 1
	match.QuestionStartTime = &t
	return true, nil
}

func (s *MemoryStore) FinishMatch(ctx context.Context, matchID string, winnerID *string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[matchID]
	if !ok || match.Status != models.MatchActive {
		return false, nil
	}
	t := at
	match.Status = models.MatchFinished
	match.WinnerID = winnerID
	match.QuestionStartTime = nil
	match.FinishedAt = &t
	return true, nil
}

func (s *MemoryStore) CancelMatch(ctx context.Context, matchID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[matchID]
	if !ok || match.Status.IsTerminal() {
		return false, nil
	}
	match.Status = models.MatchCancelled
	return true, nil
}

func (s *MemoryStore) CreateQuestions(ctx context.Context, questions []models.MatchQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range questions {
		s.questions[q.MatchID] = append(s.questions[q.MatchID], q)
	}
	return nil
}

func (s *MemoryStore) ListQuestions(ctx context.Context, matchID string) ([]models.MatchQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	questions := append([]models.MatchQuestion(nil), s.questions[matchID]...)
	return questions, nil
}

func (s *MemoryStore) GetQuestionByIndex(ctx context.Context, matchID string, index int) (*models.MatchQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions[matchID] {
		if q.QuestionIndex == index {
			clone := q
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateAnswer(ctx context.Context, answer *models.MatchAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers[answer.MatchID] {
		if a.PlayerID == answer.PlayerID && a.QuestionID == answer.QuestionID {
			return ErrDuplicateAnswer
		}
	}
	s.answers[answer.MatchID] = append(s.answers[answer.MatchID], *answer)
	return nil
}

func (s *MemoryStore) HasAnswer(ctx context.Context, matchID, playerID, questionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers[matchID] {
		if a.PlayerID == playerID && a.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListAnswers(ctx context.Context, matchID string) ([]models.MatchAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := append([]models.MatchAnswer(nil), s.answers[matchID]...)
	return answers, nil
}

func (s *MemoryStore) IncrementPlayerStats(ctx context.Context, userID string, played, wins, losses int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.stats[userID]
	if !ok {
		stats = &models.PlayerStats{UserID: userID}
		s.stats[userID] = stats
	}
	stats.MatchesPlayed += played
	stats.Wins += wins
	stats.Losses += losses
	stats.UpdatedAt = time.Now()
	return nil
}

// Stats returns a copy of a user's counters, for assertions in tests.
func (s *MemoryStore) Stats(userID string) models.PlayerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stats, ok := s.stats[userID]; ok {
		return *stats
	}
	return models.PlayerStats{UserID: userID}
}
