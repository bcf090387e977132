package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"quizclash/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements MatchStore on top of Postgres. Conditional transitions
// rely on the WHERE clause plus RowsAffected, so correctness holds across
// concurrent engine replicas without any in-process locking.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateMatch(ctx context.Context, match *models.Match) error {
	return s.db.WithContext(ctx).Create(match).Error
}

func (s *GormStore) DeleteMatch(ctx context.Context, matchID string) error {
	return s.db.WithContext(ctx).Where("id = ?", matchID).Delete(&models.Match{}).Error
}

func (s *GormStore) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	var match models.Match
	if err := s.db.WithContext(ctx).First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &match, nil
}

func (s *GormStore) ListMatchesByStatus(ctx context.Context, status models.MatchStatus) ([]models.Match, error) {
	var matches []models.Match
	err := s.db.WithContext(ctx).Where("status = ?", status).Find(&matches).Error
	return matches, err
}

func (s *GormStore) SetPlayer2(ctx context.Context, matchID, userID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ? AND player2_id IS NULL", matchID, models.MatchWaiting).
		Updates(map[string]interface{}{
			"player2_id": userID,
			"status":     models.MatchReady,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) MarkStarting(ctx context.Context, matchID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ?", matchID, models.MatchReady).
		Updates(map[string]interface{}{
			"status":     models.MatchStarting,
			"started_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) ActivateMatch(ctx context.Context, matchID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ?", matchID, models.MatchStarting).
		Updates(map[string]interface{}{
			"status":                 models.MatchActive,
			"current_question_index": 0,
			"question_start_time":    at,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) AdvanceQuestion(ctx context.Context, matchID string, fromIndex int, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ? AND current_question_index = ?", matchID, models.MatchActive, fromIndex).
		Updates(map[string]interface{}{
			"current_question_index": fromIndex + 1,
			"question_start_time":    at,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) FinishMatch(ctx context.Context, matchID string, winnerID *string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ?", matchID, models.MatchActive).
		Updates(map[string]interface{}{
			"status":              models.MatchFinished,
			"winner_id":           winnerID,
			"question_start_time": nil,
			"finished_at":         at,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) CancelMatch(ctx context.Context, matchID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status NOT IN ?", matchID, []models.MatchStatus{models.MatchFinished, models.MatchCancelled}).
		Update("status", models.MatchCancelled)
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) CreateQuestions(ctx context.Context, questions []models.MatchQuestion) error {
	return s.db.WithContext(ctx).Create(&questions).Error
}

func (s *GormStore) ListQuestions(ctx context.Context, matchID string) ([]models.MatchQuestion, error) {
	var questions []models.MatchQuestion
	err := s.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("option_index ASC") }).
		Where("match_id = ?", matchID).
		Order("question_index ASC").
		Find(&questions).Error
	return questions, err
}

func (s *GormStore) GetQuestionByIndex(ctx context.Context, matchID string, index int) (*models.MatchQuestion, error) {
	var question models.MatchQuestion
	err := s.db.WithContext(ctx).
		Where("match_id = ? AND question_index = ?", matchID, index).
		First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (s *GormStore) CreateAnswer(ctx context.Context, answer *models.MatchAnswer) error {
	if err := s.db.WithContext(ctx).Create(answer).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAnswer
		}
		return err
	}
	return nil
}

func (s *GormStore) HasAnswer(ctx context.Context, matchID, playerID, questionID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MatchAnswer{}).
		Where("match_id = ? AND player_id = ? AND question_id = ?", matchID, playerID, questionID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) ListAnswers(ctx context.Context, matchID string) ([]models.MatchAnswer, error) {
	var answers []models.MatchAnswer
	err := s.db.WithContext(ctx).Where("match_id = ?", matchID).Find(&answers).Error
	return answers, err
}

// IncrementPlayerStats upserts the counter row and bumps it in a single
// statement so concurrent settlements of different matches never lose updates.
func (s *GormStore) IncrementPlayerStats(ctx context.Context, userID string, played, wins, losses int) error {
	stats := models.PlayerStats{
		UserID:        userID,
		MatchesPlayed: played,
		Wins:          wins,
		Losses:        losses,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"matches_played": gorm.Expr("player_stats.matches_played + ?", played),
			"wins":           gorm.Expr("player_stats.wins + ?", wins),
			"losses":         gorm.Expr("player_stats.losses + ?", losses),
			"updated_at":     time.Now(),
		}),
	}).Create(&stats).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx reports SQLSTATE 23505 for unique constraint violations.
	return err != nil && strings.Contains(err.Error(), "23505")
}
