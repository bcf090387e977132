package services

import (
	"context"
	"errors"
	"time"

	"quizclash/models"
	"quizclash/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MatchService owns the client-facing transitions of the match state machine:
// create, join, start, submit and cancel. Time-driven transitions (activate,
// advance, finish) belong to the Engine.
type MatchService struct {
	store     storage.MatchStore
	generator QuestionGenerator
	notifier  Notifier
	logger    *zap.Logger

	optionCount int
	now         func() time.Time
}

func NewMatchService(store storage.MatchStore, generator QuestionGenerator, notifier Notifier, logger *zap.Logger, optionCount int) *MatchService {
	return &MatchService{
		store:       store,
		generator:   generator,
		notifier:    notifier,
		logger:      logger,
		optionCount: optionCount,
		now:         time.Now,
	}
}

type CreateMatchRequest struct {
	TimePerQuestion int             `json:"time_per_que" binding:"required,min=1"`
	Category        string          `json:"category" binding:"required"`
	TotalQuestions  int             `json:"total_questions" binding:"required,min=1"`
	StakeAmount     decimal.Decimal `json:"stake_amount"`
	Difficulty      string          `json:"difficulty" binding:"required"`
}

type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     *int   `json:"answer" binding:"required"`
}

// QuestionView is the sanitized question shape returned to players: the
// correct option index is never included while the match is underway.
type QuestionView struct {
	ID            string               `json:"id"`
	QuestionIndex int                  `json:"question_index"`
	QuestionText  string               `json:"question_text"`
	Options       []models.MatchOption `json:"options"`
}

func (s *MatchService) Create(ctx context.Context, userID string, req *CreateMatchRequest) (*models.Match, error) {
	if req.StakeAmount.IsNegative() {
		return nil, validationError("stake_amount must not be negative")
	}

	// Generate the full batch before touching the store so a generator
	// failure never leaves a question-less match behind.
	generated, err := s.generator.Generate(ctx, req.Category, req.TotalQuestions, req.Difficulty)
	if err != nil {
		s.logger.Error("question generation failed",
			zap.String("category", req.Category),
			zap.Int("count", req.TotalQuestions),
			zap.Error(err))
		return nil, dependencyError("failed to generate questions")
	}

	match := &models.Match{
		ID:                      uuid.NewString(),
		Player1ID:               userID,
		Status:                  models.MatchWaiting,
		Category:                req.Category,
		StakeAmount:             req.StakeAmount,
		QuestionDurationSeconds: req.TimePerQuestion,
		TotalQuestions:          req.TotalQuestions,
		CreatedAt:               s.now(),
	}
	if err := s.store.CreateMatch(ctx, match); err != nil {
		s.logger.Error("failed to create match", zap.Error(err))
		return nil, dependencyError("failed to create match")
	}

	questions := make([]models.MatchQuestion, len(generated))
	for i, q := range generated {
		options := make([]models.MatchOption, len(q.Options))
		for j, opt := range q.Options {
			options[j] = models.MatchOption{OptionIndex: opt.Index, Label: opt.Option}
		}
		questions[i] = models.MatchQuestion{
			ID:            uuid.NewString(),
			MatchID:       match.ID,
			QuestionIndex: i,
			QuestionText:  q.Question,
			CorrectOption: q.Answer,
			Options:       options,
		}
	}
	if err := s.store.CreateQuestions(ctx, questions); err != nil {
		s.logger.Error("failed to persist questions, rolling back match",
			zap.String("match_id", match.ID), zap.Error(err))
		if delErr := s.store.DeleteMatch(ctx, match.ID); delErr != nil {
			s.logger.Error("compensating match delete failed", zap.String("match_id", match.ID), zap.Error(delErr))
		}
		return nil, dependencyError("failed to create match questions")
	}

	s.publish(ctx, match.ID)
	return match, nil
}

func (s *MatchService) Join(ctx context.Context, userID, matchID string) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if match.Player1ID == userID {
		return nil, authorizationError("cannot join your own match")
	}
	if match.Status != models.MatchWaiting {
		return nil, stateConflictError("match is not open for joining")
	}

	ok, err := s.store.SetPlayer2(ctx, matchID, userID)
	if err != nil {
		s.logger.Error("failed to join match", zap.String("match_id", matchID), zap.Error(err))
		return nil, dependencyError("failed to join match")
	}
	if !ok {
		// Someone else joined between the read and the conditional write.
		return nil, stateConflictError("match is not open for joining")
	}

	s.publish(ctx, matchID)
	return s.getMatch(ctx, matchID)
}

// Start moves a ready match into its pre-game countdown and returns the
// sanitized question list. The engine activates the match once the countdown
// elapses.
func (s *MatchService) Start(ctx context.Context, userID, matchID string) ([]QuestionView, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if match.Player1ID != userID {
		return nil, authorizationError("only the match creator can start it")
	}
	if match.Status != models.MatchReady {
		return nil, stateConflictError("match is not ready to start")
	}

	questions, err := s.store.ListQuestions(ctx, matchID)
	if err != nil {
		s.logger.Error("failed to load questions", zap.String("match_id", matchID), zap.Error(err))
		return nil, dependencyError("failed to load match questions")
	}
	if len(questions) != match.TotalQuestions {
		s.logger.Error("question count mismatch",
			zap.String("match_id", matchID),
			zap.Int("have", len(questions)),
			zap.Int("want", match.TotalQuestions))
		return nil, dependencyError("match questions are incomplete")
	}

	ok, err := s.store.MarkStarting(ctx, matchID, s.now())
	if err != nil {
		s.logger.Error("failed to start match", zap.String("match_id", matchID), zap.Error(err))
		return nil, dependencyError("failed to start match")
	}
	if !ok {
		return nil, stateConflictError("match is not ready to start")
	}

	views := make([]QuestionView, len(questions))
	for i, q := range questions {
		views[i] = QuestionView{
			ID:            q.ID,
			QuestionIndex: q.QuestionIndex,
			QuestionText:  q.QuestionText,
			Options:       q.Options,
		}
	}

	s.publish(ctx, matchID)
	return views, nil
}

// SubmitAnswer records one answer against the match's current question.
// Scoring is deferred entirely to settlement.
func (s *MatchService) SubmitAnswer(ctx context.Context, userID, matchID string, req *SubmitAnswerRequest) error {
	if req.Answer == nil || *req.Answer < 0 || *req.Answer >= s.optionCount {
		return validationError("answer must be between 0 and %d", s.optionCount-1)
	}

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status != models.MatchActive {
		return stateConflictError("match is not active")
	}
	if !match.IsParticipant(userID) {
		return authorizationError("user is not a participant of this match")
	}

	// The client-declared question id is only accepted when it names the
	// question that is live right now; stale submissions are rejected.
	current, err := s.store.GetQuestionByIndex(ctx, matchID, match.CurrentQuestionIndex)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return stateConflictError("no question is currently live")
		}
		s.logger.Error("failed to load current question", zap.String("match_id", matchID), zap.Error(err))
		return dependencyError("failed to load current question")
	}
	if current.ID != req.QuestionID {
		return stateConflictError("question is no longer current")
	}

	exists, err := s.store.HasAnswer(ctx, matchID, userID, req.QuestionID)
	if err != nil {
		s.logger.Error("failed to check existing answer", zap.String("match_id", matchID), zap.Error(err))
		return dependencyError("failed to record answer")
	}
	if exists {
		return stateConflictError("answer already submitted")
	}

	answer := &models.MatchAnswer{
		ID:             uuid.NewString(),
		MatchID:        matchID,
		PlayerID:       userID,
		QuestionID:     req.QuestionID,
		SelectedOption: *req.Answer,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateAnswer(ctx, answer); err != nil {
		if errors.Is(err, storage.ErrDuplicateAnswer) {
			return stateConflictError("answer already submitted")
		}
		s.logger.Error("failed to record answer", zap.String("match_id", matchID), zap.Error(err))
		return dependencyError("failed to record answer")
	}
	return nil
}

// Cancel lets the creator abandon a match that has not reached a terminal
// state.
func (s *MatchService) Cancel(ctx context.Context, userID, matchID string) error {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Player1ID != userID {
		return authorizationError("only the match creator can cancel it")
	}
	if match.Status.IsTerminal() {
		return stateConflictError("match is already over")
	}

	ok, err := s.store.CancelMatch(ctx, matchID)
	if err != nil {
		s.logger.Error("failed to cancel match", zap.String("match_id", matchID), zap.Error(err))
		return dependencyError("failed to cancel match")
	}
	if !ok {
		return stateConflictError("match is already over")
	}

	s.publish(ctx, matchID)
	return nil
}

func (s *MatchService) Get(ctx context.Context, matchID string) (*models.Match, error) {
	return s.getMatch(ctx, matchID)
}

func (s *MatchService) getMatch(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFoundError("match not found")
		}
		s.logger.Error("failed to load match", zap.String("match_id", matchID), zap.Error(err))
		return nil, dependencyError("failed to load match")
	}
	return match, nil
}

func (s *MatchService) publish(ctx context.Context, matchID string) {
	if s.notifier == nil {
		return
	}
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		s.logger.Warn("failed to load match for notification", zap.String("match_id", matchID), zap.Error(err))
		return
	}
	s.notifier.PublishMatch(ctx, match)
}
