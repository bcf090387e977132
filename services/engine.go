package services

import (
	"context"
	"sync"
	"time"

	"quizclash/models"
	"quizclash/storage"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const tickTimeout = 30 * time.Second

// Engine is the tick scheduler: a fixed-interval scan over in-progress
// matches that drives every time-based transition. It keeps no per-match
// timers, so a restarted process resumes correct behavior purely from the
// persisted question_start_time and question_duration_seconds.
type Engine struct {
	store    storage.MatchStore
	settler  *Settler
	notifier Notifier
	logger   *zap.Logger

	tickInterval time.Duration
	countdown    time.Duration
	now          func() time.Time

	mu    sync.Mutex
	sched gocron.Scheduler
}

func NewEngine(store storage.MatchStore, settler *Settler, notifier Notifier, logger *zap.Logger, tickInterval, countdown time.Duration) *Engine {
	return &Engine{
		store:        store,
		settler:      settler,
		notifier:     notifier,
		logger:       logger,
		tickInterval: tickInterval,
		countdown:    countdown,
		now:          time.Now,
	}
}

// Start launches the tick loop. Calling Start on a running engine is a no-op.
// Singleton mode guarantees a new tick never begins while the previous one is
// still scanning.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched != nil {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(e.tickInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
			defer cancel()
			e.tick(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	sched.Start()
	e.sched = sched
	e.logger.Info("match engine started", zap.Duration("tick_interval", e.tickInterval))
	return nil
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched == nil {
		return
	}
	if err := e.sched.Shutdown(); err != nil {
		e.logger.Warn("engine shutdown error", zap.Error(err))
	}
	e.sched = nil
	e.logger.Info("match engine stopped")
}

// tick runs one scan-and-advance pass. Matches are processed concurrently
// within the pass since no two matches share mutable state.
func (e *Engine) tick(ctx context.Context) {
	e.activateDue(ctx)
	e.progressDue(ctx)
}

// activateDue flips matches whose pre-game countdown has elapsed from
// starting to active, putting the first question live.
func (e *Engine) activateDue(ctx context.Context) {
	matches, err := e.store.ListMatchesByStatus(ctx, models.MatchStarting)
	if err != nil {
		e.logger.Error("tick: failed to list starting matches", zap.Error(err))
		return
	}

	now := e.now()
	for i := range matches {
		match := matches[i]
		if match.StartedAt == nil || now.Sub(*match.StartedAt) < e.countdown {
			continue
		}
		ok, err := e.store.ActivateMatch(ctx, match.ID, now)
		if err != nil {
			e.logger.Error("tick: failed to activate match", zap.String("match_id", match.ID), zap.Error(err))
			continue
		}
		if !ok {
			e.logger.Debug("tick: match activated elsewhere", zap.String("match_id", match.ID))
			continue
		}
		e.publish(ctx, match.ID)
	}
}

// progressDue advances or settles active matches whose question deadline has
// elapsed.
func (e *Engine) progressDue(ctx context.Context) {
	matches, err := e.store.ListMatchesByStatus(ctx, models.MatchActive)
	if err != nil {
		e.logger.Error("tick: failed to list active matches", zap.Error(err))
		return
	}

	now := e.now()
	var wg sync.WaitGroup
	for i := range matches {
		match := matches[i]
		if match.QuestionStartTime == nil {
			continue
		}
		deadline := match.QuestionStartTime.Add(time.Duration(match.QuestionDurationSeconds) * time.Second)
		if now.Before(deadline) {
			continue
		}

		wg.Add(1)
		go func(match models.Match) {
			defer wg.Done()
			e.progressMatch(ctx, &match, now)
		}(match)
	}
	wg.Wait()
}

func (e *Engine) progressMatch(ctx context.Context, match *models.Match, now time.Time) {
	if match.CurrentQuestionIndex+1 < match.TotalQuestions {
		ok, err := e.store.AdvanceQuestion(ctx, match.ID, match.CurrentQuestionIndex, now)
		if err != nil {
			e.logger.Error("tick: failed to advance match", zap.String("match_id", match.ID), zap.Error(err))
			return
		}
		if !ok {
			e.logger.Debug("tick: match advanced elsewhere", zap.String("match_id", match.ID))
			return
		}
		e.logger.Info("advanced match",
			zap.String("match_id", match.ID),
			zap.Int("question_index", match.CurrentQuestionIndex+1))
		e.publish(ctx, match.ID)
		return
	}

	if err := e.settler.Settle(ctx, match); err != nil {
		e.logger.Error("tick: settlement failed", zap.String("match_id", match.ID), zap.Error(err))
	}
}

func (e *Engine) publish(ctx context.Context, matchID string) {
	if e.notifier == nil {
		return
	}
	match, err := e.store.GetMatch(ctx, matchID)
	if err != nil {
		e.logger.Warn("tick: failed to load match for notification", zap.String("match_id", matchID), zap.Error(err))
		return
	}
	e.notifier.PublishMatch(ctx, match)
}
