// Package evaluation hands finished debates to the judge and records the verdict.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/argumentor/internal/judge"
	"github.com/jason-s-yu/argumentor/internal/models"
	"github.com/jason-s-yu/argumentor/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotReady means the debate is not ENDED yet.
	ErrNotReady = errors.New("debate is not ready for evaluation")
	// ErrAlreadyEvaluated is returned together with the evaluation already on record.
	ErrAlreadyEvaluated = errors.New("debate already evaluated")
)

// DefaultTimeout bounds a single judge call.
const DefaultTimeout = 60 * time.Second

// LockFunc acquires the per-room lock and returns its release.
type LockFunc func(roomCode string) (unlock func())

// Trigger runs at most one judge call per room at a time.
type Trigger struct {
	store   store.Store
	judge   judge.Judge
	lock    LockFunc
	logger  *logrus.Logger
	timeout time.Duration
	group   singleflight.Group

	Now   func() time.Time
	NewID func() string
}

// NewTrigger wires a trigger. A nil lock means the caller serializes writes itself.
func NewTrigger(st store.Store, j judge.Judge, lock LockFunc, logger *logrus.Logger, timeout time.Duration) *Trigger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if lock == nil {
		lock = func(string) func() { return func() {} }
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Trigger{
		store:   st,
		judge:   j,
		lock:    lock,
		logger:  logger,
		timeout: timeout,
		Now:     time.Now,
		NewID:   func() string { return uuid.NewString() },
	}
}

// Evaluate judges an ENDED debate and persists it as EVALUATED. Concurrent
// calls for the same room share one judge request. On judge failure nothing
// is written and the debate stays ENDED, so the call can be retried.
func (t *Trigger) Evaluate(ctx context.Context, roomCode string) (models.Debate, error) {
	v, err, _ := t.group.Do(roomCode, func() (any, error) {
		return t.evaluate(ctx, roomCode)
	})
	d, _ := v.(models.Debate)
	return d, err
}

func (t *Trigger) evaluate(ctx context.Context, roomCode string) (models.Debate, error) {
	log := t.logger.WithField("room", roomCode)

	d, err := t.store.Get(ctx, roomCode)
	if err != nil {
		return models.Debate{}, err
	}
	if d.Evaluation != nil {
		return *d, ErrAlreadyEvaluated
	}
	if d.Status != models.StatusEnded {
		return *d, ErrNotReady
	}

	judgeCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	start := t.Now()
	verdict, err := t.judge.Evaluate(judgeCtx, FormatTranscript(*d))
	if err != nil {
		log.WithError(err).Warn("judge call failed; debate stays ENDED")
		return *d, fmt.Errorf("evaluate %s: %w", roomCode, err)
	}
	log.WithField("elapsed", t.Now().Sub(start)).Debug("judge answered")

	eval := models.Evaluation{
		ID:        t.NewID(),
		Winner:    verdict.Winner,
		ScoreA:    ClampScore(verdict.ScoreA),
		ScoreB:    ClampScore(verdict.ScoreB),
		Reasoning: verdict.Reasoning,
		CreatedAt: t.Now().UTC(),
	}

	unlock := t.lock(roomCode)
	defer unlock()

	// Re-read under the lock; the room may have moved on while the judge ran.
	current, err := t.store.Get(ctx, roomCode)
	if err != nil {
		return models.Debate{}, err
	}
	if current.Evaluation != nil {
		return *current, ErrAlreadyEvaluated
	}
	if current.Status != models.StatusEnded {
		return *current, ErrNotReady
	}

	next := current.Clone()
	next.Evaluation = &eval
	next.Status = models.StatusEvaluated
	if err := t.store.Put(ctx, next); err != nil {
		log.WithError(err).Error("failed to persist evaluation")
		return *current, err
	}

	winner := "undetermined"
	if eval.Winner != nil {
		winner = string(*eval.Winner)
	}
	log.WithFields(logrus.Fields{
		"winner": winner,
		"scoreA": eval.ScoreA,
		"scoreB": eval.ScoreB,
	}).Info("debate evaluated")
	return next, nil
}

// ClampScore bounds a judge score to [0, 100]; NaN counts as 0.
func ClampScore(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 100:
		return 100
	}
	return s
}
