// Package judge talks to the external debate judge. The judge reads a
// transcript and answers with a winner, two scores and its reasoning.
package judge

import (
	"context"
	"errors"

	"github.com/jason-s-yu/argumentor/internal/models"
)

// ErrMalformedVerdict means the judge answered but the answer could not be used.
var ErrMalformedVerdict = errors.New("judge returned a malformed verdict")

// Verdict is the judge's raw answer. Scores are not clamped here.
type Verdict struct {
	Winner    *models.Side
	ScoreA    float64
	ScoreB    float64
	Reasoning string
}

// Judge evaluates a formatted transcript.
type Judge interface {
	Evaluate(ctx context.Context, transcript string) (Verdict, error)
}

// Func adapts a plain function to the Judge interface.
type Func func(ctx context.Context, transcript string) (Verdict, error)

func (f Func) Evaluate(ctx context.Context, transcript string) (Verdict, error) {
	return f(ctx, transcript)
}

// ParseWinner maps the judge's winner string; anything unrecognised is undetermined.
func ParseWinner(raw string) *models.Side {
	switch models.Side(raw) {
	case models.SideA, models.SideB, models.SideTie:
		return models.SidePtr(models.Side(raw))
	}
	return nil
}
