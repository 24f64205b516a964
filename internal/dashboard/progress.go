package dashboard

import (
	"context"
	"time"
)

// Progress is the cosmetic progress indicator shown on every run.
// It has no effect on the result.
type Progress struct {
	Steps     int
	StepDelay time.Duration
}

// Run advances through every step, pausing StepDelay before each, and
// calls onStep with the completed step number. It stops early when ctx is
// cancelled and returns the number of steps completed.
func (p Progress) Run(ctx context.Context, onStep func(step int)) (int, error) {
	var timer *time.Timer
	if p.StepDelay > 0 {
		timer = time.NewTimer(p.StepDelay)
		defer timer.Stop()
	}

	for i := 1; i <= p.Steps; i++ {
		if timer != nil {
			if i > 1 {
				timer.Reset(p.StepDelay)
			}
			select {
			case <-ctx.Done():
				return i - 1, ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return i - 1, err
		}
		if onStep != nil {
			onStep(i)
		}
	}
	return p.Steps, nil
}

// Percent converts a completed step count to a 0-100 value.
func (p Progress) Percent(done int) int {
	if p.Steps <= 0 {
		return 100
	}
	return done * 100 / p.Steps
}
