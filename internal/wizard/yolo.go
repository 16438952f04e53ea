package wizard

import (
	"context"
	"fmt"
)

// YoloResult summarizes an auto-improve run.
type YoloResult struct {
	Generated     bool `json:"generated"`
	Iterations    int  `json:"iterations"`
	Score         int  `json:"score"`
	TargetReached bool `json:"target_reached"`
}

// Yolo generates step's artifact if missing, then repeats recommend and
// improve until the score reaches the target or the iteration cap is hit.
// The score is checked only after a full cycle. Any provider failure ends
// the run; the partial result is returned with the error.
func (c *Controller) Yolo(ctx context.Context, step StepID) (*YoloResult, error) {
	if !step.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if err := c.acquire(step); err != nil {
		return nil, err
	}
	defer c.release(step)

	res := &YoloResult{}

	c.mu.Lock()
	has := c.state.HasArtifact(step)
	if !has && step != StepSetup {
		c.logLocked(LevelInfo, step, fmt.Sprintf("YOLO starting, generating initial artifact for step %d", step))
	}
	c.mu.Unlock()

	if !has {
		if step == StepSetup {
			return nil, fmt.Errorf("yolo step %d: %w", step, ErrNoArtifact)
		}
		if err := c.generate(ctx, step); err != nil {
			return res, fmt.Errorf("yolo step %d: %w", step, err)
		}
		res.Generated = true
	}

	for res.Iterations < c.opts.MaxYoloIterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		recs, err := c.recommend(ctx, step)
		if err != nil {
			return res, fmt.Errorf("yolo step %d: %w", step, err)
		}
		if len(recs) > 0 {
			if _, err := c.improve(ctx, step); err != nil {
				return res, fmt.Errorf("yolo step %d: %w", step, err)
			}
		}
		res.Iterations++

		c.mu.Lock()
		res.Score = c.state.Steps[step].Score
		c.mu.Unlock()

		if res.Score >= c.opts.TargetScore {
			res.TargetReached = true
			break
		}
	}

	c.mu.Lock()
	if res.TargetReached {
		c.logLocked(LevelSuccess, step, fmt.Sprintf("YOLO complete for step %d, score %d%% after %d iterations", step, res.Score, res.Iterations))
	} else {
		c.logLocked(LevelWarning, step, fmt.Sprintf("YOLO reached max iterations for step %d, final score %d%%", step, res.Score))
	}
	c.mu.Unlock()
	c.changed()
	return res, nil
}
