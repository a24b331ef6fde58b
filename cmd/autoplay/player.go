package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/mcp-training/blockrush/game/engine"
	"github.com/wricardo/mcp-training/blockrush/game/service"
)

// stallBackoff is the minimum pause after a turn that moved nothing
const stallBackoff = 50 * time.Millisecond

// gameAPI is the part of Client the player needs
type gameAPI interface {
	State(ctx context.Context) (*engine.GameState, error)
	Move(ctx context.Context, dir engine.Direction) (*service.MoveResult, error)
	BulkMove(ctx context.Context, dirs []engine.Direction) (*service.BulkMoveResult, error)
}

// Options bounds one autoplay run
type Options struct {
	TargetLevels int
	MaxMoves     int
	MaxStalls    int
	Batch        int
	Delay        time.Duration
}

// Report summarizes an autoplay run
type Report struct {
	Moves         int
	Pushes        int
	Stalls        int
	Level         int
	LevelsCleared int
	Timeouts      int
	Reached       bool
}

func (r *Report) update(state *engine.GameState) {
	r.Level = state.Level
	r.LevelsCleared = state.LevelsCleared
	r.Timeouts = state.Timeouts
}

// Play moves the session's player until TargetLevels levels have been
// cleared, the move or stall budget runs out, or ctx ends.
func Play(ctx context.Context, api gameAPI, opts Options, log *logrus.Entry) (Report, error) {
	var report Report

	state, err := api.State(ctx)
	if err != nil {
		return report, err
	}
	startCleared := state.LevelsCleared
	report.update(state)
	strategy := NewStrategy()

	for report.LevelsCleared-startCleared < opts.TargetLevels && report.Moves < opts.MaxMoves {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		plan := strategy.Plan(state)
		progressed := false
		switch {
		case len(plan) == 0:
			log.Debug("no legal move, waiting for the blocks")

		case len(plan) > 1 && opts.Batch > 1:
			if len(plan) > opts.Batch {
				plan = plan[:opts.Batch]
			}
			result, err := api.BulkMove(ctx, plan)
			if err != nil {
				return report, err
			}
			report.Moves += result.MovesExecuted
			report.Pushes += result.Pushes
			state = result.GameState
			progressed = result.MovesExecuted > 0
			if !result.Success {
				log.WithField("stop", result.StopReasonCode).Debug("route blocked, replanning")
			}

		default:
			result, err := api.Move(ctx, plan[0])
			if err != nil {
				return report, err
			}
			if result.Success {
				report.Moves++
				if result.Outcome.Pushed {
					report.Pushes++
				}
			} else {
				log.WithField("reason", result.Outcome.Reason).Debug("move rejected, replanning")
			}
			state = result.GameState
			progressed = result.Success
		}

		// Nothing moved: either no plan or a plan built on a stale state
		if !progressed {
			report.Stalls++
			if report.Stalls > opts.MaxStalls {
				log.WithField("stalls", report.Stalls).Warn("giving up, player is stuck")
				return report, nil
			}
			if err := sleep(ctx, max(opts.Delay, stallBackoff)); err != nil {
				return report, err
			}
			if state, err = api.State(ctx); err != nil {
				return report, err
			}
		}

		before := report.Level
		report.update(state)
		if report.Level != before {
			log.WithFields(logrus.Fields{
				"level":    report.Level,
				"cleared":  report.LevelsCleared,
				"timeouts": report.Timeouts,
				"moves":    report.Moves,
			}).Info("level changed")
		}

		if progressed && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				return report, err
			}
		}
	}
	report.Reached = report.LevelsCleared-startCleared >= opts.TargetLevels
	return report, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
