package game

import (
	"context"
	"log/slog"
	"time"

	"notehero/input"
	"notehero/utils"
)

// Clock reports seconds of playback since the song started.
type Clock interface {
	Elapsed() float64
}

type InputSource interface {
	Poll() ([]input.Event, error)
}

// Sink displays snapshots. Errors are logged and never stop the game.
type Sink interface {
	Render(Snapshot) error
}

// Runner drives a Matcher at a fixed tick rate.
type Runner struct {
	Matcher *Matcher
	Clock   Clock
	Input   InputSource
	Sink    Sink
	FPS     int
	// LeadIn is subtracted from the clock so the first notes are not due the instant playback starts.
	LeadIn float64
	Logger *slog.Logger
}

// Run starts the matcher and ticks until the game finishes or ctx is done.
// A cancelled context quits the game and the final state is still returned.
func (r *Runner) Run(ctx context.Context) (State, error) {
	logger := r.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}
	fps := r.FPS
	if fps < 1 {
		fps = 60
	}

	if err := r.Matcher.Start(); err != nil {
		return r.Matcher.State(), err
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	inputFailed := false
	for {
		select {
		case <-ctx.Done():
			r.Matcher.Quit()
			snap := r.Matcher.Tick(0, nil)
			r.render(logger, snap)
			return snap.State, nil
		case <-ticker.C:
		}

		var presses []int
		if r.Input != nil {
			events, err := r.Input.Poll()
			if err != nil && !inputFailed {
				logger.Warn("input poll failed", slog.Any("error", err))
				inputFailed = true
			}
			for _, ev := range events {
				if ev.Quit {
					r.Matcher.Quit()
					continue
				}
				presses = append(presses, ev.Lane)
			}
		}

		snap := r.Matcher.Tick(r.Clock.Elapsed()-r.LeadIn, presses)
		r.render(logger, snap)
		if snap.Phase == PhaseFinished {
			logger.Info("game finished",
				slog.String("outcome", snap.Outcome.String()),
				slog.String("reason", snap.Reason.String()),
				slog.Int("score", snap.Score),
				slog.Int("hits", snap.Hits),
				slog.Int("misses", snap.Misses),
			)
			return snap.State, nil
		}
	}
}

func (r *Runner) render(logger *slog.Logger, snap Snapshot) {
	if r.Sink == nil {
		return
	}
	if err := r.Sink.Render(snap); err != nil {
		logger.Debug("render failed", slog.Any("error", err))
	}
}
