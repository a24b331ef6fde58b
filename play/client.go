package play

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/mcp-training/blockrush/game/engine"
	"github.com/wricardo/mcp-training/blockrush/game/loop"
	"github.com/wricardo/mcp-training/blockrush/logging"
)

// FrameInterval is the render cadence (~60 FPS)
const FrameInterval = 16 * time.Millisecond

// Screen is the part of tcell.Screen the client needs
type Screen interface {
	Canvas
	Show()
	PollEvent() tcell.Event
}

// Client drives one game loop from a terminal
type Client struct {
	screen Screen
	runner *loop.Runner
	banner Banner
	chime  *Chime
	events chan *engine.Event
	log    *logrus.Entry
}

// New attaches a client to runner. The runner's listener is replaced.
func New(screen Screen, runner *loop.Runner, chime *Chime) *Client {
	if chime == nil {
		chime = &Chime{}
	}
	c := &Client{
		screen: screen,
		runner: runner,
		chime:  chime,
		events: make(chan *engine.Event, 16),
		log:    logging.Log.WithField("component", "play"),
	}
	runner.SetListener(func(_ *engine.GameState, ev *engine.Event) {
		if ev == nil {
			return
		}
		select {
		case c.events <- ev:
		default:
		}
	})
	return c
}

// HandleKey applies one key press and reports whether the client should keep
// running
func (c *Client) HandleKey(key tcell.Key, r rune) bool {
	action, dir := Translate(key, r)
	switch action {
	case ActionQuit:
		return false
	case ActionMove:
		out, _ := c.runner.Move(dir)
		if !out.Moved {
			c.log.WithField("reason", out.Reason).Debug("move rejected")
		}
	case ActionRestart:
		c.runner.Restart()
	}
	return true
}

// onEvent shows the banner and plays the chime for a transition
func (c *Client) onEvent(ev *engine.Event) {
	c.banner.Show(ev.Message)
	c.chime.Play(ev.Type)
	c.log.WithFields(logrus.Fields{"event": ev.Type, "level": ev.Level}).Info("transition")
}

// render draws one frame
func (c *Client) render(dt float32) {
	c.banner.Update(dt)
	c.runner.Frame(func(state *engine.GameState) {
		Draw(c.screen, state, &c.banner)
	})
	c.screen.Show()
}

// Run blocks until the player quits or ctx is cancelled. The caller owns the
// screen's Init and Fini and the runner's Start and Stop.
func (c *Client) Run(ctx context.Context) error {
	input := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				close(input)
				return
			}
			select {
			case input <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-input:
			if !ok {
				return nil
			}
			if key, isKey := ev.(*tcell.EventKey); isKey {
				if !c.HandleKey(key.Key(), key.Rune()) {
					return nil
				}
			}

		case ev := <-c.events:
			c.onEvent(ev)

		case now := <-ticker.C:
			c.render(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
}
