package loop

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/blockrush/game/engine"
	"github.com/wricardo/mcp-training/blockrush/logging"
)

// Listener receives a snapshot after every mutation. ev is non-nil when the
// mutation crossed a level boundary. Calls arrive one at a time in mutation
// order, outside the engine lock. A listener must not call back into the
// runner.
type Listener func(state *engine.GameState, ev *engine.Event)

// Runner serializes all access to one engine and drives its timed tasks
type Runner struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	engine   *engine.GameEngine
	clock    Clock
	listener Listener
	log      *logrus.Entry

	running   bool
	gen       uint64
	countdown Task
	blocks    Task
	interval  time.Duration
}

// NewRunner wraps an engine. The runner is idle until Start.
func NewRunner(e *engine.GameEngine, clock Clock) *Runner {
	if clock == nil {
		clock = RealClock()
	}
	return &Runner{
		engine: e,
		clock:  clock,
		log:    logging.Log.WithField("component", "loop"),
	}
}

// WithLogger replaces the runner's log entry
func (r *Runner) WithLogger(entry *logrus.Entry) *Runner {
	r.log = entry
	return r
}

// SetListener installs the mutation listener
func (r *Runner) SetListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = l
}

// Start arms the countdown and block tasks
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.armLocked()
	r.log.WithFields(logrus.Fields{
		"level":          r.engine.Level(),
		"block_interval": r.interval,
	}).Info("loop started")
}

// Stop cancels both tasks. The engine stays usable for direct calls.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	r.gen++
	r.stopTasksLocked()
	r.log.Info("loop stopped")
}

// Running reports whether the timed tasks are armed
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// BlockInterval returns the period the block task is currently armed with
func (r *Runner) BlockInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

func (r *Runner) stopTasksLocked() {
	if r.countdown != nil {
		r.countdown.Stop()
		r.countdown = nil
	}
	if r.blocks != nil {
		r.blocks.Stop()
		r.blocks = nil
	}
}

// armLocked cancels any pending tasks and schedules fresh ones for the
// current level. Must hold r.mu.
func (r *Runner) armLocked() {
	r.stopTasksLocked()
	r.gen++
	gen := r.gen
	r.interval = r.engine.BlockInterval()
	r.countdown = r.clock.Every(r.engine.TimeUnit(), func() { r.onCountdown(gen) })
	r.blocks = r.clock.Every(r.interval, func() { r.onBlockTick(gen) })
}

func (r *Runner) onCountdown(gen uint64) {
	r.mu.Lock()
	if !r.running || gen != r.gen {
		r.mu.Unlock()
		return
	}
	ev := r.engine.TickCountdown()
	if ev != nil {
		r.armLocked()
		r.log.WithFields(logrus.Fields{"level": ev.Level, "event": ev.Type}).Info("time up")
	}
	r.publishLocked(ev, true)
}

func (r *Runner) onBlockTick(gen uint64) {
	r.mu.Lock()
	if !r.running || gen != r.gen {
		r.mu.Unlock()
		return
	}
	moved := r.engine.TickBlocks()
	r.log.WithField("moved", moved).Debug("block tick")
	r.publishLocked(nil, true)
}

// afterTransitionLocked re-arms the tasks if ev moved the game to a new level
func (r *Runner) afterTransitionLocked(ev *engine.Event) {
	if ev == nil {
		return
	}
	if r.running {
		r.armLocked()
	}
	r.log.WithFields(logrus.Fields{"level": ev.Level, "event": ev.Type}).Info("level transition")
}

// publishLocked clones the state and releases r.mu, then hands the clone to
// the listener when notify is set. notifyMu is taken before r.mu is released
// so deliveries keep the order of the mutations that produced them.
func (r *Runner) publishLocked(ev *engine.Event, notify bool) *engine.GameState {
	snap, l := r.engine.GetState().Clone(), r.listener
	r.notifyMu.Lock()
	r.mu.Unlock()
	defer r.notifyMu.Unlock()

	if notify && l != nil {
		l(snap, ev)
	}
	return snap
}

// Move applies one player move and returns the state it produced
func (r *Runner) Move(dir engine.Direction) (engine.MoveOutcome, *engine.GameState) {
	r.mu.Lock()
	out := r.engine.Move(dir)
	r.afterTransitionLocked(out.Event)
	return out, r.publishLocked(out.Event, out.Moved)
}

// BulkMove applies moves in order and stops at the first rejected one
func (r *Runner) BulkMove(dirs []engine.Direction) ([]engine.MoveOutcome, *engine.GameState) {
	r.mu.Lock()
	results := r.engine.BulkMove(dirs)
	var last *engine.Event
	for _, out := range results {
		if out.Event != nil {
			last = out.Event
		}
	}
	r.afterTransitionLocked(last)
	return results, r.publishLocked(last, true)
}

// TickBlocks runs one scheduler tick outside the timed cadence
func (r *Runner) TickBlocks() (int, *engine.GameState) {
	r.mu.Lock()
	moved := r.engine.TickBlocks()
	return moved, r.publishLocked(nil, true)
}

// Restart regenerates the current level and re-arms the tasks
func (r *Runner) Restart() *engine.GameState {
	r.mu.Lock()
	r.engine.Restart()
	if r.running {
		r.armLocked()
	}
	return r.publishLocked(nil, true)
}

// Snapshot returns a deep copy of the current state
func (r *Runner) Snapshot() *engine.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.GetState().Clone()
}

// Config returns the preset the engine runs with
func (r *Runner) Config() *engine.GameConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.GetConfig()
}

// Frame advances every block's draw coordinates one render frame and hands
// the live state to draw. draw must not mutate the state or retain it.
func (r *Runner) Frame(draw func(state *engine.GameState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.engine.GetState()
	state.Interpolate(r.engine.GetConfig().InterpolationRate)
	draw(state)
}
