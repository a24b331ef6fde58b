package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	GetConfig() *GameConfig
	Restart() *GameState

	// Level/round state machine
	Level() int
	TimeLeft() int
	Phase() Phase
	BlockInterval() time.Duration
	TimeUnit() time.Duration

	// Movement operations
	Move(dir Direction) MoveOutcome
	CanMove(dir Direction) bool
	GetPossibleMoves() []Direction

	// Timed operations
	TickCountdown() *Event
	TickBlocks() int
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialize access (see the loop package).
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rng    *rand.Rand
	now    func() time.Time

	levelsCleared int
	timeouts      int
}

// NewEngine creates a new game engine with the provided configuration. A nil
// rng is replaced by one seeded from the config (or the clock when the seed is 0).
func NewEngine(config *GameConfig, rng *rand.Rand) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	config = config.WithDefaults()
	if rng == nil {
		seed := config.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	e := &GameEngine{
		config: config,
		rng:    rng,
		now:    time.Now,
	}
	e.enterPlaying(config.StartLevel)
	e.state.Message = config.Messages.Welcome
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in preset
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), nil)
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return e
}

// enterPlaying regenerates the grid for level and resets the countdown
func (e *GameEngine) enterPlaying(level int) {
	e.state = Generate(level, e.config.Rows, e.config.Cols, e.rng)
	e.state.LevelsCleared = e.levelsCleared
	e.state.Timeouts = e.timeouts
}

// transition runs Playing -> phase -> Playing and returns the event describing it
func (e *GameEngine) transition(phase Phase, level int, message string) *Event {
	e.state.Phase = phase

	ev := &Event{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		Timestamp: e.now(),
	}
	switch phase {
	case LevelTransition:
		ev.Type = EventLevelUp
		e.levelsCleared++
	case TimeUp:
		ev.Type = EventTimeUp
		e.timeouts++
	}

	e.enterPlaying(level)
	e.state.LastEvent = ev
	e.state.Message = message
	return ev
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// GetConfig returns the preset the engine runs with
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetState replaces the current level with a prepared one, typically built by
// StateFromLayout. The cumulative counters carry over.
func (e *GameEngine) SetState(gs *GameState) {
	gs.LevelsCleared = e.levelsCleared
	gs.Timeouts = e.timeouts
	e.state = gs
}

// Restart regenerates the current level without counting a timeout
func (e *GameEngine) Restart() *GameState {
	e.enterPlaying(e.state.Level)
	e.state.Message = e.config.Messages.Welcome
	return e.state
}

// Level returns the current level number
func (e *GameEngine) Level() int {
	return e.state.Level
}

// TimeLeft returns the remaining countdown in time units
func (e *GameEngine) TimeLeft() int {
	return e.state.TimeLeft
}

// Phase returns the current state machine phase
func (e *GameEngine) Phase() Phase {
	return e.state.Phase
}

// TimeUnit returns the wall-clock length of one countdown unit
func (e *GameEngine) TimeUnit() time.Duration {
	return time.Duration(e.config.TimeUnitMs) * time.Millisecond
}

// BlockInterval returns the block scheduler period for the current level
func (e *GameEngine) BlockInterval() time.Duration {
	return time.Duration(BlockIntervalMs(e.state.Level)) * e.TimeUnit() / 1000
}

// Move attempts to move the player in the specified direction. Reaching the
// exit advances the level and regenerates the grid.
func (e *GameEngine) Move(dir Direction) MoveOutcome {
	out := e.state.MovePlayer(dir)
	if !out.Moved {
		if out.Reason == RejectBlockedPush && e.config.Messages.Blocked != "" {
			e.state.Message = e.config.Messages.Blocked
		}
		return out
	}

	if out.Pushed && e.config.Messages.Pushed != "" {
		e.state.Message = e.config.Messages.Pushed
	}

	if e.state.AtExit() {
		next := e.state.Level + 1
		out.Event = e.transition(LevelTransition, next, formatMessage(e.config.Messages.LevelUp, next))
	}
	return out
}

// CanMove checks if a move in dir would be accepted
func (e *GameEngine) CanMove(dir Direction) bool {
	probe := e.state.Clone()
	return probe.MovePlayer(dir).Moved
}

// GetPossibleMoves returns all directions that would be accepted
func (e *GameEngine) GetPossibleMoves() []Direction {
	return e.state.PossibleMoves()
}

// TickCountdown consumes one time unit. When the budget runs out the level is
// regenerated at the same level number and the time_up event is returned.
func (e *GameEngine) TickCountdown() *Event {
	e.state.TimeLeft--
	if e.state.TimeLeft > 0 {
		return nil
	}
	level := e.state.Level
	return e.transition(TimeUp, level, formatMessage(e.config.Messages.TimeUp, level))
}

// TickBlocks runs the autonomous block scheduler once
func (e *GameEngine) TickBlocks() int {
	return e.state.RedistributeBlocks(e.rng)
}

// BulkMove executes moves in order and stops at the first rejected one
func (e *GameEngine) BulkMove(moves []Direction) []MoveOutcome {
	results := make([]MoveOutcome, 0, len(moves))
	for _, dir := range moves {
		out := e.Move(dir)
		results = append(results, out)
		if !out.Moved {
			break
		}
	}
	return results
}
