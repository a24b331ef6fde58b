package engine

import (
	"strings"
	"time"
)

// CellType represents the classification of a single grid cell
type CellType string

const (
	Empty CellType = "empty"
	Wall  CellType = "wall"
	Block CellType = "block"

	// Validation constants
	MinGridSize  = 3
	MaxGridSize  = 50
	MaxBulkMoves = 50

	// Difficulty scaling
	WallsPerLevel        = 3
	BaseBlocks           = 10
	BlocksPerLevel       = 2
	BaseTimeBudget       = 120
	TimeBudgetStep       = 5
	MinTimeBudget        = 30
	BaseBlockIntervalMs  = 2000
	BlockIntervalStepMs  = 150
	MinBlockIntervalMs   = 400
	DefaultInterpolation = 0.2
	DefaultTimeUnitMs    = 1000
)

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the position shifted by the given delta
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Direction is one of the four orthogonal movement directions
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists the four directions in a fixed order
var Directions = []Direction{Up, Down, Left, Right}

// Delta returns the unit offset for the direction
func (d Direction) Delta() Position {
	switch d {
	case Up:
		return Position{X: 0, Y: -1}
	case Down:
		return Position{X: 0, Y: 1}
	case Left:
		return Position{X: -1, Y: 0}
	case Right:
		return Position{X: 1, Y: 0}
	}
	return Position{}
}

// ParseDirection converts user input into a Direction (case-insensitive)
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Up:
		return Up, true
	case Down:
		return Down, true
	case Left:
		return Left, true
	case Right:
		return Right, true
	}
	return "", false
}

// MobileBlock is an autonomously moving obstacle.
// X,Y is authoritative for every rule; DrawX,DrawY belongs to renderers.
type MobileBlock struct {
	ID    int     `json:"id"`
	X     int     `json:"x"`
	Y     int     `json:"y"`
	DrawX float64 `json:"draw_x"`
	DrawY float64 `json:"draw_y"`
}

// Pos returns the logical position of the block
func (b *MobileBlock) Pos() Position {
	return Position{X: b.X, Y: b.Y}
}

// Interpolate moves the rendering coordinate a fraction of the way toward the
// logical coordinate
func (b *MobileBlock) Interpolate(rate float64) {
	b.DrawX += (float64(b.X) - b.DrawX) * rate
	b.DrawY += (float64(b.Y) - b.DrawY) * rate
}

// Phase is a state of the level/round state machine
type Phase string

const (
	Playing         Phase = "playing"
	LevelTransition Phase = "level_transition"
	TimeUp          Phase = "time_up"
)

// EventType names a notable game event
type EventType string

const (
	EventLevelUp EventType = "level_up"
	EventTimeUp  EventType = "time_up"
)

// Event is emitted by the state machine on every transition back to Playing
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Level     int       `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RejectReason explains why a move was a no-op
type RejectReason string

const (
	RejectNone        RejectReason = ""
	RejectBoundary    RejectReason = "boundary"
	RejectWall        RejectReason = "wall"
	RejectBlockedPush RejectReason = "blocked_push"
	RejectInvalid     RejectReason = "invalid_direction"
)

// MoveOutcome reports what a move did
type MoveOutcome struct {
	Direction Direction    `json:"direction"`
	From      Position     `json:"from"`
	To        Position     `json:"to"`
	Moved     bool         `json:"moved"`
	Pushed    bool         `json:"pushed"`
	PushedTo  *Position    `json:"pushed_to,omitempty"`
	Reason    RejectReason `json:"reason,omitempty"`
	Event     *Event       `json:"event,omitempty"`
}

// GameConfig is a difficulty preset loaded from JSON
type GameConfig struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Rows              int     `json:"rows"`
	Cols              int     `json:"cols"`
	StartLevel        int     `json:"start_level"`
	Seed              int64   `json:"seed,omitempty"`
	InterpolationRate float64 `json:"interpolation_rate,omitempty"`
	TimeUnitMs        int     `json:"time_unit_ms,omitempty"`
	Messages          struct {
		Welcome string `json:"welcome"`
		LevelUp string `json:"level_up"`
		TimeUp  string `json:"time_up"`
		Blocked string `json:"blocked"`
		Pushed  string `json:"pushed"`
	} `json:"messages"`
}

// GameState represents the complete state of one running game
type GameState struct {
	Rows      int           `json:"rows"`
	Cols      int           `json:"cols"`
	Grid      [][]CellType  `json:"grid"`
	PlayerPos Position      `json:"player_pos"`
	Exit      Position      `json:"exit"`
	Blocks    []MobileBlock `json:"blocks"`

	Level    int    `json:"level"`
	TimeLeft int    `json:"time_left"`
	Phase    Phase  `json:"phase"`
	Message  string `json:"message"`

	// Per-level counters, reset on regeneration
	Moves         int `json:"moves"`
	Pushes        int `json:"pushes"`
	Ticks         int `json:"ticks"`
	LastTickMoved int `json:"last_tick_moved"`

	// Cumulative counters, kept across regeneration
	LevelsCleared int `json:"levels_cleared"`
	Timeouts      int `json:"timeouts"`

	LastEvent *Event `json:"last_event,omitempty"`
}
