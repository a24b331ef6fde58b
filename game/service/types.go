package service

import (
	"time"

	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Running        bool               `json:"running"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success       bool               `json:"success"`
	GameState     *engine.GameState  `json:"game_state"`
	Message       string             `json:"message"`
	Outcome       engine.MoveOutcome `json:"outcome"`
	Events        []GameEvent        `json:"events,omitempty"`
	AttemptedTo   *AttemptInfo       `json:"attempted_to,omitempty"`
	PossibleMoves []string           `json:"possible_moves,omitempty"`
	LocalView3x3  []string           `json:"local_view_3x3,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // Machine-friendly code: boundary|wall|blocked_push
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos   engine.Position `json:"start_pos"`
	EndPos     engine.Position `json:"end_pos"`
	StartLevel int             `json:"start_level"`
	EndLevel   int             `json:"end_level"`
	Pushes     int             `json:"pushes"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// StepInfo is a compact record for each executed move in the bulk call
type StepInfo struct {
	Idx      int              `json:"idx"`
	Dir      string           `json:"dir"`
	From     engine.Position  `json:"from"`
	To       engine.Position  `json:"to"`
	Success  bool             `json:"success"`
	Pushed   bool             `json:"pushed,omitempty"`
	PushedTo *engine.Position `json:"pushed_to,omitempty"`
	LevelUp  bool             `json:"level_up,omitempty"`
}

// AttemptInfo details the first failed target cell attempted
type AttemptInfo struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	TileChar string `json:"tile_char"`
	TileType string `json:"tile_type"`
	Passable bool   `json:"passable"`
}

// TickResult reports a forced block scheduler tick
type TickResult struct {
	Moved     int               `json:"moved"`
	GameState *engine.GameState `json:"game_state"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	ID        string           `json:"id,omitempty"`
	Type      string           `json:"type"` // "move", "push", "level_up", "time_up", "reset"
	Message   string           `json:"message"`
	Level     int              `json:"level,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Position  *engine.Position `json:"position,omitempty"`
}

// CellInfo describes one grid cell
type CellInfo struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Char     string `json:"char"`
	Type     string `json:"type"` // "empty", "wall", "block", "player", "exit", "boundary"
	BlockID  *int   `json:"block_id,omitempty"`
	Passable bool   `json:"passable"`
	Distance int    `json:"distance_from_player"`
}

// ConfigInfo provides information about a difficulty preset
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	StartLevel  int    `json:"start_level"`
}
