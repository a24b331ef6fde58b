package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/blockrush/game/engine"
	"github.com/wricardo/mcp-training/blockrush/game/loop"
)

var (
	ErrInvalidDirection = errors.New("invalid direction")
	ErrNoMoves          = errors.New("no moves given")
	ErrOutOfBounds      = errors.New("coordinates out of bounds")
)

// EventSessionClosed tells a session's watchers that the session was deleted
const EventSessionClosed = "session_closed"

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error)
	TickBlocks(ctx context.Context, sessionID string) (*TickResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	DescribeCell(ctx context.Context, sessionID string, x, y int) (*CellInfo, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
	ReloadConfigs(ctx context.Context) ([]*ConfigInfo, error)

	// Fan-out
	SetBroadcaster(b Broadcaster)
}

// Broadcaster receives every state change of every session
type Broadcaster interface {
	BroadcastState(sessionID string, state *engine.GameState, ev *engine.Event)
	BroadcastEvent(sessionID string, event string, data interface{})
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles difficulty preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
	RefreshCache() error
}

// Session represents an active game session
type Session struct {
	ID             string
	Runner         *loop.Runner
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
