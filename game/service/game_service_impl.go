package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/blockrush/game/engine"
	"github.com/wricardo/mcp-training/blockrush/logging"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions    SessionManager
	configs     ConfigManager
	broadcaster Broadcaster
	mu          sync.RWMutex
	now         func() time.Time
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
}

// SetBroadcaster installs the fan-out target for session state changes
func (s *gameServiceImpl) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

func (s *gameServiceImpl) currentBroadcaster() Broadcaster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.broadcaster
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Running:        sess.Runner.Running(),
		GameState:      sess.Runner.Snapshot(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session and starts its loop
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	id := sess.ID
	sess.Runner.SetListener(func(state *engine.GameState, ev *engine.Event) {
		if b := s.currentBroadcaster(); b != nil {
			b.BroadcastState(id, state, ev)
		}
	})

	return s.sessionInfo(sess, strings.TrimSuffix(configName, ".json")), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess, ""), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, ""))
	}

	return result, nil
}

// DeleteSession removes a session and stops its loop
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	if err := s.sessions.Delete(sess.ID); err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	if b := s.currentBroadcaster(); b != nil {
		b.BroadcastEvent(sess.ID, EventSessionClosed, map[string]string{"session_id": sess.ID})
	}
	return nil
}

// touch looks a session up and refreshes its access time
func (s *gameServiceImpl) touch(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func parseDirections(moves []string) ([]engine.Direction, error) {
	dirs := make([]engine.Direction, len(moves))
	for i, m := range moves {
		dir, ok := engine.ParseDirection(m)
		if !ok {
			return nil, fmt.Errorf("%w: move %d %q (use up, down, left or right)", ErrInvalidDirection, i+1, m)
		}
		dirs[i] = dir
	}
	return dirs, nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	dir, ok := engine.ParseDirection(direction)
	if !ok {
		return nil, fmt.Errorf("%w: %q (use up, down, left or right)", ErrInvalidDirection, direction)
	}

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	// Collect events
	events := []GameEvent{}

	// Handle reset if requested
	if reset {
		sess.Runner.Restart()
		events = append(events, GameEvent{
			Type:      "reset",
			Message:   "Level regenerated",
			Timestamp: s.now(),
		})
	}

	out, state := sess.Runner.Move(dir)

	result := &MoveResult{
		Success:       out.Moved,
		GameState:     state,
		Message:       state.Message,
		Outcome:       out,
		Events:        append(events, s.outcomeEvents(out)...),
		PossibleMoves: directionNames(state.PossibleMoves()),
		LocalView3x3:  LocalView3x3(state),
	}
	if !out.Moved {
		result.AttemptedTo = attemptedCell(state, out)
	}

	logging.Session(sess.ID).WithFields(logrus.Fields{
		"dir":    dir,
		"moved":  out.Moved,
		"pushed": out.Pushed,
		"reason": out.Reason,
	}).Debug("move")

	return result, nil
}

// BulkMove executes multiple moves in sequence, stopping at the first rejected one
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	if len(moves) == 0 {
		return nil, ErrNoMoves
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	dirs, err := parseDirections(moves)
	if err != nil {
		return nil, err
	}

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	// Handle reset
	if reset {
		sess.Runner.Restart()
		result.Events = append(result.Events, GameEvent{
			Type:      "reset",
			Message:   "Level regenerated",
			Timestamp: s.now(),
		})
	}

	start := sess.Runner.Snapshot()
	result.StartPos = start.PlayerPos
	result.StartLevel = start.Level

	outcomes, state := sess.Runner.BulkMove(dirs)

	for i, out := range outcomes {
		if !out.Moved {
			result.Success = false
			result.StoppedOnMove = i + 1
			result.StopReasonCode = string(out.Reason)
			result.StoppedReason = fmt.Sprintf("move %d blocked: %s (%s)", i+1, out.Direction, out.Reason)
			result.AttemptedTo = attemptedCell(state, out)
			break
		}
		result.MovesExecuted++
		if out.Pushed {
			result.Pushes++
		}
		result.Steps = append(result.Steps, StepInfo{
			Idx:      i + 1,
			Dir:      string(out.Direction),
			From:     out.From,
			To:       out.To,
			Success:  true,
			Pushed:   out.Pushed,
			PushedTo: out.PushedTo,
			LevelUp:  out.Event != nil,
		})
		result.Events = append(result.Events, s.outcomeEvents(out)...)
	}

	result.GameState = state
	result.EndPos = state.PlayerPos
	result.EndLevel = state.Level
	result.Message = state.Message
	result.PossibleMoves = directionNames(state.PossibleMoves())
	result.LocalView3x3 = LocalView3x3(state)

	return result, nil
}

// TickBlocks forces one block scheduler tick
func (s *gameServiceImpl) TickBlocks(ctx context.Context, sessionID string) (*TickResult, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	moved, state := sess.Runner.TickBlocks()
	return &TickResult{Moved: moved, GameState: state}, nil
}

// Reset regenerates the current level of a session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Runner.Restart(), nil
}

// GetGameState returns a snapshot of the session's game
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Runner.Snapshot(), nil
}

// DescribeCell reports what occupies (x,y)
func (s *gameServiceImpl) DescribeCell(ctx context.Context, sessionID string, x, y int) (*CellInfo, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Runner.Snapshot()
	p := engine.Position{X: x, Y: y}
	if !state.InBounds(p) {
		return nil, fmt.Errorf("%w: (%d,%d) on a %dx%d grid", ErrOutOfBounds, x, y, state.Cols, state.Rows)
	}
	return describeCell(state, p), nil
}

// ListConfigs returns available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ReloadConfigs drops cached presets and rereads them from disk. Running
// sessions keep the preset they were created with.
func (s *gameServiceImpl) ReloadConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	if err := s.configs.RefreshCache(); err != nil {
		return nil, fmt.Errorf("failed to reload configs: %w", err)
	}
	return s.configs.ListConfigs()
}

// outcomeEvents converts a move outcome into user-facing events
func (s *gameServiceImpl) outcomeEvents(out engine.MoveOutcome) []GameEvent {
	if !out.Moved {
		return nil
	}
	to := out.To
	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s to (%d,%d)", out.Direction, to.X, to.Y),
		Timestamp: s.now(),
		Position:  &to,
	}}
	if out.Pushed {
		events = append(events, GameEvent{
			Type:      "push",
			Message:   fmt.Sprintf("Pushed a block to (%d,%d)", out.PushedTo.X, out.PushedTo.Y),
			Timestamp: s.now(),
			Position:  out.PushedTo,
		})
	}
	if out.Event != nil {
		events = append(events, FromEngineEvent(out.Event))
	}
	return events
}

// FromEngineEvent converts a state machine event into a GameEvent
func FromEngineEvent(ev *engine.Event) GameEvent {
	return GameEvent{
		ID:        ev.ID,
		Type:      string(ev.Type),
		Message:   ev.Message,
		Level:     ev.Level,
		Timestamp: ev.Timestamp,
	}
}

func directionNames(dirs []engine.Direction) []string {
	names := make([]string, len(dirs))
	for i, d := range dirs {
		names[i] = string(d)
	}
	return names
}

// attemptedCell describes the cell a rejected move tried to enter
func attemptedCell(state *engine.GameState, out engine.MoveOutcome) *AttemptInfo {
	target := out.From.Add(out.Direction.Delta())
	info := describeCell(state, target)
	return &AttemptInfo{
		X:        target.X,
		Y:        target.Y,
		TileChar: info.Char,
		TileType: info.Type,
		Passable: info.Passable,
	}
}

func describeCell(state *engine.GameState, p engine.Position) *CellInfo {
	info := &CellInfo{
		X:        p.X,
		Y:        p.Y,
		Char:     string(engine.CellChar(state, p)),
		Distance: engine.ManhattanDistance(state.PlayerPos, p),
	}
	switch {
	case !state.InBounds(p):
		info.Type = "boundary"
		info.Char = "#"
	case p == state.PlayerPos:
		info.Type = "player"
		info.Passable = true
	case p == state.Exit:
		info.Type = "exit"
		info.Passable = true
	default:
		cell := state.CellAt(p)
		info.Type = string(cell)
		info.Passable = cell == engine.Empty
		if cell == engine.Block {
			if idx := state.BlockAt(p); idx >= 0 {
				id := state.Blocks[idx].ID
				info.BlockID = &id
			}
		}
	}
	return info
}

// LocalView3x3 renders the 3x3 neighborhood around the player, top row first.
// Cells beyond the grid show as '#'.
func LocalView3x3(state *engine.GameState) []string {
	rows := make([]string, 0, 3)
	for dy := -1; dy <= 1; dy++ {
		var b strings.Builder
		for dx := -1; dx <= 1; dx++ {
			b.WriteByte(engine.CellChar(state, state.PlayerPos.Add(engine.Position{X: dx, Y: dy})))
		}
		rows = append(rows, b.String())
	}
	return rows
}
