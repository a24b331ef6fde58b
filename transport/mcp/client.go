package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/blockrush/game/engine"
	"github.com/wricardo/mcp-training/blockrush/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Block Rush",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Block Rush - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Walk the player (P) from the top-left corner to the exit (E) in the bottom-right
corner before the countdown runs out. Grey blocks (B) drift around on their own
and can be pushed one cell. Walls (#) never move.

The game keeps running between your calls: blocks move and the countdown drops
in real time, so always re-read the state before planning a long route.

AVAILABLE TOOLS:
- create_session: Create a new game session (starts its clock)
- list_sessions / get_session: Inspect sessions
- game_state: Get the current grid, level and time left
- move: Single move (up/down/left/right) - requires intent explanation
- bulk_move: Up to 50 moves at once, stops at the first blocked move
- tick_blocks: Force the blocks to move once
- reset_game: Regenerate the current level
- list_configs: List difficulty presets
- game_instructions: Full rules
- describe_cell: Inspect one cell`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with an optional difficulty preset. The session's clock starts immediately.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use, e.g. classic, tiny, rush (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the player one cell. Moving into a block pushes it if the cell behind it is free.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Regenerate the level before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: "Execute up to 50 moves in sequence. Execution stops at the first move that is blocked.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right"},
					},
					"description": "Array of moves",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Regenerate the level before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick_blocks",
		Description: "Run the block scheduler once, outside its normal cadence",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleTickBlocks)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Regenerate the current level with a full countdown",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available difficulty presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get detailed information about one grid cell: its character, type, whether it is passable and its distance from the player.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (column) of the cell to describe (0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (row) of the cell to describe (0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the client disconnects
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func boolArg(args map[string]interface{}, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func intArg(args map[string]interface{}, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	default:
		return 0, fmt.Errorf("%s must be an integer, got %v", key, v)
	}
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	configID := stringArg(args, "config_id")
	if configID == "" {
		configID = stringArg(args, "config_name")
	}

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		level := 0
		if s.GameState != nil {
			level = s.GameState.Level
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Level: %d, Created: %s)\n",
			s.ID, s.ConfigName, level, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	// intent is for the caller's benefit only
	body := map[string]interface{}{
		"direction": stringArg(args, "direction"),
		"reset":     boolArg(args, "reset"),
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	var moves []string
	switch raw := args["moves"].(type) {
	case []interface{}:
		for _, m := range raw {
			if move, ok := m.(string); ok {
				moves = append(moves, move)
			}
		}
	case []string:
		moves = raw
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": boolArg(args, "reset"),
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleTickBlocks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var result service.TickResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/tick"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Blocks moved: %d\n\n%s", result.Moved, formatGameState(result.GameState))
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Start level: %d\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.Cols, cfg.Rows, cfg.StartLevel)
	}

	return mcp.NewToolResultText(b.String()), nil
}

const instructions = `Block Rush - Complete Instructions

GAME OBJECTIVE:
Reach the exit (E) in the bottom-right corner before time runs out. Every
level starts with the player (P) in the top-left corner.

GRID LEGEND:
  P  Player
  E  Exit
  B  Block (moves on its own, can be pushed)
  #  Wall (never moves, never passable)
  .  Empty floor
Coordinates are (x,y) with x the column and y the row, both 0-based. Row 0 is
the top row; "up" decreases y.

MOVEMENT RULES:
• A move into empty floor or the exit always succeeds.
• A move into a block pushes it one cell, but only if the cell behind it is
  empty floor inside the grid. Blocks are never pushed onto the exit, a wall,
  another block or off the grid.
• A rejected move changes nothing. The reason is reported (boundary, wall or
  blocked_push).

TIME AND LEVELS:
• Each level has a countdown in time units. It shrinks by 5 units per level
  down to 30.
• Reaching the exit starts the next level on a fresh grid with more walls and
  more blocks.
• When the countdown hits zero the level is regenerated at the same number.

BLOCKS:
• Blocks move by themselves on a timer that speeds up with the level.
• A block usually slides to a free neighboring cell; a boxed-in block may jump
  to any free cell on the grid.
• Use tick_blocks to force one scheduler round when you want to see how the
  grid shuffles.

STRATEGY:
1. Read the state, plan a short route, execute it with bulk_move.
2. Bulk moves stop at the first blocked move; re-read the state and re-plan.
3. Pushing a block out of the way is often faster than walking around it.
4. The grid keeps changing while you think. Short bursts beat long plans.

MOVEMENT COMMANDS:
- up, down, left, right - Single moves in cardinal directions
- bulk_move - Up to 50 moves per call
- reset parameter - Regenerate the level first

SESSION MANAGEMENT:
- Multiple game sessions run simultaneously, each with its own clock
- Each session has a unique 4-character ID

Good luck, and keep moving!`

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")
	x, err := intArg(args, "x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := intArg(args, "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.CellInfo
	path := sessionPath(sessionID, fmt.Sprintf("/cell?x=%d&y=%d", x, y))
	if err := c.apiCall(ctx, "GET", path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCellInfo(&info)), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	status := "stopped"
	if session.Running {
		status = "running"
	}
	result := fmt.Sprintf("Session: %s\nConfig: %s\nClock: %s\nCreated: %s\nLast Accessed: %s\n",
		session.ID, session.ConfigName, status,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return result
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Level: %d\n", state.Level)
	fmt.Fprintf(&b, "Time Left: %d\n", state.TimeLeft)
	fmt.Fprintf(&b, "Position: (%d,%d)\n", state.PlayerPos.X, state.PlayerPos.Y)
	fmt.Fprintf(&b, "Exit: (%d,%d)\n", state.Exit.X, state.Exit.Y)
	fmt.Fprintf(&b, "Blocks: %d\n", len(state.Blocks))
	fmt.Fprintf(&b, "Moves: %d  Pushes: %d  Levels cleared: %d  Timeouts: %d\n",
		state.Moves, state.Pushes, state.LevelsCleared, state.Timeouts)
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}
	if ev := state.LastEvent; ev != nil {
		switch ev.Type {
		case engine.EventLevelUp:
			fmt.Fprintf(&b, "⬆ LEVEL UP → %d\n", ev.Level)
		case engine.EventTimeUp:
			fmt.Fprintf(&b, "⏰ TIME UP on level %d\n", ev.Level)
		}
	}

	if len(state.Grid) > 0 {
		b.WriteString("\nGrid (P=player, E=exit, B=block, #=wall, .=floor):\n")
		for _, row := range state.Render() {
			b.WriteString(row)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	out := result.Outcome
	if result.Success {
		fmt.Fprintf(&b, "✓ Move successful: %s to (%d,%d)\n", out.Direction, out.To.X, out.To.Y)
		if out.Pushed && out.PushedTo != nil {
			fmt.Fprintf(&b, "Pushed a block to (%d,%d)\n", out.PushedTo.X, out.PushedTo.Y)
		}
	} else {
		fmt.Fprintf(&b, "✗ Move failed: %s (%s)\n", out.Direction, out.Reason)
		if a := result.AttemptedTo; a != nil {
			fmt.Fprintf(&b, "Attempted (%d,%d) tile=%s type=%s\n", a.X, a.Y, a.TileChar, a.TileType)
		}
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", result.Message)
	}
	for _, ev := range result.Events {
		if ev.Type == string(engine.EventLevelUp) || ev.Type == string(engine.EventTimeUp) {
			fmt.Fprintf(&b, "Event: %s (level %d)\n", ev.Type, ev.Level)
		}
	}
	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "Possible moves: %s\n", strings.Join(result.PossibleMoves, ", "))
	}
	if len(result.LocalView3x3) > 0 {
		b.WriteString("Local view:\n")
		for _, row := range result.LocalView3x3 {
			b.WriteString("  " + row + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: executed %d/%d moves\n", sessionID, result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d moves\n", result.Limit)
	}
	fmt.Fprintf(&b, "From (%d,%d) to (%d,%d), level %d → %d, pushes %d\n",
		result.StartPos.X, result.StartPos.Y, result.EndPos.X, result.EndPos.Y,
		result.StartLevel, result.EndLevel, result.Pushes)

	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s [%s]\n", result.StoppedOnMove, result.StoppedReason, result.StopReasonCode)
		if a := result.AttemptedTo; a != nil {
			fmt.Fprintf(&b, "Attempted (%d,%d) tile=%s type=%s\n", a.X, a.Y, a.TileChar, a.TileType)
		}
	}

	for _, s := range result.Steps {
		line := fmt.Sprintf("%2d. %-5s (%d,%d)->(%d,%d)", s.Idx, s.Dir, s.From.X, s.From.Y, s.To.X, s.To.Y)
		if !s.Success {
			line += " BLOCKED"
		}
		if s.Pushed && s.PushedTo != nil {
			line += fmt.Sprintf(" push→(%d,%d)", s.PushedTo.X, s.PushedTo.Y)
		}
		if s.LevelUp {
			line += " LEVEL UP"
		}
		b.WriteString(line + "\n")
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "Possible moves: %s\n", strings.Join(result.PossibleMoves, ", "))
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatCellInfo(info *service.CellInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d,%d)\n", info.X, info.Y)
	fmt.Fprintf(&b, "Character: %s\n", info.Char)
	fmt.Fprintf(&b, "Type: %s\n", info.Type)
	fmt.Fprintf(&b, "Passable: %v\n", info.Passable)
	if info.BlockID != nil {
		fmt.Fprintf(&b, "Block ID: %d (pushable if the cell behind it is free)\n", *info.BlockID)
	}
	fmt.Fprintf(&b, "Distance from player: %d\n", info.Distance)
	return b.String()
}
