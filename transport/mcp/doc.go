// Package mcp exposes Block Rush to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST call against a
// running server, so agents share sessions (and their running clocks) with
// browsers and terminal clients.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state: grid rendering plus level, countdown and counters
//   - move, bulk_move: movement with push diagnostics and a 3x3 local view
//   - tick_blocks: force one block scheduler round
//   - reset_game: regenerate the current level
//   - list_configs: difficulty presets
//   - game_instructions: full rules
//   - describe_cell: one cell's type, passability and distance
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
