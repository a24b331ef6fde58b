// Package service provides the business logic layer for Block Rush.
//
// The service package implements:
//   - Multi-session game management
//   - Preset listing, loading and saving
//   - Direction parsing and move processing with diagnostics
//   - Fan-out of every state change to a Broadcaster
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages difficulty presets.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game loop. Each session owns a loop.Runner which serializes access to
// its engine; the service never touches an engine directly. Moves, forced
// block ticks and resets go through the runner, and the runner's listener
// forwards snapshots to the broadcaster (the WebSocket hub in the server).
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//	gameService.SetBroadcaster(hub)
//
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, sessionInfo.ID, "right", false)
//
// Errors:
//
// Unknown directions fail with ErrInvalidDirection before any move is applied,
// so a bulk request is either rejected as a whole or executed up to its first
// blocked move. Lookups of missing sessions wrap the session manager's error.
package service
