// Package engine provides the core game logic for Block Rush.
//
// The engine package implements the game mechanics including:
//   - Grid generation with difficulty scaling per level
//   - Player movement with single-block push semantics
//   - The autonomous block scheduler (RedistributeBlocks)
//   - The level/round state machine (playing, level transition, time up)
//   - Preset validation and defaults
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is the single source of truth for one
// running game. GameConfig is a difficulty preset; the config package loads them from JSON files.
//
// The engine holds no clock and no locks. Time passes only when a caller
// invokes TickCountdown or TickBlocks, and callers must serialize every call
// on one engine (the loop package does this for live sessions).
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig(), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	out := gameEngine.Move(engine.Right)
//	gameEngine.TickBlocks()
//	state := gameEngine.GetState()
//
// Game Rules:
//
// The player starts in the top-left corner and must reach the exit in the
// bottom-right corner before the countdown expires. Blocks wander on their own
// every block interval and the player may shove a single block one cell.
// Reaching the exit builds the next, harder level; running out of time
// rebuilds the current level.
package engine
