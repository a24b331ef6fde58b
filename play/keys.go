package play

import (
	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

// Action is what a key press asks the client to do
type Action int

const (
	ActionNone Action = iota
	ActionMove
	ActionRestart
	ActionQuit
)

var runeDirections = map[rune]engine.Direction{
	'w': engine.Up, 'k': engine.Up,
	's': engine.Down, 'j': engine.Down,
	'a': engine.Left, 'h': engine.Left,
	'd': engine.Right, 'l': engine.Right,
}

// Translate maps a key to an action. Letter keys are case-insensitive.
func Translate(key tcell.Key, r rune) (Action, engine.Direction) {
	switch key {
	case tcell.KeyUp:
		return ActionMove, engine.Up
	case tcell.KeyDown:
		return ActionMove, engine.Down
	case tcell.KeyLeft:
		return ActionMove, engine.Left
	case tcell.KeyRight:
		return ActionMove, engine.Right
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit, ""
	case tcell.KeyRune:
	default:
		return ActionNone, ""
	}

	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	if dir, ok := runeDirections[r]; ok {
		return ActionMove, dir
	}
	switch r {
	case 'q':
		return ActionQuit, ""
	case 'r':
		return ActionRestart, ""
	}
	return ActionNone, ""
}
