// Package play is the terminal client for Block Rush.
//
// It hosts one game loop in-process and draws it with tcell at roughly 60
// frames per second. Each frame advances the blocks' draw coordinates toward
// their logical cells, so blocks glide instead of jumping. Level-up and
// time-up events show a fading banner and play a short chime when audio is
// available.
//
// Keys: arrows, WASD or hjkl move; r regenerates the level; q, Esc or
// Ctrl-C quit.
package play
