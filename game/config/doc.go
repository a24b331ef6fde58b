// Package config manages the difficulty presets of Block Rush.
//
// Presets are JSON files in a config directory (configs/ by default). Each
// one fixes the grid size for a game and may override the start level, the
// random seed, the render interpolation rate, the length of one time unit and
// the user-facing messages:
//
//	{
//	  "name": "classic",
//	  "description": "10x10 grid, the original pacing",
//	  "rows": 10,
//	  "cols": 10,
//	  "messages": {
//	    "welcome": "Reach the green exit before time runs out.",
//	    "level_up": "Level Up! Welcome to level %d",
//	    "time_up": "Time Up! Level %d starts over"
//	  }
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	preset, err := manager.LoadConfig("large")
//
// Loaded presets are validated with engine.ValidateGameConfig and cached.
// The default preset is classic, then the first valid file, then the built-in
// engine.DefaultGameConfig.
package config
