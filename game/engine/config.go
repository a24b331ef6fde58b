package engine

import (
	"fmt"
	"strings"
)

// ValidateGameConfig validates a difficulty preset for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate grid dimensions
	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Rows)
	}
	if config.Cols < MinGridSize || config.Cols > MaxGridSize {
		return fmt.Errorf("config validation: cols must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Cols)
	}

	// Validate pacing
	if config.StartLevel < 0 {
		return fmt.Errorf("config validation: start_level must not be negative, got %d", config.StartLevel)
	}
	if config.InterpolationRate < 0 || config.InterpolationRate > 1 {
		return fmt.Errorf("config validation: interpolation_rate must be within [0,1], got %g", config.InterpolationRate)
	}
	if config.TimeUnitMs < 0 {
		return fmt.Errorf("config validation: time_unit_ms must not be negative, got %d", config.TimeUnitMs)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.LevelUp == "" {
		return fmt.Errorf("config validation: messages.level_up is required")
	}
	if config.Messages.TimeUp == "" {
		return fmt.Errorf("config validation: messages.time_up is required")
	}

	// Validate format strings
	for key, msg := range map[string]string{
		"level_up": config.Messages.LevelUp,
		"time_up":  config.Messages.TimeUp,
	} {
		if strings.Count(msg, "%") > 1 || (strings.Contains(msg, "%") && !strings.Contains(msg, "%d")) {
			return fmt.Errorf("config validation: messages.%s may only contain a single %%d for the level", key)
		}
	}

	return nil
}

// WithDefaults returns a copy with zero-valued optional fields filled in
func (c *GameConfig) WithDefaults() *GameConfig {
	out := *c
	if out.StartLevel == 0 {
		out.StartLevel = 1
	}
	if out.InterpolationRate == 0 {
		out.InterpolationRate = DefaultInterpolation
	}
	if out.TimeUnitMs == 0 {
		out.TimeUnitMs = DefaultTimeUnitMs
	}
	return &out
}

// DefaultGameConfig returns the built-in preset used when no files are available
func DefaultGameConfig() *GameConfig {
	config := &GameConfig{
		Name:              "classic",
		Description:       "10x10 grid, the original pacing",
		Rows:              10,
		Cols:              10,
		StartLevel:        1,
		InterpolationRate: DefaultInterpolation,
		TimeUnitMs:        DefaultTimeUnitMs,
	}
	config.Messages.Welcome = "Reach the green exit before time runs out. Push grey blocks out of your way!"
	config.Messages.LevelUp = "Level Up! Welcome to level %d"
	config.Messages.TimeUp = "Time Up! Level %d starts over"
	config.Messages.Blocked = "That block won't budge"
	config.Messages.Pushed = "Shoved a block"
	return config
}

// formatMessage substitutes the level into a message with an optional %d
func formatMessage(msg string, level int) string {
	if strings.Contains(msg, "%d") {
		return fmt.Sprintf(msg, level)
	}
	return msg
}
