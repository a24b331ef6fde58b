// Command validate checks the difficulty presets in a config directory
// (../configs by default). For each *.json file it checks:
//   - JSON structure, rejecting unknown fields
//   - The preset rules enforced by the engine (dimensions, pacing, messages)
//   - Generated levels: grid invariants hold for a sample of levels
//   - Reachability: how many sampled levels have a wall-free path to the exit
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file, then generates
// sampleLevels levels starting at its start level.
func validateConfig(filePath string, sampleLevels int) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	if base := strings.TrimSuffix(result.File, ".json"); config.Name != base {
		result.fail("name %q does not match file name %q", config.Name, base)
	}

	if !result.Valid {
		return result
	}

	cfg := config.WithDefaults()
	levels := checkLevels(cfg, sampleLevels)
	if levels.Valid {
		result.Errors = append(result.Errors, levels.Errors...)
	} else {
		result.Valid = false
		result.Errors = append(result.Errors, levels.Errors...)
		return result
	}

	result.info("Name: %s", cfg.Name)
	result.info("Grid: %dx%d", cfg.Rows, cfg.Cols)
	result.info("Start level: %d", cfg.StartLevel)
	result.info("Time budget: %d units of %dms", engine.TimeBudget(cfg.StartLevel), cfg.TimeUnitMs)
	result.info("Blocks: %d", engine.BlockTarget(cfg.StartLevel, cfg.Rows, cfg.Cols))
	if cfg.Seed != 0 {
		result.info("Seed: %d", cfg.Seed)
	}

	return result
}

// checkLevels generates count levels from the preset's start level and checks
// the grid invariants of each. Reachability is reported, not enforced: a
// walled-off exit is part of the game and resolves on time-up.
func checkLevels(cfg *engine.GameConfig, count int) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	reachable := 0
	for i := 0; i < count; i++ {
		level := cfg.StartLevel + i
		gs := engine.Generate(level, cfg.Rows, cfg.Cols, rng)
		if err := gs.CheckInvariants(); err != nil {
			result.fail("Level %d: %v", level, err)
			continue
		}
		if exitReachable(gs) {
			reachable++
		}
	}

	if result.Valid {
		result.info("Invariants: %d generated levels", count)
		result.info("Exit reachable past walls: %d/%d levels", reachable, count)
	}
	return result
}

// exitReachable flood-fills from the player over every non-wall cell. Blocks
// count as passable since they can be pushed or move on their own.
func exitReachable(gs *engine.GameState) bool {
	visited := make(map[engine.Position]bool)
	queue := []engine.Position{gs.PlayerPos}
	visited[gs.PlayerPos] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == gs.Exit {
			return true
		}

		for _, dir := range engine.Directions {
			next := current.Add(dir.Delta())
			if !gs.InBounds(next) || visited[next] || gs.CellAt(next) == engine.Wall {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

// validateDir validates every preset in dir, printing a concise report. It
// returns false if any preset is invalid.
func validateDir(dir string, sampleLevels int) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no config files in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file, sampleLevels)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
	}
	return allValid, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "validate",
		Usage: "validate Block Rush difficulty presets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "../configs", Usage: "config directory", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.IntFlag{Name: "levels", Value: 10, Usage: "levels to generate per preset"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ok, err := validateDir(cmd.String("dir"), int(cmd.Int("levels")))
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
