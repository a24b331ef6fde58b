// Command analyze prints quick, human-readable difficulty heuristics for the
// presets in the project's configs directory. For each preset it tabulates the
// per-level parameters (walls, blocks, time budget, block cadence) and samples
// generated levels to report how crowded they are and how often the exit is
// walled off.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/blockrush/game/config"
	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

// LevelStats summarizes the generated levels sampled for one level number.
type LevelStats struct {
	Level           int
	WallDraws       int
	BlockTarget     int
	TimeBudget      int
	BlockIntervalMs int

	AvgWalls  float64
	AvgBlocks float64
	OpenRatio float64
	Reachable int
	Samples   int
	ExitDist  int
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "print difficulty heuristics for Block Rush presets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "configs", Usage: "config directory", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.IntFlag{Name: "levels", Value: 10, Usage: "levels to tabulate per preset"},
			&cli.IntFlag{Name: "samples", Value: 50, Usage: "generated grids per level"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(os.Stdout, cmd.String("dir"), int(cmd.Int("levels")), int(cmd.Int("samples")))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(w io.Writer, dir string, levels, samples int) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}
	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	for _, info := range infos {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Fprintf(w, "Error loading %s: %v\n", info.Filename, err)
			continue
		}
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", info.Filename)
		analyzeConfig(w, cfg.WithDefaults(), levels, samples)
	}
	return nil
}

func analyzeConfig(w io.Writer, cfg *engine.GameConfig, levels, samples int) {
	fmt.Fprintf(w, "Name: %s\n", cfg.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", cfg.Cols, cfg.Rows)
	fmt.Fprintf(w, "Start Level: %d\n", cfg.StartLevel)
	fmt.Fprintf(w, "Time Unit: %dms\n", cfg.TimeUnitMs)

	fmt.Fprintf(w, "%5s %6s %7s %5s %9s %9s %9s %6s %9s\n",
		"level", "walls", "blocks", "time", "interval", "avgWalls", "avgBlock", "open", "reachable")

	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	var walledOff []int
	for level := cfg.StartLevel; level < cfg.StartLevel+levels; level++ {
		s := levelStats(cfg, level, samples, rng)
		fmt.Fprintf(w, "%5d %6d %7d %5d %7dms %9.1f %9.1f %5.0f%% %5d/%-3d\n",
			s.Level, s.WallDraws, s.BlockTarget, s.TimeBudget, s.BlockIntervalMs,
			s.AvgWalls, s.AvgBlocks, s.OpenRatio*100, s.Reachable, s.Samples)
		if s.Samples > 0 && s.Reachable < s.Samples {
			walledOff = append(walledOff, level)
		}
	}

	if len(walledOff) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: exit can be walled off on levels %v (those rounds end on time-up)\n", walledOff)
	} else {
		fmt.Fprintf(w, "✅ Exit reachable past walls on every sampled grid\n")
	}

	shortest := engine.ManhattanDistance(engine.Position{}, engine.Position{X: cfg.Cols - 1, Y: cfg.Rows - 1})
	last := cfg.StartLevel + levels - 1
	budgetMs := engine.TimeBudget(last) * cfg.TimeUnitMs
	fmt.Fprintf(w, "Shortest route: %d moves; level %d allows %dms (%.0fms per move)\n",
		shortest, last, budgetMs, float64(budgetMs)/float64(max(shortest, 1)))
}

// levelStats generates samples grids for level and aggregates them
func levelStats(cfg *engine.GameConfig, level, samples int, rng *rand.Rand) LevelStats {
	s := LevelStats{
		Level:           level,
		WallDraws:       engine.WallDraws(level),
		BlockTarget:     engine.BlockTarget(level, cfg.Rows, cfg.Cols),
		TimeBudget:      engine.TimeBudget(level),
		BlockIntervalMs: engine.BlockIntervalMs(level),
		Samples:         samples,
		ExitDist:        engine.ManhattanDistance(engine.Position{}, engine.Position{X: cfg.Cols - 1, Y: cfg.Rows - 1}),
	}
	if samples <= 0 {
		return s
	}

	cells := float64(cfg.Rows * cfg.Cols)
	var walls, blocks, open float64
	for i := 0; i < samples; i++ {
		gs := engine.Generate(level, cfg.Rows, cfg.Cols, rng)
		w := engine.CountCellType(gs.Grid, engine.Wall)
		b := len(gs.Blocks)
		walls += float64(w)
		blocks += float64(b)
		open += (cells - float64(w) - float64(b)) / cells
		if reachable(gs) {
			s.Reachable++
		}
	}

	n := float64(samples)
	s.AvgWalls = walls / n
	s.AvgBlocks = blocks / n
	s.OpenRatio = open / n
	return s
}

// reachable reports whether the exit connects to the player through non-wall
// cells. Blocks are ignored since they can be pushed or move on their own.
func reachable(gs *engine.GameState) bool {
	seen := map[engine.Position]bool{gs.PlayerPos: true}
	stack := []engine.Position{gs.PlayerPos}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p == gs.Exit {
			return true
		}
		for _, d := range engine.Directions {
			next := p.Add(d.Delta())
			if gs.InBounds(next) && !seen[next] && gs.CellAt(next) != engine.Wall {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}
