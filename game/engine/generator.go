package engine

import "math/rand"

// WallDraws returns how many wall placements a level attempts
func WallDraws(level int) int {
	return level * WallsPerLevel
}

// BlockTarget returns how many mobile blocks a level asks for on a rows×cols grid
func BlockTarget(level, rows, cols int) int {
	return min(BaseBlocks+level*BlocksPerLevel, rows*cols/3)
}

// TimeBudget returns the countdown length of a level in time units
func TimeBudget(level int) int {
	return max(MinTimeBudget, BaseTimeBudget-(level-1)*TimeBudgetStep)
}

// BlockIntervalMs returns the block scheduler period of a level in milliseconds
func BlockIntervalMs(level int) int {
	return max(BaseBlockIntervalMs-(level-1)*BlockIntervalStepMs, MinBlockIntervalMs)
}

type generation struct {
	level  int
	rows   int
	cols   int
	walls  int
	blocks int
}

// Generate builds a fresh level. Under-supply (fewer walls or blocks than
// requested) is accepted silently.
func Generate(level, rows, cols int, rng *rand.Rand) *GameState {
	return generate(generation{
		level:  level,
		rows:   rows,
		cols:   cols,
		walls:  WallDraws(level),
		blocks: BlockTarget(level, rows, cols),
	}, rng)
}

func generate(g generation, rng *rand.Rand) *GameState {
	gs := &GameState{
		Rows:      g.rows,
		Cols:      g.cols,
		Grid:      make([][]CellType, g.rows),
		PlayerPos: Position{X: 0, Y: 0},
		Exit:      Position{X: g.cols - 1, Y: g.rows - 1},
		Level:     g.level,
		TimeLeft:  TimeBudget(g.level),
		Phase:     Playing,
	}
	for y := range gs.Grid {
		gs.Grid[y] = make([]CellType, g.cols)
		for x := range gs.Grid[y] {
			gs.Grid[y][x] = Empty
		}
	}

	// Duplicate draws overwrite, so the net wall count may come up short
	for i := 0; i < g.walls; i++ {
		p := Position{X: rng.Intn(g.cols), Y: rng.Intn(g.rows)}
		if p == gs.PlayerPos || p == gs.Exit {
			continue
		}
		gs.setCell(p, Wall)
	}

	budget := g.rows * g.cols * 2
	for attempts := 0; len(gs.Blocks) < g.blocks && attempts < budget; attempts++ {
		p := Position{X: rng.Intn(g.cols), Y: rng.Intn(g.rows)}
		if !gs.IsOpen(p) {
			continue
		}
		gs.setCell(p, Block)
		gs.Blocks = append(gs.Blocks, MobileBlock{
			ID:    len(gs.Blocks),
			X:     p.X,
			Y:     p.Y,
			DrawX: float64(p.X),
			DrawY: float64(p.Y),
		})
	}

	return gs
}
