package engine

import "fmt"

// CountCellType counts the total number of cells of a specific type in the grid
func CountCellType(grid [][]CellType, cellType CellType) int {
	count := 0
	for _, row := range grid {
		for _, cell := range row {
			if cell == cellType {
				count++
			}
		}
	}
	return count
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// StateFromLayout builds a playing state from a character layout using the
// same alphabet as Render: P player, E exit, # wall, B block, . empty.
// A missing P defaults to (0,0) and a missing E to the bottom-right corner.
func StateFromLayout(layout []string) (*GameState, error) {
	if len(layout) == 0 {
		return nil, fmt.Errorf("layout is empty")
	}
	rows, cols := len(layout), len(layout[0])

	gs := &GameState{
		Rows:  rows,
		Cols:  cols,
		Grid:  make([][]CellType, rows),
		Exit:  Position{X: cols - 1, Y: rows - 1},
		Level: 1,
		Phase: Playing,
	}

	for y, line := range layout {
		if len(line) != cols {
			return nil, fmt.Errorf("row %d has %d characters, want %d", y, len(line), cols)
		}
		gs.Grid[y] = make([]CellType, cols)
		for x, ch := range line {
			p := Position{X: x, Y: y}
			gs.Grid[y][x] = Empty
			switch ch {
			case '.':
			case 'P':
				gs.PlayerPos = p
			case 'E':
				gs.Exit = p
			case '#':
				gs.Grid[y][x] = Wall
			case 'B':
				gs.Grid[y][x] = Block
				gs.Blocks = append(gs.Blocks, MobileBlock{
					ID: len(gs.Blocks), X: x, Y: y, DrawX: float64(x), DrawY: float64(y),
				})
			default:
				return nil, fmt.Errorf("invalid character '%c' at row %d, col %d", ch, y, x)
			}
		}
	}

	if err := gs.CheckInvariants(); err != nil {
		return nil, err
	}
	return gs, nil
}
