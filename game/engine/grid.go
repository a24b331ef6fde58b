package engine

import "fmt"

// InBounds reports whether p lies on the grid
func (gs *GameState) InBounds(p Position) bool {
	return p.X >= 0 && p.X < gs.Cols && p.Y >= 0 && p.Y < gs.Rows
}

// CellAt returns the cell tag at p. Out-of-bounds positions read as Wall.
func (gs *GameState) CellAt(p Position) CellType {
	if !gs.InBounds(p) {
		return Wall
	}
	return gs.Grid[p.Y][p.X]
}

func (gs *GameState) setCell(p Position, c CellType) {
	gs.Grid[p.Y][p.X] = c
}

// IsOpen reports whether p is a legal empty cell: on the grid, tagged Empty,
// and neither the player's cell nor the exit
func (gs *GameState) IsOpen(p Position) bool {
	if !gs.InBounds(p) {
		return false
	}
	if gs.Grid[p.Y][p.X] != Empty {
		return false
	}
	return p != gs.PlayerPos && p != gs.Exit
}

// BlockAt returns the index of the block at p, or -1
func (gs *GameState) BlockAt(p Position) int {
	for i := range gs.Blocks {
		if gs.Blocks[i].X == p.X && gs.Blocks[i].Y == p.Y {
			return i
		}
	}
	return -1
}

// OpenCells lists every legal empty cell in row-major order
func (gs *GameState) OpenCells() []Position {
	cells := make([]Position, 0, gs.Rows*gs.Cols)
	for y := 0; y < gs.Rows; y++ {
		for x := 0; x < gs.Cols; x++ {
			p := Position{X: x, Y: y}
			if gs.IsOpen(p) {
				cells = append(cells, p)
			}
		}
	}
	return cells
}

// CheckInvariants returns the first violated grid invariant, or nil
func (gs *GameState) CheckInvariants() error {
	if len(gs.Grid) != gs.Rows {
		return fmt.Errorf("grid has %d rows, want %d", len(gs.Grid), gs.Rows)
	}
	for y, row := range gs.Grid {
		if len(row) != gs.Cols {
			return fmt.Errorf("grid row %d has %d cells, want %d", y, len(row), gs.Cols)
		}
	}

	if !gs.InBounds(gs.PlayerPos) {
		return fmt.Errorf("player at (%d,%d) is out of bounds", gs.PlayerPos.X, gs.PlayerPos.Y)
	}
	if c := gs.CellAt(gs.PlayerPos); c != Empty {
		return fmt.Errorf("player at (%d,%d) stands on a %s cell", gs.PlayerPos.X, gs.PlayerPos.Y, c)
	}
	if c := gs.CellAt(gs.Exit); c != Empty {
		return fmt.Errorf("exit at (%d,%d) is a %s cell", gs.Exit.X, gs.Exit.Y, c)
	}

	seen := make(map[Position]int, len(gs.Blocks))
	for i := range gs.Blocks {
		p := gs.Blocks[i].Pos()
		if !gs.InBounds(p) {
			return fmt.Errorf("block %d at (%d,%d) is out of bounds", gs.Blocks[i].ID, p.X, p.Y)
		}
		if j, dup := seen[p]; dup {
			return fmt.Errorf("blocks %d and %d share (%d,%d)", gs.Blocks[j].ID, gs.Blocks[i].ID, p.X, p.Y)
		}
		seen[p] = i
		if p == gs.PlayerPos {
			return fmt.Errorf("block %d shares (%d,%d) with the player", gs.Blocks[i].ID, p.X, p.Y)
		}
		if c := gs.Grid[p.Y][p.X]; c != Block {
			return fmt.Errorf("block %d at (%d,%d) sits on a %s cell", gs.Blocks[i].ID, p.X, p.Y, c)
		}
	}

	if n := CountCellType(gs.Grid, Block); n != len(gs.Blocks) {
		return fmt.Errorf("%d block cells but %d block entities", n, len(gs.Blocks))
	}
	return nil
}

// Clone returns a deep copy of the state
func (gs *GameState) Clone() *GameState {
	c := *gs
	c.Grid = make([][]CellType, len(gs.Grid))
	for y, row := range gs.Grid {
		c.Grid[y] = append([]CellType(nil), row...)
	}
	c.Blocks = append([]MobileBlock(nil), gs.Blocks...)
	if gs.LastEvent != nil {
		ev := *gs.LastEvent
		c.LastEvent = &ev
	}
	return &c
}

// Interpolate advances every block's rendering coordinate one frame
func (gs *GameState) Interpolate(rate float64) {
	for i := range gs.Blocks {
		gs.Blocks[i].Interpolate(rate)
	}
}

// Render returns one string per row: P player, E exit, # wall, B block, . empty
func (gs *GameState) Render() []string {
	lines := make([]string, gs.Rows)
	for y := 0; y < gs.Rows; y++ {
		row := make([]byte, gs.Cols)
		for x := 0; x < gs.Cols; x++ {
			row[x] = CellChar(gs, Position{X: x, Y: y})
		}
		lines[y] = string(row)
	}
	return lines
}

// CellChar returns the single-character representation of p
func CellChar(gs *GameState, p Position) byte {
	switch {
	case p == gs.PlayerPos:
		return 'P'
	case p == gs.Exit:
		return 'E'
	}
	switch gs.CellAt(p) {
	case Wall:
		return '#'
	case Block:
		return 'B'
	}
	return '.'
}
