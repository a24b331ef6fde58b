package engine

import (
	"strings"
	"testing"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input string
		want  Direction
		ok    bool
	}{
		{"up", Up, true},
		{"DOWN", Down, true},
		{" Left ", Left, true},
		{"right", Right, true},
		{"north", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDirection(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDirection(%q) = %q,%v want %q,%v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDirectionDelta(t *testing.T) {
	origin := Position{X: 2, Y: 2}
	want := map[Direction]Position{
		Up:    {X: 2, Y: 1},
		Down:  {X: 2, Y: 3},
		Left:  {X: 1, Y: 2},
		Right: {X: 3, Y: 2},
	}
	for dir, pos := range want {
		if got := origin.Add(dir.Delta()); got != pos {
			t.Errorf("%s from (2,2) = %+v, want %+v", dir, got, pos)
		}
	}
	if d := Direction("diagonal").Delta(); d != (Position{}) {
		t.Errorf("Expected zero delta for unknown direction, got %+v", d)
	}
}

func TestStateFromLayout(t *testing.T) {
	gs := mustLayout(t,
		".#B",
		"P..",
		"E.B",
	)

	if gs.PlayerPos != (Position{X: 0, Y: 1}) {
		t.Errorf("Expected player at (0,1), got %+v", gs.PlayerPos)
	}
	if gs.Exit != (Position{X: 0, Y: 2}) {
		t.Errorf("Expected exit at (0,2), got %+v", gs.Exit)
	}
	if len(gs.Blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d", len(gs.Blocks))
	}
	if gs.CellAt(Position{X: 1, Y: 0}) != Wall {
		t.Error("Expected wall at (1,0)")
	}

	got := strings.Join(gs.Render(), "\n")
	want := ".#B\nP..\nE.B"
	if got != want {
		t.Errorf("Render mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestStateFromLayout_Errors(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
	}{
		{"empty", nil},
		{"ragged", []string{"P..", "..", "..E"}},
		{"bad character", []string{"P..", ".x.", "..E"}},
		{"block on player start", []string{"B..", "...", "..E"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := StateFromLayout(tt.layout); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(gs *GameState)
		want   string
	}{
		{
			name:   "player on wall",
			mutate: func(gs *GameState) { gs.Grid[0][0] = Wall },
			want:   "player",
		},
		{
			name:   "exit covered",
			mutate: func(gs *GameState) { gs.Grid[2][2] = Block },
			want:   "exit",
		},
		{
			name:   "stacked blocks",
			mutate: func(gs *GameState) { gs.Blocks[1].X, gs.Blocks[1].Y = gs.Blocks[0].X, gs.Blocks[0].Y },
			want:   "share",
		},
		{
			name:   "block entity on empty cell",
			mutate: func(gs *GameState) { gs.Grid[0][1] = Empty },
			want:   "sits on",
		},
		{
			name:   "stray block cell",
			mutate: func(gs *GameState) { gs.Grid[2][0] = Block },
			want:   "entities",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := mustLayout(t,
				"PB.",
				"..B",
				"..E",
			)
			tt.mutate(gs)
			err := gs.CheckInvariants()
			if err == nil {
				t.Fatal("Expected an invariant violation")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestOpenCells(t *testing.T) {
	gs := mustLayout(t,
		"P#.",
		".B.",
		"..E",
	)

	cells := gs.OpenCells()

	want := []Position{{X: 2, Y: 0}, {X: 0, Y: 1}, {X: 2, Y: 1}, {X: 0, Y: 2}, {X: 1, Y: 2}}
	if len(cells) != len(want) {
		t.Fatalf("Expected %d open cells, got %v", len(want), cells)
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d = %+v, want %+v", i, cells[i], want[i])
		}
	}
}

func TestInterpolate(t *testing.T) {
	b := MobileBlock{X: 10, Y: 0, DrawX: 0, DrawY: 5}

	b.Interpolate(0.2)

	if b.DrawX != 2 {
		t.Errorf("Expected DrawX 2, got %g", b.DrawX)
	}
	if b.DrawY != 4 {
		t.Errorf("Expected DrawY 4, got %g", b.DrawY)
	}
	if b.X != 10 || b.Y != 0 {
		t.Error("Expected logical coordinates untouched")
	}
}

func TestClone(t *testing.T) {
	gs := mustLayout(t,
		"PB.",
		"...",
		"..E",
	)
	gs.LastEvent = &Event{Type: EventLevelUp, Level: 2}

	c := gs.Clone()
	c.Grid[1][1] = Wall
	c.Blocks[0].X = 2
	c.LastEvent.Level = 9

	if gs.Grid[1][1] != Empty || gs.Blocks[0].X != 1 || gs.LastEvent.Level != 2 {
		t.Error("Expected clone to be independent of the original")
	}
}

func TestManhattanDistance(t *testing.T) {
	if d := ManhattanDistance(Position{X: 0, Y: 0}, Position{X: 3, Y: 4}); d != 7 {
		t.Errorf("Expected 7, got %d", d)
	}
	if d := ManhattanDistance(Position{X: 3, Y: 4}, Position{X: 1, Y: 1}); d != 5 {
		t.Errorf("Expected 5, got %d", d)
	}
}
