package engine

import (
	"reflect"
	"testing"
)

func mustLayout(t *testing.T, layout ...string) *GameState {
	t.Helper()
	gs, err := StateFromLayout(layout)
	if err != nil {
		t.Fatalf("Failed to build layout: %v", err)
	}
	return gs
}

func TestMovePlayer_Push(t *testing.T) {
	gs := mustLayout(t,
		".....",
		".....",
		"..PB.",
		".....",
		"....E",
	)

	out := gs.MovePlayer(Right)

	if !out.Moved || !out.Pushed {
		t.Fatalf("Expected an accepted push, got %+v", out)
	}
	if gs.PlayerPos != (Position{X: 3, Y: 2}) {
		t.Errorf("Expected player at (3,2), got %+v", gs.PlayerPos)
	}
	if gs.Blocks[0].Pos() != (Position{X: 4, Y: 2}) {
		t.Errorf("Expected block at (4,2), got %+v", gs.Blocks[0].Pos())
	}
	if gs.Grid[2][3] != Empty {
		t.Errorf("Expected vacated cell to be empty, got %s", gs.Grid[2][3])
	}
	if gs.Grid[2][4] != Block {
		t.Errorf("Expected destination cell to hold the block, got %s", gs.Grid[2][4])
	}
	if out.PushedTo == nil || *out.PushedTo != (Position{X: 4, Y: 2}) {
		t.Errorf("Expected PushedTo (4,2), got %v", out.PushedTo)
	}
	if gs.Moves != 1 || gs.Pushes != 1 {
		t.Errorf("Expected 1 move and 1 push, got %d and %d", gs.Moves, gs.Pushes)
	}
	if err := gs.CheckInvariants(); err != nil {
		t.Errorf("Invariant violated: %v", err)
	}
}

func TestMovePlayer_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
		dir    Direction
		reason RejectReason
	}{
		{
			name:   "push into wall",
			layout: []string{".....", ".....", "..PB#", ".....", "....E"},
			dir:    Right,
			reason: RejectBlockedPush,
		},
		{
			name:   "chained push",
			layout: []string{".....", ".....", "..PBB", ".....", "....E"},
			dir:    Right,
			reason: RejectBlockedPush,
		},
		{
			name:   "push off the grid",
			layout: []string{".....", ".....", "...PB", ".....", "....E"},
			dir:    Right,
			reason: RejectBlockedPush,
		},
		{
			name:   "push block onto exit",
			layout: []string{"...", "...", "PBE"},
			dir:    Right,
			reason: RejectBlockedPush,
		},
		{
			name:   "wall ahead",
			layout: []string{"P#.", "...", "..E"},
			dir:    Right,
			reason: RejectWall,
		},
		{
			name:   "top boundary",
			layout: []string{"P..", "...", "..E"},
			dir:    Up,
			reason: RejectBoundary,
		},
		{
			name:   "left boundary",
			layout: []string{"P..", "...", "..E"},
			dir:    Left,
			reason: RejectBoundary,
		},
		{
			name:   "unknown direction",
			layout: []string{"P..", "...", "..E"},
			dir:    Direction("sideways"),
			reason: RejectInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := mustLayout(t, tt.layout...)
			before := gs.Clone()

			out := gs.MovePlayer(tt.dir)

			if out.Moved {
				t.Fatalf("Expected move to be rejected, got %+v", out)
			}
			if out.Reason != tt.reason {
				t.Errorf("Expected reason %q, got %q", tt.reason, out.Reason)
			}
			if !reflect.DeepEqual(before, gs) {
				t.Errorf("Expected rejected move to leave state unchanged")
			}
		})
	}
}

func TestMovePlayer_RejectionIsIdempotent(t *testing.T) {
	gs := mustLayout(t,
		"P#.",
		"...",
		"..E",
	)

	gs.MovePlayer(Right)
	first := gs.Clone()
	gs.MovePlayer(Right)

	if !reflect.DeepEqual(first, gs) {
		t.Errorf("Expected repeated illegal move to produce identical state")
	}
}

func TestMovePlayer_OpenStep(t *testing.T) {
	gs := mustLayout(t,
		"P..",
		"...",
		"..E",
	)

	out := gs.MovePlayer(Down)

	if !out.Moved || out.Pushed {
		t.Fatalf("Expected a plain step, got %+v", out)
	}
	if out.From != (Position{X: 0, Y: 0}) || out.To != (Position{X: 0, Y: 1}) {
		t.Errorf("Expected (0,0) -> (0,1), got %+v -> %+v", out.From, out.To)
	}
	if gs.AtExit() {
		t.Error("Expected player not to be at the exit")
	}
}

func TestMovePlayer_ReachExit(t *testing.T) {
	gs := mustLayout(t,
		"...",
		"...",
		".PE",
	)

	if out := gs.MovePlayer(Right); !out.Moved {
		t.Fatalf("Expected move onto the exit, got %+v", out)
	}
	if !gs.AtExit() {
		t.Error("Expected player to be at the exit")
	}
}

func TestCanMoveTo(t *testing.T) {
	gs := mustLayout(t,
		"P#B",
		"...",
		"..E",
	)

	tests := []struct {
		pos  Position
		want bool
	}{
		{Position{X: 0, Y: 1}, true},
		{Position{X: 1, Y: 0}, false},
		{Position{X: 2, Y: 0}, false},
		{Position{X: -1, Y: 0}, false},
		{Position{X: 0, Y: 3}, false},
	}
	for _, tt := range tests {
		if got := gs.CanMoveTo(tt.pos); got != tt.want {
			t.Errorf("CanMoveTo(%+v) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}
