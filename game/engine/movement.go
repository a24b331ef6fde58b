package engine

// CanMoveTo checks if the player could step onto p without pushing anything
func (gs *GameState) CanMoveTo(p Position) bool {
	return gs.InBounds(p) && gs.Grid[p.Y][p.X] == Empty
}

// canPushInto reports whether a pushed block may land on p
func (gs *GameState) canPushInto(p Position) bool {
	return gs.CanMoveTo(p) && p != gs.Exit && p != gs.PlayerPos
}

// PossibleMoves returns the directions MovePlayer would accept from gs
func (gs *GameState) PossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range Directions {
		if gs.Clone().MovePlayer(dir).Moved {
			possible = append(possible, dir)
		}
	}
	return possible
}

// MovePlayer applies one player move with single-block push semantics.
// Illegal moves leave the state untouched and report why in the outcome.
func (gs *GameState) MovePlayer(dir Direction) MoveOutcome {
	out := MoveOutcome{Direction: dir, From: gs.PlayerPos, To: gs.PlayerPos}

	delta := dir.Delta()
	if delta == (Position{}) {
		out.Reason = RejectInvalid
		return out
	}

	next := gs.PlayerPos.Add(delta)
	if !gs.InBounds(next) {
		out.Reason = RejectBoundary
		return out
	}

	switch gs.Grid[next.Y][next.X] {
	case Wall:
		out.Reason = RejectWall
		return out

	case Block:
		// Only the single block directly ahead moves, one cell along the same axis
		dest := next.Add(delta)
		if !gs.canPushInto(dest) {
			out.Reason = RejectBlockedPush
			return out
		}
		idx := gs.BlockAt(next)
		if idx < 0 {
			out.Reason = RejectBlockedPush
			return out
		}
		gs.setCell(next, Empty)
		gs.Blocks[idx].X, gs.Blocks[idx].Y = dest.X, dest.Y
		gs.setCell(dest, Block)
		out.Pushed = true
		out.PushedTo = &dest
		gs.Pushes++
	}

	gs.PlayerPos = next
	gs.Moves++
	out.Moved = true
	out.To = next
	return out
}

// AtExit reports whether the player occupies the exit cell
func (gs *GameState) AtExit() bool {
	return gs.PlayerPos == gs.Exit
}
