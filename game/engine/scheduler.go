package engine

import "math/rand"

// RedistributeBlocks runs one scheduler tick and returns how many blocks
// relocated.
//
// Targets are chosen greedily in three phases: a free neighbor, then any free
// cell from the shuffled pool, then any non-wall neighbor even if another
// block currently holds it. The commit pass resolves clashes in entity order.
// The result is best effort and depends on visiting order; it is not an
// optimal assignment and is not meant to be one, since the pacing of the game
// relies on this tick-by-tick behavior.
func (gs *GameState) RedistributeBlocks(rng *rand.Rand) int {
	n := len(gs.Blocks)
	gs.Ticks++
	if n == 0 {
		gs.LastTickMoved = 0
		return 0
	}

	origin := make([]Position, n)
	for i := range gs.Blocks {
		origin[i] = gs.Blocks[i].Pos()
	}

	pool := gs.OpenCells()
	open := make(map[Position]bool, len(pool))
	for _, p := range pool {
		open[p] = true
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	inPool := make(map[Position]bool, len(pool))
	for _, p := range pool {
		inPool[p] = true
	}

	targets := make([]*Position, n)

	// Phase 1: local moves
	for _, i := range rng.Perm(n) {
		options := gs.neighbors(origin[i], func(p Position) bool {
			return open[p] && inPool[p]
		}, rng)
		if len(options) == 0 {
			continue
		}
		t := options[0]
		targets[i] = &t
		delete(inPool, t)
	}
	remaining := pool[:0]
	for _, p := range pool {
		if inPool[p] {
			remaining = append(remaining, p)
		}
	}

	// Phase 2: teleport from whatever is left in the pool
	for i := 0; i < n && len(remaining) > 0; i++ {
		if targets[i] != nil {
			continue
		}
		t := remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
		targets[i] = &t
	}

	// Phase 3: contested neighbors, exclusivity is settled at commit
	for i := 0; i < n; i++ {
		if targets[i] != nil {
			continue
		}
		options := gs.neighbors(origin[i], func(p Position) bool {
			return gs.Grid[p.Y][p.X] != Wall && p != gs.Exit && p != gs.PlayerPos
		}, rng)
		if len(options) > 0 {
			t := options[0]
			targets[i] = &t
		}
	}

	// Commit
	for _, p := range origin {
		gs.setCell(p, Empty)
	}

	claimed := make(map[Position]int, n)
	final := make([]Position, n)

	// stay sends block i home. Whoever borrowed that cell through a contested
	// target goes home as well, and so on down the chain.
	stay := func(i int) {
		for {
			home := origin[i]
			j, taken := claimed[home]
			final[i] = home
			claimed[home] = i
			if !taken || j == i {
				return
			}
			i = j
		}
	}

	for i := 0; i < n; i++ {
		t := targets[i]
		if t == nil {
			stay(i)
			continue
		}
		if _, taken := claimed[*t]; !taken {
			final[i] = *t
			claimed[*t] = i
			continue
		}

		rescued := false
		for _, p := range gs.neighbors(origin[i], func(p Position) bool {
			_, taken := claimed[p]
			return open[p] && !taken
		}, rng) {
			final[i] = p
			claimed[p] = i
			rescued = true
			break
		}
		if !rescued {
			stay(i)
		}
	}

	moved := 0
	for i := range gs.Blocks {
		gs.Blocks[i].X, gs.Blocks[i].Y = final[i].X, final[i].Y
		gs.setCell(final[i], Block)
		if final[i] != origin[i] {
			moved++
		}
	}
	gs.LastTickMoved = moved
	return moved
}

// neighbors returns the in-bounds orthogonal neighbors of p accepted by keep,
// in random order
func (gs *GameState) neighbors(p Position, keep func(Position) bool, rng *rand.Rand) []Position {
	out := make([]Position, 0, 4)
	for _, d := range Directions {
		q := p.Add(d.Delta())
		if gs.InBounds(q) && keep(q) {
			out = append(out, q)
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
