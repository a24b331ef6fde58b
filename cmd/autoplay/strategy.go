package main

import (
	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

// Strategy plans routes to the exit. Blocks move on their own, so a plan is
// only good for the state it was made from; callers replan after every call.
type Strategy struct {
	level  int
	visits map[engine.Position]int
}

func NewStrategy() *Strategy {
	return &Strategy{visits: make(map[engine.Position]int)}
}

// Plan returns the moves to make next. A clear path comes back whole. When
// only blocks stand in the way, one step toward the exit is returned,
// pushing if needed. Otherwise the least-visited legal move closest to the
// exit is returned. An empty plan means every move is rejected right now.
func (s *Strategy) Plan(state *engine.GameState) []engine.Direction {
	if state.Level != s.level || state.Moves == 0 {
		s.level = state.Level
		s.visits = make(map[engine.Position]int)
	}
	s.visits[state.PlayerPos]++

	if path := shortestPath(state, true); len(path) > 0 {
		return path
	}

	if path := shortestPath(state, false); len(path) > 0 && legal(state, path[0]) {
		return path[:1]
	}

	var best engine.Direction
	bestVisits, bestDist := 0, 0
	for _, dir := range engine.Directions {
		if !legal(state, dir) {
			continue
		}
		to := state.PlayerPos.Add(dir.Delta())
		v, d := s.visits[to], engine.ManhattanDistance(to, state.Exit)
		if best == "" || v < bestVisits || (v == bestVisits && d < bestDist) {
			best, bestVisits, bestDist = dir, v, d
		}
	}
	if best == "" {
		return nil
	}
	return []engine.Direction{best}
}

// legal probes a move on a copy of state
func legal(state *engine.GameState, dir engine.Direction) bool {
	return state.Clone().MovePlayer(dir).Moved
}

// shortestPath runs a breadth-first search from the player to the exit. Walls
// always block; blocks block only when avoidBlocks is set.
func shortestPath(state *engine.GameState, avoidBlocks bool) []engine.Direction {
	type step struct {
		prev engine.Position
		dir  engine.Direction
	}

	start := state.PlayerPos
	came := map[engine.Position]step{start: {}}
	queue := []engine.Position{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == state.Exit {
			var path []engine.Direction
			for p := current; p != start; p = came[p].prev {
				path = append(path, came[p].dir)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, dir := range engine.Directions {
			next := current.Add(dir.Delta())
			if _, seen := came[next]; seen || !state.InBounds(next) {
				continue
			}
			switch state.CellAt(next) {
			case engine.Wall:
				continue
			case engine.Block:
				if avoidBlocks {
					continue
				}
			}
			came[next] = step{prev: current, dir: dir}
			queue = append(queue, next)
		}
	}
	return nil
}
