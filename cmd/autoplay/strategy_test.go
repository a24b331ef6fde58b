package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

func layoutState(t *testing.T, layout ...string) *engine.GameState {
	t.Helper()
	gs, err := engine.StateFromLayout(layout)
	require.NoError(t, err)
	return gs
}

func TestShortestPath(t *testing.T) {
	gs := layoutState(t,
		"P.#",
		"#..",
		"#BE",
	)

	assert.Equal(t, []engine.Direction{engine.Right, engine.Down, engine.Right, engine.Down}, shortestPath(gs, true))
	assert.Len(t, shortestPath(gs, false), 4)

	walled := layoutState(t,
		"P.#",
		"###",
		"..E",
	)
	assert.Nil(t, shortestPath(walled, true))
	assert.Nil(t, shortestPath(walled, false))
}

func TestStrategy_ClearRoute(t *testing.T) {
	gs := layoutState(t,
		"P..",
		"...",
		"..E",
	)
	plan := NewStrategy().Plan(gs)
	assert.Len(t, plan, 4)
}

func TestStrategy_PushesWhenBlocked(t *testing.T) {
	gs := layoutState(t, "PB..E")
	plan := NewStrategy().Plan(gs)
	assert.Equal(t, []engine.Direction{engine.Right}, plan)
}

func TestStrategy_BoxedIn(t *testing.T) {
	gs := layoutState(t, "PBB.E")
	assert.Empty(t, NewStrategy().Plan(gs))
}

func TestStrategy_WandersWhenExitWalledOff(t *testing.T) {
	gs := layoutState(t,
		"P.#",
		"..#",
		"##E",
	)
	s := NewStrategy()
	plan := s.Plan(gs)
	require.Len(t, plan, 1)
	assert.True(t, legal(gs, plan[0]))

	// Revisits are avoided
	first := gs.PlayerPos.Add(plan[0].Delta())
	gs.MovePlayer(plan[0])
	gs.MovePlayer(engine.Up)
	gs.MovePlayer(engine.Left)
	require.Equal(t, engine.Position{X: 0, Y: 0}, gs.PlayerPos)
	s.visits[first] += 5
	next := s.Plan(gs)
	require.Len(t, next, 1)
	assert.NotEqual(t, first, gs.PlayerPos.Add(next[0].Delta()))
}
