package loop

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

func testConfig(startLevel int) *engine.GameConfig {
	config := engine.DefaultGameConfig()
	config.Rows, config.Cols = 8, 8
	config.StartLevel = startLevel
	config.Seed = 1
	config.TimeUnitMs = 10
	return config
}

func newTestRunner(t *testing.T, startLevel int, layout ...string) (*Runner, *ManualClock) {
	t.Helper()
	e, err := engine.NewEngine(testConfig(startLevel), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	if len(layout) > 0 {
		gs, err := engine.StateFromLayout(layout)
		require.NoError(t, err)
		gs.Level = startLevel
		gs.TimeLeft = engine.TimeBudget(startLevel)
		e.SetState(gs)
	}
	clock := NewManualClock()
	return NewRunner(e, clock), clock
}

func TestRunner_BlockCadence(t *testing.T) {
	r, clock := newTestRunner(t, 1)
	r.Start()
	defer r.Stop()

	assert.Equal(t, 20*time.Millisecond, r.BlockInterval())

	clock.Advance(19 * time.Millisecond)
	assert.Equal(t, 0, r.Snapshot().Ticks)

	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, r.Snapshot().Ticks)

	clock.Advance(40 * time.Millisecond)
	assert.Equal(t, 3, r.Snapshot().Ticks)
}

func TestRunner_Countdown(t *testing.T) {
	r, clock := newTestRunner(t, 1)
	r.Start()
	defer r.Stop()

	clock.Advance(50 * time.Millisecond)

	assert.Equal(t, engine.TimeBudget(1)-5, r.Snapshot().TimeLeft)
}

func TestRunner_RearmsOnLevelUp(t *testing.T) {
	r, clock := newTestRunner(t, 1,
		"...",
		"...",
		".PE",
	)
	r.Start()
	defer r.Stop()

	clock.Advance(15 * time.Millisecond)
	out, _ := r.Move(engine.Right)
	require.NotNil(t, out.Event)
	assert.Equal(t, engine.EventLevelUp, out.Event.Type)

	want := time.Duration(engine.BlockIntervalMs(2)) * 10 * time.Millisecond / 1000
	assert.Equal(t, want, r.BlockInterval())

	// The level 1 task would have fired at 20ms
	clock.Advance(5 * time.Millisecond)
	assert.Equal(t, 0, r.Snapshot().Ticks)

	clock.Advance(want)
	assert.Equal(t, 1, r.Snapshot().Ticks)
	assert.Equal(t, 2, clock.Active())
}

func TestRunner_DropsStaleCallbacks(t *testing.T) {
	r, _ := newTestRunner(t, 1)
	r.Start()
	defer r.Stop()

	r.mu.Lock()
	stale := r.gen
	r.mu.Unlock()

	r.Restart()
	r.onBlockTick(stale)
	r.onCountdown(stale)

	snap := r.Snapshot()
	assert.Equal(t, 0, snap.Ticks)
	assert.Equal(t, engine.TimeBudget(1), snap.TimeLeft)
}

func TestRunner_TimeUp(t *testing.T) {
	r, clock := newTestRunner(t, 19)

	var mu sync.Mutex
	var events []*engine.Event
	r.SetListener(func(state *engine.GameState, ev *engine.Event) {
		if ev != nil {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}
	})
	r.Start()
	defer r.Stop()

	clock.Advance(time.Duration(engine.TimeBudget(19)) * 10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, engine.EventTimeUp, events[0].Type)
	assert.Equal(t, 19, events[0].Level)

	snap := r.Snapshot()
	assert.Equal(t, 19, snap.Level)
	assert.Equal(t, engine.TimeBudget(19), snap.TimeLeft)
	assert.Equal(t, 1, snap.Timeouts)
}

func TestRunner_Stop(t *testing.T) {
	r, clock := newTestRunner(t, 1)
	r.Start()
	r.Start()
	assert.Equal(t, 2, clock.Active())

	r.Stop()
	assert.False(t, r.Running())
	assert.Equal(t, 0, clock.Active())

	before := r.Snapshot()
	clock.Advance(time.Second)
	assert.Equal(t, before.TimeLeft, r.Snapshot().TimeLeft)
	assert.Equal(t, before.Ticks, r.Snapshot().Ticks)
}

func TestRunner_ManualOperationsWhileStopped(t *testing.T) {
	r, _ := newTestRunner(t, 1,
		"PB..",
		"....",
		"....",
		"...E",
	)

	var notified int
	r.SetListener(func(*engine.GameState, *engine.Event) { notified++ })

	out, _ := r.Move(engine.Right)
	assert.True(t, out.Pushed)

	results, snap := r.BulkMove([]engine.Direction{engine.Down, engine.Up, engine.Up})
	assert.Len(t, results, 3)
	assert.False(t, results[2].Moved)
	assert.Equal(t, engine.Position{X: 1, Y: 0}, snap.PlayerPos)

	_, snap = r.TickBlocks()
	assert.Equal(t, 1, snap.Ticks)
	assert.Equal(t, 3, notified)
}

func TestRunner_Frame(t *testing.T) {
	r, _ := newTestRunner(t, 1,
		"P...",
		"..B.",
		"....",
		"...E",
	)
	r.TickBlocks()

	var drawX, drawY float64
	var x, y int
	r.Frame(func(state *engine.GameState) {
		b := state.Blocks[0]
		drawX, drawY, x, y = b.DrawX, b.DrawY, b.X, b.Y
	})

	assert.InDelta(t, 2+(float64(x)-2)*engine.DefaultInterpolation, drawX, 1e-9)
	assert.InDelta(t, 1+(float64(y)-1)*engine.DefaultInterpolation, drawY, 1e-9)
}

func TestRunner_ConcurrentUse(t *testing.T) {
	config := testConfig(1)
	config.TimeUnitMs = 1
	e, err := engine.NewEngine(config, nil)
	require.NoError(t, err)

	r := NewRunner(e, RealClock())
	var mu sync.Mutex
	var violations []error
	r.SetListener(func(state *engine.GameState, ev *engine.Event) {
		if err := state.CheckInvariants(); err != nil {
			mu.Lock()
			violations = append(violations, err)
			mu.Unlock()
		}
	})
	r.Start()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				r.Move(engine.Directions[rng.Intn(len(engine.Directions))])
				r.Frame(func(*engine.GameState) {})
			}
		}(int64(w))
	}
	wg.Wait()
	r.Stop()

	require.NoError(t, r.Snapshot().CheckInvariants())
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, violations)
}

func TestRunner_ListenerSeesMutationOrder(t *testing.T) {
	config := testConfig(1)
	config.TimeUnitMs = 1
	e, err := engine.NewEngine(config, nil)
	require.NoError(t, err)

	// rounds counts regenerations; within a round Moves and Ticks only grow
	type mark struct{ round, steps int }
	var mu sync.Mutex
	var marks []mark
	r := NewRunner(e, RealClock())
	r.SetListener(func(state *engine.GameState, ev *engine.Event) {
		mu.Lock()
		defer mu.Unlock()
		marks = append(marks, mark{state.LevelsCleared + state.Timeouts, state.Moves + state.Ticks})
	})
	r.Start()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 300; i++ {
			r.TickBlocks()
		}
	}()
	go func() {
		defer wg.Done()
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 300; i++ {
			r.Move(engine.Directions[rng.Intn(len(engine.Directions))])
		}
	}()
	wg.Wait()
	r.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, marks)
	for i := 1; i < len(marks); i++ {
		prev, cur := marks[i-1], marks[i]
		if cur.round < prev.round || (cur.round == prev.round && cur.steps < prev.steps) {
			t.Fatalf("delivery %d %+v arrived after %+v", i, cur, prev)
		}
	}
}
