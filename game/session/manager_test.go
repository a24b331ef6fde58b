package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/blockrush/game/engine"
	"github.com/wricardo/mcp-training/blockrush/game/loop"
)

func createTestConfig() *engine.GameConfig {
	config := engine.DefaultGameConfig()
	config.Name = "Test Config"
	config.Rows, config.Cols = 6, 6
	config.Seed = 3
	config.TimeUnitMs = 10
	return config
}

func newTestManager() (*Manager, *loop.ManualClock) {
	clock := loop.NewManualClock()
	return NewManagerWithClock(clock), clock
}

func TestManager_Create(t *testing.T) {
	manager, _ := newTestManager()

	session, err := manager.Create("", createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if len(session.ID) != 4 {
		t.Errorf("Expected 4-character generated ID, got %q", session.ID)
	}
	if session.Runner == nil || !session.Runner.Running() {
		t.Error("Expected a started runner")
	}
	if session.Config.TimeUnitMs != 10 {
		t.Errorf("Expected config to be kept, got %+v", session.Config)
	}

	if _, err := manager.Create("mine", createTestConfig()); err != nil {
		t.Fatalf("Failed to create named session: %v", err)
	}
	if _, err := manager.Create("MINE", createTestConfig()); !errors.Is(err, ErrSessionAlreadyExists) {
		t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
	}
	if _, err := manager.Create("bad/id", createTestConfig()); !errors.Is(err, ErrInvalidSessionID) {
		t.Errorf("Expected ErrInvalidSessionID, got %v", err)
	}

	bad := createTestConfig()
	bad.Rows = 1
	if _, err := manager.Create("bad", bad); err == nil {
		t.Error("Expected engine error for invalid config")
	}
}

func TestManager_Get(t *testing.T) {
	manager, _ := newTestManager()
	created, _ := manager.Create("AbCd", createTestConfig())

	for _, id := range []string{"AbCd", "abcd", "ABCD"} {
		got, err := manager.Get(id)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", id, err)
		}
		if got != created {
			t.Errorf("Get(%q) returned a different session", id)
		}
	}

	if _, err := manager.Get("none"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	manager, clock := newTestManager()
	session, _ := manager.Create("gone", createTestConfig())

	if err := manager.Delete("GONE"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if session.Runner.Running() {
		t.Error("Expected runner to be stopped")
	}
	if clock.Active() != 0 {
		t.Errorf("Expected no scheduled tasks, got %d", clock.Active())
	}
	if err := manager.Delete("gone"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager, _ := newTestManager()
	for i := 0; i < 3; i++ {
		manager.Create(fmt.Sprintf("s%d", i), createTestConfig())
	}

	if got := len(manager.List()); got != 3 {
		t.Errorf("Expected 3 sessions, got %d", got)
	}
	if manager.Count() != 3 {
		t.Errorf("Expected count 3, got %d", manager.Count())
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager, _ := newTestManager()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return base }

	old, _ := manager.Create("old", createTestConfig())
	manager.now = func() time.Time { return base.Add(50 * time.Minute) }
	manager.Create("fresh", createTestConfig())

	manager.now = func() time.Time { return base.Add(70 * time.Minute) }
	removed := manager.CleanupExpiredSessions(time.Hour)

	if removed != 1 {
		t.Fatalf("Expected 1 removed session, got %d", removed)
	}
	if _, err := manager.Get("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected old session to be gone")
	}
	if old.Runner.Running() {
		t.Error("Expected expired runner to be stopped")
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Error("Expected fresh session to remain")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager, _ := newTestManager()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return base }
	session, _ := manager.Create("seen", createTestConfig())

	manager.now = func() time.Time { return base.Add(time.Minute) }
	if err := manager.UpdateLastAccessed("seen"); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}
	if !session.LastAccessedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("Expected access time to move, got %v", session.LastAccessedAt)
	}
	if err := manager.UpdateLastAccessed("none"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager, clock := newTestManager()
	a, _ := manager.Create("a", createTestConfig())
	b, _ := manager.Create("b", createTestConfig())

	a.Runner.Stop()
	clock.Advance(100 * time.Millisecond)

	if got := a.Runner.Snapshot().TimeLeft; got != engine.TimeBudget(1) {
		t.Errorf("Expected stopped session to keep its time, got %d", got)
	}
	if got := b.Runner.Snapshot().TimeLeft; got != engine.TimeBudget(1)-10 {
		t.Errorf("Expected running session to count down, got %d", got)
	}
}

func TestManager_StopAll(t *testing.T) {
	manager, clock := newTestManager()
	manager.Create("a", createTestConfig())
	manager.Create("b", createTestConfig())

	manager.StopAll()

	if clock.Active() != 0 {
		t.Errorf("Expected all tasks stopped, got %d", clock.Active())
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager, _ := newTestManager()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i)
			if _, err := manager.Create(id, createTestConfig()); err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			manager.Get(id)
			manager.UpdateLastAccessed(id)
			manager.List()
			if i%2 == 0 {
				manager.Delete(id)
			}
		}(i)
	}
	wg.Wait()

	if manager.Count() != 10 {
		t.Errorf("Expected 10 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager, _ := newTestManager()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := manager.Create("", createTestConfig())
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if seen[s.ID] {
			t.Fatalf("Duplicate session ID %q", s.ID)
		}
		seen[s.ID] = true
	}
}
