package loop

import (
	"sync"
	"time"
)

// Task is a repeating scheduled action
type Task interface {
	// Stop cancels future runs. A run already in progress is not interrupted.
	Stop()
}

// Clock schedules repeating tasks
type Clock interface {
	Every(d time.Duration, f func()) Task
}

// RealClock returns a Clock backed by time.Ticker
func RealClock() Clock {
	return realClock{}
}

type realClock struct{}

type tickerTask struct {
	stop chan struct{}
	once sync.Once
}

func (realClock) Every(d time.Duration, f func()) Task {
	if d <= 0 {
		d = time.Millisecond
	}
	t := &tickerTask{stop: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f()
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// ManualClock is a Clock whose time only moves on Advance. Due tasks run
// synchronously on the caller's goroutine, earliest deadline first.
type ManualClock struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*manualTask
}

type manualTask struct {
	clock   *ManualClock
	period  time.Duration
	next    time.Duration
	f       func()
	stopped bool
}

// NewManualClock creates a manual clock at time zero
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Every registers f to run each d of advanced time
func (c *ManualClock) Every(d time.Duration, f func()) Task {
	if d <= 0 {
		d = time.Millisecond
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTask{clock: c, period: d, next: c.now + d, f: f}
	c.tasks = append(c.tasks, t)
	return t
}

// Advance moves time forward by d, running every task that falls due
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due *manualTask
		for _, t := range c.tasks {
			if t.stopped || t.next > target {
				continue
			}
			if due == nil || t.next < due.next {
				due = t
			}
		}
		if due == nil {
			c.now = target
			c.prune()
			c.mu.Unlock()
			return
		}
		c.now = due.next
		due.next += due.period
		f := due.f
		c.mu.Unlock()

		f()
	}
}

// Active returns the number of tasks that have not been stopped
func (c *ManualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (c *ManualClock) prune() {
	live := c.tasks[:0]
	for _, t := range c.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	c.tasks = live
}

func (t *manualTask) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}
