package play

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

const (
	sampleRate = beep.SampleRate(44100)
	noteLength = 90 * time.Millisecond
)

// Chime plays short tone sequences on level transitions. A Chime whose Init
// failed stays silent.
type Chime struct {
	mu      sync.Mutex
	enabled bool
}

// Init opens the audio device
func (c *Chime) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	c.enabled = true
	return nil
}

// Close releases the audio device
func (c *Chime) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		speaker.Close()
		c.enabled = false
	}
}

// Enabled reports whether sound will be played
func (c *Chime) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// tones returns the note frequencies for an event: rising for level_up,
// falling for time_up
func tones(t engine.EventType) []float64 {
	switch t {
	case engine.EventLevelUp:
		return []float64{523.25, 659.25, 783.99}
	case engine.EventTimeUp:
		return []float64{392.00, 311.13, 261.63}
	}
	return nil
}

// Play queues the chime for t without blocking
func (c *Chime) Play(t engine.EventType) {
	if !c.Enabled() {
		return
	}
	var notes []beep.Streamer
	for _, freq := range tones(t) {
		sine, err := generators.SineTone(sampleRate, freq)
		if err != nil {
			continue
		}
		notes = append(notes, beep.Take(sampleRate.N(noteLength), sine))
	}
	if len(notes) > 0 {
		speaker.Play(beep.Seq(notes...))
	}
}
