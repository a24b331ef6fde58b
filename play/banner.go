package play

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// BannerDuration is how long a notification stays on screen, in seconds
const BannerDuration = 1.8

// Banner is a notification line whose brightness fades from 1 to 0
type Banner struct {
	text  string
	alpha float32
	tween *gween.Tween
}

// Show replaces the current notification and restarts the fade
func (b *Banner) Show(text string) {
	b.text = text
	b.alpha = 1
	b.tween = gween.New(1, 0, BannerDuration, ease.InQuad)
}

// Update advances the fade by dt seconds
func (b *Banner) Update(dt float32) {
	if b.tween == nil {
		return
	}
	alpha, finished := b.tween.Update(dt)
	b.alpha = alpha
	if finished {
		b.tween = nil
		b.alpha = 0
		b.text = ""
	}
}

// Visible reports whether there is a notification to draw
func (b *Banner) Visible() bool {
	return b.text != "" && b.alpha > 0
}

// Text returns the current notification
func (b *Banner) Text() string {
	return b.text
}

// Alpha returns the current brightness in [0,1]
func (b *Banner) Alpha() float32 {
	return b.alpha
}
