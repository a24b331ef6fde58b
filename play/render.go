package play

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/mcp-training/blockrush/game/engine"
)

// Canvas is the part of tcell.Screen the renderer draws on
type Canvas interface {
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	Size() (width, height int)
}

// cellWidth is the number of terminal columns per grid cell
const cellWidth = 2

// Grid origin on screen; row 0 holds the HUD
const (
	originX = 1
	originY = 2
)

var (
	styleFloor  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWall   = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorDimGray)
	styleBlock  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	stylePlayer = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleExit   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorAqua)
)

const (
	glyphFloor  = '·'
	glyphWall   = '█'
	glyphBlock  = '■'
	glyphPlayer = '@'
	glyphExit   = 'E'
)

// HUD formats the status line
func HUD(state *engine.GameState) string {
	return fmt.Sprintf("Time Left: %d   Level: %d", state.TimeLeft, state.Level)
}

// Draw paints the whole frame. Blocks are drawn at their rounded draw
// coordinates; everything else at its logical cell.
func Draw(c Canvas, state *engine.GameState, banner *Banner) {
	width, height := c.Size()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}

	drawText(c, originX, 0, HUD(state), styleHUD)

	for y := 0; y < state.Rows; y++ {
		for x := 0; x < state.Cols; x++ {
			glyph, style := glyphFloor, styleFloor
			if state.Grid[y][x] == engine.Wall {
				glyph, style = glyphWall, styleWall
			}
			putCell(c, x, y, glyph, style)
		}
	}

	putCell(c, state.Exit.X, state.Exit.Y, glyphExit, styleExit)

	for _, b := range state.Blocks {
		x := int(math.Round(b.DrawX))
		y := int(math.Round(b.DrawY))
		putCell(c, x, y, glyphBlock, styleBlock)
	}

	putCell(c, state.PlayerPos.X, state.PlayerPos.Y, glyphPlayer, stylePlayer)

	footer := originY + state.Rows + 1
	if banner != nil && banner.Visible() {
		drawText(c, originX, footer, banner.Text(), bannerStyle(banner.Alpha()))
	} else if state.Message != "" {
		drawText(c, originX, footer, state.Message, styleFloor)
	}
	drawText(c, originX, footer+1, "arrows/wasd/hjkl move  r restart  q quit", styleFloor)
}

// bannerStyle fades the banner from bright yellow toward black
func bannerStyle(alpha float32) tcell.Style {
	a := math.Max(0, math.Min(1, float64(alpha)))
	level := int32(255 * a)
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(level, level, int32(64*a))).Bold(true)
}

func putCell(c Canvas, x, y int, glyph rune, style tcell.Style) {
	sx := originX + x*cellWidth
	sy := originY + y
	c.SetContent(sx, sy, glyph, nil, style)
	if glyph == glyphWall {
		c.SetContent(sx+1, sy, glyph, nil, style)
	}
}

func drawText(c Canvas, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		c.SetContent(x, y, r, nil, style)
		x++
	}
}
