// Package render draws the frequency bar graph onto a 2D surface.
package render

import "image/color"

const (
	// DefaultWidth and DefaultHeight are the logical surface size.
	DefaultWidth  = 800
	DefaultHeight = 400

	// BarCount is the number of frequency bins drawn per frame.
	BarCount = 512

	// ScaleFactor stretches bar heights so small fluctuations stay visible.
	ScaleFactor = 5

	// baselineMargin is the distance from the bottom edge to the baseline.
	baselineMargin = 50
)

var (
	// NormalColor strokes bars while the level is under the threshold.
	NormalColor color.Color = color.Black

	// AlertColor strokes bars while the level is at or over the threshold.
	AlertColor color.Color = color.RGBA{R: 0xff, A: 0xff}
)

// Surface is an immediate-mode drawing target in logical units, with the
// origin at the top left.
type Surface interface {
	Bounds() (width, height float64)
	Clear()
	StrokeLine(x0, y0, x1, y1 float64, c color.Color)
}

// Renderer draws one bar per frequency bin.
type Renderer struct {
	BarCount    int
	ScaleFactor float64
}

func NewRenderer() *Renderer {
	return &Renderer{
		BarCount:    BarCount,
		ScaleFactor: ScaleFactor,
	}
}

// RenderFrame clears the surface and draws the bar graph. Bars rise from a
// baseline 50 units above the bottom edge and are not clamped to the surface.
// Bins beyond len(frequencies) are drawn as zero height.
func (r *Renderer) RenderFrame(s Surface, frequencies []byte, aboveThreshold bool) {
	width, height := s.Bounds()
	s.Clear()

	stroke := NormalColor
	if aboveThreshold {
		stroke = AlertColor
	}

	barWidth := width / float64(r.BarCount)
	bottomOffset := height - baselineMargin

	for i := 0; i < r.BarCount; i++ {
		var v byte
		if i < len(frequencies) {
			v = frequencies[i]
		}
		barHeight := float64(v) / 256 * (height - bottomOffset) * r.ScaleFactor

		x := float64(i) * barWidth
		s.StrokeLine(x, bottomOffset, x, bottomOffset-barHeight, stroke)
	}
}
