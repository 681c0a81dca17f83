// Package ui is the terminal shell around the engine: it maps the logical
// drawing surface onto character cells, shows the readouts and turns key
// presses into start and stop signals.
package ui

import (
	"context"
	"errors"
	"image/color"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/d1nch8g/decibel/engine"
	"github.com/d1nch8g/decibel/render"
)

// textRows is the number of rows reserved below the graph.
const textRows = 6

const warningText = "WARNING: sound level exceeds the threshold"

// Controller is the engine surface the terminal drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// Terminal draws on a tcell screen. It implements render.Surface over the
// rows above the text area and engine.Display for the text area.
type Terminal struct {
	screen tcell.Screen
	width  float64
	height float64
	logger *zap.Logger

	mu        sync.Mutex
	threshold string
	level     string
	value     string
	warning   bool
	status    string
}

var (
	_ render.Surface = (*Terminal)(nil)
	_ engine.Display = (*Terminal)(nil)
)

// NewTerminal wraps an initialised screen. width and height are the logical
// surface size the renderer draws in.
func NewTerminal(screen tcell.Screen, width, height float64, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminal{
		screen:    screen,
		width:     width,
		height:    height,
		logger:    logger,
		threshold: "-",
		level:     "-",
		value:     "-",
		status:    "idle",
	}
}

func (t *Terminal) Bounds() (float64, float64) {
	return t.width, t.height
}

// graphSize returns the cell area used for the graph.
func (t *Terminal) graphSize() (int, int) {
	cols, rows := t.screen.Size()
	return cols, max(rows-textRows, 0)
}

func (t *Terminal) Clear() {
	cols, rows := t.graphSize()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			t.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
}

// StrokeLine marks every cell the segment passes through. Cells outside the
// graph area are skipped.
func (t *Terminal) StrokeLine(x0, y0, x1, y1 float64, c color.Color) {
	cols, rows := t.graphSize()
	if cols == 0 || rows == 0 {
		return
	}
	sx := float64(cols) / t.width
	sy := float64(rows) / t.height

	cx0, cy0 := x0*sx, y0*sy
	cx1, cy1 := x1*sx, y1*sy
	steps := int(math.Ceil(math.Max(math.Abs(cx1-cx0), math.Abs(cy1-cy0))))
	if steps == 0 {
		return
	}

	style := tcell.StyleDefault.Foreground(cellColor(c))
	for i := 0; i < steps; i++ {
		f := (float64(i) + 0.5) / float64(steps)
		x := int(math.Floor(cx0 + (cx1-cx0)*f))
		y := int(math.Floor(cy0 + (cy1-cy0)*f))
		if x < 0 || x >= cols || y < 0 || y >= rows {
			continue
		}
		t.screen.SetContent(x, y, '█', nil, style)
	}
}

// cellColor keeps black strokes readable on dark terminals by mapping them
// to the default foreground.
func cellColor(c color.Color) tcell.Color {
	r, g, b, _ := c.RGBA()
	if r == 0 && g == 0 && b == 0 {
		return tcell.ColorDefault
	}
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}

func (t *Terminal) SetThreshold(text string) {
	t.mu.Lock()
	t.threshold = text
	t.mu.Unlock()
	t.drawText()
}

func (t *Terminal) SetLevel(text string) {
	t.mu.Lock()
	t.level = text
	t.mu.Unlock()
}

func (t *Terminal) SetValue(text string) {
	t.mu.Lock()
	t.value = text
	t.mu.Unlock()
}

// SetWarning is the last sink written each frame, so it also presents the
// frame.
func (t *Terminal) SetWarning(visible bool) {
	t.mu.Lock()
	t.warning = visible
	t.mu.Unlock()
	t.drawText()
}

// SetStatus shows a one-line message such as a start failure.
func (t *Terminal) SetStatus(text string) {
	t.mu.Lock()
	t.status = text
	t.mu.Unlock()
	t.drawText()
}

func (t *Terminal) drawText() {
	t.mu.Lock()
	lines := []struct {
		text  string
		style tcell.Style
	}{
		{"Threshold: " + t.threshold + " dB", tcell.StyleDefault},
		{"Level:     " + t.level, tcell.StyleDefault},
		{"Value:     " + t.value, tcell.StyleDefault},
		{"", tcell.StyleDefault},
		{"Status:    " + t.status, tcell.StyleDefault.Dim(true)},
		{"[s] start  [x] stop  [q] quit", tcell.StyleDefault.Dim(true)},
	}
	if t.warning {
		lines[3].text = warningText
		lines[3].style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	}
	t.mu.Unlock()

	cols, rows := t.screen.Size()
	top := max(rows-textRows, 0)
	for i, line := range lines {
		y := top + i
		if y >= rows {
			break
		}
		runes := []rune(line.text)
		for x := 0; x < cols; x++ {
			r := ' '
			if x < len(runes) {
				r = runes[x]
			}
			t.screen.SetContent(x, y, r, nil, line.style)
		}
	}
	t.screen.Show()
}

// Run processes key events until q, Esc, Ctrl-C or ctx is done. The engine
// is stopped before Run returns.
func (t *Terminal) Run(ctx context.Context, ctrl Controller) error {
	defer ctrl.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-runCtx.Done()
		t.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	t.drawText()

	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			if runCtx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			t.screen.Sync()
			t.drawText()
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
				return nil
			case ev.Rune() == 's':
				t.start(runCtx, ctrl)
			case ev.Rune() == 'x':
				// Stop also abandons a start that is still opening the device.
				ctrl.Stop()
				t.SetStatus("stopped")
			}
		}
	}
}

// start opens the engine in the background so the permission request does
// not block key handling.
func (t *Terminal) start(ctx context.Context, ctrl Controller) {
	if ctrl.IsRunning() {
		return
	}
	t.SetStatus("opening microphone...")

	go func() {
		if err := ctrl.Start(ctx); err != nil {
			if errors.Is(err, engine.ErrAlreadyRunning) || errors.Is(err, engine.ErrStopped) {
				return
			}
			if ctx.Err() == nil {
				t.logger.Error("failed to start monitoring", zap.Error(err))
			}
			t.SetStatus(err.Error())
			return
		}
		t.SetStatus("listening")
	}()
}
