package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/d1nch8g/decibel/engine"
	"github.com/d1nch8g/decibel/render"
)

func newSimTerminal(t *testing.T, cols, rows int) (*Terminal, tcell.SimulationScreen) {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(cols, rows)

	return NewTerminal(screen, render.DefaultWidth, render.DefaultHeight, nil), screen
}

func rowText(screen tcell.Screen, y int) string {
	cols, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < cols; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func TestTerminalBarGraph(t *testing.T) {
	term, screen := newSimTerminal(t, 64, 26)

	freq := make([]byte, render.BarCount)
	freq[256] = 255
	render.NewRenderer().RenderFrame(term, freq, true)

	// Graph rows are 0..19; the baseline at 350/400 maps to row 17.5, so a
	// full bar at x=400 (column 32) reaches up to row 5.
	r, _, style, _ := screen.GetContent(32, 10)
	if r != '█' {
		t.Fatalf("cell (32,10) = %q, want a bar", r)
	}
	if fg, _, _ := style.Decompose(); fg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("bar color = %v, want red", fg)
	}

	if r, _, _, _ := screen.GetContent(10, 10); r != ' ' {
		t.Errorf("cell (10,10) = %q, want empty", r)
	}
	if r, _, _, _ := screen.GetContent(32, 2); r != ' ' {
		t.Errorf("cell (32,2) = %q, want empty above the bar", r)
	}

	// A new frame clears the previous one.
	render.NewRenderer().RenderFrame(term, make([]byte, render.BarCount), false)
	if r, _, _, _ := screen.GetContent(32, 10); r != ' ' {
		t.Errorf("cell (32,10) = %q after clear, want empty", r)
	}
}

func TestTerminalReadouts(t *testing.T) {
	term, screen := newSimTerminal(t, 60, 26)

	term.SetThreshold("55")
	term.SetLevel("56.20 dB")
	term.SetValue("56 dB")
	term.SetWarning(true)

	if got := rowText(screen, 20); got != "Threshold: 55 dB" {
		t.Errorf("threshold row = %q", got)
	}
	if got := rowText(screen, 21); got != "Level:     56.20 dB" {
		t.Errorf("level row = %q", got)
	}
	if got := rowText(screen, 22); got != "Value:     56 dB" {
		t.Errorf("value row = %q", got)
	}
	if got := rowText(screen, 23); got != warningText {
		t.Errorf("warning row = %q, want %q", got, warningText)
	}

	term.SetWarning(false)
	if got := rowText(screen, 23); got != "" {
		t.Errorf("warning row = %q after hide, want empty", got)
	}
}

type fakeController struct {
	mu      sync.Mutex
	running bool
	starts  int
	stops   int
	err     error
}

func (c *fakeController) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	if c.err != nil {
		return c.err
	}
	c.running = true
	return nil
}

func (c *fakeController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	c.running = false
}

func (c *fakeController) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *fakeController) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts, c.stops
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestTerminalRunKeys(t *testing.T) {
	term, screen := newSimTerminal(t, 60, 26)
	ctrl := &fakeController{}

	done := make(chan error, 1)
	go func() { done <- term.Run(context.Background(), ctrl) }()

	screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)
	waitFor(t, ctrl.IsRunning)

	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	waitFor(t, func() bool { return !ctrl.IsRunning() })

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after q")
	}

	starts, stops := ctrl.counts()
	if starts != 1 || stops < 2 {
		t.Errorf("starts=%d stops=%d, want 1 start and a stop on exit", starts, stops)
	}
}

func TestTerminalStartFailureShowsStatus(t *testing.T) {
	term, screen := newSimTerminal(t, 80, 26)
	ctrl := &fakeController{err: errors.New("microphone permission denied")}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- term.Run(ctx, ctrl) }()

	screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)
	waitFor(t, func() bool {
		term.mu.Lock()
		defer term.mu.Unlock()
		return term.status == "microphone permission denied"
	})

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// openingController blocks in Start until Stop is called, like an engine
// waiting on the microphone.
type openingController struct {
	entered chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func (c *openingController) Start(ctx context.Context) error {
	close(c.entered)
	<-c.stopped
	return engine.ErrStopped
}

func (c *openingController) Stop()           { c.once.Do(func() { close(c.stopped) }) }
func (c *openingController) IsRunning() bool { return false }

func TestTerminalStopWhileOpening(t *testing.T) {
	term, screen := newSimTerminal(t, 80, 26)
	ctrl := &openingController{entered: make(chan struct{}), stopped: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- term.Run(ctx, ctrl) }()

	screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)
	<-ctrl.entered

	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	select {
	case <-ctrl.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("x did not stop the pending start")
	}

	statusIs := func() bool {
		term.mu.Lock()
		defer term.mu.Unlock()
		return term.status == "stopped"
	}
	waitFor(t, statusIs)

	// The abandoned start must not replace the status with an error.
	time.Sleep(20 * time.Millisecond)
	term.mu.Lock()
	status := term.status
	term.mu.Unlock()
	if status != "stopped" {
		t.Errorf("status = %q, want stopped", status)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
