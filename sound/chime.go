package sound

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Chime plays a clip through a Player whenever Alert is called. Alerts that
// arrive while the clip is still playing are dropped.
type Chime struct {
	player Player
	clip   Clip
	logger *zap.Logger

	mu      sync.Mutex
	playing bool
	wg      sync.WaitGroup
}

func NewChime(player Player, clip Clip, logger *zap.Logger) *Chime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chime{
		player: player,
		clip:   clip,
		logger: logger,
	}
}

func (c *Chime) Initialize() error {
	return c.player.Initialize()
}

// Terminate waits for a playing clip and shuts the player down.
func (c *Chime) Terminate() {
	c.wg.Wait()
	c.player.Terminate()
}

// Alert starts playback in the background and returns immediately.
func (c *Chime) Alert() {
	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()
		return
	}
	c.playing = true
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			c.playing = false
			c.mu.Unlock()
		}()

		// Bound playback so a stuck device cannot hold the chime forever.
		timeout := time.Duration(c.clip.Duration()*float64(time.Second)) + 2*time.Second
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		audioData := make(chan []byte, 1)
		audioData <- c.clip.PCM
		close(audioData)

		if err := c.player.PlayStream(ctx, c.clip.SampleRate, audioData); err != nil {
			c.logger.Warn("alert chime playback failed", zap.Error(err))
		}
	}()
}
