package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d1nch8g/decibel/audio"
	"github.com/d1nch8g/decibel/config"
	"github.com/d1nch8g/decibel/engine"
	"github.com/d1nch8g/decibel/logging"
	"github.com/d1nch8g/decibel/render"
	"github.com/d1nch8g/decibel/sound"
	"github.com/d1nch8g/decibel/threshold"
	"github.com/d1nch8g/decibel/ui"
)

var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "decibel",
	Short: "Live microphone spectrum and noise threshold monitor",
	Long: `decibel listens to the default microphone, draws a frequency bar graph
and flags when the level reaches the time-of-day threshold
(55 dB from 06:00 to 22:00, 45 dB otherwise).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return run(cmd.Context(), cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("decibel %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.Flags()
	flags.Bool("headless", false, "run without the terminal UI and log readings")
	flags.Duration("duration", 10*time.Second, "how long to listen in headless mode")
	flags.String("snapshot", "", "write the last headless frame to this PNG file")
	flags.Float64("frame-rate", 60, "frames rendered per second")
	flags.Bool("alert-enabled", false, "play a chime when the level crosses the threshold")
	flags.String("alert-sound", "", "MP3 file to play instead of the built-in chime")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "decibel.log", "log file; empty logs to stderr")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer logger.Sync()

	device := audio.NewPortaudioDevice(audio.Config{
		SampleRate:      cfg.Audio.SampleRate,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		InputChannels:   cfg.Audio.InputChannels,
		Analyser:        cfg.Audio.Analyser(),
	}, logger.Named("audio"))

	if err := device.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer device.Terminate()

	engineConfig := engine.EngineConfig{
		Policy: threshold.Policy{
			DayStart: cfg.Threshold.DayStart,
			DayEnd:   cfg.Threshold.DayEnd,
			Day:      cfg.Threshold.Day,
			Night:    cfg.Threshold.Night,
		},
		Logger: logger.Named("engine"),
	}

	if cfg.Alert.Enabled {
		chime, err := newChime(cfg.Alert, logger.Named("sound"))
		if err != nil {
			return err
		}
		if err := chime.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize sound player: %w", err)
		}
		defer chime.Terminate()
		engineConfig.Alerter = chime
	}

	scheduler := engine.NewFrameClock(cfg.FrameRate)

	if cfg.Headless {
		return runHeadless(ctx, cfg, engineConfig, device, scheduler, logger)
	}
	return runTerminal(ctx, engineConfig, device, scheduler, logger)
}

func newChime(cfg config.AlertConfig, logger *zap.Logger) (*sound.Chime, error) {
	clip := sound.DefaultTone.Generate()
	if cfg.Sound != "" {
		var err error
		clip, err = sound.LoadMP3(cfg.Sound)
		if err != nil {
			return nil, err
		}
	}
	return sound.NewChime(sound.NewPortaudioPlayer(sound.GetDefaultConfig(), logger), clip, logger), nil
}

func runTerminal(
	ctx context.Context,
	engineConfig engine.EngineConfig,
	device audio.Device,
	scheduler engine.Scheduler,
	logger *zap.Logger,
) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	term := ui.NewTerminal(screen, render.DefaultWidth, render.DefaultHeight, logger.Named("ui"))
	eng := engine.NewEngine(engineConfig, device, term, term, scheduler)

	return term.Run(ctx, eng)
}

func runHeadless(
	ctx context.Context,
	cfg *config.Config,
	engineConfig engine.EngineConfig,
	device audio.Device,
	scheduler engine.Scheduler,
	logger *zap.Logger,
) error {
	surface := render.NewImageSurface(render.DefaultWidth, render.DefaultHeight)
	display := newLogDisplay(logger.Named("display"))
	eng := engine.NewEngine(engineConfig, device, surface, display, scheduler)

	if err := eng.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-time.After(cfg.Duration):
	}
	// No frame touches the surface once Stop returns.
	eng.Stop()

	display.summary()

	if cfg.Snapshot == "" {
		return nil
	}
	f, err := os.Create(cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer f.Close()

	if err := surface.WritePNG(f); err != nil {
		return err
	}
	logger.Info("snapshot written", zap.String("path", cfg.Snapshot))
	return nil
}
