// Command agentd runs the full voice-command pipeline: microphone
// capture, through the Audio Bus, VAD Gate, Streaming Transcriber,
// Turn Detector, Commit Coordinator, Router Queue, Function-Calling
// Inference, and the Tool Registry & Executor.
//
// Wiring follows the teacher's cmd/agent/main.go: godotenv for local
// secrets, malgo for microphone capture, and a signal-driven shutdown.
// Unlike the teacher, there is no playback device here — this system
// has no TTS/audio-output path (spec §1), so malgo is opened in
// capture-only mode.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/lokutor-ai/gibberish/pkg/abort"
	"github.com/lokutor-ai/gibberish/pkg/audiobus"
	"github.com/lokutor-ai/gibberish/pkg/commit"
	"github.com/lokutor-ai/gibberish/pkg/config"
	gocontext "github.com/lokutor-ai/gibberish/pkg/context"
	"github.com/lokutor-ai/gibberish/pkg/events"
	"github.com/lokutor-ai/gibberish/pkg/inference"
	"github.com/lokutor-ai/gibberish/pkg/logging"
	"github.com/lokutor-ai/gibberish/pkg/router"
	"github.com/lokutor-ai/gibberish/pkg/status"
	"github.com/lokutor-ai/gibberish/pkg/tools"
	"github.com/lokutor-ai/gibberish/pkg/transcriber"
	"github.com/lokutor-ai/gibberish/pkg/turn"
	"github.com/lokutor-ai/gibberish/pkg/vad"
)

const captureSampleRate = 16000

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	cfg, err := config.Load(os.Getenv("GIBBERISH_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := logging.New(logging.FileConfig{
		Path:       os.Getenv("GIBBERISH_LOG_FILE"),
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 14,
	}, os.Getenv("GIBBERISH_ENV") == "development")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}

	bus := events.NewInMemoryBus()
	st := status.New()

	otelHandle, err := status.RegisterOTel(st)
	if err != nil {
		logger.Warn("otel export disabled", "error", err)
	} else {
		defer otelHandle.Close(context.Background())
	}

	bridge := newDebugBridge(bus, logger)
	defer bridge.Close()

	abortCounter := abort.NewCounter()

	busAudio := audiobus.New(cfg.AudioChunkMs, cfg.AudioBusCapacityMs, st)
	sub, err := busAudio.Subscribe()
	if err != nil {
		logger.Error("subscribing to audio bus", "error", err)
		os.Exit(1)
	}
	defer busAudio.Unsubscribe(sub)

	gate := vad.New(vad.Preset(cfg.VADPreset))
	tr := transcriber.New(sttEngine{}, transcriber.Config{
		MaxBufferSeconds:      cfg.MaxBufferSeconds,
		StableWindowSeconds:   cfg.StableWindowSeconds,
		TranscribeThresholdMs: cfg.TranscribeThresholdMs,
		TrimPaddingMs:         cfg.TrimPaddingMs,
	}, logger)
	turnModel := turn.Serialize(endpointModel{})

	registry := buildRegistry(abortCounter)
	engine := inference.NewEngine(noopRunner{})
	executor := tools.NewExecutor(registry, tools.Config{
		ToolCooldown:            cfg.ToolCooldown,
		CacheTTL:                cfg.CacheTTL,
		MinConfidence:           cfg.MinConfidence,
		FirstAttemptConfidence:  cfg.FirstAttemptConfidence,
		RepairAttemptConfidence: cfg.RepairAttemptConfidence,
		AutoRunReadOnly:         cfg.AutoRunReadOnly,
	}, engine, bus, logger)

	modeTracker := gocontext.NewTracker()
	developerContext := buildDeveloperContext(registry)

	cycle := func(ctx context.Context, text string) {
		runInferenceCycle(ctx, engine, executor, registry, developerContext, text, modeTracker.Current(), bus, logger)
	}
	rq := router.New(time.Duration(cfg.DebounceMs)*time.Millisecond, cycle, st, logger)

	coord := commit.New(gate, tr, turnModel, commit.Config{
		CommitThresholdSeconds: cfg.CommitThresholdSeconds,
		SilenceInjectionMs:     cfg.SilenceInjectionMs,
		TurnThreshold:          cfg.TurnThreshold,
		TurnWindowSeconds:      cfg.TurnWindowSeconds,
		RedemptionTime:         vad.SettingsFor(vad.Preset(cfg.VADPreset)).RedemptionTime,
	}, bus, st, logger, func(c commit.Commit) {
		if c.Final {
			rq.EnqueueCommit(c.Text)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		rq.Run(gctx)
		return nil
	})
	group.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case chunk, ok := <-sub.Chunks():
				if !ok {
					return nil
				}
				coord.ProcessChunk(chunk, time.Now())
			}
		}
	})

	device, mctx, err := startCapture(busAudio)
	if err != nil {
		logger.Error("starting audio capture", "error", err)
		os.Exit(1)
	}
	defer device.Uninit()
	defer mctx.Uninit()

	logger.Info("agentd listening", "vad_preset", cfg.VADPreset, "sample_rate", captureSampleRate)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-gctx.Done():
	}

	fmt.Println("\nShutting down...")
	cancel()
	rq.Stop()
	_ = group.Wait()
}

func startCapture(bus *audiobus.Bus) (*malgo.Device, *malgo.AllocatedContext, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = captureSampleRate
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(_, input []byte, frameCount uint32) {
		if input == nil {
			return
		}
		samples := make([]float32, len(input)/2)
		for i := range samples {
			v := int16(input[2*i]) | int16(input[2*i+1])<<8
			samples[i] = float32(v) / 32768.0
		}
		bus.Publish(samples)
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		mctx.Uninit()
		return nil, nil, err
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return nil, nil, err
	}
	return device, mctx, nil
}
