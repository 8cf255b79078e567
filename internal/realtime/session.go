// Package realtime runs the interactive metering session: it wires the
// audio engine to the console meter display, the optional WAV recorder and
// the optional telemetry endpoint, and blocks until the process is signaled.
package realtime

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/openmeters/openmeters-go/internal/audiocore/engine"
	"github.com/openmeters/openmeters-go/internal/conf"
	"github.com/openmeters/openmeters-go/internal/errors"
	"github.com/openmeters/openmeters-go/internal/export"
	"github.com/openmeters/openmeters-go/internal/logging"
	"github.com/openmeters/openmeters-go/internal/observability"
	"github.com/openmeters/openmeters-go/internal/observability/metrics"
)

// RunSession captures system audio and displays live meter levels until
// SIGINT or SIGTERM.
func RunSession(settings *conf.Settings) error {
	logger := logging.ForService("realtime")
	if logger == nil {
		logger = slog.Default()
	}
	if settings.Main.Log.Enabled {
		fileLogger, closeLog, err := logging.NewFileLogger(
			settings.Main.Log.Path, "realtime", logging.ParseLevel(settings.Main.Log.Level))
		if err != nil {
			logger.Warn("file logging disabled", "error", err, "path", settings.Main.Log.Path)
		} else {
			logger = fileLogger
			defer func() {
				if err := closeLog(); err != nil {
					slog.Default().Error("failed to close log file", "error", err)
				}
			}()
		}
	}

	var wg sync.WaitGroup
	quit := make(chan struct{})

	var captureMetrics *metrics.CaptureMetrics
	if settings.Telemetry.Enabled {
		obsMetrics, err := observability.NewMetrics()
		if err != nil {
			return errors.New(err).
				Component("realtime").
				Category(errors.CategoryConfiguration).
				Build()
		}
		endpoint, err := observability.NewEndpoint(settings.Telemetry.Listen, obsMetrics)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quit)
		captureMetrics = obsMetrics.Capture
	}

	audioEngine := engine.NewFromSettings(settings, logger, captureMetrics)
	if err := audioEngine.Initialize(); err != nil {
		close(quit)
		wg.Wait()
		return err
	}
	defer audioEngine.Shutdown()

	format := audioEngine.GetFormat()
	logger.Info("capture initialized",
		"sample_rate", format.SampleRate,
		"channels", format.Channels)

	console := newConsoleMeter(os.Stdout, captureMetrics,
		time.Duration(settings.Audio.MeterRefreshMs)*time.Millisecond)
	audioEngine.RegisterCallback(console)

	if settings.Export.Enabled {
		recorder, err := export.NewWavRecorder(settings.Export.Path, format, logger)
		if err != nil {
			close(quit)
			wg.Wait()
			return err
		}
		audioEngine.RegisterAudioObserver(recorder)
		defer func() {
			audioEngine.UnregisterAudioObserver(recorder)
			if err := recorder.Close(); err != nil {
				logger.Error("failed to finalize wav recording", "error", err)
			}
		}()
	}

	if err := audioEngine.Start(); err != nil {
		close(quit)
		wg.Wait()
		return err
	}

	fmt.Printf("Metering %d Hz / %d ch, press Ctrl+C to stop\n",
		format.SampleRate, format.Channels)

	waitForSignal(logger)

	console.finish()
	audioEngine.Stop()
	close(quit)
	wg.Wait()
	return nil
}

func waitForSignal(logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	logger.Info("shutdown signal received", "signal", sig.String())
}
