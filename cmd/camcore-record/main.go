// Command camcore-record opens a camera and writes encoded frames to a file
// via record.Recorder, stopping on a duration timeout or a shutdown signal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/device"
	"github.com/ethan/camcore/internal/config"
	"github.com/ethan/camcore/internal/logging"
	"github.com/ethan/camcore/record"
	"github.com/ethan/camcore/video"
)

type recordFlags struct {
	envFile  string
	deviceID string
	duration time.Duration
	maxIndex int
	output   string
}

func registerFlags(fs *flag.FlagSet) *recordFlags {
	f := &recordFlags{}
	fs.StringVar(&f.envFile, "env", ".env", "Path to the settings file")
	fs.StringVar(&f.deviceID, "device", "", "Video device ID or name (default: registry default)")
	fs.DurationVar(&f.duration, "duration", 10*time.Second, "How long to record")
	fs.IntVar(&f.maxIndex, "max-index", 4, "Highest camera index to probe")
	fs.StringVar(&f.output, "output", "", "Output file path (default: settings file's output_path)")
	return f
}

func main() {
	fs := flag.NewFlagSet("camcore-record", flag.ExitOnError)
	logFlags := logging.RegisterFlags(fs)
	recordFlagSet := registerFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Camera -> H.264 -> file recorder\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing flags: %v\n", err)
		os.Exit(1)
	}

	logCfg, err := logFlags.ToConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error configuring logger: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	logging.SetDefault(log)

	log.Info("starting camcore-record", "log_config", logFlags.String())

	settings, err := config.Load(recordFlagSet.envFile)
	if err != nil {
		log.Info("no settings file found, using defaults", "path", recordFlagSet.envFile, "error", err)
		settings = config.Default()
	}

	outputPath := recordFlagSet.output
	if outputPath == "" {
		outputPath = settings.OutputPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordFlagSet.duration)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	registry := device.NewRegistry(device.NewGocvVideoScanner(recordFlagSet.maxIndex), nil)

	deviceID := recordFlagSet.deviceID
	if deviceID == "" {
		deviceID = settings.VideoDevice
	}
	info, err := registry.FindVideoDevice(deviceID)
	if err != nil {
		log.Error("failed to resolve video device", "device", deviceID, "error", err)
		os.Exit(1)
	}
	log.Info("resolved video device", "id", info.ID, "name", info.Name)

	pts := clock.New()
	cam, err := video.Open(info.ID, info.Index, video.TargetFormat{
		Width:  settings.Width,
		Height: settings.Height,
		FPS:    settings.FPS,
	}, pts, 8)
	if err != nil {
		log.Error("failed to open camera", "error", err)
		os.Exit(1)
	}
	defer cam.Close()

	if err := cam.StartStream(); err != nil {
		log.Error("failed to start capture", "error", err)
		os.Exit(1)
	}
	defer cam.StopStream()

	sink, err := record.NewFileSink(outputPath)
	if err != nil {
		log.Error("failed to create output file", "error", err)
		os.Exit(1)
	}

	rec, err := record.New(record.Config{
		Width:   settings.Width,
		Height:  settings.Height,
		FPS:     settings.FPS,
		Bitrate: settings.TargetBitrate,
	}, sink, outputPath)
	if err != nil {
		log.Error("failed to create recorder", "error", err)
		os.Exit(1)
	}

	log.Info("recording started", "output", outputPath, "duration", recordFlagSet.duration)

	for {
		select {
		case <-ctx.Done():
			stats, err := rec.Finish()
			if err != nil {
				log.Error("failed to finalize recording", "error", err)
				os.Exit(1)
			}
			log.Info("recording finished",
				"video_frames", stats.VideoFrames,
				"dropped_frames", stats.DroppedFrames,
				"actual_fps", stats.ActualFPS,
				"bytes_written", stats.BytesWritten,
				"output", stats.OutputPath)
			return
		default:
		}

		vf, ok, err := cam.Frames.PopTimeout(200 * time.Millisecond)
		if err != nil {
			log.Error("capture error", "error", err)
			continue
		}
		if !ok {
			continue
		}
		if err := rec.WriteFrame(vf); err != nil {
			log.DebugCapture("dropped frame", "error", err)
		}
	}
}
