// Command camcore-diagnose enumerates available capture devices and prints
// the closed controls schema, mirroring the teacher's cmd/diagnose tool's
// enumerate-then-report shape without its NAL-flow-specific counters.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/device"
	"github.com/ethan/camcore/headless"
	"github.com/ethan/camcore/internal/logging"
)

var controlIDs = []headless.ControlID{
	headless.ControlAutoFocus,
	headless.ControlAutoExposure,
	headless.ControlNoiseReduction,
	headless.ControlImageStabilization,
	headless.ControlFocusDistance,
	headless.ControlExposureTime,
	headless.ControlAperture,
	headless.ControlZoom,
	headless.ControlBrightness,
	headless.ControlContrast,
	headless.ControlSaturation,
	headless.ControlSharpness,
	headless.ControlIsoSensitivity,
	headless.ControlWhiteBalance,
}

func main() {
	fs := flag.NewFlagSet("camcore-diagnose", flag.ExitOnError)
	logFlags := logging.RegisterFlags(fs)
	maxIndex := fs.Int("max-index", 4, "Highest camera index to probe")
	probe := fs.String("probe", "", "Open this device briefly and report live stats (default: skip)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Enumerate capture devices and print the controls schema\n\n")
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

	log.Info("starting camcore-diagnose", "log_config", logFlags.String())

	registry := device.NewRegistry(device.NewGocvVideoScanner(*maxIndex), nil)

	videos, err := registry.ListVideoDevices()
	if err != nil {
		log.Error("failed to enumerate video devices", "error", err)
		os.Exit(1)
	}

	fmt.Println("=== Video devices ===")
	for _, v := range videos {
		marker := ""
		if v.IsDefault {
			marker = " (default)"
		}
		fmt.Printf("  %s  %s%s\n", v.ID, v.Name, marker)
	}
	if len(videos) == 0 {
		fmt.Println("  (none found)")
	}

	fmt.Println()
	fmt.Println("=== Controls schema ===")
	for _, id := range controlIDs {
		fmt.Printf("  %s\n", id)
	}

	if *probe == "" {
		return
	}

	fmt.Println()
	fmt.Printf("=== Probing %q ===\n", *probe)

	sess, err := headless.Open(headless.Config{
		VideoDeviceID: *probe,
		Width:         640,
		Height:        480,
		FPS:           30,
		QueueCapacity: 8,
	}, registry, clock.New())
	if err != nil {
		log.Error("failed to open session", "error", err)
		os.Exit(1)
	}
	defer sess.Close(2 * time.Second)

	if err := sess.Start(); err != nil {
		log.Error("failed to start session", "error", err)
		os.Exit(1)
	}

	frame, ok, err := sess.GetFrame(3 * time.Second)
	if err != nil {
		log.Error("failed to get frame", "error", err)
	} else if !ok {
		fmt.Println("  no frame received within timeout")
	} else {
		fmt.Printf("  frame: %dx%d format=%s bytes=%d dropped=%d\n",
			frame.Width, frame.Height, frame.Format, len(frame.Data), sess.DroppedFrames())
	}

	if err := sess.Stop(2 * time.Second); err != nil {
		log.Error("failed to stop session", "error", err)
	}
}
