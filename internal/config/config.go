// Package config loads the demo CLI settings (device overrides, target
// bitrate, MTU) from a .env-style key=value file. The headless session's own
// CaptureConfig is always constructed programmatically; this file only feeds
// the example binaries, matching the out-of-scope boundary that persisted
// application configuration is an external collaborator's concern.
package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Settings holds the demo binaries' runtime knobs.
type Settings struct {
	VideoDevice    string
	AudioDevice    string
	Width          int
	Height         int
	FPS            int
	TargetBitrate  int
	MTU            int
	OutputPath     string
}

// Default returns Settings pre-filled with the values used throughout §8's
// end-to-end scenarios.
func Default() Settings {
	return Settings{
		VideoDevice:   "default",
		AudioDevice:   "default",
		Width:         640,
		Height:        480,
		FPS:           30,
		TargetBitrate: 1_000_000,
		MTU:           1200,
		OutputPath:    "recording.mp4",
	}
}

// Load reads key=value pairs from envPath, overriding the defaults.
func Load(envPath string) (Settings, error) {
	cfg := Default()

	file, err := os.Open(envPath)
	if err != nil {
		return cfg, fmt.Errorf("open settings file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}

		switch key {
		case "video_device":
			cfg.VideoDevice = value
		case "audio_device":
			cfg.AudioDevice = value
		case "width":
			cfg.Width = atoiOr(value, cfg.Width)
		case "height":
			cfg.Height = atoiOr(value, cfg.Height)
		case "fps":
			cfg.FPS = atoiOr(value, cfg.FPS)
		case "target_bitrate":
			cfg.TargetBitrate = atoiOr(value, cfg.TargetBitrate)
		case "mtu":
			cfg.MTU = atoiOr(value, cfg.MTU)
		case "output_path":
			cfg.OutputPath = value
		}
	}

	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("scan settings file: %w", err)
	}

	return cfg, nil
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
