package logging

import (
	"flag"
	"fmt"
	"strings"
)

// Flags holds logging-related command-line flags shared by every camcore binary.
type Flags struct {
	Level         string
	Format        string
	File          string
	DebugCapture  bool
	DebugEncode   bool
	DebugRTP      bool
	DebugMonitor  bool
	DebugAll      bool
}

// RegisterFlags registers logging flags on fs and returns the bound Flags.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}

	fs.StringVar(&f.Level, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&f.Level, "l", "info", "Log level (shorthand)")
	fs.StringVar(&f.Format, "log-format", "text", "Log output format: text, json")
	fs.StringVar(&f.File, "log-file", "", "Log output file path (default: stdout)")
	fs.StringVar(&f.File, "o", "", "Log output file path (shorthand)")

	fs.BoolVar(&f.DebugCapture, "debug-capture", false, "Enable per-frame capture debugging")
	fs.BoolVar(&f.DebugEncode, "debug-encode", false, "Enable per-frame encoder debugging")
	fs.BoolVar(&f.DebugRTP, "debug-rtp", false, "Enable per-packet RTP debugging")
	fs.BoolVar(&f.DebugMonitor, "debug-monitor", false, "Enable device-monitor scan debugging")
	fs.BoolVar(&f.DebugAll, "debug-all", false, "Enable all debug categories")

	return f
}

// ToConfig converts Flags into a logging.Config.
func (f *Flags) ToConfig() (*Config, error) {
	cfg := NewConfig()

	level, err := ParseLevel(f.Level)
	if err != nil {
		return nil, err
	}
	cfg.Level = level

	format, err := ParseFormat(f.Format)
	if err != nil {
		return nil, err
	}
	cfg.Format = format
	cfg.OutputFile = f.File

	if f.DebugAll {
		cfg.EnableCategory(CategoryAll)
		cfg.Level = LevelDebug
	} else {
		if f.DebugCapture {
			cfg.EnableCategory(CategoryCapture)
			cfg.Level = LevelDebug
		}
		if f.DebugEncode {
			cfg.EnableCategory(CategoryEncode)
			cfg.Level = LevelDebug
		}
		if f.DebugRTP {
			cfg.EnableCategory(CategoryRTP)
			cfg.Level = LevelDebug
		}
		if f.DebugMonitor {
			cfg.EnableCategory(CategoryMonitor)
			cfg.Level = LevelDebug
		}
	}

	return cfg, nil
}

// String renders the active flag set for a one-line startup log entry.
func (f *Flags) String() string {
	parts := []string{
		fmt.Sprintf("level=%s", f.Level),
		fmt.Sprintf("format=%s", f.Format),
	}
	if f.File != "" {
		parts = append(parts, fmt.Sprintf("output=%s", f.File))
	} else {
		parts = append(parts, "output=stdout")
	}

	var cats []string
	if f.DebugAll {
		cats = append(cats, "all")
	} else {
		if f.DebugCapture {
			cats = append(cats, "capture")
		}
		if f.DebugEncode {
			cats = append(cats, "encode")
		}
		if f.DebugRTP {
			cats = append(cats, "rtp")
		}
		if f.DebugMonitor {
			cats = append(cats, "monitor")
		}
	}
	if len(cats) > 0 {
		parts = append(parts, fmt.Sprintf("debug=[%s]", strings.Join(cats, ",")))
	}

	return strings.Join(parts, " ")
}
