// Package device enumerates video and audio capture devices with stable
// per-process IDs, and watches for hot-plug changes.
package device

// Kind distinguishes video from audio devices when synthesizing IDs.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Info describes one enumerated video device.
type Info struct {
	ID        string
	Name      string
	IsDefault bool
	Index     int
}

// AudioInfo describes one enumerated audio device.
type AudioInfo struct {
	ID         string
	Name       string
	IsDefault  bool
	Index      int
	Channels   int
	SampleRate int
}

// Event reports a change observed by the Monitor.
type Event struct {
	Kind EventKind
	ID   string
}

// EventKind is the closed set of changes the Monitor reports. Modified is
// reserved for a future backend capable of reporting in-place setting
// changes; this core never emits it.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
	EventModified     EventKind = "modified"
)
