package device

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/ethan/camcore/internal/engine"
)

// VideoScanner probes the platform for connected video devices. Implementations
// own whatever backend handle is needed (e.g. gocv) and must return quickly
// enough to run every monitor tick.
type VideoScanner interface {
	ScanVideo() ([]Info, error)
}

// AudioScanner probes the platform for connected audio devices.
type AudioScanner interface {
	ScanAudio() ([]AudioInfo, error)
}

// Registry enumerates devices and resolves IDs/names to a stable Info or
// AudioInfo. It is safe for concurrent use; Monitor polls it from a
// background goroutine while callers resolve devices from others.
type Registry struct {
	mu        sync.Mutex
	videoScan VideoScanner
	audioScan AudioScanner
}

// NewRegistry builds a Registry backed by the given scanners. Either may be
// nil if that device kind is never enumerated (e.g. a video-only deployment).
func NewRegistry(videoScan VideoScanner, audioScan AudioScanner) *Registry {
	return &Registry{videoScan: videoScan, audioScan: audioScan}
}

// ListVideoDevices enumerates video devices, default first then name-ascending.
func (r *Registry) ListVideoDevices() ([]Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.videoScan == nil {
		return nil, engine.Backendf("no video scanner configured")
	}
	devices, err := r.videoScan.ScanVideo()
	if err != nil {
		return nil, engine.Wrap(engine.KindBackend, err, "scan video devices")
	}
	for i := range devices {
		if devices[i].ID == "" {
			devices[i].ID = SynthesizeID(KindVideo, devices[i].Index, devices[i].Name)
		}
	}
	sortDefaultFirst(devices, func(d Info) (string, bool) { return d.Name, d.IsDefault })
	return devices, nil
}

// ListAudioDevices enumerates audio devices, default first then name-ascending.
func (r *Registry) ListAudioDevices() ([]AudioInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.audioScan == nil {
		return nil, engine.Backendf("no audio scanner configured")
	}
	devices, err := r.audioScan.ScanAudio()
	if err != nil {
		return nil, engine.Wrap(engine.KindBackend, err, "scan audio devices")
	}
	for i := range devices {
		if devices[i].ID == "" {
			devices[i].ID = SynthesizeID(KindAudio, devices[i].Index, devices[i].Name)
		}
	}
	sortDefaultFirst(devices, func(d AudioInfo) (string, bool) { return d.Name, d.IsDefault })
	return devices, nil
}

// sortDefaultFirst orders devices default-first, then by name ascending.
func sortDefaultFirst[T any](devices []T, key func(T) (name string, isDefault bool)) {
	sort.SliceStable(devices, func(a, b int) bool {
		nameA, defA := key(devices[a])
		nameB, defB := key(devices[b])
		if defA != defB {
			return defA
		}
		return nameA < nameB
	})
}

// SynthesizeID builds the stable fallback device ID "<kind>_<index>_<hash8>"
// used whenever the platform backend exposes no durable identifier of its
// own. hash8 is the first 8 hex digits of the FNV-1a hash of name.
func SynthesizeID(kind Kind, index int, name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("%s_%d_%08x", kind, index, h.Sum32())
}

// FindVideoDevice resolves id_or_name to a device: first an exact ID match,
// then an exact name match. "default" and "" resolve to the default device.
func (r *Registry) FindVideoDevice(idOrName string) (Info, error) {
	devices, err := r.ListVideoDevices()
	if err != nil {
		return Info{}, err
	}
	if idOrName == "" || idOrName == "default" {
		for _, d := range devices {
			if d.IsDefault {
				return d, nil
			}
		}
		if len(devices) > 0 {
			return devices[0], nil
		}
		return Info{}, engine.NotFoundf("no video devices available")
	}
	for _, d := range devices {
		if d.ID == idOrName {
			return d, nil
		}
	}
	for _, d := range devices {
		if d.Name == idOrName {
			return d, nil
		}
	}
	return Info{}, engine.NotFoundf("video device %q not found", idOrName)
}

// FindAudioDevice resolves id_or_name the same way FindVideoDevice does.
func (r *Registry) FindAudioDevice(idOrName string) (AudioInfo, error) {
	devices, err := r.ListAudioDevices()
	if err != nil {
		return AudioInfo{}, err
	}
	if idOrName == "" || idOrName == "default" {
		for _, d := range devices {
			if d.IsDefault {
				return d, nil
			}
		}
		if len(devices) > 0 {
			return devices[0], nil
		}
		return AudioInfo{}, engine.NotFoundf("no audio devices available")
	}
	for _, d := range devices {
		if d.ID == idOrName {
			return d, nil
		}
	}
	for _, d := range devices {
		if d.Name == idOrName {
			return d, nil
		}
	}
	return AudioInfo{}, engine.NotFoundf("audio device %q not found", idOrName)
}

// snapshotVideoIDs returns the current video device IDs for Monitor diffing.
func (r *Registry) snapshotVideoIDs() (map[string]struct{}, error) {
	devices, err := r.ListVideoDevices()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		ids[d.ID] = struct{}{}
	}
	return ids, nil
}

