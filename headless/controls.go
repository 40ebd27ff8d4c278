package headless

import (
	"math"
	"sync"

	"github.com/ethan/camcore/internal/engine"
)

// ControlID names one entry in the closed controls schema (spec.md §6).
type ControlID string

const (
	ControlAutoFocus          ControlID = "auto_focus"
	ControlAutoExposure       ControlID = "auto_exposure"
	ControlNoiseReduction     ControlID = "noise_reduction"
	ControlImageStabilization ControlID = "image_stabilization"
	ControlFocusDistance      ControlID = "focus_distance"
	ControlExposureTime       ControlID = "exposure_time"
	ControlAperture           ControlID = "aperture"
	ControlZoom               ControlID = "zoom"
	ControlBrightness         ControlID = "brightness"
	ControlContrast           ControlID = "contrast"
	ControlSaturation         ControlID = "saturation"
	ControlSharpness          ControlID = "sharpness"
	ControlIsoSensitivity     ControlID = "iso_sensitivity"
	ControlWhiteBalance       ControlID = "white_balance"
)

// ControlKind is the value type a ControlID accepts.
type ControlKind string

const (
	KindBool ControlKind = "bool"
	KindF32  ControlKind = "f32"
	KindU32  ControlKind = "u32"
	KindEnum ControlKind = "enum"
)

// WhiteBalanceMode is the closed enum for the WhiteBalance control.
type WhiteBalanceMode string

const (
	WhiteBalanceAuto        WhiteBalanceMode = "auto"
	WhiteBalanceDaylight    WhiteBalanceMode = "daylight"
	WhiteBalanceCloudy      WhiteBalanceMode = "cloudy"
	WhiteBalanceTungsten    WhiteBalanceMode = "tungsten"
	WhiteBalanceFluorescent WhiteBalanceMode = "fluorescent"
	WhiteBalanceFlash       WhiteBalanceMode = "flash"
	WhiteBalanceCustom      WhiteBalanceMode = "custom"
)

// ControlValue is a tagged union over the four ControlKinds. Only the field
// matching Kind is meaningful.
type ControlValue struct {
	Kind ControlKind

	Bool bool
	F32  float32
	U32  uint32

	WhiteBalance WhiteBalanceMode
	Kelvin       uint32 // meaningful only when WhiteBalance == Custom
}

type controlRange struct {
	kind ControlKind
	min  float64
	max  float64
}

// controlTable is the closed schema from spec.md §6: (id, kind, min, max).
var controlTable = map[ControlID]controlRange{
	ControlAutoFocus:          {kind: KindBool},
	ControlAutoExposure:       {kind: KindBool},
	ControlNoiseReduction:     {kind: KindBool},
	ControlImageStabilization: {kind: KindBool},
	ControlFocusDistance:      {kind: KindF32, min: 0.0, max: 1.0},
	ControlExposureTime:       {kind: KindF32, min: 0.0, max: math.Inf(1)},
	ControlAperture:           {kind: KindF32, min: 0.0, max: math.Inf(1)},
	ControlZoom:               {kind: KindF32, min: 1.0, max: math.Inf(1)},
	ControlBrightness:         {kind: KindF32, min: -1.0, max: 1.0},
	ControlContrast:           {kind: KindF32, min: -1.0, max: 1.0},
	ControlSaturation:         {kind: KindF32, min: -1.0, max: 1.0},
	ControlSharpness:          {kind: KindF32, min: -1.0, max: 1.0},
	ControlIsoSensitivity:     {kind: KindU32, min: 0, max: math.Inf(1)},
	ControlWhiteBalance:       {kind: KindEnum},
}

// validateControlValue checks id against the closed schema and value against
// its declared kind and range.
func validateControlValue(id ControlID, value ControlValue) error {
	spec, ok := controlTable[id]
	if !ok {
		return engine.InvalidArgumentf("unknown control %q", id)
	}
	if value.Kind != spec.kind {
		return engine.InvalidArgumentf("control value kind mismatch")
	}

	switch spec.kind {
	case KindF32:
		v := float64(value.F32)
		if v < spec.min {
			return engine.InvalidArgumentf("value below minimum")
		}
		if v > spec.max {
			return engine.InvalidArgumentf("value above maximum")
		}
	case KindU32:
		v := float64(value.U32)
		if v < spec.min {
			return engine.InvalidArgumentf("value below minimum")
		}
	}
	return nil
}

// Backend applies control mutations to the real device. A nil Backend makes
// Session fall back to an in-memory store, useful for headless testing and
// CLI demos without a real camera control surface.
type Backend interface {
	GetControl(id ControlID) (ControlValue, error)
	SetControl(id ControlID, value ControlValue) error
}

// memoryBackend is the default no-op Backend: it remembers whatever was last
// set and nothing more.
type memoryBackend struct {
	mu     sync.Mutex
	values map[ControlID]ControlValue
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{values: make(map[ControlID]ControlValue)}
}

func (m *memoryBackend) GetControl(id ControlID) (ControlValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[id]; ok {
		return v, nil
	}
	return ControlValue{}, engine.NotFoundf("control %q has no value set", id)
}

func (m *memoryBackend) SetControl(id ControlID, value ControlValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[id] = value
	return nil
}
