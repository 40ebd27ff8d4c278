package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/camcore/internal/engine"
)

type fakeVideoScanner struct {
	devices []Info
	err     error
}

func (f *fakeVideoScanner) ScanVideo() ([]Info, error) { return f.devices, f.err }

type fakeAudioScanner struct {
	devices []AudioInfo
	err     error
}

func (f *fakeAudioScanner) ScanAudio() ([]AudioInfo, error) { return f.devices, f.err }

func TestListVideoDevicesDefaultFirstThenName(t *testing.T) {
	scanner := &fakeVideoScanner{devices: []Info{
		{Name: "Zebra Cam", Index: 1},
		{Name: "Built-in Cam", Index: 0, IsDefault: true},
		{Name: "Alpha Cam", Index: 2},
	}}
	reg := NewRegistry(scanner, nil)

	devices, err := reg.ListVideoDevices()
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, "Built-in Cam", devices[0].Name)
	assert.Equal(t, "Alpha Cam", devices[1].Name)
	assert.Equal(t, "Zebra Cam", devices[2].Name)
}

func TestSynthesizeIDStableAndKindScoped(t *testing.T) {
	id1 := SynthesizeID(KindVideo, 0, "Built-in Cam")
	id2 := SynthesizeID(KindVideo, 0, "Built-in Cam")
	id3 := SynthesizeID(KindAudio, 0, "Built-in Cam")

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Contains(t, id1, "video_0_")
}

func TestFindVideoDeviceByIDAndName(t *testing.T) {
	scanner := &fakeVideoScanner{devices: []Info{
		{ID: "v1", Name: "Alpha", IsDefault: true, Index: 0},
		{ID: "v2", Name: "Beta", Index: 1},
	}}
	reg := NewRegistry(scanner, nil)

	byID, err := reg.FindVideoDevice("v2")
	require.NoError(t, err)
	assert.Equal(t, "Beta", byID.Name)

	byName, err := reg.FindVideoDevice("Alpha")
	require.NoError(t, err)
	assert.Equal(t, "v1", byName.ID)

	byDefault, err := reg.FindVideoDevice("default")
	require.NoError(t, err)
	assert.Equal(t, "v1", byDefault.ID)

	byEmpty, err := reg.FindVideoDevice("")
	require.NoError(t, err)
	assert.Equal(t, "v1", byEmpty.ID)
}

func TestFindVideoDeviceNotFound(t *testing.T) {
	scanner := &fakeVideoScanner{devices: []Info{{ID: "v1", Name: "Alpha", IsDefault: true}}}
	reg := NewRegistry(scanner, nil)

	_, err := reg.FindVideoDevice("missing")
	require.Error(t, err)
	assert.True(t, engine.Is(err, engine.KindNotFound))
}

func TestListVideoDevicesBackendError(t *testing.T) {
	scanner := &fakeVideoScanner{err: assertErr{}}
	reg := NewRegistry(scanner, nil)

	_, err := reg.ListVideoDevices()
	require.Error(t, err)
	assert.True(t, engine.Is(err, engine.KindBackend))
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
