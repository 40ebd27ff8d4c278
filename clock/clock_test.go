package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonicAcrossCalls(t *testing.T) {
	c := New()

	pts1 := c.Now()
	time.Sleep(10 * time.Millisecond)
	pts2 := c.Now()

	require.Greater(t, pts2, pts1)
	assert.InDelta(t, 0.010, pts2-pts1, 0.005)
}

func TestClonesShareStart(t *testing.T) {
	c1 := New()
	c2 := FromStart(c1.Start())

	time.Sleep(5 * time.Millisecond)

	assert.InDelta(t, c1.Now(), c2.Now(), 0.002)
}

func TestAtMatchesNowForSameInstant(t *testing.T) {
	c := New()
	now := time.Now()
	assert.InDelta(t, c.At(now), c.Now(), 0.01)
}
