// ABOUTME: Tests for the positional panner
// ABOUTME: Checks distance rolloff, cone attenuation and azimuth panning
package spatial

import (
	"math"
	"testing"

	"github.com/seraphwave/seraphwave-go/pkg/protocol"
	"github.com/stretchr/testify/assert"
)

func TestDistanceGain(t *testing.T) {
	c := DefaultPanner()

	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 1},
		{0.5, 1},
		{1, 1},
		{2, math.Pow(2, -1.3)},
		{10, math.Pow(10, -1.3)},
		{1e6, math.Pow(10000, -1.3)},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, c.DistanceGain(tt.distance), 1e-12, "distance %v", tt.distance)
	}
}

func TestConeGain(t *testing.T) {
	c := DefaultPanner()
	listener := Vec3{}

	// Source two units in front of the listener
	at := Vec3{Z: -2}
	facing := func(dir Vec3) protocol.Pose { return protocol.Pose{Position: at, Direction: dir} }

	assert.Equal(t, 1.0, c.ConeGain(facing(Vec3{}), listener), "omnidirectional")
	assert.Equal(t, 1.0, c.ConeGain(facing(Vec3{Z: 1}), listener), "facing the listener")
	assert.Equal(t, 0.6, c.ConeGain(facing(Vec3{Z: -1}), listener), "facing away")
	assert.Equal(t, 0.6, c.ConeGain(facing(Vec3{X: 1}), listener), "sideways is outside 45 degrees")

	// 37.5 degrees is halfway between the 30 and 45 degree half-angles
	rad := 37.5 * math.Pi / 180
	mid := c.ConeGain(facing(Vec3{X: math.Sin(rad), Z: math.Cos(rad)}), listener)
	assert.InDelta(t, 0.8, mid, 1e-9)
}

func TestAzimuth(t *testing.T) {
	l := DefaultListener()

	tests := []struct {
		name   string
		source Vec3
		want   float64
	}{
		{"front", Vec3{Z: -1}, 0},
		{"right", Vec3{X: 1}, 90},
		{"left", Vec3{X: -1}, -90},
		{"behind folds to front", Vec3{Z: 1}, 0},
		{"front right", Vec3{X: 1, Z: -1}, 45},
		{"back right folds", Vec3{X: 1, Z: 1}, 45},
		{"above", Vec3{Y: 3}, 0},
		{"at listener", Vec3{}, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, l.Azimuth(tt.source), 1e-9, tt.name)
	}
}

func TestAzimuthFollowsOrientation(t *testing.T) {
	l := DefaultListener()
	l.Forward = Vec3{X: 1} // turn to face +X

	assert.InDelta(t, 0, l.Azimuth(Vec3{X: 5}), 1e-9)
	assert.InDelta(t, 90, l.Azimuth(Vec3{Z: 5}), 1e-9)
	assert.InDelta(t, -90, l.Azimuth(Vec3{Z: -5}), 1e-9)
}

func TestStereoPanEqualPower(t *testing.T) {
	center := StereoPan(0)
	assert.InDelta(t, 1, center.LL, 1e-12)
	assert.InDelta(t, 0, center.RL, 1e-12)
	assert.InDelta(t, 1, center.RR, 1e-12)

	right := StereoPan(90)
	assert.InDelta(t, 0, right.LL, 1e-12)
	assert.InDelta(t, 1, right.LR, 1e-12)
	assert.InDelta(t, 1, right.RR, 1e-12)

	left := StereoPan(-90)
	assert.InDelta(t, 1, left.LL, 1e-12)
	assert.InDelta(t, 1, left.RL, 1e-12)
	assert.InDelta(t, 0, left.RR, 1e-12)

	for _, az := range []float64{-90, -45, 0, 30, 90} {
		m := MonoPan(az)
		assert.InDelta(t, 1, m.LL*m.LL+m.LR*m.LR, 1e-12, "mono power at %v", az)
	}
}

func TestGainsCombined(t *testing.T) {
	c := DefaultPanner()
	l := DefaultListener()

	pose := protocol.Pose{Position: Vec3{X: 2}, Direction: Vec3{X: -1}}
	g := c.Gains(l, pose, 2)

	want := StereoPan(90).Scale(math.Pow(2, -1.3))
	assert.InDelta(t, want.LL, g.LL, 1e-12)
	assert.InDelta(t, want.LR, g.LR, 1e-12)
	assert.InDelta(t, want.RR, g.RR, 1e-12)
}
