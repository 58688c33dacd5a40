// ABOUTME: Positional panner with distance and cone attenuation
// ABOUTME: Exponential distance model and equal-power stereo panning by azimuth
package spatial

import (
	"math"

	"github.com/seraphwave/seraphwave-go/pkg/protocol"
)

// PannerConfig holds the attenuation constants applied to every source
type PannerConfig struct {
	ConeInnerAngle float64 // degrees, full cone width
	ConeOuterAngle float64 // degrees, full cone width
	ConeOuterGain  float64
	RolloffFactor  float64
	RefDistance    float64
	MaxDistance    float64
}

// DefaultPanner returns the constants every remote speaker is rendered with
func DefaultPanner() PannerConfig {
	return PannerConfig{
		ConeInnerAngle: 60,
		ConeOuterAngle: 90,
		ConeOuterGain:  0.6,
		RolloffFactor:  1.3,
		RefDistance:    1,
		MaxDistance:    10000,
	}
}

// DistanceGain applies the exponential distance model. Distances below
// RefDistance play at full gain; distances above MaxDistance are clamped.
func (c PannerConfig) DistanceGain(distance float64) float64 {
	if c.RefDistance <= 0 {
		return 1
	}
	d := math.Max(distance, c.RefDistance)
	if c.MaxDistance > 0 {
		d = math.Min(d, c.MaxDistance)
	}
	return math.Pow(d/c.RefDistance, -c.RolloffFactor)
}

// ConeGain attenuates sources facing away from the listener. A zero
// direction means an omnidirectional source.
func (c PannerConfig) ConeGain(source protocol.Pose, listener Vec3) float64 {
	orientation, ok := normalize(source.Direction)
	if !ok || (c.ConeInnerAngle >= 360 && c.ConeOuterAngle >= 360) {
		return 1
	}

	toListener, ok := normalize(sub(listener, source.Position))
	if !ok {
		return 1
	}

	cos := math.Max(-1, math.Min(1, dot(toListener, orientation)))
	angle := math.Abs(math.Acos(cos) * 180 / math.Pi)

	inner := c.ConeInnerAngle / 2
	outer := c.ConeOuterAngle / 2

	switch {
	case angle <= inner:
		return 1
	case angle >= outer:
		return c.ConeOuterGain
	default:
		x := (angle - inner) / (outer - inner)
		return (1 - x) + c.ConeOuterGain*x
	}
}

// Listener is the local point of view. It sits at the origin.
type Listener struct {
	Position Vec3
	Forward  Vec3
	Up       Vec3
}

// DefaultListener faces -Z with +Y up
func DefaultListener() Listener {
	return Listener{
		Forward: Vec3{Z: -1},
		Up:      Vec3{Y: 1},
	}
}

// Azimuth returns the source angle in degrees, folded into [-90, 90]:
// negative is left, positive is right, front and back mirror each other.
func (l Listener) Azimuth(source Vec3) float64 {
	toSource, ok := normalize(sub(source, l.Position))
	if !ok {
		return 0
	}

	forward, ok := normalize(l.Forward)
	if !ok {
		return 0
	}
	right, ok := normalize(cross(forward, l.Up))
	if !ok {
		return 0
	}
	up := cross(right, forward)

	projected, ok := normalize(sub(toSource, scale(up, dot(toSource, up))))
	if !ok {
		// Directly above or below
		return 0
	}

	cos := math.Max(-1, math.Min(1, dot(projected, right)))
	azimuth := math.Acos(cos) * 180 / math.Pi
	if dot(projected, forward) < 0 {
		azimuth = 360 - azimuth
	}

	if azimuth >= 0 && azimuth <= 270 {
		azimuth = 90 - azimuth
	} else {
		azimuth = 450 - azimuth
	}

	switch {
	case azimuth < -90:
		azimuth = -180 - azimuth
	case azimuth > 90:
		azimuth = 180 - azimuth
	}
	return azimuth
}

// Gains is a 2x2 stereo panning matrix applied as
// outL = LL*inL + RL*inR, outR = LR*inL + RR*inR
type Gains struct {
	LL, RL, LR, RR float64
}

// Scale multiplies every term by g
func (m Gains) Scale(g float64) Gains {
	return Gains{LL: m.LL * g, RL: m.RL * g, LR: m.LR * g, RR: m.RR * g}
}

// StereoPan returns the equal-power matrix for a stereo source at azimuth
func StereoPan(azimuth float64) Gains {
	if azimuth <= 0 {
		x := (azimuth + 90) / 90
		return Gains{
			LL: 1,
			RL: math.Cos(x * math.Pi / 2),
			RR: math.Sin(x * math.Pi / 2),
		}
	}
	x := azimuth / 90
	return Gains{
		LL: math.Cos(x * math.Pi / 2),
		LR: math.Sin(x * math.Pi / 2),
		RR: 1,
	}
}

// MonoPan returns the equal-power matrix for a mono source at azimuth.
// The mono sample is fed as inL.
func MonoPan(azimuth float64) Gains {
	x := (azimuth + 90) / 180
	return Gains{
		LL: math.Cos(x * math.Pi / 2),
		LR: math.Sin(x * math.Pi / 2),
	}
}

// Gains combines distance, cone and panning for one source
func (c PannerConfig) Gains(l Listener, pose protocol.Pose, channels int) Gains {
	gain := c.DistanceGain(length(sub(pose.Position, l.Position))) * c.ConeGain(pose, l.Position)
	az := l.Azimuth(pose.Position)
	if channels == 1 {
		return MonoPan(az).Scale(gain)
	}
	return StereoPan(az).Scale(gain)
}
