// ABOUTME: Vector helpers for spatial rendering
// ABOUTME: Dot, cross, normalize and friends over protocol.Vec3
package spatial

import (
	"math"

	"github.com/seraphwave/seraphwave-go/pkg/protocol"
)

// Vec3 is the wire vector type
type Vec3 = protocol.Vec3

func sub(a, b Vec3) Vec3 { return Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z} }
func scale(a Vec3, s float64) Vec3 {
	return Vec3{X: a.X * s, Y: a.Y * s, Z: a.Z * s}
}

func dot(a, b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func cross(a, b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func length(a Vec3) float64 { return math.Sqrt(dot(a, a)) }

// normalize returns the unit vector and false for a zero or non-finite vector
func normalize(a Vec3) (Vec3, bool) {
	l := length(a)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec3{}, false
	}
	return scale(a, 1/l), true
}
