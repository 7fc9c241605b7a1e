// Package vec provides the three-component vector used for positions,
// velocities and accelerations throughout the layout engine.
//
// [Vec3] is a plain value type. All operations return a new vector and never
// mutate their receiver, so vectors can be copied freely between goroutines.
package vec

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Vec3 is a point or direction in three-dimensional space.
type Vec3 struct {
	X, Y, Z float64
}

// Zero is the origin.
var Zero = Vec3{}

// New returns the vector (x, y, z).
func New(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Splat returns a vector with all three components set to s.
func Splat(s float64) Vec3 {
	return Vec3{X: s, Y: s, Z: s}
}

func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale multiplies every component by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Mul multiplies component-wise.
func (v Vec3) Mul(w Vec3) Vec3 {
	return Vec3{v.X * w.X, v.Y * w.Y, v.Z * w.Z}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Len returns the Euclidean length.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Len2 returns the squared length.
func (v Vec3) Len2() float64 {
	return v.Dot(v)
}

// InvLen returns 1/|v|. The zero vector yields +Inf.
func (v Vec3) InvLen() float64 {
	return 1 / v.Len()
}

// Normalized returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Min returns the component-wise minimum.
func (v Vec3) Min(w Vec3) Vec3 {
	return Vec3{math.Min(v.X, w.X), math.Min(v.Y, w.Y), math.Min(v.Z, w.Z)}
}

// Max returns the component-wise maximum.
func (v Vec3) Max(w Vec3) Vec3 {
	return Vec3{math.Max(v.X, w.X), math.Max(v.Y, w.Y), math.Max(v.Z, w.Z)}
}

// Clamp limits every component to [-limit, limit].
func (v Vec3) Clamp(limit float64) Vec3 {
	return Vec3{clamp(v.X, limit), clamp(v.Y, limit), clamp(v.Z, limit)}
}

func clamp(x, limit float64) float64 {
	switch {
	case x > limit:
		return limit
	case x < -limit:
		return -limit
	}
	return x
}

// Coord returns component i (0 = X, 1 = Y, 2 = Z).
func (v Vec3) Coord(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic(fmt.Sprintf("vec: coordinate index %d out of range", i))
}

// MaxCoord returns the largest component.
func (v Vec3) MaxCoord() float64 {
	return math.Max(v.X, math.Max(v.Y, v.Z))
}

// Mid returns the midpoint between v and w.
func (v Vec3) Mid(w Vec3) Vec3 {
	return v.Add(w).Scale(0.5)
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Random returns a vector with each component drawn uniformly from [-r, r].
// A nil source uses the package-level generator.
func Random(rng *rand.Rand, r float64) Vec3 {
	return Vec3{uniform(rng, r), uniform(rng, r), uniform(rng, r)}
}

func uniform(rng *rand.Rand, r float64) float64 {
	var f float64
	if rng == nil {
		f = rand.Float64()
	} else {
		f = rng.Float64()
	}
	return (2*f - 1) * r
}
