package core

import (
	"math"
	"math/rand"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or quasi-random sequences
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Frame is an orthonormal basis with Z along a given axis
type Frame struct {
	U, V, W Vec3
}

// NewFrame builds an orthonormal basis around axis (assumed normalized)
func NewFrame(axis Vec3) Frame {
	// Find a vector perpendicular to axis
	var nt Vec3
	if math.Abs(axis.X) > 0.1 {
		nt = NewVec3(0, 1, 0)
	} else {
		nt = NewVec3(1, 0, 0)
	}

	u := nt.Cross(axis).Normalize()
	v := axis.Cross(u)
	return Frame{U: u, V: v, W: axis}
}

// ToWorld transforms local coordinates (x, y, z) into world space
func (f Frame) ToWorld(x, y, z float64) Vec3 {
	return f.U.Multiply(x).Add(f.V.Multiply(y)).Add(f.W.Multiply(z))
}

// SampleCosineHemisphere generates a cosine-weighted random direction in hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	a := 2.0 * math.Pi * sample.X
	z := sample.Y
	r := math.Sqrt(z)

	x := r * math.Cos(a)
	y := r * math.Sin(a)
	zCoord := math.Sqrt(1.0 - z)

	return NewFrame(normal).ToWorld(x, y, zCoord)
}

// CosineHemispherePDF returns the solid angle density of SampleCosineHemisphere
// for a direction making cosTheta with the normal
func CosineHemispherePDF(cosTheta float64) float64 {
	if cosTheta <= 0 {
		return 0
	}
	return cosTheta / math.Pi
}

// SampleCosineLobe draws a direction around axis with density proportional to
// cos^exponent of the angle to the axis
func SampleCosineLobe(axis Vec3, exponent float64, sample Vec2) Vec3 {
	phi := 2.0 * math.Pi * sample.X
	cosTheta := math.Pow(sample.Y, 1.0/(exponent+1.0))
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))

	return NewFrame(axis).ToWorld(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
}

// CosineLobePDF returns the solid angle density of SampleCosineLobe for a
// direction making cosTheta with the lobe axis
func CosineLobePDF(cosTheta, exponent float64) float64 {
	if cosTheta <= 0 {
		return 0
	}
	return (exponent + 1.0) / (2.0 * math.Pi) * math.Pow(cosTheta, exponent)
}

// SampleOnUnitSphere generates a uniform random direction on the unit sphere
func SampleOnUnitSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X // z ∈ [-1, 1]
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	x := r * math.Cos(phi)
	y := r * math.Sin(phi)
	return NewVec3(x, y, z)
}

// Reflect mirrors the travelling direction v about the normal n
func Reflect(v, n Vec3) Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// Refract bends the travelling unit direction uv through a surface with
// normal n facing the incident side. It returns false on total internal
// reflection.
func Refract(uv, n Vec3, etaiOverEtat float64) (Vec3, bool) {
	cosTheta := math.Min(-uv.Dot(n), 1.0)
	sin2Theta := math.Max(0, 1.0-cosTheta*cosTheta)
	if etaiOverEtat*etaiOverEtat*sin2Theta > 1.0 {
		return Vec3{}, false
	}
	rOutPerp := uv.Add(n.Multiply(cosTheta)).Multiply(etaiOverEtat)
	rOutParallel := n.Multiply(-math.Sqrt(math.Abs(1.0 - rOutPerp.LengthSquared())))
	return rOutPerp.Add(rOutParallel), true
}
