package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// BoxShape is a box centred on its body's origin. One instance is shared by
// every box body in a World.
type BoxShape struct {
	HalfExtents mgl32.Vec3
}

// PlaneShape is the infinite plane {p : Normal·p = Offset}; everything below
// it is solid.
type PlaneShape struct {
	Normal mgl32.Vec3
	Offset float32
}

type aabb struct {
	min, max mgl32.Vec3
}

func (a aabb) overlaps(b aabb) bool {
	return a.min[0] <= b.max[0] && a.max[0] >= b.min[0] &&
		a.min[1] <= b.max[1] && a.max[1] >= b.min[1] &&
		a.min[2] <= b.max[2] && a.max[2] >= b.min[2]
}

// Body is a rigid body registered in a World. Static bodies have zero
// inverse mass and never move.
type Body struct {
	Position        mgl32.Vec3
	Orientation     mgl32.Quat
	LinearVelocity  mgl32.Vec3
	AngularVelocity mgl32.Vec3

	shape      any // *BoxShape or *PlaneShape
	invMass    float32
	invInertia mgl32.Vec3 // body-space diagonal
	friction   float32

	// per sub-step cache
	invInertiaWorld mgl32.Mat3
	rot             mgl32.Mat3
	bounds          aabb

	sleeping  bool
	sleepTime float32
}

func newBoxBody(shape *BoxShape, mass, friction float32, pos mgl32.Vec3, q mgl32.Quat) *Body {
	h := shape.HalfExtents
	// solid box: I = m/12 * (b²+c²) with b,c the full side lengths
	ix := mass / 3 * (h[1]*h[1] + h[2]*h[2])
	iy := mass / 3 * (h[0]*h[0] + h[2]*h[2])
	iz := mass / 3 * (h[0]*h[0] + h[1]*h[1])
	b := &Body{
		Position:    pos,
		Orientation: q.Normalize(),
		shape:       shape,
		invMass:     1 / mass,
		invInertia:  mgl32.Vec3{1 / ix, 1 / iy, 1 / iz},
		friction:    friction,
	}
	b.updateCache(0)
	return b
}

func newPlaneBody(shape *PlaneShape, friction float32) *Body {
	b := &Body{
		Orientation: mgl32.QuatIdent(),
		shape:       shape,
		friction:    friction,
	}
	b.updateCache(0)
	return b
}

// Static reports whether the body has infinite mass.
func (b *Body) Static() bool { return b.invMass == 0 }

// Sleeping reports whether the body has been deactivated after resting.
func (b *Body) Sleeping() bool { return b.sleeping }

// Friction returns the body's friction coefficient.
func (b *Body) Friction() float32 { return b.friction }

// Mass returns the body's mass, or 0 for a static body.
func (b *Body) Mass() float32 {
	if b.invMass == 0 {
		return 0
	}
	return 1 / b.invMass
}

// Transform returns the body's world transform as a model matrix.
func (b *Body) Transform() mgl32.Mat4 {
	return mgl32.Translate3D(b.Position[0], b.Position[1], b.Position[2]).Mul4(b.Orientation.Mat4())
}

// InterpolatedTransform extrapolates the pose dt seconds past the last
// sub-step with the body's current velocities. Static and sleeping bodies
// return their Transform.
func (b *Body) InterpolatedTransform(dt float32) mgl32.Mat4 {
	if !b.awakeDynamic() || dt <= 0 {
		return b.Transform()
	}
	p := b.Position.Add(b.LinearVelocity.Mul(dt))
	q := advance(b.Orientation, b.AngularVelocity, dt)
	return mgl32.Translate3D(p[0], p[1], p[2]).Mul4(q.Mat4())
}

// ApplyCentralImpulse changes the linear velocity by impulse/mass and wakes the body.
func (b *Body) ApplyCentralImpulse(impulse mgl32.Vec3) {
	if b.Static() {
		return
	}
	b.LinearVelocity = b.LinearVelocity.Add(impulse.Mul(b.invMass))
	b.wake()
}

func (b *Body) wake() {
	b.sleeping = false
	b.sleepTime = 0
}

func (b *Body) awakeDynamic() bool {
	return !b.Static() && !b.sleeping
}

// moving reports whether the body is awake and above the sleep thresholds.
func (b *Body) moving() bool {
	return b.awakeDynamic() && b.sleepTime == 0
}

// velocityAt returns the velocity of the body point at offset r from its centre.
func (b *Body) velocityAt(r mgl32.Vec3) mgl32.Vec3 {
	return b.LinearVelocity.Add(b.AngularVelocity.Cross(r))
}

func (b *Body) applyImpulse(p, r mgl32.Vec3) {
	if b.invMass == 0 || b.sleeping {
		return
	}
	b.LinearVelocity = b.LinearVelocity.Add(p.Mul(b.invMass))
	b.AngularVelocity = b.AngularVelocity.Add(b.invInertiaWorld.Mul3x1(r.Cross(p)))
}

// updateCache refreshes the rotation, world inverse inertia and bounds.
// margin grows the bounds for speculative contacts.
func (b *Body) updateCache(margin float32) {
	b.rot = b.Orientation.Mat4().Mat3()
	if b.invMass != 0 {
		b.invInertiaWorld = b.rot.Mul3(mgl32.Diag3(b.invInertia)).Mul3(b.rot.Transpose())
	}
	switch s := b.shape.(type) {
	case *BoxShape:
		var ext mgl32.Vec3
		for i := 0; i < 3; i++ {
			ext[i] = math32.Abs(b.rot.At(i, 0))*s.HalfExtents[0] +
				math32.Abs(b.rot.At(i, 1))*s.HalfExtents[1] +
				math32.Abs(b.rot.At(i, 2))*s.HalfExtents[2] + margin
		}
		b.bounds = aabb{min: b.Position.Sub(ext), max: b.Position.Add(ext)}
	case *PlaneShape:
		inf := math32.Inf(1)
		b.bounds = aabb{min: mgl32.Vec3{-inf, -inf, -inf}, max: mgl32.Vec3{inf, inf, inf}}
	}
}

// sweptMargin is how far the body can travel during a step of h seconds,
// plus the base contact margin.
func (b *Body) sweptMargin(h float32) float32 {
	m := contactMargin + b.LinearVelocity.Len()*h
	if s, ok := b.shape.(*BoxShape); ok {
		m += b.AngularVelocity.Len() * s.HalfExtents.Len() * h
	}
	return m
}

func (b *Body) integrate(h float32) {
	b.Position = b.Position.Add(b.LinearVelocity.Mul(h))
	b.Orientation = advance(b.Orientation, b.AngularVelocity, h)
}

// advance rotates q by angular velocity w over h seconds.
func advance(q mgl32.Quat, w mgl32.Vec3, h float32) mgl32.Quat {
	spin := mgl32.Quat{W: 0, V: w}.Mul(q).Scale(0.5 * h)
	return q.Add(spin).Normalize()
}

// corners returns the eight box vertices in world space.
func (b *Body) corners(s *BoxShape) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	h := s.HalfExtents
	i := 0
	for _, x := range [2]float32{-1, 1} {
		for _, y := range [2]float32{-1, 1} {
			for _, z := range [2]float32{-1, 1} {
				local := mgl32.Vec3{x * h[0], y * h[1], z * h[2]}
				out[i] = b.Position.Add(b.rot.Mul3x1(local))
				i++
			}
		}
	}
	return out
}
