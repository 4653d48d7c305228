package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	baumgarte         = 0.2
	penetrationSlop   = 0.005
	maxCorrectionRate = 4.0 // m/s
)

// sequentialImpulse is a projected Gauss-Seidel contact solver with Coulomb
// friction, solving every contact of a sub-step a fixed number of times.
// Accumulated impulses are kept per contact feature and applied up front in
// the next sub-step, so resting stacks converge instead of restarting at zero.
type sequentialImpulse struct {
	iterations int
	cache      map[contactKey]impulse
}

type contactKey struct {
	a, b    *Body
	feature int
}

type impulse struct {
	normal, tangent1, tangent2 float32
}

func tangents(n mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	ref := mgl32.Vec3{1, 0, 0}
	if math32.Abs(n[0]) > 0.57 {
		ref = mgl32.Vec3{0, 1, 0}
	}
	t1 := n.Cross(ref).Normalize()
	return t1, n.Cross(t1)
}

func effectiveMass(c *contact, dir mgl32.Vec3) float32 {
	k := c.a.invMass + c.b.invMass
	if c.a.invMass != 0 {
		ra := c.ra.Cross(dir)
		k += c.a.invInertiaWorld.Mul3x1(ra).Cross(c.ra).Dot(dir)
	}
	if c.b.invMass != 0 {
		rb := c.rb.Cross(dir)
		k += c.b.invInertiaWorld.Mul3x1(rb).Cross(c.rb).Dot(dir)
	}
	if k == 0 {
		return 0
	}
	return 1 / k
}

func (s *sequentialImpulse) prepare(cs []contact, h float32) {
	for i := range cs {
		c := &cs[i]
		c.ra = c.point.Sub(c.a.Position)
		c.rb = c.point.Sub(c.b.Position)
		c.t1, c.t2 = tangents(c.normal)
		c.normalMass = effectiveMass(c, c.normal)
		c.tangentMass1 = effectiveMass(c, c.t1)
		c.tangentMass2 = effectiveMass(c, c.t2)
		c.friction = c.a.friction * c.b.friction
		if c.depth < 0 {
			// speculative: allow closing the gap within this step
			c.target = c.depth / h
		} else {
			c.target = math32.Min(baumgarte*math32.Max(c.depth-penetrationSlop, 0)/h, maxCorrectionRate)
		}
		c.jn, c.jt1, c.jt2 = 0, 0, 0
		if prev, ok := s.cache[c.key()]; ok {
			c.jn, c.jt1, c.jt2 = prev.normal, prev.tangent1, prev.tangent2
			c.apply(c.normal.Mul(c.jn).Add(c.t1.Mul(c.jt1)).Add(c.t2.Mul(c.jt2)))
		}
	}
}

func (c *contact) key() contactKey {
	return contactKey{a: c.a, b: c.b, feature: c.feature}
}

// store replaces the cache with the impulses of cs. Contacts that did not
// persist into this sub-step are forgotten.
func (s *sequentialImpulse) store(cs []contact) {
	if s.cache == nil {
		s.cache = make(map[contactKey]impulse, len(cs))
	}
	clear(s.cache)
	for i := range cs {
		c := &cs[i]
		s.cache[c.key()] = impulse{normal: c.jn, tangent1: c.jt1, tangent2: c.jt2}
	}
}

func (s *sequentialImpulse) reset() {
	clear(s.cache)
}

func (c *contact) relativeVelocity() mgl32.Vec3 {
	return c.b.velocityAt(c.rb).Sub(c.a.velocityAt(c.ra))
}

func (c *contact) apply(p mgl32.Vec3) {
	c.a.applyImpulse(p.Mul(-1), c.ra)
	c.b.applyImpulse(p, c.rb)
}

func (s *sequentialImpulse) solve(cs []contact) {
	for it := 0; it < s.iterations; it++ {
		for i := range cs {
			c := &cs[i]

			vn := c.relativeVelocity().Dot(c.normal)
			lambda := (c.target - vn) * c.normalMass
			old := c.jn
			c.jn = math32.Max(old+lambda, 0)
			c.apply(c.normal.Mul(c.jn - old))

			limit := c.friction * c.jn
			vr := c.relativeVelocity()

			lambda = -vr.Dot(c.t1) * c.tangentMass1
			old = c.jt1
			c.jt1 = mgl32.Clamp(old+lambda, -limit, limit)
			c.apply(c.t1.Mul(c.jt1 - old))

			lambda = -vr.Dot(c.t2) * c.tangentMass2
			old = c.jt2
			c.jt2 = mgl32.Clamp(old+lambda, -limit, limit)
			c.apply(c.t2.Mul(c.jt2 - old))
		}
	}
	s.store(cs)
}
