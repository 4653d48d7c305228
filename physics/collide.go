package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// contactMargin is the gap below which touching features produce contacts.
	contactMargin = 0.02
	// edgeAxisBias makes face axes win over nearly equal edge-edge axes,
	// which keeps resting manifolds stable.
	edgeAxisBias = 0.95
	// edgeFeature tags the single edge-edge contact; corner contacts use
	// the corner index, offset by 8 for corners of the first box.
	edgeFeature = 16
)

// contact is one point of a contact manifold. normal points from a to b;
// depth is positive when the bodies overlap and negative for a gap.
type contact struct {
	a, b   *Body
	point  mgl32.Vec3
	normal mgl32.Vec3
	depth  float32
	// feature identifies the point within its pair across sub-steps
	feature int

	// solver state
	ra, rb       mgl32.Vec3
	t1, t2       mgl32.Vec3
	normalMass   float32
	tangentMass1 float32
	tangentMass2 float32
	friction     float32
	target       float32
	jn, jt1, jt2 float32
}

// collide dispatches on the shape pair and appends the resulting contacts.
func collide(a, b *Body, h float32, out []contact) []contact {
	margin := a.sweptMargin(h) + b.sweptMargin(h) - contactMargin
	switch sa := a.shape.(type) {
	case *PlaneShape:
		if sb, ok := b.shape.(*BoxShape); ok {
			return collidePlaneBox(a, sa, b, sb, margin, out)
		}
	case *BoxShape:
		switch sb := b.shape.(type) {
		case *BoxShape:
			return collideBoxBox(a, sa, b, sb, margin, out)
		case *PlaneShape:
			return collidePlaneBox(b, sb, a, sa, margin, out)
		}
	}
	return out
}

func collidePlaneBox(plane *Body, ps *PlaneShape, box *Body, bs *BoxShape, margin float32, out []contact) []contact {
	for i, c := range box.corners(bs) {
		dist := ps.Normal.Dot(c) - ps.Offset
		if dist >= margin {
			continue
		}
		out = append(out, contact{
			a:       plane,
			b:       box,
			point:   c,
			normal:  ps.Normal,
			depth:   -dist,
			feature: i,
		})
	}
	return out
}

// projectedRadius is the half length of the box's projection onto axis.
func projectedRadius(b *Body, s *BoxShape, axis mgl32.Vec3) float32 {
	return math32.Abs(b.rot.Col(0).Dot(axis))*s.HalfExtents[0] +
		math32.Abs(b.rot.Col(1).Dot(axis))*s.HalfExtents[1] +
		math32.Abs(b.rot.Col(2).Dot(axis))*s.HalfExtents[2]
}

// insideBox reports whether p lies within the box grown by margin.
func insideBox(b *Body, s *BoxShape, p mgl32.Vec3, margin float32) bool {
	d := p.Sub(b.Position)
	for i := 0; i < 3; i++ {
		if math32.Abs(b.rot.Col(i).Dot(d)) > s.HalfExtents[i]+margin {
			return false
		}
	}
	return true
}

// support returns the box vertex furthest along dir.
func support(b *Body, s *BoxShape, dir mgl32.Vec3) mgl32.Vec3 {
	p := b.Position
	for i := 0; i < 3; i++ {
		axis := b.rot.Col(i)
		if axis.Dot(dir) >= 0 {
			p = p.Add(axis.Mul(s.HalfExtents[i]))
		} else {
			p = p.Sub(axis.Mul(s.HalfExtents[i]))
		}
	}
	return p
}

// collideBoxBox runs the separating axis test over the 15 candidate axes and
// builds a manifold from the vertices of each box that lie inside the other.
// When no vertex qualifies (edge against edge) a single contact is placed
// between the two deepest vertices.
func collideBoxBox(a *Body, sa *BoxShape, b *Body, sb *BoxShape, margin float32, out []contact) []contact {
	delta := b.Position.Sub(a.Position)

	var axes [15]mgl32.Vec3
	for i := 0; i < 3; i++ {
		axes[i] = a.rot.Col(i)
		axes[3+i] = b.rot.Col(i)
	}
	k := 6
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			axes[k] = a.rot.Col(i).Cross(b.rot.Col(j))
			k++
		}
	}

	best := math32.Inf(1)
	var normal mgl32.Vec3
	for i, axis := range axes {
		l := axis.Len()
		if l < 1e-5 {
			continue // parallel edges
		}
		axis = axis.Mul(1 / l)
		d := delta.Dot(axis)
		overlap := projectedRadius(a, sa, axis) + projectedRadius(b, sb, axis) - math32.Abs(d)
		if overlap < -margin {
			return out
		}
		if i >= 6 && overlap >= best*edgeAxisBias-contactMargin {
			continue
		}
		if overlap < best {
			best = overlap
			if d < 0 {
				axis = axis.Mul(-1)
			}
			normal = axis
		}
	}

	n0 := len(out)
	supA := a.Position.Dot(normal) + projectedRadius(a, sa, normal)
	minB := b.Position.Dot(normal) - projectedRadius(b, sb, normal)

	for i, c := range b.corners(sb) {
		if !insideBox(a, sa, c, margin) {
			continue
		}
		if depth := supA - c.Dot(normal); depth > -margin {
			out = append(out, contact{a: a, b: b, point: c, normal: normal, depth: depth, feature: i})
		}
	}
	for i, c := range a.corners(sa) {
		if !insideBox(b, sb, c, margin) {
			continue
		}
		if depth := c.Dot(normal) - minB; depth > -margin {
			out = append(out, contact{a: a, b: b, point: c, normal: normal, depth: depth, feature: 8 + i})
		}
	}

	if len(out) == n0 {
		pa := support(a, sa, normal)
		pb := support(b, sb, normal.Mul(-1))
		out = append(out, contact{
			a:       a,
			b:       b,
			point:   pa.Add(pb).Mul(0.5),
			normal:  normal,
			depth:   best,
			feature: edgeFeature,
		})
	}
	return out
}
