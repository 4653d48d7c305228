package physics

// sweepAndPrune keeps the finite bodies ordered by the lower x bound of
// their bounds. The order persists between sub-steps, so the insertion sort
// is close to linear for coherent motion.
type sweepAndPrune struct {
	bodies []*Body
}

func (sp *sweepAndPrune) add(b *Body) {
	sp.bodies = append(sp.bodies, b)
}

func (sp *sweepAndPrune) clear() {
	sp.bodies = sp.bodies[:0]
}

func (sp *sweepAndPrune) sort() {
	bs := sp.bodies
	for i := 1; i < len(bs); i++ {
		b := bs[i]
		j := i - 1
		for j >= 0 && bs[j].bounds.min[0] > b.bounds.min[0] {
			bs[j+1] = bs[j]
			j--
		}
		bs[j+1] = b
	}
}

// pairs returns every pair with overlapping bounds where at least one body
// is awake and dynamic. Bounds must be current.
func (sp *sweepAndPrune) pairs(out [][2]*Body) [][2]*Body {
	sp.sort()
	bs := sp.bodies
	for i, a := range bs {
		for _, b := range bs[i+1:] {
			if b.bounds.min[0] > a.bounds.max[0] {
				break
			}
			if !a.awakeDynamic() && !b.awakeDynamic() {
				continue
			}
			if a.bounds.overlaps(b.bounds) {
				out = append(out, [2]*Body{a, b})
			}
		}
	}
	return out
}
