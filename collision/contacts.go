package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/physics2d/core"
)

// ContactEpsilon separates "equally close" from "closer" when picking a
// second contact point.
const ContactEpsilon = 0.0005

// PointSegmentDistance returns the point of segment ab closest to p and the
// squared distance between them.
func PointSegmentDistance(p, a, b mgl64.Vec2) (mgl64.Vec2, float64) {
	ab := b.Sub(a)
	t := p.Sub(a).Dot(ab) / ab.LenSqr()

	var cp mgl64.Vec2
	switch {
	case t <= 0:
		cp = a
	case t >= 1:
		cp = b
	default:
		cp = a.Add(ab.Mul(t))
	}
	return cp, p.Sub(cp).LenSqr()
}

// FindContacts returns up to two contact points for an overlapping pair.
func FindContacts(a, b *core.Body) (mgl64.Vec2, mgl64.Vec2, int) {
	switch {
	case a.Shape() == core.ShapeCircle && b.Shape() == core.ShapeCircle:
		return circlesContact(a.Position(), a.Radius(), b.Position()), mgl64.Vec2{}, 1
	case a.Shape() == core.ShapeCircle:
		return circlePolygonContact(a.Position(), b.GetTransformedVertices()), mgl64.Vec2{}, 1
	case b.Shape() == core.ShapeCircle:
		return circlePolygonContact(b.Position(), a.GetTransformedVertices()), mgl64.Vec2{}, 1
	default:
		return polygonsContact(a.GetTransformedVertices(), b.GetTransformedVertices())
	}
}

func circlesContact(centerA mgl64.Vec2, radiusA float64, centerB mgl64.Vec2) mgl64.Vec2 {
	ab := centerB.Sub(centerA)
	if ab.LenSqr() == 0 {
		return centerA
	}
	return centerA.Add(ab.Normalize().Mul(radiusA))
}

func circlePolygonContact(center mgl64.Vec2, parts [][]mgl64.Vec2) mgl64.Vec2 {
	var best mgl64.Vec2
	bestDist := math.MaxFloat64
	for _, part := range parts {
		for i := range part {
			cp, d := PointSegmentDistance(center, part[i], part[(i+1)%len(part)])
			if d < bestDist {
				best, bestDist = cp, d
			}
		}
	}
	return best
}

// contactSearch tracks the closest vertex-to-edge points seen so far.
type contactSearch struct {
	minDist float64
	c1, c2  mgl64.Vec2
	count   int
}

func (s *contactSearch) vertices(from, against []mgl64.Vec2) {
	for _, p := range from {
		for j := range against {
			cp, d := PointSegmentDistance(p, against[j], against[(j+1)%len(against)])
			switch {
			case math.Abs(d-s.minDist) < ContactEpsilon:
				if cp.Sub(s.c1).LenSqr() >= ContactEpsilon*ContactEpsilon {
					s.c2 = cp
					s.count = 2
				}
			case d < s.minDist:
				s.minDist = d
				s.c1 = cp
				s.count = 1
			}
		}
	}
}

// polygonsContact searches every part pair whose bounds touch; the closest
// point over all of them wins.
func polygonsContact(partsA, partsB [][]mgl64.Vec2) (mgl64.Vec2, mgl64.Vec2, int) {
	s := contactSearch{minDist: math.MaxFloat64}
	search := func(filter bool) {
		for _, pa := range partsA {
			boxA := core.BoundingAABB(pa...)
			for _, pb := range partsB {
				if filter && !boxA.Intersects(core.BoundingAABB(pb...)) {
					continue
				}
				s.vertices(pa, pb)
				s.vertices(pb, pa)
			}
		}
	}
	search(true)
	if s.count == 0 {
		search(false)
	}
	return s.c1, s.c2, s.count
}
