// Package collision implements separating-axis overlap tests, contact point
// generation and the manifold that carries both to the solver.
//
// Normals follow one convention throughout: they point from A towards B, so
// moving B by +normal*depth (or A by -normal*depth) separates the pair.
package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/physics2d/core"
)

// IntersectCircles tests two circles. Coincident centres resolve along +X.
func IntersectCircles(centerA mgl64.Vec2, radiusA float64, centerB mgl64.Vec2, radiusB float64) (mgl64.Vec2, float64, bool) {
	ab := centerB.Sub(centerA)
	distance := ab.Len()
	radii := radiusA + radiusB
	if distance >= radii {
		return mgl64.Vec2{}, 0, false
	}
	normal := mgl64.Vec2{1, 0}
	if distance > 0 {
		normal = ab.Mul(1 / distance)
	}
	return normal, radii - distance, true
}

// IntersectPolygons runs SAT over the edge normals of two convex rings.
// The centres orient the resulting normal from A to B.
func IntersectPolygons(verticesA []mgl64.Vec2, centerA mgl64.Vec2, verticesB []mgl64.Vec2, centerB mgl64.Vec2) (mgl64.Vec2, float64, bool) {
	normal := mgl64.Vec2{}
	depth := math.MaxFloat64

	for _, ring := range [2][]mgl64.Vec2{verticesA, verticesB} {
		for i := range ring {
			axis := edgeNormal(ring[i], ring[(i+1)%len(ring)])
			minA, maxA := projectVertices(verticesA, axis)
			minB, maxB := projectVertices(verticesB, axis)
			if minA >= maxB || minB >= maxA {
				return mgl64.Vec2{}, 0, false
			}
			if d := math.Min(maxB-minA, maxA-minB); d < depth {
				depth = d
				normal = axis
			}
		}
	}

	if centerB.Sub(centerA).Dot(normal) < 0 {
		normal = normal.Mul(-1)
	}
	return normal, depth, true
}

// IntersectCirclePolygon tests a circle against a convex ring. The normal
// points from the circle towards the polygon.
func IntersectCirclePolygon(center mgl64.Vec2, radius float64, polygonCenter mgl64.Vec2, vertices []mgl64.Vec2) (mgl64.Vec2, float64, bool) {
	normal := mgl64.Vec2{}
	depth := math.MaxFloat64

	test := func(axis mgl64.Vec2) bool {
		minA, maxA := projectVertices(vertices, axis)
		minB, maxB := projectCircle(center, radius, axis)
		if minA >= maxB || minB >= maxA {
			return false
		}
		if d := math.Min(maxB-minA, maxA-minB); d < depth {
			depth = d
			normal = axis
		}
		return true
	}

	for i := range vertices {
		if !test(edgeNormal(vertices[i], vertices[(i+1)%len(vertices)])) {
			return mgl64.Vec2{}, 0, false
		}
	}

	// Vertex region: the axis from the nearest vertex to the centre.
	toVertex := vertices[closestVertex(center, vertices)].Sub(center)
	if toVertex.LenSqr() > 0 && !test(toVertex.Normalize()) {
		return mgl64.Vec2{}, 0, false
	}

	if polygonCenter.Sub(center).Dot(normal) < 0 {
		normal = normal.Mul(-1)
	}
	return normal, depth, true
}

// Collide dispatches on the shape kinds of a and b. For compound bodies every
// part pair is tested and the per-pair results are combined by policy.
func Collide(a, b *core.Body, policy CompoundPolicy) (mgl64.Vec2, float64, bool) {
	switch {
	case a.Shape() == core.ShapeCircle && b.Shape() == core.ShapeCircle:
		return IntersectCircles(a.Position(), a.Radius(), b.Position(), b.Radius())

	case a.Shape() == core.ShapeCircle:
		var acc accumulator
		for _, part := range b.GetTransformedVertices() {
			acc.add(IntersectCirclePolygon(a.Position(), a.Radius(), core.ArithmeticMean(part), part))
		}
		return acc.result(policy)

	case b.Shape() == core.ShapeCircle:
		var acc accumulator
		for _, part := range a.GetTransformedVertices() {
			n, d, ok := IntersectCirclePolygon(b.Position(), b.Radius(), core.ArithmeticMean(part), part)
			acc.add(n.Mul(-1), d, ok)
		}
		return acc.result(policy)

	default:
		var acc accumulator
		partsB := b.GetTransformedVertices()
		for _, pa := range a.GetTransformedVertices() {
			ca := core.ArithmeticMean(pa)
			for _, pb := range partsB {
				acc.add(IntersectPolygons(pa, ca, pb, core.ArithmeticMean(pb)))
			}
		}
		return acc.result(policy)
	}
}

// accumulator folds the per-part-pair results of a compound test.
type accumulator struct {
	sum       mgl64.Vec2
	hits      int
	deepest   mgl64.Vec2
	deepDepth float64
}

func (acc *accumulator) add(normal mgl64.Vec2, depth float64, ok bool) {
	if !ok {
		return
	}
	acc.hits++
	acc.sum = acc.sum.Add(normal.Mul(depth))
	if depth > acc.deepDepth || acc.hits == 1 {
		acc.deepest = normal
		acc.deepDepth = depth
	}
}

func (acc *accumulator) result(policy CompoundPolicy) (mgl64.Vec2, float64, bool) {
	if acc.hits == 0 {
		return mgl64.Vec2{}, 0, false
	}
	if acc.hits == 1 || policy == CompoundDeepest {
		return acc.deepest, acc.deepDepth, true
	}
	length := acc.sum.Len()
	// Opposing part pairs can cancel; fall back to the deepest one.
	if length < core.DegenerateEpsilon {
		return acc.deepest, acc.deepDepth, true
	}
	return acc.sum.Mul(1 / length), length, true
}

func edgeNormal(a, b mgl64.Vec2) mgl64.Vec2 {
	edge := b.Sub(a)
	return mgl64.Vec2{-edge.Y(), edge.X()}.Normalize()
}

func projectVertices(vertices []mgl64.Vec2, axis mgl64.Vec2) (float64, float64) {
	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for _, v := range vertices {
		p := v.Dot(axis)
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return lo, hi
}

func projectCircle(center mgl64.Vec2, radius float64, axis mgl64.Vec2) (float64, float64) {
	c := center.Dot(axis)
	return c - radius, c + radius
}

func closestVertex(p mgl64.Vec2, vertices []mgl64.Vec2) int {
	best, bestDist := 0, math.MaxFloat64
	for i, v := range vertices {
		if d := v.Sub(p).LenSqr(); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
