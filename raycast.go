package physics2d

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/physics2d/collision"
	"github.com/gekko3d/physics2d/core"
)

// Querier yields candidate bodies for a region. *quadtree.Tree and *World
// both satisfy it.
type Querier interface {
	Query(box core.AABB) []*core.Body
}

type RayHit struct {
	Body     *core.Body
	Point    mgl64.Vec2
	Distance float64
}

// rayLimits accept any ray size; a ray is never a simulated body.
var rayLimits = core.Limits{
	MinArea:    math.SmallestNonzeroFloat64,
	MaxArea:    math.Inf(1),
	MinDensity: 1,
	MaxDensity: 1,
}

// Raycast sweeps a width-wide strip from start to end against the bodies
// index returns and reports every hit, nearest first.
func Raycast(index Querier, start, end mgl64.Vec2, width float64) ([]RayHit, bool) {
	dir := end.Sub(start)
	length := dir.Len()
	if length == 0 || !(width > 0) {
		return nil, false
	}

	ray, err := rayLimits.CreateBoxBody(width, length, start.Add(dir.Mul(0.5)), 1, true, 0, 0, 0)
	if err != nil {
		return nil, false
	}
	// The box is built along local +Y.
	ray.Rotate(math.Atan2(dir.Y(), dir.X()) - math.Pi/2)
	box := ray.GetAABB()

	var hits []RayHit
	for _, candidate := range index.Query(box) {
		if !box.Overlaps(candidate.GetAABB()) {
			continue
		}
		if _, _, ok := collision.Collide(ray, candidate, collision.CompoundSum); !ok {
			continue
		}
		c1, c2, n := collision.FindContacts(ray, candidate)
		if n == 0 {
			continue
		}
		point := c1
		if n == 2 && c2.Sub(start).LenSqr() < c1.Sub(start).LenSqr() {
			point = c2
		}
		hits = append(hits, RayHit{Body: candidate, Point: point, Distance: point.Sub(start).Len()})
	}

	slices.SortFunc(hits, func(a, b RayHit) int { return cmp.Compare(a.Distance, b.Distance) })
	return hits, len(hits) > 0
}
