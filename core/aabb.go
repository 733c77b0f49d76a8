package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box. Min is component-wise <= Max.
type AABB struct {
	Min mgl64.Vec2 `yaml:"min"`
	Max mgl64.Vec2 `yaml:"max"`
}

func NewAABB(minX, minY, maxX, maxY float64) AABB {
	return AABB{
		Min: mgl64.Vec2{math.Min(minX, maxX), math.Min(minY, maxY)},
		Max: mgl64.Vec2{math.Max(minX, maxX), math.Max(minY, maxY)},
	}
}

// BoundingAABB returns the tightest box around points. It panics on an empty set.
func BoundingAABB(points ...mgl64.Vec2) AABB {
	if len(points) == 0 {
		panic("core: bounding box of an empty point set")
	}
	out := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		out = out.Extend(p)
	}
	return out
}

func (a AABB) Width() float64  { return a.Max.X() - a.Min.X() }
func (a AABB) Height() float64 { return a.Max.Y() - a.Min.Y() }
func (a AABB) Area() float64   { return a.Width() * a.Height() }

func (a AABB) Center() mgl64.Vec2 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Valid reports whether the min/max ordering invariant holds.
func (a AABB) Valid() bool {
	return a.Min.X() <= a.Max.X() && a.Min.Y() <= a.Max.Y()
}

// Overlaps is the strict test used by the broad phase: boxes that only touch
// along an edge do not overlap.
func (a AABB) Overlaps(b AABB) bool {
	if a.Max.X() <= b.Min.X() || b.Max.X() <= a.Min.X() ||
		a.Max.Y() <= b.Min.Y() || b.Max.Y() <= a.Min.Y() {
		return false
	}
	return true
}

// Intersects is the closed test used for spatial index placement, so that a
// box lying exactly on a node boundary is placed on both sides.
func (a AABB) Intersects(b AABB) bool {
	return a.Min.X() <= b.Max.X() && b.Min.X() <= a.Max.X() &&
		a.Min.Y() <= b.Max.Y() && b.Min.Y() <= a.Max.Y()
}

func (a AABB) Contains(b AABB) bool {
	return a.Min.X() <= b.Min.X() && a.Min.Y() <= b.Min.Y() &&
		a.Max.X() >= b.Max.X() && a.Max.Y() >= b.Max.Y()
}

func (a AABB) ContainsPoint(p mgl64.Vec2) bool {
	return p.X() >= a.Min.X() && p.X() <= a.Max.X() &&
		p.Y() >= a.Min.Y() && p.Y() <= a.Max.Y()
}

func (a AABB) Extend(p mgl64.Vec2) AABB {
	return AABB{
		Min: mgl64.Vec2{math.Min(a.Min.X(), p.X()), math.Min(a.Min.Y(), p.Y())},
		Max: mgl64.Vec2{math.Max(a.Max.X(), p.X()), math.Max(a.Max.Y(), p.Y())},
	}
}

func (a AABB) Union(b AABB) AABB {
	return a.Extend(b.Min).Extend(b.Max)
}

// ApproxEqual compares both corners within eps.
func (a AABB) ApproxEqual(b AABB, eps float64) bool {
	return a.Min.ApproxEqualThreshold(b.Min, eps) && a.Max.ApproxEqualThreshold(b.Max, eps)
}

// Quadrants splits the box into four equal quarters: lower-left, lower-right,
// upper-right, upper-left. The outer edges reuse the parent's corners so the
// union of the quarters is exactly the parent.
func (a AABB) Quadrants() [4]AABB {
	mid := a.Center()
	return [4]AABB{
		{Min: a.Min, Max: mid},
		{Min: mgl64.Vec2{mid.X(), a.Min.Y()}, Max: mgl64.Vec2{a.Max.X(), mid.Y()}},
		{Min: mid, Max: a.Max},
		{Min: mgl64.Vec2{a.Min.X(), mid.Y()}, Max: mgl64.Vec2{mid.X(), a.Max.Y()}},
	}
}
