package core

import (
	"cmp"
	"errors"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// DegenerateEpsilon is the smallest edge length and part area accepted for
// polygon geometry.
const DegenerateEpsilon = 1e-9

var ErrDegeneratePolygon = errors.New("core: degenerate polygon")

func cross(a, b mgl64.Vec2) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// SignedArea is positive for counter-clockwise rings.
func SignedArea(vertices []mgl64.Vec2) float64 {
	var sum float64
	for i, a := range vertices {
		b := vertices[(i+1)%len(vertices)]
		sum += cross(a, b)
	}
	return sum / 2
}

func PolygonArea(vertices []mgl64.Vec2) float64 {
	a := SignedArea(vertices)
	if a < 0 {
		return -a
	}
	return a
}

// secondMoment is the polar second moment of area about the origin, signed
// like SignedArea.
func secondMoment(vertices []mgl64.Vec2) float64 {
	var sum float64
	for i, a := range vertices {
		b := vertices[(i+1)%len(vertices)]
		sum += cross(a, b) * (a.Dot(a) + a.Dot(b) + b.Dot(b))
	}
	return sum / 12
}

func ArithmeticMean(vertices []mgl64.Vec2) mgl64.Vec2 {
	var sum mgl64.Vec2
	for _, v := range vertices {
		sum = sum.Add(v)
	}
	return sum.Mul(1 / float64(len(vertices)))
}

// IsConvex accepts either winding; collinear vertices are tolerated.
func IsConvex(vertices []mgl64.Vec2) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		c := vertices[(i+2)%n]
		z := cross(b.Sub(a), c.Sub(b))
		if z > DegenerateEpsilon {
			if sign < 0 {
				return false
			}
			sign = 1
		} else if z < -DegenerateEpsilon {
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return sign != 0
}

// ConvexHull returns the counter-clockwise hull of points using the monotone
// chain. Collinear points on the hull are dropped.
func ConvexHull(points []mgl64.Vec2) []mgl64.Vec2 {
	pts := append([]mgl64.Vec2(nil), points...)
	slices.SortFunc(pts, func(a, b mgl64.Vec2) int {
		if c := cmp.Compare(a.X(), b.X()); c != 0 {
			return c
		}
		return cmp.Compare(a.Y(), b.Y())
	})
	if len(pts) < 3 {
		return pts
	}

	hull := make([]mgl64.Vec2, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-1].Sub(hull[len(hull)-2]), p.Sub(hull[len(hull)-1])) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-1].Sub(hull[len(hull)-2]), p.Sub(hull[len(hull)-1])) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func pointInTriangle(p, a, b, c mgl64.Vec2) bool {
	c1 := cross(b.Sub(a), p.Sub(a))
	c2 := cross(c.Sub(b), p.Sub(b))
	c3 := cross(a.Sub(c), p.Sub(c))
	return c1 > 0 && c2 > 0 && c3 > 0
}

// Triangulate splits a simple polygon into triangles by ear clipping and
// returns vertex index triples in counter-clockwise order.
func Triangulate(vertices []mgl64.Vec2) ([][3]int, error) {
	n := len(vertices)
	if n < 3 {
		return nil, ErrDegeneratePolygon
	}
	area := SignedArea(vertices)
	if area > -DegenerateEpsilon && area < DegenerateEpsilon {
		return nil, ErrDegeneratePolygon
	}

	indices := make([]int, n)
	for i := range indices {
		if area > 0 {
			indices[i] = i
		} else {
			indices[i] = n - 1 - i
		}
	}

	triangles := make([][3]int, 0, n-2)
	for len(indices) > 3 {
		clipped := false
		for i := range indices {
			ia := indices[(i+len(indices)-1)%len(indices)]
			ib := indices[i]
			ic := indices[(i+1)%len(indices)]
			a, b, c := vertices[ia], vertices[ib], vertices[ic]

			if cross(b.Sub(a), c.Sub(b)) <= 0 {
				continue
			}
			ear := true
			for _, j := range indices {
				if j == ia || j == ib || j == ic {
					continue
				}
				if pointInTriangle(vertices[j], a, b, c) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			triangles = append(triangles, [3]int{ia, ib, ic})
			indices = append(indices[:i], indices[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, ErrDegeneratePolygon
		}
	}
	triangles = append(triangles, [3]int{indices[0], indices[1], indices[2]})
	return triangles, nil
}

// ConvexParts triangulates vertices into parts suitable for CreatePolygonBody.
// Convex input is returned as a single part.
func ConvexParts(vertices []mgl64.Vec2) ([][]mgl64.Vec2, error) {
	if IsConvex(vertices) {
		return [][]mgl64.Vec2{append([]mgl64.Vec2(nil), vertices...)}, nil
	}
	tris, err := Triangulate(vertices)
	if err != nil {
		return nil, err
	}
	parts := make([][]mgl64.Vec2, len(tris))
	for i, t := range tris {
		parts[i] = []mgl64.Vec2{vertices[t[0]], vertices[t[1]], vertices[t[2]]}
	}
	return parts, nil
}
