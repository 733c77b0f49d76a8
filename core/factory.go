package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Limits bounds the area and density accepted by the body factories.
type Limits struct {
	MinArea    float64 `yaml:"min_area"`
	MaxArea    float64 `yaml:"max_area"`
	MinDensity float64 `yaml:"min_density"`
	MaxDensity float64 `yaml:"max_density"`
}

var DefaultLimits = Limits{
	MinArea:    0.01 * 0.01,
	MaxArea:    640 * 640,
	MinDensity: 0.5,
	MaxDensity: 21.4,
}

// ValidationError describes a body definition rejected at creation time.
type ValidationError struct {
	Field  string
	Value  float64
	Min    float64
	Max    float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (l Limits) validate(area, density float64) error {
	switch {
	case !(area >= l.MinArea):
		return &ValidationError{Field: "area", Value: area, Min: l.MinArea, Max: l.MaxArea,
			Reason: fmt.Sprintf("area %g is too small, the min area is %g", area, l.MinArea)}
	case area > l.MaxArea:
		return &ValidationError{Field: "area", Value: area, Min: l.MinArea, Max: l.MaxArea,
			Reason: fmt.Sprintf("area %g is too large, the max area is %g", area, l.MaxArea)}
	case !(density >= l.MinDensity):
		return &ValidationError{Field: "density", Value: density, Min: l.MinDensity, Max: l.MaxDensity,
			Reason: fmt.Sprintf("density %g is too small, the min density is %g", density, l.MinDensity)}
	case density > l.MaxDensity:
		return &ValidationError{Field: "density", Value: density, Min: l.MinDensity, Max: l.MaxDensity,
			Reason: fmt.Sprintf("density %g is too large, the max density is %g", density, l.MaxDensity)}
	}
	return nil
}

// Validate checks the limits themselves.
func (l Limits) Validate() error {
	if !(l.MinArea > 0) || l.MaxArea < l.MinArea {
		return fmt.Errorf("area limits [%g, %g] are not a positive range", l.MinArea, l.MaxArea)
	}
	if !(l.MinDensity > 0) || l.MaxDensity < l.MinDensity {
		return fmt.Errorf("density limits [%g, %g] are not a positive range", l.MinDensity, l.MaxDensity)
	}
	return nil
}

func positive(field string, v float64) error {
	if v > 0 && !math.IsInf(v, 1) {
		return nil
	}
	return &ValidationError{Field: field, Value: v, Min: 0, Max: math.Inf(1),
		Reason: fmt.Sprintf("%s must be positive and finite, got %g", field, v)}
}

func (l Limits) CreateCircleBody(radius float64, position mgl64.Vec2, density float64, isStatic bool,
	restitution, staticFriction, dynamicFriction float64) (*Body, error) {

	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	area := radius * radius * math.Pi
	if err := l.validate(area, density); err != nil {
		return nil, err
	}
	mass := area * density
	inertia := 0.5 * mass * radius * radius
	return newBody(ShapeCircle, position, density, area, mass, inertia, isStatic,
		restitution, staticFriction, dynamicFriction, radius, nil), nil
}

func (l Limits) CreateBoxBody(width, height float64, position mgl64.Vec2, density float64, isStatic bool,
	restitution, staticFriction, dynamicFriction float64) (*Body, error) {

	if err := positive("width", width); err != nil {
		return nil, err
	}
	if err := positive("height", height); err != nil {
		return nil, err
	}
	area := width * height
	if err := l.validate(area, density); err != nil {
		return nil, err
	}
	mass := area * density
	inertia := mass * (width*width + height*height) / 12
	parts := [][]mgl64.Vec2{BoxVertices(width, height)}
	return newBody(ShapePolygon, position, density, area, mass, inertia, isStatic,
		restitution, staticFriction, dynamicFriction, 0, parts), nil
}

// CreatePolygonBody builds a body from one or more convex vertex rings given
// in body-local space. area is taken as given and drives the mass; the
// vertices only shape the inertia distribution.
func (l Limits) CreatePolygonBody(parts [][]mgl64.Vec2, area float64, position mgl64.Vec2, density float64, isStatic bool,
	restitution, staticFriction, dynamicFriction float64) (*Body, error) {

	if len(parts) == 0 {
		return nil, &ValidationError{Field: "parts", Reason: "at least one convex part is required"}
	}
	owned := make([][]mgl64.Vec2, len(parts))
	for i, p := range parts {
		if err := validatePart(i, p); err != nil {
			return nil, err
		}
		owned[i] = append([]mgl64.Vec2(nil), p...)
	}
	if err := l.validate(area, density); err != nil {
		return nil, err
	}

	mass := area * density
	var geomArea, geomSecond float64
	for _, p := range owned {
		geomArea += math.Abs(SignedArea(p))
		geomSecond += math.Abs(secondMoment(p))
	}
	inertia := mass * geomSecond / geomArea

	kind := ShapePolygon
	if len(owned) > 1 {
		kind = ShapeCompound
	}
	return newBody(kind, position, density, area, mass, inertia, isStatic,
		restitution, staticFriction, dynamicFriction, 0, owned), nil
}

func validatePart(index int, part []mgl64.Vec2) error {
	field := fmt.Sprintf("parts[%d]", index)
	if len(part) < 3 {
		return &ValidationError{Field: field, Value: float64(len(part)),
			Reason: fmt.Sprintf("a convex part needs at least 3 vertices, got %d", len(part))}
	}
	for i := range part {
		edge := part[(i+1)%len(part)].Sub(part[i])
		if edge.LenSqr() < DegenerateEpsilon*DegenerateEpsilon {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("edge %d has zero length", i)}
		}
	}
	if a := math.Abs(SignedArea(part)); a < DegenerateEpsilon {
		return &ValidationError{Field: field, Value: a, Reason: "part has zero area"}
	}
	if !IsConvex(part) {
		return &ValidationError{Field: field, Reason: "part is not convex"}
	}
	return nil
}

// BoxVertices returns the four corners of a width x height box centred on the origin.
func BoxVertices(width, height float64) []mgl64.Vec2 {
	left := -width / 2
	right := left + width
	bottom := -height / 2
	top := bottom + height
	return []mgl64.Vec2{
		{left, top},
		{right, top},
		{right, bottom},
		{left, bottom},
	}
}

func CreateCircleBody(radius float64, position mgl64.Vec2, density float64, isStatic bool,
	restitution, staticFriction, dynamicFriction float64) (*Body, error) {
	return DefaultLimits.CreateCircleBody(radius, position, density, isStatic, restitution, staticFriction, dynamicFriction)
}

func CreateBoxBody(width, height float64, position mgl64.Vec2, density float64, isStatic bool,
	restitution, staticFriction, dynamicFriction float64) (*Body, error) {
	return DefaultLimits.CreateBoxBody(width, height, position, density, isStatic, restitution, staticFriction, dynamicFriction)
}

func CreatePolygonBody(parts [][]mgl64.Vec2, area float64, position mgl64.Vec2, density float64, isStatic bool,
	restitution, staticFriction, dynamicFriction float64) (*Body, error) {
	return DefaultLimits.CreatePolygonBody(parts, area, position, density, isStatic, restitution, staticFriction, dynamicFriction)
}
