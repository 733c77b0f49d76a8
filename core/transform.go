package core

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform places a body's local geometry in the world. Dirty is raised by
// every mutation and cleared by whoever rebuilds the derived caches.
type Transform struct {
	Position mgl64.Vec2
	Rotation float64 // radians, counter-clockwise
	Dirty    bool
}

func NewTransform(position mgl64.Vec2, rotation float64) Transform {
	return Transform{
		Position: position,
		Rotation: rotation,
		Dirty:    true,
	}
}

func (t *Transform) Translate(delta mgl64.Vec2) {
	t.Position = t.Position.Add(delta)
	t.Dirty = true
}

func (t *Transform) SetPosition(p mgl64.Vec2) {
	t.Position = p
	t.Dirty = true
}

func (t *Transform) Rotate(angle float64) {
	t.Rotation += angle
	t.Dirty = true
}

// ObjectToWorld returns M = T * R.
func (t Transform) ObjectToWorld() mgl64.Mat3 {
	translate := mgl64.Translate2D(t.Position.X(), t.Position.Y())
	rotate := mgl64.HomogRotate2D(t.Rotation)
	return translate.Mul3(rotate)
}

// WorldToObject returns inv(M) = inv(R) * inv(T).
func (t Transform) WorldToObject() mgl64.Mat3 {
	invRotate := mgl64.HomogRotate2D(-t.Rotation)
	invTranslate := mgl64.Translate2D(-t.Position.X(), -t.Position.Y())
	return invRotate.Mul3(invTranslate)
}

func (t Transform) Apply(v mgl64.Vec2) mgl64.Vec2 {
	return t.ObjectToWorld().Mul3x1(v.Vec3(1)).Vec2()
}

// ApplyAll transforms src into dst, which must be at least as long as src.
func (t Transform) ApplyAll(dst, src []mgl64.Vec2) {
	m := t.ObjectToWorld()
	for i, v := range src {
		dst[i] = m.Mul3x1(v.Vec3(1)).Vec2()
	}
}
