package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapePolygon
	ShapeCompound
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "circle"
	case ShapePolygon:
		return "polygon"
	case ShapeCompound:
		return "compound"
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

// IndexEpsilon is how far an AABB corner may drift before the body asks its
// tracker to re-place it in the spatial index.
const IndexEpsilon = 0.0005

// Tracker is notified when a body's bounds have moved away from the bounds it
// was last indexed with.
type Tracker interface {
	BodyMoved(b *Body)
}

// Body is a rigid body. Its motion state is mutated by the simulation
// goroutine only; other goroutines read it between steps.
type Body struct {
	id    uuid.UUID
	shape ShapeKind

	transform       Transform
	linearVelocity  mgl64.Vec2
	angularVelocity float64
	force           mgl64.Vec2

	density         float64
	area            float64
	mass            float64
	invMass         float64
	inertia         float64
	invInertia      float64
	restitution     float64
	staticFriction  float64
	dynamicFriction float64

	static         bool
	trigger        bool
	freezeRotation bool
	freezeVelocity bool

	radius      float64
	parts       [][]mgl64.Vec2
	transformed [][]mgl64.Vec2

	aabb      AABB
	aabbDirty bool

	indexed    AABB
	hasIndexed bool
	tracker    Tracker

	// UserData is carried for the owner and never read by the engine.
	UserData any
}

func newBody(kind ShapeKind, position mgl64.Vec2, density, area, mass, inertia float64, isStatic bool,
	restitution, staticFriction, dynamicFriction float64, radius float64, parts [][]mgl64.Vec2) *Body {

	b := &Body{
		id:              uuid.New(),
		shape:           kind,
		transform:       NewTransform(position, 0),
		density:         density,
		area:            area,
		mass:            mass,
		inertia:         inertia,
		restitution:     mgl64.Clamp(restitution, 0, 1),
		staticFriction:  math.Max(staticFriction, 0),
		dynamicFriction: math.Max(dynamicFriction, 0),
		static:          isStatic,
		radius:          radius,
		parts:           parts,
		aabbDirty:       true,
	}
	b.transformed = make([][]mgl64.Vec2, len(parts))
	for i, p := range parts {
		b.transformed[i] = make([]mgl64.Vec2, len(p))
	}
	b.refreshInverseMass()
	return b
}

func (b *Body) refreshInverseMass() {
	b.invMass, b.invInertia = 0, 0
	if b.static {
		return
	}
	if b.mass > 0 {
		b.invMass = 1 / b.mass
	}
	if b.inertia > 0 && !b.freezeRotation {
		b.invInertia = 1 / b.inertia
	}
}

func (b *Body) ID() uuid.UUID        { return b.id }
func (b *Body) Shape() ShapeKind     { return b.shape }
func (b *Body) Transform() Transform { return b.transform }

func (b *Body) Position() mgl64.Vec2           { return b.transform.Position }
func (b *Body) Rotation() float64              { return b.transform.Rotation }
func (b *Body) LinearVelocity() mgl64.Vec2     { return b.linearVelocity }
func (b *Body) AngularVelocity() float64       { return b.angularVelocity }
func (b *Body) Force() mgl64.Vec2              { return b.force }
func (b *Body) SetLinearVelocity(v mgl64.Vec2) { b.linearVelocity = v }
func (b *Body) SetAngularVelocity(w float64)   { b.angularVelocity = w }

func (b *Body) Density() float64         { return b.density }
func (b *Body) Area() float64            { return b.area }
func (b *Body) Mass() float64            { return b.mass }
func (b *Body) InvMass() float64         { return b.invMass }
func (b *Body) Inertia() float64         { return b.inertia }
func (b *Body) InvInertia() float64      { return b.invInertia }
func (b *Body) Restitution() float64     { return b.restitution }
func (b *Body) StaticFriction() float64  { return b.staticFriction }
func (b *Body) DynamicFriction() float64 { return b.dynamicFriction }
func (b *Body) Radius() float64          { return b.radius }

func (b *Body) IsStatic() bool                { return b.static }
func (b *Body) IsTrigger() bool               { return b.trigger }
func (b *Body) RotationFrozen() bool          { return b.freezeRotation }
func (b *Body) VelocityFrozen() bool          { return b.freezeVelocity }
func (b *Body) SetTrigger(trigger bool)       { b.trigger = trigger }
func (b *Body) SetFreezeVelocity(frozen bool) { b.freezeVelocity = frozen }

// SetFreezeRotation stops the body from spinning. A frozen body reports zero
// inverse inertia so the solver spends no impulse on torque.
func (b *Body) SetFreezeRotation(frozen bool) {
	b.freezeRotation = frozen
	if frozen {
		b.angularVelocity = 0
	}
	b.refreshInverseMass()
}

// Parts returns the local-space convex vertex rings. Callers must not modify them.
func (b *Body) Parts() [][]mgl64.Vec2 { return b.parts }

func (b *Body) invalidate() {
	b.transform.Dirty = true
	b.aabbDirty = true
}

func (b *Body) Move(delta mgl64.Vec2) {
	b.transform.Translate(delta)
	b.invalidate()
}

func (b *Body) MoveTo(position mgl64.Vec2) {
	b.transform.SetPosition(position)
	b.invalidate()
}

func (b *Body) Rotate(angle float64) {
	b.transform.Rotate(angle)
	b.invalidate()
}

func (b *Body) AddForce(force mgl64.Vec2) {
	b.force = b.force.Add(force)
}

// GetTransformedVertices returns the world-space vertices of every convex
// part. The arrays are rebuilt only after a transform mutation; otherwise the
// cached arrays are returned as is.
func (b *Body) GetTransformedVertices() [][]mgl64.Vec2 {
	if b.transform.Dirty {
		for i, p := range b.parts {
			b.transform.ApplyAll(b.transformed[i], p)
		}
		b.transform.Dirty = false
	}
	return b.transformed
}

func (b *Body) GetAABB() AABB {
	if b.aabbDirty {
		b.UpdateAABB()
	}
	return b.aabb
}

func (b *Body) UpdateAABB() {
	switch b.shape {
	case ShapeCircle:
		r := mgl64.Vec2{b.radius, b.radius}
		p := b.transform.Position
		b.aabb = AABB{Min: p.Sub(r), Max: p.Add(r)}
	case ShapePolygon, ShapeCompound:
		var box AABB
		first := true
		for _, part := range b.GetTransformedVertices() {
			for _, v := range part {
				if first {
					box = AABB{Min: v, Max: v}
					first = false
					continue
				}
				box = box.Extend(v)
			}
		}
		b.aabb = box
	default:
		panic(fmt.Sprintf("core: unknown shape kind %v on body %s", b.shape, b.id))
	}
	b.aabbDirty = false
}

// Attach sets the tracker notified by Step. Passing nil detaches the body.
func (b *Body) Attach(t Tracker) {
	b.tracker = t
}

// MarkIndexed records the bounds the spatial index placed the body with.
func (b *Body) MarkIndexed(box AABB) {
	b.indexed = box
	b.hasIndexed = true
}

// IndexedAABB returns the bounds recorded by MarkIndexed.
func (b *Body) IndexedAABB() (AABB, bool) {
	return b.indexed, b.hasIndexed
}

func (b *Body) ClearIndexed() {
	b.indexed = AABB{}
	b.hasIndexed = false
}

// IndexStale reports whether the current bounds differ from the indexed ones.
func (b *Body) IndexStale() bool {
	if !b.hasIndexed {
		return true
	}
	return !b.GetAABB().ApproxEqual(b.indexed, IndexEpsilon)
}

// Step integrates the body with semi-implicit Euler over substeps equal
// slices of dt. Static bodies and triggers never integrate, but bounds moved
// by hand are still reported to the tracker.
func (b *Body) Step(dt float64, substeps int) {
	if b.static || b.trigger {
		b.linearVelocity = mgl64.Vec2{}
		b.angularVelocity = 0
		b.force = mgl64.Vec2{}
		b.reindex()
		return
	}
	if substeps < 1 {
		substeps = 1
	}
	h := dt / float64(substeps)

	for i := 0; i < substeps; i++ {
		if b.freezeRotation {
			b.angularVelocity = 0
		}
		acceleration := b.force.Mul(1 / b.mass)
		if b.freezeVelocity {
			b.linearVelocity = mgl64.Vec2{}
		} else {
			b.linearVelocity = b.linearVelocity.Add(acceleration.Mul(h))
		}
		b.Move(b.linearVelocity.Mul(h))
		b.Rotate(b.angularVelocity * h)
		b.force = mgl64.Vec2{}
	}
	b.reindex()
}

// reindex tells the tracker about bounds that moved since the last indexing,
// whether by integration or by Move, MoveTo and Rotate.
func (b *Body) reindex() {
	if b.tracker != nil && b.IndexStale() {
		b.tracker.BodyMoved(b)
	}
}
