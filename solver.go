package physics2d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/physics2d/collision"
	"github.com/gekko3d/physics2d/core"
)

// tangentEpsilon is the tangential speed below which friction is skipped.
const tangentEpsilon = 0.0005

// separate pushes the pair apart along the manifold normal. A static body
// takes none of the correction; two dynamic bodies split it evenly.
func separate(m collision.Manifold) {
	a, b := m.BodyA, m.BodyB
	mtv := m.Normal.Mul(m.Depth)
	switch {
	case a.IsStatic() && b.IsStatic():
	case a.IsStatic():
		b.Move(mtv)
	case b.IsStatic():
		a.Move(mtv.Mul(-1))
	default:
		a.Move(mtv.Mul(-0.5))
		b.Move(mtv.Mul(0.5))
	}
}

func resolve(m collision.Manifold, res Resolution) {
	switch res {
	case Basic:
		resolveBasic(m)
	case Rotation:
		resolveWithRotation(m, false)
	case Friction:
		resolveWithRotation(m, true)
	}
}

func resolveBasic(m collision.Manifold) {
	a, b := m.BodyA, m.BodyB
	invMass := a.InvMass() + b.InvMass()
	if invMass == 0 {
		return
	}
	vn := b.LinearVelocity().Sub(a.LinearVelocity()).Dot(m.Normal)
	if vn > 0 {
		return
	}
	e := math.Min(a.Restitution(), b.Restitution())
	j := -(1 + e) * vn / invMass
	impulse := m.Normal.Mul(j)
	a.SetLinearVelocity(a.LinearVelocity().Sub(impulse.Mul(a.InvMass())))
	b.SetLinearVelocity(b.LinearVelocity().Add(impulse.Mul(b.InvMass())))
}

// contactArms holds the lever arms of each contact point for one manifold.
type contactArms struct {
	ra, rb [2]mgl64.Vec2
	count  int
}

func armsOf(m collision.Manifold) contactArms {
	points, n := m.Contacts()
	arms := contactArms{count: n}
	for i := 0; i < n; i++ {
		arms.ra[i] = points[i].Sub(m.BodyA.Position())
		arms.rb[i] = points[i].Sub(m.BodyB.Position())
	}
	return arms
}

func perp(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-v.Y(), v.X()}
}

func cross(a, b mgl64.Vec2) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// relativeVelocity is the velocity of B's contact point seen from A's.
func relativeVelocity(a, b *core.Body, ra, rb mgl64.Vec2) mgl64.Vec2 {
	va := a.LinearVelocity().Add(perp(ra).Mul(a.AngularVelocity()))
	vb := b.LinearVelocity().Add(perp(rb).Mul(b.AngularVelocity()))
	return vb.Sub(va)
}

// effectiveMass is the inverse-mass denominator of an impulse along axis.
func effectiveMass(a, b *core.Body, ra, rb, axis mgl64.Vec2) float64 {
	raN := perp(ra).Dot(axis)
	rbN := perp(rb).Dot(axis)
	return a.InvMass() + b.InvMass() + raN*raN*a.InvInertia() + rbN*rbN*b.InvInertia()
}

func applyImpulses(a, b *core.Body, arms contactArms, impulses [2]mgl64.Vec2) {
	for i := 0; i < arms.count; i++ {
		impulse := impulses[i]
		a.SetLinearVelocity(a.LinearVelocity().Sub(impulse.Mul(a.InvMass())))
		a.SetAngularVelocity(a.AngularVelocity() - cross(arms.ra[i], impulse)*a.InvInertia())
		b.SetLinearVelocity(b.LinearVelocity().Add(impulse.Mul(b.InvMass())))
		b.SetAngularVelocity(b.AngularVelocity() + cross(arms.rb[i], impulse)*b.InvInertia())
	}
}

// resolveWithRotation applies per-contact normal impulses with torque and,
// when friction is set, a second tangential pass using the updated velocities.
func resolveWithRotation(m collision.Manifold, friction bool) {
	a, b := m.BodyA, m.BodyB
	arms := armsOf(m)
	if arms.count == 0 {
		return
	}
	e := math.Min(a.Restitution(), b.Restitution())
	share := float64(arms.count)

	var impulses [2]mgl64.Vec2
	var js [2]float64
	for i := 0; i < arms.count; i++ {
		rel := relativeVelocity(a, b, arms.ra[i], arms.rb[i])
		vn := rel.Dot(m.Normal)
		if vn > 0 {
			continue
		}
		denom := effectiveMass(a, b, arms.ra[i], arms.rb[i], m.Normal)
		if denom == 0 {
			continue
		}
		js[i] = -(1 + e) * vn / denom / share
		impulses[i] = m.Normal.Mul(js[i])
	}
	applyImpulses(a, b, arms, impulses)

	if !friction {
		return
	}

	sf := (a.StaticFriction() + b.StaticFriction()) / 2
	df := (a.DynamicFriction() + b.DynamicFriction()) / 2
	var frictions [2]mgl64.Vec2
	for i := 0; i < arms.count; i++ {
		rel := relativeVelocity(a, b, arms.ra[i], arms.rb[i])
		tangent := rel.Sub(m.Normal.Mul(rel.Dot(m.Normal)))
		if tangent.Len() < tangentEpsilon {
			continue
		}
		tangent = tangent.Normalize()
		denom := effectiveMass(a, b, arms.ra[i], arms.rb[i], tangent)
		if denom == 0 {
			continue
		}
		jt := -rel.Dot(tangent) / denom / share
		frictions[i] = frictionImpulse(jt, js[i], sf, df, tangent)
	}
	applyImpulses(a, b, arms, frictions)
}

// frictionImpulse clamps a tangential impulse to the Coulomb cone of the
// normal impulse j: static friction holds while |jt| <= j*sf, past that the
// impulse is the kinetic one, -j*df along the tangent.
func frictionImpulse(jt, j, staticFriction, dynamicFriction float64, tangent mgl64.Vec2) mgl64.Vec2 {
	if math.Abs(jt) <= j*staticFriction {
		return tangent.Mul(jt)
	}
	return tangent.Mul(-j * dynamicFriction)
}
