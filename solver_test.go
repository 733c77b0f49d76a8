package physics2d

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/physics2d/collision"
	"github.com/gekko3d/physics2d/core"
)

func newCircle(t *testing.T, r float64, pos mgl64.Vec2, restitution float64) *core.Body {
	t.Helper()
	b, err := core.CreateCircleBody(r, pos, 1, false, restitution, 0.5, 0.3)
	require.NoError(t, err)
	return b
}

func newBox(t *testing.T, w, h float64, pos mgl64.Vec2, static bool, restitution float64) *core.Body {
	t.Helper()
	b, err := core.CreateBoxBody(w, h, pos, 1, static, restitution, 0.5, 0.3)
	require.NoError(t, err)
	return b
}

func manifold(t *testing.T, a, b *core.Body) collision.Manifold {
	t.Helper()
	m, ok := collision.NewManifold(a, b, collision.CompoundSum)
	require.True(t, ok, "bodies must overlap")
	return m
}

func TestFrictionImpulseClamp(t *testing.T) {
	tangent := mgl64.Vec2{1, 0}

	// |jt| > j*sf: the kinetic impulse replaces jt.
	got := frictionImpulse(5, 2, 0.5, 0.3, tangent)
	assert.InDelta(t, -2*0.3, got.X(), 1e-12)
	assert.InDelta(t, 0, got.Y(), 1e-12)

	// Inside the cone jt is applied unchanged.
	got = frictionImpulse(-0.5, 2, 0.5, 0.3, tangent)
	assert.InDelta(t, -0.5, got.X(), 1e-12)
}

func TestSeparate(t *testing.T) {
	t.Run("dynamic pair splits", func(t *testing.T) {
		a := newCircle(t, 1, mgl64.Vec2{0, 0}, 0)
		b := newCircle(t, 1, mgl64.Vec2{1.5, 0}, 0)
		separate(manifold(t, a, b))
		assert.InDelta(t, -0.25, a.Position().X(), 1e-9)
		assert.InDelta(t, 1.75, b.Position().X(), 1e-9)
	})

	t.Run("static absorbs nothing", func(t *testing.T) {
		ground := newBox(t, 2, 2, mgl64.Vec2{0, 0}, true, 0)
		b := newCircle(t, 1, mgl64.Vec2{0, 1.5}, 0)
		separate(manifold(t, ground, b))
		assert.Equal(t, mgl64.Vec2{0, 0}, ground.Position())
		assert.InDelta(t, 2, b.Position().Y(), 1e-6)

		c := newCircle(t, 1, mgl64.Vec2{0, -1.5}, 0)
		separate(manifold(t, c, ground))
		assert.Equal(t, mgl64.Vec2{0, 0}, ground.Position())
		assert.InDelta(t, -2, c.Position().Y(), 1e-6)
	})
}

func TestResolveBasicElasticSwap(t *testing.T) {
	a := newCircle(t, 1, mgl64.Vec2{0, 0}, 1)
	b := newCircle(t, 1, mgl64.Vec2{1.5, 0}, 1)
	a.SetLinearVelocity(mgl64.Vec2{1, 0})
	b.SetLinearVelocity(mgl64.Vec2{-1, 0})

	resolveBasic(manifold(t, a, b))

	assert.InDelta(t, -1, a.LinearVelocity().X(), 1e-9)
	assert.InDelta(t, 1, b.LinearVelocity().X(), 1e-9)
}

func TestResolveSkipsSeparatingPair(t *testing.T) {
	a := newCircle(t, 1, mgl64.Vec2{0, 0}, 1)
	b := newCircle(t, 1, mgl64.Vec2{1.5, 0}, 1)
	a.SetLinearVelocity(mgl64.Vec2{-1, 0})
	b.SetLinearVelocity(mgl64.Vec2{1, 0})
	m := manifold(t, a, b)

	resolveBasic(m)
	resolveWithRotation(m, true)

	assert.Equal(t, mgl64.Vec2{-1, 0}, a.LinearVelocity())
	assert.Equal(t, mgl64.Vec2{1, 0}, b.LinearVelocity())
}

func TestResolveWithRotationHeadOn(t *testing.T) {
	a := newCircle(t, 1, mgl64.Vec2{0, 0}, 0.5)
	b := newCircle(t, 1, mgl64.Vec2{1.5, 0}, 0.5)
	a.SetLinearVelocity(mgl64.Vec2{1, 0})
	b.SetLinearVelocity(mgl64.Vec2{-1, 0})

	resolveWithRotation(manifold(t, a, b), false)

	// Lever arms are parallel to the normal: no torque.
	assert.InDelta(t, -0.5, a.LinearVelocity().X(), 1e-9)
	assert.InDelta(t, 0.5, b.LinearVelocity().X(), 1e-9)
	assert.InDelta(t, 0, a.AngularVelocity(), 1e-12)
	assert.InDelta(t, 0, b.AngularVelocity(), 1e-12)
}

func TestFrictionSlowsSlidingBox(t *testing.T) {
	setup := func() collision.Manifold {
		ground := newBox(t, 10, 1, mgl64.Vec2{0, 0}, true, 0)
		b := newBox(t, 1, 1, mgl64.Vec2{0, 0.9}, false, 0)
		b.SetLinearVelocity(mgl64.Vec2{4, -1})
		m := manifold(t, ground, b)
		require.Equal(t, 2, m.ContactCount)
		return m
	}

	m := setup()
	resolveWithRotation(m, false)
	assert.InDelta(t, 4, m.BodyB.LinearVelocity().X(), 1e-9)
	assert.InDelta(t, -0.6, m.BodyB.LinearVelocity().Y(), 1e-9)

	// Each contact exceeds the static cone, so each removes j*df = 0.2*0.3.
	m = setup()
	resolveWithRotation(m, true)
	assert.InDelta(t, 4-2*0.06, m.BodyB.LinearVelocity().X(), 1e-9)
	assert.Equal(t, mgl64.Vec2{}, m.BodyA.LinearVelocity())
}
