package core

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTracker struct {
	moved []*Body
}

func (c *countingTracker) BodyMoved(b *Body) {
	c.moved = append(c.moved, b)
	b.MarkIndexed(b.GetAABB())
}

func TestCreateCircleBodyMassProperties(t *testing.T) {
	b, err := CreateCircleBody(2, mgl64.Vec2{1, 1}, 1.5, false, 0.4, 0.6, 0.3)
	require.NoError(t, err)

	area := math.Pi * 4
	assert.Equal(t, ShapeCircle, b.Shape())
	assert.InDelta(t, area, b.Area(), 1e-9)
	assert.InDelta(t, area*1.5, b.Mass(), 1e-9)
	assert.InDelta(t, 1/b.Mass(), b.InvMass(), 1e-12)
	assert.InDelta(t, 0.5*b.Mass()*4, b.Inertia(), 1e-9)
	assert.InDelta(t, 1/b.Inertia(), b.InvInertia(), 1e-12)
}

func TestCreateBoxBodyMassProperties(t *testing.T) {
	b, err := CreateBoxBody(2, 4, mgl64.Vec2{}, 2, false, 0.5, 0.5, 0.5)
	require.NoError(t, err)

	assert.Equal(t, ShapePolygon, b.Shape())
	assert.InDelta(t, 16.0, b.Mass(), 1e-9)
	assert.InDelta(t, 16.0*(4+16)/12, b.Inertia(), 1e-9)
	require.Len(t, b.Parts(), 1)
	assert.Len(t, b.Parts()[0], 4)
}

func TestStaticBodyHasNoInverseMass(t *testing.T) {
	b, err := CreateBoxBody(10, 1, mgl64.Vec2{}, 1, true, 0.5, 0.5, 0.5)
	require.NoError(t, err)
	assert.Zero(t, b.InvMass())
	assert.Zero(t, b.InvInertia())
	assert.True(t, b.IsStatic())
}

func TestFactoryValidation(t *testing.T) {
	tests := []struct {
		name  string
		field string
		make  func() (*Body, error)
	}{
		{"tiny circle", "area", func() (*Body, error) {
			return CreateCircleBody(0.001, mgl64.Vec2{}, 1, false, 0, 0, 0)
		}},
		{"huge box", "area", func() (*Body, error) {
			return CreateBoxBody(1000, 1000, mgl64.Vec2{}, 1, false, 0, 0, 0)
		}},
		{"light density", "density", func() (*Body, error) {
			return CreateBoxBody(1, 1, mgl64.Vec2{}, 0.1, false, 0, 0, 0)
		}},
		{"heavy density", "density", func() (*Body, error) {
			return CreateCircleBody(1, mgl64.Vec2{}, 30, false, 0, 0, 0)
		}},
		{"negative width", "width", func() (*Body, error) {
			return CreateBoxBody(-1, -1, mgl64.Vec2{}, 1, false, 0, 0, 0)
		}},
		{"zero radius", "radius", func() (*Body, error) {
			return CreateCircleBody(0, mgl64.Vec2{}, 1, false, 0, 0, 0)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.make()
			assert.Nil(t, b)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected a ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Reason)
		})
	}
}

func TestCreatePolygonBodyRejectsDegenerateParts(t *testing.T) {
	square := []mgl64.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	tests := []struct {
		name  string
		parts [][]mgl64.Vec2
	}{
		{"no parts", nil},
		{"two vertices", [][]mgl64.Vec2{{{0, 0}, {1, 0}}}},
		{"repeated vertex", [][]mgl64.Vec2{{{0, 0}, {1, 0}, {1, 0}, {0, 1}}}},
		{"collinear", [][]mgl64.Vec2{{{0, 0}, {1, 0}, {2, 0}}}},
		{"concave", [][]mgl64.Vec2{{{0, 0}, {4, 0}, {4, 4}, {2, 1}, {0, 4}}}},
		{"second part bad", [][]mgl64.Vec2{square, {{0, 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreatePolygonBody(tt.parts, 4, mgl64.Vec2{}, 1, false, 0, 0, 0)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
}

func TestCreatePolygonBodyCompound(t *testing.T) {
	left := []mgl64.Vec2{{-2, -1}, {0, -1}, {0, 1}, {-2, 1}}
	right := []mgl64.Vec2{{0, -1}, {2, -1}, {2, 1}, {0, 1}}
	b, err := CreatePolygonBody([][]mgl64.Vec2{left, right}, 8, mgl64.Vec2{5, 0}, 1, false, 0.2, 0.5, 0.3)
	require.NoError(t, err)

	assert.Equal(t, ShapeCompound, b.Shape())
	assert.InDelta(t, 8.0, b.Mass(), 1e-9)
	// Same inertia as a single 4x2 box.
	assert.InDelta(t, 8.0*(16+4)/12, b.Inertia(), 1e-9)

	box := b.GetAABB()
	assert.InDelta(t, 3.0, box.Min.X(), 1e-9)
	assert.InDelta(t, 7.0, box.Max.X(), 1e-9)

	// The caller's slices are copied.
	left[0] = mgl64.Vec2{-100, -100}
	assert.Equal(t, mgl64.Vec2{-2, -1}, b.Parts()[0][0])
}

func TestTransformedVerticesAreCached(t *testing.T) {
	b, err := CreateBoxBody(2, 2, mgl64.Vec2{3, 4}, 1, false, 0, 0, 0)
	require.NoError(t, err)
	b.Rotate(0.3)

	first := b.GetTransformedVertices()
	snapshot := append([]mgl64.Vec2(nil), first[0]...)
	second := b.GetTransformedVertices()
	assert.Equal(t, snapshot, second[0])
	assert.Same(t, &first[0][0], &second[0][0])

	b.Move(mgl64.Vec2{1, 0})
	moved := b.GetTransformedVertices()
	assert.InDelta(t, snapshot[0].X()+1, moved[0][0].X(), 1e-12)
	assert.InDelta(t, snapshot[0].Y(), moved[0][0].Y(), 1e-12)
}

func TestRotateInvalidatesAABB(t *testing.T) {
	b, err := CreateBoxBody(4, 2, mgl64.Vec2{}, 1, false, 0, 0, 0)
	require.NoError(t, err)

	box := b.GetAABB()
	assert.InDelta(t, 4.0, box.Width(), 1e-9)
	assert.InDelta(t, 2.0, box.Height(), 1e-9)

	b.Rotate(math.Pi / 2)
	box = b.GetAABB()
	assert.InDelta(t, 2.0, box.Width(), 1e-9)
	assert.InDelta(t, 4.0, box.Height(), 1e-9)
}

func TestCircleAABB(t *testing.T) {
	b, err := CreateCircleBody(1.5, mgl64.Vec2{2, -1}, 1, false, 0, 0, 0)
	require.NoError(t, err)
	box := b.GetAABB()
	assert.Equal(t, mgl64.Vec2{0.5, -2.5}, box.Min)
	assert.Equal(t, mgl64.Vec2{3.5, 0.5}, box.Max)
	assert.Empty(t, b.GetTransformedVertices())
}

func TestUnknownShapePanics(t *testing.T) {
	b, err := CreateCircleBody(1, mgl64.Vec2{}, 1, false, 0, 0, 0)
	require.NoError(t, err)
	b.shape = ShapeKind(42)
	assert.Panics(t, func() { b.UpdateAABB() })
}

func TestStepIntegratesSemiImplicitEuler(t *testing.T) {
	b, err := CreateCircleBody(1, mgl64.Vec2{}, 1, false, 0, 0, 0)
	require.NoError(t, err)
	m := b.Mass()

	b.AddForce(mgl64.Vec2{m * 2, 0})
	b.SetAngularVelocity(1)
	b.Step(0.5, 1)

	assert.InDelta(t, 1.0, b.LinearVelocity().X(), 1e-12)
	assert.InDelta(t, 0.5, b.Position().X(), 1e-12)
	assert.InDelta(t, 0.5, b.Rotation(), 1e-12)
	assert.Equal(t, mgl64.Vec2{}, b.Force())
}

func TestStepSplitsSubsteps(t *testing.T) {
	b, err := CreateCircleBody(1, mgl64.Vec2{}, 1, false, 0, 0, 0)
	require.NoError(t, err)
	b.SetLinearVelocity(mgl64.Vec2{0, 2})
	b.Step(1, 4)
	assert.InDelta(t, 2.0, b.Position().Y(), 1e-12)
}

func TestStaticAndTriggerBodiesDoNotMove(t *testing.T) {
	static, err := CreateBoxBody(1, 1, mgl64.Vec2{}, 1, true, 0, 0, 0)
	require.NoError(t, err)
	trigger, err := CreateBoxBody(1, 1, mgl64.Vec2{}, 1, false, 0, 0, 0)
	require.NoError(t, err)
	trigger.SetTrigger(true)

	for _, b := range []*Body{static, trigger} {
		b.SetLinearVelocity(mgl64.Vec2{5, 5})
		b.SetAngularVelocity(3)
		b.AddForce(mgl64.Vec2{10, 0})
		b.Step(1, 2)

		assert.Equal(t, mgl64.Vec2{}, b.Position())
		assert.Equal(t, mgl64.Vec2{}, b.LinearVelocity())
		assert.Zero(t, b.AngularVelocity())
		assert.Equal(t, mgl64.Vec2{}, b.Force())
	}
}

func TestFrozenFlags(t *testing.T) {
	b, err := CreateBoxBody(1, 1, mgl64.Vec2{}, 1, false, 0, 0, 0)
	require.NoError(t, err)

	b.SetFreezeRotation(true)
	assert.Zero(t, b.InvInertia())
	b.SetAngularVelocity(2)
	b.Step(1, 1)
	assert.Zero(t, b.Rotation())

	b.SetFreezeVelocity(true)
	b.SetLinearVelocity(mgl64.Vec2{1, 0})
	b.AddForce(mgl64.Vec2{100, 0})
	b.Step(1, 1)
	assert.Equal(t, mgl64.Vec2{}, b.Position())

	b.SetFreezeRotation(false)
	assert.InDelta(t, 1/b.Inertia(), b.InvInertia(), 1e-12)
}

func TestStepNotifiesTrackerOnlyWhenBoundsMove(t *testing.T) {
	b, err := CreateCircleBody(1, mgl64.Vec2{}, 1, false, 0, 0, 0)
	require.NoError(t, err)
	tracker := &countingTracker{}
	b.Attach(tracker)
	b.MarkIndexed(b.GetAABB())

	b.Step(0.1, 1)
	assert.Empty(t, tracker.moved)

	b.SetLinearVelocity(mgl64.Vec2{1, 0})
	b.Step(0.1, 1)
	assert.Len(t, tracker.moved, 1)

	b.Attach(nil)
	b.Step(0.1, 1)
	assert.Len(t, tracker.moved, 1)
}

func TestStaticBodyMovedByHandNotifiesTracker(t *testing.T) {
	b, err := CreateBoxBody(4, 1, mgl64.Vec2{}, 1, true, 0, 0, 0)
	require.NoError(t, err)
	tracker := &countingTracker{}
	b.Attach(tracker)
	b.MarkIndexed(b.GetAABB())

	b.Step(0.1, 1)
	assert.Empty(t, tracker.moved)

	b.MoveTo(mgl64.Vec2{50, 50})
	b.AddForce(mgl64.Vec2{1, 0})
	b.Step(0.1, 1)
	require.Len(t, tracker.moved, 1)
	assert.Equal(t, mgl64.Vec2{50, 50}, b.Position())
	assert.Equal(t, mgl64.Vec2{}, b.Force())
	indexed, ok := b.IndexedAABB()
	require.True(t, ok)
	assert.Equal(t, b.GetAABB(), indexed)
}
