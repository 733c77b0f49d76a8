package collision

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/physics2d/core"
)

// CompoundPolicy selects how per-part results of compound bodies combine.
type CompoundPolicy int

const (
	// CompoundSum adds every overlapping part pair's translation vector.
	CompoundSum CompoundPolicy = iota
	// CompoundDeepest keeps only the part pair with the largest depth.
	CompoundDeepest
)

func (p CompoundPolicy) String() string {
	switch p {
	case CompoundSum:
		return "sum"
	case CompoundDeepest:
		return "deepest"
	default:
		return fmt.Sprintf("CompoundPolicy(%d)", int(p))
	}
}

func (p CompoundPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *CompoundPolicy) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "sum":
		*p = CompoundSum
	case "deepest":
		*p = CompoundDeepest
	default:
		return fmt.Errorf("collision: unknown compound policy %q", text)
	}
	return nil
}

// Manifold describes one collision between two bodies for a single narrow
// phase test. It is never kept between steps.
type Manifold struct {
	BodyA, BodyB *core.Body
	Normal       mgl64.Vec2
	Depth        float64
	Contact1     mgl64.Vec2
	Contact2     mgl64.Vec2
	ContactCount int
}

// NewManifold runs the narrow phase for a and b. ok is false when they do
// not overlap.
func NewManifold(a, b *core.Body, policy CompoundPolicy) (Manifold, bool) {
	normal, depth, ok := Collide(a, b, policy)
	if !ok {
		return Manifold{}, false
	}
	c1, c2, n := FindContacts(a, b)
	return Manifold{
		BodyA:        a,
		BodyB:        b,
		Normal:       normal,
		Depth:        depth,
		Contact1:     c1,
		Contact2:     c2,
		ContactCount: n,
	}, true
}

// RefreshContacts recomputes the contact points from the bodies' current
// poses, as needed once positional correction has moved them.
func (m *Manifold) RefreshContacts() {
	m.Contact1, m.Contact2, m.ContactCount = FindContacts(m.BodyA, m.BodyB)
}

// Contacts returns the valid contact points in a fixed-size buffer.
func (m Manifold) Contacts() ([2]mgl64.Vec2, int) {
	return [2]mgl64.Vec2{m.Contact1, m.Contact2}, m.ContactCount
}

// Other returns the body paired with b, or nil if b is not part of m.
func (m Manifold) Other(b *core.Body) *core.Body {
	switch b {
	case m.BodyA:
		return m.BodyB
	case m.BodyB:
		return m.BodyA
	}
	return nil
}
