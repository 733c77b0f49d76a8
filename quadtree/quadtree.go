// Package quadtree indexes bodies by their bounding boxes.
//
// A body is stored in every leaf its box touches, so a body straddling a
// boundary appears in several leaves. Each node guards its item and child
// lists with its own lock; mutation is expected from a single goroutine while
// any number of goroutines query.
package quadtree

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gekko3d/physics2d/core"
)

// DefaultMaxItems is the leaf population at which a leaf splits.
const DefaultMaxItems = 32

type entry struct {
	body *core.Body
	box  core.AABB
}

type Node struct {
	area     core.AABB
	depth    int
	maxDepth int
	maxItems int
	parent   *Node

	mu       sync.Mutex
	children []*Node
	items    []entry
}

type Tree struct {
	root *Node
}

func New(area core.AABB, maxDepth int) *Tree {
	return NewWithCapacity(area, maxDepth, DefaultMaxItems)
}

func NewWithCapacity(area core.AABB, maxDepth, maxItems int) *Tree {
	if maxItems < 1 {
		maxItems = DefaultMaxItems
	}
	return &Tree{root: newNode(area, 0, maxDepth, maxItems, nil)}
}

func newNode(area core.AABB, depth, maxDepth, maxItems int, parent *Node) *Node {
	return &Node{
		area:     area,
		depth:    depth,
		maxDepth: maxDepth,
		maxItems: maxItems,
		parent:   parent,
	}
}

func (t *Tree) Root() *Node { return t.root }

// Insert places b in every leaf its current box touches and records that box
// on the body. It returns false if the box lies entirely outside the tree.
func (t *Tree) Insert(b *core.Body) bool {
	box := b.GetAABB()
	if !t.root.area.Intersects(box) {
		return false
	}
	t.root.insert(entry{body: b, box: box})
	b.MarkIndexed(box)
	return true
}

// Remove takes b out of the leaves it was placed in, found through the box
// recorded at insertion rather than its current one.
func (t *Tree) Remove(b *core.Body) bool {
	box, ok := b.IndexedAABB()
	if !ok {
		return false
	}
	removed := t.root.remove(b, box)
	b.ClearIndexed()
	return removed
}

// Update moves b to the leaves matching its current box.
func (t *Tree) Update(b *core.Body) bool {
	t.Remove(b)
	return t.Insert(b)
}

// Query returns the bodies of every leaf touching box, each once. The result
// is a candidate set: it may contain bodies whose own box misses the query.
func (t *Tree) Query(box core.AABB) []*core.Body {
	var out []*core.Body
	seen := make(map[*core.Body]struct{})
	t.root.query(box, seen, &out)
	return out
}

// Leaves returns every leaf holding at least one body.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	t.root.leaves(&out)
	return out
}

// Count is the number of leaf slots in use; a straddling body counts once per leaf.
func (t *Tree) Count() int {
	return t.root.Count()
}

func (t *Tree) Dump() string {
	var sb strings.Builder
	t.root.dump(&sb)
	return sb.String()
}

func (n *Node) Area() core.AABB { return n.area }
func (n *Node) Depth() int      { return n.depth }
func (n *Node) Parent() *Node   { return n.parent }

func (n *Node) IsLeaf() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.children) == 0
}

// Items returns a copy of the node's own body list. Internal nodes hold none.
func (n *Node) Items() []*core.Body {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*core.Body, len(n.items))
	for i, e := range n.items {
		out[i] = e.body
	}
	return out
}

func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*Node(nil), n.children...)
}

func (n *Node) Count() int {
	n.mu.Lock()
	children := append([]*Node(nil), n.children...)
	c := len(n.items)
	n.mu.Unlock()

	for _, child := range children {
		c += child.Count()
	}
	return c
}

func (n *Node) insert(e entry) {
	if !n.area.Intersects(e.box) {
		return
	}

	n.mu.Lock()
	if len(n.children) == 0 {
		for _, it := range n.items {
			if it.body == e.body {
				n.mu.Unlock()
				return
			}
		}
		n.items = append(n.items, e)
		if len(n.items) >= n.maxItems && n.depth < n.maxDepth {
			n.split()
		}
		n.mu.Unlock()
		return
	}
	children := append([]*Node(nil), n.children...)
	n.mu.Unlock()

	for _, child := range children {
		child.insert(e)
	}
}

// split quarters a leaf and hands its items down. Called with n.mu held.
// Items are appended to the new leaves directly, so a crowded quarter only
// splits on its next insert.
func (n *Node) split() {
	quads := n.area.Quadrants()
	children := make([]*Node, len(quads))
	for i, q := range quads {
		children[i] = newNode(q, n.depth+1, n.maxDepth, n.maxItems, n)
	}
	for _, e := range n.items {
		for _, child := range children {
			if child.area.Intersects(e.box) {
				child.mu.Lock()
				child.items = append(child.items, e)
				child.mu.Unlock()
			}
		}
	}
	n.children = children
	n.items = nil
}

func (n *Node) remove(b *core.Body, box core.AABB) bool {
	if !n.area.Intersects(box) {
		return false
	}

	n.mu.Lock()
	if len(n.children) == 0 {
		found := false
		for i, it := range n.items {
			if it.body == b {
				n.items = append(n.items[:i], n.items[i+1:]...)
				found = true
				break
			}
		}
		n.mu.Unlock()
		return found
	}
	children := append([]*Node(nil), n.children...)
	n.mu.Unlock()

	removed := false
	for _, child := range children {
		if child.remove(b, box) {
			removed = true
		}
	}
	if removed && n.Count() == 0 {
		n.mu.Lock()
		n.children = nil
		n.mu.Unlock()
	}
	return removed
}

func (n *Node) query(box core.AABB, seen map[*core.Body]struct{}, out *[]*core.Body) {
	if !n.area.Intersects(box) {
		// Covers the window in which the parent has split but its items
		// have not yet been handed down.
		if n.parent != nil && n.parent.area.Intersects(box) {
			collect(n.parent.Items(), seen, out)
		}
		return
	}

	n.mu.Lock()
	children := append([]*Node(nil), n.children...)
	var items []*core.Body
	if len(children) == 0 {
		items = make([]*core.Body, len(n.items))
		for i, e := range n.items {
			items[i] = e.body
		}
	}
	n.mu.Unlock()

	if len(children) == 0 {
		collect(items, seen, out)
		return
	}
	for _, child := range children {
		child.query(box, seen, out)
	}
}

func collect(items []*core.Body, seen map[*core.Body]struct{}, out *[]*core.Body) {
	for _, b := range items {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		*out = append(*out, b)
	}
}

func (n *Node) leaves(out *[]*Node) {
	n.mu.Lock()
	children := append([]*Node(nil), n.children...)
	populated := len(n.items) > 0
	n.mu.Unlock()

	if len(children) == 0 {
		if populated {
			*out = append(*out, n)
		}
		return
	}
	for _, child := range children {
		child.leaves(out)
	}
}

func (n *Node) dump(sb *strings.Builder) {
	n.mu.Lock()
	children := append([]*Node(nil), n.children...)
	items := len(n.items)
	n.mu.Unlock()

	fmt.Fprintf(sb, "%s[%d] (%.2f,%.2f)-(%.2f,%.2f) items=%d\n",
		strings.Repeat("  ", n.depth), n.depth,
		n.area.Min.X(), n.area.Min.Y(), n.area.Max.X(), n.area.Max.Y(), items)
	for _, child := range children {
		child.dump(sb)
	}
}
