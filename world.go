// Package physics2d runs a 2D rigid-body world: bodies from package core are
// integrated, paired through a quadtree broad phase, tested with the
// separating-axis routines of package collision and resolved with impulses.
package physics2d

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/gekko3d/physics2d/collision"
	"github.com/gekko3d/physics2d/core"
	"github.com/gekko3d/physics2d/quadtree"
)

type Option func(*World)

func WithLogger(l Logger) Option {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

// WithSpaceFilter installs a predicate over index leaves. Bodies in a leaf it
// rejects keep integrating but are not tested against each other.
func WithSpaceFilter(fn func(*quadtree.Node) bool) Option {
	return func(w *World) { w.spaceFilter = fn }
}

// WithBodyAdded registers fn to run on the stepping goroutine when a queued
// body joins the world.
func WithBodyAdded(fn func(*core.Body)) Option {
	return func(w *World) { w.onAdded = fn }
}

func WithBodyRemoved(fn func(*core.Body)) Option {
	return func(w *World) { w.onRemoved = fn }
}

type Stats struct {
	// FPS is the number of steps the loop ran over the last second.
	FPS        float64
	Steps      uint64
	Collisions uint64
	// LastCollisions counts the manifolds resolved by the latest step.
	LastCollisions int
	Bodies         int
}

type pendingOp struct {
	body *core.Body
	add  bool
}

type pairKey struct {
	a, b *core.Body
}

type World struct {
	cfg  Config
	log  Logger
	tree *quadtree.Tree

	resolution atomic.Int32
	iterations atomic.Int32

	// mu is held for writing for the whole of Step and for reading by queries.
	mu      sync.RWMutex
	bodies  map[uuid.UUID]*core.Body
	order   []*core.Body
	outside map[*core.Body]struct{}

	queueMu sync.Mutex
	pending []pendingOp

	cbMu      sync.RWMutex
	callbacks map[uuid.UUID]func(collision.Manifold)

	spaceFilter func(*quadtree.Node) bool
	onAdded     func(*core.Body)
	onRemoved   func(*core.Body)

	statsMu sync.Mutex
	stats   Stats

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorld(cfg Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid world config: %w", err)
	}
	w := &World{
		cfg:       cfg,
		log:       NewNopLogger(),
		tree:      quadtree.NewWithCapacity(cfg.Bounds, cfg.MaxDepth, cfg.LeafCapacity),
		bodies:    make(map[uuid.UUID]*core.Body),
		outside:   make(map[*core.Body]struct{}),
		callbacks: make(map[uuid.UUID]func(collision.Manifold)),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.resolution.Store(int32(cfg.Resolution))
	w.SetIterations(cfg.Iterations)
	return w, nil
}

func (w *World) Config() Config      { return w.cfg }
func (w *World) Limits() core.Limits { return w.cfg.Limits }
func (w *World) Logger() Logger      { return w.log }

func (w *World) Resolution() Resolution { return Resolution(w.resolution.Load()) }
func (w *World) Iterations() int        { return int(w.iterations.Load()) }

func (w *World) SetResolution(r Resolution) {
	if r < DoNothing || r > Friction {
		w.log.Warnf("ignoring unknown resolution %v", r)
		return
	}
	w.resolution.Store(int32(r))
}

// SetIterations sets the sub-step count, clamped to the configured range.
func (w *World) SetIterations(n int) {
	clamped := w.cfg.clampIterations(n)
	if clamped != n {
		w.log.Warnf("iterations %d clamped to %d", n, clamped)
	}
	w.iterations.Store(int32(clamped))
}

// Add queues b; it joins the index at the start of the next step.
func (w *World) Add(b *core.Body) {
	if b == nil {
		return
	}
	w.queueMu.Lock()
	w.pending = append(w.pending, pendingOp{body: b, add: true})
	w.queueMu.Unlock()
}

// Remove queues b for removal at the start of the next step.
func (w *World) Remove(b *core.Body) {
	if b == nil {
		return
	}
	w.queueMu.Lock()
	w.pending = append(w.pending, pendingOp{body: b})
	w.queueMu.Unlock()
}

// OnCollide registers fn for every manifold b takes part in; nil clears it.
// fn runs on the stepping goroutine while the world is locked, so it may call
// Add, Remove and OnCollide but not Step, Query or Raycast.
func (w *World) OnCollide(b *core.Body, fn func(collision.Manifold)) {
	w.cbMu.Lock()
	defer w.cbMu.Unlock()
	if fn == nil {
		delete(w.callbacks, b.ID())
		return
	}
	w.callbacks[b.ID()] = fn
}

func (w *World) Bodies() []*core.Body {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.order)
}

func (w *World) Body(id uuid.UUID) (*core.Body, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[id]
	return b, ok
}

func (w *World) Stats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}

// Query returns the indexed bodies whose bounds touch box.
func (w *World) Query(box core.AABB) []*core.Body {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*core.Body
	for _, b := range w.tree.Query(box) {
		if b.GetAABB().Intersects(box) {
			out = append(out, b)
		}
	}
	return out
}

func (w *World) Raycast(start, end mgl64.Vec2, width float64) ([]RayHit, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Raycast(w.tree, start, end, width)
}

// Run starts the step loop. Calling it on a running world does nothing.
func (w *World) Run() {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)
	w.log.Infof("physics loop started: step %v, %d iterations, %v resolution",
		w.cfg.StepDuration, w.Iterations(), w.Resolution())
}

// Shutdown stops the loop and waits for the step in progress to finish.
func (w *World) Shutdown() {
	w.runMu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.log.Infof("physics loop stopped after %d steps", w.Stats().Steps)
}

func (w *World) Running() bool {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return w.cancel != nil
}

func (w *World) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.cfg.StepDuration)
	defer ticker.Stop()

	last := time.Now()
	window := last
	frames := 0
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			if elapsed < w.cfg.StepDuration {
				continue
			}
			last = now
			w.Step(elapsed)
			frames++

			if span := now.Sub(window); span >= time.Second {
				fps := float64(frames) / span.Seconds()
				w.statsMu.Lock()
				w.stats.FPS = fps
				stats := w.stats
				w.statsMu.Unlock()
				w.log.Debugf("fps %.1f, steps %d, bodies %d, collisions %d",
					fps, stats.Steps, stats.Bodies, stats.Collisions)
				frames = 0
				window = now
			}
		}
	}
}

// Step advances the world by dt: pending adds and removes are applied, then
// each sub-step integrates every body and runs the broad and narrow phases.
func (w *World) Step(dt time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.drain()

	n := w.Iterations()
	h := dt.Seconds() / float64(n)
	res := w.Resolution()
	gravity := w.cfg.Gravity

	collisions := 0
	for i := 0; i < n; i++ {
		for _, b := range w.order {
			if gravity != (mgl64.Vec2{}) && !b.IsStatic() && !b.IsTrigger() {
				b.AddForce(gravity.Mul(b.Mass()))
			}
			b.Step(h, 1)
		}
		collisions += w.broadPhase(res)
	}

	// Leave every cache clean so readers holding the read lock never write.
	for _, b := range w.order {
		b.GetTransformedVertices()
		b.GetAABB()
	}

	w.statsMu.Lock()
	w.stats.Steps++
	w.stats.Collisions += uint64(collisions)
	w.stats.LastCollisions = collisions
	w.stats.Bodies = len(w.order)
	w.statsMu.Unlock()
}

func (w *World) drain() {
	w.queueMu.Lock()
	ops := w.pending
	w.pending = nil
	w.queueMu.Unlock()

	for _, op := range ops {
		if op.add {
			w.attach(op.body)
		} else {
			w.detach(op.body)
		}
	}
}

func (w *World) attach(b *core.Body) {
	if _, ok := w.bodies[b.ID()]; ok {
		return
	}
	w.bodies[b.ID()] = b
	w.order = append(w.order, b)
	b.Attach(tracker{w})
	w.index(b)
	if w.onAdded != nil {
		w.onAdded(b)
	}
}

func (w *World) detach(b *core.Body) {
	if _, ok := w.bodies[b.ID()]; !ok {
		return
	}
	w.tree.Remove(b)
	b.Attach(nil)
	delete(w.bodies, b.ID())
	delete(w.outside, b)
	if i := slices.Index(w.order, b); i >= 0 {
		w.order = slices.Delete(w.order, i, i+1)
	}
	w.OnCollide(b, nil)
	if w.onRemoved != nil {
		w.onRemoved(b)
	}
}

// index places b in the tree, warning once while it stays out of bounds.
func (w *World) index(b *core.Body) {
	if w.tree.Update(b) {
		delete(w.outside, b)
		return
	}
	if _, warned := w.outside[b]; !warned {
		w.outside[b] = struct{}{}
		box := b.GetAABB()
		w.log.Warnf("body %s at %v-%v is outside the world bounds and will not collide",
			b.ID(), box.Min, box.Max)
	}
}

// tracker re-indexes bodies whose bounds moved during integration.
type tracker struct {
	w *World
}

func (t tracker) BodyMoved(b *core.Body) { t.w.index(b) }

func (w *World) broadPhase(res Resolution) int {
	visited := make(map[pairKey]struct{})
	collisions := 0
	for _, leaf := range w.tree.Leaves() {
		if w.spaceFilter != nil && !w.spaceFilter(leaf) {
			continue
		}
		items := leaf.Items()
		for i := 0; i < len(items)-1; i++ {
			a := items[i]
			for j := i + 1; j < len(items); j++ {
				b := items[j]
				if a == b || (a.IsStatic() && b.IsStatic()) {
					continue
				}
				if !a.GetAABB().Overlaps(b.GetAABB()) {
					continue
				}
				key := pairKey{a, b}
				if _, seen := visited[key]; seen {
					continue
				}
				visited[key] = struct{}{}
				visited[pairKey{b, a}] = struct{}{}

				if w.narrowPhase(a, b, res) {
					collisions++
				}
			}
		}
	}
	return collisions
}

func (w *World) narrowPhase(a, b *core.Body, res Resolution) bool {
	m, ok := collision.NewManifold(a, b, w.cfg.CompoundPolicy)
	if !ok {
		return false
	}
	w.notify(a, m)
	w.notify(b, m)

	if res == DoNothing || a.IsTrigger() || b.IsTrigger() {
		return true
	}
	separate(m)
	m.RefreshContacts()
	resolve(m, res)
	return true
}

func (w *World) notify(b *core.Body, m collision.Manifold) {
	w.cbMu.RLock()
	fn := w.callbacks[b.ID()]
	w.cbMu.RUnlock()
	if fn != nil {
		fn(m)
	}
}
