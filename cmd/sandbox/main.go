package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gekko3d/physics2d"
	"github.com/gekko3d/physics2d/collision"
	"github.com/gekko3d/physics2d/core"
	"github.com/gekko3d/physics2d/imagepoly"
)

func main() {
	configPath := flag.String("config", "", "YAML world config; defaults apply when empty")
	duration := flag.Duration("duration", 3*time.Second, "how long to run the simulation")
	imagePath := flag.String("image", "", "PNG, BMP or WEBP sprite dropped into the scene")
	gravity := flag.Float64("gravity", defaultGravity, "vertical gravity; overrides the config only when set")
	debug := flag.Bool("debug", false, "log per-second loop statistics")
	flag.Parse()

	var override *float64
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "gravity" {
			override = gravity
		}
	})

	if err := run(*configPath, *imagePath, *duration, override, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "sandbox: %v\n", err)
		os.Exit(1)
	}
}

// defaultGravity is used when neither a config file nor -gravity is given.
const defaultGravity = -9.8

// sceneGravity picks the gravity for the run: an explicit -gravity wins, then
// the config file, then defaultGravity.
func sceneGravity(cfg physics2d.Config, fromFile bool, override *float64) mgl64.Vec2 {
	switch {
	case override != nil:
		return mgl64.Vec2{0, *override}
	case fromFile:
		return cfg.Gravity
	}
	return mgl64.Vec2{0, defaultGravity}
}

func run(configPath, imagePath string, duration time.Duration, gravity *float64, debug bool) error {
	cfg := physics2d.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = physics2d.LoadConfig(configPath); err != nil {
			return err
		}
	}
	cfg.Gravity = sceneGravity(cfg, configPath != "", gravity)

	logger := physics2d.NewDefaultLogger("sandbox", debug || cfg.Debug)
	world, err := physics2d.NewWorld(cfg,
		physics2d.WithLogger(logger),
		physics2d.WithBodyAdded(func(b *core.Body) {
			logger.Debugf("added %s body %s at %v", b.Shape(), b.ID(), b.Position())
		}),
	)
	if err != nil {
		return err
	}

	bodies, err := buildScene(world.Limits(), imagePath)
	if err != nil {
		return err
	}
	for _, b := range bodies {
		world.Add(b)
	}

	hits := 0
	world.OnCollide(bodies[0], func(collision.Manifold) { hits++ })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	world.Run()
	select {
	case <-ctx.Done():
	case <-time.After(duration):
	}
	world.Shutdown()

	stats := world.Stats()
	logger.Infof("%d steps, %d collisions, %d ground contacts, last fps %.1f",
		stats.Steps, stats.Collisions, hits, stats.FPS)
	for _, b := range world.Bodies() {
		if b.IsStatic() {
			continue
		}
		logger.Infof("%-8s at (%.2f, %.2f) rot %.2f", b.Shape(), b.Position().X(), b.Position().Y(), b.Rotation())
	}

	if rayHits, ok := world.Raycast(mgl64.Vec2{-20, 1}, mgl64.Vec2{20, 1}, 0.05); ok {
		for _, h := range rayHits {
			logger.Infof("ray hit %s at (%.2f, %.2f), distance %.2f", h.Body.Shape(), h.Point.X(), h.Point.Y(), h.Distance)
		}
	}
	return nil
}

// buildScene returns the ground first, then a few falling bodies.
func buildScene(limits core.Limits, imagePath string) ([]*core.Body, error) {
	ground, err := limits.CreateBoxBody(40, 1, mgl64.Vec2{0, -0.5}, 1, true, 0.2, 0.6, 0.4)
	if err != nil {
		return nil, fmt.Errorf("ground: %w", err)
	}
	out := []*core.Body{ground}

	for i := 0; i < 4; i++ {
		b, err := limits.CreateBoxBody(1, 1, mgl64.Vec2{-3, 1 + float64(i)*1.2}, 1, false, 0.1, 0.6, 0.4)
		if err != nil {
			return nil, fmt.Errorf("crate %d: %w", i, err)
		}
		out = append(out, b)
	}

	ball, err := limits.CreateCircleBody(0.5, mgl64.Vec2{0, 6}, 2, false, 0.6, 0.4, 0.2)
	if err != nil {
		return nil, fmt.Errorf("ball: %w", err)
	}
	out = append(out, ball)

	arrow := []mgl64.Vec2{{-1, -1}, {1, -1}, {1, 1}, {0, 0.2}, {-1, 1}}
	parts, err := core.ConvexParts(arrow)
	if err != nil {
		return nil, fmt.Errorf("arrow: %w", err)
	}
	compound, err := limits.CreatePolygonBody(parts, core.PolygonArea(arrow), mgl64.Vec2{3, 4}, 1, false, 0.2, 0.5, 0.3)
	if err != nil {
		return nil, fmt.Errorf("arrow: %w", err)
	}
	compound.Rotate(0.3)
	out = append(out, compound)

	if imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		shape, err := imagepoly.Load(f, 1)
		if err != nil {
			return nil, err
		}
		sprite, err := limits.CreatePolygonBody(shape.Parts(), shape.Area, mgl64.Vec2{6, 5}, 1, false, 0.2, 0.5, 0.3)
		if err != nil {
			return nil, fmt.Errorf("sprite %s: %w", imagePath, err)
		}
		out = append(out, sprite)
	}
	return out, nil
}
