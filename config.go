package physics2d

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/physics2d/collision"
	"github.com/gekko3d/physics2d/core"
)

// Resolution selects how the world responds to a confirmed collision.
type Resolution int

const (
	// DoNothing reports collisions through callbacks only.
	DoNothing Resolution = iota
	// Basic applies linear impulses without torque.
	Basic
	// Rotation adds angular impulses around each contact point.
	Rotation
	// Friction is Rotation plus a Coulomb friction pass.
	Friction
)

var resolutionNames = [...]string{"none", "basic", "rotation", "friction"}

func (r Resolution) String() string {
	if r < DoNothing || r > Friction {
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
	return resolutionNames[r]
}

func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Resolution) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range resolutionNames {
		if n == name {
			*r = Resolution(i)
			return nil
		}
	}
	return fmt.Errorf("unknown resolution %q", text)
}

type Config struct {
	// StepDuration is the minimum wall-clock time between two steps of the loop.
	StepDuration  time.Duration `yaml:"step_duration"`
	Iterations    int           `yaml:"iterations"`
	MinIterations int           `yaml:"min_iterations"`
	MaxIterations int           `yaml:"max_iterations"`

	Bounds       core.AABB `yaml:"bounds"`
	MaxDepth     int       `yaml:"max_depth"`
	LeafCapacity int       `yaml:"leaf_capacity"`

	Resolution     Resolution               `yaml:"resolution"`
	CompoundPolicy collision.CompoundPolicy `yaml:"compound_policy"`
	Limits         core.Limits              `yaml:"limits"`
	Gravity        mgl64.Vec2               `yaml:"gravity"`

	Debug bool `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		StepDuration:   10 * time.Millisecond,
		Iterations:     2,
		MinIterations:  1,
		MaxIterations:  128,
		Bounds:         core.NewAABB(-100000, -100000, 100000, 100000),
		MaxDepth:       16,
		LeafCapacity:   32,
		Resolution:     Friction,
		CompoundPolicy: collision.CompoundSum,
		Limits:         core.DefaultLimits,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys left out keep their
// default; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.StepDuration <= 0 {
		return fmt.Errorf("step_duration must be positive, got %v", c.StepDuration)
	}
	if c.MinIterations < 1 || c.MaxIterations < c.MinIterations {
		return fmt.Errorf("iteration range [%d, %d] is invalid", c.MinIterations, c.MaxIterations)
	}
	if !c.Bounds.Valid() || c.Bounds.Area() <= 0 {
		return fmt.Errorf("bounds %v-%v do not enclose any space", c.Bounds.Min, c.Bounds.Max)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.LeafCapacity < 1 {
		return fmt.Errorf("leaf_capacity must be at least 1, got %d", c.LeafCapacity)
	}
	if c.Resolution < DoNothing || c.Resolution > Friction {
		return fmt.Errorf("resolution %v is invalid", c.Resolution)
	}
	if c.CompoundPolicy != collision.CompoundSum && c.CompoundPolicy != collision.CompoundDeepest {
		return fmt.Errorf("compound_policy %v is invalid", c.CompoundPolicy)
	}
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("limits: %w", err)
	}
	return nil
}

// clampIterations keeps n inside the configured range.
func (c Config) clampIterations(n int) int {
	if n < c.MinIterations {
		return c.MinIterations
	}
	if n > c.MaxIterations {
		return c.MaxIterations
	}
	return n
}
