// Package config provides configuration loading and access for the octree viewer.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all viewer configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Index     IndexConfig     `yaml:"index"`
	Scene     SceneConfig     `yaml:"scene"`
	Queries   QueriesConfig   `yaml:"queries"`
	Camera    CameraConfig    `yaml:"camera"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// IndexConfig holds octree parameters.
type IndexConfig struct {
	Capacity int        `yaml:"capacity"`  // Entries per leaf before it splits
	MaxDepth int        `yaml:"max_depth"` // Deepest block level; top-level blocks are depth 1
	WorldMin [3]float64 `yaml:"world_min"`
	WorldMax [3]float64 `yaml:"world_max"`
}

// SceneConfig holds the synthetic workload.
type SceneConfig struct {
	Entities int     `yaml:"entities"`
	MinSize  float64 `yaml:"min_size"` // Smallest box edge
	MaxSize  float64 `yaml:"max_size"` // Largest box edge
	Speed    float64 `yaml:"speed"`    // Max linear speed in world units per second
	Spin     float64 `yaml:"spin"`     // Max angular speed in radians per second
	Resize   float64 `yaml:"resize"`   // Per-tick chance an entity changes size
	Churn    float64 `yaml:"churn"`    // Per-tick chance an entity is removed and respawned
	DT       float64 `yaml:"dt"`
}

// QueriesConfig holds per-tick query parameters.
type QueriesConfig struct {
	SphereRadius float64 `yaml:"sphere_radius"`
	RayLength    float64 `yaml:"ray_length"`
}

// CameraConfig holds the orbit camera defaults.
type CameraConfig struct {
	FOV      float64 `yaml:"fov"` // Vertical field of view in degrees
	Near     float64 `yaml:"near"`
	Far      float64 `yaml:"far"`
	Distance float64 `yaml:"distance"`
	Yaw      float64 `yaml:"yaw"`   // Degrees
	Pitch    float64 `yaml:"pitch"` // Degrees
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds of simulated time per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldMin    r3.Vec
	WorldMax    r3.Vec
	WorldCenter r3.Vec
	WorldExtent float64 // Largest world dimension
	DT32        float32 // Scene.DT as float32
	ScreenW32   float32
	ScreenH32   float32
	WindowTicks int32 // Ticks per stats window
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports configuration values the viewer cannot run with.
func (c *Config) Validate() error {
	for i := range 3 {
		if c.Index.WorldMax[i] <= c.Index.WorldMin[i] {
			return fmt.Errorf("index: world_max[%d] must exceed world_min[%d]", i, i)
		}
	}
	if c.Scene.Entities < 0 {
		return fmt.Errorf("scene: entities must not be negative, got %d", c.Scene.Entities)
	}
	if c.Scene.MinSize <= 0 || c.Scene.MaxSize < c.Scene.MinSize {
		return fmt.Errorf("scene: need 0 < min_size <= max_size, got %g and %g", c.Scene.MinSize, c.Scene.MaxSize)
	}
	if c.Scene.DT <= 0 {
		return fmt.Errorf("scene: dt must be positive, got %g", c.Scene.DT)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.WorldMin = vec(c.Index.WorldMin)
	c.Derived.WorldMax = vec(c.Index.WorldMax)
	c.Derived.WorldCenter = r3.Scale(0.5, r3.Add(c.Derived.WorldMin, c.Derived.WorldMax))

	size := r3.Sub(c.Derived.WorldMax, c.Derived.WorldMin)
	c.Derived.WorldExtent = max(size.X, size.Y, size.Z)

	c.Derived.DT32 = float32(c.Scene.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	c.Derived.WindowTicks = int32(math.Round(c.Telemetry.StatsWindow / c.Scene.DT))
	if c.Derived.WindowTicks < 1 {
		c.Derived.WindowTicks = 1
	}
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
