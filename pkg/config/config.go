// Package config loads engine settings from TOML.
//
// Every field has a default matching the interactive viewer, so a config file
// only needs the values it changes:
//
//	[layout]
//	layers = 4
//	f0 = 30
//	dilation = 0.8
//
//	[engine]
//	cadence = "16ms"
package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/errors"
)

// Config is the complete configuration of one galaster process.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Engine EngineConfig `toml:"engine"`
	Server ServerConfig `toml:"server"`
	Scene  SceneConfig  `toml:"scene"`
}

// LayoutConfig holds the layer stack shape and its physical constants.
type LayoutConfig struct {
	Layers          int     `toml:"layers"`
	F0              float64 `toml:"f0"`
	K               float64 `toml:"k"`
	Eps             float64 `toml:"eps"`
	Damping         float64 `toml:"damping"`
	Dilation        float64 `toml:"dilation"`
	OctreeThreshold int     `toml:"octree_threshold"`
	Padding         float64 `toml:"padding"`
	MaxDisplacement float64 `toml:"max_displacement"`
	Workers         int     `toml:"workers"`
}

// EngineConfig controls the layout loop.
type EngineConfig struct {
	// DT is the base timestep; the adaptive step stays within [DT, 2*DT].
	DT float64 `toml:"dt"`

	// Cadence is the minimum length of one frame of ticks.
	Cadence Duration `toml:"cadence"`

	// Pause is the sleep between frames.
	Pause Duration `toml:"pause"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	StreamInterval Duration `toml:"stream_interval"`
	SVGCacheSize   int      `toml:"svg_cache_size"`
}

// SceneConfig selects the generator used when no scene file is given.
type SceneConfig struct {
	Generator string `toml:"generator"`
	Size      int    `toml:"size"`
	Edges     int    `toml:"edges"`
	Seed      uint64 `toml:"seed"`
}

// Duration is a time.Duration written as a Go duration string ("20ms").
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	p := multilevel.DefaultParams()
	return Config{
		Layout: LayoutConfig{
			Layers:          6,
			F0:              p.F0,
			K:               p.K,
			Eps:             p.Eps,
			Damping:         p.Damping,
			Dilation:        p.Dilation,
			OctreeThreshold: p.OctreeThreshold,
			Padding:         p.Padding,
			MaxDisplacement: p.MaxDisplacement,
			Workers:         runtime.GOMAXPROCS(0),
		},
		Engine: EngineConfig{
			DT:      1,
			Cadence: Duration{20 * time.Millisecond},
			Pause:   Duration{time.Millisecond},
		},
		Server: ServerConfig{
			Addr:           ":8080",
			StreamInterval: Duration{50 * time.Millisecond},
			SVGCacheSize:   64,
		},
		Scene: SceneConfig{
			Generator: "random",
			Size:      100,
			Edges:     2,
			Seed:      1,
		},
	}
}

// Load reads the TOML file at path on top of [Default] and validates the
// result. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text on top of [Default] and validates the result.
func Parse(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	l := c.Layout
	switch {
	case l.Layers < 1:
		return invalid("layout.layers must be at least 1, got %d", l.Layers)
	case l.F0 < 0:
		return invalid("layout.f0 must not be negative, got %v", l.F0)
	case l.K < 0:
		return invalid("layout.k must not be negative, got %v", l.K)
	case l.Eps <= 0:
		return invalid("layout.eps must be positive, got %v", l.Eps)
	case l.Damping <= 0 || l.Damping > 1:
		return invalid("layout.damping must be in (0, 1], got %v", l.Damping)
	case l.Dilation < 0:
		return invalid("layout.dilation must not be negative, got %v", l.Dilation)
	case l.OctreeThreshold < 0:
		return invalid("layout.octree_threshold must not be negative, got %d", l.OctreeThreshold)
	case l.Padding <= 0:
		return invalid("layout.padding must be positive, got %v", l.Padding)
	case l.MaxDisplacement <= 0:
		return invalid("layout.max_displacement must be positive, got %v", l.MaxDisplacement)
	case l.Workers < 1:
		return invalid("layout.workers must be at least 1, got %d", l.Workers)
	}

	e := c.Engine
	switch {
	case e.DT <= 0:
		return invalid("engine.dt must be positive, got %v", e.DT)
	case e.Cadence.Duration <= 0:
		return invalid("engine.cadence must be positive, got %v", e.Cadence)
	case e.Pause.Duration < 0:
		return invalid("engine.pause must not be negative, got %v", e.Pause)
	}

	s := c.Server
	switch {
	case s.StreamInterval.Duration <= 0:
		return invalid("server.stream_interval must be positive, got %v", s.StreamInterval)
	case s.SVGCacheSize < 1:
		return invalid("server.svg_cache_size must be at least 1, got %d", s.SVGCacheSize)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}

// Params converts the layout section into layer parameters.
func (c Config) Params() multilevel.Params {
	l := c.Layout
	return multilevel.Params{
		F0:              l.F0,
		K:               l.K,
		Eps:             l.Eps,
		Damping:         l.Damping,
		Dilation:        l.Dilation,
		OctreeThreshold: l.OctreeThreshold,
		Padding:         l.Padding,
		MaxDisplacement: l.MaxDisplacement,
		Workers:         l.Workers,
	}
}
