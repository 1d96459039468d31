// Package config loads the tolerances and pass switches of a resolution
// run from YAML.
//
//	precision: 0.001
//	resolve:
//	  max_cycles: 100
//	  surface_tolerance: 1.0
//	  angle_tolerance: 1.0
//	  passes:
//	    frame: true
//	    surfaces_to_frame: true
//	    walls_to_slabs: true
//	    walls_to_walls: true
//	merge:
//	  index: grid
//	mesh:
//	  cells: 200
//	engine:
//	  timeout: 5s
//	log:
//	  level: info
//
// Keys left out keep their defaults.
package config

import (
	"bytes"
	"os"
	"time"

	"github.com/chazu/truss/pkg/engine"
	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/kernel/sdfx"
	"github.com/chazu/truss/pkg/resolve"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	// Precision is the default model precision, used when a scene does
	// not set its own.
	Precision float64 `yaml:"precision"`
	Resolve   Resolve `yaml:"resolve"`
	Merge     Merge   `yaml:"merge"`
	Mesh      Mesh    `yaml:"mesh"`
	Engine    Engine  `yaml:"engine"`
	Log       Log     `yaml:"log"`
}

type Resolve struct {
	MaxCycles        int     `yaml:"max_cycles"`
	SurfaceTolerance float64 `yaml:"surface_tolerance"`
	AngleTolerance   float64 `yaml:"angle_tolerance"`
	Passes           Passes  `yaml:"passes"`
}

type Passes struct {
	Frame           bool `yaml:"frame"`
	SurfacesToFrame bool `yaml:"surfaces_to_frame"`
	WallsToSlabs    bool `yaml:"walls_to_slabs"`
	WallsToWalls    bool `yaml:"walls_to_walls"`
}

type Merge struct {
	Index string `yaml:"index"`
}

type Mesh struct {
	// Cells is the marching cubes resolution along the longest axis.
	Cells int `yaml:"cells"`
}

type Engine struct {
	// Timeout bounds the evaluation of one scene file.
	Timeout time.Duration `yaml:"timeout"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Precision: graph.DefaultPrecision,
		Resolve: Resolve{
			MaxCycles:        resolve.DefaultMaxCycles,
			SurfaceTolerance: resolve.SurfaceTolerance,
			AngleTolerance:   geom.DefaultAngleTolerance,
			Passes: Passes{
				Frame:           true,
				SurfacesToFrame: true,
				WallsToSlabs:    true,
				WallsToWalls:    true,
			},
		},
		Merge: Merge{Index: string(resolve.IndexGrid)},
		Mesh:   Mesh{Cells: sdfx.DefaultMeshCells},
		Engine: Engine{Timeout: engine.DefaultTimeout},
		Log:    Log{Level: "info"},
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, errors.Wrap(err, "decode")
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case !(c.Precision > 0 && c.Precision <= 0.1):
		return errors.Errorf("precision must be in (0, 0.1], got %g", c.Precision)
	case c.Resolve.MaxCycles < 1:
		return errors.Errorf("resolve.max_cycles must be at least 1, got %d", c.Resolve.MaxCycles)
	case c.Resolve.SurfaceTolerance <= 0:
		return errors.Errorf("resolve.surface_tolerance must be positive, got %g", c.Resolve.SurfaceTolerance)
	case !(c.Resolve.AngleTolerance > 0 && c.Resolve.AngleTolerance < 45):
		return errors.Errorf("resolve.angle_tolerance must be in (0, 45) degrees, got %g", c.Resolve.AngleTolerance)
	case c.Mesh.Cells < 8:
		return errors.Errorf("mesh.cells must be at least 8, got %d", c.Mesh.Cells)
	case c.Engine.Timeout <= 0:
		return errors.Errorf("engine.timeout must be positive, got %s", c.Engine.Timeout)
	}
	if _, err := resolve.ParseIndexKind(c.Merge.Index); err != nil {
		return errors.Wrap(err, "merge.index")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}

// ResolveOptions converts the configuration into pipeline options.
func (c Config) ResolveOptions() resolve.Options {
	idx, _ := resolve.ParseIndexKind(c.Merge.Index)
	return resolve.Options{
		FrameMembers:        c.Resolve.Passes.Frame,
		SurfacesToFrame:     c.Resolve.Passes.SurfacesToFrame,
		WallsToSlabs:        c.Resolve.Passes.WallsToSlabs,
		WallsToWalls:        c.Resolve.Passes.WallsToWalls,
		MaxCycles:           c.Resolve.MaxCycles,
		MinSurfaceTolerance: c.Resolve.SurfaceTolerance,
		AngleTolerance:      c.Resolve.AngleTolerance,
		MergeIndex:          idx,
	}
}

// NewEngine returns a scene engine with the configured precision and timeout.
func (c Config) NewEngine() *engine.Engine {
	eng := engine.NewEngine()
	eng.Precision = c.Precision
	eng.Timeout = c.Engine.Timeout
	return eng
}

// LogLevel returns the configured zerolog level, or info when it is
// empty or does not parse.
func (c Config) LogLevel() zerolog.Level {
	l, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		return zerolog.InfoLevel
	}
	return l
}
