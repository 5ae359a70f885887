// Package config loads the map configuration: basemap presets, legend and
// readout settings, the initial view and overlay layers.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-mapview/internal/basemap"
	"github.com/joeblew999/plat-mapview/internal/control"
	"github.com/joeblew999/plat-mapview/internal/engine"
	"github.com/joeblew999/plat-mapview/internal/style"
)

//go:embed default.yaml
var defaultYAML []byte

// Config is the whole map configuration.
type Config struct {
	Presets  []basemap.Preset        `yaml:"presets"`
	Legend   LegendConfig            `yaml:"legend"`
	Pointer  PointerConfig           `yaml:"pointer"`
	View     ViewConfig              `yaml:"view"`
	Overview control.OverviewOptions `yaml:"overview"`
	Overlays []Overlay               `yaml:"overlays"`
}

// LegendConfig configures the legend control.
type LegendConfig struct {
	Title    string          `yaml:"title"`
	Position engine.Position `yaml:"position"`
	Groups   []control.Group `yaml:"groups"`
}

// PointerConfig configures the pointer readout.
type PointerConfig struct {
	Precision int             `yaml:"precision"`
	Position  engine.Position `yaml:"position"`
}

// ViewConfig is the initial camera. With FitOverlays set, the camera fits
// the first overlay source that declares bounds in a Width×Height viewport.
type ViewConfig struct {
	Center      [2]float64 `yaml:"center"`
	Zoom        float64    `yaml:"zoom"`
	FitOverlays bool       `yaml:"fitOverlays"`
	Width       float64    `yaml:"width"`
	Height      float64    `yaml:"height"`
	Padding     float64    `yaml:"padding"`
}

// Overlay is a set of sources and layers drawn on top of every basemap.
type Overlay struct {
	Sources map[string]style.Source `yaml:"sources"`
	Layers  []style.Layer           `yaml:"layers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := decode(defaultYAML, &Config{})
	if err != nil {
		// the embedded file is part of the build
		panic(err)
	}
	return cfg
}

// Load reads a YAML file, or a TOML file when the name ends in .toml, over
// the defaults. An empty path means defaults only.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// ParseTOML decodes TOML over the defaults with the same keys and list
// semantics as Parse.
func ParseTOML(data []byte) (*Config, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errorsx.Wrap(err)
	}
	// one set of field tags: go through the YAML decoder
	converted, err := yaml.Marshal(raw)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	return Parse(converted)
}

// Parse decodes YAML over the defaults. A list given in data replaces the
// default list.
func Parse(data []byte) (*Config, error) {
	return decode(data, Default())
}

func decode(data []byte, into *Config) (*Config, error) {
	if err := yaml.Unmarshal(data, into); err != nil {
		return nil, errorsx.Wrap(err)
	}
	if err := into.Validate(); err != nil {
		return nil, err
	}
	return into, nil
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	if len(c.Presets) == 0 {
		return errorsx.Errorf("config: at least one basemap preset is required")
	}
	if c.Pointer.Precision < 0 || c.Pointer.Precision > 20 {
		return errorsx.Errorf("config: pointer precision %d out of range 0-20", c.Pointer.Precision)
	}
	for _, p := range []engine.Position{c.Legend.Position, c.Pointer.Position, c.Overview.Position} {
		if p != "" && !p.Valid() {
			return errorsx.Errorf("config: unknown control position %q", p)
		}
	}
	for i, o := range c.Overlays {
		for _, l := range o.Layers {
			if l.ID == "" {
				return errorsx.Errorf("config: overlay %d has a layer without id", i)
			}
		}
	}
	return nil
}
