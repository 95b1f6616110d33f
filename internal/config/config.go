// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/woozymasta/dzglobe/internal/geo"
	"gopkg.in/yaml.v3"
)

// Layer types.
const (
	TypeRaster   = "raster"
	TypeBoundary = "boundary"
)

// DefaultMaxPrimitives is the raster box budget when none is configured.
const DefaultMaxPrimitives = 150000

// Config represents the root configuration file structure.
type Config struct {
	Output        string          `yaml:"output" validate:"required"`
	Layers        []Layer         `yaml:"layers" validate:"required,min=1,unique=Name,dive"`
	Calibration   geo.Calibration `yaml:"calibration"`
	MaxPrimitives int             `yaml:"max_primitives,omitempty" validate:"gte=0"`
}

// Layer represents a single globe layer built from one source file.
type Layer struct {
	Index   *int     `yaml:"index,omitempty" json:"index,omitempty"`
	Opacity *float64 `yaml:"opacity,omitempty" json:"-" validate:"omitempty,gte=0,lte=1"`

	Name   string   `yaml:"name" json:"name" validate:"required,excludesall=/\\,excludes=.."`
	Type   string   `yaml:"type" json:"type" validate:"required,oneof=raster boundary"`
	Source string   `yaml:"source" json:"-" validate:"required"`
	Ramp   []string `yaml:"ramp,omitempty" json:"-" validate:"omitempty,len=2,dive,hexcolor"`
	Color  string   `yaml:"color,omitempty" json:"-" validate:"omitempty,hexcolor"`

	MaxPrimitives int  `yaml:"max_primitives,omitempty" json:"-" validate:"gte=0"`
	PreviewWidth  int  `yaml:"preview_width,omitempty" json:"-" validate:"gte=0"`
	Lenient       bool `yaml:"lenient,omitempty" json:"-"`
	Halo          bool `yaml:"halo,omitempty" json:"-"`
}

// IsRaster reports whether the layer is built from a grid.
func (l Layer) IsRaster() bool {
	return l.Type == TypeRaster
}

// Budget returns the layer's box budget, falling back to def.
func (l Layer) Budget(def int) int {
	if l.MaxPrimitives > 0 {
		return l.MaxPrimitives
	}

	return def
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes and validates a YAML configuration. Unset calibration
// fields keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Config{
		Output:        "layers",
		MaxPrimitives: DefaultMaxPrimitives,
		Calibration:   geo.DefaultCalibration(),
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxPrimitives == 0 {
		cfg.MaxPrimitives = DefaultMaxPrimitives
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
