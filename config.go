// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshsmooth

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/meshsmooth/mesh"
)

// Device selectors.
const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceGPU  = "gpu"
)

// Config holds the settings of a pipeline run. The zero value is not
// valid; start from DefaultConfig.
type Config struct {
	// Device selects the compute backend: "auto", "cpu" or "gpu".
	Device string `toml:"device"`

	// Passes is the number of smoothing passes after init. 0 runs init only.
	Passes int `toml:"passes"`

	// Lambda is the smoothing step, in [0, 1].
	Lambda float32 `toml:"lambda"`

	// WaitTimeout bounds the final wait. 0 waits forever.
	WaitTimeout Duration `toml:"wait_timeout"`

	// Readback copies the final positions into Report.Positions.
	Readback bool `toml:"readback"`

	// Workers sizes the CPU backend pool. 0 uses GOMAXPROCS.
	Workers int `toml:"workers"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	Mesh MeshConfig `toml:"mesh"`
}

// MeshConfig selects the mesh source: a file path or a primitive.
type MeshConfig struct {
	Path      string  `toml:"path"`
	Primitive string  `toml:"primitive"`
	Size      float64 `toml:"size"`
	Cells     int     `toml:"cells"`
}

// Source returns the configured mesh source. Path wins over Primitive.
func (c MeshConfig) Source() (mesh.Source, error) {
	switch {
	case c.Path != "":
		return mesh.FileSource{Path: c.Path}, nil
	case c.Primitive != "":
		return mesh.Primitive{Shape: c.Primitive, Size: c.Size, Cells: c.Cells}, nil
	default:
		return nil, fmt.Errorf("%w: no mesh path or primitive", ErrConfig)
	}
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		Device:   DeviceAuto,
		Lambda:   0.5,
		LogLevel: "info",
	}
}

// Validate checks c for out-of-range values.
func (c *Config) Validate() error {
	switch c.Device {
	case DeviceAuto, DeviceCPU, DeviceGPU:
	default:
		return fmt.Errorf("%w: device %q", ErrConfig, c.Device)
	}
	if c.Passes < 0 {
		return fmt.Errorf("%w: passes %d < 0", ErrConfig, c.Passes)
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("%w: lambda %v outside [0, 1]", ErrConfig, c.Lambda)
	}
	if c.WaitTimeout < 0 {
		return fmt.Errorf("%w: negative wait timeout", ErrConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d < 0", ErrConfig, c.Workers)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrConfig, c.LogLevel)
	}
	if c.Mesh.Cells < 0 {
		return fmt.Errorf("%w: cells %d < 0", ErrConfig, c.Mesh.Cells)
	}
	return nil
}

// LoadConfig reads a TOML file over DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	defer f.Close()
	return DecodeConfig(f)
}

// DecodeConfig decodes TOML from r over DefaultConfig and validates it.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	d := toml.NewDecoder(r)
	d.DisallowUnknownFields()
	if err := d.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfig, strict.String())
		}
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Duration is a time.Duration written as a string ("250ms", "10s") in
// TOML.
type Duration time.Duration

// UnmarshalText parses a time.ParseDuration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats d with time.Duration.String.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) String() string { return time.Duration(d).String() }
