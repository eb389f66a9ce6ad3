package main

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var defaultConfig []byte

var errInvalidConfig = errors.New("invalid config")

type config struct {
	HostSelector    string       `yaml:"host_selector"`
	SourceAttribute string       `yaml:"source_attribute"`
	LogLevel        string       `yaml:"log_level"`
	Assets          assetConfig  `yaml:"assets"`
	Camera          cameraConfig `yaml:"camera"`
	Render          renderConfig `yaml:"render"`
}

type assetConfig struct {
	URL      string `yaml:"url"`
	Cache    bool   `yaml:"cache"`
	CacheDB  string `yaml:"cache_db"`
	CacheKey string `yaml:"cache_key"`
}

type cameraConfig struct {
	Yaw         float64 `yaml:"yaw"`
	Pitch       float64 `yaml:"pitch"`
	Distance    float64 `yaml:"distance"`
	MinDistance float64 `yaml:"min_distance"`
	MaxDistance float64 `yaml:"max_distance"`
	Sensitivity float64 `yaml:"sensitivity"`
}

type renderConfig struct {
	FOV        float64    `yaml:"fov"` // degrees
	Near       float64    `yaml:"near"`
	Far        float64    `yaml:"far"`
	Grid       bool       `yaml:"grid"`
	GridColor  [3]float32 `yaml:"grid_color"`
	ClearColor [4]float32 `yaml:"clear_color"`
}

// loadConfig decodes the embedded defaults and merges the optional override
// document over them. Unknown keys in the override are rejected.
func loadConfig(override []byte) (*config, error) {
	c := &config{}
	if err := yaml.Unmarshal(defaultConfig, c); err != nil {
		return nil, fmt.Errorf("parsing default config: %w", err)
	}
	if len(bytes.TrimSpace(override)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(override))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *config) validate() error {
	switch {
	case c.HostSelector == "":
		return fmt.Errorf("%w: host_selector is empty", errInvalidConfig)
	case c.SourceAttribute == "":
		return fmt.Errorf("%w: source_attribute is empty", errInvalidConfig)
	case c.Assets.URL == "":
		return fmt.Errorf("%w: assets.url is empty", errInvalidConfig)
	case c.Assets.Cache && (c.Assets.CacheDB == "" || c.Assets.CacheKey == ""):
		return fmt.Errorf("%w: assets.cache_db and assets.cache_key are required with assets.cache", errInvalidConfig)
	case c.Camera.MinDistance <= 0:
		return fmt.Errorf("%w: camera.min_distance must be positive", errInvalidConfig)
	case c.Camera.MinDistance > c.Camera.MaxDistance:
		return fmt.Errorf("%w: camera.min_distance %g > camera.max_distance %g",
			errInvalidConfig, c.Camera.MinDistance, c.Camera.MaxDistance)
	case c.Camera.Sensitivity <= 0:
		return fmt.Errorf("%w: camera.sensitivity must be positive", errInvalidConfig)
	case c.Render.FOV <= 0 || c.Render.FOV >= 180:
		return fmt.Errorf("%w: render.fov must be in (0, 180)", errInvalidConfig)
	case c.Render.Near <= 0 || c.Render.Near >= c.Render.Far:
		return fmt.Errorf("%w: render.near must be in (0, render.far)", errInvalidConfig)
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log_level: %v", errInvalidConfig, err)
	}
	return nil
}
