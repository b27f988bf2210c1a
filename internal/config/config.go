// Package config provides configuration management for forceview.
//
// Config file locations (priority order):
//  1. $FORCEVIEW_CONFIG
//  2. ./forceview.yaml or ./forceview.toml
//  3. ~/.config/forceview/config.yaml
//  4. /etc/forceview/config.yaml
//
// Files ending in .toml are decoded as TOML, everything else as YAML.
// FORCEVIEW_* environment variables override file values; command-line
// flags override both and are applied by the caller.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"forceview/internal/domain"
	"forceview/internal/view"
)

// Environment variables read by ApplyEnv
const (
	EnvAddr     = "FORCEVIEW_ADDR"
	EnvDatabase = "FORCEVIEW_DB"
	EnvSnapshot = "FORCEVIEW_SNAPSHOT"
	EnvWatch    = "FORCEVIEW_WATCH"
	EnvWidth    = "FORCEVIEW_WIDTH"
	EnvHeight   = "FORCEVIEW_HEIGHT"
	EnvSeed     = "FORCEVIEW_SEED"
)

var validate = validator.New()

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, path, fmt.Errorf("parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path in the format its extension names
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(c); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
	}

	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	v := view.DefaultConfig()
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr:            ":3000",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Database: DatabaseConfig{Path: "./forceview.db"},
		View: ViewConfig{
			Width:          v.Width,
			Height:         v.Height,
			NodeRadius:     v.NodeRadius,
			LinkDistance:   v.LinkDistance,
			ChargeStrength: v.ChargeStrength,
			CenterStrength: v.CenterStrength,
			ReheatTarget:   v.ReheatTarget,
			Seed:           v.Seed,
			FrameInterval:  Duration(v.FrameInterval),
			TicksPerFrame:  v.TicksPerFrame,
			PublishRate:    v.PublishRate,
		},
		Routes: RoutesConfig{
			Author: "/authors/",
			Output: "/outputs/",
		},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Routes.Author == "" {
		c.Routes.Author = d.Routes.Author
	}
	if c.Routes.Output == "" {
		c.Routes.Output = d.Routes.Output
	}

	v, dv := &c.View, d.View
	if v.Width == 0 {
		v.Width = dv.Width
	}
	if v.Height == 0 {
		v.Height = dv.Height
	}
	if v.NodeRadius == 0 {
		v.NodeRadius = dv.NodeRadius
	}
	if v.LinkDistance == 0 {
		v.LinkDistance = dv.LinkDistance
	}
	if v.ChargeStrength == 0 {
		v.ChargeStrength = dv.ChargeStrength
	}
	if v.CenterStrength == 0 {
		v.CenterStrength = dv.CenterStrength
	}
	if v.ReheatTarget == 0 {
		v.ReheatTarget = dv.ReheatTarget
	}
	if v.Seed == 0 {
		v.Seed = dv.Seed
	}
	if v.FrameInterval == 0 {
		v.FrameInterval = dv.FrameInterval
	}
	if v.TicksPerFrame == 0 {
		v.TicksPerFrame = dv.TicksPerFrame
	}
	if v.PublishRate == 0 {
		v.PublishRate = dv.PublishRate
	}
}

// ApplyEnv overrides values from FORCEVIEW_* variables found by lookup
// (usually os.LookupEnv)
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvDatabase); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup(EnvSnapshot); ok {
		c.Snapshot.Path = v
	}
	if v, ok := lookup(EnvWatch); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWatch, err)
		}
		c.Snapshot.Watch = b
	}
	if v, ok := lookup(EnvWidth); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWidth, err)
		}
		c.View.Width = f
	}
	if v, ok := lookup(EnvHeight); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeight, err)
		}
		c.View.Height = f
	}
	if v, ok := lookup(EnvSeed); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.View.Seed = n
	}
	return nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ViewConfig returns the controller configuration of the default view
func (c *Config) ViewConfig() view.Config {
	v := c.View
	return view.Config{
		Width:          v.Width,
		Height:         v.Height,
		NodeRadius:     v.NodeRadius,
		LinkDistance:   v.LinkDistance,
		ChargeStrength: v.ChargeStrength,
		CenterStrength: v.CenterStrength,
		ReheatTarget:   v.ReheatTarget,
		Seed:           v.Seed,
		FrameInterval:  v.FrameInterval.Duration(),
		TicksPerFrame:  v.TicksPerFrame,
		PublishRate:    v.PublishRate,
	}
}

// ViewRoutes returns the double-click route table
func (c *Config) ViewRoutes() view.Routes {
	return view.Routes{
		domain.GroupAuthor: c.Routes.Author,
		domain.GroupOutput: c.Routes.Output,
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	source := "database " + c.Database.Path
	if c.Snapshot.Path != "" {
		source = "snapshot " + c.Snapshot.Path
		if c.Snapshot.Watch {
			source += " (watched)"
		}
	}

	summary := fmt.Sprintf("Listen: %s, Source: %s\n", c.Server.Addr, source)
	summary += fmt.Sprintf("View: %gx%g, link distance %g, charge %g, seed %d\n",
		c.View.Width, c.View.Height, c.View.LinkDistance, c.View.ChargeStrength, c.View.Seed)
	summary += fmt.Sprintf("Routes: author=%s output=%s", c.Routes.Author, c.Routes.Output)

	return summary
}
