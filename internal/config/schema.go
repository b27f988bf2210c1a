package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version" toml:"version"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Snapshot SnapshotConfig `yaml:"snapshot" toml:"snapshot"`
	View     ViewConfig     `yaml:"view" toml:"view"`
	Routes   RoutesConfig   `yaml:"routes" toml:"routes"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string   `yaml:"addr" toml:"addr" validate:"required"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// SnapshotConfig selects a JSON or YAML snapshot file as the graph source.
// When Path is empty the graph is read from the database.
type SnapshotConfig struct {
	Path  string `yaml:"path,omitempty" toml:"path,omitempty"`
	Watch bool   `yaml:"watch" toml:"watch"`
}

// ViewConfig holds layout and pacing of the default view
type ViewConfig struct {
	Width          float64  `yaml:"width" toml:"width" validate:"gt=0"`
	Height         float64  `yaml:"height" toml:"height" validate:"gt=0"`
	NodeRadius     float64  `yaml:"node_radius" toml:"node_radius" validate:"gt=0"`
	LinkDistance   float64  `yaml:"link_distance" toml:"link_distance" validate:"gt=0"`
	ChargeStrength float64  `yaml:"charge_strength" toml:"charge_strength"`
	CenterStrength float64  `yaml:"center_strength" toml:"center_strength" validate:"gte=0,lte=1"`
	ReheatTarget   float64  `yaml:"reheat_target" toml:"reheat_target" validate:"gt=0,lte=1"`
	Seed           uint64   `yaml:"seed" toml:"seed"`
	FrameInterval  Duration `yaml:"frame_interval" toml:"frame_interval"`
	TicksPerFrame  int      `yaml:"ticks_per_frame" toml:"ticks_per_frame" validate:"gte=1,lte=300"`
	PublishRate    float64  `yaml:"publish_rate" toml:"publish_rate" validate:"gt=0"`
}

// RoutesConfig holds the detail page prefix per node group
type RoutesConfig struct {
	Author string `yaml:"author" toml:"author" validate:"required,startswith=/"`
	Output string `yaml:"output" toml:"output" validate:"required,startswith=/"`
}

// Duration wraps time.Duration for YAML and TOML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
