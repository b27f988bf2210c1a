package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"forceview/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Server.Addr != ":3000" {
		t.Errorf("Server.Addr = %s, want :3000", cfg.Server.Addr)
	}
	if cfg.Database.Path == "" {
		t.Error("Database.Path should not be empty")
	}
	if cfg.View.Width != 928 || cfg.View.Height != 680 {
		t.Errorf("View size = %gx%g, want 928x680", cfg.View.Width, cfg.View.Height)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestViewRoutes(t *testing.T) {
	routes := DefaultConfig().ViewRoutes()

	tests := []struct {
		node domain.Node
		want string
	}{
		{*domain.NewNode("A1", "Ada", domain.GroupAuthor), "/authors/A1"},
		{*domain.NewNode("O7", "Notes", domain.GroupOutput), "/outputs/O7"},
	}

	for _, tt := range tests {
		got, err := routes.Resolve(tt.node)
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", tt.node.ID, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%s) = %s, want %s", tt.node.ID, got, tt.want)
		}
	}
}

func TestViewConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.View.FrameInterval = Duration(40 * time.Millisecond)
	cfg.View.Seed = 7

	vc := cfg.ViewConfig()

	if vc.FrameInterval != 40*time.Millisecond {
		t.Errorf("FrameInterval = %s, want 40ms", vc.FrameInterval)
	}
	if vc.Seed != 7 {
		t.Errorf("Seed = %d, want 7", vc.Seed)
	}
	if vc.ReheatTarget != 0.3 {
		t.Errorf("ReheatTarget = %g, want 0.3", vc.ReheatTarget)
	}
}

func TestLoadFromPathYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	content := `
server:
  addr: ":8080"
database:
  path: /var/lib/forceview.db
snapshot:
  path: ./graph.yaml
  watch: true
view:
  width: 600
  frame_interval: 50ms
routes:
  author: /people/
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if loaded != path {
		t.Errorf("path = %s, want %s", loaded, path)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %s, want :8080", cfg.Server.Addr)
	}
	if !cfg.Snapshot.Watch || cfg.Snapshot.Path != "./graph.yaml" {
		t.Errorf("Snapshot = %+v", cfg.Snapshot)
	}
	if cfg.View.Width != 600 {
		t.Errorf("View.Width = %g, want 600", cfg.View.Width)
	}
	// Unset fields fall back to defaults
	if cfg.View.Height != 680 {
		t.Errorf("View.Height = %g, want default 680", cfg.View.Height)
	}
	if cfg.View.FrameInterval.Duration() != 50*time.Millisecond {
		t.Errorf("FrameInterval = %s, want 50ms", cfg.View.FrameInterval.Duration())
	}
	if cfg.Routes.Author != "/people/" || cfg.Routes.Output != "/outputs/" {
		t.Errorf("Routes = %+v", cfg.Routes)
	}
}

func TestLoadFromPathTOML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	content := `
[server]
addr = ":9090"
shutdown_timeout = "3s"

[view]
charge_strength = -60.0
ticks_per_frame = 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %s, want :9090", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout.Duration() != 3*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 3s", cfg.Server.ShutdownTimeout.Duration())
	}
	if cfg.View.ChargeStrength != -60 || cfg.View.TicksPerFrame != 2 {
		t.Errorf("View = %+v", cfg.View)
	}
}

func TestLoadFromPathErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, _, err := LoadFromPath(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("view: [unclosed"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadFromPath(bad); err == nil {
		t.Error("expected parse error")
	}

	badDuration := filepath.Join(tmpDir, "dur.yaml")
	if err := os.WriteFile(badDuration, []byte("view:\n  frame_interval: soon\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadFromPath(badDuration); err == nil {
		t.Error("expected duration parse error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := DefaultConfig()
			cfg.Server.Addr = ":4000"
			cfg.View.FrameInterval = Duration(25 * time.Millisecond)

			if err := cfg.Save(path); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, _, err := LoadFromPath(path)
			if err != nil {
				t.Fatalf("LoadFromPath failed: %v", err)
			}
			if loaded.Server.Addr != ":4000" {
				t.Errorf("Server.Addr = %s, want :4000", loaded.Server.Addr)
			}
			if loaded.View.FrameInterval.Duration() != 25*time.Millisecond {
				t.Errorf("FrameInterval = %s, want 25ms", loaded.View.FrameInterval.Duration())
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvAddr:     ":7000",
		EnvSnapshot: "/data/graph.json",
		EnvWatch:    "true",
		EnvWidth:    "1200",
		EnvSeed:     "42",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %s", cfg.Server.Addr)
	}
	if cfg.Snapshot.Path != "/data/graph.json" || !cfg.Snapshot.Watch {
		t.Errorf("Snapshot = %+v", cfg.Snapshot)
	}
	if cfg.View.Width != 1200 || cfg.View.Height != 680 {
		t.Errorf("View size = %gx%g", cfg.View.Width, cfg.View.Height)
	}
	if cfg.View.Seed != 42 {
		t.Errorf("Seed = %d", cfg.View.Seed)
	}
	if cfg.Database.Path != "./forceview.db" {
		t.Errorf("Database.Path changed to %s", cfg.Database.Path)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := map[string]string{
		EnvWatch:  "sometimes",
		EnvWidth:  "wide",
		EnvHeight: "tall",
		EnvSeed:   "-1",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == key {
					return value, true
				}
				return "", false
			}
			err := DefaultConfig().ApplyEnv(lookup)
			if err == nil || !strings.Contains(err.Error(), key) {
				t.Errorf("expected error naming %s, got %v", key, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative width", func(c *Config) { c.View.Width = -1 }},
		{"reheat above one", func(c *Config) { c.View.ReheatTarget = 2 }},
		{"too many ticks per frame", func(c *Config) { c.View.TicksPerFrame = 1000 }},
		{"relative route", func(c *Config) { c.Routes.Output = "outputs/" }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "explicit.toml")
	if err := os.WriteFile(path, []byte("version = 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv(EnvConfigPath, path)
	if got := FindConfigPath(); got != path {
		t.Errorf("FindConfigPath() = %s, want %s", got, path)
	}

	xdg := filepath.Join(tmpDir, "xdg")
	xdgPath := filepath.Join(xdg, ConfigDirName, "config.toml")
	if err := EnsureConfigDir(xdgPath); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(xdgPath, []byte("version = 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(tmpDir)
	if got := FindConfigPath(); got != xdgPath {
		t.Errorf("FindConfigPath() = %s, want %s", got, xdgPath)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	var parsed Duration
	if err := parsed.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if parsed.Duration() != 90*time.Second {
		t.Errorf("parsed = %s, want 1m30s", parsed.Duration())
	}
	if err := parsed.UnmarshalText([]byte("later")); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestSummary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Snapshot.Path = "graph.yaml"
	cfg.Snapshot.Watch = true

	s := cfg.Summary()
	if !strings.Contains(s, "snapshot graph.yaml (watched)") {
		t.Errorf("Summary missing snapshot source: %s", s)
	}
}

func TestViewSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "forceview.yaml")
	tomlPath := filepath.Join(dir, "forceview.toml")
	if err := os.WriteFile(yamlPath, []byte("view:\n  node_radius: 8\n  frame_interval: 40ms\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tomlPath, []byte("[view]\nnode_radius = 8\nframe_interval = \"40ms\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{yamlPath, tomlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg, _, err := LoadFromPath(path)
			if err != nil {
				t.Fatalf("LoadFromPath failed: %v", err)
			}
			vc := cfg.ViewConfig()
			if vc.NodeRadius != 8 {
				t.Errorf("NodeRadius = %v, want 8", vc.NodeRadius)
			}
			if vc.FrameInterval != 40*time.Millisecond {
				t.Errorf("FrameInterval = %s, want 40ms", vc.FrameInterval)
			}
			if vc.Width != 928 {
				t.Errorf("Width = %v, want default 928", vc.Width)
			}
		})
	}
}
