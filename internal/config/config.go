// Package config loads the morphcloud YAML configuration and applies
// command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/morphcloud/internal/detector"
	"github.com/ayusman/morphcloud/internal/morph"
)

// Config is the full application configuration.
type Config struct {
	Camera    CameraConfig    `yaml:"camera"`
	Detector  detector.Config `yaml:"detector"`
	Particles ParticlesConfig `yaml:"particles"`
	Morph     morph.Config    `yaml:"morph"`
	Server    ServerConfig    `yaml:"server"`
	Window    WindowConfig    `yaml:"window"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Sound     SoundConfig     `yaml:"sound"`

	HooksDir string `yaml:"hooks_dir"`
	DataDir  string `yaml:"data_dir"`
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	DeviceID  int     `yaml:"device_id"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	IdleFPS   int     `yaml:"idle_fps"`
	ActiveFPS int     `yaml:"active_fps"`
	Motion    float64 `yaml:"motion_threshold"` // percent of changed pixels
}

// ParticlesConfig sizes the two shapes.
type ParticlesConfig struct {
	Saturn int    `yaml:"saturn"`
	Heart  int    `yaml:"heart"`
	Seed   uint64 `yaml:"seed"` // 0 picks a random seed
}

// ServerConfig configures the HTTPS live view.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
	CertDir   string `yaml:"cert_dir"`
	TLS       bool   `yaml:"tls"`
	FrameRate int    `yaml:"frame_rate"` // websocket frames per second
}

// WindowConfig configures the desktop window.
type WindowConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Title  string  `yaml:"title"`
	Scale  float64 `yaml:"scale"` // particle group scale
	TPS    int     `yaml:"tps"`
}

// SnapshotConfig sizes rendered stills.
type SnapshotConfig struct {
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
	Supersample int `yaml:"supersample"`
}

// SoundConfig toggles the gesture chime.
type SoundConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"` // 0..1
}

// Default returns the stock configuration. Paths under the data directory
// are left empty and filled in by Resolve.
func Default() Config {
	return Config{
		Camera: CameraConfig{
			Width:     640,
			Height:    480,
			IdleFPS:   5,
			ActiveFPS: 15,
			Motion:    1.0,
		},
		Detector: detector.DefaultConfig(),
		Particles: ParticlesConfig{
			Saturn: 3200,
			Heart:  4800,
		},
		Morph: morph.DefaultConfig(),
		Server: ServerConfig{
			Addr:      ":8443",
			TLS:       true,
			FrameRate: 30,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "morphcloud",
			Scale:  2,
			TPS:    60,
		},
		Snapshot: SnapshotConfig{
			Width:       1024,
			Height:      768,
			Supersample: 2,
		},
		Sound: SoundConfig{Volume: 0.4},
	}
}

// Load reads a YAML file over the defaults and validates the result.
// Keys missing from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.Camera.IdleFPS <= 0 || c.Camera.ActiveFPS < c.Camera.IdleFPS {
		errs = append(errs, fmt.Errorf("camera fps must satisfy 0 < idle <= active, got %d/%d", c.Camera.IdleFPS, c.Camera.ActiveFPS))
	}
	if c.Detector.MaxHands < 1 {
		errs = append(errs, errors.New("detector.max_hands must be at least 1"))
	}
	if c.Particles.Saturn <= 0 || c.Particles.Heart <= 0 {
		errs = append(errs, fmt.Errorf("particle counts must be positive, got %d/%d", c.Particles.Saturn, c.Particles.Heart))
	}
	if err := c.Morph.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("morph: %w", err))
	}
	if c.Server.FrameRate <= 0 {
		errs = append(errs, errors.New("server.frame_rate must be positive"))
	}
	if c.Window.Scale <= 0 {
		errs = append(errs, errors.New("window.scale must be positive"))
	}
	if c.Window.TPS <= 0 {
		errs = append(errs, errors.New("window.tps must be positive"))
	}
	if c.Snapshot.Supersample < 1 {
		errs = append(errs, errors.New("snapshot.supersample must be at least 1"))
	}
	if c.Sound.Volume < 0 || c.Sound.Volume > 1 {
		errs = append(errs, fmt.Errorf("sound.volume must be in [0, 1], got %v", c.Sound.Volume))
	}
	return errors.Join(errs...)
}

// Flags holds CLI flag values that override config file settings.
// Zero values leave the file setting alone.
type Flags struct {
	CameraID  int // negative keeps the file value
	Addr      string
	StaticDir string
	DataDir   string
	Sound     bool
}

// Resolve applies flag overrides and fills in directories that are still
// empty.
func (c *Config) Resolve(flags Flags) {
	if flags.CameraID >= 0 {
		c.Camera.DeviceID = flags.CameraID
	}
	if flags.Addr != "" {
		c.Server.Addr = flags.Addr
	}
	if flags.StaticDir != "" {
		c.Server.StaticDir = flags.StaticDir
	}
	if flags.DataDir != "" {
		c.DataDir = flags.DataDir
	}
	if flags.Sound {
		c.Sound.Enabled = true
	}

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.HooksDir == "" {
		c.HooksDir = filepath.Join(c.DataDir, "hooks")
	}
	if c.Server.CertDir == "" {
		c.Server.CertDir = filepath.Join(c.DataDir, "certs")
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = FindWebDir(c.DataDir)
	}
}

// DBPath returns the SQLite database location.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "morphcloud.db")
}

// SnapshotDir returns where rendered stills are written.
func (c Config) SnapshotDir() string {
	return filepath.Join(c.DataDir, "snapshots")
}

// DefaultDataDir returns ~/.morphcloud, or .morphcloud in the working
// directory when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".morphcloud"
	}
	return filepath.Join(home, ".morphcloud")
}

// FindWebDir searches "web", "../web", "../../web" and <dataDir>/web and
// returns the first existing directory, or "" if none is found.
func FindWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web"}
	if dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, "web"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
