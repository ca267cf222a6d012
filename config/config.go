// Package config loads and validates the declarative bridge configuration.
//
// The document is YAML. A missing or malformed file is fatal at startup; a
// missing optional section simply disables that feature (no static records,
// no TF synchronization, no robot-model import). The loaded structures are
// immutable after Load returns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/vizbridge/errors"
	"github.com/c360/vizbridge/frames"
	"github.com/c360/vizbridge/sink"
)

// Environment variables recognized as overrides.
const (
	EnvNATSURL     = "VIZBRIDGE_NATS_URL"
	EnvSinkURL     = "VIZBRIDGE_SINK_URL"
	EnvPackagePath = "VIZBRIDGE_PACKAGE_PATH"
)

// Duration wraps time.Duration with YAML string parsing ("100ms", "1s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the complete bridge configuration.
type Config struct {
	NATS      NATSConfig      `yaml:"nats"`
	Sink      SinkConfig      `yaml:"sink"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Discovery DiscoveryConfig `yaml:"discovery"`

	// TopicToEntityPath overrides the default topic flattening rule.
	// Absence of a topic is not an error; the flattening rule applies.
	TopicToEntityPath map[string]string `yaml:"topic_to_entity_path"`

	ExtraTransforms []ExtraTransform `yaml:"extra_transform3ds"`
	ExtraPinholes   []ExtraPinhole   `yaml:"extra_pinholes"`
	TF              TFConfig         `yaml:"tf"`
	URDF            URDFConfig       `yaml:"urdf"`
}

// NATSConfig defines the bus connection.
type NATSConfig struct {
	URL           string   `yaml:"url"`
	Name          string   `yaml:"name"`
	MaxReconnects int      `yaml:"max_reconnects"`
	ReconnectWait Duration `yaml:"reconnect_wait"`
}

// SinkConfig defines the visualization sink endpoint.
type SinkConfig struct {
	URL string `yaml:"url"`
}

// MetricsConfig defines the Prometheus exposition endpoint. An empty listen
// address disables the endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// DiscoveryConfig drives periodic topic discovery on the bus.
type DiscoveryConfig struct {
	Interval Duration `yaml:"interval"`
	Prefix   string   `yaml:"prefix"`
}

// ExtraTransform is a static rigid transform logged once at startup. The
// transform is a 16-element row-major 4x4 matrix; FromParent indicates the
// direction of the mapping.
type ExtraTransform struct {
	EntityPath string    `yaml:"entity_path"`
	Transform  []float64 `yaml:"transform"`
	FromParent bool      `yaml:"from_parent"`
}

// Record converts the row-major 4x4 into the sink's translation +
// column-major 3x3 representation.
func (e ExtraTransform) Record() sink.Transform3D {
	m := e.Transform
	rotation := sink.ColumnMajor3x3([9]float64{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	})
	return sink.Transform3D{
		Translation: [3]float64{m[3], m[7], m[11]},
		Mat3x3:      &rotation,
		FromParent:  e.FromParent,
	}
}

// ExtraPinhole is a static camera calibration logged once at startup.
// ImageFromCamera is a 9-element row-major 3x3 intrinsic matrix.
type ExtraPinhole struct {
	EntityPath      string    `yaml:"entity_path"`
	ImageFromCamera []float64 `yaml:"image_from_camera"`
	Width           uint32    `yaml:"width"`
	Height          uint32    `yaml:"height"`
}

// Record converts the row-major intrinsics into the sink's column-major form.
func (e ExtraPinhole) Record() sink.Pinhole {
	var rowMajor [9]float64
	copy(rowMajor[:], e.ImageFromCamera)
	return sink.Pinhole{
		ImageFromCamera: sink.ColumnMajor3x3(rowMajor),
		Width:           e.Width,
		Height:          e.Height,
	}
}

// TFConfig drives frame-graph construction and the synchronization loop.
type TFConfig struct {
	// UpdateRate is the synchronization frequency in Hz; 0 disables the loop.
	UpdateRate float64 `yaml:"update_rate"`

	// Lookback is how far in the past interpolated transforms are queried.
	// Transform history lags the present instant; querying slightly in the
	// past trades a small latency for availability. Frames updating slower
	// than this window never interpolate (accepted limitation).
	Lookback Duration `yaml:"lookback"`

	// Tolerance bounds how far a buffered sample may be from the requested
	// instant before a lookup fails.
	Tolerance Duration `yaml:"tolerance"`

	// Tree is the nested frame tree; exactly one top-level key, the root.
	Tree frames.Tree `yaml:"tree"`
}

// URDFConfig is an optional one-time robot-model import.
type URDFConfig struct {
	EntityPath string `yaml:"entity_path"`
	FilePath   string `yaml:"file_path"`
}

// Load reads, parses, defaults, env-overrides, and validates the document at
// path. All errors are fatal-class: the process cannot produce a coherent
// frame graph without a valid configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "config", "Load", "reading configuration file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapFatal(err, "config", "Load", "parsing configuration document")
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://localhost:4222"
	}
	if c.NATS.Name == "" {
		c.NATS.Name = "vizbridge"
	}
	if c.NATS.MaxReconnects == 0 {
		c.NATS.MaxReconnects = -1
	}
	if c.NATS.ReconnectWait == 0 {
		c.NATS.ReconnectWait = Duration(2 * time.Second)
	}
	if c.Discovery.Interval == 0 {
		c.Discovery.Interval = Duration(100 * time.Millisecond)
	}
	if c.Discovery.Prefix == "" {
		c.Discovery.Prefix = "ros"
	}
	if c.TF.Lookback == 0 {
		c.TF.Lookback = Duration(time.Second)
	}
	if c.TF.Tolerance == 0 {
		c.TF.Tolerance = Duration(100 * time.Millisecond)
	}
}

func (c *Config) applyEnvOverrides() {
	if val := os.Getenv(EnvNATSURL); val != "" {
		c.NATS.URL = val
	}
	if val := os.Getenv(EnvSinkURL); val != "" {
		c.Sink.URL = val
	}
}

// Validate checks the configuration for startup-fatal problems.
func (c *Config) Validate() error {
	if c.Sink.URL == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "config", "Validate", "sink.url validation")
	}
	if c.TF.UpdateRate < 0 {
		return errors.WrapFatal(
			fmt.Errorf("tf.update_rate must be >= 0, got %v: %w", c.TF.UpdateRate, errors.ErrInvalidConfig),
			"config", "Validate", "tf.update_rate validation")
	}
	if len(c.TF.Tree) > 1 {
		return errors.WrapFatal(
			fmt.Errorf("tf.tree must have exactly one root frame, got %d: %w", len(c.TF.Tree), errors.ErrInvalidConfig),
			"config", "Validate", "tf.tree validation")
	}
	for i, tf := range c.ExtraTransforms {
		if tf.EntityPath == "" {
			return errors.WrapFatal(
				fmt.Errorf("extra_transform3ds[%d] missing entity_path: %w", i, errors.ErrInvalidConfig),
				"config", "Validate", "extra transform validation")
		}
		if len(tf.Transform) != 16 {
			return errors.WrapFatal(
				fmt.Errorf("extra_transform3ds[%d] transform must have 16 elements, got %d: %w",
					i, len(tf.Transform), errors.ErrInvalidConfig),
				"config", "Validate", "extra transform validation")
		}
	}
	for i, ph := range c.ExtraPinholes {
		if ph.EntityPath == "" {
			return errors.WrapFatal(
				fmt.Errorf("extra_pinholes[%d] missing entity_path: %w", i, errors.ErrInvalidConfig),
				"config", "Validate", "extra pinhole validation")
		}
		if len(ph.ImageFromCamera) != 9 {
			return errors.WrapFatal(
				fmt.Errorf("extra_pinholes[%d] image_from_camera must have 9 elements, got %d: %w",
					i, len(ph.ImageFromCamera), errors.ErrInvalidConfig),
				"config", "Validate", "extra pinhole validation")
		}
	}
	if c.URDF.FilePath != "" && c.URDF.EntityPath == "" {
		return errors.WrapFatal(
			fmt.Errorf("urdf.entity_path required when urdf.file_path is set: %w", errors.ErrInvalidConfig),
			"config", "Validate", "urdf validation")
	}
	return nil
}

// ResolveModelPath resolves a robot-model location. "package://<pkg>/<rest>"
// is searched under each directory in the EnvPackagePath list, "file://" is
// stripped, anything else is taken literally. An explicitly specified but
// unresolvable package path is fatal.
func ResolveModelPath(path string) (string, error) {
	switch {
	case strings.HasPrefix(path, "package://"):
		rest := strings.TrimPrefix(path, "package://")
		pkg, relative, found := strings.Cut(rest, "/")
		if !found || pkg == "" {
			return "", errors.WrapFatal(
				fmt.Errorf("malformed package path %q: %w", path, errors.ErrInvalidConfig),
				"config", "ResolveModelPath", "package path parsing")
		}
		for _, dir := range filepath.SplitList(os.Getenv(EnvPackagePath)) {
			if dir == "" {
				continue
			}
			candidate := filepath.Join(dir, pkg, relative)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		return "", errors.WrapFatal(
			fmt.Errorf("could not resolve %q; replace with an absolute path, set %s, or install %s",
				path, EnvPackagePath, pkg),
			"config", "ResolveModelPath", "package resolution")
	case strings.HasPrefix(path, "file://"):
		return strings.TrimPrefix(path, "file://"), nil
	default:
		return path, nil
	}
}
