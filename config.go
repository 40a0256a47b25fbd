package fitstream

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AspectSource says where the target aspect ratio comes from: the current
// screen size, or an explicit value.
type AspectSource struct {
	Screen bool
	Value  float64
}

// ScreenAspect follows the screen size reported to the pump.
var ScreenAspect = AspectSource{Screen: true}

// FixedAspect returns an explicit target aspect.
func FixedAspect(v float64) AspectSource {
	return AspectSource{Value: v}
}

// ParseAspectSource accepts "screen", a decimal ("1.7778") or a ratio ("16:9").
func ParseAspectSource(s string) (AspectSource, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "screen") {
		return ScreenAspect, nil
	}
	var v float64
	if w, h, ok := strings.Cut(s, ":"); ok {
		fw, err1 := strconv.ParseFloat(strings.TrimSpace(w), 64)
		fh, err2 := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err1 != nil || err2 != nil || fh == 0 {
			return AspectSource{}, fmt.Errorf("aspect %q: %w", s, ErrInvalidConfig)
		}
		v = fw / fh
	} else {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return AspectSource{}, fmt.Errorf("aspect %q: %w", s, ErrInvalidConfig)
		}
		v = f
	}
	a := FixedAspect(v)
	if err := a.validate(); err != nil {
		return AspectSource{}, err
	}
	return a, nil
}

func (a AspectSource) validate() error {
	if a.Screen {
		return nil
	}
	if !(a.Value > 0) || math.IsInf(a.Value, 0) {
		return fmt.Errorf("aspect %v: %w", a.Value, ErrInvalidConfig)
	}
	return nil
}

func (a AspectSource) String() string {
	if a.Screen {
		return "screen"
	}
	return strconv.FormatFloat(a.Value, 'g', -1, 64)
}

// Set implements the pflag.Value interface.
func (a *AspectSource) Set(s string) error {
	v, err := ParseAspectSource(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Type implements the pflag.Value interface.
func (a *AspectSource) Type() string { return "aspect" }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AspectSource) UnmarshalText(b []byte) error { return a.Set(string(b)) }

// MarshalText writes "screen" or the numeric value.
func (a AspectSource) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// Config is the recognized option set of a Pump.
type Config struct {
	Mode            FitMode      `yaml:"mode"`
	Pan             Vec2         `yaml:"pan"`
	RotationDegrees float64      `yaml:"rotation_degrees"`
	TargetAspect    AspectSource `yaml:"target_aspect"`
	// AspectTolerance is the change below which OnAspectChanged stays quiet.
	// Zero compares aspects exactly.
	AspectTolerance float64 `yaml:"aspect_tolerance"`
	// SnapshotDir is where Pump.Snapshot writes PNG files.
	SnapshotDir string `yaml:"snapshot_dir"`
}

// DefaultConfig returns trim mode against the screen aspect with no pan or
// rotation.
func DefaultConfig() Config {
	return Config{
		Mode:         FitTrim,
		TargetAspect: ScreenAspect,
		SnapshotDir:  "snapshots",
	}
}

// ParseConfig reads YAML (or JSON) over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field against its domain.
func (c Config) Validate() error {
	switch c.Mode {
	case FitTrim, FitAdapt, FitIdentity:
	default:
		return fmt.Errorf("config mode %v: %w", c.Mode, ErrInvalidConfig)
	}
	if !finite(c.Pan.X) || !finite(c.Pan.Y) {
		return fmt.Errorf("config pan %v: %w", c.Pan, ErrInvalidConfig)
	}
	if !finite(c.RotationDegrees) {
		return fmt.Errorf("config rotation %v: %w", c.RotationDegrees, ErrInvalidConfig)
	}
	if err := c.TargetAspect.validate(); err != nil {
		return fmt.Errorf("config target aspect: %w", err)
	}
	if !(c.AspectTolerance >= 0) || math.IsInf(c.AspectTolerance, 0) {
		return fmt.Errorf("config aspect tolerance %v: %w", c.AspectTolerance, ErrInvalidConfig)
	}
	return nil
}

// UnmarshalYAML accepts any scalar, so both `target_aspect: 1.5` and
// `target_aspect: "16:9"` work.
func (a *AspectSource) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("target aspect: line %d: expected a scalar: %w", value.Line, ErrInvalidConfig)
	}
	return a.Set(value.Value)
}

// UnmarshalYAML reads a mode name.
func (m *FitMode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("mode: line %d: expected a scalar: %w", value.Line, ErrInvalidConfig)
	}
	return m.Set(value.Value)
}
