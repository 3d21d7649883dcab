package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownEffect is returned by Validate for an effect kind nothing can build
var ErrUnknownEffect = errors.New("unknown effect")

// EffectKind identifies an effect stage
type EffectKind string

const (
	EffectHarmonizer EffectKind = "harmonizer"
	EffectShadow     EffectKind = "shadow"
	EffectFreeze     EffectKind = "freeze"
	EffectPedal      EffectKind = "pedal"
	EffectAutotune   EffectKind = "autotune"
	EffectChopper    EffectKind = "chopper"
)

// Known reports whether k names a buildable effect
func (k EffectKind) Known() bool {
	switch k {
	case EffectHarmonizer, EffectShadow, EffectFreeze, EffectPedal, EffectAutotune, EffectChopper:
		return true
	}
	return false
}

// EffectConfig defines one effect stage. Only the fields of its kind are read.
type EffectConfig struct {
	Kind              EffectKind `json:"kind" yaml:"kind"`
	Voices            []int      `json:"voices,omitempty" yaml:"voices,omitempty"`           // harmonizer
	Period            int        `json:"period,omitempty" yaml:"period,omitempty"`           // shadow
	Repeat            int        `json:"repeat,omitempty" yaml:"repeat,omitempty"`           // shadow
	Decay             *float64   `json:"decay,omitempty" yaml:"decay,omitempty"`             // shadow
	Scale             []int      `json:"scale,omitempty" yaml:"scale,omitempty"`             // autotune
	Autocorrect       bool       `json:"autocorrect,omitempty" yaml:"autocorrect,omitempty"` // autotune
	SuppressRetrigger bool       `json:"suppressRetrigger,omitempty" yaml:"suppressRetrigger,omitempty"`
}

// SequencerConfig holds the sequencer's settings
type SequencerConfig struct {
	Enabled     bool `json:"enabled" yaml:"enabled"`
	Count       int  `json:"count,omitempty" yaml:"count,omitempty"`
	Subdivision int  `json:"subdivision,omitempty" yaml:"subdivision,omitempty"`
	CountIn     *int `json:"countIn,omitempty" yaml:"countIn,omitempty"`
	Resolution  int  `json:"resolution,omitempty" yaml:"resolution,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette   string `json:"palette,omitempty" yaml:"palette,omitempty"` // GIMP .gpl file
	ShowClock bool   `json:"showClock,omitempty" yaml:"showClock,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Input      string          `json:"input,omitempty" yaml:"input,omitempty"`
	ClockInput string          `json:"clockInput,omitempty" yaml:"clockInput,omitempty"`
	Outputs    []string        `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Chain      []EffectConfig  `json:"chain,omitempty" yaml:"chain,omitempty"`
	Loop       []EffectConfig  `json:"loop,omitempty" yaml:"loop,omitempty"`
	Sequencer  SequencerConfig `json:"sequencer" yaml:"sequencer"`
	UI         UIConfig        `json:"ui,omitempty" yaml:"ui,omitempty"`
	PatternDir string          `json:"patternDir,omitempty" yaml:"patternDir,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	countIn := 2
	return &Config{
		Sequencer: SequencerConfig{
			Enabled:     true,
			Count:       4,
			Subdivision: 4,
			CountIn:     &countIn,
			Resolution:  6,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-morp"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	cfg, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// LoadFile reads a config file. .yaml and .yml files are YAML, anything
// else is JSON. Missing sequencer settings take their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func (c *Config) applyDefaults() {
	def := DefaultConfig().Sequencer
	if c.Sequencer.Count <= 0 {
		c.Sequencer.Count = def.Count
	}
	if c.Sequencer.Subdivision <= 0 {
		c.Sequencer.Subdivision = def.Subdivision
	}
	if c.Sequencer.CountIn == nil {
		c.Sequencer.CountIn = def.CountIn
	}
	if c.Sequencer.Resolution <= 0 {
		c.Sequencer.Resolution = def.Resolution
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, as YAML or JSON by extension
func (c *Config) SaveFile(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every effect stage can be built
func (c *Config) Validate() error {
	for i, fx := range c.Chain {
		if !fx.Kind.Known() {
			return fmt.Errorf("chain[%d]: %w %q", i, ErrUnknownEffect, fx.Kind)
		}
	}
	for i, fx := range c.Loop {
		if !fx.Kind.Known() {
			return fmt.Errorf("loop[%d]: %w %q", i, ErrUnknownEffect, fx.Kind)
		}
	}
	return nil
}

// CountInMeasures returns the configured count-in in measures
func (s SequencerConfig) CountInMeasures() int {
	if s.CountIn == nil {
		return *DefaultConfig().Sequencer.CountIn
	}
	return *s.CountIn
}

// HasOutput reports whether portName is a configured output
func (c *Config) HasOutput(portName string) bool {
	for _, name := range c.Outputs {
		if name == portName {
			return true
		}
	}
	return false
}

// AddOutput adds portName to the outputs if not already there
func (c *Config) AddOutput(portName string) {
	if !c.HasOutput(portName) {
		c.Outputs = append(c.Outputs, portName)
	}
}

// RemoveOutput drops portName from the outputs
func (c *Config) RemoveOutput(portName string) {
	kept := c.Outputs[:0]
	for _, name := range c.Outputs {
		if name != portName {
			kept = append(kept, name)
		}
	}
	c.Outputs = kept
}

// WantsInput reports whether portName is the note or clock input
func (c *Config) WantsInput(portName string) bool {
	return portName != "" && (portName == c.Input || portName == c.ClockInput)
}
