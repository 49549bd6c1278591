// Package config handles configuration loading and validation for the
// composition engine.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// Category names accepted in DefaultCategory.
const (
	CategoryHangul = "hangul"
	CategoryLatin  = "latin"
)

// Hotkey actions.
const (
	ActionToggle = "toggle"
	ActionHangul = "hangul"
	ActionLatin  = "latin"
)

// Hotkey results.
const (
	ResultConsume = "consume"
	ResultBypass  = "bypass"
)

// DefaultLayout is the builtin layout used when none is configured.
const DefaultLayout = "dubeolsik"

// Config is the engine configuration document.
type Config struct {
	// Engine holds the engine behaviour.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// Layouts are user layouts, merged over the builtin ones. Each maps a
	// key spec ("Q", "S-Q") to the jamo it produces.
	Layouts map[string]map[string]string `toml:"layouts,omitempty" json:"layouts,omitempty" yaml:"layouts,omitempty"`
}

// EngineConfig configures categories, hotkeys and hangul composition.
type EngineConfig struct {
	// DefaultCategory is the category a new session starts in.
	DefaultCategory string `toml:"default_category" json:"default_category" yaml:"default_category"`

	// Hotkeys are global keys handled before composition.
	Hotkeys []Hotkey `toml:"hotkeys" json:"hotkeys" yaml:"hotkeys"`

	// Hangul configures the hangul composer.
	Hangul HangulConfig `toml:"hangul" json:"hangul" yaml:"hangul"`
}

// Hotkey binds a key spec to a category action.
type Hotkey struct {
	// Key is a key spec such as "Hangul" or "S-Space".
	Key string `toml:"key" json:"key" yaml:"key"`

	// Action is one of toggle, hangul or latin.
	Action string `toml:"action" json:"action" yaml:"action"`

	// Result is consume (default) or bypass.
	Result string `toml:"result,omitempty" json:"result,omitempty" yaml:"result,omitempty"`
}

// HangulConfig configures the hangul composer.
type HangulConfig struct {
	// Layout names a builtin layout or an entry of Config.Layouts.
	Layout string `toml:"layout" json:"layout" yaml:"layout"`
}

// DefaultConfig returns the configuration used when a document omits
// sections.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DefaultCategory: CategoryLatin,
			Hotkeys: []Hotkey{
				{Key: "Hangul", Action: ActionToggle, Result: ResultConsume},
				{Key: "AltR", Action: ActionToggle, Result: ResultConsume},
				{Key: "S-Space", Action: ActionToggle, Result: ResultConsume},
			},
			Hangul: HangulConfig{
				Layout: DefaultLayout,
			},
		},
	}
}

// ConsumesHotkey reports whether the hotkey swallows its key.
func (h Hotkey) ConsumesHotkey() bool {
	return h.Result == "" || h.Result == ResultConsume
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Engine.Hotkeys = slices.Clone(c.Engine.Hotkeys)
	if c.Layouts != nil {
		clone.Layouts = make(map[string]map[string]string, len(c.Layouts))
		for name, layout := range c.Layouts {
			clone.Layouts[name] = maps.Clone(layout)
		}
	}
	return &clone
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Variables are prefixed with KIME_.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KIME_DEFAULT_CATEGORY"); v != "" {
		c.Engine.DefaultCategory = v
	}
	if v := os.Getenv("KIME_LAYOUT"); v != "" {
		c.Engine.Hangul.Layout = v
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.yaml")
}

// SaveConfig writes cfg to path in the format implied by its extension.
func SaveConfig(cfg *Config, path string) error {
	data, err := Encode(cfg, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp, path)
}
