// Package config loads tool configuration from smarty.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest looked up in the working directory when no
// explicit path is given.
const FileName = "smarty.toml"

// Config is the full tool configuration with defaults applied.
type Config struct {
	APIURL          string `toml:"api_url"`
	AnalysisDelayMS int    `toml:"analysis_delay_ms"`
	EnableRealtime  bool   `toml:"enable_realtime"`
	EnableFallback  bool   `toml:"enable_fallback"`

	Serve ServeConfig `toml:"serve"`
}

// ServeConfig configures the bundled dev backend.
type ServeConfig struct {
	Listen      string `toml:"listen"`
	OpenAIModel string `toml:"openai_model"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		APIURL:          "http://127.0.0.1:8000",
		AnalysisDelayMS: 1000,
		EnableRealtime:  true,
		EnableFallback:  true,
		Serve: ServeConfig{
			Listen:      "127.0.0.1:8000",
			OpenAIModel: "gpt-4o-mini",
		},
	}
}

// Delay returns the debounce delay as a duration.
func (c *Config) Delay() time.Duration {
	if c.AnalysisDelayMS <= 0 {
		return time.Second
	}
	return time.Duration(c.AnalysisDelayMS) * time.Millisecond
}

// Load reads the config at path. An empty path looks for FileName in the
// working directory; a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(".", FileName)
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return cfg, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("%s: unknown config key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
