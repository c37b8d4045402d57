package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// ReadConfig reads the JSON5 file at name and merges <name>.local.<ext> over
// it when present. It returns os.ErrNotExist if neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	content, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(content) > 0 {
		if err := json5.Unmarshal(content, &out); err != nil {
			return out, fmt.Errorf("parsing %s: %w", name, err)
		}
		found = true
	}

	ext := filepath.Ext(name)
	localName := strings.TrimSuffix(name, ext) + ".local" + ext
	localContent, err := os.ReadFile(localName)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localContent) > 0 {
		var override T
		if err := json5.Unmarshal(localContent, &override); err != nil {
			return out, fmt.Errorf("parsing %s: %w", localName, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merged config with local overrides", "local", localName)
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// Load reads config.json5 from dataDir, applies defaults and validates it.
func Load(dataDir string) (*WasteVizConfig, error) {
	conf, err := ReadConfig[WasteVizConfig](filepath.Join(dataDir, "config.json5"))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	conf.DataDir = dataDir
	conf.ApplyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &conf, nil
}

// Resolve turns a location relative to the data dir into a path. URLs are
// returned unchanged.
func (c *WasteVizConfig) Resolve(location string) string {
	if IsURL(location) || filepath.IsAbs(location) {
		return location
	}
	return filepath.Join(c.DataDir, location)
}

func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
