package engine

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetFile []byte

// DifficultyPreset maps a player-facing level to engine settings. Rating is
// the approximate Elo attributed to the engine at that depth; it only feeds
// player profile updates, not the search itself.
type DifficultyPreset struct {
	Name   string `yaml:"name"`
	Depth  int    `yaml:"depth"`
	Rating int    `yaml:"rating"`
}

type presetFileSchema struct {
	Presets []DifficultyPreset `yaml:"presets"`
}

var (
	presetOnce sync.Once
	presets    map[string]DifficultyPreset
	presetErr  error
)

func loadPresets() {
	var parsed presetFileSchema
	if err := yaml.Unmarshal(presetFile, &parsed); err != nil {
		presetErr = fmt.Errorf("parse embedded presets: %w", err)
		return
	}
	presets = make(map[string]DifficultyPreset, len(parsed.Presets))
	for _, p := range parsed.Presets {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			presetErr = fmt.Errorf("preset with empty name in embedded catalog")
			return
		}
		if p.Depth < 1 {
			presetErr = fmt.Errorf("preset %s: depth must be at least 1", name)
			return
		}
		p.Name = name
		presets[name] = p
	}
}

// GetPreset resolves a difficulty preset by name (case-insensitive).
func GetPreset(name string) (DifficultyPreset, error) {
	presetOnce.Do(loadPresets)
	if presetErr != nil {
		return DifficultyPreset{}, presetErr
	}
	key := strings.ToLower(strings.TrimSpace(name))
	preset, ok := presets[key]
	if !ok {
		return DifficultyPreset{}, fmt.Errorf("unknown difficulty preset %q", name)
	}
	return preset, nil
}

// PresetNames returns the known preset names in sorted order.
func PresetNames() []string {
	presetOnce.Do(loadPresets)
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
