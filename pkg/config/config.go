// Package config manages endmod's persisted user state: the ordered
// enabled-mod set, the game executable, presets, and the renderer
// choice. State is loaded once at startup and rewritten after every
// mutation; there is no multi-process coordination by design.
package config

import (
	"sort"
	"strings"

	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/logging"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/types"
)

// PresetNames are the fixed preset slots.
var PresetNames = []string{"A", "B", "C"}

// Renderer choices.
const (
	RendererAuto = "auto"
	RendererDX11 = "dx11"
	RendererDX12 = "dx12"
)

// AppConfig is the persisted user state. The EnabledMods order is
// preserved for display only; conflict detection never depends on it.
type AppConfig struct {
	EnabledMods   []string `json:"enabled_mods"`
	GameExe       string   `json:"game_exe,omitempty"`
	CurrentPreset string   `json:"current_preset"`
	Renderer      string   `json:"renderer"`

	fsys    types.FS
	project *paths.Project
}

type configFile struct {
	EnabledMods   []string `json:"enabled_mods"`
	GameExe       string   `json:"game_exe,omitempty"`
	CurrentPreset string   `json:"current_preset"`
	Renderer      string   `json:"renderer"`
}

type presetFile struct {
	EnabledMods []string `json:"enabled_mods"`
}

// Load reads the config file, creating a default one on first run.
// A malformed config file is an error; a missing one is not.
func Load(fsys types.FS, project *paths.Project) (*AppConfig, error) {
	logger := logging.GetLogger("config")

	cfg := &AppConfig{
		CurrentPreset: "A",
		Renderer:      RendererAuto,
		fsys:          fsys,
		project:       project,
	}

	cfgPath := project.ConfigPath()
	if !fsutil.Exists(fsys, cfgPath) {
		logger.Debug().Str("path", cfgPath).Msg("No config file, writing defaults")
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	var raw configFile
	if err := fsutil.ReadJSON(fsys, cfgPath, &raw); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "loading %s", cfgPath)
	}

	cfg.EnabledMods = normalizeList(raw.EnabledMods)
	cfg.GameExe = raw.GameExe
	cfg.CurrentPreset = normalizePreset(raw.CurrentPreset)
	cfg.Renderer = normalizeRenderer(raw.Renderer)

	logger.Debug().
		Int("enabledMods", len(cfg.EnabledMods)).
		Str("preset", cfg.CurrentPreset).
		Msg("Config loaded")
	return cfg, nil
}

// Save rewrites the config file.
func (c *AppConfig) Save() error {
	return fsutil.WriteJSON(c.fsys, c.project.ConfigPath(), configFile{
		EnabledMods:   c.EnabledMods,
		GameExe:       c.GameExe,
		CurrentPreset: c.CurrentPreset,
		Renderer:      c.Renderer,
	})
}

// IsEnabled reports whether the mod identifier is in the enabled set.
func (c *AppConfig) IsEnabled(relPath string) bool {
	relPath = types.NormalizeRelPath(relPath)
	for _, m := range c.EnabledMods {
		if m == relPath {
			return true
		}
	}
	return false
}

// SetEnabled adds or removes the mod identifier and saves.
func (c *AppConfig) SetEnabled(relPath string, enabled bool) error {
	relPath = types.NormalizeRelPath(relPath)
	if enabled {
		if !c.IsEnabled(relPath) {
			c.EnabledMods = append(c.EnabledMods, relPath)
		}
	} else {
		kept := c.EnabledMods[:0]
		for _, m := range c.EnabledMods {
			if m != relPath {
				kept = append(kept, m)
			}
		}
		c.EnabledMods = kept
	}
	return c.Save()
}

// SetGameExe records the game executable path and saves.
func (c *AppConfig) SetGameExe(exe string) error {
	c.GameExe = exe
	return c.Save()
}

// SetRenderer records the renderer choice and saves. Unknown values
// degrade to auto.
func (c *AppConfig) SetRenderer(choice string) error {
	c.Renderer = normalizeRenderer(choice)
	return c.Save()
}

// SavePreset snapshots the current enabled set into the named preset
// slot and makes it current.
func (c *AppConfig) SavePreset(name string) error {
	name = normalizePreset(name)
	err := fsutil.WriteJSON(c.fsys, c.project.PresetPath(name), presetFile{
		EnabledMods: c.EnabledMods,
	})
	if err != nil {
		return err
	}
	c.CurrentPreset = name
	return c.Save()
}

// LoadPreset replaces the enabled set with the named preset's snapshot
// (empty when the preset was never saved) and makes it current.
func (c *AppConfig) LoadPreset(name string) error {
	name = normalizePreset(name)
	c.EnabledMods = nil
	p := c.project.PresetPath(name)
	if fsutil.Exists(c.fsys, p) {
		var raw presetFile
		if err := fsutil.ReadJSON(c.fsys, p, &raw); err != nil {
			return errors.Wrapf(err, errors.ErrConfigLoad, "loading preset %s", name)
		}
		c.EnabledMods = normalizeList(raw.EnabledMods)
	}
	c.CurrentPreset = name
	return c.Save()
}

// SortedEnabled returns a sorted copy of the enabled set for display.
func (c *AppConfig) SortedEnabled() []string {
	out := make([]string, len(c.EnabledMods))
	copy(out, c.EnabledMods)
	sort.Strings(out)
	return out
}

func normalizeList(mods []string) []string {
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		if norm := types.NormalizeRelPath(m); norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

func normalizePreset(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, p := range PresetNames {
		if name == p {
			return name
		}
	}
	return "A"
}

func normalizeRenderer(choice string) string {
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case RendererDX11:
		return RendererDX11
	case RendererDX12:
		return RendererDX12
	default:
		return RendererAuto
	}
}
