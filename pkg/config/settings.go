package config

import (
	"github.com/pelletier/go-toml/v2"

	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/types"
)

// Settings are optional tool-level knobs from endmod.toml at the
// project root. Unlike AppConfig this file is hand-edited, never
// written by endmod.
type Settings struct {
	// ModsRoot overrides the mods directory location.
	ModsRoot string `toml:"mods_root"`

	// SafeFolderName overrides the safe-mount folder name created in
	// the game's persistent storage.
	SafeFolderName string `toml:"safe_folder_name"`
}

// DefaultSettings returns the built-in settings values.
func DefaultSettings() Settings {
	return Settings{SafeFolderName: paths.DefaultSafeFolderName}
}

// LoadSettings reads endmod.toml if present; a missing file yields the
// defaults, a malformed one is an error.
func LoadSettings(fsys types.FS, project *paths.Project) (Settings, error) {
	s := DefaultSettings()

	p := project.SettingsPath()
	if !fsutil.Exists(fsys, p) {
		return s, nil
	}

	data, err := fsys.ReadFile(p)
	if err != nil {
		return s, errors.Wrapf(err, errors.ErrConfigLoad, "reading %s", p)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, errors.ErrConfigParse, "parsing %s", p)
	}
	if s.SafeFolderName == "" {
		s.SafeFolderName = paths.DefaultSafeFolderName
	}

	project.SetModsRoot(s.ModsRoot)
	return s, nil
}
