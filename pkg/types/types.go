package types

import "strings"

// ModType classifies a discovered mod folder by its on-disk shape.
type ModType string

const (
	// ModTypeMigoto is a 3DMigoto-style folder mod (Texture/Buffer trees,
	// d3dx.ini, .dds/.buf payloads). Deployed flattened into the game's
	// Mods directory.
	ModTypeMigoto ModType = "migoto"

	// ModTypeAsset is a mod whose top level mirrors the game install
	// (Endfield_Data/, resources/, ...). Deployed by direct asset
	// replacement with backup receipts.
	ModTypeAsset ModType = "asset"

	// ModTypeConfig is a config-style mod, usually driven by a
	// manifest.json copy list.
	ModTypeConfig ModType = "config"

	// ModTypeFolder is a plain folder mod with no recognizable structure.
	ModTypeFolder ModType = "folder"

	// ModTypeUnknown marks a mod that could not be read or classified.
	// Mods of this type carry at least one error and cannot be enabled.
	ModTypeUnknown ModType = "unknown"
)

// Priority returns the sort rank used for mod list ordering.
// Lower sorts first.
func (t ModType) Priority() int {
	switch t {
	case ModTypeMigoto:
		return 0
	case ModTypeAsset:
		return 1
	case ModTypeConfig:
		return 2
	case ModTypeFolder:
		return 3
	default:
		return 99
	}
}

// Mod is one discovered mod folder. Mods are recreated on every scan;
// RelPath is the only identity that survives across scans.
type Mod struct {
	// RelPath is the slash-normalized path relative to the mods root.
	// It is the unique key for the mod everywhere in the system.
	RelPath string

	Name        string
	Version     string
	Author      string
	Description string

	Type ModType

	// Errors non-empty means the mod cannot be enabled.
	Errors []string

	// Warnings are advisory only.
	Warnings []string
}

// CanEnable reports whether the mod is eligible for the enabled set.
func (m *Mod) CanEnable() bool {
	return len(m.Errors) == 0
}

// NormalizeRelPath converts a mod identifier to the canonical
// slash-separated, trimmed form used as the mod key.
func NormalizeRelPath(rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	return strings.Trim(strings.TrimSpace(rel), "/")
}

// Conflict reports a destination path written by more than one mod.
type Conflict struct {
	// Path is relative to the addressing domain that produced the
	// conflict: overlay-relative or game-root-relative.
	Path string `json:"path"`

	// Mods are the sorted, distinct identifiers of contributing mods.
	Mods []string `json:"mods"`

	// Identical is set when every colliding file has the same content
	// hash. Identical conflicts still block deploy; the flag is
	// informational.
	Identical bool `json:"identical,omitempty"`
}
