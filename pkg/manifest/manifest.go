// Package manifest reads the optional per-mod manifest.json file.
package manifest

import (
	"path"
	"strings"

	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/types"
)

// FileName is the manifest file looked up in every mod folder.
const FileName = "manifest.json"

// Manifest is the optional metadata file at a mod folder's root.
type Manifest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Copy        []string `json:"copy"`
}

// Path returns the manifest location inside modDir.
func Path(modDir string) string {
	return path.Join(modDir, FileName)
}

// Exists reports whether modDir carries a manifest file.
func Exists(fsys types.FS, modDir string) bool {
	return fsutil.Exists(fsys, Path(modDir))
}

// Load reads and parses the manifest in modDir. The read is tolerant of
// a UTF-8 BOM; an empty or malformed manifest returns a MANIFEST_PARSE
// error, never a panic.
func Load(fsys types.FS, modDir string) (*Manifest, error) {
	var m Manifest
	if err := fsutil.ReadJSON(fsys, Path(modDir), &m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse, "manifest in %s", modDir)
	}
	return &m, nil
}

// ModType returns the manifest-declared mod type, lower-cased and
// trimmed, defaulting to "folder" when absent.
func (m *Manifest) ModType() types.ModType {
	t := strings.ToLower(strings.TrimSpace(m.Type))
	if t == "" {
		return types.ModTypeFolder
	}
	return types.ModType(t)
}

// CopyEntry is one normalized entry from the manifest copy list.
type CopyEntry struct {
	// Rel is the slash-separated path relative to the mod folder.
	Rel string

	// IsDir is set for entries written with a trailing separator,
	// meaning "copy this directory's contents".
	IsDir bool
}

// CopyEntries normalizes the manifest copy list: slashes normalized,
// leading separators stripped, blanks dropped. Entries containing a
// parent-directory segment are rejected outright so a manifest can
// never reach outside its own mod folder.
func (m *Manifest) CopyEntries() []CopyEntry {
	if len(m.Copy) == 0 {
		return nil
	}
	out := make([]CopyEntry, 0, len(m.Copy))
	for _, raw := range m.Copy {
		entry := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
		entry = strings.TrimLeft(entry, "/")
		if entry == "" {
			continue
		}
		isDir := strings.HasSuffix(entry, "/")
		rel := strings.TrimRight(entry, "/")
		if rel == "" || hasTraversal(rel) {
			continue
		}
		out = append(out, CopyEntry{Rel: rel, IsDir: isDir})
	}
	return out
}

// hasTraversal reports whether any path segment is "..".
func hasTraversal(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
