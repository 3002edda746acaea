package scanner

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/types"
)

// structuralNames are common internal subfolders of a mod. Directories
// with these names are never listed as mods themselves.
var structuralNames = map[string]bool{
	"texture": true, "textures": true,
	"buffer": true, "buffers": true,
	"shader": true, "shaders": true,
	"output": true, "outputs": true,
	"cache": true, "caches": true,
	"override": true, "overrides": true,
	"resource": true, "resources": true,
	"__pycache__": true,
}

// migotoInternalNames is the subset of structural names that only count
// as internal when the parent folder itself looks like a 3DMigoto mod.
// A legitimate top-level mod that happens to be called "Texture" must
// not be swallowed.
var migotoInternalNames = map[string]bool{
	"texture": true, "textures": true,
	"buffer": true, "buffers": true,
}

// denyNames are generated or internal directories excluded from the
// walk entirely.
var denyNames = map[string]bool{
	paths.ActiveDirName: true,
	".git":              true,
	"__pycache__":       true,
}

var errFound = errors.New("found")

// hasFileWithSuffix reports whether any file beneath dir has one of the
// given lower-case suffixes.
func hasFileWithSuffix(fsys types.FS, dir string, suffixes ...string) bool {
	err := fsutil.WalkFiles(fsys, dir, func(rel string, _ fs.FileInfo) error {
		if fsutil.HasSuffixAny(rel, suffixes...) {
			return errFound
		}
		return nil
	})
	return errors.Is(err, errFound)
}

// IsMigotoMod reports whether dir has the typical 3DMigoto structure:
// a Texture or Buffer child, a d3dx.ini, or .dds/.buf payloads anywhere
// beneath it. The folder-style deploy applies the same test, so the
// classifier and the deployer can never disagree about what counts as
// a 3DMigoto mod.
func IsMigotoMod(fsys types.FS, dir string) bool {
	for _, marker := range []string{"Texture", "texture", "Buffer", "buffer"} {
		if fsutil.Exists(fsys, filepath.Join(dir, marker)) {
			return true
		}
	}
	if fsutil.Exists(fsys, filepath.Join(dir, "d3dx.ini")) {
		return true
	}
	return hasFileWithSuffix(fsys, dir, ".dds", ".buf")
}

// isAssetMod reports whether dir has one of the allow-listed
// game-relative roots as an immediate child.
func isAssetMod(fsys types.FS, dir string) bool {
	for _, root := range paths.AllowedAssetRoots {
		if fsutil.Exists(fsys, filepath.Join(dir, root)) {
			return true
		}
	}
	return false
}

// isConfigMod reports whether dir contains any configuration-like file.
// Deliberately loose.
func isConfigMod(fsys types.FS, dir string) bool {
	return hasFileWithSuffix(fsys, dir, ".ini", ".cfg", ".txt", ".json")
}

// classify runs the type cascade in priority order.
func classify(fsys types.FS, dir string) types.ModType {
	switch {
	case IsMigotoMod(fsys, dir):
		return types.ModTypeMigoto
	case isAssetMod(fsys, dir):
		return types.ModTypeAsset
	case isConfigMod(fsys, dir):
		return types.ModTypeConfig
	default:
		return types.ModTypeFolder
	}
}

// hasAnyRealFile reports whether dir contains at least one file,
// ignoring OS placeholder files.
func hasAnyRealFile(fsys types.FS, dir string) bool {
	err := fsutil.WalkFiles(fsys, dir, func(rel string, _ fs.FileInfo) error {
		base := strings.ToLower(filepath.Base(rel))
		if base == "desktop.ini" {
			return nil
		}
		return errFound
	})
	return errors.Is(err, errFound)
}

// isStructuralSubfolder reports whether the directory name marks it as
// a mod's internal folder rather than a mod. Texture/Buffer family
// names are only structural when the parent independently looks like a
// 3DMigoto mod — independently meaning the candidate's own name is not
// what makes the parent pass, so a legitimate mod that happens to be
// called "Texture" is not swallowed.
func isStructuralSubfolder(fsys types.FS, modsRoot, rel string) bool {
	name := strings.ToLower(strings.TrimSpace(filepath.Base(rel)))
	if !structuralNames[name] {
		return false
	}
	if migotoInternalNames[name] {
		parent := filepath.Dir(filepath.Join(modsRoot, filepath.FromSlash(rel)))
		return parentIsMigoto(fsys, parent, filepath.Base(rel))
	}
	return true
}

// parentIsMigoto applies the migoto marker test to the parent without
// counting the excluded child's name as a marker. Payload files inside
// the child still count: a Texture folder full of .dds files means the
// parent really is a 3DMigoto mod.
func parentIsMigoto(fsys types.FS, parent, excludeChild string) bool {
	for _, marker := range []string{"Texture", "texture", "Buffer", "buffer"} {
		if marker == excludeChild {
			continue
		}
		if fsutil.Exists(fsys, filepath.Join(parent, marker)) {
			return true
		}
	}
	if fsutil.Exists(fsys, filepath.Join(parent, "d3dx.ini")) {
		return true
	}
	return hasFileWithSuffix(fsys, parent, ".dds", ".buf")
}
