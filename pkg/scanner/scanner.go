// Package scanner discovers and classifies mod folders beneath the
// mods root. Classification is an ordered cascade of pure predicates
// (migoto, asset, config, folder); a scan never aborts on a bad mod,
// it degrades that mod to the unknown type instead.
package scanner

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/logging"
	"github.com/endfield-tools/endmod/pkg/manifest"
	"github.com/endfield-tools/endmod/pkg/types"
)

// Scanner walks the mods root and produces the ordered mod list.
type Scanner struct {
	fs     types.FS
	logger zerolog.Logger
}

// New creates a scanner over the given filesystem.
func New(fsys types.FS) *Scanner {
	return &Scanner{
		fs:     fsys,
		logger: logging.GetLogger("scanner"),
	}
}

// Scan discovers every mod folder under modsRoot and classifies it.
// The result is deterministic: same tree, same list. A missing mods
// root yields an empty list, not an error.
func (s *Scanner) Scan(modsRoot string) ([]types.Mod, error) {
	if !fsutil.IsDir(s.fs, modsRoot) {
		s.logger.Debug().Str("modsRoot", modsRoot).Msg("Mods root does not exist")
		return nil, nil
	}

	candidates := s.candidateFolders(modsRoot)

	mods := make([]types.Mod, 0, len(candidates))
	for _, rel := range candidates {
		mods = append(mods, s.describe(modsRoot, rel))
	}

	sort.Slice(mods, func(i, j int) bool {
		a, b := mods[i], mods[j]
		if pa, pb := a.Type.Priority(), b.Type.Priority(); pa != pb {
			return pa < pb
		}
		if na, nb := strings.ToLower(a.Name), strings.ToLower(b.Name); na != nb {
			return na < nb
		}
		return strings.ToLower(a.RelPath) < strings.ToLower(b.RelPath)
	})

	s.logger.Info().
		Str("modsRoot", modsRoot).
		Int("mods", len(mods)).
		Msg("Scan complete")
	return mods, nil
}

// candidateFolders returns the relative paths of the directories that
// count as mods, after container, structural and containment filtering.
func (s *Scanner) candidateFolders(modsRoot string) []string {
	var raw []string
	err := fsutil.WalkDirs(s.fs, modsRoot, func(rel string) error {
		raw = append(raw, rel)
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("modsRoot", modsRoot).Msg("Walk failed")
	}

	var candidates []string
	for _, rel := range raw {
		segs := strings.Split(rel, "/")

		if containsDenied(segs) {
			continue
		}

		// Container folders: the root and anything directly under it
		// are organizational buckets, never mods.
		if len(segs) < 2 {
			continue
		}

		if isStructuralSubfolder(s.fs, modsRoot, rel) {
			continue
		}

		abs := filepath.Join(modsRoot, filepath.FromSlash(rel))
		if !hasAnyRealFile(s.fs, abs) {
			continue
		}

		candidates = append(candidates, rel)
	}

	// Shallow first so containment checks read naturally
	sort.Slice(candidates, func(i, j int) bool {
		di, dj := strings.Count(candidates[i], "/"), strings.Count(candidates[j], "/")
		if di != dj {
			return di < dj
		}
		return strings.ToLower(candidates[i]) < strings.ToLower(candidates[j])
	})

	// A directory that classifies as migoto or asset is the mod; its
	// internals are never listed separately. A config-looking directory
	// is kept too. Anything unclassified is kept only when no deeper
	// candidate exists, so a pure container is never listed twice.
	var final []string
	var claimed []string // migoto/asset subtrees already spoken for
	for _, rel := range candidates {
		if underAny(rel, claimed) {
			continue
		}
		abs := filepath.Join(modsRoot, filepath.FromSlash(rel))
		switch classify(s.fs, abs) {
		case types.ModTypeMigoto, types.ModTypeAsset:
			final = append(final, rel)
			claimed = append(claimed, rel)
		case types.ModTypeConfig:
			final = append(final, rel)
		default:
			if !hasDescendant(rel, candidates) {
				final = append(final, rel)
			}
		}
	}
	return final
}

// underAny reports whether rel lies strictly beneath any of the roots.
func underAny(rel string, roots []string) bool {
	for _, root := range roots {
		if strings.HasPrefix(rel, root+"/") {
			return true
		}
	}
	return false
}

// describe builds the Mod record for one candidate folder.
func (s *Scanner) describe(modsRoot, rel string) types.Mod {
	abs := filepath.Join(modsRoot, filepath.FromSlash(rel))

	mod := types.Mod{
		RelPath: rel,
		Name:    filepath.Base(abs),
		Type:    classify(s.fs, abs),
	}

	if manifest.Exists(s.fs, abs) {
		m, err := manifest.Load(s.fs, abs)
		if err != nil {
			// A broken manifest makes the mod unusable but never
			// aborts the scan.
			mod.Type = types.ModTypeUnknown
			mod.Errors = append(mod.Errors, "manifest.json: "+err.Error())
			s.logger.Warn().Err(err).Str("mod", rel).Msg("Unreadable manifest")
			return mod
		}
		if m.Name != "" {
			mod.Name = m.Name
		}
		mod.Version = m.Version
		mod.Author = m.Author
		mod.Description = m.Description
		if declared := m.ModType(); declared != mod.Type && m.Type != "" {
			mod.Warnings = append(mod.Warnings,
				"manifest declares type "+string(declared)+", classified as "+string(mod.Type))
		}
	}

	return mod
}

func containsDenied(segs []string) bool {
	for _, seg := range segs {
		if denyNames[seg] {
			return true
		}
	}
	return false
}

// hasDescendant reports whether any other candidate lies strictly
// beneath rel.
func hasDescendant(rel string, candidates []string) bool {
	prefix := rel + "/"
	for _, c := range candidates {
		if c != rel && strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
