// Package conflicts computes which destination paths more than one
// enabled mod would write, in two addressing domains: overlay-relative
// (manifest copy lists, matching exactly what the builder would place)
// and game-root-relative (asset-replacement targets). Any overlap is a
// conflict regardless of enable order; the deploy gate refuses to run
// while either domain reports one.
package conflicts

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/logging"
	"github.com/endfield-tools/endmod/pkg/manifest"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/types"
)

// Detector computes destination conflicts for an enabled set.
type Detector struct {
	fs     types.FS
	logger zerolog.Logger
}

// New creates a detector over the given filesystem.
func New(fsys types.FS) *Detector {
	return &Detector{
		fs:     fsys,
		logger: logging.GetLogger("conflicts"),
	}
}

// DetectOverlay reports overlay-relative paths written by more than one
// enabled mod. Only mods with a usable manifest copy list contribute:
// whole-folder mods occupy their own subtree in the overlay and cannot
// collide in this domain. Each copy entry expands to the files it would
// place, keyed by the full overlay-relative path, so the contributor
// set per path equals exactly what the builder would write there.
func (d *Detector) DetectOverlay(modsRoot string, enabled []string) ([]types.Conflict, error) {
	writers := map[string][]string{}

	for _, raw := range enabled {
		rel := types.NormalizeRelPath(raw)
		if rel == "" {
			continue
		}
		modDir := filepath.Join(modsRoot, filepath.FromSlash(rel))
		if !fsutil.Exists(d.fs, modDir) || !manifest.Exists(d.fs, modDir) {
			continue
		}

		m, err := manifest.Load(d.fs, modDir)
		if err != nil {
			continue
		}
		entries := m.CopyEntries()
		if len(entries) == 0 {
			continue
		}

		for _, entry := range entries {
			src := filepath.Join(modDir, filepath.FromSlash(entry.Rel))
			isDir := fsutil.IsDir(d.fs, src)

			// Entries the builder would skip (missing source, or a
			// trailing-slash entry naming a file) contribute no writers.
			if !fsutil.Exists(d.fs, src) || (entry.IsDir && !isDir) {
				continue
			}

			if isDir {
				err := fsutil.WalkFiles(d.fs, src, func(sub string, _ fs.FileInfo) error {
					key := rel + "/" + entry.Rel + "/" + sub
					writers[key] = append(writers[key], rel)
					return nil
				})
				if err != nil {
					d.logger.Warn().Err(err).Str("mod", rel).Str("entry", entry.Rel).Msg("Walk failed")
				}
			} else {
				key := rel + "/" + entry.Rel
				writers[key] = append(writers[key], rel)
			}
		}
	}

	return d.collect(writers, ""), nil
}

// DetectAssets reports game-root-relative paths written by more than
// one enabled mod: every file beneath an enabled mod whose mod-relative
// path begins with an allow-listed game root. Colliding files that are
// byte-identical across every contributor are flagged Identical but
// still count as conflicts.
func (d *Detector) DetectAssets(modsRoot string, enabled []string) ([]types.Conflict, error) {
	writers := map[string][]string{}

	for _, raw := range enabled {
		rel := types.NormalizeRelPath(raw)
		if rel == "" {
			continue
		}
		modDir := filepath.Join(modsRoot, filepath.FromSlash(rel))
		if !fsutil.Exists(d.fs, modDir) {
			continue
		}

		err := fsutil.WalkFiles(d.fs, modDir, func(sub string, _ fs.FileInfo) error {
			if paths.IsAllowedAssetPath(sub) {
				writers[sub] = append(writers[sub], rel)
			}
			return nil
		})
		if err != nil {
			d.logger.Warn().Err(err).Str("mod", rel).Msg("Walk failed")
		}
	}

	return d.collect(writers, modsRoot), nil
}

// collect turns the writers map into the sorted conflict list. When
// hashRoot is non-empty the colliding files are hashed to set the
// Identical flag.
func (d *Detector) collect(writers map[string][]string, hashRoot string) []types.Conflict {
	var out []types.Conflict
	for path, mods := range writers {
		uniq := distinct(mods)
		if len(uniq) < 2 {
			continue
		}
		c := types.Conflict{Path: path, Mods: uniq}
		if hashRoot != "" {
			c.Identical = d.allIdentical(hashRoot, path, uniq)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	if len(out) > 0 {
		d.logger.Info().Int("conflicts", len(out)).Msg("Conflicts detected")
	}
	return out
}

// allIdentical reports whether every contributor's copy of the asset
// path hashes to the same content.
func (d *Detector) allIdentical(modsRoot, assetRel string, mods []string) bool {
	var first uint64
	for i, mod := range mods {
		file := filepath.Join(modsRoot, filepath.FromSlash(mod), filepath.FromSlash(assetRel))
		h, err := fsutil.HashFile(d.fs, file)
		if err != nil {
			return false
		}
		if i == 0 {
			first = h
		} else if h != first {
			return false
		}
	}
	return true
}

func distinct(mods []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range mods {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
