// Package activeset rebuilds the merged overlay tree ("_active") from
// the ordered enabled-mod set. Every build is a full rebuild: the
// previous overlay is wiped so content from since-disabled mods can
// never linger.
package activeset

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/logging"
	"github.com/endfield-tools/endmod/pkg/manifest"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/types"
)

// Builder rebuilds the active overlay.
type Builder struct {
	fs     types.FS
	logger zerolog.Logger
}

// New creates a builder over the given filesystem.
func New(fsys types.FS) *Builder {
	return &Builder{
		fs:     fsys,
		logger: logging.GetLogger("activeset"),
	}
}

// Build wipes and regenerates <modsRoot>/_active from the enabled set,
// in list order. It is a pure function of its inputs and the on-disk
// mod contents: unchanged inputs produce byte-identical trees. Enabled
// entries whose source has vanished are skipped, not errors.
func (b *Builder) Build(modsRoot string, enabled []string) (*types.BuildResult, error) {
	activeRoot := filepath.Join(modsRoot, paths.ActiveDirName)

	if err := b.fs.RemoveAll(activeRoot); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIOFailure, "clearing %s", activeRoot)
	}
	if err := b.fs.MkdirAll(activeRoot, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "creating %s", activeRoot)
	}

	result := &types.BuildResult{ActiveRoot: activeRoot}

	for _, raw := range enabled {
		rel := types.NormalizeRelPath(raw)
		if rel == "" || strings.HasPrefix(rel, "#") {
			continue
		}

		// Never build from inside the overlay itself, and never let an
		// entry escape the mods root.
		if rel == paths.ActiveDirName || strings.HasPrefix(rel, paths.ActiveDirName+"/") {
			b.logger.Warn().Str("mod", rel).Msg("Enabled entry references the overlay, skipped")
			continue
		}
		if hasTraversal(rel) {
			b.logger.Warn().Str("mod", rel).Msg("Enabled entry escapes the mods root, skipped")
			continue
		}

		src := filepath.Join(modsRoot, filepath.FromSlash(rel))
		if !fsutil.Exists(b.fs, src) {
			result.SkippedMissing = append(result.SkippedMissing, rel)
			b.logger.Debug().Str("mod", rel).Msg("Source vanished, skipped")
			continue
		}

		dst := filepath.Join(activeRoot, filepath.FromSlash(rel))

		n, err := b.buildMod(src, dst, result)
		if err != nil {
			return nil, err
		}
		result.FilesCopied += n
	}

	b.logger.Info().
		Int("files", result.FilesCopied).
		Int("skippedMissing", len(result.SkippedMissing)).
		Msg("Active overlay rebuilt")
	return result, nil
}

// buildMod places one mod into the overlay. The mod type is re-read
// from its manifest at build time; anything other than a config mod
// with a usable copy list is a verbatim whole-folder copy.
func (b *Builder) buildMod(src, dst string, result *types.BuildResult) (int, error) {
	if !manifest.Exists(b.fs, src) {
		return fsutil.CopyTree(b.fs, src, dst)
	}

	m, err := manifest.Load(b.fs, src)
	if err != nil {
		// Unreadable manifest: the safe fallback is a full folder copy.
		b.logger.Warn().Err(err).Str("mod", src).Msg("Unreadable manifest, copying whole folder")
		return fsutil.CopyTree(b.fs, src, dst)
	}

	entries := m.CopyEntries()
	if m.ModType() != types.ModTypeConfig || len(entries) == 0 {
		return fsutil.CopyTree(b.fs, src, dst)
	}

	return b.buildConfigMod(src, dst, entries, result)
}

// buildConfigMod copies the manifest itself plus each listed entry.
// Directory entries merge their contents. Skipped: missing entries, and
// entries whose trailing slash declares a directory but name a file on
// disk.
func (b *Builder) buildConfigMod(src, dst string, entries []manifest.CopyEntry, result *types.BuildResult) (int, error) {
	if err := fsutil.CopyFile(b.fs, manifest.Path(src), manifest.Path(dst)); err != nil {
		return 0, err
	}
	count := 1

	for _, entry := range entries {
		srcItem := filepath.Join(src, filepath.FromSlash(entry.Rel))
		dstItem := filepath.Join(dst, filepath.FromSlash(entry.Rel))

		if !fsutil.Exists(b.fs, srcItem) || (entry.IsDir && !fsutil.IsDir(b.fs, srcItem)) {
			result.SkippedEntries = append(result.SkippedEntries, entry.Rel)
			continue
		}

		n, err := fsutil.CopyTree(b.fs, srcItem, dstItem)
		if err != nil {
			return count, err
		}
		count += n
	}
	return count, nil
}

func hasTraversal(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
