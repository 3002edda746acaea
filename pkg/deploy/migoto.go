package deploy

import (
	"path/filepath"

	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/scanner"
	"github.com/endfield-tools/endmod/pkg/types"
)

// DeployMigotoFolders copies every enabled mod that passes the
// 3DMigoto marker test into <game root>/Mods/<mod name>, flattened:
// the mod's own folder name becomes the top-level folder with no
// relative-path nesting. Mods not matching the marker are skipped;
// zero matches is not an error.
func (d *Deployer) DeployMigotoFolders(modsRoot string, enabled []string, game *paths.Game) (*types.MigotoResult, error) {
	modsOut := game.MigotoModsDir()
	if err := d.fs.MkdirAll(modsOut, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "creating %s", modsOut)
	}

	result := &types.MigotoResult{Destination: modsOut}

	for _, raw := range enabled {
		rel := types.NormalizeRelPath(raw)
		if rel == "" {
			continue
		}
		srcDir := filepath.Join(modsRoot, filepath.FromSlash(rel))
		if !fsutil.Exists(d.fs, srcDir) {
			continue
		}

		if !scanner.IsMigotoMod(d.fs, srcDir) {
			d.logger.Debug().Str("mod", rel).Msg("Not a folder-style mod, skipped")
			continue
		}

		dstDir := filepath.Join(modsOut, filepath.Base(srcDir))
		if err := d.fs.RemoveAll(dstDir); err != nil {
			return result, errors.Wrapf(err, errors.ErrIOFailure, "clearing %s", dstDir)
		}

		n, err := fsutil.CopyTree(d.fs, srcDir, dstDir)
		if err != nil {
			return result, err
		}

		result.DeployedMods++
		result.FileCount += n
		d.logger.Info().
			Str("mod", rel).
			Str("dest", dstDir).
			Int("files", n).
			Msg("Folder mod deployed")
	}

	if result.DeployedMods == 0 {
		d.logger.Info().Msg("No folder-style mods detected")
	} else {
		d.logger.Info().
			Int("mods", result.DeployedMods).
			Int("files", result.FileCount).
			Str("dest", modsOut).
			Msg("Folder mods deployed")
	}
	return result, nil
}
