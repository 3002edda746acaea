package deploy

import (
	"path/filepath"

	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/types"
)

// Restore undoes a deploy: the safe-mount overlay is deleted, and every
// receipt ledger entry is rolled back — backed-up originals copied over
// their destinations, mod-created destinations deleted outright. Each
// entry is processed independently: a missing backup is logged and
// skipped, never aborting the rest. The ledger is cleared at the end
// regardless, returning the system to its fresh state.
func (d *Deployer) Restore(opts Options) (*types.RestoreResult, error) {
	result := &types.RestoreResult{}

	game, err := paths.NewGame(opts.GameExe)
	if err != nil {
		return nil, err
	}

	removed, err := d.RestoreSafeMount(game, opts.SafeFolderName)
	if err != nil {
		result.Warnings = append(result.Warnings, "safe-mount: "+err.Error())
	}
	result.OverlayRemoved = removed

	receipt := LoadReceipt(d.fs, d.project.ReceiptPath())
	if receipt.Empty() {
		d.logger.Info().Msg("Asset receipt is empty, nothing to restore")
		return result, nil
	}

	for _, destRel := range receipt.Paths() {
		entry := receipt.Files[destRel]
		d.restoreEntry(game, destRel, entry, result)
	}

	receipt.Clear()
	if err := receipt.Save(d.fs, d.project.ReceiptPath()); err != nil {
		return result, err
	}

	d.logger.Info().
		Int("restored", result.Restored).
		Int("removed", result.Removed).
		Int("skipped", len(result.SkippedMissingBackup)).
		Msg("Restore complete")
	return result, nil
}

// restoreEntry rolls back one ledger entry.
func (d *Deployer) restoreEntry(game *paths.Game, destRel string, entry *ReceiptEntry, result *types.RestoreResult) {
	dst := game.AssetPath(destRel)

	if entry.Backup == "" {
		// Mod-created destination: remove it entirely.
		if fsutil.Exists(d.fs, dst) {
			if err := d.fs.RemoveAll(dst); err != nil {
				result.Warnings = append(result.Warnings, destRel+": "+err.Error())
				d.logger.Warn().Err(err).Str("file", destRel).Msg("Failed to remove mod-created file")
				return
			}
			result.Removed++
			d.logger.Debug().Str("file", destRel).Msg("Mod-created file removed")
		}
		return
	}

	backupAbs := filepath.Join(d.project.DeployDir(), filepath.FromSlash(entry.Backup))
	if !fsutil.Exists(d.fs, backupAbs) {
		result.SkippedMissingBackup = append(result.SkippedMissingBackup, destRel)
		d.logger.Warn().Str("file", destRel).Msg("Backup missing, entry skipped")
		return
	}

	// A directory backup replaces the destination wholesale so files a
	// mod added inside it do not survive the restore.
	if fsutil.IsDir(d.fs, backupAbs) {
		if err := d.fs.RemoveAll(dst); err != nil {
			result.Warnings = append(result.Warnings, destRel+": "+err.Error())
			return
		}
	}
	if _, err := fsutil.CopyTree(d.fs, backupAbs, dst); err != nil {
		result.Warnings = append(result.Warnings, destRel+": "+err.Error())
		d.logger.Warn().Err(err).Str("file", destRel).Msg("Failed to restore backup")
		return
	}

	result.Restored++
	d.logger.Debug().Str("file", destRel).Msg("Original restored")
}
