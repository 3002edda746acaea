package deploy

import (
	"io/fs"
	"path/filepath"

	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/types"
)

// assetFile is one file an enabled mod wants to place under the game
// root.
type assetFile struct {
	mod  string // mod identifier
	src  string // absolute source inside the mod folder
	dest string // game-root-relative destination, slash-separated
}

// DeployAssets overwrites game files in place, guarded by the receipt
// ledger. For every enabled mod, every file whose mod-relative path
// begins with an allow-listed root is copied over the corresponding
// game path. The first deploy ever to touch a destination captures its
// pre-deploy state into the backup store; later deploys to the same
// destination never re-capture, so the original survives any number of
// overlapping deploys until a restore clears the ledger.
func (d *Deployer) DeployAssets(modsRoot string, enabled []string, game *paths.Game) (*types.AssetResult, error) {
	receipt := LoadReceipt(d.fs, d.project.ReceiptPath())
	result := &types.AssetResult{}

	files, deployedMods := d.collectAssetFiles(modsRoot, enabled)

	bar := d.newProgressBar(len(files), "Deploying assets")
	for _, f := range files {
		entry, created := receipt.Touch(f.dest)
		if created {
			backupRel, err := d.captureBackup(game, f.dest)
			if err != nil {
				// Ledger state must reflect reality; persist what has
				// been recorded so far before giving up.
				_ = receipt.Save(d.fs, d.project.ReceiptPath())
				return result, err
			}
			entry.Backup = backupRel
			if backupRel != "" {
				result.BackupsTaken++
			}
		}
		entry.AddMod(f.mod)

		if err := fsutil.CopyFile(d.fs, f.src, game.AssetPath(f.dest)); err != nil {
			_ = receipt.Save(d.fs, d.project.ReceiptPath())
			return result, err
		}
		result.FileCount++
		_ = bar.Add(1)
		d.logger.Debug().Str("file", f.dest).Str("mod", f.mod).Msg("Asset deployed")
	}

	result.DeployedMods = deployedMods

	if err := receipt.Save(d.fs, d.project.ReceiptPath()); err != nil {
		return result, err
	}

	if result.DeployedMods == 0 {
		d.logger.Info().Msg("No asset files to deploy")
	} else {
		d.logger.Info().
			Int("mods", result.DeployedMods).
			Int("files", result.FileCount).
			Int("backups", result.BackupsTaken).
			Msg("Assets deployed")
	}
	return result, nil
}

// collectAssetFiles walks every enabled mod and gathers the files that
// fall under an allow-listed game root, in enabled-set order.
func (d *Deployer) collectAssetFiles(modsRoot string, enabled []string) ([]assetFile, int) {
	var files []assetFile
	deployedMods := 0

	for _, raw := range enabled {
		rel := types.NormalizeRelPath(raw)
		if rel == "" {
			continue
		}
		modDir := filepath.Join(modsRoot, filepath.FromSlash(rel))
		if !fsutil.Exists(d.fs, modDir) {
			continue
		}

		before := len(files)
		err := fsutil.WalkFiles(d.fs, modDir, func(sub string, _ fs.FileInfo) error {
			if paths.IsAllowedAssetPath(sub) {
				files = append(files, assetFile{
					mod:  rel,
					src:  filepath.Join(modDir, filepath.FromSlash(sub)),
					dest: sub,
				})
			}
			return nil
		})
		if err != nil {
			d.logger.Warn().Err(err).Str("mod", rel).Msg("Walk failed")
		}
		if len(files) > before {
			deployedMods++
		}
	}
	return files, deployedMods
}

// captureBackup stashes the current on-disk state of a destination into
// the backup store, keyed by the destination path. Returns the
// deploy-dir-relative backup location, or "" when nothing existed at
// the destination.
func (d *Deployer) captureBackup(game *paths.Game, destRel string) (string, error) {
	srcAbs := game.AssetPath(destRel)
	if !fsutil.Exists(d.fs, srcAbs) {
		return "", nil
	}

	backupRel := paths.BackupDirName + "/" + destRel
	backupAbs := filepath.Join(d.project.DeployDir(), filepath.FromSlash(backupRel))

	if _, err := fsutil.CopyTree(d.fs, srcAbs, backupAbs); err != nil {
		return "", err
	}

	d.logger.Debug().Str("file", destRel).Msg("Original backed up")
	return backupRel, nil
}
