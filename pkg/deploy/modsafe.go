package deploy

import (
	"io/fs"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/types"
)

// safeMountReceipt is the informational record written next to a
// safe-mount deploy. Restore does not read it; removing the active
// folder is always sufficient.
type safeMountReceipt struct {
	FolderName  string   `json:"folder_name"`
	Backend     string   `json:"backend"`
	SafeRoot    string   `json:"safe_root"`
	DestActive  string   `json:"dest_active"`
	EnabledMods []string `json:"enabled_mods"`
	SourceDir   string   `json:"source_dir"`
	FileCount   int      `json:"file_count"`
}

// DeploySafeMount projects the built overlay into the game's safe-mount
// location: <backend>/<safe folder>/active. Any previously deployed
// overlay is removed first so disabled mods cannot linger.
func (d *Deployer) DeploySafeMount(activeRoot string, enabled []string, game *paths.Game, safeFolderName string) (*types.SafeMountResult, error) {
	if !fsutil.IsDir(d.fs, activeRoot) {
		return nil, errors.Newf(errors.ErrMissingSource, "active overlay not found at %s (run build first)", activeRoot)
	}

	backend, err := game.ResolveBackend(d.fs, safeFolderName)
	if err != nil {
		return nil, err
	}

	if err := d.fs.RemoveAll(backend.DestActive); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIOFailure, "clearing %s", backend.DestActive)
	}
	if err := d.fs.MkdirAll(backend.DestActive, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "creating %s", backend.DestActive)
	}

	total := 0
	_ = fsutil.WalkFiles(d.fs, activeRoot, func(string, fs.FileInfo) error {
		total++
		return nil
	})

	bar := d.newProgressBar(total, "Deploying overlay")
	count := 0
	err = fsutil.WalkFiles(d.fs, activeRoot, func(rel string, _ fs.FileInfo) error {
		src := filepath.Join(activeRoot, filepath.FromSlash(rel))
		dst := filepath.Join(backend.DestActive, filepath.FromSlash(rel))
		if err := fsutil.CopyFile(d.fs, src, dst); err != nil {
			return err
		}
		count++
		_ = bar.Add(1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	normalized := make([]string, 0, len(enabled))
	for _, m := range enabled {
		normalized = append(normalized, types.NormalizeRelPath(m))
	}

	receiptPath := filepath.Join(backend.SafeRoot, paths.ReceiptFileName)
	receipt := safeMountReceipt{
		FolderName:  filepath.Base(backend.SafeRoot),
		Backend:     backend.Name,
		SafeRoot:    backend.SafeRoot,
		DestActive:  backend.DestActive,
		EnabledMods: normalized,
		SourceDir:   activeRoot,
		FileCount:   count,
	}
	if err := fsutil.WriteJSON(d.fs, receiptPath, receipt); err != nil {
		return nil, err
	}

	d.logger.Info().
		Str("backend", backend.Name).
		Str("dest", backend.DestActive).
		Int("files", count).
		Msg("Safe-mount overlay deployed")

	return &types.SafeMountResult{
		Backend:    backend.Name,
		SafeRoot:   backend.SafeRoot,
		DestActive: backend.DestActive,
		Receipt:    receiptPath,
		FileCount:  count,
	}, nil
}

// RestoreSafeMount deletes the deployed overlay folder and removes the
// safe root too when that leaves it empty. Reports whether anything
// was removed.
func (d *Deployer) RestoreSafeMount(game *paths.Game, safeFolderName string) (bool, error) {
	backend, err := game.ResolveBackend(d.fs, safeFolderName)
	if err != nil {
		return false, err
	}

	removed := false
	if fsutil.Exists(d.fs, backend.DestActive) {
		if err := d.fs.RemoveAll(backend.DestActive); err != nil {
			return false, errors.Wrapf(err, errors.ErrIOFailure, "removing %s", backend.DestActive)
		}
		removed = true
	}

	// The receipt is informational; drop it with the safe root when
	// nothing else remains.
	entries, err := d.fs.ReadDir(backend.SafeRoot)
	if err == nil {
		onlyReceipt := true
		for _, e := range entries {
			if e.Name() != paths.ReceiptFileName {
				onlyReceipt = false
				break
			}
		}
		if onlyReceipt {
			_ = d.fs.RemoveAll(backend.SafeRoot)
		}
	}

	if removed {
		d.logger.Info().Str("dest", backend.DestActive).Msg("Safe-mount overlay removed")
	}
	return removed, nil
}

func (d *Deployer) newProgressBar(total int, description string) *progressbar.ProgressBar {
	if d.quiet {
		return progressbar.DefaultSilent(int64(total), description)
	}
	return progressbar.Default(int64(total), description)
}
