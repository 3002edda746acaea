// Package deploy projects the enabled mod set onto the game
// installation through three independent sub-deployments (safe-mount
// overlay, flattened 3DMigoto folders, direct asset replacement) and
// undoes them exactly via the persisted receipt ledger. Sub-deploys are
// best-effort relative to each other: one failing never rolls back
// another.
package deploy

import (
	"github.com/rs/zerolog"

	"github.com/endfield-tools/endmod/pkg/conflicts"
	"github.com/endfield-tools/endmod/pkg/logging"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/types"
)

// Deployer runs deploys and restores for one project.
type Deployer struct {
	fs      types.FS
	project *paths.Project
	logger  zerolog.Logger
	quiet   bool
}

// New creates a deployer for the project.
func New(fsys types.FS, project *paths.Project) *Deployer {
	return &Deployer{
		fs:      fsys,
		project: project,
		logger:  logging.GetLogger("deploy"),
	}
}

// SetQuiet disables progress bars (tests, scripting).
func (d *Deployer) SetQuiet(quiet bool) { d.quiet = quiet }

// Options configures one deploy or restore invocation.
type Options struct {
	// ModsRoot is the mods directory.
	ModsRoot string

	// ActiveRoot is the built overlay to project (sub-deploy a).
	ActiveRoot string

	// Enabled is the ordered enabled-mod set.
	Enabled []string

	// GameExe locates the target installation.
	GameExe string

	// SafeFolderName overrides the safe-mount folder name.
	SafeFolderName string
}

// Deploy runs the full deploy cycle: conflict gate first, then the
// three sub-deployments in order. When either conflict domain reports
// overlap the deploy is refused outright and no sub-deploy runs; the
// caller must resolve and retry. Sub-deploy failures are collected into
// the result, they do not abort the remaining sub-deploys.
func (d *Deployer) Deploy(opts Options) (*types.DeployResult, error) {
	result := &types.DeployResult{}

	game, err := paths.NewGame(opts.GameExe)
	if err != nil {
		return nil, err
	}

	detector := conflicts.New(d.fs)

	overlayConflicts, err := detector.DetectOverlay(opts.ModsRoot, opts.Enabled)
	if err != nil {
		return nil, err
	}
	assetConflicts, err := detector.DetectAssets(opts.ModsRoot, opts.Enabled)
	if err != nil {
		return nil, err
	}
	result.Conflicts = append(result.Conflicts, overlayConflicts...)
	result.Conflicts = append(result.Conflicts, assetConflicts...)
	if result.Blocked() {
		d.logger.Warn().Int("conflicts", len(result.Conflicts)).Msg("Deploy blocked by conflicts")
		return result, nil
	}

	if safeMount, err := d.DeploySafeMount(opts.ActiveRoot, opts.Enabled, game, opts.SafeFolderName); err != nil {
		result.Errors = append(result.Errors, "safe-mount: "+err.Error())
		d.logger.Error().Err(err).Msg("Safe-mount deploy failed")
	} else {
		result.SafeMount = safeMount
	}

	if migoto, err := d.DeployMigotoFolders(opts.ModsRoot, opts.Enabled, game); err != nil {
		result.Errors = append(result.Errors, "migoto: "+err.Error())
		d.logger.Error().Err(err).Msg("Folder-mod deploy failed")
	} else {
		result.Migoto = migoto
	}

	if assets, err := d.DeployAssets(opts.ModsRoot, opts.Enabled, game); err != nil {
		result.Errors = append(result.Errors, "assets: "+err.Error())
		d.logger.Error().Err(err).Msg("Asset deploy failed")
	} else {
		result.Assets = assets
	}

	return result, nil
}
