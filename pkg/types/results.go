package types

// BuildResult describes one active-set rebuild.
type BuildResult struct {
	// ActiveRoot is the absolute path of the rebuilt overlay tree.
	ActiveRoot string

	// FilesCopied counts every file placed into the overlay.
	FilesCopied int

	// SkippedMissing lists enabled mods whose source folder has vanished
	// since the last scan.
	SkippedMissing []string

	// SkippedEntries lists manifest copy entries that were rejected or
	// absent (path traversal, missing source item).
	SkippedEntries []string
}

// SafeMountResult describes one safe-mount overlay deploy.
type SafeMountResult struct {
	Backend    string // "vfs" or "streamingassets"
	SafeRoot   string
	DestActive string
	Receipt    string
	FileCount  int
}

// MigotoResult describes one folder-style deploy pass.
type MigotoResult struct {
	DeployedMods int
	FileCount    int
	Destination  string
}

// AssetResult describes one asset-replacement deploy pass.
type AssetResult struct {
	DeployedMods int
	FileCount    int
	BackupsTaken int
}

// DeployResult is the structured outcome of one full deploy invocation.
// Sub-deploys are best-effort: a failure in one is recorded in Errors and
// does not roll back the others.
type DeployResult struct {
	SafeMount *SafeMountResult
	Migoto    *MigotoResult
	Assets    *AssetResult

	// Conflicts is non-empty when the deploy was refused; no sub-deploy
	// ran in that case.
	Conflicts []Conflict

	Warnings []string
	Errors   []string
}

// Blocked reports whether the deploy was refused by the conflict gate.
func (r *DeployResult) Blocked() bool {
	return len(r.Conflicts) > 0
}

// RestoreResult is the structured outcome of one restore invocation.
type RestoreResult struct {
	// OverlayRemoved is set when a deployed safe-mount overlay existed
	// and was deleted.
	OverlayRemoved bool

	// Restored counts destinations overwritten from backup.
	Restored int

	// Removed counts mod-created destinations deleted outright.
	Removed int

	// SkippedMissingBackup lists ledger entries whose recorded backup was
	// gone from the backup store.
	SkippedMissingBackup []string

	Warnings []string
}
