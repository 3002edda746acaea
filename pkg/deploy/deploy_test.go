package deploy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endfield-tools/endmod/pkg/activeset"
	"github.com/endfield-tools/endmod/pkg/deploy"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/testutil"
)

func newDeployer(env *testutil.TestEnvironment) *deploy.Deployer {
	d := deploy.New(env.FS, env.Project)
	d.SetQuiet(true)
	return d
}

// buildOverlay rebuilds _active so the safe-mount sub-deploy has a
// source.
func buildOverlay(t *testing.T, env *testutil.TestEnvironment, enabled []string) string {
	t.Helper()
	result, err := activeset.New(env.FS).Build(env.ModsRoot, enabled)
	require.NoError(t, err)
	return result.ActiveRoot
}

func deployOpts(env *testutil.TestEnvironment, enabled []string) deploy.Options {
	return deploy.Options{
		ModsRoot:   env.ModsRoot,
		ActiveRoot: filepath.Join(env.ModsRoot, paths.ActiveDirName),
		Enabled:    enabled,
		GameExe:    env.GameExe,
	}
}

func TestDeploy_BlockedByConflicts(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("assets/PackA", map[string]string{
		"Endfield_Data/StreamingAssets/bundle.bin": "a",
	})
	env.SetupMod("assets/PackB", map[string]string{
		"Endfield_Data/StreamingAssets/bundle.bin": "b",
	})
	enabled := []string{"assets/PackA", "assets/PackB"}
	buildOverlay(t, env, enabled)

	result, err := newDeployer(env).Deploy(deployOpts(env, enabled))
	require.NoError(t, err)

	require.True(t, result.Blocked())
	assert.Len(t, result.Conflicts, 1)

	// No sub-deploy ran: nothing landed in the game, no ledger written.
	assert.Nil(t, result.SafeMount)
	assert.False(t, env.GameFileExists("Endfield_Data/StreamingAssets/bundle.bin"))
	_, err = os.Stat(env.Project.ReceiptPath())
	assert.True(t, os.IsNotExist(err))
}

func TestDeploy_SafeMountStreamingAssetsFallback(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("configs/Tweaks", map[string]string{"settings.ini": "x"})
	enabled := []string{"configs/Tweaks"}
	buildOverlay(t, env, enabled)

	result, err := newDeployer(env).Deploy(deployOpts(env, enabled))
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	require.NotNil(t, result.SafeMount)
	assert.Equal(t, paths.BackendStreamingAssets, result.SafeMount.Backend)
	assert.Equal(t, 1, result.SafeMount.FileCount)

	base := filepath.Join("Endfield_Data", "StreamingAssets", paths.DefaultSafeFolderName)
	assert.Equal(t, "x", env.ReadGameFile(filepath.Join(base, "active", "configs", "Tweaks", "settings.ini")))
	assert.True(t, env.GameFileExists(filepath.Join(base, paths.ReceiptFileName)))
}

func TestDeploy_SafeMountPrefersVFS(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupVFS()
	env.SetupMod("configs/Tweaks", map[string]string{"settings.ini": "x"})
	enabled := []string{"configs/Tweaks"}
	buildOverlay(t, env, enabled)

	result, err := newDeployer(env).Deploy(deployOpts(env, enabled))
	require.NoError(t, err)

	require.NotNil(t, result.SafeMount)
	assert.Equal(t, paths.BackendVFS, result.SafeMount.Backend)
	vfsActive := filepath.Join("Endfield_Data", "Persistent", "VFS", paths.DefaultSafeFolderName, "active")
	assert.Equal(t, "x", env.ReadGameFile(filepath.Join(vfsActive, "configs", "Tweaks", "settings.ini")))
}

func TestDeploy_SafeMountRequiresBuiltOverlay(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("configs/Tweaks", map[string]string{"settings.ini": "x"})
	// No overlay build: the safe-mount sub-deploy fails, the others run.
	result, err := newDeployer(env).Deploy(deployOpts(env, []string{"configs/Tweaks"}))
	require.NoError(t, err)

	assert.Nil(t, result.SafeMount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "safe-mount")
	assert.NotNil(t, result.Migoto)
	assert.NotNil(t, result.Assets)
}

func TestDeploy_MigotoFoldersFlattened(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("skins/CoolSkin", map[string]string{
		"Texture/body.dds": "dds",
		"d3dx.ini":         "ini",
	})
	env.SetupMod("configs/NotMigoto", map[string]string{"a.ini": "x"})
	enabled := []string{"skins/CoolSkin", "configs/NotMigoto"}
	buildOverlay(t, env, enabled)

	result, err := newDeployer(env).Deploy(deployOpts(env, enabled))
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	require.NotNil(t, result.Migoto)
	assert.Equal(t, 1, result.Migoto.DeployedMods)

	// Flattened: mods/skins/CoolSkin lands as Mods/CoolSkin.
	assert.Equal(t, "dds", env.ReadGameFile("Mods/CoolSkin/Texture/body.dds"))
	assert.False(t, env.GameFileExists("Mods/NotMigoto"))
}

func TestDeployAssets_BackupOnceAcrossDeploys(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	const target = "Endfield_Data/StreamingAssets/bundle.bin"
	env.SetupGameFile(target, "pristine")
	env.SetupMod("assets/PackA", map[string]string{target: "from A"})
	env.SetupMod("assets/PackB", map[string]string{target: "from B"})

	d := newDeployer(env)
	game, err := paths.NewGame(env.GameExe)
	require.NoError(t, err)

	first, err := d.DeployAssets(env.ModsRoot, []string{"assets/PackA"}, game)
	require.NoError(t, err)
	assert.Equal(t, 1, first.BackupsTaken)
	assert.Equal(t, "from A", env.ReadGameFile(target))

	// Second deploy overwrites the same destination but must not
	// re-capture: the backup still holds the pristine original.
	second, err := d.DeployAssets(env.ModsRoot, []string{"assets/PackB"}, game)
	require.NoError(t, err)
	assert.Equal(t, 0, second.BackupsTaken)
	assert.Equal(t, "from B", env.ReadGameFile(target))

	backup := filepath.Join(env.Project.BackupDir(), filepath.FromSlash(target))
	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "pristine", string(data))

	// Restore brings back the original, not an intermediate state.
	restore, err := d.Restore(deployOpts(env, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, restore.Restored)
	assert.Equal(t, "pristine", env.ReadGameFile(target))
}

func TestRestore_RemovesModCreatedFiles(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	const target = "translations/en/extra.txt"
	env.SetupMod("assets/Lang", map[string]string{target: "new content"})

	d := newDeployer(env)
	game, err := paths.NewGame(env.GameExe)
	require.NoError(t, err)

	deployed, err := d.DeployAssets(env.ModsRoot, []string{"assets/Lang"}, game)
	require.NoError(t, err)
	assert.Equal(t, 0, deployed.BackupsTaken)
	assert.Equal(t, "new content", env.ReadGameFile(target))

	restore, err := d.Restore(deployOpts(env, nil))
	require.NoError(t, err)

	assert.Equal(t, 1, restore.Removed)
	assert.Equal(t, 0, restore.Restored)
	assert.False(t, env.GameFileExists(target))
}

func TestRestore_MissingBackupSkippedOthersProceed(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	const lost = "resources/table.bytes"
	const kept = "resources/other.bytes"
	env.SetupGameFile(lost, "original lost")
	env.SetupGameFile(kept, "original kept")
	env.SetupMod("assets/Pack", map[string]string{
		lost: "modded",
		kept: "modded",
	})

	d := newDeployer(env)
	game, err := paths.NewGame(env.GameExe)
	require.NoError(t, err)

	_, err = d.DeployAssets(env.ModsRoot, []string{"assets/Pack"}, game)
	require.NoError(t, err)

	// Simulate a damaged backup store for one entry.
	require.NoError(t, os.Remove(filepath.Join(env.Project.BackupDir(), filepath.FromSlash(lost))))

	restore, err := d.Restore(deployOpts(env, nil))
	require.NoError(t, err)

	assert.Equal(t, []string{lost}, restore.SkippedMissingBackup)
	assert.Equal(t, 1, restore.Restored)
	assert.Equal(t, "original kept", env.ReadGameFile(kept))
	// The skipped entry keeps its modded content; restore never guesses.
	assert.Equal(t, "modded", env.ReadGameFile(lost))
}

func TestRestore_ClearsLedgerAndSafeMount(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	const target = "Endfield_Data/StreamingAssets/bundle.bin"
	env.SetupGameFile(target, "pristine")
	env.SetupMod("assets/Pack", map[string]string{target: "modded"})
	enabled := []string{"assets/Pack"}
	buildOverlay(t, env, enabled)

	d := newDeployer(env)
	result, err := d.Deploy(deployOpts(env, enabled))
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.NotNil(t, result.SafeMount)

	restore, err := d.Restore(deployOpts(env, nil))
	require.NoError(t, err)
	assert.True(t, restore.OverlayRemoved)
	assert.Equal(t, "pristine", env.ReadGameFile(target))

	safeRoot := filepath.Join("Endfield_Data", "StreamingAssets", paths.DefaultSafeFolderName)
	assert.False(t, env.GameFileExists(safeRoot))

	// Ledger is back to fresh: a second restore has nothing to do.
	again, err := d.Restore(deployOpts(env, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Restored)
	assert.Equal(t, 0, again.Removed)
	assert.False(t, again.OverlayRemoved)
}

func TestReceipt_TouchIsBackupOnceCondition(t *testing.T) {
	r := deploy.NewReceipt()

	entry, created := r.Touch("Endfield_Data/StreamingAssets/a.bin")
	assert.True(t, created)
	entry.Backup = "backup/Endfield_Data/StreamingAssets/a.bin"
	entry.AddMod("assets/PackA")
	entry.AddMod("assets/PackA") // dedup

	same, created := r.Touch("Endfield_Data/StreamingAssets/a.bin")
	assert.False(t, created)
	assert.Equal(t, entry, same)
	assert.Equal(t, []string{"assets/PackA"}, same.Mods)
}
