package activeset_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endfield-tools/endmod/pkg/activeset"
	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/manifest"
	"github.com/endfield-tools/endmod/pkg/testutil"
)

// treeSnapshot maps every file under root to its content.
func treeSnapshot(t *testing.T, env *testutil.TestEnvironment, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := fsutil.WalkFiles(env.FS, root, func(rel string, _ fs.FileInfo) error {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestBuild_WholeFolderCopy(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("skins/CoolSkin", map[string]string{
		"Texture/body.dds": "dds",
		"d3dx.ini":         "ini",
	})

	result, err := activeset.New(env.FS).Build(env.ModsRoot, []string{"skins/CoolSkin"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesCopied)
	assert.Equal(t, map[string]string{
		"skins/CoolSkin/Texture/body.dds": "dds",
		"skins/CoolSkin/d3dx.ini":         "ini",
	}, treeSnapshot(t, env, result.ActiveRoot))
}

func TestBuild_ConfigModCopyList(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("configs/EstellaMod", map[string]string{
		"settings.ini":   "tuned",
		"presets/a.json": "{}",
		"unlisted.txt":   "never copied",
	})
	env.SetupManifest("configs/EstellaMod", manifest.Manifest{
		Type: "config",
		Copy: []string{"settings.ini", "presets/"},
	})

	result, err := activeset.New(env.FS).Build(env.ModsRoot, []string{"configs/EstellaMod"})
	require.NoError(t, err)

	snap := treeSnapshot(t, env, result.ActiveRoot)
	assert.Contains(t, snap, "configs/EstellaMod/manifest.json")
	assert.Equal(t, "tuned", snap["configs/EstellaMod/settings.ini"])
	assert.Equal(t, "{}", snap["configs/EstellaMod/presets/a.json"])
	assert.NotContains(t, snap, "configs/EstellaMod/unlisted.txt")
}

func TestBuild_ConfigModMissingEntrySkipped(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("configs/Sparse", map[string]string{"real.ini": "x"})
	env.SetupManifest("configs/Sparse", manifest.Manifest{
		Type: "config",
		Copy: []string{"real.ini", "ghost.ini"},
	})

	result, err := activeset.New(env.FS).Build(env.ModsRoot, []string{"configs/Sparse"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ghost.ini"}, result.SkippedEntries)
	snap := treeSnapshot(t, env, result.ActiveRoot)
	assert.Contains(t, snap, "configs/Sparse/real.ini")
}

func TestBuild_DirEntryNamingFileSkipped(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	// "presets/" declares a directory but the mod ships a file by that
	// name; the mismatched entry is skipped, not copied as a file.
	env.SetupMod("configs/Mismatch", map[string]string{
		"presets": "a file, not a directory",
		"ok.ini":  "x",
	})
	env.SetupManifest("configs/Mismatch", manifest.Manifest{
		Type: "config",
		Copy: []string{"presets/", "ok.ini"},
	})

	result, err := activeset.New(env.FS).Build(env.ModsRoot, []string{"configs/Mismatch"})
	require.NoError(t, err)

	assert.Equal(t, []string{"presets"}, result.SkippedEntries)
	snap := treeSnapshot(t, env, result.ActiveRoot)
	assert.Contains(t, snap, "configs/Mismatch/ok.ini")
	assert.NotContains(t, snap, "configs/Mismatch/presets")
}

func TestBuild_TraversalEntryNeverEscapes(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("configs/Evil", map[string]string{"ok.ini": "x"})
	env.SetupManifest("configs/Evil", manifest.Manifest{
		Type: "config",
		Copy: []string{"../../../etc/passwd", "ok.ini"},
	})

	result, err := activeset.New(env.FS).Build(env.ModsRoot, []string{"configs/Evil"})
	require.NoError(t, err)

	snap := treeSnapshot(t, env, result.ActiveRoot)
	assert.Equal(t, "x", snap["configs/Evil/ok.ini"])
	assert.NotContains(t, snap, "etc/passwd")
}

func TestBuild_UnreadableManifestFallsBackToWholeFolder(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("configs/Broken", map[string]string{
		"manifest.json": "{broken",
		"settings.ini":  "x",
	})

	result, err := activeset.New(env.FS).Build(env.ModsRoot, []string{"configs/Broken"})
	require.NoError(t, err)

	snap := treeSnapshot(t, env, result.ActiveRoot)
	assert.Contains(t, snap, "configs/Broken/settings.ini")
	assert.Contains(t, snap, "configs/Broken/manifest.json")
}

func TestBuild_SkipsMissingAndReservedEntries(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("configs/Here", map[string]string{"a.ini": "x"})

	result, err := activeset.New(env.FS).Build(env.ModsRoot, []string{
		"configs/Vanished",
		"_active",
		"_active/sneaky",
		"../outside",
		"configs/Here",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"configs/Vanished"}, result.SkippedMissing)
	snap := treeSnapshot(t, env, result.ActiveRoot)
	assert.Equal(t, map[string]string{"configs/Here/a.ini": "x"}, snap)
}

func TestBuild_FullRebuildDropsStaleContent(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("configs/One", map[string]string{"one.ini": "1"})
	env.SetupMod("configs/Two", map[string]string{"two.ini": "2"})

	builder := activeset.New(env.FS)

	_, err := builder.Build(env.ModsRoot, []string{"configs/One", "configs/Two"})
	require.NoError(t, err)

	result, err := builder.Build(env.ModsRoot, []string{"configs/Two"})
	require.NoError(t, err)

	snap := treeSnapshot(t, env, result.ActiveRoot)
	assert.Equal(t, map[string]string{"configs/Two/two.ini": "2"}, snap)
}

func TestBuild_Idempotent(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.SetupMod("configs/A", map[string]string{"a.ini": "a"})
	env.SetupMod("skins/B", map[string]string{"Texture/b.dds": "b"})
	enabled := []string{"configs/A", "skins/B"}

	builder := activeset.New(env.FS)

	first, err := builder.Build(env.ModsRoot, enabled)
	require.NoError(t, err)
	firstSnap := treeSnapshot(t, env, first.ActiveRoot)

	second, err := builder.Build(env.ModsRoot, enabled)
	require.NoError(t, err)
	secondSnap := treeSnapshot(t, env, second.ActiveRoot)

	assert.Equal(t, firstSnap, secondSnap)
	assert.Equal(t, first.FilesCopied, second.FilesCopied)
}
