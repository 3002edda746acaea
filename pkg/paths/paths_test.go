package paths_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/filesystem"
	"github.com/endfield-tools/endmod/pkg/paths"
)

func TestIsAllowedAssetPath(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"Endfield_Data/StreamingAssets/bundle.bin", true},
		{"resources/table.bytes", true},
		{"game_files/x", true},
		{"translations/en/ui.txt", true},
		{"plugins/tool.dll", true},
		{"Endfield_Data", false}, // the root itself, not a file under it
		{"Mods/CoolSkin/d3dx.ini", false},
		{"readme.txt", false},
		{"\\resources\\table.bytes", true},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, paths.IsAllowedAssetPath(tt.rel), tt.rel)
	}
}

func TestProject_Layout(t *testing.T) {
	root := t.TempDir()
	p, err := paths.New(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "mods"), p.ModsRoot())
	assert.Equal(t, filepath.Join(root, "mods", "_active"), p.ActiveRoot())
	assert.Equal(t, filepath.Join(root, "data", "config.json"), p.ConfigPath())
	assert.Equal(t, filepath.Join(root, "data", "preset_B.json"), p.PresetPath("B"))
	assert.Equal(t, filepath.Join(root, "deploy", "receipt.json"), p.ReceiptPath())
	assert.Equal(t, filepath.Join(root, "deploy", "backup"), p.BackupDir())

	p.SetModsRoot(filepath.Join(root, "elsewhere"))
	assert.Equal(t, filepath.Join(root, "elsewhere", "_active"), p.ActiveRoot())
}

func TestProject_EnvOverrides(t *testing.T) {
	root := t.TempDir()
	modsRoot := t.TempDir()
	t.Setenv(paths.EnvProjectRoot, root)
	t.Setenv(paths.EnvModsRoot, modsRoot)

	p, err := paths.New("")
	require.NoError(t, err)
	assert.Equal(t, root, p.Root())
	assert.Equal(t, modsRoot, p.ModsRoot())
}

func TestNewGame_RequiresExe(t *testing.T) {
	_, err := paths.NewGame("  ")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrGamePath))
}

func TestGame_Paths(t *testing.T) {
	g, err := paths.NewGame(filepath.Join(t.TempDir(), "Endfield.exe"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(g.Root(), "Mods"), g.MigotoModsDir())
	assert.Equal(t,
		filepath.Join(g.Root(), "resources", "table.bytes"),
		g.AssetPath("resources/table.bytes"))
}

func TestResolveBackend_PrefersVFS(t *testing.T) {
	fsys := filesystem.NewAferoFS(afero.NewMemMapFs())
	g, err := paths.NewGame("/game/Endfield.exe")
	require.NoError(t, err)

	require.NoError(t, fsys.MkdirAll("/game/Endfield_Data/Persistent/VFS", 0755))

	b, err := g.ResolveBackend(fsys, "")
	require.NoError(t, err)
	assert.Equal(t, paths.BackendVFS, b.Name)
	assert.Equal(t, filepath.Join(g.Root(), "Endfield_Data", "Persistent", "VFS", "EndfieldModSafe"), b.SafeRoot)
	assert.Equal(t, filepath.Join(b.SafeRoot, "active"), b.DestActive)
}

func TestResolveBackend_FallbackCreatesStreamingAssets(t *testing.T) {
	fsys := filesystem.NewAferoFS(afero.NewMemMapFs())
	g, err := paths.NewGame("/game/Endfield.exe")
	require.NoError(t, err)

	b, err := g.ResolveBackend(fsys, "CustomSafe")
	require.NoError(t, err)
	assert.Equal(t, paths.BackendStreamingAssets, b.Name)
	assert.Equal(t, filepath.Join(g.Root(), "Endfield_Data", "StreamingAssets", "CustomSafe"), b.SafeRoot)

	info, err := fsys.Stat(filepath.Join(g.Root(), "Endfield_Data", "StreamingAssets"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
