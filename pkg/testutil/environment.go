// Package testutil provides test environments with a throwaway project
// tree and a fake game installation.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/endfield-tools/endmod/pkg/filesystem"
	"github.com/endfield-tools/endmod/pkg/manifest"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/types"
)

// TestEnvironment is a real-filesystem sandbox: a project root with a
// mods directory and a fake game install next to it.
type TestEnvironment struct {
	ProjectRoot string
	ModsRoot    string
	GameRoot    string
	GameExe     string

	FS      types.FS
	Project *paths.Project

	t *testing.T
}

// NewTestEnvironment creates a fresh sandbox under t.TempDir().
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	base := t.TempDir()
	projectRoot := filepath.Join(base, "project")
	gameRoot := filepath.Join(base, "game")

	env := &TestEnvironment{
		ProjectRoot: projectRoot,
		ModsRoot:    filepath.Join(projectRoot, paths.ModsDirName),
		GameRoot:    gameRoot,
		GameExe:     filepath.Join(gameRoot, "Endfield.exe"),
		FS:          filesystem.NewOS(),
		t:           t,
	}

	require.NoError(t, os.MkdirAll(env.ModsRoot, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(gameRoot, paths.GameDataDirName), 0755))
	require.NoError(t, os.WriteFile(env.GameExe, []byte("stub"), 0755))

	project, err := paths.New(projectRoot)
	require.NoError(t, err)
	env.Project = project

	return env
}

// SetupMod creates a mod folder under the mods root with the given
// files (relative path → content).
func (e *TestEnvironment) SetupMod(relPath string, files map[string]string) {
	e.t.Helper()
	modDir := filepath.Join(e.ModsRoot, filepath.FromSlash(relPath))
	for rel, content := range files {
		p := filepath.Join(modDir, filepath.FromSlash(rel))
		require.NoError(e.t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(e.t, os.WriteFile(p, []byte(content), 0644))
	}
	if len(files) == 0 {
		require.NoError(e.t, os.MkdirAll(modDir, 0755))
	}
}

// SetupManifest writes a manifest.json into the mod folder.
func (e *TestEnvironment) SetupManifest(relPath string, m manifest.Manifest) {
	e.t.Helper()
	data, err := json.MarshalIndent(m, "", "  ")
	require.NoError(e.t, err)
	p := filepath.Join(e.ModsRoot, filepath.FromSlash(relPath), manifest.FileName)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(e.t, os.WriteFile(p, data, 0644))
}

// SetupGameFile writes a file under the game root.
func (e *TestEnvironment) SetupGameFile(rel, content string) {
	e.t.Helper()
	p := filepath.Join(e.GameRoot, filepath.FromSlash(rel))
	require.NoError(e.t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(e.t, os.WriteFile(p, []byte(content), 0644))
}

// SetupVFS creates the persistent-storage layout so backend probing
// resolves to vfs instead of the StreamingAssets fallback.
func (e *TestEnvironment) SetupVFS() {
	e.t.Helper()
	p := filepath.Join(e.GameRoot, paths.GameDataDirName, "Persistent", "VFS")
	require.NoError(e.t, os.MkdirAll(p, 0755))
}

// ReadGameFile reads a file under the game root.
func (e *TestEnvironment) ReadGameFile(rel string) string {
	e.t.Helper()
	data, err := os.ReadFile(filepath.Join(e.GameRoot, filepath.FromSlash(rel)))
	require.NoError(e.t, err)
	return string(data)
}

// GameFileExists reports whether a file exists under the game root.
func (e *TestEnvironment) GameFileExists(rel string) bool {
	_, err := os.Stat(filepath.Join(e.GameRoot, filepath.FromSlash(rel)))
	return err == nil
}
