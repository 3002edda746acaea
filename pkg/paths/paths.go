// Package paths provides centralized path handling for endmod: the
// project-side layout (mods root, overlay, deploy metadata) and the
// game-side layout (safe-mount backend, Mods directory, asset roots).
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/types"
)

// Environment variable names
const (
	// EnvProjectRoot overrides the project root location
	EnvProjectRoot = "ENDMOD_ROOT"

	// EnvModsRoot overrides the mods directory location
	EnvModsRoot = "ENDMOD_MODS_ROOT"
)

// Project-side layout.
// IMPORTANT: these names define endmod's on-disk structure and are not
// user-configurable; the receipt ledger and backup store must stay in a
// fixed place for restore to work across runs.
const (
	// ModsDirName is the default mods directory under the project root
	ModsDirName = "mods"

	// ActiveDirName is the generated overlay directory under the mods root
	ActiveDirName = "_active"

	// DataDirName holds the user config under the project root
	DataDirName = "data"

	// ConfigFileName is the persisted user state file
	ConfigFileName = "config.json"

	// SettingsFileName is the optional TOML tool settings file
	SettingsFileName = "endmod.toml"

	// DeployDirName holds deploy metadata under the project root
	DeployDirName = "deploy"

	// ReceiptFileName is the asset-replacement receipt ledger
	ReceiptFileName = "receipt.json"

	// BackupDirName is the backup store under the deploy directory
	BackupDirName = "backup"
)

// Game-side layout.
const (
	// DefaultSafeFolderName is the safe-mount folder created inside the
	// game's persistent storage
	DefaultSafeFolderName = "EndfieldModSafe"

	// ActiveDeployName is the overlay folder under the safe root
	ActiveDeployName = "active"

	// GameDataDirName is the game's data directory
	GameDataDirName = "Endfield_Data"

	// MigotoModsDirName is the game-root folder 3DMigoto loads from
	MigotoModsDirName = "Mods"

	// BackendVFS identifies the preferred persistent-storage backend
	BackendVFS = "vfs"

	// BackendStreamingAssets identifies the legacy fallback backend
	BackendStreamingAssets = "streamingassets"
)

// AllowedAssetRoots are the only game-root-relative top-level folders
// the asset-replacement deploy will ever touch. Files outside these
// roots are ignored by both the deploy and its conflict domain.
var AllowedAssetRoots = []string{
	"Endfield_Data",
	"resources",
	"game_files",
	"translations",
	"plugins",
}

// IsAllowedAssetPath reports whether the game-root-relative path falls
// under one of the allow-listed roots.
func IsAllowedAssetPath(rel string) bool {
	rel = strings.TrimLeft(strings.ReplaceAll(rel, "\\", "/"), "/")
	for _, root := range AllowedAssetRoots {
		if strings.HasPrefix(rel, root+"/") {
			return true
		}
	}
	return false
}

// Project resolves every project-side path from a single root.
type Project struct {
	root     string
	modsRoot string
}

// New creates a Project rooted at root. Empty root falls back to the
// ENDMOD_ROOT environment variable, then the working directory.
func New(root string) (*Project, error) {
	if root == "" {
		root = os.Getenv(EnvProjectRoot)
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "resolving working directory")
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "resolving project root %s", root)
	}

	modsRoot := os.Getenv(EnvModsRoot)
	if modsRoot == "" {
		modsRoot = filepath.Join(abs, ModsDirName)
	}

	return &Project{root: abs, modsRoot: modsRoot}, nil
}

// Root returns the project root directory.
func (p *Project) Root() string { return p.root }

// ModsRoot returns the mods directory.
func (p *Project) ModsRoot() string { return p.modsRoot }

// SetModsRoot overrides the mods directory (from the settings file).
func (p *Project) SetModsRoot(dir string) {
	if dir != "" {
		p.modsRoot = dir
	}
}

// ActiveRoot returns the generated overlay directory.
func (p *Project) ActiveRoot() string {
	return filepath.Join(p.modsRoot, ActiveDirName)
}

// ConfigPath returns the persisted user state file.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.root, DataDirName, ConfigFileName)
}

// SettingsPath returns the optional TOML settings file.
func (p *Project) SettingsPath() string {
	return filepath.Join(p.root, SettingsFileName)
}

// PresetPath returns the enabled-set preset file for the given name.
func (p *Project) PresetPath(name string) string {
	return filepath.Join(p.root, DataDirName, "preset_"+name+".json")
}

// DeployDir returns the deploy metadata directory.
func (p *Project) DeployDir() string {
	return filepath.Join(p.root, DeployDirName)
}

// ReceiptPath returns the asset-replacement receipt ledger.
func (p *Project) ReceiptPath() string {
	return filepath.Join(p.DeployDir(), ReceiptFileName)
}

// BackupDir returns the backup store root.
func (p *Project) BackupDir() string {
	return filepath.Join(p.DeployDir(), BackupDirName)
}

// Game resolves game-side paths from the configured executable.
type Game struct {
	exe  string
	root string
}

// NewGame builds a Game from the configured executable path. The
// executable itself is not required to exist; the root is its parent.
func NewGame(gameExe string) (*Game, error) {
	if strings.TrimSpace(gameExe) == "" {
		return nil, errors.New(errors.ErrGamePath, "game executable is not configured")
	}
	abs, err := filepath.Abs(gameExe)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrGamePath, "resolving %s", gameExe)
	}
	return &Game{exe: abs, root: filepath.Dir(abs)}, nil
}

// Exe returns the configured game executable.
func (g *Game) Exe() string { return g.exe }

// Root returns the game install root (the executable's directory).
func (g *Game) Root() string { return g.root }

// MigotoModsDir returns the folder-style mod destination.
func (g *Game) MigotoModsDir() string {
	return filepath.Join(g.root, MigotoModsDirName)
}

// AssetPath resolves a game-root-relative asset path to an absolute
// destination.
func (g *Game) AssetPath(rel string) string {
	return filepath.Join(g.root, filepath.FromSlash(rel))
}

// Backend holds the resolved safe-mount destination.
type Backend struct {
	// Name is BackendVFS or BackendStreamingAssets.
	Name string

	// SafeRoot is <backend base>/<safe folder name>.
	SafeRoot string

	// DestActive is the deployed overlay folder under SafeRoot.
	DestActive string
}

// ResolveBackend probes the game installation for the preferred
// persistent-storage layout (Endfield_Data/Persistent/VFS) and falls
// back to StreamingAssets, creating it if necessary.
func (g *Game) ResolveBackend(fsys types.FS, safeFolderName string) (*Backend, error) {
	if safeFolderName == "" {
		safeFolderName = DefaultSafeFolderName
	}
	dataDir := filepath.Join(g.root, GameDataDirName)

	base := filepath.Join(dataDir, "Persistent", "VFS")
	name := BackendVFS
	if !fsutil.IsDir(fsys, base) {
		base = filepath.Join(dataDir, "StreamingAssets")
		name = BackendStreamingAssets
		if err := fsys.MkdirAll(base, 0755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrDirCreate, "creating %s", base)
		}
	}

	safeRoot := filepath.Join(base, safeFolderName)
	return &Backend{
		Name:       name,
		SafeRoot:   safeRoot,
		DestActive: filepath.Join(safeRoot, ActiveDeployName),
	}, nil
}
