// Package launch starts the game executable with the configured
// renderer flags.
package launch

import (
	"os/exec"
	"path/filepath"

	"github.com/endfield-tools/endmod/pkg/config"
	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/logging"
)

// Args returns the engine command-line flags for a renderer choice.
// Auto passes nothing and lets the engine decide.
func Args(renderer string) []string {
	switch renderer {
	case config.RendererDX11:
		return []string{"-force-d3d11", "-force-feature-level-11-0"}
	case config.RendererDX12:
		return []string{"-force-d3d12"}
	default:
		return nil
	}
}

// Launch starts the game executable detached, with the renderer flags
// followed by any extra arguments. It does not wait for the process.
func Launch(gameExe string, renderer string, extraArgs ...string) error {
	logger := logging.GetLogger("launch")

	if gameExe == "" {
		return errors.New(errors.ErrGamePath, "game executable is not configured")
	}
	abs, err := filepath.Abs(gameExe)
	if err != nil {
		return errors.Wrapf(err, errors.ErrGamePath, "resolving %s", gameExe)
	}

	args := append(Args(renderer), extraArgs...)

	cmd := exec.Command(abs, args...)
	cmd.Dir = filepath.Dir(abs)
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, errors.ErrGamePath, "launching %s", abs)
	}

	logger.Info().
		Str("exe", abs).
		Strs("args", args).
		Int("pid", cmd.Process.Pid).
		Msg("Game launched")

	// The process is intentionally not waited on; release it so it
	// outlives endmod.
	return cmd.Process.Release()
}
