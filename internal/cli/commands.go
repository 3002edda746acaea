// Package cli builds the endmod command tree.
package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/endfield-tools/endmod/internal/version"
	"github.com/endfield-tools/endmod/pkg/activeset"
	"github.com/endfield-tools/endmod/pkg/config"
	"github.com/endfield-tools/endmod/pkg/conflicts"
	"github.com/endfield-tools/endmod/pkg/deploy"
	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/filesystem"
	"github.com/endfield-tools/endmod/pkg/launch"
	"github.com/endfield-tools/endmod/pkg/logging"
	"github.com/endfield-tools/endmod/pkg/paths"
	"github.com/endfield-tools/endmod/pkg/scanner"
	"github.com/endfield-tools/endmod/pkg/types"
)

// app bundles everything a subcommand needs once the root flags are
// resolved.
type app struct {
	fs       types.FS
	project  *paths.Project
	cfg      *config.AppConfig
	settings config.Settings
	quiet    bool
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity   int
		projectRoot string
		quiet       bool
	)

	rootCmd := &cobra.Command{
		Use:   "endmod",
		Short: "A safe mod manager for Arknights: Endfield",
		Long: `endmod manages a directory of mods for a single game installation:
it classifies mod folders, builds a merged overlay from the enabled
subset, detects conflicts, and deploys non-destructively. Every deploy
is undoable: originals are backed up once and restored exactly.`,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", "", "Project root (default: ENDMOD_ROOT or working directory)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	newApp := func() (*app, error) {
		fsys := filesystem.NewOS()
		project, err := paths.New(projectRoot)
		if err != nil {
			return nil, err
		}
		settings, err := config.LoadSettings(fsys, project)
		if err != nil {
			return nil, err
		}
		cfg, err := config.Load(fsys, project)
		if err != nil {
			return nil, err
		}
		return &app{fs: fsys, project: project, cfg: cfg, settings: settings, quiet: quiet}, nil
	}

	rootCmd.AddCommand(newListCmd(newApp))
	rootCmd.AddCommand(newEnableCmd(newApp, true))
	rootCmd.AddCommand(newEnableCmd(newApp, false))
	rootCmd.AddCommand(newBuildCmd(newApp))
	rootCmd.AddCommand(newConflictsCmd(newApp))
	rootCmd.AddCommand(newDeployCmd(newApp))
	rootCmd.AddCommand(newRestoreCmd(newApp))
	rootCmd.AddCommand(newPresetCmd(newApp))
	rootCmd.AddCommand(newGameCmd(newApp))
	rootCmd.AddCommand(newRendererCmd(newApp))
	rootCmd.AddCommand(newLaunchCmd(newApp))

	return rootCmd
}

func newListCmd(newApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"scan"},
		Short:   "Scan the mods directory and list discovered mods",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			mods, err := scanner.New(a.fs).Scan(a.project.ModsRoot())
			if err != nil {
				return err
			}
			renderModList(cmd.OutOrStdout(), mods, a.cfg)
			return nil
		},
	}
}

func newEnableCmd(newApp func() (*app, error), enable bool) *cobra.Command {
	use, short := "enable <mod>...", "Enable mods and rebuild the active overlay"
	if !enable {
		use, short = "disable <mod>...", "Disable mods and rebuild the active overlay"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if enable {
				mods, err := scanner.New(a.fs).Scan(a.project.ModsRoot())
				if err != nil {
					return err
				}
				byRel := map[string]*types.Mod{}
				for i := range mods {
					byRel[mods[i].RelPath] = &mods[i]
				}
				for _, arg := range args {
					if m, ok := byRel[types.NormalizeRelPath(arg)]; ok && !m.CanEnable() {
						return errors.Newf(errors.ErrInvalidInput,
							"mod %s has errors and cannot be enabled: %s", m.RelPath, m.Errors[0])
					}
				}
			}

			for _, arg := range args {
				if err := a.cfg.SetEnabled(arg, enable); err != nil {
					return err
				}
			}

			result, err := rebuildDebounced(a)
			if err != nil {
				return err
			}
			renderBuildResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

// rebuildDebounced funnels the rebuild through the debouncer so a batch
// of toggles from one invocation coalesces into a single build, then
// waits for it.
func rebuildDebounced(a *app) (*types.BuildResult, error) {
	builder := activeset.New(a.fs)

	done := make(chan struct{})
	var result *types.BuildResult
	var buildErr error

	d := activeset.NewDebouncer(activeset.DefaultQuietInterval, func() {
		result, buildErr = builder.Build(a.project.ModsRoot(), a.cfg.EnabledMods)
		close(done)
	})
	defer d.Close()

	d.Trigger()
	<-done
	return result, buildErr
}

func newBuildCmd(newApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Rebuild the active overlay from the enabled set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			result, err := activeset.New(a.fs).Build(a.project.ModsRoot(), a.cfg.EnabledMods)
			if err != nil {
				return err
			}
			renderBuildResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newConflictsCmd(newApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "Report destination paths written by more than one enabled mod",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			detector := conflicts.New(a.fs)
			overlay, err := detector.DetectOverlay(a.project.ModsRoot(), a.cfg.EnabledMods)
			if err != nil {
				return err
			}
			assets, err := detector.DetectAssets(a.project.ModsRoot(), a.cfg.EnabledMods)
			if err != nil {
				return err
			}
			renderConflicts(cmd.OutOrStdout(), overlay, assets)
			return nil
		},
	}
}

func newDeployCmd(newApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Build and project the enabled set onto the game installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			buildResult, err := activeset.New(a.fs).Build(a.project.ModsRoot(), a.cfg.EnabledMods)
			if err != nil {
				return err
			}

			deployer := deploy.New(a.fs, a.project)
			deployer.SetQuiet(a.quiet)
			result, err := deployer.Deploy(deploy.Options{
				ModsRoot:       a.project.ModsRoot(),
				ActiveRoot:     buildResult.ActiveRoot,
				Enabled:        a.cfg.EnabledMods,
				GameExe:        a.cfg.GameExe,
				SafeFolderName: a.settings.SafeFolderName,
			})
			if err != nil {
				return err
			}
			renderDeployResult(cmd.OutOrStdout(), result)
			if result.Blocked() {
				return errors.Newf(errors.ErrConflictDetected,
					"%d conflicting destination(s), deploy refused", len(result.Conflicts))
			}
			return nil
		},
	}
}

func newRestoreCmd(newApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Undo the deploy and restore original game files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			deployer := deploy.New(a.fs, a.project)
			deployer.SetQuiet(a.quiet)
			result, err := deployer.Restore(deploy.Options{
				GameExe:        a.cfg.GameExe,
				SafeFolderName: a.settings.SafeFolderName,
			})
			if err != nil {
				return err
			}
			renderRestoreResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newPresetCmd(newApp func() (*app, error)) *cobra.Command {
	presetCmd := &cobra.Command{
		Use:   "preset",
		Short: "Save or load enabled-set presets (A, B, C)",
	}
	presetCmd.AddCommand(&cobra.Command{
		Use:   "save <name>",
		Short: "Snapshot the enabled set into a preset slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.cfg.SavePreset(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preset %s saved (%d mods)\n",
				a.cfg.CurrentPreset, len(a.cfg.EnabledMods))
			return nil
		},
	})
	presetCmd.AddCommand(&cobra.Command{
		Use:   "load <name>",
		Short: "Replace the enabled set with a preset and rebuild",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.cfg.LoadPreset(args[0]); err != nil {
				return err
			}
			result, err := activeset.New(a.fs).Build(a.project.ModsRoot(), a.cfg.EnabledMods)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preset %s loaded (%d mods)\n",
				a.cfg.CurrentPreset, len(a.cfg.EnabledMods))
			renderBuildResult(cmd.OutOrStdout(), result)
			return nil
		},
	})
	return presetCmd
}

func newGameCmd(newApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "game <path-to-exe>",
		Short: "Set the game executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.cfg.SetGameExe(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Game executable set: %s\n", args[0])
			return nil
		},
	}
}

func newRendererCmd(newApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:       "renderer <auto|dx11|dx12>",
		Short:     "Set the renderer forced at launch",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{config.RendererAuto, config.RendererDX11, config.RendererDX12},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.cfg.SetRenderer(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renderer set: %s\n", a.cfg.Renderer)
			return nil
		},
	}
}

func newLaunchCmd(newApp func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "launch [-- extra args...]",
		Short: "Launch the game with the configured renderer flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return launch.Launch(a.cfg.GameExe, a.cfg.Renderer, args...)
		},
	}
}
