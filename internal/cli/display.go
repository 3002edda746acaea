package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"

	"github.com/endfield-tools/endmod/pkg/config"
	"github.com/endfield-tools/endmod/pkg/types"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	enabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	typeStyles = map[types.ModType]lipgloss.Style{
		types.ModTypeMigoto:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		types.ModTypeAsset:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		types.ModTypeConfig:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		types.ModTypeFolder:  mutedStyle,
		types.ModTypeUnknown: errorStyle,
	}
)

func renderModList(w io.Writer, mods []types.Mod, cfg *config.AppConfig) {
	if len(mods) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No mods found"))
		return
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Mods (%d)", len(mods))))

	rows := pterm.TableData{{"", "Type", "Name", "Path", "Notes"}}
	for _, m := range mods {
		mark := " "
		if cfg.IsEnabled(m.RelPath) {
			mark = enabledStyle.Render("*")
		}

		var notes []string
		for _, e := range m.Errors {
			notes = append(notes, errorStyle.Render(e))
		}
		for _, warning := range m.Warnings {
			notes = append(notes, warnStyle.Render(warning))
		}

		rows = append(rows, []string{
			mark,
			typeStyles[m.Type].Render(string(m.Type)),
			m.Name,
			mutedStyle.Render(m.RelPath),
			strings.Join(notes, "; "),
		})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		// Degraded plain rendering is better than no output
		for _, m := range mods {
			fmt.Fprintf(w, "%-8s %s\n", m.Type, m.RelPath)
		}
		return
	}
	fmt.Fprintln(w, out)
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Enabled: %d", len(cfg.EnabledMods))))
}

func renderBuildResult(w io.Writer, r *types.BuildResult) {
	fmt.Fprintf(w, "Overlay rebuilt: %d file(s) at %s\n", r.FilesCopied, r.ActiveRoot)
	for _, m := range r.SkippedMissing {
		fmt.Fprintln(w, warnStyle.Render("  skipped (source vanished): "+m))
	}
	for _, e := range r.SkippedEntries {
		fmt.Fprintln(w, mutedStyle.Render("  skipped copy entry: "+e))
	}
}

func renderConflicts(w io.Writer, overlay, assets []types.Conflict) {
	total := len(overlay) + len(assets)
	if total == 0 {
		fmt.Fprintln(w, enabledStyle.Render("No conflicts"))
		return
	}

	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%d conflict(s) — deploy is blocked", total)))
	renderConflictTable(w, "Overlay paths", overlay)
	renderConflictTable(w, "Game asset paths", assets)
}

func renderConflictTable(w io.Writer, title string, cs []types.Conflict) {
	if len(cs) == 0 {
		return
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	rows := pterm.TableData{{"Path", "Mods", ""}}
	for _, c := range cs {
		note := ""
		if c.Identical {
			note = mutedStyle.Render("identical content")
		}
		rows = append(rows, []string{c.Path, strings.Join(c.Mods, ", "), note})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		for _, c := range cs {
			fmt.Fprintf(w, "  %s <= %s\n", c.Path, strings.Join(c.Mods, ", "))
		}
		return
	}
	fmt.Fprintln(w, out)
}

func renderDeployResult(w io.Writer, r *types.DeployResult) {
	if r.Blocked() {
		renderConflicts(w, r.Conflicts, nil)
		return
	}

	if r.SafeMount != nil {
		fmt.Fprintf(w, "Safe-mount: %d file(s) -> %s (%s backend)\n",
			r.SafeMount.FileCount, r.SafeMount.DestActive, r.SafeMount.Backend)
	}
	if r.Migoto != nil {
		if r.Migoto.DeployedMods == 0 {
			fmt.Fprintln(w, mutedStyle.Render("Folder mods: none matched"))
		} else {
			fmt.Fprintf(w, "Folder mods: %d mod(s), %d file(s) -> %s\n",
				r.Migoto.DeployedMods, r.Migoto.FileCount, r.Migoto.Destination)
		}
	}
	if r.Assets != nil {
		fmt.Fprintf(w, "Assets: %d mod(s), %d file(s), %d new backup(s)\n",
			r.Assets.DeployedMods, r.Assets.FileCount, r.Assets.BackupsTaken)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintln(w, warnStyle.Render("warning: "+warning))
	}
	for _, e := range r.Errors {
		fmt.Fprintln(w, errorStyle.Render("error: "+e))
	}
}

func renderRestoreResult(w io.Writer, r *types.RestoreResult) {
	if r.OverlayRemoved {
		fmt.Fprintln(w, "Safe-mount overlay removed")
	}
	fmt.Fprintf(w, "Restored %d file(s), removed %d mod-created file(s)\n", r.Restored, r.Removed)
	for _, s := range r.SkippedMissingBackup {
		fmt.Fprintln(w, warnStyle.Render("  backup missing, skipped: "+s))
	}
	for _, warning := range r.Warnings {
		fmt.Fprintln(w, warnStyle.Render("warning: "+warning))
	}
}
