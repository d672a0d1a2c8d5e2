package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/devsync/pkg/backup"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/installer"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

// Renderer writes results in one format.
type Renderer struct {
	w      io.Writer
	format Format
	style  palette
}

// New creates a renderer for w. FormatAuto is resolved with DetectFormat.
func New(w io.Writer, format Format) *Renderer {
	if format == FormatAuto {
		format = DetectFormat(w)
	}
	lr := lipgloss.NewRenderer(w)
	if format == FormatTerminal {
		pterm.EnableStyling()
	} else {
		lr = plainRenderer(lr)
		pterm.DisableStyling()
	}
	return &Renderer{w: w, format: format, style: newPalette(lr)}
}

// Format returns the resolved format.
func (r *Renderer) Format() Format { return r.format }

func (r *Renderer) json(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

func (r *Renderer) table(rows [][]string) error {
	if len(rows) < 2 {
		return nil
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	r.printf("%s\n", out)
	return nil
}

// Install renders an install or plan result.
func (r *Renderer) Install(res *installer.Result) error {
	if r.format == FormatJSON {
		return r.json(res)
	}

	title := fmt.Sprintf("%s %s", res.Package, res.Version)
	if res.DryRun {
		title += " (dry run)"
	}
	r.printf("%s  %s\n\n", r.style.title.Render(title), r.status(res.Status))

	rows := [][]string{{"", "Tool", "Component", "Destination", "Detail"}}
	for _, it := range res.Installed {
		rows = append(rows, r.row(r.style.success.Render("✓"), it, installedDetail(it)))
	}
	for _, it := range res.Skipped {
		rows = append(rows, r.row(r.style.warning.Render("-"), it, it.Reason))
	}
	for _, it := range res.Failed {
		rows = append(rows, r.row(r.style.failure.Render("✗"), it, it.ErrorKind))
	}
	for _, it := range res.Removed {
		rows = append(rows, r.row(r.style.muted.Render("−"), it, "removed"))
	}
	if err := r.table(rows); err != nil {
		return err
	}

	r.failures(res.Failed)
	r.summary(len(res.Installed), len(res.Skipped), len(res.Failed), len(res.Removed))
	if res.BackupID != "" {
		r.printf("Backup: %s\n", r.style.code.Render(res.BackupID))
	}
	return nil
}

// Uninstall renders an uninstall result.
func (r *Renderer) Uninstall(res *installer.UninstallResult) error {
	if r.format == FormatJSON {
		return r.json(res)
	}

	title := fmt.Sprintf("%s %s", res.Package, res.Version)
	if res.DryRun {
		title += " (dry run)"
	}
	r.printf("%s\n\n", r.style.title.Render(title))

	rows := [][]string{{"", "Tool", "Component", "Destination", "Detail"}}
	for _, it := range res.Removed {
		rows = append(rows, r.row(r.style.success.Render("✓"), it, "removed"))
	}
	for _, it := range res.Skipped {
		rows = append(rows, r.row(r.style.warning.Render("-"), it, it.Reason))
	}
	for _, it := range res.Failed {
		rows = append(rows, r.row(r.style.failure.Render("✗"), it, it.ErrorKind))
	}
	if err := r.table(rows); err != nil {
		return err
	}

	r.failures(res.Failed)
	r.printf("%d removed, %d kept, %d failed\n", len(res.Removed), len(res.Skipped), len(res.Failed))
	if res.BackupID != "" {
		r.printf("Backup: %s\n", r.style.code.Render(res.BackupID))
	}
	return nil
}

// Status renders installed packages and their drift.
func (r *Renderer) Status(pkgs []installer.PackageStatus) error {
	if r.format == FormatJSON {
		if pkgs == nil {
			pkgs = []installer.PackageStatus{}
		}
		return r.json(pkgs)
	}
	if len(pkgs) == 0 {
		r.printf("%s\n", r.style.muted.Render("No packages installed."))
		return nil
	}

	rows := [][]string{{"Package", "Version", "Tools", "Files", "State"}}
	var drift []string
	for _, p := range pkgs {
		state := r.style.success.Render("ok")
		if len(p.Drift) > 0 {
			state = r.style.warning.Render(fmt.Sprintf("%d drifted", len(p.Drift)))
		}
		rows = append(rows, []string{p.Name, p.Version, joinTools(p.Tools), fmt.Sprint(p.Files), state})
		for _, d := range p.Drift {
			drift = append(drift, fmt.Sprintf("  %s %s %s (%s)", p.Name,
				r.style.warning.Render(string(d.State)), r.style.path.Render(d.File.Key()), d.Tool))
		}
	}
	if err := r.table(rows); err != nil {
		return err
	}
	if len(drift) > 0 {
		r.printf("\nDrift:\n%s\n", strings.Join(drift, "\n"))
	}
	return nil
}

// Backups renders the list of backup sets, newest first.
func (r *Renderer) Backups(sets []backup.Set) error {
	if r.format == FormatJSON {
		if sets == nil {
			sets = []backup.Set{}
		}
		return r.json(sets)
	}
	if len(sets) == 0 {
		r.printf("%s\n", r.style.muted.Render("No backups."))
		return nil
	}
	rows := [][]string{{"ID", "Operation", "Files", "Size", "Created"}}
	for i := range sets {
		s := &sets[i]
		rows = append(rows, []string{
			s.ID, s.Operation, fmt.Sprint(len(s.Files)), humanSize(s.TotalSize()),
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return r.table(rows)
}

// Restore renders a restore result.
func (r *Renderer) Restore(res *backup.RestoreResult) error {
	if r.format == FormatJSON {
		return r.json(res)
	}
	verb := "Restored"
	if res.DryRun {
		verb = "Would restore"
	}
	r.printf("%s %d file(s) from %s\n", verb, len(res.Files), r.style.code.Render(res.SetID))
	for _, f := range res.Files {
		r.printf("  %s\n", r.style.path.Render(f.OriginalPath))
	}
	if res.PreRestoreID != "" {
		r.printf("Previous state saved as %s\n", r.style.code.Render(res.PreRestoreID))
	}
	return nil
}

// Cleanup renders the IDs of deleted backup sets.
func (r *Renderer) Cleanup(ids []string, dryRun bool) error {
	if r.format == FormatJSON {
		if ids == nil {
			ids = []string{}
		}
		return r.json(map[string]interface{}{"deleted": ids, "dry_run": dryRun})
	}
	if len(ids) == 0 {
		r.printf("%s\n", r.style.muted.Render("Nothing to clean up."))
		return nil
	}
	verb := "Deleted"
	if dryRun {
		verb = "Would delete"
	}
	r.printf("%s %d backup(s):\n", verb, len(ids))
	for _, id := range ids {
		r.printf("  %s\n", id)
	}
	return nil
}

// ToolInfo is the listing form of a registry entry.
type ToolInfo struct {
	ID       types.ToolID      `json:"id"`
	Name     string            `json:"name"`
	Detected bool              `json:"detected"`
	Kinds    map[string]string `json:"kinds"`
}

// NewToolInfo describes a capability for listings.
func NewToolInfo(c registry.Capability, detected bool) ToolInfo {
	info := ToolInfo{ID: c.ID, Name: c.Name, Detected: detected, Kinds: map[string]string{}}
	for _, k := range c.Kinds() {
		info.Kinds[string(k)] = c.Rules[k].Describe()
	}
	return info
}

// Tools renders the capability registry.
func (r *Renderer) Tools(tools []ToolInfo, verbose bool) error {
	if r.format == FormatJSON {
		return r.json(tools)
	}
	rows := [][]string{{"Tool", "Name", "Detected", "Components"}}
	for _, t := range tools {
		detected := ""
		if t.Detected {
			detected = r.style.success.Render("yes")
		}
		rows = append(rows, []string{string(t.ID), t.Name, detected, strings.Join(kindNames(t.Kinds), ", ")})
	}
	if err := r.table(rows); err != nil {
		return err
	}
	if !verbose {
		return nil
	}
	for _, t := range tools {
		r.printf("\n%s\n", r.style.title.Render(t.Name))
		for _, k := range kindNames(t.Kinds) {
			r.printf("  %-12s %s\n", k, r.style.path.Render(t.Kinds[k]))
		}
	}
	return nil
}

// Message prints a line of text, or {"message": ...} in JSON mode.
func (r *Renderer) Message(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if r.format == FormatJSON {
		return r.json(map[string]string{"message": msg})
	}
	r.printf("%s\n", msg)
	return nil
}

// Error renders an error. Text output goes to stderr when the renderer
// writes to stdout.
func (r *Renderer) Error(err error) error {
	if r.format == FormatJSON {
		payload := map[string]interface{}{
			"error": err.Error(),
			"code":  string(errors.GetErrorCode(err)),
			"kind":  errors.Kind(err),
		}
		if details := errors.GetErrorDetails(err); len(details) > 0 {
			payload["details"] = details
		}
		return r.json(payload)
	}
	w := r.w
	if w == os.Stdout {
		w = os.Stderr
	}
	_, ferr := fmt.Fprintf(w, "%s %s\n", r.style.failure.Render("Error:"), err)
	return ferr
}

func (r *Renderer) status(s installer.Status) string {
	switch s {
	case installer.StatusComplete:
		return r.style.success.Render(string(s))
	case installer.StatusPartial:
		return r.style.warning.Render(string(s))
	default:
		return r.style.failure.Render(string(s))
	}
}

func (r *Renderer) row(mark string, it installer.Item, detail string) []string {
	dest := it.Path
	if it.Section != "" {
		dest += "#" + it.Section
	}
	return []string{
		mark,
		string(it.Tool),
		fmt.Sprintf("%s (%s)", it.Component, it.Kind),
		r.style.path.Render(dest),
		detail,
	}
}

func (r *Renderer) failures(items []installer.Item) {
	if len(items) == 0 {
		return
	}
	r.printf("\n")
	for _, it := range items {
		r.printf("%s %s/%s: %s\n", r.style.failure.Render("✗"), it.Tool, it.Component, it.Error)
	}
}

func (r *Renderer) summary(installed, skipped, failed, removed int) {
	parts := []string{fmt.Sprintf("%d installed", installed)}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", skipped))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	if removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", removed))
	}
	r.printf("\n%s\n", strings.Join(parts, ", "))
}

func installedDetail(it installer.Item) string {
	if it.Unchanged {
		return "up to date"
	}
	detail := string(it.Strategy)
	if it.Policy != "" {
		detail += " (" + string(it.Policy) + ")"
	}
	return detail
}

func joinTools(tools []types.ToolID) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func kindNames(kinds map[string]string) []string {
	var out []string
	for _, k := range types.AllKinds {
		if _, ok := kinds[string(k)]; ok {
			out = append(out, string(k))
		}
	}
	return out
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
