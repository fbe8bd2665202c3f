package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"tux/pkg/installer"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
}

// NewTable creates a new table writing to Out.
func NewTable(header []string) *Table {
	return NewTableWriter(Out, header)
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, header []string) *Table {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	return &Table{
		writer:  tw,
		headers: header,
	}
}

// AddRow adds a row to the table. The header is written before the first row.
func (t *Table) AddRow(row []string) {
	if t.headers != nil {
		headerRow := make([]string, len(t.headers))
		for i, h := range t.headers {
			headerRow[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(t.writer, strings.Join(headerRow, "\t"))
		t.headers = nil
	}
	fmt.Fprintln(t.writer, strings.Join(row, "\t"))
}

// Render outputs the table.
func (t *Table) Render() {
	t.writer.Flush()
}

// PrintInstallSet prints the packages about to be installed, in order.
func PrintInstallSet(names []string, duplicates int) {
	InfoMsg("The following packages will be installed:")

	styled := make([]string, len(names))
	for i, n := range names {
		styled[i] = PackageName.Sprint(n)
	}
	fmt.Fprintln(Out, strings.Join(styled, " "))

	if duplicates > 0 {
		MutedMsg("(%d repeated dependencies skipped)", duplicates)
	}
}

// PrintStaged prints the artifacts staged by an install.
func PrintStaged(staged []installer.Staged) {
	if len(staged) == 0 {
		MutedMsg("Nothing staged")
		return
	}

	t := NewTable([]string{"name", "version", "size", "artifact"})
	for _, s := range staged {
		t.AddRow([]string{
			PackageName.Sprint(s.Name),
			PackageVersion.Sprint(s.Version),
			FormatBytes(s.Bytes),
			s.File,
		})
	}
	t.Render()
}

// PrintField prints a single labelled value.
func PrintField(label, value string) {
	fmt.Fprintf(Out, "  %s: %s\n", Cyan(label), value)
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int64) string {
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
