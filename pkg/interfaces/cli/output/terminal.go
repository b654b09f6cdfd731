package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/vsinha/opsreport/pkg/application/dto"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 2)
)

// PrintReport writes a short run summary: per-source status, unmatched key
// counts and where the output went
func PrintReport(w io.Writer, result *dto.ReportResult, cfg Config) {
	fmt.Fprintln(w, titleStyle.Render("Order / WIP reconciliation "+result.RunID[:min(8, len(result.RunID))]))

	headers := []string{"Source", "Status", "Rows", "Unmatched", "Remapped"}
	rows := make([][]string, 0, len(result.Sources))
	for _, s := range result.Sources {
		unmatched, remapped := "-", "-"
		if result.Summary != nil {
			if set, ok := result.Summary.Unmatched[s.Source]; ok {
				unmatched = strconv.Itoa(set.Len())
			}
		}
		if set, ok := result.Mapped[s.Source]; ok {
			remapped = strconv.Itoa(set.Len())
		}
		rows = append(rows, []string{s.Source, s.Status, strconv.Itoa(s.Rows), unmatched, remapped})
	}
	fmt.Fprint(w, renderTable(headers, rows))

	for _, s := range result.Sources {
		if s.Status == dto.StatusFailed {
			errorColor.Fprintf(w, "✗ %s: %s\n", s.Source, s.Error)
		}
	}

	if result.Summary != nil {
		if n := result.Summary.AllUnmatched().Len(); n > 0 {
			warningColor.Fprintf(w, "⚠ %d keys without an order row (marked red)\n", n)
		}
		if semi := result.Summary.SemiFinishedUnmatched; semi != nil && semi.Len() > 0 {
			warningColor.Fprintf(w, "⚠ %d semi-finished rules without an order row\n", semi.Len())
		}
	}

	if cfg.Path != "" {
		successColor.Fprintf(w, "✓ %d sheets written to %s", len(result.Sheets), cfg.Path)
		if cfg.Elapsed > 0 {
			mutedColor.Fprintf(w, " (%s)", cfg.Elapsed.Round(time.Millisecond))
		}
		fmt.Fprintln(w)
	}
}

// renderTable pads cells by display width so CJK names line up
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	writeLine := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		sb.WriteString("\n")
	}
	writeLine(headers)
	sep := make([]string, len(headers))
	for i, n := range widths {
		sep[i] = strings.Repeat("-", n)
	}
	writeLine(sep)
	for _, row := range rows {
		writeLine(row)
	}
	return sb.String()
}
