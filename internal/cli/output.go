package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Table renders data as a formatted table.
type Table struct {
	headers []string
	rows    [][]string
	writer  io.Writer
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		writer:  os.Stdout,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

// Render writes the table to its writer.
func (t *Table) Render() {
	w := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(t.headers, "\t"))

	sep := make([]string, len(t.headers))
	for i, h := range t.headers {
		sep[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(sep, "\t"))

	for _, row := range t.rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
}

// printOutput prints data in the requested format.
func printOutput(data interface{}) error {
	switch getOutputFormat() {
	case "yaml":
		return printYAML(data)
	default:
		// table callers render themselves; anything else gets JSON
		return printJSON(data)
	}
}

func printJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printYAML(data interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(data)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// useColor is true when stdout is a terminal and --no-color is unset
func useColor() bool {
	return !noColor && term.IsTerminal(int(os.Stdout.Fd()))
}

func colorize(color, s string) string {
	if !useColor() {
		return s
	}
	return color + s + colorReset
}

// formatSeverity returns a severity string with visual indicator.
func formatSeverity(severity string) string {
	switch strings.ToLower(severity) {
	case "critical":
		return colorize(colorRed, "[!] CRITICAL")
	case "high":
		return colorize(colorRed, "[H] HIGH")
	case "medium":
		return colorize(colorYellow, "[M] MEDIUM")
	case "low":
		return "[L] LOW"
	default:
		return severity
	}
}

// formatStatus returns a status string with visual indicator.
func formatStatus(status string) string {
	switch strings.ToLower(status) {
	case "healthy", "resolved", "completed":
		return colorize(colorGreen, "[+] "+status)
	case "critical", "failed":
		return colorize(colorRed, "[-] "+status)
	case "warning", "active", "running":
		return colorize(colorYellow, "[*] "+status)
	case "acknowledged":
		return "[~] " + status
	default:
		return status
	}
}
