package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bryan-cox/grantledger/internal/classify"
)

// Summary headers for text output.
const (
	TextHeaderMetrics  = "Metrics:"
	TextHeaderFailures = "\nSkipped records:"
)

// WriteCSV writes the header and rows. Every field is quoted and records end
// with CRLF, the layout existing consumers of the report read.
func WriteCSV(out io.Writer, rows []Row) error {
	w := bufio.NewWriter(out)
	writeQuoted(w, Header)
	for _, r := range rows {
		writeQuoted(w, r.Values())
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// writeQuoted relies on bufio.Writer keeping the first error for Flush.
func writeQuoted(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteString("\r\n")
}

// PrintMetrics prints the metrics section to the writer.
func PrintMetrics(out io.Writer, m Metrics) {
	fmt.Fprintln(out, TextHeaderMetrics)
	fmt.Fprintf(out, "WIP Tasks: %d\n", m.WIPTasks)
	fmt.Fprintf(out, "Tasks Looking for Reviewer: %d\n", m.LookingForReviewer)
	fmt.Fprintf(out, "Available Tasks: %d\n", m.AvailableTasks)
	fmt.Fprintf(out, "Proposals: %d\n", m.Proposals)
	fmt.Fprintf(out, "Total Tasks: %d\n", m.TotalTasks)
}

// PrintFailures prints the records skipped in keep-going mode.
func PrintFailures(out io.Writer, failures []*classify.RecordError) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(out, TextHeaderFailures)
	for _, f := range failures {
		fmt.Fprintf(out, "    • %s (%s)\n", f.Title, f.URL)
		fmt.Fprintf(out, "        ◦ %s\n", f.Err)
	}
}
