package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Report summarizes a batch run.
type Report struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	TotalAttempted int       `json:"total_attempted"`
	Succeeded      int       `json:"succeeded"`
	Failed         int       `json:"failed"`
	Skipped        int       `json:"skipped"`
	Entries        []Entry   `json:"entries"`
}

// Entry records the outcome of one document.
type Entry struct {
	Source     string        `json:"source"`
	Output     string        `json:"output,omitempty"`
	SourceHash string        `json:"source_hash,omitempty"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	Articles   int           `json:"articles,omitempty"`
	Warnings   int           `json:"warnings"`
	Duration   time.Duration `json:"duration"`
}

func (r *Report) tally() {
	r.TotalAttempted, r.Succeeded, r.Failed, r.Skipped = 0, 0, 0, 0
	for _, entry := range r.Entries {
		switch entry.Status {
		case StatusSucceeded:
			r.Succeeded++
			r.TotalAttempted++
		case StatusFailed:
			r.Failed++
			r.TotalAttempted++
		case StatusSkipped:
			r.Skipped++
		}
	}
}

// FormatReport formats a report for terminal output.
func FormatReport(report *Report) string {
	var builder strings.Builder

	builder.WriteString("\nBatch Parse Report\n")
	builder.WriteString(strings.Repeat("═", 60) + "\n")
	builder.WriteString(fmt.Sprintf("Attempted: %d | Succeeded: %d | Skipped: %d | Failed: %d\n",
		report.TotalAttempted, report.Succeeded, report.Skipped, report.Failed))
	builder.WriteString(strings.Repeat("─", 60) + "\n")

	for _, entry := range report.Entries {
		status := entry.Status
		switch status {
		case StatusSucceeded:
			status = "[OK]"
		case StatusSkipped:
			status = "[SKIP]"
		case StatusFailed:
			status = "[FAIL]"
		}

		line := fmt.Sprintf("  %-8s %-30s", status, filepath.Base(entry.Source))
		if entry.Articles > 0 {
			line += fmt.Sprintf(" (%d articles)", entry.Articles)
		}
		if entry.Warnings > 0 {
			line += fmt.Sprintf(" %d warnings", entry.Warnings)
		}
		if entry.Error != "" {
			line += fmt.Sprintf(" error: %s", entry.Error)
		}
		builder.WriteString(line + "\n")
	}

	if !report.FinishedAt.IsZero() {
		builder.WriteString(fmt.Sprintf("\nElapsed: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)))
	}
	return builder.String()
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
