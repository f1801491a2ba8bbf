// Package diff models the changed files of a pull request and filters them
// for review.
package diff

import (
	"fmt"
	"strings"
)

// Status describes how a file changed in a pull request.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusRemoved  Status = "removed"
	StatusRenamed  Status = "renamed"
)

// ParseStatus maps a source-control status string onto a known Status.
// Unrecognized values are treated as modified.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusAdded, StatusModified, StatusRemoved, StatusRenamed:
		return Status(s)
	default:
		return StatusModified
	}
}

// Record is one changed file flowing through the review pipeline. It is
// constructed once when the diff is fetched and never mutated afterwards.
type Record struct {
	Path      string `json:"path"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Status    Status `json:"status"`
}

// ChangedLines returns the total number of changed lines.
func (r Record) ChangedLines() int {
	return r.Additions + r.Deletions
}

// Summary aggregates change counts across a set of records.
type Summary struct {
	FilesChanged int `json:"files_changed"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	TotalChanges int `json:"total_changes"`
}

// Summarize computes a Summary over records.
func Summarize(records []Record) Summary {
	var s Summary
	s.FilesChanged = len(records)
	for _, r := range records {
		s.Additions += r.Additions
		s.Deletions += r.Deletions
	}
	s.TotalChanges = s.Additions + s.Deletions
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d files, +%d/-%d (%d total changes)",
		s.FilesChanged, s.Additions, s.Deletions, s.TotalChanges)
}

// ParseUnified splits a unified diff into per-file Records, counting added
// and deleted lines per file. File boundaries are "--- a/<path>" header
// lines; the "+++"/"---" header lines themselves are not counted as changes.
func ParseUnified(text string) []Record {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var records []Record
	var current []string
	path := ""

	flush := func() {
		if path == "" || len(current) == 0 {
			return
		}
		records = append(records, buildRecord(path, current))
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "--- a/") {
			flush()
			path = strings.TrimPrefix(line, "--- a/")
		}
		if path != "" {
			current = append(current, line)
		}
	}
	flush()

	return records
}

func buildRecord(path string, lines []string) Record {
	var adds, dels int
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			adds++
		case strings.HasPrefix(line, "-"):
			dels++
		}
	}

	status := StatusModified
	for _, line := range lines {
		if strings.HasPrefix(line, "--- /dev/null") {
			status = StatusAdded
			break
		}
		if strings.HasPrefix(line, "+++ /dev/null") {
			status = StatusRemoved
			break
		}
	}

	return Record{
		Path:      path,
		Patch:     strings.Join(lines, "\n"),
		Additions: adds,
		Deletions: dels,
		Status:    status,
	}
}
