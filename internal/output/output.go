// Package output renders validated review comments as HTML reports and raw
// JSON artifacts.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prlens/prlens/internal/review"
)

// Writer writes a comment list in a specific format.
type Writer interface {
	Write(w io.Writer, comments []review.Comment, t review.Type) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "html":
		return &HTMLWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
