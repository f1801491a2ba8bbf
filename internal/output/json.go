package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prlens/prlens/internal/review"
)

// JSONWriter outputs the validated comments as a JSON array for external
// consumers (e.g. posting as PR review comments). An empty comment list
// serializes as [] rather than null.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, comments []review.Comment, _ review.Type) error {
	if comments == nil {
		comments = []review.Comment{}
	}
	data, err := json.MarshalIndent(comments, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling comments: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// MarshalComments returns the raw comment JSON artifact as a string.
func MarshalComments(comments []review.Comment) (string, error) {
	if comments == nil {
		comments = []review.Comment{}
	}
	data, err := json.MarshalIndent(comments, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling comments: %w", err)
	}
	return string(data) + "\n", nil
}
