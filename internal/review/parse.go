package review

import (
	"encoding/json"
	"regexp"
	"strings"

	apperr "github.com/prlens/prlens/internal/errors"
	"github.com/prlens/prlens/internal/logger"
)

// rawComment is the loosely-typed shape of one comment in the model reply.
// Both wcag_criteria and criterion are accepted for the criterion field.
type rawComment struct {
	File         string `json:"file"`
	Line         *int   `json:"line"`
	Issue        string `json:"issue"`
	Suggestion   string `json:"suggestion"`
	Severity     string `json:"severity"`
	Category     string `json:"category"`
	WCAGCriteria string `json:"wcag_criteria"`
	Criterion    string `json:"criterion"`
}

// criterionRe matches a WCAG success-criterion identifier such as "1.1.1".
var criterionRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ParseComments extracts the first JSON array from the model's free-form
// reply and validates it into Comments. The reply may wrap the array in
// prose or markdown code fences. Records missing required fields or carrying
// unrecognized severity/category values are dropped with a warning; the
// parse fails only when no array is found, the JSON is invalid, or a
// non-empty array yields zero valid comments.
func ParseComments(raw string, log *logger.Logger) ([]Comment, error) {
	if log == nil {
		log = logger.Nop()
	}

	items, ok := extractArray(raw)
	if !ok {
		return nil, apperr.New(apperr.ErrCodeUnparsableResponse,
			"no JSON array found in model reply")
	}

	comments := make([]Comment, 0, len(items))
	for i, item := range items {
		var rc rawComment
		if err := json.Unmarshal(item, &rc); err != nil {
			log.Warnf("dropping comment %d: malformed record: %v", i, err)
			continue
		}
		c, reason := normalize(rc)
		if reason != "" {
			log.Warnf("dropping comment %d: %s", i, reason)
			continue
		}
		comments = append(comments, c)
	}

	if len(items) > 0 && len(comments) == 0 {
		return nil, apperr.New(apperr.ErrCodeUnparsableResponse,
			"no valid comments in model reply")
	}

	return comments, nil
}

// extractArray locates the first syntactically complete JSON array in text
// and decodes its elements. Scanning from each '[' tolerates surrounding
// prose and ```json fences without fence-specific handling.
func extractArray(text string) ([]json.RawMessage, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var items []json.RawMessage
		if err := dec.Decode(&items); err == nil {
			return items, true
		}
	}
	return nil, false
}

// normalize validates a raw record against the comment schema and trims its
// fields. It returns a drop reason for invalid records.
func normalize(rc rawComment) (Comment, string) {
	c := Comment{
		File:       strings.TrimSpace(rc.File),
		Issue:      strings.TrimSpace(rc.Issue),
		Suggestion: strings.TrimSpace(rc.Suggestion),
		Severity:   Severity(strings.ToLower(strings.TrimSpace(rc.Severity))),
		Category:   Category(strings.ToLower(strings.TrimSpace(rc.Category))),
	}

	if c.File == "" {
		return Comment{}, "missing file"
	}
	if c.Issue == "" {
		return Comment{}, "missing issue"
	}
	if !ValidSeverity(c.Severity) {
		return Comment{}, "unrecognized severity " + string(rc.Severity)
	}
	if !ValidCategory(c.Category) {
		return Comment{}, "unrecognized category " + string(rc.Category)
	}

	if rc.Line != nil && *rc.Line > 0 {
		c.Line = *rc.Line
	}

	criterion := strings.TrimSpace(rc.WCAGCriteria)
	if criterion == "" {
		criterion = strings.TrimSpace(rc.Criterion)
	}
	if criterionRe.MatchString(criterion) {
		c.Criterion = criterion
	}

	return c, ""
}
