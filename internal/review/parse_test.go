package review

import (
	"testing"

	apperr "github.com/prlens/prlens/internal/errors"
)

func TestParseComments_ValidArray(t *testing.T) {
	raw := `[{"file":"a.html","line":1,"issue":"x","suggestion":"y","severity":"high","category":"accessibility","wcag_criteria":"1.1.1"}]`

	comments, err := ParseComments(raw, nil)
	if err != nil {
		t.Fatalf("ParseComments error: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}

	c := comments[0]
	if c.File != "a.html" {
		t.Errorf("File = %q, want a.html", c.File)
	}
	if c.Line != 1 {
		t.Errorf("Line = %d, want 1", c.Line)
	}
	if c.Issue != "x" || c.Suggestion != "y" {
		t.Errorf("Issue/Suggestion = %q/%q, want x/y", c.Issue, c.Suggestion)
	}
	if c.Severity != SeverityHigh {
		t.Errorf("Severity = %q, want high", c.Severity)
	}
	if c.Category != CategoryAccessibility {
		t.Errorf("Category = %q, want accessibility", c.Category)
	}
	if c.Criterion != "1.1.1" {
		t.Errorf("Criterion = %q, want 1.1.1", c.Criterion)
	}
}

func TestParseComments_SurroundingProseAndFences(t *testing.T) {
	raw := "Here is my review of the changes.\n\n```json\n" +
		`[{"file":"a.go","issue":"bug here","suggestion":"fix it","severity":"low","category":"bug"}]` +
		"\n```\nLet me know if you need more detail."

	comments, err := ParseComments(raw, nil)
	if err != nil {
		t.Fatalf("ParseComments error: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}
	if comments[0].File != "a.go" {
		t.Errorf("File = %q, want a.go", comments[0].File)
	}
}

func TestParseComments_DropsInvalidRecords(t *testing.T) {
	raw := `[
		{"file":"a.go","issue":"valid","suggestion":"","severity":"medium","category":"quality"},
		{"file":"b.go","suggestion":"missing issue","severity":"high"},
		{"file":"c.go","issue":"bad severity","severity":"catastrophic"},
		{"file":"d.go","issue":"bad category","severity":"low","category":"vibes"},
		{"issue":"missing file","severity":"low"}
	]`

	comments, err := ParseComments(raw, nil)
	if err != nil {
		t.Fatalf("ParseComments error: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1 (invalid records dropped)", len(comments))
	}
	if comments[0].Issue != "valid" {
		t.Errorf("surviving comment = %+v", comments[0])
	}
}

func TestParseComments_NoArray(t *testing.T) {
	_, err := ParseComments("I found no structured issues worth mentioning.", nil)
	if err == nil {
		t.Fatal("expected error for reply without a JSON array")
	}
	if !apperr.HasCode(err, apperr.ErrCodeUnparsableResponse) {
		t.Errorf("error code = %v, want UNPARSABLE_RESPONSE", apperr.CodeOf(err))
	}
}

func TestParseComments_AllRecordsInvalid(t *testing.T) {
	_, err := ParseComments(`[{"severity":"low"}]`, nil)
	if err == nil {
		t.Fatal("expected error when no valid comments remain")
	}
	if !apperr.HasCode(err, apperr.ErrCodeUnparsableResponse) {
		t.Errorf("error code = %v, want UNPARSABLE_RESPONSE", apperr.CodeOf(err))
	}
}

func TestParseComments_EmptyArrayMeansNoIssues(t *testing.T) {
	comments, err := ParseComments("```json\n[]\n```", nil)
	if err != nil {
		t.Fatalf("ParseComments error: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("got %d comments, want 0", len(comments))
	}
}

func TestParseComments_Normalization(t *testing.T) {
	raw := `[{"file":"  a.go  ","line":-3,"issue":" trailing space ","suggestion":"  s ","severity":"HIGH","category":"Bug","wcag_criteria":"not-a-criterion"}]`

	comments, err := ParseComments(raw, nil)
	if err != nil {
		t.Fatalf("ParseComments error: %v", err)
	}
	c := comments[0]
	if c.File != "a.go" {
		t.Errorf("File = %q, want trimmed a.go", c.File)
	}
	if !c.FileLevel() {
		t.Error("negative line must coerce to file-level")
	}
	if c.Issue != "trailing space" {
		t.Errorf("Issue = %q, want trimmed", c.Issue)
	}
	if c.Severity != SeverityHigh {
		t.Errorf("Severity = %q, want high (case-folded)", c.Severity)
	}
	if c.Category != CategoryBug {
		t.Errorf("Category = %q, want bug (case-folded)", c.Category)
	}
	if c.Criterion != "" {
		t.Errorf("Criterion = %q, want empty for unrecognized format", c.Criterion)
	}
}

func TestParseComments_CriterionAltKey(t *testing.T) {
	raw := `[{"file":"a.html","issue":"x","suggestion":"","severity":"low","criterion":"2.1.1"}]`
	comments, err := ParseComments(raw, nil)
	if err != nil {
		t.Fatalf("ParseComments error: %v", err)
	}
	if comments[0].Criterion != "2.1.1" {
		t.Errorf("Criterion = %q, want 2.1.1 from alternate key", comments[0].Criterion)
	}
}

func TestParseComments_NullLine(t *testing.T) {
	raw := `[{"file":"a.html","line":null,"issue":"x","suggestion":"","severity":"low"}]`
	comments, err := ParseComments(raw, nil)
	if err != nil {
		t.Fatalf("ParseComments error: %v", err)
	}
	if !comments[0].FileLevel() {
		t.Error("null line must be a file-level comment")
	}
}

func TestParseComments_FirstArrayWins(t *testing.T) {
	raw := `ratings [not json] then [{"file":"a.go","issue":"x","suggestion":"","severity":"low"}] and [1,2]`
	comments, err := ParseComments(raw, nil)
	if err != nil {
		t.Fatalf("ParseComments error: %v", err)
	}
	if len(comments) != 1 || comments[0].File != "a.go" {
		t.Errorf("comments = %+v, want the first decodable array", comments)
	}
}
