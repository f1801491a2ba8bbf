package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prlens/prlens/internal/diff"
	apperr "github.com/prlens/prlens/internal/errors"
)

type fakeSource struct {
	records    []diff.Record
	fetchErr   error
	contextStr string
	contextErr error
	closed     bool
}

func (f *fakeSource) FetchDiff(ctx context.Context, prNumber int) ([]diff.Record, error) {
	return f.records, f.fetchErr
}

func (f *fakeSource) FetchContext(ctx context.Context, prNumber int) (string, error) {
	return f.contextStr, f.contextErr
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

type fakeCompleter struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func (f *fakeCompleter) Name() string { return "fake" }

type fakeRenderer struct {
	calls    int
	comments []Comment
}

func (f *fakeRenderer) Render(comments []Comment, t Type) (string, error) {
	f.calls++
	f.comments = comments
	return "<html>report</html>", nil
}

type memCache map[string]string

func (m memCache) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m memCache) Put(key, response string) error {
	m[key] = response
	return nil
}

func emptyFilter(t *testing.T) *diff.Filter {
	t.Helper()
	f, err := diff.Compile(diff.Criteria{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return f
}

func TestRun_EndToEnd(t *testing.T) {
	source := &fakeSource{
		records: []diff.Record{
			{Path: "index.html", Patch: "+<img src=\"logo.png\">", Additions: 1, Status: diff.StatusModified},
			{Path: "yarn.lock", Patch: "+lots of noise", Additions: 500, Status: diff.StatusModified},
		},
	}
	completer := &fakeCompleter{
		reply: "```json\n" +
			`[{"file":"index.html","line":42,"issue":"Image missing alt attribute","suggestion":"Add alt text","severity":"high","wcag_criteria":"1.1.1"}]` +
			"\n```",
	}
	renderer := &fakeRenderer{}

	eng := New(source, completer, emptyFilter(t), renderer, nil, nil, Options{
		Type:      TypeAccessibility,
		MaxTokens: 1024,
	})

	result, err := eng.Run(context.Background(), 42)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(result.Comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(result.Comments))
	}
	c := result.Comments[0]
	if c.File != "index.html" || c.Line != 42 || c.Severity != SeverityHigh || c.Criterion != "1.1.1" {
		t.Errorf("comment = %+v", c)
	}
	if result.HTML == "" {
		t.Error("result missing rendered report")
	}

	// The lock file is excluded before the prompt is built.
	if strings.Contains(completer.prompt, "yarn.lock") {
		t.Error("prompt includes a default-excluded lock file")
	}
	if !strings.Contains(completer.prompt, "index.html") {
		t.Error("prompt missing the kept file")
	}
	if result.Summary.FilesChanged != 1 {
		t.Errorf("Summary.FilesChanged = %d, want 1", result.Summary.FilesChanged)
	}
	if !source.closed {
		t.Error("diff source not closed after run")
	}
}

func TestRun_EmptyAfterFilter_SkipsCompletion(t *testing.T) {
	source := &fakeSource{records: []diff.Record{{Path: "yarn.lock", Additions: 10}}}
	completer := &fakeCompleter{reply: "should never be called"}
	renderer := &fakeRenderer{}

	eng := New(source, completer, emptyFilter(t), renderer, nil, nil, Options{Type: TypeAccessibility})

	result, err := eng.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times, want 0 for an empty filtered set", completer.calls)
	}
	if len(result.Comments) != 0 {
		t.Errorf("got %d comments, want 0", len(result.Comments))
	}
	if renderer.calls != 1 {
		t.Error("empty review must still render a report")
	}
	if !source.closed {
		t.Error("diff source not closed")
	}
}

func TestRun_EmptyAfterFilter_RequireContent(t *testing.T) {
	source := &fakeSource{records: nil}
	eng := New(source, &fakeCompleter{}, emptyFilter(t), &fakeRenderer{}, nil, nil, Options{
		Type:           TypeAccessibility,
		RequireContent: true,
	})

	_, err := eng.Run(context.Background(), 1)
	if !apperr.HasCode(err, apperr.ErrCodeNoReviewableContent) {
		t.Errorf("error code = %v, want NO_REVIEWABLE_CONTENT", apperr.CodeOf(err))
	}
	if !source.closed {
		t.Error("diff source not closed on failure path")
	}
}

func TestRun_FetchFailure(t *testing.T) {
	source := &fakeSource{fetchErr: errors.New("connection refused")}
	eng := New(source, &fakeCompleter{}, emptyFilter(t), &fakeRenderer{}, nil, nil, Options{Type: TypeCodeReview})

	_, err := eng.Run(context.Background(), 1)
	if !apperr.HasCode(err, apperr.ErrCodeSourceUnavailable) {
		t.Errorf("error code = %v, want SOURCE_UNAVAILABLE", apperr.CodeOf(err))
	}
	if !source.closed {
		t.Error("diff source not closed on failure path")
	}
}

func TestRun_FetchFailureKeepsTypedCode(t *testing.T) {
	source := &fakeSource{fetchErr: apperr.New(apperr.ErrCodeNotFound, "PR #9 not found")}
	eng := New(source, &fakeCompleter{}, emptyFilter(t), &fakeRenderer{}, nil, nil, Options{Type: TypeCodeReview})

	_, err := eng.Run(context.Background(), 9)
	if !apperr.HasCode(err, apperr.ErrCodeNotFound) {
		t.Errorf("error code = %v, want NOT_FOUND preserved", apperr.CodeOf(err))
	}
}

func TestRun_EmptyReply(t *testing.T) {
	source := &fakeSource{records: []diff.Record{{Path: "a.go", Patch: "+x", Additions: 1}}}
	eng := New(source, &fakeCompleter{reply: "   \n"}, emptyFilter(t), &fakeRenderer{}, nil, nil, Options{Type: TypeCodeReview})

	_, err := eng.Run(context.Background(), 1)
	if !apperr.HasCode(err, apperr.ErrCodeCompletionFailure) {
		t.Errorf("error code = %v, want COMPLETION_FAILURE", apperr.CodeOf(err))
	}
}

func TestRun_UnparsableReply(t *testing.T) {
	source := &fakeSource{records: []diff.Record{{Path: "a.go", Patch: "+x", Additions: 1}}}
	eng := New(source, &fakeCompleter{reply: "no structured output here"}, emptyFilter(t), &fakeRenderer{}, nil, nil, Options{Type: TypeCodeReview})

	_, err := eng.Run(context.Background(), 1)
	if !apperr.HasCode(err, apperr.ErrCodeUnparsableResponse) {
		t.Errorf("error code = %v, want UNPARSABLE_RESPONSE", apperr.CodeOf(err))
	}
}

func TestRun_CacheRoundTrip(t *testing.T) {
	records := []diff.Record{{Path: "a.go", Patch: "+x", Additions: 1}}
	reply := `[{"file":"a.go","issue":"x","suggestion":"y","severity":"low"}]`
	cache := memCache{}

	completer := &fakeCompleter{reply: reply}
	eng := New(&fakeSource{records: records}, completer, emptyFilter(t), &fakeRenderer{}, cache, nil, Options{Type: TypeCodeReview})
	first, err := eng.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	if first.Cached {
		t.Error("first run must not be served from cache")
	}

	eng2 := New(&fakeSource{records: records}, completer, emptyFilter(t), &fakeRenderer{}, cache, nil, Options{Type: TypeCodeReview})
	second, err := eng2.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if !second.Cached {
		t.Error("second run with identical prompt must hit the cache")
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls)
	}
	if len(second.Comments) != 1 {
		t.Errorf("cached run produced %d comments, want 1", len(second.Comments))
	}
}

func TestRun_CacheKeyedByModel(t *testing.T) {
	records := []diff.Record{{Path: "a.go", Patch: "+x", Additions: 1}}
	cache := memCache{}

	oldReply := `[{"file":"a.go","issue":"from old model","suggestion":"","severity":"low"}]`
	first := New(&fakeSource{records: records}, &fakeCompleter{reply: oldReply}, emptyFilter(t), &fakeRenderer{}, cache, nil, Options{
		Type:  TypeCodeReview,
		Model: "claude-3-5-sonnet-20241022",
	})
	if _, err := first.Run(context.Background(), 1); err != nil {
		t.Fatalf("first Run error: %v", err)
	}

	newReply := `[{"file":"a.go","issue":"from new model","suggestion":"","severity":"low"}]`
	newCompleter := &fakeCompleter{reply: newReply}
	second := New(&fakeSource{records: records}, newCompleter, emptyFilter(t), &fakeRenderer{}, cache, nil, Options{
		Type:  TypeCodeReview,
		Model: "claude-3-5-haiku-20241022",
	})
	result, err := second.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("second Run error: %v", err)
	}

	if result.Cached {
		t.Error("run with a different model must not hit the other model's cache entry")
	}
	if newCompleter.calls != 1 {
		t.Errorf("completer called %d times, want 1", newCompleter.calls)
	}
	if len(result.Comments) != 1 || result.Comments[0].Issue != "from new model" {
		t.Errorf("comments = %+v, want the new model's reply", result.Comments)
	}

	// Same model again does hit the cache.
	third := New(&fakeSource{records: records}, &fakeCompleter{reply: newReply}, emptyFilter(t), &fakeRenderer{}, cache, nil, Options{
		Type:  TypeCodeReview,
		Model: "claude-3-5-haiku-20241022",
	})
	result, err = third.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("third Run error: %v", err)
	}
	if !result.Cached {
		t.Error("identical provider/model/prompt must be served from cache")
	}
}

func TestNew_NilFilter(t *testing.T) {
	source := &fakeSource{records: []diff.Record{
		{Path: "a.go", Patch: "+x", Additions: 1},
		{Path: "yarn.lock", Patch: "+noise", Additions: 1},
	}}
	completer := &fakeCompleter{reply: "[]"}
	eng := New(source, completer, nil, &fakeRenderer{}, nil, nil, Options{Type: TypeCodeReview})

	result, err := eng.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.Summary.FilesChanged != 1 {
		t.Errorf("FilesChanged = %d, want 1 (default exclusions still apply)", result.Summary.FilesChanged)
	}
	if strings.Contains(completer.prompt, "yarn.lock") {
		t.Error("nil filter must still reject default-excluded files")
	}
}

func TestRun_ContextFetchFailureIsNotFatal(t *testing.T) {
	source := &fakeSource{
		records:    []diff.Record{{Path: "a.go", Patch: "+x", Additions: 1}},
		contextErr: errors.New("api unavailable"),
	}
	completer := &fakeCompleter{reply: "[]"}
	eng := New(source, completer, emptyFilter(t), &fakeRenderer{}, nil, nil, Options{
		Type:           TypeCodeReview,
		IncludeContext: true,
	})

	result, err := eng.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if strings.Contains(completer.prompt, "PR Context:") {
		t.Error("prompt must omit the context block when the fetch fails")
	}
	if len(result.Comments) != 0 {
		t.Errorf("got %d comments, want 0", len(result.Comments))
	}
}

func TestRun_RedactsSecrets(t *testing.T) {
	source := &fakeSource{
		records: []diff.Record{{Path: "config.env", Patch: `+API_KEY="sk-abcdef1234567890abcdef"`, Additions: 1}},
	}
	completer := &fakeCompleter{reply: "[]"}
	eng := New(source, completer, emptyFilter(t), &fakeRenderer{}, nil, nil, Options{
		Type:          TypeCodeReview,
		RedactSecrets: true,
	})

	if _, err := eng.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if strings.Contains(completer.prompt, "sk-abcdef1234567890abcdef") {
		t.Error("prompt still contains the secret value")
	}
	if !strings.Contains(completer.prompt, "[REDACTED]") {
		t.Error("prompt missing the redaction marker")
	}
}

func TestRun_CapsDiffSize(t *testing.T) {
	source := &fakeSource{
		records: []diff.Record{{Path: "big.go", Patch: "+" + strings.Repeat("x", 500), Additions: 1}},
	}
	completer := &fakeCompleter{reply: "[]"}
	eng := New(source, completer, emptyFilter(t), &fakeRenderer{}, nil, nil, Options{
		Type:         TypeCodeReview,
		MaxDiffBytes: 100,
	})

	result, err := eng.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(result.DiffText) != 100 {
		t.Errorf("DiffText length = %d, want capped at 100", len(result.DiffText))
	}
}
