package review

import (
	"context"
	"strings"

	"github.com/prlens/prlens/internal/diff"
	apperr "github.com/prlens/prlens/internal/errors"
	"github.com/prlens/prlens/internal/logger"
	"github.com/prlens/prlens/internal/redact"
)

// DiffSource supplies the changed files of a pull request.
type DiffSource interface {
	// FetchDiff returns one Record per changed file.
	FetchDiff(ctx context.Context, prNumber int) ([]diff.Record, error)
	// FetchContext returns a short PR description block for the prompt.
	FetchContext(ctx context.Context, prNumber int) (string, error)
	// Close releases the underlying client connection.
	Close() error
}

// Completer issues one prompt to an LLM completion endpoint and returns the
// raw reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	Name() string
}

// Renderer turns validated comments into a report document.
type Renderer interface {
	Render(comments []Comment, t Type) (string, error)
}

// ResponseCache caches raw completion replies keyed by prompt.
type ResponseCache interface {
	Get(key string) (string, bool)
	Put(key, response string) error
}

// Options control a review run.
type Options struct {
	Type           Type
	Model          string // model the completer is configured with; part of the cache key
	MaxTokens      int
	MaxDiffBytes   int  // cap on the diff section sent to the model; 0 = no cap
	RequireContent bool // fail instead of rendering an empty report when the filter empties the set
	RedactSecrets  bool
	IncludeContext bool // prepend PR title/description to the prompt
}

// Result is the outcome of one review run.
type Result struct {
	Comments []Comment
	HTML     string
	Summary  diff.Summary
	Prompt   string // full prompt sent to the model; empty when no call was made
	DiffText string // filtered diff section after redaction and capping
	Cached   bool   // completion reply served from cache
}

// Engine sequences diff source, filter, prompt, completion, parse, and
// render for one pull request. Each Run is independent; no state is shared
// across runs.
type Engine struct {
	source    DiffSource
	completer Completer
	filter    *diff.Filter
	renderer  Renderer
	cache     ResponseCache
	log       *logger.Logger
	opts      Options
}

// New creates an Engine. cache may be nil to disable response caching; a nil
// filter applies only the default exclusions.
func New(source DiffSource, completer Completer, filter *diff.Filter, renderer Renderer, cache ResponseCache, log *logger.Logger, opts Options) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if filter == nil {
		filter, _ = diff.Compile(diff.Criteria{})
	}
	return &Engine{
		source:    source,
		completer: completer,
		filter:    filter,
		renderer:  renderer,
		cache:     cache,
		log:       log,
		opts:      opts,
	}
}

// Run executes the pipeline for prNumber. It owns the diff source for the
// duration of the run and releases it on every exit path. Failures carry a
// typed error category; no partial report is produced on a fatal error.
func (e *Engine) Run(ctx context.Context, prNumber int) (*Result, error) {
	defer func() {
		if err := e.source.Close(); err != nil {
			e.log.Warnf("closing diff source: %v", err)
		}
	}()

	e.log.Infof("fetching diff for PR #%d", prNumber)
	records, err := e.source.FetchDiff(ctx, prNumber)
	if err != nil {
		if apperr.CodeOf(err) != apperr.ErrCodeInternal {
			return nil, err
		}
		return nil, apperr.SourceUnavailable(err)
	}

	filtered := e.filter.Apply(records)
	e.log.Infof("filter kept %d of %d changed files", len(filtered), len(records))
	for _, r := range filtered {
		e.log.Debugf("reviewing %s (%s, +%d/-%d)", r.Path, r.Status, r.Additions, r.Deletions)
	}

	if len(filtered) == 0 {
		if e.opts.RequireContent {
			return nil, apperr.NoReviewableContent()
		}
		return e.renderResult(nil, filtered, "", "", false)
	}

	prContext := ""
	if e.opts.IncludeContext {
		prContext, err = e.source.FetchContext(ctx, prNumber)
		if err != nil {
			// Context is auxiliary; review the diff without it.
			e.log.Warnf("fetching PR context: %v", err)
			prContext = ""
		}
	}

	diffText := DiffSection(filtered)
	if e.opts.RedactSecrets {
		diffText = redact.Secrets(diffText)
	}
	if e.opts.MaxDiffBytes > 0 && len(diffText) > e.opts.MaxDiffBytes {
		e.log.Warnf("diff section %d bytes exceeds cap %d, truncating", len(diffText), e.opts.MaxDiffBytes)
		diffText = diffText[:e.opts.MaxDiffBytes]
	}

	prompt := BuildPromptFromDiff(e.opts.Type, diffText, prContext)
	cacheKey := e.completer.Name() + "\x00" + e.opts.Model + "\x00" + prompt

	raw, cached := e.lookupCache(cacheKey)
	if !cached {
		raw, err = e.completer.Complete(ctx, prompt, e.opts.MaxTokens)
		if err != nil {
			if apperr.CodeOf(err) != apperr.ErrCodeInternal {
				return nil, err
			}
			return nil, apperr.CompletionFailure(err)
		}
		if strings.TrimSpace(raw) == "" {
			return nil, apperr.New(apperr.ErrCodeCompletionFailure, "empty reply from completion endpoint")
		}
		if e.cache != nil {
			if err := e.cache.Put(cacheKey, raw); err != nil {
				e.log.Warnf("caching reply: %v", err)
			}
		}
	}

	comments, err := ParseComments(raw, e.log)
	if err != nil {
		return nil, err
	}
	e.log.Infof("model reported %d issues", len(comments))

	return e.renderResult(comments, filtered, prompt, diffText, cached)
}

func (e *Engine) lookupCache(key string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	raw, ok := e.cache.Get(key)
	if ok {
		e.log.Infof("completion reply served from cache")
	}
	return raw, ok
}

func (e *Engine) renderResult(comments []Comment, filtered []diff.Record, prompt, diffText string, cached bool) (*Result, error) {
	html, err := e.renderer.Render(comments, e.opts.Type)
	if err != nil {
		// Should not happen for validated comments.
		return nil, apperr.Wrap(err, apperr.ErrCodeRender, "rendering report")
	}
	return &Result{
		Comments: comments,
		HTML:     html,
		Summary:  diff.Summarize(filtered),
		Prompt:   prompt,
		DiffText: diffText,
		Cached:   cached,
	}, nil
}
