package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/prlens/prlens/internal/cache"
	"github.com/prlens/prlens/internal/config"
	"github.com/prlens/prlens/internal/diff"
	apperr "github.com/prlens/prlens/internal/errors"
	"github.com/prlens/prlens/internal/github"
	"github.com/prlens/prlens/internal/logger"
	"github.com/prlens/prlens/internal/output"
	"github.com/prlens/prlens/internal/providers"
	"github.com/prlens/prlens/internal/review"
)

// Shared review flags
var (
	flagConfig         string
	flagType           string
	flagProvider       string
	flagModel          string
	flagMaxTokens      int
	flagRepo           string
	flagInclude        string
	flagExclude        string
	flagMinChanges     int
	flagMaxChanges     int
	flagRequireContent bool
	flagNoRedact       bool
	flagNoCache        bool
	flagNoContext      bool
	flagReportsDir     string
	flagDebugDir       string
	flagFailOn         string
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagConfig, "config", "", "Config file path (default: prlens.yaml if present)")
	cmd.Flags().StringVar(&flagType, "type", "", "Review type (accessibility, code_review)")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "Completion provider (anthropic, openai)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "Token budget for the completion reply")
	cmd.Flags().StringVar(&flagRepo, "repo", "", "Repository as owner/repo")
	cmd.Flags().StringVar(&flagInclude, "include", "", "Include path patterns, comma-separated regular expressions")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude path patterns, comma-separated regular expressions")
	cmd.Flags().IntVar(&flagMinChanges, "min-changes", 0, "Minimum changed lines per file")
	cmd.Flags().IntVar(&flagMaxChanges, "max-changes", 0, "Maximum changed lines per file")
	cmd.Flags().BoolVar(&flagRequireContent, "require-content", false, "Fail when filtering leaves nothing to review")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the completion reply cache")
	cmd.Flags().BoolVar(&flagNoContext, "no-context", false, "Omit PR title/description from the prompt")
	cmd.Flags().StringVar(&flagReportsDir, "out", "", "Reports directory (default: reports)")
	cmd.Flags().StringVar(&flagDebugDir, "debug-dir", "", "Write the filtered diff and prompt to this directory")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "none", "Exit non-zero when a comment meets this severity (none, low, medium, high, critical)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagType != "" {
		m["reviewType"] = flagType
	}
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagMaxTokens > 0 {
		m["maxTokens"] = strconv.Itoa(flagMaxTokens)
	}
	if flagRepo != "" {
		m["repository"] = flagRepo
	}
	if flagReportsDir != "" {
		m["reportsDir"] = flagReportsDir
	}
	if flagRequireContent {
		m["requireContent"] = "true"
	}
	if flagNoRedact {
		m["noRedact"] = "true"
	}
	if flagNoCache {
		m["noCache"] = "true"
	}
	return m
}

// buildCriteria merges flag-level filter settings into the configured ones.
// Flag patterns are appended; flag bounds replace.
func buildCriteria(cfg config.Config) diff.Criteria {
	c := cfg.Filter
	c.Include = append(append([]string(nil), c.Include...), splitComma(flagInclude)...)
	c.Exclude = append(append([]string(nil), c.Exclude...), splitComma(flagExclude)...)
	if flagMinChanges > 0 {
		c.MinChanges = flagMinChanges
	}
	if flagMaxChanges > 0 {
		c.MaxChanges = flagMaxChanges
	}
	return c
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if p := s[start:i]; p != "" {
				parts = append(parts, p)
			}
			start = i + 1
		}
	}
	return parts
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run an LLM review",
	Long:  "Run an LLM review of a pull request or a local unified diff.",
}

var reviewPRCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Review a GitHub pull request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil || prNumber <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := config.Load(flagConfig, buildOverrides())
		if err != nil {
			fail(err)
			return nil
		}

		source, err := github.NewClient(cfg.GitHubToken, cfg.Repository, cfg.GitHubAPI)
		if err != nil {
			fail(err)
			return nil
		}

		runPipeline(cfg, source, prNumber, fmt.Sprintf("pr_%d", prNumber))
		return nil
	},
}

var reviewDiffCmd = &cobra.Command{
	Use:   "diff [file]",
	Short: "Review a unified diff from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, buildOverrides())
		if err != nil {
			fail(err)
			return nil
		}

		var data []byte
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			fail(fmt.Errorf("reading diff: %w", err))
			return nil
		}

		source := &localSource{records: diff.ParseUnified(string(data))}
		runPipeline(cfg, source, 0, "local")
		return nil
	},
}

// localSource adapts an already-parsed diff to the DiffSource interface.
type localSource struct {
	records []diff.Record
}

func (s *localSource) FetchDiff(_ context.Context, _ int) ([]diff.Record, error) {
	return s.records, nil
}

func (s *localSource) FetchContext(_ context.Context, _ int) (string, error) {
	return "", nil
}

func (s *localSource) Close() error { return nil }

func runPipeline(cfg config.Config, source review.DiffSource, prNumber int, label string) {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	rt, ok := review.ParseType(cfg.ReviewType)
	if !ok {
		fail(apperr.Newf(apperr.ErrCodeConfiguration, "unknown review type %q", cfg.ReviewType))
		return
	}

	filter, err := diff.Compile(buildCriteria(cfg))
	if err != nil {
		fail(err)
		return
	}

	completer, err := providers.New(cfg.Provider, cfg.Model)
	if err != nil {
		fail(err)
		return
	}

	replies, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		fail(err)
		return
	}

	engine := review.New(source, completer, filter, &output.HTMLWriter{}, replies, log, review.Options{
		Type:           rt,
		Model:          cfg.Model,
		MaxTokens:      cfg.MaxTokens,
		MaxDiffBytes:   cfg.MaxDiffBytes,
		RequireContent: cfg.RequireContent,
		RedactSecrets:  cfg.RedactSecrets,
		IncludeContext: cfg.IncludeContext && prNumber > 0,
	})

	res, err := engine.Run(context.Background(), prNumber)
	if err != nil {
		fail(err)
		return
	}

	if flagDebugDir != "" {
		writeDebugFiles(flagDebugDir, label, res, log)
	}

	htmlPath := filepath.Join(cfg.ReportsDir, fmt.Sprintf("%s_%s.html", label, rt))
	if err := output.WriteFile(htmlPath, res.HTML); err != nil {
		fail(err)
		return
	}

	commentsJSON, err := output.MarshalComments(res.Comments)
	if err != nil {
		fail(err)
		return
	}
	jsonPath := filepath.Join(cfg.ReportsDir, fmt.Sprintf("%s_%s.json", label, rt))
	if err := output.WriteFile(jsonPath, commentsJSON); err != nil {
		fail(err)
		return
	}

	counts := review.CountBySeverity(res.Comments)
	log.Infof("reviewed %s: %d comments (%d critical, %d high, %d medium, %d low)",
		res.Summary, counts.Total(), counts.Critical, counts.High, counts.Medium, counts.Low)
	fmt.Fprintf(os.Stdout, "Report written to %s\n", htmlPath)
	fmt.Fprintf(os.Stdout, "Comments written to %s\n", jsonPath)

	for _, c := range res.Comments {
		if review.MeetsThreshold(c.Severity, flagFailOn) {
			exitCode = ExitIssues
			return
		}
	}
}

func writeDebugFiles(dir, label string, res *review.Result, log *logger.Logger) {
	base := filepath.Join(dir, label)
	if err := output.WriteFile(base+"_01_filtered.diff", res.DiffText); err != nil {
		log.Warnf("writing debug diff: %v", err)
		return
	}
	if err := output.WriteFile(base+"_02_prompt.txt", res.Prompt); err != nil {
		log.Warnf("writing debug prompt: %v", err)
		return
	}
	log.Infof("debug artifacts written under %s", dir)
}

func init() {
	reviewCmd.AddCommand(reviewPRCmd)
	reviewCmd.AddCommand(reviewDiffCmd)

	for _, cmd := range []*cobra.Command{reviewPRCmd, reviewDiffCmd} {
		addReviewFlags(cmd)
	}
}
