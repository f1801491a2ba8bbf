package review

import (
	"fmt"
	"strings"

	"github.com/prlens/prlens/internal/diff"
)

const accessibilityInstructions = `You are an accessibility expert conducting a WCAG compliance review.

Review the following code changes for accessibility issues:
- Check for WCAG 2.1 AA compliance violations
- Identify missing ARIA labels, roles, and properties
- Check keyboard navigation support
- Verify color contrast and text alternatives
- Check for semantic HTML usage
- Identify screen reader compatibility issues
`

const codeReviewInstructions = `You are a senior code reviewer focused on code quality and maintainability.

Review the following code changes:
- Identify potential bugs and logic errors
- Check code quality and best practices
- Suggest improvements for readability and maintainability
- Note any anti-patterns or code smells
- Check for proper error handling
`

const accessibilitySchema = `Provide your review as a JSON array of comment objects. Each comment should have:
- "file": filename where the issue was found
- "line": line number (or null if file-level)
- "issue": brief description of the accessibility issue
- "suggestion": concrete fix recommendation
- "severity": "critical", "high", "medium", or "low"
- "wcag_criteria": applicable WCAG criterion (e.g., "1.1.1", "2.1.1")

Example format:
` + "```json" + `
[
  {
    "file": "index.html",
    "line": 42,
    "issue": "Image missing alt attribute",
    "suggestion": "Add descriptive alt text: <img src=\"logo.png\" alt=\"Company logo\">",
    "severity": "high",
    "wcag_criteria": "1.1.1"
  }
]
` + "```" + `
`

const codeReviewSchema = `Provide your review as a JSON array of comment objects. Each comment should have:
- "file": filename where the issue was found
- "line": line number (or null if file-level)
- "issue": brief description of the issue
- "suggestion": concrete improvement recommendation
- "severity": "critical", "high", "medium", or "low"
- "category": "bug", "quality", "maintainability", or "style"

Example format:
` + "```json" + `
[
  {
    "file": "app.py",
    "line": 15,
    "issue": "Potential null pointer exception",
    "suggestion": "Add null check before accessing property",
    "severity": "high",
    "category": "bug"
  }
]
` + "```" + `
`

// BuildPrompt renders the instruction template for the review type around the
// concatenated diff of records. prContext, when non-empty, is the PR title
// and description. Output is deterministic for a given input sequence.
func BuildPrompt(t Type, records []diff.Record, prContext string) string {
	if len(records) == 0 {
		return buildEmptyPrompt(t, prContext)
	}
	return BuildPromptFromDiff(t, DiffSection(records), prContext)
}

// BuildPromptFromDiff renders the template around an already-concatenated
// diff section. The orchestrator uses this after redaction and size capping.
func BuildPromptFromDiff(t Type, diffText, prContext string) string {
	var b strings.Builder
	b.WriteString(instructionsFor(t))
	b.WriteString("\n")

	if prContext != "" {
		fmt.Fprintf(&b, "PR Context: %s\n\n", prContext)
	}

	b.WriteString(schemaFor(t))
	b.WriteString("\nGit Diff:\n```diff\n")
	b.WriteString(diffText)
	b.WriteString("\n```\n\n")
	b.WriteString("Respond ONLY with the JSON array, no additional text.")

	return b.String()
}

// buildEmptyPrompt is the variant for an empty record set: the model is told
// to report that there are no reviewable changes instead of being handed an
// empty diff.
func buildEmptyPrompt(t Type, prContext string) string {
	var b strings.Builder
	b.WriteString(instructionsFor(t))
	b.WriteString("\n")
	if prContext != "" {
		fmt.Fprintf(&b, "PR Context: %s\n\n", prContext)
	}
	b.WriteString("There are no reviewable changes in this pull request. ")
	b.WriteString("Respond ONLY with an empty JSON array: []")
	return b.String()
}

// DiffSection concatenates the patch of every record, each prefixed by a
// header line identifying path and status, separated by a blank line.
func DiffSection(records []diff.Record) string {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, fmt.Sprintf("File: %s (%s)\n%s", r.Path, r.Status, r.Patch))
	}
	return strings.Join(parts, "\n\n")
}

func instructionsFor(t Type) string {
	if t == TypeAccessibility {
		return accessibilityInstructions
	}
	return codeReviewInstructions
}

func schemaFor(t Type) string {
	if t == TypeAccessibility {
		return accessibilitySchema
	}
	return codeReviewSchema
}
