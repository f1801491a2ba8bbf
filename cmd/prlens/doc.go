// Prlens reviews GitHub pull requests with an LLM completion endpoint and
// renders the findings as categorized HTML reports.
//
// It fetches the changed files of a PR, filters them by configurable
// include/exclude patterns and change-size bounds, sends the filtered diff
// to the model with accessibility or code review instructions, validates the
// model's JSON reply into typed comments, and writes an HTML report plus a
// raw comment JSON artifact.
//
// Usage:
//
//	prlens review pr 42                  # review pull request #42
//	prlens review pr 42 --type code_review
//	prlens review diff changes.diff      # review a local unified diff
//	prlens serve                         # serve generated reports over HTTP
//	prlens cache clear                   # drop cached completion replies
//	prlens config                        # print the effective configuration
package main
