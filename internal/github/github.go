// Package github fetches pull request diffs from the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prlens/prlens/internal/diff"
	apperr "github.com/prlens/prlens/internal/errors"
)

const defaultAPIURL = "https://api.github.com"

// filesPerPage is the GitHub maximum page size for the PR files listing.
const filesPerPage = 100

// Client provides access to the GitHub REST API for one repository. It
// implements review.DiffSource.
type Client struct {
	token   string
	apiURL  string
	repo    string // "owner/repo"
	httpCli *http.Client
}

// NewClient creates a client for the given repository. apiURL may be empty
// to use the public GitHub API.
func NewClient(token, repo, apiURL string) (*Client, error) {
	if token == "" {
		return nil, apperr.Configuration("GitHub token cannot be empty")
	}
	if repo == "" || !strings.Contains(repo, "/") {
		return nil, apperr.Newf(apperr.ErrCodeConfiguration, "repository must be owner/repo, got %q", repo)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		token:   token,
		apiURL:  strings.TrimRight(apiURL, "/"),
		repo:    repo,
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// prFile is the GitHub wire shape of one changed file.
type prFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"` // empty for binary and some renamed files
}

// FetchDiff returns one Record per changed file of the pull request, in the
// order GitHub lists them.
func (c *Client) FetchDiff(ctx context.Context, prNumber int) ([]diff.Record, error) {
	if prNumber <= 0 {
		return nil, apperr.Newf(apperr.ErrCodeConfiguration, "PR number must be positive, got %d", prNumber)
	}

	var records []diff.Record
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/pulls/%d/files?per_page=%d&page=%d",
			c.apiURL, c.repo, prNumber, filesPerPage, page)

		body, err := c.get(ctx, url, prNumber)
		if err != nil {
			return nil, err
		}

		var files []prFile
		if err := json.Unmarshal(body, &files); err != nil {
			return nil, apperr.Wrap(err, apperr.ErrCodeSourceUnavailable, "parsing PR files response")
		}

		for _, f := range files {
			records = append(records, diff.Record{
				Path:      f.Filename,
				Patch:     f.Patch,
				Additions: f.Additions,
				Deletions: f.Deletions,
				Status:    diff.ParseStatus(f.Status),
			})
		}

		if len(files) < filesPerPage {
			break
		}
	}
	return records, nil
}

// prInfo is the subset of PR metadata used for prompt context.
type prInfo struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// FetchContext returns the PR title and description formatted for the
// prompt's context block.
func (c *Client) FetchContext(ctx context.Context, prNumber int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/pulls/%d", c.apiURL, c.repo, prNumber)
	body, err := c.get(ctx, url, prNumber)
	if err != nil {
		return "", err
	}

	var info prInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", apperr.Wrap(err, apperr.ErrCodeSourceUnavailable, "parsing PR response")
	}

	context := "PR Title: " + info.Title
	if info.Body != "" {
		context += "\nDescription: " + info.Body
	}
	return context, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.httpCli.CloseIdleConnections()
	return nil
}

func (c *Client) get(ctx context.Context, url string, prNumber int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeSourceUnavailable, "creating request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeSourceUnavailable, "fetching from GitHub")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrCodeSourceUnavailable, "reading response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperr.Newf(apperr.ErrCodeNotFound, "PR #%d not found in %s", prNumber, c.repo)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, apperr.Newf(apperr.ErrCodeAccessDenied, "access denied by GitHub (status %d)", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, apperr.Newf(apperr.ErrCodeSourceUnavailable, "GitHub API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
