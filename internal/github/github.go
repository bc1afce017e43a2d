// Package github fetches the issues of a repository from the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/bryan-cox/grantledger/internal/model"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

const (
	defaultPerPage    = 100
	defaultMaxRetries = 5
)

var (
	// ErrRateLimited is returned when a page is still rate limited after all retries.
	ErrRateLimited = errors.New("github rate limit exceeded")
	// ErrUnexpectedStatus is returned for any other error response.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Client lists repository issues, following pagination and waiting out rate limits.
type Client struct {
	httpClient *http.Client
	apiURL     string
	owner      string
	repo       string
	token      string
	perPage    int
	maxRetries int
	sleep      func(context.Context, time.Duration) error
	now        func() time.Time

	issues *gh.IssuesService
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL overrides DefaultAPIURL.
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = strings.TrimRight(u, "/") }
}

// WithToken authenticates requests with a personal access token. A leading
// "token " or "Bearer " scheme, as kept in older .env files, is dropped.
func WithToken(token string) Option {
	return func(c *Client) { c.token = normalizeToken(token) }
}

// WithPerPage sets the page size.
func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithMaxRetries bounds the rate-limit retries per page.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithSleep replaces the function used to wait between rate-limited attempts.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// NewClient returns a client for owner/repo.
func NewClient(owner, repo string, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     DefaultAPIURL,
		owner:      owner,
		repo:       repo,
		perPage:    defaultPerPage,
		maxRetries: defaultMaxRetries,
		sleep:      sleepContext,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := c.httpClient
	if c.token != "" {
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		authed := *hc
		authed.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}),
			Base:   base,
		}
		hc = &authed
	}

	api := gh.NewClient(hc)
	baseURL, err := url.Parse(c.apiURL + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid api url '%s': %w", c.apiURL, err)
	}
	api.BaseURL = baseURL
	c.issues = api.Issues
	return c, nil
}

// FetchIssues returns every issue and pull request of the repository, oldest first.
func (c *Client) FetchIssues(ctx context.Context) ([]model.RawRecord, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: gh.ListOptions{PerPage: c.perPage},
	}

	var records []model.RawRecord
	for page := 1; ; page++ {
		issues, resp, err := c.listPage(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		for _, issue := range issues {
			records = append(records, toRecord(issue))
		}
		slog.Debug("fetched issue page", "page", page, "count", len(issues))
		if resp.NextPage == 0 {
			return records, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) listPage(ctx context.Context, opts *gh.IssueListByRepoOptions) ([]*gh.Issue, *gh.Response, error) {
	for attempt := 0; ; attempt++ {
		issues, resp, err := c.issues.ListByRepo(ctx, c.owner, c.repo, opts)
		if err == nil {
			return issues, resp, nil
		}

		wait, limited := c.retryDelay(err)
		if !limited {
			return nil, nil, classifyError(err)
		}
		if attempt >= c.maxRetries {
			return nil, nil, fmt.Errorf("%w after %d retries: %w", ErrRateLimited, attempt, err)
		}
		slog.Warn("rate limited by GitHub, waiting", "wait", wait.String(), "attempt", attempt+1)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, nil, err
		}
	}
}

// retryDelay reports whether err is a rate limit and how long to wait:
// Retry-After when given, else until the reset time plus one second.
func (c *Client) retryDelay(err error) (time.Duration, bool) {
	var (
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
		respErr  *gh.ErrorResponse
	)
	switch {
	case errors.As(err, &rateErr):
		return c.untilReset(rateErr.Rate.Reset.Time), true
	case errors.As(err, &abuseErr):
		if abuseErr.RetryAfter != nil {
			return *abuseErr.RetryAfter, true
		}
		return time.Minute, true
	case errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusTooManyRequests:
		h := respErr.Response.Header
		if s, convErr := strconv.Atoi(h.Get("Retry-After")); convErr == nil && s >= 0 {
			return time.Duration(s) * time.Second, true
		}
		if reset, convErr := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); convErr == nil {
			return c.untilReset(time.Unix(reset, 0)), true
		}
		return time.Second, true
	}
	return 0, false
}

func (c *Client) untilReset(reset time.Time) time.Duration {
	if d := reset.Sub(c.now()) + time.Second; d > 0 {
		return d
	}
	return time.Second
}

func classifyError(err error) error {
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return fmt.Errorf("%w: GitHub API returned status %d: %w", ErrUnexpectedStatus, respErr.Response.StatusCode, err)
	}
	return fmt.Errorf("failed to fetch issues: %w", err)
}

func toRecord(i *gh.Issue) model.RawRecord {
	r := model.RawRecord{
		Title:         i.GetTitle(),
		Body:          i.GetBody(),
		Author:        i.GetUser().GetLogin(),
		Assignee:      i.GetAssignee().GetLogin(),
		Closed:        strings.EqualFold(i.GetState(), "closed"),
		URL:           i.GetHTMLURL(),
		IsPullRequest: i.IsPullRequest(),
	}
	for _, l := range i.Labels {
		r.Labels = append(r.Labels, l.GetName())
	}
	return r
}

// normalizeToken strips an authorization scheme left on a raw token.
func normalizeToken(token string) string {
	token = strings.TrimSpace(token)
	for _, scheme := range []string{"token ", "bearer "} {
		if len(token) >= len(scheme) && strings.EqualFold(token[:len(scheme)], scheme) {
			return strings.TrimSpace(token[len(scheme):])
		}
	}
	return token
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
