package github

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/forkwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	"github.com/m-mizutani/forkwatch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// maxPerPage is the hosting API's page size ceiling.
	maxPerPage = 100

	// maxSinceItems bounds how far FetchReleasesSince pages back. The API
	// has no server-side "since" filter for releases, so the client walks
	// recent pages and filters locally.
	maxSinceItems = 1000

	defaultTimeout = 30 * time.Second
)

type client struct {
	gh *github.Client
}

type config struct {
	token      types.GitHubToken
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option is a functional option for client construction.
type Option func(*config)

// WithToken sets the bearer credential. Without it the client works
// unauthenticated under a much lower rate limit ceiling.
func WithToken(token types.GitHubToken) Option {
	return func(c *config) {
		c.token = token
	}
}

// WithBaseURL overrides the API base URL, mainly for tests against a local
// HTTP server. Must end with a trailing slash.
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = u
	}
}

// WithTimeout sets the per-request timeout. Every fetch must be bounded so
// that a stalled call fails into the error collection path instead of
// hanging a cycle.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// New creates a hosting API client implementing interfaces.ReleaseClient.
func New(opts ...Option) (interfaces.ReleaseClient, error) {
	cfg := &config{
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	gh := github.NewClient(hc)
	if cfg.token != "" {
		gh = gh.WithAuthToken(string(cfg.token))
	}
	if cfg.baseURL != "" {
		u, err := gh.BaseURL.Parse(cfg.baseURL)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid base URL", goerr.T(types.ErrTagConfig), goerr.V("base_url", cfg.baseURL))
		}
		gh.BaseURL = u
	}

	return &client{gh: gh}, nil
}

// FetchReleases returns one page of published releases.
func (c *client) FetchReleases(ctx context.Context, owner, repo string, page, perPage int) ([]*model.Release, error) {
	if err := validateFetchArgs(owner, repo, page); err != nil {
		return nil, err
	}

	opts := &github.ListOptions{
		Page:    page,
		PerPage: clampPerPage(perPage),
	}

	releases, _, err := c.gh.Repositories.ListReleases(ctx, owner, repo, opts)
	if err != nil {
		return nil, wrapAPIError(err, "list releases", owner, repo)
	}

	result := make([]*model.Release, 0, len(releases))
	for _, rel := range releases {
		result = append(result, convertRelease(rel))
	}
	return result, nil
}

// FetchTags returns one page of repository tags.
func (c *client) FetchTags(ctx context.Context, owner, repo string, page, perPage int) ([]*model.Tag, error) {
	if err := validateFetchArgs(owner, repo, page); err != nil {
		return nil, err
	}

	opts := &github.ListOptions{
		Page:    page,
		PerPage: clampPerPage(perPage),
	}

	tags, _, err := c.gh.Repositories.ListTags(ctx, owner, repo, opts)
	if err != nil {
		return nil, wrapAPIError(err, "list tags", owner, repo)
	}

	result := make([]*model.Tag, 0, len(tags))
	for _, tag := range tags {
		result = append(result, &model.Tag{
			Name:       tag.GetName(),
			CommitSHA:  tag.GetCommit().GetSHA(),
			ZipballURL: tag.GetZipballURL(),
			TarballURL: tag.GetTarballURL(),
		})
	}
	return result, nil
}

// FetchReleasesSince returns releases published strictly after since,
// walking newest-first pages until the window bound is reached or a short
// page signals the end of the list.
func (c *client) FetchReleasesSince(ctx context.Context, owner, repo string, since time.Time) ([]*model.Release, error) {
	var result []*model.Release

	for page, fetched := 1, 0; fetched < maxSinceItems; page++ {
		releases, err := c.FetchReleases(ctx, owner, repo, page, maxPerPage)
		if err != nil {
			return nil, err
		}
		if len(releases) == 0 {
			break
		}
		fetched += len(releases)

		for _, rel := range releases {
			if rel.PublishedAt.After(since) {
				result = append(result, rel)
			}
		}

		if len(releases) < maxPerPage {
			break
		}
	}

	return result, nil
}

func convertRelease(rel *github.RepositoryRelease) *model.Release {
	return &model.Release{
		TagName:     rel.GetTagName(),
		Name:        rel.GetName(),
		Body:        rel.GetBody(),
		Draft:       rel.GetDraft(),
		Prerelease:  rel.GetPrerelease(),
		PublishedAt: rel.GetPublishedAt().Time,
		HTMLURL:     rel.GetHTMLURL(),
		AssetURL:    rel.GetTarballURL(),
	}
}

func validateFetchArgs(owner, repo string, page int) error {
	if owner == "" || repo == "" {
		return goerr.New("owner and repo must not be empty",
			goerr.T(types.ErrTagConfig),
			goerr.V("owner", owner), goerr.V("repo", repo))
	}
	if page < 1 {
		return goerr.New("page must be >= 1",
			goerr.T(types.ErrTagConfig), goerr.V("page", page))
	}
	return nil
}

func clampPerPage(perPage int) int {
	if perPage < 1 || perPage > maxPerPage {
		return maxPerPage
	}
	return perPage
}

// wrapAPIError normalizes go-github failures into the error taxonomy:
// explicit rate limit signals, other non-2xx responses with status and body,
// and transport failures for everything else.
func wrapAPIError(err error, op, owner, repo string) error {
	ev := []goerr.Option{
		goerr.V("op", op),
		goerr.V("owner", owner),
		goerr.V("repo", repo),
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return goerr.Wrap(err, "rate limit exceeded",
			append(ev,
				goerr.T(types.ErrTagRateLimit),
				goerr.V("reset_at", rateErr.Rate.Reset.Time))...)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return goerr.Wrap(err, "secondary rate limit exceeded",
			append(ev, goerr.T(types.ErrTagRateLimit))...)
	}

	var apiErr *github.ErrorResponse
	if errors.As(err, &apiErr) {
		status := 0
		if apiErr.Response != nil {
			status = apiErr.Response.StatusCode
		}
		return goerr.Wrap(err, "hosting API returned error",
			append(ev,
				goerr.T(types.ErrTagAPI),
				goerr.V("status", status),
				goerr.V("body", apiErr.Message))...)
	}

	return goerr.Wrap(err, "failed to reach hosting API",
		append(ev, goerr.T(types.ErrTagTransport))...)
}
