package update

import (
	"context"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/tkarrer/deckhand/pkg/buildinfo"
	"github.com/tkarrer/deckhand/pkg/errors"
	"github.com/tkarrer/deckhand/pkg/fetch"
	"github.com/tkarrer/deckhand/pkg/observability"
)

// DefaultEndpoint is the release feed queried when none is configured.
// The feed speaks the GitHub "latest release" API shape.
const DefaultEndpoint = "https://api.github.com/repos/tkarrer/deckhand/releases/latest"

// checkCacheTTL bounds how often repeated checks hit the release feed.
const checkCacheTTL = time.Hour

// Release is one published application release.
type Release struct {
	Version     string    `json:"version"`
	Notes       string    `json:"notes,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
}

// releaseResponse is the GitHub latest-release wire shape.
type releaseResponse struct {
	TagName     string    `json:"tag_name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
}

// Result is the outcome of one update check.
type Result struct {
	Current   string    `json:"current"`
	Latest    string    `json:"latest"`
	Available bool      `json:"available"`
	Release   *Release  `json:"release,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker compares the latest published release against the running build.
type Checker struct {
	client   *fetch.Client
	endpoint string
	current  string
	channel  string
	now      func() time.Time
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithClient overrides the fetch client (tests inject one without a cache).
func WithClient(c *fetch.Client) CheckerOption {
	return func(ch *Checker) {
		if c != nil {
			ch.client = c
		}
	}
}

// WithCurrentVersion overrides the running version, which defaults to
// buildinfo.Version.
func WithCurrentVersion(v string) CheckerOption {
	return func(ch *Checker) { ch.current = v }
}

// WithChannel selects the release channel. The beta channel accepts
// prereleases; stable (the default) ignores them.
func WithChannel(channel string) CheckerOption {
	return func(ch *Checker) {
		if channel != "" {
			ch.channel = channel
		}
	}
}

// WithClock overrides the timestamp source for results.
func WithClock(now func() time.Time) CheckerOption {
	return func(ch *Checker) {
		if now != nil {
			ch.now = now
		}
	}
}

// NewChecker creates a Checker against the given release feed endpoint.
// Pass "" for the default endpoint. Unless a client is injected, results are
// cached for an hour so repeated checks don't hammer the feed.
func NewChecker(endpoint string, opts ...CheckerOption) (*Checker, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if err := errors.ValidateBaseURL(endpoint); err != nil {
		return nil, err
	}

	c := &Checker{
		endpoint: endpoint,
		current:  buildinfo.Version,
		channel:  "stable",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		cache, err := fetch.NewCache("", checkCacheTTL)
		if err != nil {
			// No cache directory available; check without caching.
			c.client = fetch.NewClient(nil, defaultHeaders())
		} else {
			c.client = fetch.NewClient(cache.Namespace("update:"), defaultHeaders())
		}
	}
	return c, nil
}

func defaultHeaders() map[string]string {
	return map[string]string{"Accept": "application/vnd.github+json"}
}

// Channel returns the configured release channel.
func (c *Checker) Channel() string { return c.channel }

// Check fetches the latest release and compares it against the running
// version. If refresh is true the response cache is bypassed.
//
// A release is "available" when its version has higher semver precedence
// than the running one. Dev builds (non-semver versions) never report an
// update, since the comparison is meaningless. On the stable channel a
// prerelease never reports as available.
func (c *Checker) Check(ctx context.Context, refresh bool) (*Result, error) {
	observability.Update().OnCheckStart(ctx, c.channel)
	start := time.Now()

	rel, err := c.fetchLatest(ctx, refresh)
	if err != nil {
		observability.Update().OnCheckComplete(ctx, false, time.Since(start), err)
		return nil, err
	}

	result := &Result{
		Current:   c.current,
		Latest:    rel.Version,
		Release:   rel,
		CheckedAt: c.now().UTC(),
	}
	result.Available = c.newer(rel)

	observability.Update().OnCheckComplete(ctx, result.Available, time.Since(start), nil)
	return result, nil
}

func (c *Checker) fetchLatest(ctx context.Context, refresh bool) (*Release, error) {
	var resp releaseResponse
	key := c.channel + ":" + c.endpoint
	err := c.client.Cached(ctx, key, refresh, &resp, func() error {
		return c.client.GetJSON(ctx, c.endpoint, &resp)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch latest release")
	}
	if resp.TagName == "" {
		return nil, errors.New(errors.ErrCodeParse, "release feed returned no version tag")
	}

	return &Release{
		Version:     canonical(resp.TagName),
		Notes:       resp.Body,
		URL:         resp.HTMLURL,
		PublishedAt: resp.PublishedAt,
		Prerelease:  resp.Prerelease,
	}, nil
}

func (c *Checker) newer(rel *Release) bool {
	if rel.Prerelease && c.channel != "beta" {
		return false
	}

	current := canonical(c.current)
	if !semver.IsValid(current) || !semver.IsValid(rel.Version) {
		return false
	}
	return semver.Compare(rel.Version, current) > 0
}

// canonical normalizes a version tag for semver comparison ("1.2.3" and
// "v1.2.3" are the same release).
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
