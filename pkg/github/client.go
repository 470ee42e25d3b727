// Package github is a small read-only client for the GitHub REST API. The
// reputation engine only needs aggregated repository statistics, so the
// surface is a profile fetch, a repo listing and the derived Stats.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"log/slog"

	"github.com/repchain/repchain/internal/config"
)

// ErrFetch wraps every network or non-2xx failure so callers can treat all
// fetch problems uniformly (the reputation engine maps them to a zero
// contribution).
var ErrFetch = errors.New("github fetch failed")

// package-level logger for pkg/github; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/github. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Profile is the subset of the GitHub user object the platform consumes.
type Profile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repo is the subset of the GitHub repository object used for aggregation.
type Repo struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Stars    int    `json:"stargazers_count"`
	Forks    int    `json:"forks_count"`
}

// Stats aggregates a user's repositories.
type Stats struct {
	TotalRepos     int            `json:"total_repos"`
	TotalStars     int            `json:"total_stars"`
	TotalForks     int            `json:"total_forks"`
	Languages      map[string]int `json:"languages"`
	AccountAgeDays int            `json:"account_age_days"`
}

// Client talks to the GitHub REST API with a bounded request timeout.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	now     func() time.Time
}

// NewClient creates a GitHub client. A nil httpClient gets a default one
// with the configured timeout so a slow upstream can never block callers
// indefinitely.
func NewClient(cfg config.GitHubConfig, httpClient *http.Client) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  httpClient,
		now:     time.Now,
	}
	logger.Info("github: client created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return c, nil
}

// Close releases idle connections on the underlying transport. Safe to call
// multiple times.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if tr, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
		tr.CloseIdleConnections()
	} else if c.client.Transport == nil {
		http.DefaultTransport.(*http.Transport).CloseIdleConnections()
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d for %s", ErrFetch, res.StatusCode, path)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrFetch, err)
	}
	return nil
}

// GetProfile fetches the public profile of a user.
func (c *Client) GetProfile(ctx context.Context, username string) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/users/"+url.PathEscape(username), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetRepos lists up to 100 of the user's most recently updated repositories.
func (c *Client) GetRepos(ctx context.Context, username string) ([]Repo, error) {
	var repos []Repo
	path := "/users/" + url.PathEscape(username) + "/repos?per_page=100&sort=updated"
	if err := c.get(ctx, path, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// GetStats fetches profile and repositories and aggregates stars, forks and
// language counts.
func (c *Client) GetStats(ctx context.Context, username string) (*Stats, error) {
	profile, err := c.GetProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	repos, err := c.GetRepos(ctx, username)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalRepos:     profile.PublicRepos,
		Languages:      make(map[string]int),
		AccountAgeDays: int(c.now().Sub(profile.CreatedAt).Hours() / 24),
	}
	for _, repo := range repos {
		stats.TotalStars += repo.Stars
		stats.TotalForks += repo.Forks
		if repo.Language != "" {
			stats.Languages[repo.Language]++
		}
	}
	return stats, nil
}

// Verify reports whether the GitHub account exists. Ownership proof would
// need an OAuth flow; existence is all the platform checks today.
func (c *Client) Verify(ctx context.Context, username string) (bool, error) {
	if _, err := c.GetProfile(ctx, username); err != nil {
		if errors.Is(err, ErrFetch) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
