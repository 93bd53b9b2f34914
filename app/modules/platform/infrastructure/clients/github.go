package platformclients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

// maxConcurrentRepoFetches bounds the per-user fan-out against the GitHub API.
const maxConcurrentRepoFetches = 5

// GitHubClient scores a user by the total commit count across all of their
// repositories. Repository commit lists are fetched concurrently; a failure
// on any single repository contributes zero for that repository only.
type GitHubClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ StatFetcher = (*GitHubClient)(nil)

// NewGitHubClient builds a GitHub fetcher. A non-empty token authenticates
// requests through an oauth2 transport, which raises the API rate ceiling.
func NewGitHubClient(baseURL, token string, limiter *rate.Limiter, logger *slog.Logger) *GitHubClient {
	httpClient := defaultHTTPClient()
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), src)
		httpClient.Timeout = defaultTimeout
	}
	return &GitHubClient{
		baseURL: baseURL,
		http:    httpClient,
		limiter: limiter,
		logger:  logger.With(attr.String("platform", sharedtypes.PlatformGitHub.String())),
	}
}

func (c *GitHubClient) Platform() sharedtypes.Platform {
	return sharedtypes.PlatformGitHub
}

type githubRepo struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type githubCommit struct {
	SHA string `json:"sha"`
}

func (c *GitHubClient) Fetch(ctx context.Context, username string, previous int) int {
	if username == "" {
		return previous
	}

	repos, err := c.listRepos(ctx, username)
	if err != nil {
		c.logger.Warn("github repo listing failed, keeping previous score",
			attr.String("username", username),
			attr.Int("previous", previous),
			attr.Error(err))
		return previous
	}
	if len(repos) == 0 {
		return previous
	}

	var (
		mu    sync.Mutex
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRepoFetches)

	for _, repo := range repos {
		g.Go(func() error {
			count, err := c.countCommits(gctx, repo)
			if err != nil {
				// One bad repository must not sink the whole fetch.
				c.logger.Warn("github commit fetch failed for repository",
					attr.String("username", username),
					attr.String("repository", repo.Name),
					attr.Error(err))
				return nil
			}
			mu.Lock()
			total += count
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return total
}

func (c *GitHubClient) listRepos(ctx context.Context, username string) ([]githubRepo, error) {
	var repos []githubRepo
	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=100", c.baseURL, url.PathEscape(username))
	if err := getJSON(ctx, c.http, c.limiter, endpoint, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

func (c *GitHubClient) countCommits(ctx context.Context, repo githubRepo) (int, error) {
	var commits []githubCommit
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=100",
		c.baseURL, url.PathEscape(repo.Owner.Login), url.PathEscape(repo.Name))
	if err := getJSON(ctx, c.http, c.limiter, endpoint, &commits); err != nil {
		return 0, err
	}
	return len(commits), nil
}
