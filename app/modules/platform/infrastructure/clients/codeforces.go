package platformclients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

// CodeforcesClient scores a user by their contribution value.
type CodeforcesClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ StatFetcher = (*CodeforcesClient)(nil)

func NewCodeforcesClient(baseURL string, httpClient *http.Client, limiter *rate.Limiter, logger *slog.Logger) *CodeforcesClient {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &CodeforcesClient{
		baseURL: baseURL,
		http:    httpClient,
		limiter: limiter,
		logger:  logger.With(attr.String("platform", sharedtypes.PlatformCodeforces.String())),
	}
}

func (c *CodeforcesClient) Platform() sharedtypes.Platform {
	return sharedtypes.PlatformCodeforces
}

type codeforcesResponse struct {
	Status string `json:"status"`
	Result []struct {
		Contribution int `json:"contribution"`
	} `json:"result"`
}

func (c *CodeforcesClient) Fetch(ctx context.Context, username string, previous int) int {
	var resp codeforcesResponse
	endpoint := fmt.Sprintf("%s/user.info?handles=%s", c.baseURL, url.QueryEscape(username))

	if err := getJSON(ctx, c.http, c.limiter, endpoint, &resp); err != nil {
		c.logger.Warn("codeforces fetch failed, keeping previous score",
			attr.String("username", username),
			attr.Int("previous", previous),
			attr.Error(err))
		return previous
	}

	if resp.Status != "OK" {
		c.logger.Warn("codeforces reported failure, keeping previous score",
			attr.String("username", username),
			attr.String("status", resp.Status),
			attr.Int("previous", previous))
		return previous
	}

	if len(resp.Result) == 0 {
		return 0
	}
	return resp.Result[0].Contribution
}
