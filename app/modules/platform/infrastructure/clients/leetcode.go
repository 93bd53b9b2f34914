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

// LeetCodeClient scores a user by their total solved problem count.
type LeetCodeClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ StatFetcher = (*LeetCodeClient)(nil)

func NewLeetCodeClient(baseURL string, httpClient *http.Client, limiter *rate.Limiter, logger *slog.Logger) *LeetCodeClient {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &LeetCodeClient{
		baseURL: baseURL,
		http:    httpClient,
		limiter: limiter,
		logger:  logger.With(attr.String("platform", sharedtypes.PlatformLeetCode.String())),
	}
}

func (c *LeetCodeClient) Platform() sharedtypes.Platform {
	return sharedtypes.PlatformLeetCode
}

type leetcodeResponse struct {
	Status      string `json:"status"`
	TotalSolved int    `json:"totalSolved"`
}

func (c *LeetCodeClient) Fetch(ctx context.Context, username string, previous int) int {
	var resp leetcodeResponse
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(username))

	if err := getJSON(ctx, c.http, c.limiter, endpoint, &resp); err != nil {
		c.logger.Warn("leetcode fetch failed, keeping previous score",
			attr.String("username", username),
			attr.Int("previous", previous),
			attr.Error(err))
		return previous
	}

	if resp.Status != "success" {
		c.logger.Warn("leetcode reported failure, keeping previous score",
			attr.String("username", username),
			attr.String("status", resp.Status),
			attr.Int("previous", previous))
		return previous
	}

	return resp.TotalSolved
}
