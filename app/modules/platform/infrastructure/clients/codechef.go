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

// CodeChefClient scores a user by the number of entries in their activity
// heat map.
type CodeChefClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ StatFetcher = (*CodeChefClient)(nil)

func NewCodeChefClient(baseURL string, httpClient *http.Client, limiter *rate.Limiter, logger *slog.Logger) *CodeChefClient {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &CodeChefClient{
		baseURL: baseURL,
		http:    httpClient,
		limiter: limiter,
		logger:  logger.With(attr.String("platform", sharedtypes.PlatformCodeChef.String())),
	}
}

func (c *CodeChefClient) Platform() sharedtypes.Platform {
	return sharedtypes.PlatformCodeChef
}

type codechefResponse struct {
	Success bool `json:"success"`
	HeatMap []struct {
		Date  string `json:"date"`
		Value int    `json:"value"`
	} `json:"heatMap"`
}

func (c *CodeChefClient) Fetch(ctx context.Context, username string, previous int) int {
	var resp codechefResponse
	endpoint := fmt.Sprintf("%s/handle/%s", c.baseURL, url.PathEscape(username))

	if err := getJSON(ctx, c.http, c.limiter, endpoint, &resp); err != nil {
		c.logger.Warn("codechef fetch failed, keeping previous score",
			attr.String("username", username),
			attr.Int("previous", previous),
			attr.Error(err))
		return previous
	}

	if !resp.Success {
		c.logger.Warn("codechef reported failure, keeping previous score",
			attr.String("username", username),
			attr.Int("previous", previous))
		return previous
	}

	return len(resp.HeatMap)
}
