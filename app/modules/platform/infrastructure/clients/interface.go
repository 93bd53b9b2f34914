// Package platformclients implements the per-platform stat fetchers.
//
// Every fetcher follows the same contract: Fetch never fails. Any transport
// error, non-success payload, or malformed body is logged and converted into
// returning the previous known score, so a flaky platform can never poison a
// refresh cycle.
package platformclients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
)

// StatFetcher fetches one platform's score for a username.
type StatFetcher interface {
	Platform() sharedtypes.Platform
	// Fetch returns the current score for username, or previous on any
	// failure. It never returns an error.
	Fetch(ctx context.Context, username string, previous int) int
}

const defaultTimeout = 15 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// getJSON performs a rate-limited GET and decodes the JSON body into v.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, url string, v any) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
