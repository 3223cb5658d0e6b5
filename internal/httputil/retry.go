// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP fetch used by the ingestion pipeline.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryBaseDelay is the first backoff after a 429; each further attempt
// doubles it. Tests shorten it.
var RetryBaseDelay = 2 * time.Second

// MaxRetryDelay caps any single wait, including one requested by the server
// through Retry-After.
var MaxRetryDelay = 30 * time.Second

const defaultMaxRetries = 3

// DoWithRetry sends req and resends it while the server answers 429 Too Many
// Requests, up to maxRetries times (3 when maxRetries is 0). Between
// attempts it waits for the server's Retry-After when given in seconds,
// otherwise for an exponential backoff from RetryBaseDelay.
//
// Once retries run out the final 429 response is returned unread. A context
// cancelled while waiting returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, logger *slog.Logger) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryDelay(resp.Header.Get("Retry-After"), attempt)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		logger.Info("rate limited, backing off",
			"url", req.URL.String(),
			"wait", wait,
			"attempt", attempt+1,
			"max_retries", maxRetries,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// retryDelay picks the wait before the next attempt. A Retry-After value in
// whole seconds wins over the exponential schedule; HTTP-date values are
// ignored. The result never exceeds MaxRetryDelay.
func retryDelay(retryAfter string, attempt int) time.Duration {
	wait := RetryBaseDelay << attempt
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
		wait = time.Duration(secs) * time.Second
	}
	if wait > MaxRetryDelay || wait < 0 {
		wait = MaxRetryDelay
	}
	return wait
}
