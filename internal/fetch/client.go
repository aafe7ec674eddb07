// Package fetch is the boundary to the upstream market-activity feed.
// The feed returns a table of (item, value) pairs for "today"; no
// further structure is assumed.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"breadthcli/internal/breadth"
	"breadthcli/internal/config"
	pipeerrors "breadthcli/internal/errors"
)

// Request headers mimic a browser session; the feed rejects bare
// clients.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
)

const retryDelay = 500 * time.Millisecond

// Client fetches today's market-breadth indicator table.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	url        string
	itemsPath  string
	retries    int
	logger     *slog.Logger
}

// NewClient builds a client from source configuration.
func NewClient(cfg config.SourceConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 1
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		url:        cfg.URL,
		itemsPath:  cfg.ItemsPath,
		retries:    retries,
		logger:     logger,
	}
}

// FetchToday retrieves the current indicator table. Failures are
// wrapped as ErrSourceUnavailable; the caller halts the run with no
// partial write.
func (c *Client) FetchToday(ctx context.Context) ([]breadth.SnapshotRow, error) {
	body, err := c.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeerrors.ErrSourceUnavailable, err)
	}

	rows, err := parseItems(body, c.itemsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeerrors.ErrSourceUnavailable, err)
	}

	c.logger.InfoContext(ctx, "fetched market activity data",
		slog.String("url", c.url),
		slog.Int("rows", len(rows)))
	return rows, nil
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			c.logger.WarnContext(ctx, "retrying fetch",
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Accept-Language", acceptLanguage)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("http %d", resp.StatusCode)
			continue
		}
		return body, nil
	}
	return nil, lastErr
}

// parseItems extracts the (item, value) table from the response body.
// Values are kept as raw strings; numeric coercion happens later in
// the cleaning pass.
func parseItems(body []byte, itemsPath string) ([]breadth.SnapshotRow, error) {
	items := gjson.GetBytes(body, itemsPath)
	if !items.Exists() || !items.IsArray() {
		return nil, fmt.Errorf("no %q array in response", itemsPath)
	}

	var rows []breadth.SnapshotRow
	for _, v := range items.Array() {
		item := strings.TrimSpace(v.Get("item").String())
		if item == "" {
			continue
		}
		rows = append(rows, breadth.SnapshotRow{
			Item:  item,
			Value: v.Get("value").String(),
		})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("response contained no indicator rows")
	}
	return rows, nil
}
