// Package sentinelhub calls the Sentinel Hub Process API and returns
// rendered rasters.
package sentinelhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avolkov/sentinel-gateway/internal/core/model"
	"github.com/avolkov/sentinel-gateway/internal/core/observability"
)

const processPath = "/api/v1/process"

type Client struct {
	logger     *slog.Logger
	client     *http.Client
	processURL *url.URL
	startNow   func() time.Time // for tests
}

// New builds a Process API client. The http client is expected to carry
// provider authentication (see httpclient.NewAuthenticated).
func New(logger *slog.Logger, client *http.Client, baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}
	u = u.JoinPath(processPath)
	return &Client{
		logger:     logger,
		client:     client,
		processURL: u,
		startNow:   time.Now,
	}, nil
}

// Render requests one raster for the bbox with the given evalscript and
// returns the raw PNG bytes.
func (c *Client) Render(ctx context.Context, bbox model.BBox, evalscript string) ([]byte, error) {
	body, err := json.Marshal(newProcessRequest(bbox, evalscript))
	if err != nil {
		return nil, fmt.Errorf("encode process request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.processURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	start := c.startNow()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	dur := time.Since(start)
	observability.ObserveUpstreamLatency("sentinelhub", dur.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("provider status %d: %s", resp.StatusCode, string(b))
	}

	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	c.logger.Debug("render done",
		"bbox", bbox.String(),
		"bytes", len(png),
		"duration", dur.String())
	return png, nil
}
