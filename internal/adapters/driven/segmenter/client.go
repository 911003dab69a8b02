// Package segmenter wraps the external bulk word-segmentation HTTP
// service (spec §4.5/§6), grounded on original_source's word-client
// crate for the wave-based parallel dispatch algorithm and on the
// teacher's connectors/github client for the HTTP client struct shape.
package segmenter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/domainforge/domainforge-core/internal/core/domain"
	"github.com/domainforge/domainforge-core/internal/core/ports/driven"
)

var _ driven.Segmenter = (*Client)(nil)

const requestTimeout = 120 * time.Second

// DefaultMaxBatchSize and DefaultParallelRequests mirror
// original_source's WordClient defaults.
const (
	DefaultMaxBatchSize     = 50_000
	DefaultParallelRequests = 4
)

// Config configures a Client.
type Config struct {
	BaseURL          string
	Username         string
	Password         string
	MaxBatchSize     int
	ParallelRequests int
}

// Client calls POST {base}/segment/bulk with HTTP Basic auth.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	username         string
	password         string
	maxBatchSize     int
	parallelRequests int
	logger           *slog.Logger
}

// New creates a Client, applying the original implementation's defaults
// for zero-valued MaxBatchSize/ParallelRequests.
func New(cfg Config, logger *slog.Logger) *Client {
	maxBatchSize := cfg.MaxBatchSize
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	parallelRequests := cfg.ParallelRequests
	if parallelRequests <= 0 {
		parallelRequests = DefaultParallelRequests
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
			},
		},
		baseURL:          cfg.BaseURL,
		username:         cfg.Username,
		password:         cfg.Password,
		maxBatchSize:     maxBatchSize,
		parallelRequests: parallelRequests,
		logger:           logger,
	}
}

type bulkRequest struct {
	Labels []string `json:"labels"`
}

type segmentResult struct {
	Label        string   `json:"label"`
	Segmentation []string `json:"segmentation"`
	Keywords     []string `json:"keywords,omitempty"`
}

type bulkResponse struct {
	Results []segmentResult `json:"results"`
}

// SegmentBatch splits labels into chunks of at most maxBatchSize,
// dispatches chunks in sequential waves of up to parallelRequests
// concurrent calls, and returns results in input order. A failure in any
// chunk within a wave fails the whole call with a *domain.CodedError of
// Kind KindSegmenter.
func (c *Client) SegmentBatch(ctx context.Context, labels []string) ([]driven.LabelTokens, error) {
	if len(labels) == 0 {
		return nil, nil
	}

	chunks := chunkStrings(labels, c.maxBatchSize)
	if len(chunks) == 1 {
		r, err := c.segmentChunk(ctx, chunks[0])
		if err != nil {
			return nil, domain.NewError(domain.KindSegmenter, err)
		}
		return r, nil
	}

	results := make([]driven.LabelTokens, 0, len(labels))
	for start := 0; start < len(chunks); start += c.parallelRequests {
		end := min(start+c.parallelRequests, len(chunks))
		wave := chunks[start:end]
		waveResults := make([][]driven.LabelTokens, len(wave))

		g, gctx := errgroup.WithContext(ctx)
		for i, chunk := range wave {
			i, chunk := i, chunk
			g.Go(func() error {
				r, err := c.segmentChunk(gctx, chunk)
				if err != nil {
					return err
				}
				waveResults[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, domain.NewError(domain.KindSegmenter, err)
		}
		for _, r := range waveResults {
			results = append(results, r...)
		}
	}
	return results, nil
}

func (c *Client) segmentChunk(ctx context.Context, labels []string) ([]driven.LabelTokens, error) {
	body, err := json.Marshal(bulkRequest{Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("marshal segment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/segment/bulk", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build segment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("segment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("segment request: status %d", resp.StatusCode)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode segment response: %w", err)
	}

	if len(parsed.Results) != len(labels) {
		c.logger.Warn("segment response count mismatch",
			slog.Int("expected", len(labels)), slog.Int("got", len(parsed.Results)))
	}

	out := make([]driven.LabelTokens, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, driven.LabelTokens{Label: r.Label, Tokens: r.Segmentation})
	}
	return out, nil
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
