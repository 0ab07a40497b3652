package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	v0 "reelgen/internal/contracts/renderer/v0"
	"reelgen/internal/pkg/logger"
)

// HTTPClient renders through a remote engine that accepts the JobSpec at
// POST <baseURL>/render and writes spec.Output on storage both sides share.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	log     *logger.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, log *logger.Logger) *HTTPClient {
	if log == nil {
		log = logger.NewDefault()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
		log:     log.WithComponent("renderer"),
	}
}

func (c *HTTPClient) Name() string { return "http" }

func (c *HTTPClient) Render(ctx context.Context, spec v0.JobSpec) Result {
	log := c.log.FromContext(ctx)

	body, err := json.Marshal(spec)
	if err != nil {
		return Invalid(err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return Failure(-1, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if stderrors.Is(ctxErr, context.DeadlineExceeded) {
				return Timeout("")
			}
			return Canceled()
		}
		log.Error("render service unreachable", "base_url", c.baseURL, "error", err.Error())
		return Failure(-1, err.Error())
	}
	defer res.Body.Close()

	tail := newTailBuffer(defaultTailBytes)
	_, _ = io.Copy(tail, res.Body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Failure(res.StatusCode, strings.TrimSpace(tail.String()))
	}

	log.Info("render service finished", "status", res.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return Success(spec.Output)
}
