// Package fetcher downloads remote assets referenced by a plan into job
// scratch files.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"reelgen/internal/pkg/errors"
	"reelgen/internal/pkg/logger"
	"reelgen/internal/pkg/metrics"
	"reelgen/internal/worker/scratch"
)

// Config bounds a single download.
type Config struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	// AllowPrivateNetworks permits hosts on loopback, private and link-local
	// addresses.
	AllowPrivateNetworks bool
}

type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
	log       *logger.Logger
}

func New(cfg Config, log *logger.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout, Transport: newTransport(cfg.AllowPrivateNetworks)},
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
		log:       log.WithComponent("fetcher"),
	}
}

// Fetch downloads rawURL into a new scope file and syncs it to disk. On any
// failure the partial file is deleted and a FETCH_FAILED error is returned.
func (f *Fetcher) Fetch(ctx context.Context, scope *scratch.Scope, rawURL string) (*scratch.File, error) {
	log := f.log.FromContext(ctx).WithJobID(scope.JobID())

	u, err := parseRemoteURL(rawURL)
	if err != nil {
		return nil, f.fail(log, rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, f.fail(log, rawURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, f.fail(log, rawURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, f.fail(log, rawURL, fmt.Errorf("remote returned http %d", res.StatusCode))
	}

	file, err := scope.Create("image-*" + extFor(res.Header.Get("Content-Type"), u))
	if err != nil {
		return nil, f.fail(log, rawURL, err)
	}

	n, err := f.save(file, res.Body)
	if err != nil {
		if rmErr := file.Remove(); rmErr != nil {
			log.Warn("failed to remove partial download", "path", file.Path(), "error", rmErr.Error())
		}
		return nil, f.fail(log, rawURL, err)
	}

	metrics.FetchBytes.Add(float64(n))
	log.Debug("asset fetched", "url", rawURL, "path", file.Path(), "bytes", n)
	return file, nil
}

func (f *Fetcher) save(file *scratch.File, body io.Reader) (int64, error) {
	src := body
	if f.maxBytes > 0 {
		src = io.LimitReader(body, f.maxBytes+1)
	}

	n, err := io.Copy(file, src)
	if err != nil {
		return n, err
	}
	if f.maxBytes > 0 && n > f.maxBytes {
		return n, fmt.Errorf("asset exceeds %d bytes", f.maxBytes)
	}
	if err := file.Sync(); err != nil {
		return n, err
	}
	return n, file.Close()
}

func (f *Fetcher) fail(log *logger.Logger, rawURL string, cause error) error {
	err := errors.FetchFailed(rawURL, cause)
	log.Error("failed to fetch remote asset", err.LogArgs()...)
	return err
}

func parseRemoteURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url has no host")
	}
	return u, nil
}

func extFor(contentType string, u *url.URL) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext := ExtFromMime(mt); ext != "" {
			return ext
		}
	}
	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ".jpg"
}

// ExtFromMime returns the file extension for a MIME type, or "" when unknown.
func ExtFromMime(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "video/mp4":
		return ".mp4"
	default:
		return ""
	}
}
