// Package fetch downloads cantina menu PDFs from the upstream site.
package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"cantinabot/pkg/config"
	"cantinabot/pkg/logger"
	"cantinabot/pkg/menu"
)

// Error describes a failed menu download.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher downloads menu PDFs. It is stateless; caching is the caller's
// concern.
type Fetcher struct {
	log        *logger.Logger
	client     *http.Client
	baseURL    string
	maxBody    int64
	retries    int
	retryDelay time.Duration
}

// New creates a Fetcher from configuration.
func New(log *logger.Logger, cfg config.FetchConfig) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		// The upstream serves an incomplete certificate chain.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	maxBody := int64(cfg.MaxBodyMB)
	if maxBody <= 0 {
		maxBody = 20
	}

	retries := cfg.Retries
	if retries <= 0 {
		retries = 1
	}
	retryDelay := time.Duration(cfg.RetryDelaySeconds) * time.Second
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}

	return &Fetcher{
		log: log,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		baseURL:    cfg.BaseURL,
		maxBody:    maxBody << 20,
		retries:    retries,
		retryDelay: retryDelay,
	}
}

// Fetch downloads the menu PDF for the cantina on the given day, trying
// each URL variant in order. It returns the raw PDF bytes, or an *Error
// when every variant failed.
func (f *Fetcher) Fetch(ctx context.Context, c menu.Cantina, day time.Time) ([]byte, error) {
	urls := c.CandidateURLs(f.baseURL, day)
	if len(urls) == 0 {
		return nil, &Error{Err: fmt.Errorf("no candidate urls for cantina %s", c.Key)}
	}

	var lastErr *Error
	for attempt := 1; attempt <= f.retries; attempt++ {
		for _, url := range urls {
			data, err := f.fetchOne(ctx, url)
			if err == nil {
				f.log.Info("Fetched menu PDF",
					zap.String("cantina", c.Key),
					zap.String("date", menu.ISODate(day)),
					zap.String("url", url),
					zap.Int("bytes", len(data)))
				return data, nil
			}

			lastErr = err
			f.log.Debug("Menu variant unavailable",
				zap.String("cantina", c.Key),
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err))

			if ctx.Err() != nil {
				return nil, lastErr
			}
		}

		if attempt < f.retries {
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(f.retryDelay):
			}
		}
	}

	return nil, lastErr
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]byte, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: url, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, &Error{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}
	if int64(len(data)) > f.maxBody {
		return nil, &Error{URL: url, Err: fmt.Errorf("body exceeds %d bytes", f.maxBody)}
	}

	if !isPDF(resp.Header.Get("Content-Type"), data) {
		return nil, &Error{URL: url, Err: fmt.Errorf("not a PDF (content type %q)", resp.Header.Get("Content-Type"))}
	}
	if len(data) == 0 {
		return nil, &Error{URL: url, Err: fmt.Errorf("empty body")}
	}

	return data, nil
}

// isPDF accepts a PDF content type or the PDF magic prefix; the upstream
// occasionally mislabels uploads.
func isPDF(contentType string, data []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF"))
}
