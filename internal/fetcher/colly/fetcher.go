// Package collyfetcher implements the content-type prober and document
// downloader on top of the Colly collector.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	Timeout       time.Duration
	MaxBodySize   int
	RespectRobots bool
}

// Pacer throttles outbound requests per host. A nil Pacer disables pacing.
type Pacer interface {
	Wait(ctx context.Context, url string) error
}

// Fetcher probes content types with HEAD requests and downloads document
// bodies with GET requests. Both operations may hit the same URL during a
// single run, so the base collector allows revisits.
type Fetcher struct {
	cfg           Config
	pacer         Pacer
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config, pacer Pacer) *Fetcher {
	opts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	if cfg.MaxBodySize > 0 {
		opts = append(opts, colly.MaxBodySize(cfg.MaxBodySize))
	}
	if !cfg.RespectRobots {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}

	c := colly.NewCollector(opts...)
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c.SetRequestTimeout(timeout)

	transport := http.RoundTripper(newHTTPTransport())
	if cfg.RespectRobots {
		// A flaky robots probe must not take the whole URL down with it.
		transport = &robotsRetryTransport{base: transport}
	}
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		pacer:         pacer,
		baseCollector: c,
	}
}

// Probe issues a metadata-only HEAD request and returns the Content-Type
// header. The response body is never fetched.
func (f *Fetcher) Probe(ctx context.Context, rawURL string) (string, error) {
	if err := f.pace(ctx, rawURL); err != nil {
		return "", err
	}

	var (
		contentType string
		fetchErr    error
	)
	collector := f.baseCollector.Clone()
	collector.OnResponse(func(r *colly.Response) {
		contentType = r.Headers.Get("Content-Type")
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := f.run(ctx, func() error { return collector.Head(rawURL) }, &fetchErr); err != nil {
		return "", err
	}
	return contentType, nil
}

// Download fetches the resource body and reports its Content-Type header.
func (f *Fetcher) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := f.pace(ctx, rawURL); err != nil {
		return nil, "", err
	}

	var (
		body        []byte
		contentType string
		fetchErr    error
	)
	collector := f.baseCollector.Clone()
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
		contentType = r.Headers.Get("Content-Type")
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := f.run(ctx, func() error { return collector.Visit(rawURL) }, &fetchErr); err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

func (f *Fetcher) pace(ctx context.Context, rawURL string) error {
	if f.pacer == nil {
		return nil
	}
	if err := f.pacer.Wait(ctx, rawURL); err != nil {
		return fmt.Errorf("pace request: %w", err)
	}
	return nil
}

// run executes the collector call in a goroutine so a canceled context can
// abandon a stuck request.
func (f *Fetcher) run(ctx context.Context, visit func() error, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- visit()
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
