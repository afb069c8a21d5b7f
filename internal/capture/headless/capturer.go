package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/pagevault/internal/snapshot"
)

// Pacer throttles navigations per host. A nil Pacer disables pacing.
type Pacer interface {
	Wait(ctx context.Context, url string) error
}

// CaptureOptions carries the tunable knobs of a Capturer.
type CaptureOptions struct {
	// NavigationTimeout bounds the navigate-until-DOM-parsed phase only.
	// Zero means DefaultNavigationTimeout.
	NavigationTimeout time.Duration
	// CaptureTimeout bounds screenshot and HTML serialization after the
	// DOM is parsed. Zero means 30s.
	CaptureTimeout time.Duration
	Pacer          Pacer
}

// Capturer renders pages and persists the screenshot, serialized HTML, and
// visible text for a fingerprint. When all three artifacts already exist
// the render is skipped entirely and no tab is opened.
type Capturer struct {
	browser *Browser
	blobs   snapshot.BlobStore
	clock   snapshot.Clock
	logger  *zap.Logger
	layout  snapshot.Layout
	opts    CaptureOptions
}

// NewCapturer builds a Capturer on a shared browser session.
func NewCapturer(browser *Browser, blobs snapshot.BlobStore, clock snapshot.Clock, logger *zap.Logger, opts CaptureOptions) *Capturer {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	if opts.CaptureTimeout <= 0 {
		opts.CaptureTimeout = 30 * time.Second
	}
	return &Capturer{
		browser: browser,
		blobs:   blobs,
		clock:   clock,
		logger:  logger,
		opts:    opts,
	}
}

// CapturePage captures one web page under the given fingerprint.
func (c *Capturer) CapturePage(ctx context.Context, rawURL string, fingerprint string) (snapshot.ArtifactSet, error) {
	shotPath := c.layout.Screenshot(fingerprint)
	htmlPath := c.layout.HTML(fingerprint)
	textPath := c.layout.Text(fingerprint)

	artifacts := snapshot.ArtifactSet{
		Kind:       snapshot.ArtifactPage,
		Screenshot: shotPath,
		HTML:       htmlPath,
		Text:       textPath,
	}

	if c.blobs.Exists(ctx, shotPath) && c.blobs.Exists(ctx, htmlPath) && c.blobs.Exists(ctx, textPath) {
		c.logger.Info("artifacts already on disk, skipping render",
			zap.String("url", rawURL),
			zap.String("fingerprint", fingerprint))
		artifacts.CapturedAt = c.clock.Now()
		return artifacts, nil
	}

	if c.opts.Pacer != nil {
		if err := c.opts.Pacer.Wait(ctx, rawURL); err != nil {
			return snapshot.ArtifactSet{}, fmt.Errorf("pace navigation: %w", err)
		}
	}

	tabCtx, closeTab, err := c.browser.newTab()
	if err != nil {
		return snapshot.ArtifactSet{}, err
	}
	defer closeTab()

	if err := c.navigate(tabCtx, rawURL); err != nil {
		return snapshot.ArtifactSet{}, err
	}

	var (
		shot  []byte
		outer string
	)
	captureCtx, cancelCapture := context.WithTimeout(tabCtx, c.opts.CaptureTimeout)
	defer cancelCapture()
	err = chromedp.Run(captureCtx,
		chromedp.FullScreenshot(&shot, 100),
		chromedp.OuterHTML("html", &outer, chromedp.ByQuery),
	)
	if err != nil {
		return snapshot.ArtifactSet{}, fmt.Errorf("capture artifacts: %w", err)
	}

	text, err := snapshot.ExtractVisibleText([]byte(outer))
	if err != nil {
		return snapshot.ArtifactSet{}, fmt.Errorf("%w: %w", snapshot.ErrExtraction, err)
	}

	if _, err := c.blobs.Put(ctx, shotPath, "image/png", shot); err != nil {
		return snapshot.ArtifactSet{}, fmt.Errorf("persist screenshot: %w", err)
	}
	if _, err := c.blobs.Put(ctx, htmlPath, "text/html", []byte(outer)); err != nil {
		return snapshot.ArtifactSet{}, fmt.Errorf("persist html: %w", err)
	}
	if _, err := c.blobs.Put(ctx, textPath, "text/plain", []byte(text)); err != nil {
		return snapshot.ArtifactSet{}, fmt.Errorf("persist text: %w", err)
	}

	c.logger.Debug("page rendered",
		zap.String("url", rawURL),
		zap.Int("screenshot_bytes", len(shot)),
		zap.Int("html_bytes", len(outer)),
		zap.Int("text_bytes", len(text)))

	artifacts.CapturedAt = c.clock.Now()
	return artifacts, nil
}

// navigate starts the page load and waits only until the DOM is parsed,
// racing the navigation deadline. Rendering of subresources continues in
// the tab while artifacts are captured.
func (c *Capturer) navigate(tabCtx context.Context, rawURL string) error {
	navCtx, cancel := context.WithTimeout(tabCtx, c.opts.NavigationTimeout)
	defer cancel()

	domReady := make(chan struct{}, 1)
	chromedp.ListenTarget(navCtx, func(ev any) {
		if _, ok := ev.(*page.EventDomContentEventFired); ok {
			select {
			case domReady <- struct{}{}:
			default:
			}
		}
	})

	var errorText string
	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, text, err := page.Navigate(rawURL).Do(ctx)
		if err != nil {
			return err
		}
		errorText = text
		return nil
	}))
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: no navigation response within %s", snapshot.ErrNavigationTimeout, c.opts.NavigationTimeout)
	case err != nil:
		return fmt.Errorf("%w: %w", snapshot.ErrNavigation, err)
	case errorText != "":
		return fmt.Errorf("%w: %s", snapshot.ErrNavigation, errorText)
	}

	select {
	case <-domReady:
		return nil
	case <-navCtx.Done():
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: dom not parsed within %s", snapshot.ErrNavigationTimeout, c.opts.NavigationTimeout)
		}
		return fmt.Errorf("%w: %w", snapshot.ErrNavigation, navCtx.Err())
	}
}
