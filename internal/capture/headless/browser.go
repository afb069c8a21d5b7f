// Package headless renders web pages in a shared Chrome session driven
// over the DevTools protocol.
package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultNavigationTimeout bounds how long a page gets to reach the
// DOM-parsed state before the capture is abandoned.
const DefaultNavigationTimeout = 5 * time.Second

// Config controls the shared browser session.
type Config struct {
	UserAgent string
	// DataDir is the persistent browser profile directory. Empty means a
	// throwaway profile.
	DataDir string
}

// Browser owns the Chrome process shared by all page captures. One tab is
// opened per URL and closed when that capture finishes; the process itself
// lives for the whole run.
type Browser struct {
	allocator     context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewBrowser prepares an exec allocator. The Chrome process launches on
// Start, not here.
func NewBrowser(cfg Config) *Browser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.DataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.DataDir))
	}

	// The allocator parents on Background, not the run context: a shutdown
	// signal must let the in-flight capture finish before Close tears the
	// process down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Browser{
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

// Start launches the Chrome process so a missing or broken binary fails the
// run during setup instead of on the first URL.
func (b *Browser) Start() error {
	if b.browserCtx != nil {
		return nil
	}
	browserCtx, cancel := chromedp.NewContext(b.allocator)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return fmt.Errorf("launch browser: %w", err)
	}
	b.browserCtx = browserCtx
	b.browserCancel = cancel
	return nil
}

// Started reports whether the Chrome process is up.
func (b *Browser) Started() bool {
	return b != nil && b.browserCtx != nil
}

// Close shuts down the browser process and releases the allocator.
func (b *Browser) Close() {
	if b == nil {
		return
	}
	if b.browserCancel != nil {
		b.browserCancel()
		b.browserCancel = nil
		b.browserCtx = nil
	}
	b.allocCancel()
}

// newTab opens a tab scoped to a single capture. The returned cancel closes
// the tab.
func (b *Browser) newTab() (context.Context, context.CancelFunc, error) {
	if !b.Started() {
		return nil, nil, errors.New("browser not started")
	}
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	return tabCtx, cancel, nil
}
