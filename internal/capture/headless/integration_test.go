package headless

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/pagevault/internal/snapshot"
	"github.com/JakeFAU/pagevault/internal/storage/memory"
)

var chromeBinaries = []string{
	"headless-shell",
	"headless_shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

func startBrowser(t *testing.T) *Browser {
	t.Helper()

	found := false
	for _, name := range chromeBinaries {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skipf("no chrome binary found in PATH (looked for %v)", chromeBinaries)
	}

	browser := NewBrowser(Config{DataDir: t.TempDir()})
	if err := browser.Start(); err != nil {
		t.Fatalf("start browser: %v", err)
	}
	t.Cleanup(browser.Close)
	return browser
}

func TestIntegrationCapturePageProducesArtifacts(t *testing.T) {
	browser := startBrowser(t)

	const body = `<!doctype html>
<html><head>
<title>Inflation brief</title>
<style>.hidden { display: none; }</style>
<script>console.log("never extracted");</script>
</head><body>
<h1>Inflation brief</h1>
<p>Prices rose 0.3 percent in July.</p>
</body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(body)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	t.Cleanup(ts.Close)

	blobs := memory.NewBlobStore()
	c := NewCapturer(browser, blobs, fixedClock{now: time.Now().UTC()}, zap.NewNop(), CaptureOptions{})

	artifacts, err := c.CapturePage(context.Background(), ts.URL, "fp1")
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	var layout snapshot.Layout
	for _, p := range layout.PagePaths("fp1") {
		if !blobs.Exists(context.Background(), p) {
			t.Fatalf("expected artifact %s to be stored", p)
		}
	}

	text, err := blobs.Get(context.Background(), artifacts.Text)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(text), "Prices rose 0.3 percent in July.") {
		t.Fatalf("expected visible text to be extracted, got %q", text)
	}
	if strings.Contains(string(text), "never extracted") {
		t.Fatalf("script content leaked into text: %q", text)
	}

	shot, err := blobs.Get(context.Background(), artifacts.Screenshot)
	if err != nil {
		t.Fatal(err)
	}
	if len(shot) == 0 || string(shot[1:4]) != "PNG" {
		t.Fatalf("expected PNG screenshot, got %d bytes", len(shot))
	}
}

func TestIntegrationNavigationTimeout(t *testing.T) {
	browser := startBrowser(t)

	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(func() {
		close(release)
		ts.Close()
	})

	c := NewCapturer(browser, memory.NewBlobStore(), fixedClock{now: time.Now()}, zap.NewNop(), CaptureOptions{
		NavigationTimeout: 500 * time.Millisecond,
	})

	start := time.Now()
	_, err := c.CapturePage(context.Background(), ts.URL, "fp2")
	elapsed := time.Since(start)

	if !errors.Is(err, snapshot.ErrNavigationTimeout) {
		t.Fatalf("expected navigation timeout, got %v", err)
	}
	if elapsed > 3*time.Second {
		t.Fatalf("timeout took %v, deadline not enforced", elapsed)
	}
}

func TestIntegrationNavigationError(t *testing.T) {
	browser := startBrowser(t)

	c := NewCapturer(browser, memory.NewBlobStore(), fixedClock{now: time.Now()}, zap.NewNop(), CaptureOptions{})

	// Port 9 is discard; the connection is refused immediately.
	_, err := c.CapturePage(context.Background(), "http://127.0.0.1:9/", "fp3")
	if !errors.Is(err, snapshot.ErrNavigation) {
		t.Fatalf("expected navigation error, got %v", err)
	}
	if errors.Is(err, snapshot.ErrNavigationTimeout) {
		t.Fatalf("connection refused must not classify as timeout: %v", err)
	}
}
