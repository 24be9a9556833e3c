// Package screen provides screenshot sources for the monitoring loop.
package screen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

const (
	defaultWidth  = 1280
	defaultHeight = 800
	// pngQuality makes chromedp encode PNG instead of JPEG.
	pngQuality = 100
)

var ErrNoTarget = errors.New("no capture URL configured")

var _ ports.ScreenshotSource = (*ChromeSource)(nil)

// ChromeSource captures a page rendered by a headless Chrome instance.
// The browser is started lazily and reused across captures.
type ChromeSource struct {
	url    string
	width  int64
	height int64
	opts   []chromedp.ExecAllocatorOption

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// NewChromeSource captures url. Extra allocator options are appended to
// chromedp's defaults (headless).
func NewChromeSource(url string, opts ...chromedp.ExecAllocatorOption) *ChromeSource {
	return &ChromeSource{
		url:    url,
		width:  defaultWidth,
		height: defaultHeight,
		opts:   append(chromedp.DefaultExecAllocatorOptions[:], opts...),
	}
}

// Capture navigates a fresh tab to the target and returns a full-page PNG.
func (c *ChromeSource) Capture(ctx context.Context) ([]byte, error) {
	if c.url == "" {
		return nil, ErrNoTarget
	}

	browserCtx, err := c.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var buf []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(c.width, c.height),
		chromedp.Navigate(c.url),
		chromedp.WaitReady("body"),
		chromedp.FullScreenshot(&buf, pngQuality),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("capture %s: %w", c.url, ctxErr)
		}
		return nil, fmt.Errorf("capture %s: %w", c.url, err)
	}
	return buf, nil
}

func (c *ChromeSource) browser() (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browserCtx != nil {
		return c.browserCtx, nil
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), c.opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	c.browserCtx = browserCtx
	c.cancelAlloc = cancelAlloc
	c.cancelBrowser = cancelBrowser
	return browserCtx, nil
}

// Close shuts the browser down.
func (c *ChromeSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browserCtx == nil {
		return nil
	}
	c.cancelBrowser()
	c.cancelAlloc()
	c.browserCtx = nil
	return nil
}
