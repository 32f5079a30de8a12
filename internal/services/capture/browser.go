package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/models"
)

// BrowserConfig holds configuration for the headless browser
type BrowserConfig struct {
	Headless  bool
	NoSandbox bool
	ExecPath  string        // empty = chromedp discovery
	Scale     float64       // device pixel ratio of the screenshot
	Timeout   time.Duration // per-region capture timeout
}

// BrowserCapturer screenshots chart regions from the surface HTML in headless Chrome.
// Each capture runs in its own tab of one shared browser.
type BrowserCapturer struct {
	config        BrowserConfig
	logger        arbor.ILogger
	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

var _ interfaces.ChartCapturer = (*BrowserCapturer)(nil)

// NewBrowserCapturer creates a capturer; call Start before use
func NewBrowserCapturer(config BrowserConfig, logger arbor.ILogger) *BrowserCapturer {
	if config.Scale <= 0 {
		config.Scale = DefaultScale
	}
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	return &BrowserCapturer{config: config, logger: logger}
}

// Start launches the browser and checks that it responds
func (b *BrowserCapturer) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		return fmt.Errorf("browser already started")
	}

	startTime := time.Now()

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", b.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(1280, 1024),
	)
	if b.config.ExecPath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(b.config.ExecPath))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("browser failed startup test: %w", err)
	}

	b.allocCancel = allocatorCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel

	b.logger.Info().
		Bool("headless", b.config.Headless).
		Float64("scale", b.config.Scale).
		Dur("startup_time", time.Since(startTime)).
		Msg("Headless browser started for chart capture")

	return nil
}

// Close shuts the browser down
func (b *BrowserCapturer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.browserCancel = nil
	b.allocCancel = nil
}

// reflowScript detaches the region's svg, pins its rendered size and reattaches it.
// Evaluates to false when there is no svg with a non-zero box.
const reflowScript = `(() => {
	const svg = document.querySelector(%s);
	if (!svg) return false;
	const box = svg.getBoundingClientRect();
	if (!box.width || !box.height) return false;
	const parent = svg.parentNode;
	const next = svg.nextSibling;
	parent.removeChild(svg);
	svg.setAttribute('width', box.width);
	svg.setAttribute('height', box.height);
	svg.style.width = box.width + 'px';
	svg.style.height = box.height + 'px';
	parent.insertBefore(svg, next);
	return true;
})()`

// CaptureRegion loads the surface page in a new tab and screenshots the region:
// first the svg element after a forced reflow, then the whole region element.
func (b *BrowserCapturer) CaptureRegion(ctx context.Context, surface interfaces.ChartSurface, handle models.ChartHandle) (*models.ChartImage, error) {
	b.mu.Lock()
	browserCtx := b.browserCtx
	b.mu.Unlock()
	if browserCtx == nil {
		return nil, fmt.Errorf("browser not started")
	}

	html, err := surface.HTML()
	if err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, b.config.Timeout)
	defer timeoutCancel()

	stop := context.AfterFunc(ctx, timeoutCancel)
	defer stop()

	regionSelector := "#" + handle.ID
	svgSelector := regionSelector + " svg"

	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		emulation.SetDefaultBackgroundColorOverride().WithColor(&cdp.RGBA{R: 255, G: 255, B: 255, A: 1}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady(regionSelector, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart page: %w", err)
	}

	quoted, _ := json.Marshal(svgSelector)
	var reflowed bool
	var buf []byte

	if err := chromedp.Run(tabCtx, chromedp.Evaluate(fmt.Sprintf(reflowScript, quoted), &reflowed)); err == nil && reflowed {
		if err := chromedp.Run(tabCtx, chromedp.ScreenshotScale(svgSelector, b.config.Scale, &buf, chromedp.ByQuery)); err != nil {
			b.logger.Debug().Str("region", handle.ID).Err(err).Msg("SVG screenshot failed, falling back to region")
			buf = nil
		}
	}

	if len(buf) == 0 {
		if err := chromedp.Run(tabCtx, chromedp.ScreenshotScale(regionSelector, b.config.Scale, &buf, chromedp.ByQuery)); err != nil {
			return nil, fmt.Errorf("failed to screenshot %s: %w", handle.ID, err)
		}
	}

	return newChartImage(handle, buf)
}

// New builds the capturer selected by config. Browser mode falls back to the
// native renderer per region, and entirely when the browser cannot start.
// The returned close func releases the browser, if any.
func New(config common.CaptureConfig, logger arbor.ILogger) (interfaces.ChartCapturer, func()) {
	native := NewNativeCapturer(config.Scale)
	if config.Mode != "browser" {
		return native, func() {}
	}

	browser := NewBrowserCapturer(BrowserConfig{
		Headless:  config.Headless,
		NoSandbox: config.NoSandbox,
		ExecPath:  config.ChromePath,
		Scale:     config.Scale,
		Timeout:   config.TimeoutDuration(),
	}, logger)

	if err := browser.Start(); err != nil {
		logger.Warn().Err(err).Msg("Headless browser unavailable, using native chart capture")
		return native, func() {}
	}

	return Chain{browser, native}, browser.Close
}
