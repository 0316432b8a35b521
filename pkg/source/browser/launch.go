package browser

import (
	"context"
	"fmt"
	"time"

	"emojiharvest/pkg/config"
	"emojiharvest/pkg/logger"

	"github.com/chromedp/chromedp"
)

// Launch opens a tab. With RemoteURL set it attaches to a running Chrome
// (so an existing logged-in session is reused), otherwise it starts one.
// When URL is set the tab navigates there and waits for the list.
// The returned cancel func closes the tab and, if launched, the browser.
func Launch(ctx context.Context, cfg config.BrowserConfig, log logger.Logger) (*ChromePage, context.CancelFunc, error) {
	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)

	if cfg.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
		log.InfoWithFields("Attaching to running Chrome", map[string]interface{}{"remote": cfg.RemoteURL})
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", cfg.Headless),
		)
		if cfg.UserDataDir != "" {
			opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
		}
		if cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, opts...)
		log.InfoWithFields("Launching Chrome", map[string]interface{}{"headless": cfg.Headless})
	}

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelTab()
		cancelAlloc()
	}

	// starts the browser and attaches to the first tab
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if cfg.URL != "" {
		wait := cfg.WaitTimeout
		if wait <= 0 {
			wait = 30 * time.Second
		}
		list := SelectorsFromConfig(cfg.Selectors).List

		navCtx, cancelNav := context.WithTimeout(tabCtx, wait)
		defer cancelNav()
		if err := chromedp.Run(navCtx,
			chromedp.Navigate(cfg.URL),
			chromedp.WaitReady(list, chromedp.ByQuery),
		); err != nil {
			cancel()
			return nil, nil, fmt.Errorf("picker list %s not ready at %s: %w", list, cfg.URL, err)
		}
	}

	return NewChromePage(tabCtx), cancel, nil
}
