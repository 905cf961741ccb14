package chromedp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/mohammad-safakhou/campusbot/tools/web_fetch/models"
)

// Fetch renders the page in headless Chrome and returns the resulting DOM as HTML.
// Useful for pages that build their content with JavaScript.
type Fetch struct {
	Timeout   time.Duration
	UserAgent string
	MaxChars  int // Maximum characters of HTML to keep
}

func (f Fetch) Exec(ctx context.Context, url string) models.Result {
	if strings.TrimSpace(url) == "" {
		return models.Failed(url, models.FailureNetwork, 0, "invalid url", 0)
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	html, err := fetchHTML(ctx, url, f.UserAgent)
	renderMS := int(time.Since(t0) / time.Millisecond)
	if err != nil {
		kind := models.FailureNetwork
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = models.FailureTimeout
		}
		return models.Failed(url, kind, 0, err.Error(), renderMS)
	}
	if f.MaxChars > 0 && len(html) > f.MaxChars {
		html = html[:f.MaxChars]
	}

	return models.Result{
		URL:         url,
		FinalURL:    url,
		Body:        html,
		ContentType: "text/html",
		Status:      200,
		RenderMS:    renderMS,
	}
}

func fetchHTML(ctx context.Context, url, userAgent string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
