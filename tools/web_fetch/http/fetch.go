package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/campusbot/tools/web_fetch/models"
)

// Fetch is a single-attempt HTTP GET with a hard deadline.
type Fetch struct {
	Client       *http.Client
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

func New(timeout time.Duration, userAgent string, maxBodyBytes int64) *Fetch {
	return &Fetch{
		Client:       &http.Client{Timeout: timeout},
		Timeout:      timeout,
		UserAgent:    userAgent,
		MaxBodyBytes: maxBodyBytes,
	}
}

func (f *Fetch) Exec(ctx context.Context, url string) models.Result {
	t0 := time.Now()
	elapsed := func() int { return int(time.Since(t0) / time.Millisecond) }
	if strings.TrimSpace(url) == "" {
		return models.Failed(url, models.FailureNetwork, 0, "invalid url", 0)
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Failed(url, models.FailureNetwork, 0, fmt.Sprintf("build request: %v", err), elapsed())
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Failed(url, classify(err), 0, err.Error(), elapsed())
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return models.Failed(url, models.FailureHTTPStatus, resp.StatusCode, resp.Status, elapsed())
	}

	limit := f.MaxBodyBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return models.Failed(url, classify(err), resp.StatusCode, fmt.Sprintf("read body: %v", err), elapsed())
	}

	return models.Result{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		Status:      resp.StatusCode,
		RenderMS:    elapsed(),
	}
}

func classify(err error) models.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.FailureTimeout
	}
	return models.FailureNetwork
}
