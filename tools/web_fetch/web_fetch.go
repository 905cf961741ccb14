package web_fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/campusbot/tools/web_fetch/chromedp"
	httpfetch "github.com/mohammad-safakhou/campusbot/tools/web_fetch/http"
	"github.com/mohammad-safakhou/campusbot/tools/web_fetch/models"
)

const (
	DefaultTimeout      = 8 * time.Second
	MinTimeout          = time.Second
	MaxTimeout          = 60 * time.Second
	DefaultMaxBodyBytes = 5 << 20
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// WebFetcher performs one bounded GET. Failures come back inside the Result.
type WebFetcher interface {
	Exec(ctx context.Context, url string) models.Result
}

type FetcherType string

const (
	HTTPFetcherType     FetcherType = "http"
	ChromedpFetcherType FetcherType = "chromedp"
)

// Options tunes a fetcher. Zero values fall back to the defaults above.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

func (o Options) normalize() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Timeout < MinTimeout {
		o.Timeout = MinTimeout
	}
	if o.Timeout > MaxTimeout {
		o.Timeout = MaxTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return o
}

func NewWebFetcher(fetcherType FetcherType, opts Options) (WebFetcher, error) {
	opts = opts.normalize()
	switch fetcherType {
	case HTTPFetcherType, "":
		return httpfetch.New(opts.Timeout, opts.UserAgent, opts.MaxBodyBytes), nil
	case ChromedpFetcherType:
		return &chromedp.Fetch{Timeout: opts.Timeout, UserAgent: opts.UserAgent, MaxChars: int(opts.MaxBodyBytes)}, nil
	default:
		return nil, fmt.Errorf("unsupported fetcher type %q", fetcherType)
	}
}
