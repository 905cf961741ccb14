package models

import "fmt"

// MaxMessageLen bounds the diagnostic carried by a failed fetch.
const MaxMessageLen = 200

// FailureKind classifies why a fetch did not produce a page.
type FailureKind string

const (
	FailureTimeout    FailureKind = "timeout"
	FailureHTTPStatus FailureKind = "http_status"
	FailureNetwork    FailureKind = "network"
)

// FetchFailure describes a failed fetch. It is a value, never a panic.
type FetchFailure struct {
	Kind    FailureKind `json:"kind"`
	Status  int         `json:"status,omitempty"`
	Message string      `json:"message"`
}

func (f *FetchFailure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result is the outcome of a single fetch: either Body is set or Failure is, never both.
type Result struct {
	URL         string        `json:"url"`
	FinalURL    string        `json:"final_url,omitempty"`
	Body        string        `json:"-"`
	ContentType string        `json:"content_type,omitempty"`
	Status      int           `json:"status"`
	RenderMS    int           `json:"render_ms"`
	Failure     *FetchFailure `json:"failure,omitempty"`
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool { return r.Failure == nil }

// Failed builds a failure result, truncating msg to MaxMessageLen.
func Failed(url string, kind FailureKind, status int, msg string, renderMS int) Result {
	if r := []rune(msg); len(r) > MaxMessageLen {
		msg = string(r[:MaxMessageLen])
	}
	return Result{
		URL:      url,
		Status:   status,
		RenderMS: renderMS,
		Failure:  &FetchFailure{Kind: kind, Status: status, Message: msg},
	}
}
