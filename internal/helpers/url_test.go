package helpers

import (
	"net/url"
	"strings"
	"testing"
)

func TestCanonicalURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "defaults https and cleans path",
			in:   "Example.com/news/../admissions/fees",
			want: "https://example.com/admissions/fees",
		},
		{
			name: "removes default port and tracking params",
			in:   "http://www.example.com:80/programs?id=123&utm_source=rss#section",
			want: "http://www.example.com/programs?id=123",
		},
		{
			name: "sorts query parameters and preserves trailing slash",
			in:   "https://example.com/path/?b=2&a=1&fbclid=xyz",
			want: "https://example.com/path/?a=1&b=2",
		},
		{
			name: "handles schemeless url with double slash",
			in:   "//library.example.com/hours?utm_medium=email",
			want: "https://library.example.com/hours",
		},
		{
			name: "normalises repeated slashes",
			in:   "https://example.com//a//b///c",
			want: "https://example.com/a/b/c",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalURL(tt.in)
			if err != nil {
				t.Fatalf("CanonicalURL() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("CanonicalURL() got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalURLErrors(t *testing.T) {
	t.Parallel()
	if _, err := CanonicalURL(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := CanonicalURL(":///invalid"); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}

func TestIsInternal(t *testing.T) {
	t.Parallel()
	origin := "https://www.example.edu"
	tests := []struct {
		candidate string
		want      bool
	}{
		{"/en/admissions", true},
		{"fees.html", true},
		{"?page=2", true},
		{"https://www.example.edu/en/admissions", true},
		{"https://WWW.Example.EDU:443/en", true},
		{"http://www.example.edu/en", false},
		{"https://library.example.edu/", false},
		{"https://www.example.edu:8443/", false},
		{"//cdn.example.edu/app.js", false},
		{"mailto:info@example.edu", false},
	}
	for _, tt := range tests {
		if got := IsInternal(tt.candidate, origin); got != tt.want {
			t.Errorf("IsInternal(%q) = %v, want %v", tt.candidate, got, tt.want)
		}
	}
}

func TestIsInternalIsPure(t *testing.T) {
	t.Parallel()
	for i := 0; i < 3; i++ {
		if !IsInternal("https://a.test/x", "https://a.test/other/page") {
			t.Fatalf("expected same-origin url to be internal on call %d", i)
		}
	}
}

func TestOrigin(t *testing.T) {
	t.Parallel()
	got, err := Origin("HTTPS://Example.com:443/a/b?c=d")
	if err != nil {
		t.Fatalf("Origin: %v", err)
	}
	if got != "https://example.com" {
		t.Fatalf("unexpected origin %q", got)
	}
	if _, err := Origin("/relative"); err == nil {
		t.Fatalf("expected error for relative url")
	}
}

func TestResolveLink(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://example.com/en/students/")
	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"fees", "https://example.com/en/students/fees", true},
		{"/en/about#team", "https://example.com/en/about", true},
		{"https://other.test/x", "https://other.test/x", true},
		{"#top", "", false},
		{"mailto:a@b.c", "", false},
		{"javascript:void(0)", "", false},
		{"tel:+971", "", false},
		{"  ", "", false},
	}
	for _, tt := range tests {
		got, ok := ResolveLink(base, tt.href)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ResolveLink(%q) = (%q, %v), want (%q, %v)", tt.href, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCanonicalFilename(t *testing.T) {
	t.Parallel()
	a := CanonicalFilename("https://www.example.edu/en/admissions")
	if !strings.HasPrefix(a, "www_example_edu_en_admissions_") || !strings.HasSuffix(a, ".txt") {
		t.Fatalf("unexpected filename %q", a)
	}
	if b := CanonicalFilename("https://www.example.edu/en/admissions"); a != b {
		t.Fatalf("expected deterministic filename, got %q and %q", a, b)
	}
	if got := CanonicalFilename("https://"); !strings.HasPrefix(got, "index_") {
		t.Fatalf("expected index stem, got %q", got)
	}
	if strings.ContainsAny(a, "/:?") {
		t.Fatalf("filename %q is not filesystem safe", a)
	}
}

func TestCanonicalFilenameTruncationStaysDistinct(t *testing.T) {
	t.Parallel()
	prefix := "https://example.edu/" + strings.Repeat("a", 200)
	one := CanonicalFilename(prefix + "/one")
	two := CanonicalFilename(prefix + "/two")
	if one == two {
		t.Fatalf("expected distinct names for distinct long urls, both %q", one)
	}
	stem := strings.TrimSuffix(one, ".txt")
	if len(stem) != MaxFilenameStem+9 {
		t.Fatalf("expected truncated stem plus hash suffix, got %d chars", len(stem))
	}
}
