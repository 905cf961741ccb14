package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CrawlPolicyConfig configures which discovered links the crawler may follow.
type CrawlPolicyConfig struct {
	DisallowHosts []string `mapstructure:"disallow_hosts" json:"disallow_hosts"`
	DisallowPaths []string `mapstructure:"disallow_paths" json:"disallow_paths"`
}

// Normalize cleans entries and removes duplicates.
func (c CrawlPolicyConfig) Normalize() CrawlPolicyConfig {
	norm := c
	norm.DisallowHosts = sanitizeDomainList(norm.DisallowHosts)
	norm.DisallowPaths = sanitizePathList(norm.DisallowPaths)
	return norm
}

// Validate ensures configured entries are well-formed.
func (c CrawlPolicyConfig) Validate() error {
	for _, p := range c.DisallowPaths {
		if !strings.HasPrefix(strings.TrimSpace(p), "/") {
			return fmt.Errorf("crawl policy path %q must start with /", p)
		}
	}
	return nil
}

// Allows reports whether rawURL passes the policy. Unparseable URLs are rejected.
func (c CrawlPolicyConfig) Allows(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := normalizeHost(u.Hostname())
	for _, h := range c.DisallowHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return false
		}
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	for _, prefix := range c.DisallowPaths {
		if strings.HasPrefix(p, prefix) {
			return false
		}
	}
	return true
}

func sanitizeDomainList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		host := normalizeHost(raw)
		if host == "" {
			continue
		}
		seen[host] = struct{}{}
	}
	return sortedKeys(seen)
}

func sanitizePathList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		seen[p] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		if u, err := url.Parse(value); err == nil && u.Host != "" {
			return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		}
	}
	return strings.TrimPrefix(value, "www.")
}
