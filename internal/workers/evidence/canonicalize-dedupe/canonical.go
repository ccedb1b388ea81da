// internal/workers/evidence/canonicalize-dedupe/canonical.go
package canonicalizededupe

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/url"
	"strings"

	"competitor-intel/internal/models"

	"golang.org/x/text/unicode/norm"
)

const titleKeyPrefix = "title:"

// Canonicalizer maps hits to stable dedup keys.
type Canonicalizer struct {
	exact    map[string]bool
	prefixes []string
}

func NewCanonicalizer(trackingParams []string) *Canonicalizer {
	c := &Canonicalizer{exact: make(map[string]bool)}
	for _, p := range trackingParams {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "*") {
			c.prefixes = append(c.prefixes, strings.TrimSuffix(p, "*"))
			continue
		}
		c.exact[p] = true
	}
	return c
}

var defaultCanonicalizer = NewCanonicalizer(DefaultTrackingParams())

// Canonicalize uses the default tracking parameter set.
func Canonicalize(hit models.EvidenceHit) string {
	return defaultCanonicalizer.Canonicalize(hit)
}

// Canonicalize returns the URL key when the hit has a usable http(s) URL,
// otherwise "title:" plus the normalized title. An empty result means the
// hit has no identity and is dropped. Feeding a key back in as either the
// URL or the title returns the same key.
func (c *Canonicalizer) Canonicalize(hit models.EvidenceHit) string {
	raw := strings.TrimSpace(hit.URL)
	if strings.HasPrefix(raw, titleKeyPrefix) {
		return titleKey(raw)
	}
	if key, _ := c.canonicalURL(raw); key != "" {
		return key
	}
	return titleKey(hit.Title)
}

// canonicalURL returns the canonical form and the bare domain, or two empty
// strings if raw is not an http(s) URL.
func (c *Canonicalizer) canonicalURL(raw string) (string, string) {
	if raw == "" {
		return "", ""
	}
	if !strings.Contains(raw, "://") {
		switch {
		case strings.HasPrefix(raw, "//"):
			raw = "https:" + raw
		case looksLikeHost(raw):
			raw = "https://" + raw
		default:
			return "", ""
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ""
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", ""
	}
	for strings.HasPrefix(host, "www.") {
		host = strings.TrimPrefix(host, "www.")
	}
	if host == "" {
		return "", ""
	}
	domain := host

	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		// bare IPv6 literal
		host = "[" + host + "]"
	}

	var b strings.Builder
	b.WriteString("https://")
	b.WriteString(host)
	b.WriteString(cleanPath(u.EscapedPath()))
	if q := c.stripTracking(u.RawQuery); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	return b.String(), domain
}

// stripTracking drops tracking parameters and keeps the rest verbatim and
// in their original order.
func (c *Canonicalizer) stripTracking(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	kept := make([]string, 0, 4)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if c.isTracking(strings.ToLower(name)) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func (c *Canonicalizer) isTracking(name string) bool {
	if c.exact[name] {
		return true
	}
	for _, p := range c.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// cleanPath collapses repeated slashes and strips one trailing slash.
func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(p))
	prevSlash := false
	for i := 0; i < len(p); i++ {
		ch := p[i]
		if ch == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(ch)
	}
	return strings.TrimSuffix(b.String(), "/")
}

func looksLikeHost(s string) bool {
	first, _, _ := strings.Cut(s, "/")
	if first == "" || strings.ContainsAny(first, " \t\n:@") {
		return false
	}
	return strings.Contains(first, ".")
}

func titleKey(title string) string {
	n := NormalizeText(strings.TrimPrefix(strings.TrimSpace(title), titleKeyPrefix))
	if n == "" {
		return ""
	}
	return titleKeyPrefix + n
}

// NormalizeText applies NFC, lowercases, trims and collapses whitespace.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Fingerprint is the hex SHA-256 of a canonical key.
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Dedupe keeps the first item per non-empty key in a single left-to-right
// pass. Items with an empty key are dropped.
func Dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
