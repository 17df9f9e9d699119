package frontier

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"slices"
	"strings"
)

// trackingParams are query parameters that never change the page content.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"gclsrc":       {},
	"dclid":        {},
	"msclkid":      {},
	"icmp":         {},
	"cmp":          {},
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	ErrEmptyURL            = errors.New("empty url")
	ErrMissingSchemeOrHost = errors.New("url is missing scheme or host")
)

// NormalizeURL returns the canonical form of a product URL: lowercase scheme
// and host, no default port, no fragment, dot-segments resolved, no trailing
// slash, tracking parameters removed and the remaining query sorted.
func NormalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", ErrEmptyURL
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("normalize url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("normalize url %q: %w", rawURL, ErrMissingSchemeOrHost)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = normalizeHost(u)
	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = cleanQuery(u.Query())
	u.Path = normalizePath(u.Path)
	u.RawPath = ""

	return u.String(), nil
}

func normalizeHost(u *url.URL) string {
	hostname := strings.ToLower(u.Hostname())
	port := u.Port()
	if port != "" && defaultPorts[u.Scheme] != port {
		return net.JoinHostPort(hostname, port)
	}
	// IPv6 literals keep their brackets without a port too.
	if strings.Contains(hostname, ":") {
		return "[" + hostname + "]"
	}
	return hostname
}

func cleanQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if _, tracking := trackingParams[strings.ToLower(key)]; !tracking {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, val := range values[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return strings.TrimRight(path.Clean(p), "/")
}
