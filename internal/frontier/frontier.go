// Package frontier decides which discovered links the crawler follows and
// canonicalizes product URLs.
package frontier

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Default link policy for the German storefront.
var (
	DefaultAllow = []string{`.*lego\.com/de-de.*`}
	DefaultDeny  = []string{`.*lego\.com(.*)(\.\w{1,3})$`, `.*@lego\.com.*`}
)

var skipPrefixes = []string{"#", "javascript:", "mailto:", "tel:"}

// Frontier is an allow/deny link filter. It is stateless and safe for
// concurrent use; revisit suppression is left to the fetch engine.
type Frontier struct {
	allow []*regexp.Regexp
	deny  []*regexp.Regexp
}

// New compiles the allow and deny patterns. Patterns are unanchored.
func New(allow, deny []string) (*Frontier, error) {
	f := &Frontier{}
	var err error
	if f.allow, err = compile(allow); err != nil {
		return nil, fmt.Errorf("allow patterns: %w", err)
	}
	if f.deny, err = compile(deny); err != nil {
		return nil, fmt.Errorf("deny patterns: %w", err)
	}
	return f, nil
}

func compile(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Allowed reports whether rawURL may be followed. Deny patterns win over
// allow patterns.
func (f *Frontier) Allowed(rawURL string) bool {
	for _, re := range f.deny {
		if re.MatchString(rawURL) {
			return false
		}
	}
	for _, re := range f.allow {
		if re.MatchString(rawURL) {
			return true
		}
	}
	return false
}

// Links resolves hrefs found on the page at base and returns the allowed
// absolute URLs in document order without duplicates or fragments.
func (f *Frontier) Links(base *url.URL, hrefs []string) []string {
	seen := make(map[string]struct{}, len(hrefs))
	links := make([]string, 0, len(hrefs))

	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if href == "" || hasSkipPrefix(href) {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		abs.RawFragment = ""
		link := abs.String()

		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}

		if f.Allowed(link) {
			links = append(links, link)
		}
	}

	return links
}

func hasSkipPrefix(href string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
