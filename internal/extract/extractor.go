package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// imageFormat matches the raster formats worth downloading, optionally
// followed by a query string.
var imageFormat = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|avif)(\?.*)?$`)

// DefaultJunkTokens mark site chrome rather than product photos. Matching is
// a plain substring test on the lower-cased URL.
var DefaultJunkTokens = []string{
	"logo",
	"sprite",
	"icon",
	"placeholder",
	"payment",
	"visa",
	"mastercard",
	"facebook",
	"instagram",
	"vk.com",
	"telegram",
}

// Extractor scans HTML with a fixed rule set.
type Extractor struct {
	groups []ruleGroup
	junk   []string
}

// New compiles rules into an Extractor. Nil rules or junk tokens fall back
// to the defaults.
func New(rules []Rule, junk []string) (*Extractor, error) {
	if rules == nil {
		rules = DefaultRules
	}
	if junk == nil {
		junk = DefaultJunkTokens
	}
	groups, err := compileRules(rules)
	if err != nil {
		return nil, fmt.Errorf("compile extraction rules: %w", err)
	}
	lowered := make([]string, 0, len(junk))
	for _, j := range junk {
		lowered = append(lowered, strings.ToLower(j))
	}
	return &Extractor{groups: groups, junk: lowered}, nil
}

// MustNew is New for the package defaults and other static rule sets.
func MustNew(rules []Rule, junk []string) *Extractor {
	e, err := New(rules, junk)
	if err != nil {
		panic(err)
	}
	return e
}

// Candidates returns every resolvable attribute value in document order,
// without duplicates and without any filtering.
func (e *Extractor) Candidates(pageURL, html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	for _, g := range e.groups {
		doc.FindMatcher(g.matcher).Each(func(_ int, s *goquery.Selection) {
			for _, rule := range g.rules {
				v, ok := s.Attr(rule.Attr)
				if !ok || v == "" {
					continue
				}
				if rule.Transform != nil {
					if v = rule.Transform(v); v == "" {
						continue
					}
				}
				abs, ok := Resolve(pageURL, v)
				if !ok {
					continue
				}
				if _, dup := seen[abs]; dup {
					continue
				}
				seen[abs] = struct{}{}
				out = append(out, abs)
			}
		})
	}
	return out
}

// Extract returns the candidates that look like product photos.
func (e *Extractor) Extract(pageURL, html string) []string {
	return e.Filter(e.Candidates(pageURL, html))
}

// Filter keeps URLs with a raster image extension and drops known non-product
// assets. Order is preserved.
func (e *Extractor) Filter(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if e.Keep(u) {
			out = append(out, u)
		}
	}
	return out
}

// Keep reports whether a single URL passes the format and junk filters.
func (e *Extractor) Keep(u string) bool {
	if u == "" {
		return false
	}
	lower := strings.ToLower(u)
	if !imageFormat.MatchString(lower) {
		return false
	}
	for _, token := range e.junk {
		if strings.Contains(lower, token) {
			return false
		}
	}
	return true
}
