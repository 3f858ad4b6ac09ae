package normalize

import (
	"net/url"
	"strings"

	"imagegrab/internal/sites"
)

// Slugs derives the tokens an image URL of a product page is expected to
// contain. The set is best-effort: a store that names files differently from
// its page paths will have images filtered out.
func Slugs(pageURL string) []string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	var segments []string
	for _, s := range strings.Split(u.EscapedPath(), "/") {
		if s != "" {
			segments = append(segments, strings.ToLower(s))
		}
	}

	var product, brand string
	if n := len(segments); n > 0 {
		product = segments[n-1]
		if n > 1 {
			brand = segments[n-2]
		}
	}

	var candidates []string
	if product != "" {
		candidates = append(candidates, product)
		parts := strings.Split(product, "-")
		if len(parts) > 1 {
			candidates = append(candidates, strings.Join(parts[1:], "-"))
		}
		if len(parts) > 2 {
			candidates = append(candidates, strings.Join(parts[1:len(parts)-1], "-"))
		}
	}
	if brand != "" {
		candidates = append(candidates, brand)
		if parts := strings.Split(brand, "-"); len(parts) > 1 {
			candidates = append(candidates, strings.Join(parts[1:], "-"))
		}
	}

	out := make([]string, 0, len(candidates))
	for _, s := range Uniq(candidates) {
		if len(s) > 2 {
			out = append(out, s)
		}
	}
	return out
}

// FilterRelevant keeps URLs mentioning at least one slug of the page. It only
// acts for pages whose site profile enables the slug filter and when the page
// yields at least one slug.
func FilterRelevant(set sites.Set, pageURL string, urls []string) []string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return urls
	}
	p, ok := set.Lookup(u.Hostname())
	if !ok || !p.SlugFilter {
		return urls
	}
	slugs := Slugs(pageURL)
	if len(slugs) == 0 {
		return urls
	}
	out := make([]string, 0, len(urls))
	for _, candidate := range urls {
		lower := strings.ToLower(candidate)
		for _, s := range slugs {
			if strings.Contains(lower, s) {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}
