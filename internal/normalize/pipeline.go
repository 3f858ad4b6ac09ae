package normalize

import (
	"imagegrab/internal/extract"
	"imagegrab/internal/sites"
)

// Pipeline chains extraction, normalization, relevance filtering and
// de-duplication into the final download list for one page.
type Pipeline struct {
	extractor  *extract.Extractor
	normalizer *Normalizer
}

// NewPipeline wires an extractor and normalizer. Nil arguments use defaults.
func NewPipeline(e *extract.Extractor, n *Normalizer) *Pipeline {
	if e == nil {
		e = extract.MustNew(nil, nil)
	}
	if n == nil {
		n = NewNormalizer(nil)
	}
	return &Pipeline{extractor: e, normalizer: n}
}

// ExtractImageURLs returns the ordered list of images to download from the
// page at pageURL with body html.
func (p *Pipeline) ExtractImageURLs(pageURL, html string) []string {
	return p.Apply(pageURL, p.extractor.Candidates(pageURL, html))
}

// Apply runs the post-extraction chain over raw candidates:
// uniq, format/junk filter, rewrite, relevance, uniq, base-name dedup, uniq.
func (p *Pipeline) Apply(pageURL string, candidates []string) []string {
	urls := p.extractor.Filter(Uniq(candidates))
	urls = p.normalizer.RewriteAll(urls)
	urls = FilterRelevant(p.normalizer.Sites(), pageURL, urls)
	urls = Uniq(urls)
	urls = DedupeByBaseName(urls)
	return Uniq(urls)
}

// ExtractImageURLs runs the default pipeline with the given profiles.
func ExtractImageURLs(set sites.Set, pageURL, html string) []string {
	return NewPipeline(nil, NewNormalizer(set)).ExtractImageURLs(pageURL, html)
}
