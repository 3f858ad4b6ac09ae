package extract

import (
	"strings"

	"github.com/andybalholm/cascadia"
)

// Rule names an attribute that may hold an image reference on elements
// matching Selector. Transform, when set, post-processes the raw attribute
// value before URL resolution; an empty result drops the value.
type Rule struct {
	Selector  string
	Attr      string
	Transform func(string) string
}

// DefaultRules covers links to hi-res images and lazy/responsive img sources.
var DefaultRules = []Rule{
	{Selector: "a", Attr: "href"},
	{Selector: "a", Attr: "data-zoom-image"},
	{Selector: "a", Attr: "data-image"},
	{Selector: "a", Attr: "data-src"},
	{Selector: "a", Attr: "data-original"},
	{Selector: "a", Attr: "data-large-image"},
	{Selector: "img", Attr: "src"},
	{Selector: "img", Attr: "data-src"},
	{Selector: "img", Attr: "data-original"},
	{Selector: "img", Attr: "data-lazy"},
	{Selector: "img", Attr: "data-url"},
	{Selector: "img", Attr: "data-srcset", Transform: FirstSrcsetURL},
}

// FirstSrcsetURL returns the URL of the first candidate in a srcset value.
func FirstSrcsetURL(v string) string {
	first, _, _ := strings.Cut(v, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ruleGroup holds the rules sharing one selector, compiled once.
type ruleGroup struct {
	matcher cascadia.Selector
	rules   []Rule
}

// compileRules groups rules by selector, keeping first-seen selector order.
func compileRules(rules []Rule) ([]ruleGroup, error) {
	var groups []ruleGroup
	index := make(map[string]int)
	for _, r := range rules {
		if i, ok := index[r.Selector]; ok {
			groups[i].rules = append(groups[i].rules, r)
			continue
		}
		sel, err := cascadia.Compile(r.Selector)
		if err != nil {
			return nil, err
		}
		index[r.Selector] = len(groups)
		groups = append(groups, ruleGroup{matcher: sel, rules: []Rule{r}})
	}
	return groups, nil
}
