// Package sites holds per-store tuning: which query parameter selects the
// served image size and whether the slug relevance filter applies.
package sites

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes one store.
type Profile struct {
	Domain      string `yaml:"domain"`
	ResizeParam string `yaml:"resize_param"`
	ResizeValue string `yaml:"resize_value"`
	SlugFilter  bool   `yaml:"slug_filter"`
}

// Matches reports whether host is the profile domain or one of its
// subdomains. Host comparison ignores case and any port.
func (p Profile) Matches(host string) bool {
	host = strings.ToLower(host)
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	domain := strings.ToLower(strings.TrimPrefix(p.Domain, "."))
	if domain == "" {
		return false
	}
	return strings.HasSuffix(host, domain)
}

// Set is an ordered list of profiles; the first match wins.
type Set []Profile

// Lookup returns the first profile matching host.
func (s Set) Lookup(host string) (Profile, bool) {
	for _, p := range s {
		if p.Matches(host) {
			return p, true
		}
	}
	return Profile{}, false
}

// Default is the built-in profile set.
func Default() Set {
	return Set{
		{
			Domain:      "kalyancity.in.ua",
			ResizeParam: "width",
			ResizeValue: "1000",
			SlugFilter:  true,
		},
	}
}

type file struct {
	Sites []Profile `yaml:"sites"`
}

var errNoDomain = errors.New("site profile without domain")

// Parse decodes a YAML document of the form:
//
//	sites:
//	  - domain: kalyancity.in.ua
//	    resize_param: width
//	    resize_value: "1000"
//	    slug_filter: true
func Parse(data []byte) (Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode site profiles: %w", err)
	}
	for i, p := range f.Sites {
		if strings.TrimSpace(p.Domain) == "" {
			return nil, fmt.Errorf("site profile %d: %w", i, errNoDomain)
		}
		if p.ResizeParam != "" && p.ResizeValue == "" {
			return nil, fmt.Errorf("site profile %q: resize_value required with resize_param", p.Domain)
		}
	}
	return Set(f.Sites), nil
}

// Load reads profiles from path. An empty path yields Default().
func Load(path string) (Set, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site profiles: %w", err)
	}
	return Parse(data)
}
