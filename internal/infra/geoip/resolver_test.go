package geoip

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewResolverWithoutPath(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil || r != nil {
		t.Fatalf("NewResolver(blank) = %v, %v; want nil, nil", r, err)
	}
	if _, err := r.CountryCode("203.0.113.1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("nil resolver err = %v, want ErrUnavailable", err)
	}
	if r.Lookup() != nil {
		t.Fatalf("nil resolver should have no lookup")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() on nil resolver: %v", err)
	}
}

func TestNewResolverMissingFile(t *testing.T) {
	if _, err := NewResolver(filepath.Join(t.TempDir(), "GeoLite2-Country.mmdb")); err == nil {
		t.Fatalf("expected error for missing database")
	}
}
