// Package importance decides which modules are worth decompiling, by
// case-insensitive base-name prefix.
package importance

import "strings"

// ShouldProcess reports whether moduleBaseName starts with at least one of
// prefixes, ignoring case. An empty name never matches; empty prefixes are
// ignored.
func ShouldProcess(moduleBaseName string, prefixes []string) bool {
	return NewFilter(prefixes).ShouldProcess(moduleBaseName)
}

// Filter is a prefix set fixed at construction
type Filter struct {
	prefixes []string // lower-cased, non-empty
}

// NewFilter returns a Filter over prefixes
func NewFilter(prefixes []string) *Filter {
	kept := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p != "" {
			kept = append(kept, strings.ToLower(p))
		}
	}
	return &Filter{prefixes: kept}
}

// ShouldProcess applies the filter's prefix set to moduleBaseName. Only
// the name is lowered here; the prefixes were lowered once in NewFilter.
func (f *Filter) ShouldProcess(moduleBaseName string) bool {
	if moduleBaseName == "" {
		return false
	}
	name := strings.ToLower(moduleBaseName)
	for _, p := range f.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Prefixes returns the effective (lower-cased) prefixes
func (f *Filter) Prefixes() []string {
	return append([]string(nil), f.prefixes...)
}
