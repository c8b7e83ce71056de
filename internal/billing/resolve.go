package billing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultContainers are the legacy nesting keys searched after the record
// itself.
var DefaultContainers = []string{"details", "meta", "data"}

// Resolver looks fields up by alias across a record and a fixed, ordered list
// of nested containers.
type Resolver struct {
	Containers []string
	// RecordFirst tries every alias on the record itself before any
	// container is consulted.
	RecordFirst bool
}

var (
	defaultResolver = Resolver{Containers: DefaultContainers}
	// flatResolver never descends into containers.
	flatResolver = Resolver{}
)

// Resolve returns the first present, non-null value for aliases in rec or its
// default containers, or fallback when nothing matches.
func Resolve(rec Record, aliases []string, fallback any) any {
	return defaultResolver.Resolve(rec, aliases, fallback)
}

// Number resolves aliases and coerces the result to a decimal. Missing, blank
// and non-numeric values yield def.
func Number(rec Record, aliases []string, def decimal.Decimal) decimal.Decimal {
	return defaultResolver.Number(rec, aliases, def)
}

// Text resolves aliases and renders the result as text.
func Text(rec Record, aliases []string, def string) string {
	return defaultResolver.Text(rec, aliases, def)
}

// Resolve is the package-level Resolve over r's containers.
func (r Resolver) Resolve(rec Record, aliases []string, fallback any) any {
	if v, ok := r.Lookup(rec, aliases); ok {
		return v
	}
	return fallback
}

// Lookup returns the first non-null value for aliases. Empty strings are
// values here.
func (r Resolver) Lookup(rec Record, aliases []string) (any, bool) {
	return r.lookup(rec, aliases, isNull)
}

// Value is Lookup with blank strings treated as missing, so a later alias
// can still supply the field.
func (r Resolver) Value(rec Record, aliases []string) (any, bool) {
	return r.lookup(rec, aliases, absent)
}

func (r Resolver) lookup(rec Record, aliases []string, skip func(any) bool) (any, bool) {
	if len(rec) == 0 || len(aliases) == 0 {
		return nil, false
	}
	scopes := []scope{newScope(rec)}
	for _, name := range r.Containers {
		if v, ok := scopes[0].get(NormalizeKey(name), absent); ok {
			if nested := ParseRecord(v); len(nested) > 0 {
				scopes = append(scopes, newScope(nested))
			}
		}
	}
	if r.RecordFirst {
		if v, ok := findAlias(scopes[:1], aliases, skip); ok {
			return v, true
		}
		return findAlias(scopes[1:], aliases, skip)
	}
	return findAlias(scopes, aliases, skip)
}

// findAlias iterates aliases in priority order; for each alias the scopes
// are consulted in order.
func findAlias(scopes []scope, aliases []string, skip func(any) bool) (any, bool) {
	for _, alias := range aliases {
		key := NormalizeKey(alias)
		if key == "" {
			continue
		}
		for _, s := range scopes {
			if v, ok := s.get(key, skip); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Number coerces the resolved value to a decimal, falling back to def.
func (r Resolver) Number(rec Record, aliases []string, def decimal.Decimal) decimal.Decimal {
	v, ok := r.Value(rec, aliases)
	if !ok {
		return def
	}
	if d, ok := toDecimal(v); ok {
		return d
	}
	return def
}

// Text renders the resolved value as text, falling back to def.
func (r Resolver) Text(rec Record, aliases []string, def string) string {
	v, ok := r.Value(rec, aliases)
	if !ok {
		return def
	}
	if s := textOf(v); s != "" {
		return s
	}
	return def
}

// Flag reports whether the resolved value is truthy.
func (r Resolver) Flag(rec Record, aliases []string) bool {
	v, ok := r.Value(rec, aliases)
	return ok && truthy(v)
}

// scope indexes one record by normalized key. Keys that collide after
// normalization are kept in sorted order so lookups stay deterministic.
type scope struct {
	rec   Record
	index map[string][]string
}

func newScope(rec Record) scope {
	index := make(map[string][]string, len(rec))
	for k := range rec {
		nk := NormalizeKey(k)
		index[nk] = append(index[nk], k)
	}
	for _, keys := range index {
		if len(keys) > 1 {
			sort.Strings(keys)
		}
	}
	return scope{rec: rec, index: index}
}

func (s scope) get(key string, skip func(any) bool) (any, bool) {
	for _, original := range s.index[key] {
		if v := s.rec[original]; !skip(v) {
			return v, true
		}
	}
	return nil, false
}
