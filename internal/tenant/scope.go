// Package tenant carries the caller's company visibility through
// context.Context so that storage queries are always filtered
// explicitly rather than through process-global state.
package tenant

import "context"

type scopeKey struct{}

// Scope describes which companies the caller may see.
type Scope struct {
	wildcard bool
	ids      []uint
}

// AllCompanies returns a scope that matches every company. Reserved
// for super admins and background jobs.
func AllCompanies() Scope {
	return Scope{wildcard: true}
}

// Company returns a scope restricted to a single company.
func Company(id uint) Scope {
	return Scope{ids: []uint{id}}
}

// Companies returns a scope restricted to the given set. An empty set
// matches nothing.
func Companies(ids ...uint) Scope {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return Scope{ids: out}
}

// IsWildcard reports whether the scope matches every company.
func (s Scope) IsWildcard() bool {
	return s.wildcard
}

// IDs returns the company IDs the scope matches. Nil for wildcard scopes.
func (s Scope) IDs() []uint {
	if s.wildcard {
		return nil
	}
	out := make([]uint, len(s.ids))
	copy(out, s.ids)
	return out
}

// Allows reports whether the scope permits access to the given company.
func (s Scope) Allows(companyID uint) bool {
	if s.wildcard {
		return true
	}
	for _, id := range s.ids {
		if id == companyID {
			return true
		}
	}
	return false
}

// Single returns the only company ID in the scope, if there is exactly one.
func (s Scope) Single() (uint, bool) {
	if s.wildcard || len(s.ids) != 1 {
		return 0, false
	}
	return s.ids[0], true
}

// IsEmpty reports whether the scope matches nothing at all.
func (s Scope) IsEmpty() bool {
	return !s.wildcard && len(s.ids) == 0
}

// WithScope returns a context carrying the given scope.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext extracts the scope from the context. When no scope was
// attached it returns an empty scope, which matches nothing; callers
// fail closed instead of leaking cross-company rows.
func FromContext(ctx context.Context) Scope {
	if s, ok := ctx.Value(scopeKey{}).(Scope); ok {
		return s
	}
	return Scope{}
}
