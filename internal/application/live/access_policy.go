// internal/application/live/access_policy.go
package live

import "strings"

// Access classifies a path for auth gating.
type Access string

const (
	AccessPublic    Access = "public"
	AccessProtected Access = "protected"
)

// AccessPolicy is the table deciding which paths may be read before a user is resolved.
// Anything not listed is protected.
type AccessPolicy struct {
	table map[string]Access
}

func NewAccessPolicy(table map[string]Access) *AccessPolicy {
	p := &AccessPolicy{table: make(map[string]Access, len(table))}
	for k, v := range table {
		k = normalizePath(k)
		if k == "" {
			continue
		}
		p.table[k] = v
	}
	return p
}

// DefaultAccessPolicy only opens the catalog listing to anonymous readers.
func DefaultAccessPolicy() *AccessPolicy {
	return NewAccessPolicy(map[string]Access{
		"images": AccessPublic,
	})
}

// IsPublic resolves path against the table: the exact path first, then, for a
// document path, the collection it lives in.
func (p *AccessPolicy) IsPublic(path string) bool {
	if p == nil {
		return false
	}
	path = normalizePath(path)
	if path == "" {
		return false
	}
	if a, ok := p.table[path]; ok {
		return a == AccessPublic
	}

	segs := strings.Split(path, "/")
	if len(segs)%2 == 0 {
		col := strings.Join(segs[:len(segs)-1], "/")
		if a, ok := p.table[col]; ok {
			return a == AccessPublic
		}
	}
	return false
}

// Table returns a copy of the configured entries.
func (p *AccessPolicy) Table() map[string]Access {
	out := make(map[string]Access, len(p.table))
	for k, v := range p.table {
		out[k] = v
	}
	return out
}

func normalizePath(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}
