// Package templates loads template definitions and resolves them by
// identity and version.
package templates

import (
	"cmp"
	"slices"

	"github.com/alfredjeanlab/scout/internal/model"
)

// Registry is an immutable set of templates plus the configured default
// identity. It is safe for concurrent use.
type Registry struct {
	all             []*model.Template
	byIdentity      map[string][]*model.Template // versions, highest first
	defaultIdentity string
}

// New builds a registry over templates. When two templates share an
// identity and version, the first one wins.
func New(templates []*model.Template, defaultIdentity string) *Registry {
	r := &Registry{
		byIdentity:      make(map[string][]*model.Template),
		defaultIdentity: defaultIdentity,
	}
	seen := make(map[model.Summary]bool)
	for _, t := range templates {
		key := model.Summary{Identity: t.Identity, Version: t.Version}
		if seen[key] {
			continue
		}
		seen[key] = true
		r.all = append(r.all, t)
		r.byIdentity[t.Identity] = append(r.byIdentity[t.Identity], t)
	}
	for _, versions := range r.byIdentity {
		slices.SortStableFunc(versions, func(a, b *model.Template) int {
			return cmp.Compare(b.Version, a.Version)
		})
	}
	slices.SortStableFunc(r.all, func(a, b *model.Template) int {
		if c := cmp.Compare(a.Identity, b.Identity); c != 0 {
			return c
		}
		return cmp.Compare(a.Version, b.Version)
	})
	return r
}

// Resolve returns the highest version of identity.
func (r *Registry) Resolve(identity string) (*model.Template, bool) {
	versions := r.byIdentity[identity]
	if len(versions) == 0 {
		return nil, false
	}
	return versions[0], true
}

// ResolveVersion returns the template with exactly identity and version.
func (r *Registry) ResolveVersion(identity string, version int) (*model.Template, bool) {
	for _, t := range r.byIdentity[identity] {
		if t.Version == version {
			return t, true
		}
	}
	return nil, false
}

// ResolveDefault returns the highest version of the default identity.
func (r *Registry) ResolveDefault() (*model.Template, bool) {
	if r.defaultIdentity == "" {
		return nil, false
	}
	return r.Resolve(r.defaultIdentity)
}

// DefaultIdentity returns the configured default identity, possibly empty.
func (r *Registry) DefaultIdentity() string {
	return r.defaultIdentity
}

// Summaries lists every template, sorted by identity then version.
func (r *Registry) Summaries() []model.Summary {
	out := make([]model.Summary, 0, len(r.all))
	for _, t := range r.all {
		out = append(out, t.Summary())
	}
	return out
}

// Len returns the number of distinct templates.
func (r *Registry) Len() int {
	return len(r.all)
}
