// Package registry implements the Location Protocol type registry: the
// catalog mapping location_type discriminators to structural shape rules.
//
// The registry is the one piece of long-lived state in the core. Lookups
// are lock-free reads of an immutable snapshot; registration swaps in a new
// snapshot under a single-writer lock (copy-on-write), so readers never
// observe a partially-updated catalog.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"sync/atomic"
)

// ValueKind is the expected primitive kind of a location value.
type ValueKind int

const (
	KindText ValueKind = iota + 1
	KindNumberArray
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumberArray:
		return "number-array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// ShapeDescriptor declares the structural contract for one location type.
//
// Validate must be a pure function: it reports whether a decoded location
// value satisfies the shape, returning a descriptive error on mismatch.
// It never coerces; a value of the wrong shape is always a failure.
type ShapeDescriptor struct {
	// Name is the versioned registry name, <namespace>.<type>.v<major>.
	Name string
	// Kind is the expected top-level primitive kind of the value.
	Kind ValueKind
	// Validate checks a decoded location value against the shape.
	Validate func(value any) error
}

// ErrUnknownType reports a discriminator with no registry entry. It is
// distinct from a shape mismatch (type known, data malformed) so callers
// can suggest alternatives from registered names.
var ErrUnknownType = errors.New("registry: unknown location type")

// versioned names follow <namespace>.<type>.v<major>; the type segment may
// carry a +variant suffix (e.g. coordinate-decimal+lon-lat).
var nameRe = regexp.MustCompile(`^[a-z0-9-]+\.[a-z0-9+-]+\.v[1-9][0-9]*$`)

// snapshot is an immutable registry state. entries is keyed by versioned
// name; aliases maps legacy unversioned names onto versioned entries.
type snapshot struct {
	entries map[string]ShapeDescriptor
	aliases map[string]string
}

// Registry maps location_type discriminators to shape descriptors.
// The zero value is not usable; construct with New or use Default.
type Registry struct {
	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[snapshot]
}

// New returns an empty registry.
func New() *Registry {
	r := &Registry{}
	r.snap.Store(&snapshot{
		entries: map[string]ShapeDescriptor{},
		aliases: map[string]string{},
	})
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := New()
	registerBuiltins(r)
	return r
})

// Default returns the process-wide registry populated from the builtin
// type table. Safe for concurrent use.
func Default() *Registry {
	return defaultRegistry()
}

// Register adds a shape descriptor under its versioned name, plus any
// legacy unversioned aliases (backward compatibility within one version
// window). Registering an existing name or alias is an error.
func (r *Registry) Register(desc ShapeDescriptor, aliases ...string) error {
	if desc.Name == "" {
		return errors.New("registry: descriptor name is required")
	}
	if !nameRe.MatchString(desc.Name) {
		return fmt.Errorf("registry: name %q does not match <namespace>.<type>.v<major>", desc.Name)
	}
	if desc.Validate == nil {
		return fmt.Errorf("registry: descriptor %q missing Validate", desc.Name)
	}
	if desc.Kind == 0 {
		return fmt.Errorf("registry: descriptor %q missing Kind", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.snap.Load()
	if _, exists := old.entries[desc.Name]; exists {
		return fmt.Errorf("registry: %q already registered", desc.Name)
	}
	for _, a := range aliases {
		if a == "" {
			return errors.New("registry: empty alias")
		}
		if _, exists := old.aliases[a]; exists {
			return fmt.Errorf("registry: alias %q already registered", a)
		}
		if _, exists := old.entries[a]; exists {
			return fmt.Errorf("registry: alias %q collides with a registered name", a)
		}
	}

	next := &snapshot{
		entries: make(map[string]ShapeDescriptor, len(old.entries)+1),
		aliases: make(map[string]string, len(old.aliases)+len(aliases)),
	}
	for k, v := range old.entries {
		next.entries[k] = v
	}
	for k, v := range old.aliases {
		next.aliases[k] = v
	}
	next.entries[desc.Name] = desc
	for _, a := range aliases {
		next.aliases[a] = desc.Name
	}
	r.snap.Store(next)
	return nil
}

// Resolve looks up a location_type discriminator, following legacy aliases
// to their versioned entry. It returns ErrUnknownType when no entry exists.
func (r *Registry) Resolve(locationType string) (ShapeDescriptor, error) {
	snap := r.snap.Load()
	if d, ok := snap.entries[locationType]; ok {
		return d, nil
	}
	if target, ok := snap.aliases[locationType]; ok {
		if d, ok := snap.entries[target]; ok {
			return d, nil
		}
	}
	return ShapeDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownType, locationType)
}

// Names returns all registered discriminators (versioned names and
// aliases), sorted, for "did you mean" reporting.
func (r *Registry) Names() []string {
	snap := r.snap.Load()
	out := make([]string, 0, len(snap.entries)+len(snap.aliases))
	for k := range snap.entries {
		out = append(out, k)
	}
	for k := range snap.aliases {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
