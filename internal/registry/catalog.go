package registry

import (
	"sort"
	"sync"
)

// Enablement is the administrative allow-list for declared tools. It is either
// unrestricted (every declared tool is enabled) or restricted to a closed set of
// names. A restricted enablement with no names enables nothing.
type Enablement struct {
	restricted bool
	names      map[string]struct{}
}

// Unrestricted returns an Enablement that allows every tool.
func Unrestricted() Enablement {
	return Enablement{}
}

// Restricted returns an Enablement limited to the given names. Duplicate and
// unknown names are accepted as-is.
func Restricted(names ...string) Enablement {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return Enablement{restricted: true, names: set}
}

// IsRestricted reports whether the enablement is a closed allow-list.
func (e Enablement) IsRestricted() bool {
	return e.restricted
}

// Allows reports whether name is administratively enabled.
func (e Enablement) Allows(name string) bool {
	if !e.restricted {
		return true
	}
	_, ok := e.names[name]
	return ok
}

// Len returns the number of allowed names, or -1 when unrestricted.
func (e Enablement) Len() int {
	if !e.restricted {
		return -1
	}
	return len(e.names)
}

// Names returns the sorted allow-list. It is nil when unrestricted.
func (e Enablement) Names() []string {
	if !e.restricted {
		return nil
	}
	out := make([]string, 0, len(e.names))
	for n := range e.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// String renders the enablement for logs.
func (e Enablement) String() string {
	if !e.restricted {
		return "all"
	}
	return "restricted"
}

// Catalog holds the process enablement. It is written once during startup,
// before any declaration or filter pass, and read many times afterwards.
type Catalog struct {
	mu      sync.RWMutex
	enabled Enablement
}

// NewCatalog constructs a Catalog with the provided initial enablement.
func NewCatalog(e Enablement) *Catalog {
	return &Catalog{enabled: e}
}

// SetEnabled replaces the allow-list wholesale. Names are not checked against
// the live server because tools may not be declared yet.
func (c *Catalog) SetEnabled(e Enablement) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = e
}

// Enabled returns the current enablement.
func (c *Catalog) Enabled() Enablement {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// IsEnabled reports whether a tool is administratively enabled.
func (c *Catalog) IsEnabled(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled.Allows(name)
}
