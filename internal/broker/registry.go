package broker

import (
	"fmt"
	"log/slog"
	"sync"

	"bankroll/internal/settings"
)

// Factory constructs an AccountData source from the global settings map,
// reading only the keys of the source's own section.
//
// A factory returns (nil, false, nil) when the settings hold no
// configuration for it, and an error when configuration is present but
// invalid. lenient is passed on so the source can skip malformed records
// later instead of failing.
type Factory func(s settings.Map, lenient bool) (acct AccountData, configured bool, err error)

type entry struct {
	name    string
	section settings.Section
	factory Factory
}

// Registry holds the factories of leaf AccountData sources in registration
// order. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	byName  map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// DefaultRegistry is the process-wide registry that connector packages add
// themselves to from init.
var DefaultRegistry = NewRegistry()

// Register adds a leaf source factory under a unique name. section declares
// the settings the source reads and may be nil. Register panics if name is
// empty or already taken, or if factory is nil.
func (r *Registry) Register(name string, section settings.Section, factory Factory) {
	if name == "" {
		panic("broker: Register with empty name")
	}
	if factory == nil {
		panic("broker: Register factory is nil for " + name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[name]; dup {
		panic("broker: Register called twice for " + name)
	}
	r.byName[name] = len(r.entries)
	r.entries = append(r.entries, entry{name: name, section: section, factory: factory})
}

// Names returns the registered source names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Sections returns the distinct settings sections declared by registered
// sources, in registration order.
func (r *Registry) Sections() []settings.Section {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []settings.Section
	for _, e := range r.entries {
		if e.section == nil || seen[e.section.SectionName()] {
			continue
		}
		seen[e.section.SectionName()] = true
		out = append(out, e.section)
	}
	return out
}

// Build constructs every registered source from s and returns them inside an
// Aggregator, in registration order.
//
// Sources reporting themselves as not configured are skipped, as are
// factories that hand back a Composite. The first construction error aborts
// the whole build, whatever the value of lenient.
func (r *Registry) Build(s settings.Map, lenient bool) (*Aggregator, error) {
	r.mu.RLock()
	entries := append([]entry(nil), r.entries...)
	r.mu.RUnlock()

	log := slog.Default().With("component", "registry")

	accounts := make([]AccountData, 0, len(entries))
	for _, e := range entries {
		acct, configured, err := e.factory(s, lenient)
		if err != nil {
			return nil, fmt.Errorf("constructing %s: %w", e.name, err)
		}
		if !configured || acct == nil {
			log.Debug("source not configured", "source", e.name)
			continue
		}
		if _, composite := acct.(Composite); composite {
			log.Debug("skipping composite source", "source", e.name)
			continue
		}
		log.Debug("source configured", "source", e.name)
		accounts = append(accounts, acct)
	}
	return NewAggregator(accounts, lenient), nil
}

// Register adds a factory to DefaultRegistry.
func Register(name string, section settings.Section, factory Factory) {
	DefaultRegistry.Register(name, section, factory)
}

// FromSettings builds an Aggregator from every source in DefaultRegistry.
func FromSettings(s settings.Map, lenient bool) (*Aggregator, error) {
	return DefaultRegistry.Build(s, lenient)
}
