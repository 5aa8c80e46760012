package capability

import (
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"navi/storage"
)

// Factory constructs a provider instance. Construction may be expensive
// (open persistent resources), so the registry calls it at most once per ID.
type Factory func() Provider

// Registry maps provider IDs to lazily constructed instances and static
// metadata. Two registries exist side by side (clients, agents) with the
// same contract and disjoint namespaces. Registries are plain objects,
// injected where needed, never package-level singletons.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	metadata  map[string]Metadata
	instances map[string]Provider
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		metadata:  make(map[string]Metadata),
		instances: make(map[string]Provider),
	}
}

// Register adds a provider. Registering an existing ID replaces its factory
// and metadata but keeps its registration position.
func (r *Registry) Register(id string, factory Factory, meta Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; !exists {
		r.order = append(r.order, id)
	}
	r.factories[id] = factory
	r.metadata[id] = meta
	delete(r.instances, id)
}

// Has reports whether an ID is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// Instance returns the provider instance for an ID, constructing and caching
// it on first use. Repeated lookups return the same instance so in-memory
// state (cached auth, open connections) persists across a session. Returns
// nil for an unregistered ID; callers must treat that as "capability
// unavailable", never panic.
func (r *Registry) Instance(id string) Provider {
	r.mu.RLock()
	if inst, ok := r.instances[id]; ok {
		r.mu.RUnlock()
		return inst
	}
	factory, ok := r.factories[id]
	r.mu.RUnlock()

	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check: another goroutine may have constructed it meanwhile.
	if inst, ok := r.instances[id]; ok {
		return inst
	}
	inst := factory()
	r.instances[id] = inst
	return inst
}

// Metadata returns the static metadata for an ID.
func (r *Registry) Metadata(id string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.metadata[id]
	return meta, ok
}

// AllIDs returns registered IDs in registration order.
func (r *Registry) AllIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// AllMetadata returns metadata for all providers in registration order.
func (r *Registry) AllMetadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Metadata, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.metadata[id])
	}
	return all
}

// Search fuzzy-matches a query against provider name, description and tags.
func (r *Registry) Search(query string) []Metadata {
	if query == "" {
		return nil
	}

	all := r.AllMetadata()
	targets := make([]string, len(all))
	for i, meta := range all {
		targets[i] = meta.Name + " " + meta.Description + " " + strings.Join(meta.Tags, " ")
	}

	matches := fuzzy.Find(query, targets)
	results := make([]Metadata, 0, len(matches))
	for _, m := range matches {
		results = append(results, all[m.Index])
	}
	return results
}

// RecordSource provides persisted provider records. Implemented by
// storage.RecordStore; an interface here so registries and the catalog
// builder can be tested without a database.
type RecordSource interface {
	Load(id string) (*storage.ProviderRecord, error)
}

// AgentRegistry is a Registry for agents, with dependency resolution checks
// against a client registry and the persisted record store.
type AgentRegistry struct {
	*Registry
	clients *Registry
	records RecordSource
}

// NewAgentRegistry creates an agent registry bound to the client registry
// whose providers satisfy agent dependencies.
func NewAgentRegistry(clients *Registry, records RecordSource) *AgentRegistry {
	return &AgentRegistry{
		Registry: NewRegistry(),
		clients:  clients,
		records:  records,
	}
}

// CanResolveDependencies reports whether every client dependency the agent
// declares is registered and, where it requires credentials or config,
// configured in the persisted record store.
func (r *AgentRegistry) CanResolveDependencies(id string) bool {
	inst := r.Instance(id)
	if inst == nil {
		return false
	}
	agent, ok := inst.(Agent)
	if !ok {
		// A dependency-free provider registered as an agent resolves trivially.
		return true
	}

	for _, depID := range agent.Dependencies() {
		if !r.clients.Has(depID) {
			return false
		}
		dep := r.clients.Instance(depID)
		if dep == nil {
			return false
		}

		rec, err := r.records.Load(depID)
		if err != nil {
			return false
		}
		if !IsConfigured(dep.CredentialFields(), rec.Credentials) {
			return false
		}
		if !IsConfigured(dep.ConfigFields(), rec.Config) {
			return false
		}
	}

	return true
}
