// Package catalog turns the active providers of a tool session into the flat
// tool list handed to the model, and routes tool invocations back to the
// owning provider.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"navi/capability"
	"navi/config"
)

// ErrUnknownTool is returned by Catalog.Execute for a tool name that is not
// in the catalog. The orchestrator converts it into an error result for the
// model rather than failing the run.
var ErrUnknownTool = errors.New("tool not found")

// Catalog is an immutable snapshot of the callable tools for one model turn,
// with a precomputed tool-name to owning-provider index. Rebuilt whenever
// the working set changes.
type Catalog struct {
	tools      []mcptypes.Tool
	owners     map[string]string
	providers  map[string]capability.Provider
	validators map[string]*jsonschema.Schema

	// Providers are initialized lazily on first invocation, once per catalog.
	initMu      sync.Mutex
	initialized map[string]bool
}

// Tools returns the tool definitions for the model, in build order.
func (c *Catalog) Tools() []mcptypes.Tool {
	return c.tools
}

// Owner returns the provider ID that owns a tool name.
func (c *Catalog) Owner(name string) (string, bool) {
	id, ok := c.owners[name]
	return id, ok
}

// Execute validates the input against the tool's schema, lazily initializes
// the owning provider and runs the capability. An unknown name returns
// ErrUnknownTool.
func (c *Catalog) Execute(ctx context.Context, name string, input map[string]any) (*capability.Result, error) {
	providerID, ok := c.owners[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if validator := c.validators[name]; validator != nil {
		if input == nil {
			input = map[string]any{}
		}
		if err := validator.Validate(input); err != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
	}

	prov := c.providers[providerID]

	if err := c.ensureInitialized(ctx, providerID, prov); err != nil {
		return nil, fmt.Errorf("provider %s failed to initialize: %w", providerID, err)
	}

	return prov.Execute(ctx, name, input)
}

func (c *Catalog) ensureInitialized(ctx context.Context, providerID string, prov capability.Provider) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized[providerID] {
		return nil
	}
	if err := prov.Initialize(ctx); err != nil {
		return err
	}
	c.initialized[providerID] = true
	return nil
}

// Builder assembles catalogs from the registries and the persisted provider
// records.
type Builder struct {
	clients *capability.Registry
	agents  *capability.AgentRegistry
	records capability.RecordSource
}

// NewBuilder creates a catalog builder.
func NewBuilder(clients *capability.Registry, agents *capability.AgentRegistry, records capability.RecordSource) *Builder {
	return &Builder{clients: clients, agents: agents, records: records}
}

// Build assembles the catalog for the given active provider IDs. Clients are
// processed before agents, so on a tool-name collision between a client and
// an agent the client wins; within each group the earlier-registered
// provider wins and later duplicates are logged and skipped. A provider that
// fails during assembly is omitted from the catalog; the build itself never
// fails.
func (b *Builder) Build(ctx context.Context, activeIDs []string) *Catalog {
	cat := &Catalog{
		owners:      make(map[string]string),
		providers:   make(map[string]capability.Provider),
		validators:  make(map[string]*jsonschema.Schema),
		initialized: make(map[string]bool),
	}

	var clientIDs, agentIDs []string
	for _, id := range activeIDs {
		switch {
		case b.clients.Has(id):
			clientIDs = append(clientIDs, id)
		case b.agents.Has(id):
			agentIDs = append(agentIDs, id)
		default:
			if config.Debug {
				config.DebugLog.Printf("[Catalog] Skipping unknown provider %s", id)
			}
		}
	}

	for _, id := range clientIDs {
		if err := b.addClient(cat, id); err != nil {
			if config.Debug {
				config.DebugLog.Printf("[Catalog] Omitting client %s: %v", id, err)
			}
		}
	}
	for _, id := range agentIDs {
		if err := b.addAgent(ctx, cat, id); err != nil {
			if config.Debug {
				config.DebugLog.Printf("[Catalog] Omitting agent %s: %v", id, err)
			}
		}
	}

	return cat
}

func (b *Builder) addClient(cat *Catalog, id string) error {
	inst := b.clients.Instance(id)
	if inst == nil {
		return fmt.Errorf("no instance")
	}

	rec, err := b.records.Load(id)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}
	inst.SetCredentials(rec.Credentials)
	inst.SetConfig(rec.Config)

	return b.addCapabilities(cat, id, inst)
}

func (b *Builder) addAgent(ctx context.Context, cat *Catalog, id string) error {
	inst := b.agents.Instance(id)
	if inst == nil {
		return fmt.Errorf("no instance")
	}

	rec, err := b.records.Load(id)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}
	if !capability.IsConfigured(inst.CredentialFields(), rec.Credentials) ||
		!capability.IsConfigured(inst.ConfigFields(), rec.Config) {
		return fmt.Errorf("not configured")
	}
	if !b.agents.CanResolveDependencies(id) {
		return fmt.Errorf("unresolvable dependencies")
	}
	inst.SetCredentials(rec.Credentials)
	inst.SetConfig(rec.Config)

	agent, ok := inst.(capability.Agent)
	if ok {
		// Every dependency is resolved before capability discovery, whether or
		// not the dependency is itself in the working set.
		for _, depID := range agent.Dependencies() {
			dep := b.clients.Instance(depID)
			if dep == nil {
				return fmt.Errorf("dependency %s unavailable", depID)
			}
			depRec, err := b.records.Load(depID)
			if err != nil {
				return fmt.Errorf("failed to load record for dependency %s: %w", depID, err)
			}
			dep.SetCredentials(depRec.Credentials)
			dep.SetConfig(depRec.Config)
			if err := dep.Initialize(ctx); err != nil {
				return fmt.Errorf("dependency %s failed to initialize: %w", depID, err)
			}
			agent.SetDependency(depID, dep)

			cat.initMu.Lock()
			cat.initialized[depID] = true
			cat.initMu.Unlock()
		}
	}

	return b.addCapabilities(cat, id, inst)
}

func (b *Builder) addCapabilities(cat *Catalog, id string, inst capability.Provider) error {
	caps := inst.Capabilities()
	if len(caps) == 0 {
		return fmt.Errorf("no capabilities")
	}

	added := 0
	for _, c := range caps {
		if owner, taken := cat.owners[c.Name]; taken {
			if config.Debug {
				config.DebugLog.Printf("[Catalog] Tool %s from %s shadowed by %s", c.Name, id, owner)
			}
			continue
		}

		tool := capabilityToTool(c)
		validator, err := compileValidator(tool)
		if err != nil {
			if config.Debug {
				config.DebugLog.Printf("[Catalog] Skipping schema validation for %s: %v", c.Name, err)
			}
			validator = nil
		}

		cat.tools = append(cat.tools, tool)
		cat.owners[c.Name] = id
		cat.validators[c.Name] = validator
		added++
	}

	if added > 0 {
		cat.providers[id] = inst
	}
	return nil
}
