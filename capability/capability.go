// Package capability defines the provider contract for browser-assistant
// tools and the registries that hold them.
//
// A provider is either a client (a stateless wrapper around one external
// API) or an agent (a composite capability built on one or more client
// dependencies). Every provider exposes a list of named, parameterized
// capabilities plus its credential/config requirements; the catalog builder
// turns active providers into callable tool definitions for the model.
package capability

import "context"

// Parameter describes one input of a capability.
type Parameter struct {
	Name        string
	Type        string // JSON schema type: "string", "number", "boolean", ...
	Description string
	Required    bool
	Default     any
}

// Capability is one named, independently invocable operation. Names must be
// unique within the active working set; collisions are resolved
// first-registered-wins at catalog build time.
type Capability struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// Field declares one credential or config input a provider needs before it
// can execute. Values live in the persisted provider record, never here.
type Field struct {
	Key         string
	Label       string
	Description string
	Required    bool
	Default     string
}

// Metadata is the static, registry-owned description of a provider.
// Hosts are URL applicability patterns: "*" matches any http(s) page,
// "*.example.com" matches the host and its subdomains, anything else is an
// exact host match. AlwaysOn providers are in every working set.
type Metadata struct {
	ID          string
	Name        string
	Description string
	Version     string
	Icon        string
	Tags        []string
	Hosts       []string
	AlwaysOn    bool
}

// Result is the outcome of executing one capability. ContextNote, when set,
// is persistent context the model must see prominently (e.g. "this tool
// altered page state"). The core inspects nothing else beyond size.
type Result struct {
	Data        any
	ContextNote string
}

// Provider is the contract every registered unit implements.
type Provider interface {
	// Capabilities returns the operations this provider exposes.
	Capabilities() []Capability

	// CredentialFields and ConfigFields declare required/optional inputs;
	// empty means none needed.
	CredentialFields() []Field
	ConfigFields() []Field

	// SetCredentials and SetConfig inject persisted values before use.
	SetCredentials(values map[string]string)
	SetConfig(values map[string]string)

	// Initialize performs any connectivity check. It must be idempotent
	// and re-runnable.
	Initialize(ctx context.Context) error

	// Execute runs one capability by name.
	Execute(ctx context.Context, name string, input map[string]any) (*Result, error)
}

// Agent is a provider composed from client dependencies. Dependencies are
// resolved and wired by the catalog builder before any capability runs.
type Agent interface {
	Provider

	// Dependencies returns the client provider IDs this agent requires.
	Dependencies() []string

	// SetDependency wires a resolved client instance.
	SetDependency(id string, dep Provider)
}

// IsConfigured reports whether a provider's declared fields are satisfied by
// persisted values. Configured is computed, not stored: a provider with no
// required fields is always configured, regardless of storage contents.
func IsConfigured(fields []Field, values map[string]string) bool {
	for _, f := range fields {
		if f.Required && values[f.Key] == "" {
			return false
		}
	}
	return true
}
