package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"navi/capability"
	"navi/storage"
)

// testProvider is a configurable capability.Provider for builder tests.
type testProvider struct {
	caps       []capability.Capability
	credFields []capability.Field

	creds     map[string]string
	initCount int
	initErr   error
	executed  []string
}

func (p *testProvider) Capabilities() []capability.Capability { return p.caps }
func (p *testProvider) CredentialFields() []capability.Field  { return p.credFields }
func (p *testProvider) ConfigFields() []capability.Field      { return nil }
func (p *testProvider) SetCredentials(v map[string]string)    { p.creds = v }
func (p *testProvider) SetConfig(map[string]string)           {}

func (p *testProvider) Initialize(context.Context) error {
	p.initCount++
	return p.initErr
}

func (p *testProvider) Execute(ctx context.Context, name string, input map[string]any) (*capability.Result, error) {
	p.executed = append(p.executed, name)
	return &capability.Result{Data: "ok:" + name}, nil
}

// testAgent layers dependencies on testProvider.
type testAgent struct {
	testProvider
	deps  []string
	wired map[string]capability.Provider
}

func (a *testAgent) Dependencies() []string { return a.deps }
func (a *testAgent) SetDependency(id string, dep capability.Provider) {
	if a.wired == nil {
		a.wired = make(map[string]capability.Provider)
	}
	a.wired[id] = dep
}

type memRecords map[string]*storage.ProviderRecord

func (m memRecords) Load(id string) (*storage.ProviderRecord, error) {
	if rec, ok := m[id]; ok {
		return rec, nil
	}
	return &storage.ProviderRecord{}, nil
}

func simpleCap(name string) capability.Capability {
	return capability.Capability{
		Name:        name,
		Description: "test capability " + name,
		Parameters: []capability.Parameter{
			{Name: "query", Type: "string", Description: "what to look up", Required: true},
		},
	}
}

func toolNames(cat *Catalog) []string {
	names := make([]string, 0, len(cat.Tools()))
	for _, tool := range cat.Tools() {
		names = append(names, tool.Name)
	}
	return names
}

func TestBuildCollisionFirstWins(t *testing.T) {
	clients := capability.NewRegistry()
	first := &testProvider{caps: []capability.Capability{simpleCap("search")}}
	second := &testProvider{caps: []capability.Capability{simpleCap("search"), simpleCap("fetch")}}
	clients.Register("first", func() capability.Provider { return first }, capability.Metadata{ID: "first"})
	clients.Register("second", func() capability.Provider { return second }, capability.Metadata{ID: "second"})

	b := NewBuilder(clients, capability.NewAgentRegistry(clients, memRecords{}), memRecords{})
	cat := b.Build(context.Background(), []string{"first", "second"})

	names := toolNames(cat)
	if len(names) != 2 {
		t.Fatalf("catalog tools = %v, want exactly [search fetch]", names)
	}
	if owner, _ := cat.Owner("search"); owner != "first" {
		t.Errorf("Owner(search) = %s, want first", owner)
	}
	if owner, _ := cat.Owner("fetch"); owner != "second" {
		t.Errorf("Owner(fetch) = %s, want second", owner)
	}

	result, err := cat.Execute(context.Background(), "search", map[string]any{"query": "x"})
	if err != nil {
		t.Fatalf("Execute(search) error: %v", err)
	}
	if result.Data != "ok:search" {
		t.Errorf("Execute(search) routed to wrong provider: %v", result.Data)
	}
	if len(second.executed) != 0 {
		t.Errorf("shadowed provider received calls: %v", second.executed)
	}
}

func TestBuildClientWinsOverAgent(t *testing.T) {
	clients := capability.NewRegistry()
	client := &testProvider{caps: []capability.Capability{simpleCap("search")}}
	clients.Register("client", func() capability.Provider { return client }, capability.Metadata{ID: "client"})

	agents := capability.NewAgentRegistry(clients, memRecords{})
	agent := &testAgent{testProvider: testProvider{caps: []capability.Capability{simpleCap("search")}}}
	agents.Register("agent", func() capability.Provider { return agent }, capability.Metadata{ID: "agent"})

	b := NewBuilder(clients, agents, memRecords{})

	// The agent comes first in the active set; the client still owns the name.
	cat := b.Build(context.Background(), []string{"agent", "client"})

	if owner, ok := cat.Owner("search"); !ok || owner != "client" {
		t.Errorf("Owner(search) = %s (ok=%v), want client", owner, ok)
	}
	if len(cat.Tools()) != 1 {
		t.Errorf("catalog has %d tools, want 1", len(cat.Tools()))
	}
}

func TestBuildOmitsUnconfiguredAgent(t *testing.T) {
	clients := capability.NewRegistry()
	agents := capability.NewAgentRegistry(clients, memRecords{})
	agent := &testAgent{testProvider: testProvider{
		caps:       []capability.Capability{simpleCap("plan")},
		credFields: []capability.Field{{Key: "api_key", Required: true}},
	}}
	agents.Register("agent", func() capability.Provider { return agent }, capability.Metadata{ID: "agent"})

	records := memRecords{}
	b := NewBuilder(clients, agents, records)

	cat := b.Build(context.Background(), []string{"agent"})
	if len(cat.Tools()) != 0 {
		t.Fatalf("unconfigured agent contributed tools: %v", toolNames(cat))
	}

	// Supplying the credential makes the same build succeed.
	records["agent"] = &storage.ProviderRecord{Credentials: map[string]string{"api_key": "k"}}
	cat = b.Build(context.Background(), []string{"agent"})
	if owner, ok := cat.Owner("plan"); !ok || owner != "agent" {
		t.Errorf("Owner(plan) = %s (ok=%v), want agent", owner, ok)
	}
	if agent.creds["api_key"] != "k" {
		t.Error("agent did not receive its credentials")
	}
}

func TestBuildWiresAgentDependencies(t *testing.T) {
	clients := capability.NewRegistry()
	dep := &testProvider{caps: []capability.Capability{simpleCap("search")}}
	clients.Register("dep", func() capability.Provider { return dep }, capability.Metadata{ID: "dep"})

	records := memRecords{
		"dep": {Credentials: map[string]string{"token": "t"}},
	}
	agents := capability.NewAgentRegistry(clients, records)
	agent := &testAgent{
		testProvider: testProvider{caps: []capability.Capability{simpleCap("research")}},
		deps:         []string{"dep"},
	}
	agents.Register("agent", func() capability.Provider { return agent }, capability.Metadata{ID: "agent"})

	b := NewBuilder(clients, agents, records)
	cat := b.Build(context.Background(), []string{"agent", "dep"})

	if agent.wired["dep"] == nil {
		t.Fatal("dependency was not wired into the agent")
	}
	if dep.creds["token"] != "t" {
		t.Error("dependency did not receive its stored credentials")
	}
	if dep.initCount != 1 {
		t.Errorf("dependency initialized %d times during build, want 1", dep.initCount)
	}

	// The dependency was initialized during resolution; invoking its own tool
	// must not initialize it again.
	if _, err := cat.Execute(context.Background(), "search", map[string]any{"query": "x"}); err != nil {
		t.Fatalf("Execute(search) error: %v", err)
	}
	if dep.initCount != 1 {
		t.Errorf("dependency re-initialized on first call: %d total", dep.initCount)
	}
}

func TestBuildDroppingDependencyCredentialsRemovesAgent(t *testing.T) {
	clients := capability.NewRegistry()
	dep := &testProvider{
		caps:       []capability.Capability{simpleCap("search")},
		credFields: []capability.Field{{Key: "token", Required: true}},
	}
	clients.Register("dep", func() capability.Provider { return dep }, capability.Metadata{ID: "dep"})

	records := memRecords{
		"dep": {Credentials: map[string]string{"token": "t"}},
	}
	agents := capability.NewAgentRegistry(clients, records)
	agent := &testAgent{
		testProvider: testProvider{caps: []capability.Capability{simpleCap("research")}},
		deps:         []string{"dep"},
	}
	agents.Register("agent", func() capability.Provider { return agent }, capability.Metadata{ID: "agent"})

	b := NewBuilder(clients, agents, records)
	cat := b.Build(context.Background(), []string{"agent"})
	if _, ok := cat.Owner("research"); !ok {
		t.Fatal("configured agent missing from catalog")
	}

	delete(records, "dep")
	cat = b.Build(context.Background(), []string{"agent"})
	if _, ok := cat.Owner("research"); ok {
		t.Error("agent still in catalog after its dependency lost credentials")
	}
}

func TestBuildOmitsAgentWhenDependencyInitFails(t *testing.T) {
	clients := capability.NewRegistry()
	dep := &testProvider{
		caps:    []capability.Capability{simpleCap("search")},
		initErr: fmt.Errorf("connection refused"),
	}
	clients.Register("dep", func() capability.Provider { return dep }, capability.Metadata{ID: "dep"})

	agents := capability.NewAgentRegistry(clients, memRecords{})
	agent := &testAgent{
		testProvider: testProvider{caps: []capability.Capability{simpleCap("research")}},
		deps:         []string{"dep"},
	}
	agents.Register("agent", func() capability.Provider { return agent }, capability.Metadata{ID: "agent"})

	b := NewBuilder(clients, agents, memRecords{})
	cat := b.Build(context.Background(), []string{"agent"})

	if _, ok := cat.Owner("research"); ok {
		t.Error("agent with failing dependency still in catalog")
	}
}

func TestBuildOmitsProviderWithNoCapabilities(t *testing.T) {
	clients := capability.NewRegistry()
	empty := &testProvider{}
	good := &testProvider{caps: []capability.Capability{simpleCap("search")}}
	clients.Register("empty", func() capability.Provider { return empty }, capability.Metadata{ID: "empty"})
	clients.Register("good", func() capability.Provider { return good }, capability.Metadata{ID: "good"})

	b := NewBuilder(clients, capability.NewAgentRegistry(clients, memRecords{}), memRecords{})
	cat := b.Build(context.Background(), []string{"empty", "good"})

	names := toolNames(cat)
	if len(names) != 1 || names[0] != "search" {
		t.Errorf("catalog tools = %v, want [search]", names)
	}
}

func TestBuildSkipsUnknownProviderID(t *testing.T) {
	clients := capability.NewRegistry()
	good := &testProvider{caps: []capability.Capability{simpleCap("search")}}
	clients.Register("good", func() capability.Provider { return good }, capability.Metadata{ID: "good"})

	b := NewBuilder(clients, capability.NewAgentRegistry(clients, memRecords{}), memRecords{})
	cat := b.Build(context.Background(), []string{"ghost", "good"})

	if len(cat.Tools()) != 1 {
		t.Errorf("catalog has %d tools, want 1", len(cat.Tools()))
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	clients := capability.NewRegistry()
	b := NewBuilder(clients, capability.NewAgentRegistry(clients, memRecords{}), memRecords{})
	cat := b.Build(context.Background(), nil)

	_, err := cat.Execute(context.Background(), "nope", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("Execute(unknown) error = %v, want ErrUnknownTool", err)
	}
}

func TestExecuteValidatesArguments(t *testing.T) {
	clients := capability.NewRegistry()
	prov := &testProvider{caps: []capability.Capability{simpleCap("search")}}
	clients.Register("prov", func() capability.Provider { return prov }, capability.Metadata{ID: "prov"})

	b := NewBuilder(clients, capability.NewAgentRegistry(clients, memRecords{}), memRecords{})
	cat := b.Build(context.Background(), []string{"prov"})

	if _, err := cat.Execute(context.Background(), "search", map[string]any{}); err == nil {
		t.Error("Execute accepted input missing a required argument")
	}
	if _, err := cat.Execute(context.Background(), "search", nil); err == nil {
		t.Error("Execute accepted nil input for a tool with required arguments")
	}
	if len(prov.executed) != 0 {
		t.Errorf("provider ran despite invalid input: %v", prov.executed)
	}

	if _, err := cat.Execute(context.Background(), "search", map[string]any{"query": "go"}); err != nil {
		t.Errorf("Execute with valid input: %v", err)
	}
}

func TestExecuteInitializesOncePerCatalog(t *testing.T) {
	clients := capability.NewRegistry()
	prov := &testProvider{caps: []capability.Capability{simpleCap("search"), simpleCap("fetch")}}
	clients.Register("prov", func() capability.Provider { return prov }, capability.Metadata{ID: "prov"})

	b := NewBuilder(clients, capability.NewAgentRegistry(clients, memRecords{}), memRecords{})
	cat := b.Build(context.Background(), []string{"prov"})

	if prov.initCount != 0 {
		t.Fatalf("provider initialized at build time: %d", prov.initCount)
	}

	ctx := context.Background()
	if _, err := cat.Execute(ctx, "search", map[string]any{"query": "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Execute(ctx, "fetch", map[string]any{"query": "b"}); err != nil {
		t.Fatal(err)
	}
	if prov.initCount != 1 {
		t.Errorf("provider initialized %d times across two calls, want 1", prov.initCount)
	}
}

func TestExecuteInitializeFailure(t *testing.T) {
	clients := capability.NewRegistry()
	prov := &testProvider{
		caps:    []capability.Capability{simpleCap("search")},
		initErr: fmt.Errorf("unreachable"),
	}
	clients.Register("prov", func() capability.Provider { return prov }, capability.Metadata{ID: "prov"})

	b := NewBuilder(clients, capability.NewAgentRegistry(clients, memRecords{}), memRecords{})
	cat := b.Build(context.Background(), []string{"prov"})

	_, err := cat.Execute(context.Background(), "search", map[string]any{"query": "a"})
	if err == nil {
		t.Fatal("Execute succeeded with a failing Initialize")
	}

	// Failed initialization is retried on the next call.
	prov.initErr = nil
	if _, err := cat.Execute(context.Background(), "search", map[string]any{"query": "a"}); err != nil {
		t.Errorf("Execute after recovery: %v", err)
	}
	if prov.initCount != 2 {
		t.Errorf("initCount = %d, want 2 (one failed, one successful)", prov.initCount)
	}
}
