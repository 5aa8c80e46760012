package toolset

import (
	"context"
	"testing"

	"navi/capability"
	"navi/storage"
)

type fakeProvider struct{}

func (fakeProvider) Capabilities() []capability.Capability { return nil }
func (fakeProvider) CredentialFields() []capability.Field  { return nil }
func (fakeProvider) ConfigFields() []capability.Field      { return nil }
func (fakeProvider) SetCredentials(map[string]string)      {}
func (fakeProvider) SetConfig(map[string]string)           {}
func (fakeProvider) Initialize(context.Context) error      { return nil }
func (fakeProvider) Execute(ctx context.Context, name string, input map[string]any) (*capability.Result, error) {
	return &capability.Result{}, nil
}

type emptyRecords struct{}

func (emptyRecords) Load(id string) (*storage.ProviderRecord, error) {
	return &storage.ProviderRecord{}, nil
}

func newTestManager() *Manager {
	clients := capability.NewRegistry()
	clients.Register("fetch", func() capability.Provider { return fakeProvider{} },
		capability.Metadata{ID: "fetch", Hosts: []string{"*"}, AlwaysOn: true})
	clients.Register("github", func() capability.Provider { return fakeProvider{} },
		capability.Metadata{ID: "github", Hosts: []string{"github.com"}})
	clients.Register("jira", func() capability.Provider { return fakeProvider{} },
		capability.Metadata{ID: "jira", Hosts: []string{"*.atlassian.net"}})

	agents := capability.NewAgentRegistry(clients, emptyRecords{})
	agents.Register("research", func() capability.Provider { return fakeProvider{} },
		capability.Metadata{ID: "research", Hosts: []string{"*"}})

	return NewManager(clients, agents)
}

func sourceOf(entries []Entry, id string) (Source, bool) {
	for _, e := range entries {
		if e.ProviderID == id {
			return e.Source, true
		}
	}
	return "", false
}

func TestManagerAlwaysOnPresentInitially(t *testing.T) {
	m := newTestManager()

	src, ok := sourceOf(m.Entries(), "fetch")
	if !ok {
		t.Fatal("always-on provider missing from initial working set")
	}
	if src != SourceAlwaysOn {
		t.Errorf("fetch source = %s, want %s", src, SourceAlwaysOn)
	}
	if _, ok := sourceOf(m.Entries(), "github"); ok {
		t.Error("github present before any context")
	}
}

func TestManagerContextSuggestion(t *testing.T) {
	m := newTestManager()

	m.SetContext("https://github.com/golang/go")
	if src, ok := sourceOf(m.Entries(), "github"); !ok || src != SourceSuggested {
		t.Errorf("github after matching context: present=%v source=%s, want suggested", ok, src)
	}

	// subdomain pattern
	m.SetContext("https://myteam.atlassian.net/browse/NAV-1")
	entries := m.Entries()
	if src, ok := sourceOf(entries, "jira"); !ok || src != SourceSuggested {
		t.Errorf("jira after matching subdomain: present=%v source=%s, want suggested", ok, src)
	}
	if _, ok := sourceOf(entries, "github"); ok {
		t.Error("github still suggested after context moved away")
	}
	if _, ok := sourceOf(entries, "fetch"); !ok {
		t.Error("always-on provider dropped by context change")
	}
}

func TestManagerDismissSuppressesUntilDistinctContext(t *testing.T) {
	m := newTestManager()

	m.SetContext("https://github.com/golang/go")
	m.Dismiss("github")

	if _, ok := sourceOf(m.Entries(), "github"); ok {
		t.Fatal("github present after dismissal")
	}

	// Same URL observed again: suppression holds.
	m.SetContext("https://github.com/golang/go")
	if _, ok := sourceOf(m.Entries(), "github"); ok {
		t.Error("dismissed provider re-suggested for the same context")
	}

	// Distinct URL on the same host: suppression cleared, re-suggested.
	m.SetContext("https://github.com/golang/tools")
	if src, ok := sourceOf(m.Entries(), "github"); !ok || src != SourceSuggested {
		t.Errorf("github after distinct context: present=%v source=%s, want suggested", ok, src)
	}
}

func TestManagerDismissOnlyAffectsSuggested(t *testing.T) {
	m := newTestManager()
	m.SetContext("https://github.com/golang/go")
	m.Pin("github")

	m.Dismiss("github")
	if src, ok := sourceOf(m.Entries(), "github"); !ok || src != SourcePinned {
		t.Errorf("pinned entry after dismiss: present=%v source=%s, want pinned", ok, src)
	}

	m.Dismiss("fetch")
	if _, ok := sourceOf(m.Entries(), "fetch"); !ok {
		t.Error("always-on entry removed by dismiss")
	}
}

func TestManagerPinSurvivesContextChange(t *testing.T) {
	m := newTestManager()

	m.SetContext("https://github.com/golang/go")
	m.Pin("github")
	m.SetContext("https://example.com/")

	if src, ok := sourceOf(m.Entries(), "github"); !ok || src != SourcePinned {
		t.Errorf("pinned entry after context change: present=%v source=%s, want pinned", ok, src)
	}
}

func TestManagerUnpin(t *testing.T) {
	m := newTestManager()

	// Unpin while the context still matches: reverts to suggested.
	m.SetContext("https://github.com/golang/go")
	m.Pin("github")
	m.Unpin("github")
	if src, ok := sourceOf(m.Entries(), "github"); !ok || src != SourceSuggested {
		t.Errorf("unpin on matching context: present=%v source=%s, want suggested", ok, src)
	}

	// Unpin when the context does not match: entry drops out.
	m.Pin("jira")
	m.Unpin("jira")
	if _, ok := sourceOf(m.Entries(), "jira"); ok {
		t.Error("unpinned non-matching entry still present")
	}
}

func TestManagerRemove(t *testing.T) {
	m := newTestManager()
	m.Pin("github")

	m.Remove("github")
	if _, ok := sourceOf(m.Entries(), "github"); ok {
		t.Error("entry still present after Remove")
	}

	m.Remove("fetch")
	if _, ok := sourceOf(m.Entries(), "fetch"); ok {
		t.Error("always-on entry still present after Remove")
	}
}

func TestManagerActiveIDsOrderAndDedup(t *testing.T) {
	m := newTestManager()
	m.SetContext("https://github.com/golang/go")
	m.Pin("research")
	m.Pin("github") // already suggested, pin overwrites in place

	ids := m.ActiveIDs()
	want := []string{"fetch", "github", "research"}
	if len(ids) != len(want) {
		t.Fatalf("ActiveIDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ActiveIDs()[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestManagerBroadcastsOnTransition(t *testing.T) {
	m := newTestManager()

	var notified [][]Entry
	id := m.Subscribe(func(entries []Entry) {
		notified = append(notified, entries)
	})
	defer m.Unsubscribe(id)

	m.SetContext("https://github.com/golang/go")
	m.Pin("github")
	m.Unpin("github")
	m.Dismiss("github")

	if len(notified) != 4 {
		t.Fatalf("expected 4 broadcasts, got %d", len(notified))
	}

	last := notified[len(notified)-1]
	if _, ok := sourceOf(last, "github"); ok {
		t.Error("final broadcast still contains dismissed provider")
	}

	m.Unsubscribe(id)
	m.SetContext("https://example.com/")
	if len(notified) != 4 {
		t.Error("unsubscribed callback still invoked")
	}
}

func TestMatchesHost(t *testing.T) {
	tests := []struct {
		patterns []string
		host     string
		want     bool
	}{
		{[]string{"*"}, "anything.example", true},
		{[]string{"github.com"}, "github.com", true},
		{[]string{"github.com"}, "gist.github.com", false},
		{[]string{"*.atlassian.net"}, "atlassian.net", true},
		{[]string{"*.atlassian.net"}, "myteam.atlassian.net", true},
		{[]string{"*.atlassian.net"}, "evil-atlassian.net", false},
		{[]string{"GitHub.com"}, "github.com", true},
		{nil, "github.com", false},
	}

	for _, tt := range tests {
		if got := matchesHost(tt.patterns, tt.host); got != tt.want {
			t.Errorf("matchesHost(%v, %q) = %v, want %v", tt.patterns, tt.host, got, tt.want)
		}
	}
}
