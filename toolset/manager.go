// Package toolset maintains the working set of provider IDs exposed as
// callable tools for the current conversation, derived from the page the
// user is viewing plus explicit pin/dismiss actions.
package toolset

import (
	"net/url"
	"strings"
	"sync"

	"navi/capability"
	"navi/config"
)

// Source records how an entry got into the working set.
type Source string

const (
	SourceAlwaysOn  Source = "always-on"
	SourceSuggested Source = "suggested"
	SourcePinned    Source = "pinned"
)

// Entry is one member of the working set.
type Entry struct {
	ProviderID string
	Source     Source
}

// Manager is the state machine over the working set. Always-on providers are
// never removed; suggested entries follow the page context; pinned entries
// survive any context change until unpinned. Every transition broadcasts the
// current working set to subscribers.
type Manager struct {
	mu          sync.Mutex
	clients     *capability.Registry
	agents      *capability.AgentRegistry
	entries     map[string]Entry
	dismissed   map[string]string // provider ID -> URL it was dismissed on
	currentURL  string
	subscribers map[int]func([]Entry)
	nextSubID   int
}

// NewManager creates a manager over the given registries. The initial
// working set contains the always-on providers.
func NewManager(clients *capability.Registry, agents *capability.AgentRegistry) *Manager {
	m := &Manager{
		clients:     clients,
		agents:      agents,
		entries:     make(map[string]Entry),
		dismissed:   make(map[string]string),
		subscribers: make(map[int]func([]Entry)),
	}

	for _, meta := range m.allMetadata() {
		if meta.AlwaysOn {
			m.entries[meta.ID] = Entry{ProviderID: meta.ID, Source: SourceAlwaysOn}
		}
	}

	return m
}

// SetContext recomputes context-suggested entries for a newly observed page
// URL. Suggested entries that stop matching are dropped unless pinned;
// always-on entries are untouched. Moving to a distinct URL clears dismissal
// suppressions recorded on the previous page.
func (m *Manager) SetContext(pageURL string) {
	m.mu.Lock()

	if pageURL != m.currentURL {
		for id, dismissedAt := range m.dismissed {
			if dismissedAt != pageURL {
				delete(m.dismissed, id)
			}
		}
	}
	m.currentURL = pageURL

	host := hostOf(pageURL)

	for _, meta := range m.allMetadata() {
		entry, present := m.entries[meta.ID]
		matches := host != "" && matchesHost(meta.Hosts, host)

		switch {
		case present && entry.Source != SourceSuggested:
			// pinned and always-on entries are untouched by context
		case matches && m.dismissed[meta.ID] != pageURL:
			m.entries[meta.ID] = Entry{ProviderID: meta.ID, Source: SourceSuggested}
		default:
			delete(m.entries, meta.ID)
		}
	}

	m.broadcastLocked()
}

// Pin inserts or overwrites an entry as user-pinned. Pinning clears any
// dismissal suppression for the provider.
func (m *Manager) Pin(providerID string) {
	if !m.known(providerID) {
		return
	}

	m.mu.Lock()
	m.entries[providerID] = Entry{ProviderID: providerID, Source: SourcePinned}
	delete(m.dismissed, providerID)
	m.broadcastLocked()
}

// Unpin removes a user-pinned entry. The provider reverts to whatever the
// current context implies: always-on stays, a matching host re-suggests it,
// otherwise it drops out of the working set.
func (m *Manager) Unpin(providerID string) {
	m.mu.Lock()

	entry, ok := m.entries[providerID]
	if !ok || entry.Source != SourcePinned {
		m.mu.Unlock()
		return
	}

	delete(m.entries, providerID)
	if meta, ok := m.metadataFor(providerID); ok {
		host := hostOf(m.currentURL)
		switch {
		case meta.AlwaysOn:
			m.entries[providerID] = Entry{ProviderID: providerID, Source: SourceAlwaysOn}
		case host != "" && matchesHost(meta.Hosts, host) && m.dismissed[providerID] != m.currentURL:
			m.entries[providerID] = Entry{ProviderID: providerID, Source: SourceSuggested}
		}
	}

	m.broadcastLocked()
}

// Dismiss removes a context-suggested entry and suppresses re-suggestion of
// the provider until the next distinct context. Dismissing a pinned or
// always-on entry is a no-op.
func (m *Manager) Dismiss(providerID string) {
	m.mu.Lock()

	entry, ok := m.entries[providerID]
	if !ok || entry.Source != SourceSuggested {
		m.mu.Unlock()
		return
	}

	delete(m.entries, providerID)
	m.dismissed[providerID] = m.currentURL
	m.broadcastLocked()
}

// Remove drops an entry regardless of source. Used when a provider lookup
// fails permanently during dispatch.
func (m *Manager) Remove(providerID string) {
	m.mu.Lock()

	if _, ok := m.entries[providerID]; !ok {
		m.mu.Unlock()
		return
	}

	delete(m.entries, providerID)
	if config.Debug {
		config.DebugLog.Printf("[Toolset] Removed provider %s from working set", providerID)
	}
	m.broadcastLocked()
}

// ActiveIDs returns the deduplicated provider IDs of the current working
// set, clients first, each group in registration order.
func (m *Manager) ActiveIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeIDsLocked()
}

// Entries returns a snapshot of the current working set in ActiveIDs order.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entriesLocked()
}

// Subscribe registers a callback invoked with the working set on every
// transition. Returns a token for Unsubscribe. Callers must unsubscribe on
// teardown to avoid leaks.
func (m *Manager) Subscribe(fn func([]Entry)) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, id)
}

// broadcastLocked snapshots state, releases the lock and notifies
// subscribers. Callers must hold the lock and must not use it afterwards.
func (m *Manager) broadcastLocked() {
	entries := m.entriesLocked()
	subs := make([]func([]Entry), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(entries)
	}
}

func (m *Manager) activeIDsLocked() []string {
	ids := make([]string, 0, len(m.entries))
	for _, id := range m.clients.AllIDs() {
		if _, ok := m.entries[id]; ok {
			ids = append(ids, id)
		}
	}
	for _, id := range m.agents.AllIDs() {
		if _, ok := m.entries[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *Manager) entriesLocked() []Entry {
	ids := m.activeIDsLocked()
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, m.entries[id])
	}
	return entries
}

func (m *Manager) allMetadata() []capability.Metadata {
	all := m.clients.AllMetadata()
	return append(all, m.agents.AllMetadata()...)
}

func (m *Manager) metadataFor(providerID string) (capability.Metadata, bool) {
	if meta, ok := m.clients.Metadata(providerID); ok {
		return meta, true
	}
	return m.agents.Metadata(providerID)
}

func (m *Manager) known(providerID string) bool {
	return m.clients.Has(providerID) || m.agents.Has(providerID)
}

// hostOf extracts the lowercase host of an http(s) URL; empty for anything else.
func hostOf(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// matchesHost checks a host against applicability patterns: "*" matches any
// page, "*.example.com" matches example.com and its subdomains, anything
// else is an exact match.
func matchesHost(patterns []string, host string) bool {
	for _, pattern := range patterns {
		pattern = strings.ToLower(pattern)
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "*."):
			suffix := pattern[2:]
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}
