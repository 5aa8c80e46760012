package config

import "testing"

func TestSetProviderEnabled(t *testing.T) {
	dir := t.TempDir()

	if err := SetProviderEnabled(dir, "openai", true); err != nil {
		t.Fatalf("SetProviderEnabled: %v", err)
	}

	cfg, err := LoadUserConfig(dir)
	if err != nil {
		t.Fatalf("LoadUserConfig: %v", err)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].ID != "openai" || !cfg.Providers[0].Enabled {
		t.Fatalf("Providers = %+v, want one enabled openai entry", cfg.Providers)
	}

	// Toggling updates the existing entry instead of appending a duplicate.
	if err := SetProviderEnabled(dir, "openai", false); err != nil {
		t.Fatalf("SetProviderEnabled(false): %v", err)
	}
	cfg, err = LoadUserConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].Enabled {
		t.Errorf("Providers after disable = %+v", cfg.Providers)
	}
}

func TestProviderEnabled(t *testing.T) {
	cfg := &Config{
		Providers: []ProviderConfig{
			{ID: "openai", Enabled: true},
			{ID: "anthropic", Enabled: false},
		},
	}

	tests := []struct {
		providerID string
		want       bool
	}{
		{"openai", true},
		{"anthropic", false},
		{"openrouter", false}, // no entry
		{"ollama", true},      // enabled by default without an entry
	}
	for _, tt := range tests {
		if got := cfg.ProviderEnabled(tt.providerID); got != tt.want {
			t.Errorf("ProviderEnabled(%s) = %v, want %v", tt.providerID, got, tt.want)
		}
	}

	// An explicit ollama entry overrides the default.
	cfg.Providers = append(cfg.Providers, ProviderConfig{ID: "ollama", Enabled: false})
	if cfg.ProviderEnabled("ollama") {
		t.Error("explicit disabled ollama entry ignored")
	}
}

func TestSetProviderAPIKey(t *testing.T) {
	dir := t.TempDir()

	store := NewCredentialStore(SecurityPlainText, "")
	if err := store.Load(dir); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{DataDirectory: dir, CredentialStore: store}

	if err := cfg.SetProviderAPIKey("openai", "sk-test"); err != nil {
		t.Fatalf("SetProviderAPIKey: %v", err)
	}

	// The key must survive a fresh load from disk.
	fresh := NewCredentialStore(SecurityPlainText, "")
	if err := fresh.Load(dir); err != nil {
		t.Fatal(err)
	}
	if got := fresh.Get("openai"); got != "sk-test" {
		t.Errorf("persisted key = %q, want sk-test", got)
	}
}

func TestSetProviderAPIKeyWithoutStore(t *testing.T) {
	cfg := &Config{}
	if err := cfg.SetProviderAPIKey("openai", "sk-test"); err == nil {
		t.Error("SetProviderAPIKey succeeded without a credential store")
	}
}
