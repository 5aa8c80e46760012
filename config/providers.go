package config

import (
	"fmt"
)

// SetProviderAPIKey stores an LLM provider API key in the credential store
// and persists the store to disk.
func (c *Config) SetProviderAPIKey(providerID, apiKey string) error {
	if c.CredentialStore == nil {
		return fmt.Errorf("credential store not initialized")
	}

	if err := c.CredentialStore.Set(providerID, apiKey); err != nil {
		return fmt.Errorf("failed to set credential: %w", err)
	}

	if err := c.CredentialStore.Save(c.DataDir()); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

// SetProviderEnabled toggles an LLM provider in the user config, creating
// the [[providers]] entry if it does not exist yet.
func SetProviderEnabled(dataDir, providerID string, enabled bool) error {
	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	found := false
	for i := range cfg.Providers {
		if cfg.Providers[i].ID == providerID {
			cfg.Providers[i].Enabled = enabled
			found = true
			break
		}
	}
	if !found {
		cfg.Providers = append(cfg.Providers, ProviderConfig{
			ID:      providerID,
			Enabled: enabled,
		})
	}

	if err := SaveUserConfig(cfg, dataDir); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// ProviderEnabled reports whether an LLM provider is enabled in config.
// Ollama defaults to enabled when no explicit entry exists.
func (c *Config) ProviderEnabled(providerID string) bool {
	for _, p := range c.Providers {
		if p.ID == providerID {
			return p.Enabled
		}
	}
	return providerID == "ollama"
}
