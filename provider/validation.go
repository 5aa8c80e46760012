package provider

import (
	"context"
	"fmt"

	"navi/config"
	"navi/model"
)

// ValidateProvider checks a provider's credentials by constructing it and
// calling Ping. Used when the user adds or updates an API key.
func ValidateProvider(ctx context.Context, providerID, baseURL, apiKey string) error {
	p, err := NewProvider(Config{
		Type:    MapProviderIDToType(providerID),
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	if config.Debug {
		config.DebugLog.Printf("[Provider] Provider %s ping successful", providerID)
	}
	return nil
}

// FetchProviderModels fetches the model list from one provider.
func FetchProviderModels(ctx context.Context, providerID, baseURL, apiKey string) ([]model.ModelInfo, error) {
	p, err := NewProvider(Config{
		Type:    MapProviderIDToType(providerID),
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, err
	}

	models, err := p.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	if config.Debug {
		config.DebugLog.Printf("[Provider] Fetched %d models from provider %s", len(models), providerID)
	}
	return models, nil
}
