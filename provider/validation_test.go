package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeTagsServer answers Ollama's model listing endpoint.
func fakeTagsServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	}))
}

func TestValidateProviderOllama(t *testing.T) {
	srv := fakeTagsServer(t, `{"models":[]}`)
	defer srv.Close()

	if err := ValidateProvider(context.Background(), "ollama", srv.URL, ""); err != nil {
		t.Errorf("ValidateProvider against a live server: %v", err)
	}
}

func TestValidateProviderUnreachable(t *testing.T) {
	srv := fakeTagsServer(t, `{"models":[]}`)
	srv.Close() // connection refused from here on

	if err := ValidateProvider(context.Background(), "ollama", srv.URL, ""); err == nil {
		t.Error("ValidateProvider succeeded against a dead server")
	}
}

func TestValidateProviderConstructionErrors(t *testing.T) {
	tests := []struct {
		name       string
		providerID string
		apiKey     string
	}{
		{"unknown provider id", "telepathy", "key"},
		{"openai without api key", "openai", ""},
		{"anthropic without api key", "anthropic", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateProvider(context.Background(), tt.providerID, "", tt.apiKey); err == nil {
				t.Error("ValidateProvider succeeded, want construction error")
			}
		})
	}
}

func TestFetchProviderModels(t *testing.T) {
	srv := fakeTagsServer(t, `{"models":[{"name":"llama3.1:latest","size":42},{"name":"qwen2.5:7b","size":7}]}`)
	defer srv.Close()

	models, err := FetchProviderModels(context.Background(), "ollama", srv.URL, "")
	if err != nil {
		t.Fatalf("FetchProviderModels: %v", err)
	}

	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].Name != "llama3.1:latest" || models[0].Size != 42 || models[0].Provider != "ollama" {
		t.Errorf("models[0] = %+v", models[0])
	}
}
