package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type OllamaConfig struct {
	Host         string `toml:"host"`
	DefaultModel string `toml:"default_model"`
}

// ProviderConfig is one entry of the [[providers]] array in the user config.
type ProviderConfig struct {
	ID      string `toml:"id"`
	BaseURL string `toml:"base_url,omitempty"`
	Model   string `toml:"model,omitempty"`
	Enabled bool   `toml:"enabled"`
}

// OrchestratorConfig holds the bounds of an orchestration run.
type OrchestratorConfig struct {
	IterationLimit int `toml:"iteration_limit"`
	MaxConcurrency int `toml:"max_concurrency"`
}

// AuxModelConfig selects the cheaper model used to compress oversized
// tool results. Empty provider disables compression (truncation only).
type AuxModelConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
}

type SecurityConfig struct {
	CredentialStorage string `toml:"credential_storage"` // "plaintext" or "ssh_key"
	SSHKeyPath        string `toml:"ssh_key_path,omitempty"`
}

type UserConfig struct {
	Ollama              OllamaConfig       `toml:"ollama"`
	DefaultProvider     string             `toml:"default_provider"`
	DefaultSystemPrompt string             `toml:"default_system_prompt,omitempty"`
	Orchestrator        OrchestratorConfig `toml:"orchestrator"`
	AuxModel            AuxModelConfig     `toml:"aux_model"`
	Security            SecurityConfig     `toml:"security"`
	Providers           []ProviderConfig   `toml:"providers"`
}

type Config struct {
	DataDirectory       string
	OllamaHost          string
	DefaultModel        string
	DefaultProvider     string
	DefaultSystemPrompt string
	Orchestrator        OrchestratorConfig
	AuxModel            AuxModelConfig
	Security            SecurityConfig
	Providers           []ProviderConfig
	CredentialStore     *CredentialStore
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) OllamaURL() string {
	return c.OllamaHost
}

func (c *Config) Model() string {
	return c.DefaultModel
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("NAVI_OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}
	if model := os.Getenv("NAVI_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if provider := os.Getenv("NAVI_PROVIDER"); provider != "" {
		c.DefaultProvider = provider
	}
	if dataDir := os.Getenv("NAVI_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func CheckDebug() bool {
	debug := os.Getenv("NAVI_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - debug output may contain request payloads
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (NAVI_DEBUG=%s) ===", os.Getenv("NAVI_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory:   "~/.local/share/navi",
		OllamaHost:      "http://localhost:11434",
		DefaultModel:    "llama3.1:latest",
		DefaultProvider: "ollama",
		Orchestrator: OrchestratorConfig{
			IterationLimit: DefaultIterationLimit,
			MaxConcurrency: DefaultMaxConcurrency,
		},
		Security: SecurityConfig{CredentialStorage: string(SecurityPlainText)},
	}

	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}
	cfg.DataDirectory = systemCfg.DataDirectory
	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.OllamaHost = userCfg.Ollama.Host
	cfg.DefaultModel = userCfg.Ollama.DefaultModel
	cfg.DefaultSystemPrompt = userCfg.DefaultSystemPrompt
	cfg.Providers = userCfg.Providers
	cfg.AuxModel = userCfg.AuxModel
	if userCfg.DefaultProvider != "" {
		cfg.DefaultProvider = userCfg.DefaultProvider
	}
	if userCfg.Orchestrator.IterationLimit > 0 {
		cfg.Orchestrator.IterationLimit = userCfg.Orchestrator.IterationLimit
	}
	if userCfg.Orchestrator.MaxConcurrency > 0 {
		cfg.Orchestrator.MaxConcurrency = userCfg.Orchestrator.MaxConcurrency
	}
	if userCfg.Security.CredentialStorage != "" {
		cfg.Security = userCfg.Security
	}
	cfg.applyEnvOverrides()

	store := NewCredentialStore(SecurityMethod(cfg.Security.CredentialStorage), cfg.Security.SSHKeyPath)
	if err := store.Load(dataDir); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	cfg.CredentialStore = store

	return cfg, nil
}
