package config

// Orchestration defaults. The iteration limit is the hard ceiling on
// model/tool round-trips within a single run.
const (
	DefaultIterationLimit = 20
	DefaultMaxConcurrency = 4
)

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/navi",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Ollama: OllamaConfig{
			Host:         "http://localhost:11434",
			DefaultModel: "llama3.1:latest",
		},
		DefaultProvider: "ollama",
		Orchestrator: OrchestratorConfig{
			IterationLimit: DefaultIterationLimit,
			MaxConcurrency: DefaultMaxConcurrency,
		},
		Security: SecurityConfig{
			CredentialStorage: string(SecurityPlainText),
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# NAVI System Configuration
# Location: ~/.config/navi/settings.toml
# This file uses TOML format: https://toml.io

# Directory where sessions, provider records and user config are stored
data_directory = "~/.local/share/navi"
`
}

func GenerateUserConfigTemplate() string {
	return `# NAVI User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Which LLM provider drives the assistant: ollama, openrouter, openai, anthropic
default_provider = "ollama"

# Default system prompt for new conversations (optional)
default_system_prompt = ""

[ollama]
# Ollama server URL
host = "http://localhost:11434"

# Default model to use when starting a new conversation
default_model = "llama3.1:latest"

[orchestrator]
# Hard ceiling on model/tool round-trips per user message
iteration_limit = 20

# Maximum tool invocations dispatched concurrently within one turn
max_concurrency = 4

[aux_model]
# Cheaper model used to compress oversized tool results.
# Leave provider empty to fall back to deterministic truncation.
provider = ""
model = ""

[security]
# Credential storage method: "plaintext" or "ssh_key"
credential_storage = "plaintext"
# ssh_key_path = "~/.ssh/id_ed25519"

# Cloud providers. API keys live in the credential store, not here.
# [[providers]]
# id = "anthropic"
# enabled = true
`
}
