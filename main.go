package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"navi/capability"
	"navi/catalog"
	"navi/config"
	"navi/model"
	"navi/orchestrator"
	"navi/provider"
	"navi/storage"
	"navi/toolset"
)

const (
	Version = "v0.1.0"
	License = "Apache-2.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	db, err := storage.Open(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	records := storage.NewRecordStore(db)
	sessions := storage.NewSessionStore(db)
	search := storage.NewSearchIndex(sessions)

	clients := capability.NewRegistry()
	agents := capability.NewAgentRegistry(clients, records)
	capability.RegisterBuiltins(clients, agents)

	manager := toolset.NewManager(clients, agents)
	builder := catalog.NewBuilder(clients, agents, records)

	providers := provider.InitializeProviders(cfg)
	active := providers[cfg.DefaultProvider]
	if active == nil {
		// Fall back to Ollama, then to anything that initialized.
		active = providers["ollama"]
		for _, p := range providers {
			if active != nil {
				break
			}
			active = p
		}
	}
	if active == nil {
		fmt.Println("No LLM provider available. Check your config and credentials.")
		os.Exit(1)
	}

	loop := orchestrator.NewLoop(active, orchestrator.NewNormalizer(buildAuxProvider(cfg)), orchestrator.Config{
		IterationLimit: cfg.Orchestrator.IterationLimit,
		MaxConcurrency: cfg.Orchestrator.MaxConcurrency,
		SystemPrompt:   cfg.DefaultSystemPrompt,
	})

	rl, err := readline.New("navi> ")
	if err != nil {
		fmt.Printf("Failed to initialize readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	subID := manager.Subscribe(func(entries []toolset.Entry) {
		printWorkingSet(entries)
	})
	defer manager.Unsubscribe(subID)

	cmds := &commandSet{
		cfg:     cfg,
		manager: manager,
		active:  active,
		search:  search,
		clients: clients,
		agents:  agents,
	}

	fmt.Printf("navi %s (%s), model %s\n", Version, License, active.GetModel())
	fmt.Println("Commands: /url <page>  /pin <id>  /unpin <id>  /dismiss <id>  /tools  /providers <query>  /search <query>  /model [name]  /models [provider]  /key <provider> <api-key>  /enable <provider>  /disable <provider>  /quit")

	session := &storage.Session{Model: active.GetModel()}
	var history []model.Message

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Input error: %v\n", err)
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := cmds.handle(line); quit {
				break
			}
			continue
		}

		// Ctrl-C during a run cancels the run, not the program.
		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		cat := builder.Build(runCtx, manager.ActiveIDs())
		result, err := loop.Run(runCtx, cat, history, line)
		stop()

		if result != nil {
			history = result.Messages
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Println(result.FinalText)
		}

		if session.Name == "" {
			session.Name = storage.GenerateSessionName(line)
		}
		session.Messages = toStorageMessages(history)
		if err := sessions.Save(session); err != nil && config.Debug {
			config.DebugLog.Printf("[Main] Failed to save session: %v", err)
		}
	}
}

// buildAuxProvider constructs the cheaper model used for tool-result
// compression. Returns nil when unconfigured or unavailable; the normalizer
// falls back to truncation.
func buildAuxProvider(cfg *config.Config) model.Provider {
	if cfg.AuxModel.Provider == "" {
		return nil
	}

	apiKey := ""
	if cfg.CredentialStore != nil {
		apiKey = cfg.CredentialStore.Get(cfg.AuxModel.Provider)
	}

	p, err := provider.NewProvider(provider.Config{
		Type:    provider.MapProviderIDToType(cfg.AuxModel.Provider),
		BaseURL: providerBaseURL(cfg, cfg.AuxModel.Provider),
		APIKey:  apiKey,
		Model:   cfg.AuxModel.Model,
	})
	if err != nil {
		if config.Debug {
			config.DebugLog.Printf("[Main] Aux model unavailable, results will be truncated: %v", err)
		}
		return nil
	}
	return p
}

// commandSet holds everything the slash commands operate on.
type commandSet struct {
	cfg     *config.Config
	manager *toolset.Manager
	active  model.Provider
	search  *storage.SearchIndex
	clients *capability.Registry
	agents  *capability.AgentRegistry
}

// handle executes one slash command. Returns true to quit.
func (c *commandSet) handle(line string) bool {
	parts := strings.Fields(line)
	cmd := parts[0]
	arg := strings.TrimSpace(strings.TrimPrefix(line, cmd))

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/url":
		if arg == "" {
			fmt.Println("Usage: /url <page-url>")
			return false
		}
		c.manager.SetContext(arg)
	case "/pin":
		c.manager.Pin(arg)
	case "/unpin":
		c.manager.Unpin(arg)
	case "/dismiss":
		c.manager.Dismiss(arg)
	case "/tools":
		printWorkingSet(c.manager.Entries())
	case "/providers":
		c.searchProviders(arg)
	case "/search":
		c.searchTranscripts(arg)
	case "/model":
		if arg == "" {
			fmt.Printf("Current model: %s\n", c.active.GetModel())
			return false
		}
		c.active.SetModel(arg)
		fmt.Printf("Model set to %s\n", arg)
	case "/models":
		c.listModels(arg)
	case "/key":
		c.setKey(arg)
	case "/enable", "/disable":
		c.setEnabled(arg, cmd == "/enable")
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
	}
	return false
}

// searchProviders fuzzy-matches registered tool providers by name,
// description and tags.
func (c *commandSet) searchProviders(query string) {
	if query == "" {
		fmt.Println("Usage: /providers <query>")
		return
	}

	results := append(c.clients.Search(query), c.agents.Search(query)...)
	if len(results) == 0 {
		fmt.Println("No matching providers.")
		return
	}
	for _, meta := range results {
		fmt.Printf("%s - %s: %s\n", meta.ID, meta.Name, meta.Description)
	}
}

func (c *commandSet) searchTranscripts(query string) {
	if query == "" {
		fmt.Println("Usage: /search <query>")
		return
	}

	matches, err := c.search.SearchAllSessions(query)
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		return
	}
	if len(matches) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, m := range matches {
		fmt.Printf("[%s] %s: %s\n", m.SessionName, m.Role, m.Preview)
	}
}

// listModels lists models from the active provider, or from a named provider
// using its stored API key.
func (c *commandSet) listModels(providerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var (
		models []model.ModelInfo
		err    error
	)
	if providerID == "" {
		models, err = c.active.ListModels(ctx)
	} else {
		apiKey := ""
		if c.cfg.CredentialStore != nil {
			apiKey = c.cfg.CredentialStore.Get(providerID)
		}
		models, err = provider.FetchProviderModels(ctx, providerID, providerBaseURL(c.cfg, providerID), apiKey)
	}
	if err != nil {
		fmt.Printf("Failed to list models: %v\n", err)
		return
	}

	for _, m := range models {
		if m.Size > 0 {
			fmt.Printf("%s (%.1f GB)\n", m.Name, float64(m.Size)/1e9)
		} else {
			fmt.Println(m.Name)
		}
	}
}

// setKey validates an API key against the provider, then persists it.
func (c *commandSet) setKey(arg string) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		fmt.Println("Usage: /key <provider> <api-key>")
		return
	}
	providerID, apiKey := fields[0], fields[1]

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := provider.ValidateProvider(ctx, providerID, providerBaseURL(c.cfg, providerID), apiKey); err != nil {
		fmt.Printf("Key rejected for %s: %v\n", providerID, err)
		return
	}
	if err := c.cfg.SetProviderAPIKey(providerID, apiKey); err != nil {
		fmt.Printf("Failed to save key: %v\n", err)
		return
	}
	fmt.Printf("Key for %s validated and saved. Enable it with /enable %s\n", providerID, providerID)
}

func (c *commandSet) setEnabled(providerID string, enabled bool) {
	if providerID == "" {
		fmt.Println("Usage: /enable <provider> or /disable <provider>")
		return
	}

	if err := config.SetProviderEnabled(c.cfg.DataDir(), providerID, enabled); err != nil {
		fmt.Printf("Failed to update config: %v\n", err)
		return
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Provider %s %s. Restart navi to apply.\n", providerID, state)
}

// providerBaseURL resolves the base URL for a provider ID from config.
// Empty means the provider's own default endpoint.
func providerBaseURL(cfg *config.Config, providerID string) string {
	if providerID == "ollama" {
		return cfg.OllamaURL()
	}
	for _, pc := range cfg.Providers {
		if pc.ID == providerID {
			return pc.BaseURL
		}
	}
	return ""
}

func printWorkingSet(entries []toolset.Entry) {
	if len(entries) == 0 {
		fmt.Println("tools: (none)")
		return
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s (%s)", e.ProviderID, e.Source))
	}
	fmt.Printf("tools: %s\n", strings.Join(parts, ", "))
}

// toStorageMessages converts the live transcript to its persisted form.
func toStorageMessages(messages []model.Message) []storage.Message {
	result := make([]storage.Message, len(messages))
	for i, msg := range messages {
		sm := storage.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
		for _, tc := range msg.ToolCalls {
			sm.ToolCalls = append(sm.ToolCalls, storage.ToolCall{
				ID:        tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			})
		}
		for _, tr := range msg.ToolResults {
			sm.ToolResults = append(sm.ToolResults, storage.ToolResult{
				ToolCallID: tr.ToolCallID,
				Content:    tr.Content,
				IsError:    tr.IsError,
			})
		}
		result[i] = sm
	}
	return result
}
