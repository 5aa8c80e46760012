package capability

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"navi/config"
)

// MCPBridgeClient exposes the tools of one external MCP server, spawned as a
// child process over stdio, as capabilities. Tool names are re-exported
// namespaced as mcp.<tool> so they cannot collide with builtin providers.
type MCPBridgeClient struct {
	mu      sync.Mutex
	command string
	args    []string
	client  *client.Client
	tools   []mcptypes.Tool
	started bool
}

// NewMCPBridgeClient creates the MCP bridge client provider.
func NewMCPBridgeClient() *MCPBridgeClient {
	return &MCPBridgeClient{}
}

// MCPBridgeMetadata is the registry metadata for the MCP bridge.
func MCPBridgeMetadata() Metadata {
	return Metadata{
		ID:          "mcp",
		Name:        "MCP Server",
		Description: "Proxy the tools of an external MCP server over stdio",
		Version:     "1.0.0",
		Tags:        []string{"mcp", "extension"},
		Hosts:       []string{"*"},
	}
}

func (c *MCPBridgeClient) CredentialFields() []Field { return nil }

func (c *MCPBridgeClient) ConfigFields() []Field {
	return []Field{
		{Key: "command", Label: "Command", Description: "Executable that runs the MCP server", Required: true},
		{Key: "args", Label: "Arguments", Description: "Space-separated arguments for the command"},
	}
}

func (c *MCPBridgeClient) SetCredentials(values map[string]string) {}

func (c *MCPBridgeClient) SetConfig(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	command := values["command"]
	args := strings.Fields(values["args"])

	// A changed command invalidates the running server.
	if c.started && (command != c.command || strings.Join(args, " ") != strings.Join(c.args, " ")) {
		c.shutdownLocked()
	}
	c.command = command
	c.args = args
}

// Initialize spawns the server process, performs the MCP handshake and
// caches the tool list. Re-running against a live server is a no-op.
func (c *MCPBridgeClient) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureStartedLocked(ctx)
}

func (c *MCPBridgeClient) ensureStartedLocked(ctx context.Context) error {
	if c.started {
		return nil
	}
	if c.command == "" {
		return fmt.Errorf("command not configured")
	}

	mcpClient, err := client.NewStdioMCPClient(c.command, os.Environ(), c.args...)
	if err != nil {
		return fmt.Errorf("failed to start MCP server %q: %w", c.command, err)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: "2025-06-18",
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "navi",
				Version: "1.0.0",
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to initialize MCP server: %w", err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to list MCP tools: %w", err)
	}

	c.client = mcpClient
	c.tools = toolsResult.Tools
	c.started = true

	if config.Debug {
		config.DebugLog.Printf("[MCPBridge] Started %q with %d tools", c.command, len(c.tools))
	}

	return nil
}

// Capabilities returns the server's tools as namespaced capabilities.
// Starts the server on first use; an unreachable server yields no
// capabilities, which the catalog builder logs and skips.
func (c *MCPBridgeClient) Capabilities() []Capability {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.ensureStartedLocked(ctx); err != nil {
			if config.Debug {
				config.DebugLog.Printf("[MCPBridge] Capability discovery failed: %v", err)
			}
			return nil
		}
	}

	caps := make([]Capability, 0, len(c.tools))
	for _, tool := range c.tools {
		caps = append(caps, Capability{
			Name:        "mcp." + tool.Name,
			Description: tool.Description,
			Parameters:  convertMCPParameters(tool.InputSchema),
		})
	}
	return caps
}

func (c *MCPBridgeClient) Execute(ctx context.Context, name string, input map[string]any) (*Result, error) {
	c.mu.Lock()
	if err := c.ensureStartedLocked(ctx); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	mcpClient := c.client
	c.mu.Unlock()

	toolName := strings.TrimPrefix(name, "mcp.")

	result, err := mcpClient.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      toolName,
			Arguments: input,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("MCP tool %s failed: %w", toolName, err)
	}

	text := flattenMCPContent(result.Content)
	if result.IsError {
		return nil, fmt.Errorf("MCP tool %s returned an error: %s", toolName, text)
	}

	return &Result{Data: text}, nil
}

// Shutdown stops the child server process, if running.
func (c *MCPBridgeClient) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdownLocked()
}

func (c *MCPBridgeClient) shutdownLocked() {
	if c.client != nil {
		c.client.Close()
	}
	c.client = nil
	c.tools = nil
	c.started = false
}

func convertMCPParameters(schema mcptypes.ToolInputSchema) []Parameter {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	params := make([]Parameter, 0, len(schema.Properties))
	for propName, propValue := range schema.Properties {
		param := Parameter{
			Name:     propName,
			Type:     "string",
			Required: required[propName],
		}
		if propMap, ok := propValue.(map[string]any); ok {
			if t, ok := propMap["type"].(string); ok {
				param.Type = t
			}
			if desc, ok := propMap["description"].(string); ok {
				param.Description = desc
			}
			if def, ok := propMap["default"]; ok {
				param.Default = def
			}
		}
		params = append(params, param)
	}
	return params
}

func flattenMCPContent(content []mcptypes.Content) string {
	var parts []string
	for _, block := range content {
		if text, ok := block.(mcptypes.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
