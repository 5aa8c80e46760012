package catalog

import (
	"testing"

	"navi/capability"
)

func TestCapabilityToTool(t *testing.T) {
	cap := capability.Capability{
		Name:        "repo_info",
		Description: "Look up a repository",
		Parameters: []capability.Parameter{
			{Name: "repo", Type: "string", Description: "owner/name", Required: true},
			{Name: "branch", Type: "string", Default: "main"},
		},
	}

	tool := capabilityToTool(cap)

	if tool.Name != "repo_info" || tool.Description != "Look up a repository" {
		t.Errorf("tool header = %s / %s", tool.Name, tool.Description)
	}
	if tool.InputSchema.Type != "object" {
		t.Errorf("schema type = %s, want object", tool.InputSchema.Type)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "repo" {
		t.Errorf("required = %v, want [repo]", tool.InputSchema.Required)
	}

	branch, ok := tool.InputSchema.Properties["branch"].(map[string]any)
	if !ok {
		t.Fatalf("branch property missing: %v", tool.InputSchema.Properties)
	}
	if branch["default"] != "main" {
		t.Errorf("branch default = %v, want main", branch["default"])
	}
	if _, has := branch["description"]; has {
		t.Error("empty description should be omitted")
	}
}

func TestCompileValidator(t *testing.T) {
	tool := capabilityToTool(capability.Capability{
		Name: "search",
		Parameters: []capability.Parameter{
			{Name: "query", Type: "string", Required: true},
			{Name: "limit", Type: "number"},
		},
	})

	schema, err := compileValidator(tool)
	if err != nil {
		t.Fatalf("compileValidator: %v", err)
	}

	if err := schema.Validate(map[string]any{"query": "go", "limit": 5.0}); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
	if err := schema.Validate(map[string]any{"limit": 5.0}); err == nil {
		t.Error("missing required argument accepted")
	}
	if err := schema.Validate(map[string]any{"query": 42.0}); err == nil {
		t.Error("wrong argument type accepted")
	}
}

func TestCompileValidatorNoRequired(t *testing.T) {
	tool := capabilityToTool(capability.Capability{
		Name: "page_text",
		Parameters: []capability.Parameter{
			{Name: "selector", Type: "string"},
		},
	})

	schema, err := compileValidator(tool)
	if err != nil {
		t.Fatalf("compileValidator: %v", err)
	}
	if err := schema.Validate(map[string]any{}); err != nil {
		t.Errorf("empty input rejected for optional-only tool: %v", err)
	}
}
