package catalog

import (
	"encoding/json"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"navi/capability"
)

// capabilityToTool converts one provider capability into the canonical tool
// definition handed to the model.
func capabilityToTool(cap capability.Capability) mcptypes.Tool {
	properties := make(map[string]any, len(cap.Parameters))
	var required []string

	for _, param := range cap.Parameters {
		prop := map[string]any{"type": param.Type}
		if param.Description != "" {
			prop["description"] = param.Description
		}
		if param.Default != nil {
			prop["default"] = param.Default
		}
		properties[param.Name] = prop

		if param.Required {
			required = append(required, param.Name)
		}
	}

	return mcptypes.Tool{
		Name:        cap.Name,
		Description: cap.Description,
		InputSchema: mcptypes.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

// compileValidator builds a JSON schema validator for a tool's input schema.
func compileValidator(tool mcptypes.Tool) (*jsonschema.Schema, error) {
	doc := map[string]any{
		"type":       "object",
		"properties": tool.InputSchema.Properties,
	}
	if len(tool.InputSchema.Required) > 0 {
		doc["required"] = tool.InputSchema.Required
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema for %s: %w", tool.Name, err)
	}

	schema, err := jsonschema.CompileString(tool.Name+".schema.json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", tool.Name, err)
	}
	return schema, nil
}
