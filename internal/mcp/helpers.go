package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mvp-joe/craft/internal/model"
)

// marshalToolResponse marshals a response object to JSON and returns it as an MCP tool result.
func marshalToolResponse(response interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// specArgument decodes a spec document passed inline as a string. The
// document may be JSON or YAML; JSON is tried when it starts with { or [.
func specArgument(raw, name string) ([]*model.APISpec, *mcp.CallToolResult) {
	if strings.TrimSpace(raw) == "" {
		return nil, mcp.NewToolResultError(name + " parameter is required")
	}

	format := model.FormatYAML
	if t := strings.TrimSpace(raw); strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		format = model.FormatJSON
	}
	specs, err := model.DecodeAPISpecs([]byte(raw), format)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid %s: %v", name, err))
	}
	if len(specs) == 0 {
		return nil, mcp.NewToolResultError(name + " holds no API specs")
	}
	return specs, nil
}

// singleSpecArgument is specArgument for parameters that take exactly one spec.
func singleSpecArgument(raw, name string) (*model.APISpec, *mcp.CallToolResult) {
	specs, errResult := specArgument(raw, name)
	if errResult != nil {
		return nil, errResult
	}
	if len(specs) != 1 {
		return nil, mcp.NewToolResultError(fmt.Sprintf("%s must hold exactly one API spec, got %d", name, len(specs)))
	}
	return specs[0], nil
}
