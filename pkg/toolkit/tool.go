package toolkit

import (
	"context"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/permissions"
)

// Handler executes one tool against the Extend API. Arguments are
// already validated against the tool's input schema.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Parameter defines one argument accepted by a tool.
type Parameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
}

// Tool is one named, schema-validated remote operation. Tools are
// constructed once at process start and never mutated.
type Tool struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Parameters  []Parameter           `json:"parameters"`
	Product     permissions.Product   `json:"product"`
	Action      permissions.Action    `json:"action"`
	Handler     Handler               `json:"-"`
}

// InputSchema renders the JSON Schema object describing the tool's
// accepted arguments.
func (t Tool) InputSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(t.Parameters))
	var required []string

	for _, param := range t.Parameters {
		prop := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Default != nil {
			prop["default"] = param.Default
		}
		properties[param.Name] = prop
		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
