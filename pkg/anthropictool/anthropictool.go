// Package anthropictool projects the toolkit into the tool shape of the
// Anthropic Messages API.
package anthropictool

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/toolkit"
)

// Toolkit wraps each authorized tool as an Anthropic tool param. Every
// call path routes through toolkit.Invoke; the adapter never checks
// authorization itself.
type Toolkit struct {
	tk *toolkit.Toolkit
}

// New creates an Anthropic adapter around the toolkit.
func New(tk *toolkit.Toolkit) *Toolkit {
	return &Toolkit{tk: tk}
}

// Tools returns the authorized tools as Messages API tool params, in
// catalog order.
func (a *Toolkit) Tools() []anthropic.ToolUnionParam {
	list := a.tk.List()
	params := make([]anthropic.ToolUnionParam, 0, len(list))
	for _, tool := range list {
		schema := tool.InputSchema()
		toolParam := anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
			},
		}
		if required, ok := schema["required"].([]string); ok {
			toolParam.InputSchema.Required = required
		}
		params = append(params, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return params
}

// Execute runs the tool requested by a tool_use content block and
// returns the serialized result for the tool_result block. Failures are
// returned as *toolkit.Error with code and message intact.
func (a *Toolkit) Execute(ctx context.Context, block anthropic.ToolUseBlock) (string, error) {
	var args map[string]interface{}
	if raw := block.JSON.Input.Raw(); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return "", toolkit.NewError(toolkit.CodeInvalidArgument, "tool input is not a JSON object: %v", err)
		}
	}

	result, err := a.tk.Invoke(ctx, block.Name, args)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", toolkit.NewError(toolkit.CodeTransientNetwork, "failed to serialize tool result: %v", err)
	}
	return string(data), nil
}
