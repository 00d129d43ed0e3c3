// Package langchaintool projects the toolkit into langchaingo's
// tools.Tool interface.
package langchaintool

import (
	"context"
	"encoding/json"

	"github.com/tmc/langchaingo/tools"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/toolkit"
)

// Tool adapts one authorized tool to the langchaingo tool interface.
// The agent passes arguments as a JSON object string; anything else is
// rejected rather than coerced, so schema validation cannot be skipped.
type Tool struct {
	tk   *toolkit.Toolkit
	spec toolkit.Tool
}

var _ tools.Tool = (*Tool)(nil)

// Tools wraps every authorized tool, in catalog order.
func Tools(tk *toolkit.Toolkit) []tools.Tool {
	list := tk.List()
	out := make([]tools.Tool, 0, len(list))
	for _, spec := range list {
		out = append(out, &Tool{tk: tk, spec: spec})
	}
	return out
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return t.spec.Name
}

// Description returns the tool description together with its input
// schema, so the agent knows the argument shape.
func (t *Tool) Description() string {
	schema, err := json.Marshal(t.spec.InputSchema())
	if err != nil {
		return t.spec.Description
	}
	return t.spec.Description + "\nInput must be a JSON object matching this schema: " + string(schema)
}

// Call parses the JSON input and routes the invocation through
// toolkit.Invoke.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var args map[string]interface{}
	if input != "" && input != "null" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", toolkit.NewError(toolkit.CodeInvalidArgument, "tool input is not a JSON object: %v", err)
		}
	}

	result, err := t.tk.Invoke(ctx, t.spec.Name, args)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", toolkit.NewError(toolkit.CodeTransientNetwork, "failed to serialize tool result: %v", err)
	}
	return string(data), nil
}
