// Package openaitool projects the toolkit into the function-tool shape
// of the OpenAI chat completions API.
package openaitool

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/toolkit"
)

// Toolkit wraps each authorized tool as an OpenAI function tool. Every
// call path routes through toolkit.Invoke.
type Toolkit struct {
	tk *toolkit.Toolkit
}

// New creates an OpenAI adapter around the toolkit.
func New(tk *toolkit.Toolkit) *Toolkit {
	return &Toolkit{tk: tk}
}

// Tools returns the authorized tools as chat-completions tool params,
// in catalog order.
func (a *Toolkit) Tools() []openai.ChatCompletionToolParam {
	list := a.tk.List()
	params := make([]openai.ChatCompletionToolParam, 0, len(list))
	for _, tool := range list {
		params = append(params, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.InputSchema()),
			},
		})
	}
	return params
}

// Execute runs the tool named by a tool call with its JSON-encoded
// arguments and returns the serialized result for the tool message.
func (a *Toolkit) Execute(ctx context.Context, name, argumentsJSON string) (string, error) {
	var args map[string]interface{}
	if argumentsJSON != "" && argumentsJSON != "null" {
		if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
			return "", toolkit.NewError(toolkit.CodeInvalidArgument, "tool arguments are not a JSON object: %v", err)
		}
	}

	result, err := a.tk.Invoke(ctx, name, args)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", toolkit.NewError(toolkit.CodeTransientNetwork, "failed to serialize tool result: %v", err)
	}
	return string(data), nil
}
