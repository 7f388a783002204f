package mcp

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mark3labs/mcp-go/mcp"
)

// argumentGetter is satisfied by mcp.CallToolRequest.
type argumentGetter interface {
	GetArguments() map[string]any
}

type scoreRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type synthesizeRequest struct {
	Sources       string   `json:"sources"`
	Targets       string   `json:"targets"`
	MinConfidence *float64 `json:"min_confidence"`
}

type generateRequest struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Language string `json:"language"`
	Rule     string `json:"rule"`
}

// bindArguments decodes tool arguments into target. Clients are loose
// with types: numbers arrive as strings, and documents meant to be passed
// as JSON text arrive as already-decoded objects. Both are accepted.
func bindArguments[T any](request argumentGetter, target *T) *mcp.CallToolResult {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("invalid arguments format")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       documentToTextHook,
		Result:           target,
		TagName:          "json",
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := decoder.Decode(args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

// documentToTextHook re-encodes maps and slices bound for string fields.
func documentToTextHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Map, reflect.Slice:
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	}
	return data, nil
}
