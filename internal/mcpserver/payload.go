package mcpserver

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rxtech-lab/ibkr-mcp-server/pkg/errors"
)

// successResult renders a value as indented JSON text content.
func successResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(errors.Wrap(errors.ErrCodeUnknown, "failed to encode result", err))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// errorPayload is the error shape reported to clients: a stable kind to
// branch on plus a human-readable message. Numeric codes stay internal.
type errorPayload struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errorResult renders any error as an error payload with IsError set. The
// call itself still succeeds at the protocol level.
func errorResult(err error) *mcp.CallToolResult {
	payload := errorPayload{
		Error: errorBody{
			Kind:    string(errors.KindOf(err)),
			Message: errors.MessageOf(err),
		},
	}

	data, marshalErr := json.MarshalIndent(payload, "", "  ")
	if marshalErr != nil {
		data = []byte(`{"error":{"kind":"Internal","message":"failed to encode error"}}`)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}

// rawArguments normalizes the SDK's argument value: over the wire it is a
// json.RawMessage, in-process clients may pass any marshalable value.
func rawArguments(args any) (json.RawMessage, error) {
	switch v := args.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "unreadable tool arguments", err)
		}

		return data, nil
	}
}

// unmarshalArgs decodes raw tool arguments into dst. Absent arguments mean
// an empty object.
func unmarshalArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid tool arguments", err)
	}

	return nil
}
