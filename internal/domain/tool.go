package domain

import "context"

// Tool is the interface for operations exposed to MCP clients.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ToolDefinition is the advertised form of a tool: name, description, and
// JSON Schema input parameters.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Sender delivers messages to a configured destination.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
