package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"discordmcp/internal/domain"
	"discordmcp/internal/metrics"
	"discordmcp/internal/tool"

	"github.com/google/uuid"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "discord-mcp"
)

// Server speaks JSON-RPC 2.0 over stdio, one JSON object per line, and
// dispatches tools/call requests to the registry. Per-request failures are
// reported as structured errors; nothing a request does can bring the
// process down.
type Server struct {
	registry *tool.Registry
	version  string
	logger   *slog.Logger
	reader   *bufio.Reader
	writer   io.Writer

	calls    *metrics.Counter
	failures *metrics.Counter
}

// NewServer creates an MCP server bound to stdin/stdout.
func NewServer(registry *tool.Registry, version string, logger *slog.Logger) *Server {
	return &Server{
		registry: registry,
		version:  version,
		logger:   logger,
		reader:   bufio.NewReader(os.Stdin),
		writer:   os.Stdout,
		calls:    metrics.Collector.Counter("mcp_tool_calls_total", "Tool invocations received"),
		failures: metrics.Collector.Counter("mcp_tool_errors_total", "Tool invocations that returned an error"),
	}
}

// SetIO allows setting custom IO for testing.
func (s *Server) SetIO(r io.Reader, w io.Writer) {
	s.reader = bufio.NewReader(r)
	s.writer = w
}

// Run processes requests until EOF or context cancellation.
func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}

		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(nil, ParseError, "Parse error", nil)
			continue
		}

		if req.JSONRPC != "2.0" {
			s.sendError(req.ID, InvalidRequest, "Invalid JSON-RPC version", nil)
			continue
		}

		s.handleRequest(ctx, &req)
	}
}

func (s *Server) handleRequest(ctx context.Context, req *Request) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Notification, no response needed
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(ctx, req)
	case "ping":
		s.sendResult(req.ID, map[string]any{})
	default:
		s.sendError(req.ID, MethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
}

func (s *Server) handleInitialize(req *Request) {
	var params InitializeParams
	if len(req.Params) > 0 {
		json.Unmarshal(req.Params, &params)
	}
	if params.ClientInfo != nil {
		s.logger.Info("client connected", "client", params.ClientInfo.Name, "client_version", params.ClientInfo.Version)
	}

	s.sendResult(req.ID, InitializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo: ServerInfo{
			Name:    serverName,
			Version: s.version,
		},
		Capabilities: Capabilities{
			Tools: map[string]any{},
		},
	})
}

func (s *Server) handleToolsList(req *Request) {
	defs := s.registry.Definitions()
	tools := make([]Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.Parameters,
		})
	}
	s.sendResult(req.ID, ToolsListResult{Tools: tools})
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, InvalidParams, "Invalid params", nil)
		return
	}

	invocation := uuid.NewString()
	s.calls.Inc()
	s.logger.Info("tool call", "invocation", invocation, "tool", params.Name)

	result, err := s.registry.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		s.failures.Inc()
		s.logger.Warn("tool call failed", "invocation", invocation, "tool", params.Name, "err", err)
		s.sendError(req.ID, rpcCode(err), err.Error(), nil)
		return
	}

	s.logger.Info("tool call succeeded", "invocation", invocation, "tool", params.Name)
	s.sendResult(req.ID, ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: result}},
	})
}

// rpcCode maps classified errors onto JSON-RPC error codes. Argument and
// name problems are the caller's fault (-32602); delivery failures and
// anything unclassified are internal (-32603).
func rpcCode(err error) int {
	switch kind, _ := domain.KindOf(err); kind {
	case domain.ErrInvalidParams, domain.ErrUnknownTool:
		return InvalidParams
	default:
		return InternalError
	}
}

func (s *Server) sendResult(id json.RawMessage, result any) {
	s.send(Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *Server) sendError(id json.RawMessage, code int, message string, data any) {
	s.send(Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

func (s *Server) send(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response", "err", err)
		return
	}
	s.writer.Write(append(data, '\n'))
}
