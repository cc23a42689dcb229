package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"
)

const clientName = "discord-mcp-client"

// ClientConfig configures the server subprocess the client drives.
type ClientConfig struct {
	Command string
	Args    []string
	Env     map[string]string // extra environment for the subprocess
	Logger  *slog.Logger
}

// Client launches an MCP server as a subprocess and drives it over stdio
// pipes: initialize handshake, tools/list, tools/call. Requests are issued
// one at a time; responses are matched by id.
type Client struct {
	command string
	args    []string
	env     map[string]string
	logger  *slog.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader
	nextID int
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		command: cfg.Command,
		args:    cfg.Args,
		env:     cfg.Env,
		logger:  cfg.Logger,
	}
}

// Start launches the server subprocess and wires up its stdio pipes. The
// subprocess inherits the parent environment plus the configured extras;
// its stderr (the server's log stream) passes through to ours.
func (c *Client) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Env = os.Environ()
	for k, v := range c.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start server %s: %w", c.command, err)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.reader = bufio.NewReader(stdout)
	c.logger.Info("server subprocess started", "command", c.command, "pid", cmd.Process.Pid)
	return nil
}

// SetIO connects the client to an in-process server, used by tests.
func (c *Client) SetIO(r io.Reader, w io.Writer) {
	c.reader = bufio.NewReader(r)
	c.stdin = nopWriteCloser{w}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Initialize performs the MCP handshake: initialize request followed by the
// initialized notification.
func (c *Client) Initialize(ctx context.Context) (*InitializeResult, error) {
	raw, err := c.call("initialize", InitializeParams{
		ProtocolVersion: protocolVersion,
		ClientInfo:      &ServerInfo{Name: clientName, Version: "1"},
		Capabilities:    &Capabilities{},
	})
	if err != nil {
		return nil, err
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode initialize result: %w", err)
	}

	if err := c.notify("notifications/initialized"); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTools returns the server's tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	raw, err := c.call("tools/list", nil)
	if err != nil {
		return nil, err
	}
	var result ToolsListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode tools/list result: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a named tool with the given arguments.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	raw, err := c.call("tools/call", ToolCallParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}
	var result ToolCallResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode tools/call result: %w", err)
	}
	return &result, nil
}

// rpcReply mirrors Response with a raw result, so callers decode into
// their own types.
type rpcReply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

func (c *Client) call(method string, params any) (json.RawMessage, error) {
	if c.stdin == nil || c.reader == nil {
		return nil, fmt.Errorf("client not started")
	}

	c.nextID++
	id := strconv.Itoa(c.nextID)
	req := Request{JSONRPC: "2.0", ID: json.RawMessage(id), Method: method}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = b
	}

	if err := c.write(req); err != nil {
		return nil, err
	}

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		var reply rpcReply
		if err := json.Unmarshal(line, &reply); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if reply.ID == nil || string(reply.ID) != id {
			// Server-initiated notification or a stale reply; skip.
			continue
		}
		if reply.Error != nil {
			return nil, fmt.Errorf("rpc error %d: %s", reply.Error.Code, reply.Error.Message)
		}
		return reply.Result, nil
	}
}

func (c *Client) notify(method string) error {
	return c.write(Notification{JSONRPC: "2.0", Method: method})
}

func (c *Client) write(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	if _, err := c.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	return nil
}

// Close shuts the subprocess down by closing its stdin (the server exits on
// EOF) and waiting, with a kill as last resort.
func (c *Client) Close() error {
	if c.stdin != nil {
		c.stdin.Close()
	}
	if c.cmd == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		c.logger.Warn("server subprocess did not exit, killing", "pid", c.cmd.Process.Pid)
		c.cmd.Process.Kill()
		return <-done
	}
}
