package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xdg/hostgate/internal/clog"
	"github.com/xdg/hostgate/internal/version"
)

// Default timeouts for starting the provider and for each tool call.
const (
	DefaultStartTimeout = 10 * time.Second
	DefaultCallTimeout  = 30 * time.Second
)

// closeGrace is how long Close waits for the provider to exit after its
// stdin is closed before killing it.
const closeGrace = 2 * time.Second

var (
	// ErrToolUnavailable is returned when the provider does not offer a tool
	// for the requested operation.
	ErrToolUnavailable = errors.New("provider does not offer this operation")

	// ErrClosed is returned by calls on a closed or exited provider.
	ErrClosed = errors.New("provider is closed")
)

// ToolError is a failure reported by the provider inside a tool result.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Tool, e.Message)
}

// Operation is a filesystem operation the client can map to a tool.
type Operation string

// Supported operations.
const (
	OpRead  Operation = "read"
	OpWrite Operation = "write"
	OpList  Operation = "list"
)

// toolCandidates lists acceptable tool names per operation, most preferred first.
var toolCandidates = map[Operation][]string{
	OpRead:  {ToolReadTextFile, ToolReadFile},
	OpWrite: {ToolWriteFile},
	OpList:  {ToolListDirectory},
}

// Options configures a provider child process.
type Options struct {
	// Command is the provider argv. Roots are appended as trailing arguments.
	Command []string
	// Roots are the directories the provider may touch. They are fixed for
	// the lifetime of the process.
	Roots []string
	// Dir is the provider's working directory, which relative paths resolve
	// against. It should match the path validator's base directory.
	Dir string
	// Env is the provider environment. Nil inherits the current environment.
	Env []string

	StartTimeout time.Duration
	CallTimeout  time.Duration
}

// Client talks to one provider child process. Calls are serialized.
type Client struct {
	callTimeout time.Duration

	mu     sync.Mutex // serializes request/response pairs
	stdin  io.WriteCloser
	nextID int64
	tools  map[Operation]string

	cmd       *exec.Cmd
	stderr    *clog.LineWriter
	responses chan *Response
	exited    chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

// Start launches the provider, performs the initialize handshake and maps
// operations to the tools it advertises.
func Start(ctx context.Context, opts Options) (*Client, error) {
	if len(opts.Command) == 0 {
		return nil, errors.New("provider command is empty")
	}
	if len(opts.Roots) == 0 {
		return nil, errors.New("provider needs at least one root")
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = DefaultStartTimeout
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}

	argv := append(append([]string{}, opts.Command...), opts.Roots...)
	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // G204: argv comes from operator config
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env

	stderr := clog.NewLineWriter(clog.LevelDebug, "provider")
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create provider stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create provider stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start provider %q: %w", argv[0], err)
	}
	clog.Debug("provider started: pid=%d argv=%q", cmd.Process.Pid, argv)

	c := &Client{
		callTimeout: opts.CallTimeout,
		stdin:       stdin,
		cmd:         cmd,
		stderr:      stderr,
		responses:   make(chan *Response, 16),
		exited:      make(chan struct{}),
	}
	go c.readLoop(bufio.NewReader(stdout))

	startCtx, cancel := context.WithTimeout(ctx, opts.StartTimeout)
	defer cancel()
	if err := c.handshake(startCtx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("provider handshake failed: %w", err)
	}
	return c, nil
}

func (c *Client) handshake(ctx context.Context) error {
	var init InitializeResult
	params := InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      Implementation{Name: "hostgate", Version: version.Version},
	}
	if err := c.roundTrip(ctx, MethodInitialize, params, &init); err != nil {
		return err
	}
	clog.Debug("provider initialized: server=%s/%s protocol=%s",
		init.ServerInfo.Name, init.ServerInfo.Version, init.ProtocolVersion)

	if err := c.notify(MethodInitialized); err != nil {
		return err
	}

	var list ListToolsResult
	if err := c.roundTrip(ctx, MethodToolsList, struct{}{}, &list); err != nil {
		return err
	}
	c.tools = mapTools(list.Tools)
	if len(c.tools) == 0 {
		clog.Warn("provider advertises no filesystem tools")
	}
	return nil
}

// mapTools picks the preferred advertised tool for each operation.
func mapTools(tools []Tool) map[Operation]string {
	offered := make(map[string]bool, len(tools))
	for _, t := range tools {
		offered[t.Name] = true
	}
	mapped := make(map[Operation]string)
	for op, candidates := range toolCandidates {
		for _, name := range candidates {
			if offered[name] {
				mapped[op] = name
				break
			}
		}
	}
	return mapped
}

// Tool returns the tool name mapped to op, if any.
func (c *Client) Tool(op Operation) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.tools[op]
	return name, ok
}

// ReadFile returns the text content of path.
func (c *Client) ReadFile(ctx context.Context, path string) (string, error) {
	return c.callOp(ctx, OpRead, map[string]any{"path": path})
}

// WriteFile replaces the content of path and returns the provider's message.
func (c *Client) WriteFile(ctx context.Context, path, content string) (string, error) {
	return c.callOp(ctx, OpWrite, map[string]any{"path": path, "content": content})
}

// ListDirectory returns the provider's listing of path.
func (c *Client) ListDirectory(ctx context.Context, path string) (string, error) {
	return c.callOp(ctx, OpList, map[string]any{"path": path})
}

func (c *Client) callOp(ctx context.Context, op Operation, args map[string]any) (string, error) {
	name, ok := c.Tool(op)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolUnavailable, op)
	}
	res, err := c.CallTool(ctx, name, args)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// CallTool invokes a tool by name. A result flagged isError is returned as
// a *ToolError.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var res CallToolResult
	if err := c.roundTrip(ctx, MethodToolsCall, CallToolParams{Name: name, Arguments: args}, &res); err != nil {
		return nil, err
	}
	if res.IsError {
		return nil, &ToolError{Tool: name, Message: res.Text()}
	}
	return &res, nil
}

// roundTrip sends one request and waits for the response with the same id.
// Responses left over from abandoned calls are dropped.
func (c *Client) roundTrip(ctx context.Context, method string, params, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return ErrClosed
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal %s params: %w", method, err)
	}
	c.nextID++
	id := c.nextID
	req := Request{JSONRPC: jsonrpcVersion, ID: &id, Method: method, Params: raw}
	if err := writeMessage(c.stdin, req); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	for {
		select {
		case resp, ok := <-c.responses:
			if !ok {
				return fmt.Errorf("%s: %w", method, ErrClosed)
			}
			if resp.ID == nil || *resp.ID != id {
				clog.Debug("dropping stale provider response")
				continue
			}
			if resp.Error != nil {
				return fmt.Errorf("%s: %w", method, resp.Error)
			}
			if result != nil && len(resp.Result) > 0 {
				if err := json.Unmarshal(resp.Result, result); err != nil {
					return fmt.Errorf("%s: invalid result: %w", method, err)
				}
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("%s: provider call timed out: %w", method, ctx.Err())
		}
	}
}

func (c *Client) notify(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}
	return writeMessage(c.stdin, Request{JSONRPC: jsonrpcVersion, Method: method})
}

// readLoop forwards responses until stdout closes. Lines that are not
// responses (server notifications, garbage) are logged and skipped.
func (c *Client) readLoop(r *bufio.Reader) {
	defer close(c.responses)
	for {
		line, err := readLine(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && !c.closed.Load() {
				clog.Debug("provider stdout read failed: %v", err)
			}
			return
		}
		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			clog.Debug("ignoring non-JSON provider output: %q", line)
			continue
		}
		if resp.ID == nil {
			continue
		}
		c.responses <- &resp
	}
}

// Close stops the provider: stdin is closed so it can exit cleanly, and it
// is killed if it has not exited within a short grace period. Close is
// idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.stdin.Close()

		go func() {
			err := c.cmd.Wait()
			if err != nil {
				clog.Debug("provider exited: %v", err)
			}
			close(c.exited)
		}()

		select {
		case <-c.exited:
		case <-time.After(closeGrace):
			clog.Warn("provider did not exit after %s, killing it", closeGrace)
			_ = c.cmd.Process.Kill()
			<-c.exited
		}
		_ = c.stderr.Close()
		// Unblock readLoop if it is waiting to deliver a response.
		for range c.responses {
		}
	})
	return nil
}
