package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xdg/hostgate/internal/clog"
	"github.com/xdg/hostgate/internal/pathutil"
	"github.com/xdg/hostgate/internal/version"
)

// MaxReadSize is the largest file the built-in server returns.
const MaxReadSize = 10 << 20

var pathSchema = json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`)

var writeSchema = json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"},"content":{"type":"string"}},"required":["path","content"]}`)

// builtinTools is what the built-in server advertises.
var builtinTools = []Tool{
	{Name: ToolReadTextFile, Description: "Read a UTF-8 text file.", InputSchema: pathSchema},
	{Name: ToolReadFile, Description: "Read a UTF-8 text file (alias of read_text_file).", InputSchema: pathSchema},
	{Name: ToolWriteFile, Description: "Create or overwrite a file.", InputSchema: writeSchema},
	{Name: ToolListDirectory, Description: "List a directory, one [DIR] or [FILE] entry per line.", InputSchema: pathSchema},
	{Name: ToolAllowedDirs, Description: "List the directories this server may access.", InputSchema: json.RawMessage(`{"type":"object"}`)},
}

// Server is the built-in filesystem provider. Every path is resolved through
// symlinks and must land inside one of the roots.
type Server struct {
	roots []string

	mu sync.Mutex // guards writes to the output stream
}

// NewServer creates a Server for the given root directories. Each root must
// exist and is stored in canonical form.
func NewServer(roots []string) (*Server, error) {
	if len(roots) == 0 {
		return nil, errors.New("at least one root is required")
	}
	s := &Server{}
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("invalid root %q: %w", r, err)
		}
		real, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, fmt.Errorf("invalid root %q: %w", r, err)
		}
		info, err := os.Stat(real)
		if err != nil {
			return nil, fmt.Errorf("invalid root %q: %w", r, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("invalid root %q: not a directory", r)
		}
		s.roots = append(s.roots, real)
	}
	return s, nil
}

// Roots returns the canonical root directories.
func (s *Server) Roots() []string {
	return append([]string(nil), s.roots...)
}

// Serve reads requests from r and writes responses to w until r is
// exhausted or ctx is canceled. Requests are handled one at a time.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := readLine(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read request: %w", err)
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(w, nil, CodeParseError, "invalid JSON: "+err.Error())
			continue
		}
		if req.ID == nil {
			// Notifications need no reply.
			continue
		}
		if req.JSONRPC != jsonrpcVersion || req.Method == "" {
			s.writeError(w, req.ID, CodeInvalidRequest, "invalid request")
			continue
		}

		result, rpcErr := s.dispatch(req)
		if rpcErr != nil {
			s.writeError(w, req.ID, rpcErr.Code, rpcErr.Message)
			continue
		}
		s.writeResult(w, req.ID, result)
	}
}

func (s *Server) dispatch(req Request) (any, *RPCError) {
	switch req.Method {
	case MethodInitialize:
		return InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      Implementation{Name: "hostgate", Version: version.Version},
		}, nil
	case MethodPing:
		return struct{}{}, nil
	case MethodToolsList:
		return ListToolsResult{Tools: builtinTools}, nil
	case MethodToolsCall:
		var params CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
		}
		return s.callTool(params), nil
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "method not found: " + req.Method}
	}
}

// callTool runs a tool. Failures are tool results with isError set, not
// protocol errors.
func (s *Server) callTool(params CallToolParams) *CallToolResult {
	text, err := s.runTool(params.Name, params.Arguments)
	if err != nil {
		clog.Debug("tool %s failed: %v", params.Name, err)
		return textResult("Error: "+err.Error(), true)
	}
	return textResult(text, false)
}

func (s *Server) runTool(name string, args map[string]any) (string, error) {
	switch name {
	case ToolReadTextFile, ToolReadFile:
		p, err := s.pathArg(args)
		if err != nil {
			return "", err
		}
		return s.readFile(p)
	case ToolWriteFile:
		p, err := s.pathArg(args)
		if err != nil {
			return "", err
		}
		content, ok := args["content"].(string)
		if !ok {
			return "", errors.New("missing string argument: content")
		}
		if err := writeFile(p, content); err != nil {
			return "", err
		}
		return "Successfully wrote to " + args["path"].(string), nil
	case ToolListDirectory:
		p, err := s.pathArg(args)
		if err != nil {
			return "", err
		}
		return listDirectory(p)
	case ToolAllowedDirs:
		return "Allowed directories:\n" + strings.Join(s.roots, "\n"), nil
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// pathArg extracts the path argument and confines it to the roots.
func (s *Server) pathArg(args map[string]any) (string, error) {
	raw, ok := args["path"].(string)
	if !ok || raw == "" {
		return "", errors.New("missing string argument: path")
	}
	return s.confine(raw)
}

// confine resolves p (relative to the working directory) through symlinks
// and checks the result against the roots.
func (s *Server) confine(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	real, err := pathutil.Canonicalize(abs)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", p, err)
	}
	for _, root := range s.roots {
		if pathutil.Within(root, real) {
			return real, nil
		}
	}
	return "", fmt.Errorf("access denied - path outside allowed directories: %s", p)
}

func (s *Server) readFile(p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if err := requireRegular(p, info); err != nil {
		return "", err
	}
	if info.Size() > MaxReadSize {
		return "", fmt.Errorf("%s is too large (%d bytes, max %d)", p, info.Size(), MaxReadSize)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeFile replaces p, which must be absent or a regular file.
func writeFile(p, content string) error {
	info, err := os.Stat(p)
	switch {
	case err == nil:
		if err := requireRegular(p, info); err != nil {
			return err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}
	return os.WriteFile(p, []byte(content), 0o644)
}

// requireRegular rejects directories, FIFOs, sockets and devices. Opening a
// FIFO blocks until a peer appears.
func requireRegular(p string, info fs.FileInfo) error {
	switch {
	case info.IsDir():
		return fmt.Errorf("%s is a directory", p)
	case !info.Mode().IsRegular():
		return fmt.Errorf("%s is not a regular file", p)
	}
	return nil
}

// listDirectory formats entries as "[DIR] name" or "[FILE] name", sorted by name.
func listDirectory(p string) (string, error) {
	entries, err := os.ReadDir(p)
	if err != nil {
		return "", err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		kind := "[FILE]"
		if e.IsDir() {
			kind = "[DIR]"
		}
		lines = append(lines, kind+" "+e.Name())
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Server) writeResult(w io.Writer, id *int64, result any) {
	raw, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, id, CodeInternalError, "failed to marshal result")
		return
	}
	s.write(w, Response{JSONRPC: jsonrpcVersion, ID: id, Result: raw})
}

func (s *Server) writeError(w io.Writer, id *int64, code int, msg string) {
	s.write(w, Response{JSONRPC: jsonrpcVersion, ID: id, Error: &RPCError{Code: code, Message: msg}})
}

func (s *Server) write(w io.Writer, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeMessage(w, resp); err != nil {
		clog.Warn("failed to write provider response: %v", err)
	}
}
