// Package fsgateway performs file reads, writes and listings for paths that
// pass the path validator. All I/O is delegated to a provider process whose
// roots were fixed when it started; the gateway never touches the filesystem
// itself.
package fsgateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xdg/hostgate/internal/clog"
	"github.com/xdg/hostgate/internal/provider"
	"github.com/xdg/hostgate/internal/rules"
)

// Operation names used in errors and audit records.
const (
	OpRead  = "read"
	OpWrite = "write"
	OpList  = "list"
)

// ErrNoProvider is wrapped in a ProviderConnectionError when the gateway
// was built without a way to start a provider.
var ErrNoProvider = errors.New("no filesystem provider configured")

// AccessDeniedError is returned when a path fails validation. No I/O is
// attempted.
type AccessDeniedError struct {
	Op     string
	Path   string
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return "Access denied: " + e.Reason
}

// ProviderConnectionError is returned when the provider cannot be started.
type ProviderConnectionError struct {
	Err error
}

func (e *ProviderConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to filesystem provider: %v", e.Err)
}

func (e *ProviderConnectionError) Unwrap() error {
	return e.Err
}

// PathChecker validates a path. *pathguard.Validator implements it.
type PathChecker interface {
	IsSafe(path string) rules.Verdict
}

// Provider performs the actual I/O. *provider.Client implements it.
type Provider interface {
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string) (string, error)
	ListDirectory(ctx context.Context, path string) (string, error)
	Close() error
}

// StartFunc starts a provider session.
type StartFunc func(ctx context.Context) (Provider, error)

// ProviderStarter returns a StartFunc that launches a provider child process
// with opts. The roots in opts are fixed for the life of each process.
func ProviderStarter(opts provider.Options) StartFunc {
	return func(ctx context.Context) (Provider, error) {
		c, err := provider.Start(ctx, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Gateway validates paths and forwards safe requests to the provider.
type Gateway struct {
	paths PathChecker
	start StartFunc

	mu     sync.Mutex
	client Provider
}

// New creates a Gateway. The provider is not started until Connect or the
// first operation.
func New(paths PathChecker, start StartFunc) *Gateway {
	return &Gateway{paths: paths, start: start}
}

// Connect starts the provider if it is not already running. Concurrent calls
// start at most one provider.
func (g *Gateway) Connect(ctx context.Context) error {
	_, err := g.session(ctx)
	return err
}

// Connected reports whether a provider session is open.
func (g *Gateway) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client != nil
}

// Disconnect stops the provider. It is a no-op when not connected.
func (g *Gateway) Disconnect() error {
	g.mu.Lock()
	client := g.client
	g.client = nil
	g.mu.Unlock()

	if client == nil {
		return nil
	}
	clog.Debug("filesystem provider disconnecting")
	return client.Close()
}

// Read returns the content of path.
func (g *Gateway) Read(ctx context.Context, path string) (string, error) {
	client, err := g.authorize(ctx, OpRead, path)
	if err != nil {
		return "", err
	}
	content, err := client.ReadFile(ctx, path)
	return content, g.release(client, err)
}

// Write replaces the content of path and returns the provider's message.
func (g *Gateway) Write(ctx context.Context, path, content string) (string, error) {
	client, err := g.authorize(ctx, OpWrite, path)
	if err != nil {
		return "", err
	}
	msg, err := client.WriteFile(ctx, path, content)
	return msg, g.release(client, err)
}

// List returns the provider's listing of path.
func (g *Gateway) List(ctx context.Context, path string) (string, error) {
	client, err := g.authorize(ctx, OpList, path)
	if err != nil {
		return "", err
	}
	listing, err := client.ListDirectory(ctx, path)
	return listing, g.release(client, err)
}

// authorize validates path and returns the provider to use for it. The path
// is passed on unchanged.
func (g *Gateway) authorize(ctx context.Context, op, path string) (Provider, error) {
	if v := g.paths.IsSafe(path); !v.Valid {
		clog.Debug("%s denied for %q: %s", op, path, v.Reason)
		return nil, &AccessDeniedError{Op: op, Path: path, Reason: v.Reason}
	}
	return g.session(ctx)
}

func (g *Gateway) session(ctx context.Context) (Provider, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	if g.start == nil {
		return nil, &ProviderConnectionError{Err: ErrNoProvider}
	}
	client, err := g.start(ctx)
	if err != nil {
		return nil, &ProviderConnectionError{Err: err}
	}
	clog.Debug("filesystem provider connected")
	g.client = client
	return client, nil
}

// release drops client when its provider has exited so the next operation
// starts a new one with the same roots. It returns err unchanged.
func (g *Gateway) release(client Provider, err error) error {
	if !errors.Is(err, provider.ErrClosed) {
		return err
	}
	g.mu.Lock()
	current := g.client == client
	if current {
		g.client = nil
	}
	g.mu.Unlock()

	if current {
		clog.Warn("filesystem provider exited; restarting on next use")
		_ = client.Close()
	}
	return err
}
