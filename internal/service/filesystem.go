package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xdg/hostgate/internal/clog"
	"github.com/xdg/hostgate/internal/fsgateway"
)

// FileGateway performs validated file operations. *fsgateway.Gateway
// implements it.
type FileGateway interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path, content string) (string, error)
	List(ctx context.Context, path string) (string, error)
}

// ReadResult is returned by ReadFile.
type ReadResult struct {
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// WriteResult is returned by WriteFile. Result is the provider's message.
type WriteResult struct {
	Path      string    `json:"path"`
	Result    string    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

// ListResult is returned by ListDirectory.
type ListResult struct {
	Path      string    `json:"path"`
	Contents  string    `json:"contents"`
	Timestamp time.Time `json:"timestamp"`
}

// FilesystemService reads, writes and lists paths through the gateway.
type FilesystemService struct {
	gateway FileGateway
	opts    options

	mu      sync.Mutex
	session Session
}

// NewFilesystemService creates a FilesystemService. The provider is started
// on Connect or by the first operation whose path passes validation.
func NewFilesystemService(gateway FileGateway, opts ...Option) *FilesystemService {
	return &FilesystemService{gateway: gateway, opts: buildOptions(opts)}
}

// Connect starts the provider session. Concurrent and repeated calls share
// one session.
func (s *FilesystemService) Connect(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Connected {
		return true, nil
	}
	if err := s.gateway.Connect(ctx); err != nil {
		clog.Warn("filesystem service failed to connect: %v", err)
		return false, err
	}
	s.session = Session{Connected: true, Since: s.opts.now()}
	clog.Debug("filesystem service connected")
	return true, nil
}

// Disconnect stops the provider session. The gateway is always told to
// disconnect, since an operation that failed after starting the provider
// leaves it running without a recorded session.
func (s *FilesystemService) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Connected {
		clog.Debug("filesystem service disconnected")
	}
	s.session = Session{}
	return s.gateway.Disconnect()
}

// Session returns a copy of the current session state.
func (s *FilesystemService) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ReadFile returns the content of path.
func (s *FilesystemService) ReadFile(ctx context.Context, path string) (*ReadResult, error) {
	content, err := s.gateway.Read(ctx, path)
	if err != nil {
		s.auditFailure(fsgateway.OpRead, path, err)
		return nil, err
	}
	s.recordSession(ctx)
	auditErr(s.opts.audit.LogRead(path))
	return &ReadResult{Path: path, Content: content, Timestamp: s.opts.now()}, nil
}

// WriteFile replaces the content of path.
func (s *FilesystemService) WriteFile(ctx context.Context, path, content string) (*WriteResult, error) {
	msg, err := s.gateway.Write(ctx, path, content)
	if err != nil {
		s.auditFailure(fsgateway.OpWrite, path, err)
		return nil, err
	}
	s.recordSession(ctx)
	auditErr(s.opts.audit.LogWrite(path, len(content)))
	return &WriteResult{Path: path, Result: msg, Timestamp: s.opts.now()}, nil
}

// ListDirectory returns the listing of path.
func (s *FilesystemService) ListDirectory(ctx context.Context, path string) (*ListResult, error) {
	contents, err := s.gateway.List(ctx, path)
	if err != nil {
		s.auditFailure(fsgateway.OpList, path, err)
		return nil, err
	}
	s.recordSession(ctx)
	auditErr(s.opts.audit.LogList(path))
	return &ListResult{Path: path, Contents: contents, Timestamp: s.opts.now()}, nil
}

// recordSession marks the session open after the gateway started the
// provider on demand. The gateway connects only once a path has passed
// validation, so a denied request never starts a provider.
func (s *FilesystemService) recordSession(ctx context.Context) {
	if _, err := s.Connect(ctx); err != nil {
		clog.Debug("filesystem session not recorded: %v", err)
	}
}

func (s *FilesystemService) auditFailure(op, path string, err error) {
	var denied *fsgateway.AccessDeniedError
	if errors.As(err, &denied) {
		clog.Info("%s denied: %s", op, denied.Reason)
		auditErr(s.opts.audit.LogFileDeny(op, path, denied.Reason))
		return
	}
	clog.Debug("%s %q failed: %v", op, path, err)
	auditErr(s.opts.audit.LogFileError(op, path, err))
}
