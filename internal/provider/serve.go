package provider

import (
	"context"
	"io"

	"github.com/xdg/hostgate/internal/clog"
)

// ServeOptions configures RunServer.
type ServeOptions struct {
	Roots    []string
	Landlock bool
	In       io.Reader
	Out      io.Writer
}

// RunServer builds a Server, optionally confines the process with Landlock,
// and serves until the input closes. It backs `hostgate provider serve`.
func RunServer(ctx context.Context, opts ServeOptions) error {
	srv, err := NewServer(opts.Roots)
	if err != nil {
		return err
	}
	if opts.Landlock {
		if err := Confine(srv.Roots()); err != nil {
			return err
		}
	}
	clog.Info("provider serving %d root(s)", len(srv.Roots()))
	return srv.Serve(ctx, opts.In, opts.Out)
}
