// Package nodeflow is the public entry point to the NodeFlow core. It hands
// out project sessions while keeping the working store, archive codec and
// graph implementation internal.
package nodeflow

import (
	"github.com/mesh-intelligence/nodeflow/internal/project"
	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

// Version is the release of the core and of the nodeflow command.
const Version = "0.3.0"

// Option configures a session returned by NewSession.
type Option = project.Option

// Session options.
var (
	WithLogger   = project.WithLogger
	WithObserver = project.WithObserver
	WithClock    = project.WithClock
)

// Observer receives one event per finished session operation.
type Observer = project.Observer

// NewLogObserver reports operations as structured log records.
var NewLogObserver = project.NewLogObserver

// NewSession creates a closed session. Call NewProject or OpenProject to
// start working on a project and Close when done.
//
// Example:
//
//	s, err := nodeflow.NewSession(types.Config{})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	if _, err := s.OpenProject(ctx, "plan.nf"); err != nil {
//	    return err
//	}
func NewSession(cfg types.Config, opts ...Option) (types.Session, error) {
	s, err := project.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}
