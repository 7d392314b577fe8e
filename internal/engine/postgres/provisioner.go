// Package postgres implements the container-backed dataset engine: one
// PostgreSQL instance per dataset, reached on a port derived from its ID.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/JonMunkholm/sqlcourse/internal/core"
)

// InstancePrefix is prepended to the dataset ID to name its instance.
const InstancePrefix = "sqlcourse-"

// LaunchSpec is the structured description of one instance to start.
// Every field is validated before it reaches a Launcher.
type LaunchSpec struct {
	Name     string // Instance (container) name
	HostPort int    // Host port the engine's 5432 is bound to
	Database string
	User     string
	Password string
}

// Launcher starts an instance and returns once the launch command has been
// accepted. It does not wait for readiness.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec) error
}

var (
	instanceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{0,127}$`)
	sqlNamePattern      = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)
)

// Validate checks every field that is passed to the launcher.
func (s LaunchSpec) Validate() error {
	var errs []error
	if !instanceNamePattern.MatchString(s.Name) {
		errs = append(errs, fmt.Errorf("invalid instance name %q", s.Name))
	}
	if s.HostPort < 1 || s.HostPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid host port %d", s.HostPort))
	}
	if !sqlNamePattern.MatchString(s.Database) {
		errs = append(errs, fmt.Errorf("invalid database name %q", s.Database))
	}
	if !sqlNamePattern.MatchString(s.User) {
		errs = append(errs, fmt.Errorf("invalid user %q", s.User))
	}
	if s.Password == "" {
		errs = append(errs, errors.New("password is required"))
	}
	return errors.Join(errs...)
}

// Provisioner launches one instance per dataset.
type Provisioner struct {
	launcher Launcher
	ports    *PortAllocator
	host     string
	database string
	user     string
	password string
}

// Provision reserves the dataset's port and starts its instance. A failed
// launch releases the port and is not retried.
func (p *Provisioner) Provision(ctx context.Context, id string) (core.ConnectionDescriptor, error) {
	port, err := p.ports.Reserve(id)
	if err != nil {
		return core.ConnectionDescriptor{}, err
	}

	spec := LaunchSpec{
		Name:     InstancePrefix + id,
		HostPort: port,
		Database: p.database,
		User:     p.user,
		Password: p.password,
	}
	if err := spec.Validate(); err != nil {
		p.ports.Release(id, port)
		return core.ConnectionDescriptor{}, core.ProvisioningError("validate launch", err)
	}

	if err := p.launcher.Launch(ctx, spec); err != nil {
		p.ports.Release(id, port)
		return core.ConnectionDescriptor{}, core.ProvisioningError("launch",
			fmt.Errorf("start instance %s: %w", spec.Name, err))
	}

	return core.ConnectionDescriptor{
		Host:     p.host,
		Port:     port,
		Database: p.database,
		User:     p.user,
		Password: p.password,
	}, nil
}
