// Package launcher starts dataset database instances as Docker containers.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"

	"github.com/JonMunkholm/sqlcourse/internal/engine/postgres"
)

// DefaultImage is the PostgreSQL image used for dataset instances.
const DefaultImage = "postgres:16-alpine"

const enginePort = "5432/tcp"

// Docker launches one container per LaunchSpec and remembers it so Close can
// stop everything it started.
type Docker struct {
	image  string
	logger *slog.Logger

	mu         sync.Mutex
	containers map[string]testcontainers.Container
}

var _ postgres.Launcher = (*Docker)(nil)

// NewDocker creates a launcher for image (DefaultImage when empty).
func NewDocker(image string, logger *slog.Logger) *Docker {
	if image == "" {
		image = DefaultImage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Docker{
		image:      image,
		logger:     logger,
		containers: make(map[string]testcontainers.Container),
	}
}

// buildRequest translates a validated launch spec into a container request. The
// engine port is bound to its fixed host port and the data directory
// lives on tmpfs. No wait strategy is set: readiness is polled separately.
func buildRequest(image string, spec postgres.LaunchSpec) testcontainers.ContainerRequest {
	hostPort := strconv.Itoa(spec.HostPort)
	return testcontainers.ContainerRequest{
		Image:        image,
		Name:         spec.Name,
		ExposedPorts: []string{enginePort},
		Env: map[string]string{
			"POSTGRES_DB":       spec.Database,
			"POSTGRES_USER":     spec.User,
			"POSTGRES_PASSWORD": spec.Password,
		},
		Tmpfs: map[string]string{
			"/var/lib/postgresql/data": "rw",
		},
		Labels: map[string]string{
			"app": "sqlcourse",
		},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.AutoRemove = true
			hc.PortBindings = nat.PortMap{
				nat.Port(enginePort): []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: hostPort}},
			}
		},
	}
}

// Launch creates and starts the container. It returns as soon as the
// container is running.
func (d *Docker) Launch(ctx context.Context, spec postgres.LaunchSpec) error {
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: buildRequest(d.image, spec),
		Started:          true,
	})
	if err != nil {
		return fmt.Errorf("run container %s: %w", spec.Name, err)
	}

	d.mu.Lock()
	d.containers[spec.Name] = c
	d.mu.Unlock()

	d.logger.Info("container started",
		"name", spec.Name,
		"id", c.GetContainerID(),
		"host_port", spec.HostPort,
	)
	return nil
}

// Running returns the number of containers started and not yet closed.
func (d *Docker) Running() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.containers)
}

// Close terminates every container this launcher started.
func (d *Docker) Close(ctx context.Context) error {
	d.mu.Lock()
	containers := d.containers
	d.containers = make(map[string]testcontainers.Container)
	d.mu.Unlock()

	var errs []error
	for name, c := range containers {
		if err := c.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("terminate %s: %w", name, err))
			continue
		}
		d.logger.Info("container stopped", "name", name)
	}
	return errors.Join(errs...)
}
