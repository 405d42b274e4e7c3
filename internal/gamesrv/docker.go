package gamesrv

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/dukerupert/saveward/internal/model"
)

const (
	inspectTimeout = 10 * time.Second
	startTimeout   = 60 * time.Second
	stopTimeout    = 90 * time.Second

	// stopGraceSeconds is passed to the engine so the game server can
	// flush saves before being killed.
	stopGraceSeconds = 30
)

// DockerGateway drives the game server container through the Docker
// Engine API.
type DockerGateway struct {
	cli       *client.Client
	container string
}

// NewDockerGateway connects to the Docker daemon from the environment
// (DOCKER_HOST et al) with API version negotiation.
func NewDockerGateway(containerName string) (*DockerGateway, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &DockerGateway{cli: cli, container: containerName}, nil
}

// Close releases the underlying client.
func (g *DockerGateway) Close() error {
	return g.cli.Close()
}

// Status inspects the container and maps its state to a Status.
func (g *DockerGateway) Status(ctx context.Context) (Status, error) {
	ctx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	info, err := g.cli.ContainerInspect(ctx, g.container)
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", &model.NotFoundError{Resource: "container", Name: g.container}
		}
		return "", fmt.Errorf("inspect container %s: %w", g.container, err)
	}
	return Status(info.State.Status), nil
}

// Start starts the container if it is not already running and returns
// the resulting status.
func (g *DockerGateway) Start(ctx context.Context) (Status, error) {
	opCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := g.cli.ContainerStart(opCtx, g.container, container.StartOptions{}); err != nil {
		if client.IsErrNotFound(err) {
			return "", &model.NotFoundError{Resource: "container", Name: g.container}
		}
		return "", fmt.Errorf("start container %s: %w", g.container, err)
	}
	return g.Status(ctx)
}

// Stop stops the container with a grace period and returns the
// resulting status. Stopping an already-stopped container is not an
// error.
func (g *DockerGateway) Stop(ctx context.Context) (Status, error) {
	opCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	grace := stopGraceSeconds
	if err := g.cli.ContainerStop(opCtx, g.container, container.StopOptions{Timeout: &grace}); err != nil {
		if client.IsErrNotFound(err) {
			return "", &model.NotFoundError{Resource: "container", Name: g.container}
		}
		return "", fmt.Errorf("stop container %s: %w", g.container, err)
	}
	return g.Status(ctx)
}
