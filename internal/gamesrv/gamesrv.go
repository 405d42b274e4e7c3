// Package gamesrv is the lifecycle gateway to the game server
// container. The engine needs exactly three idempotent operations:
// status, start, stop.
package gamesrv

import "context"

// Status is the game server's container state.
type Status string

const (
	StatusRunning    Status = "running"
	StatusExited     Status = "exited"
	StatusPaused     Status = "paused"
	StatusRestarting Status = "restarting"
	StatusRemoving   Status = "removing"
	StatusDead       Status = "dead"
	StatusCreated    Status = "created"
	StatusStarting   Status = "starting"
	StatusStopping   Status = "stopping"
)

// SafeForRestore reports whether the save directory can be rewritten
// while the server is in this state. Anything that might still hold
// save files open disqualifies.
func (s Status) SafeForRestore() bool {
	switch s {
	case StatusExited, StatusCreated, StatusDead:
		return true
	default:
		return false
	}
}

// Gateway abstracts the container runtime so the engine and its tests
// never touch Docker directly.
type Gateway interface {
	Status(ctx context.Context) (Status, error)
	Start(ctx context.Context) (Status, error)
	Stop(ctx context.Context) (Status, error)
}
