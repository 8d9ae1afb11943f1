package system

import "context"

// Service is one startable unit of the server: a store, a background
// reaper, the HTTP listener. The manager starts services in registration
// order and stops them in reverse.
type Service interface {
	// Name identifies the service in logs.
	Name() string
	// Start brings the service up. Long-running work belongs in goroutines
	// the service owns; Start itself must return promptly.
	Start(ctx context.Context) error
	// Stop shuts the service down and releases what Start acquired.
	Stop(ctx context.Context) error
}
