package sessions

import (
	"context"
	"time"

	"github.com/storeadmin/blocklayer/pkg/logger"
)

// Reaper periodically drops expired edit sessions. It is registered with
// the application's lifecycle manager.
type Reaper struct {
	svc      *Service
	interval time.Duration
	log      *logger.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewReaper builds a reaper over the session service. A non-positive
// interval defaults to five minutes.
func NewReaper(svc *Service, interval time.Duration, log *logger.Logger) *Reaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if log == nil {
		log = logger.NewDefault("sessions")
	}
	return &Reaper{svc: svc, interval: interval, log: log}
}

// Name identifies the reaper to the lifecycle manager.
func (r *Reaper) Name() string { return "session-reaper" }

// Start launches the background loop.
func (r *Reaper) Start(ctx context.Context) error {
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				remaining := r.svc.Reap()
				r.log.WithField("active_sessions", remaining).Debug("session reap pass")
			case <-r.stop:
				return
			}
		}
	}()
	return nil
}

// Stop halts the loop and waits for it to exit.
func (r *Reaper) Stop(ctx context.Context) error {
	if r.stop == nil {
		return nil
	}
	close(r.stop)
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
