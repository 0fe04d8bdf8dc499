package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/batsdk/wowclass-enlace/observability"
)

// DefaultSweepInterval is the reference liveness cadence. A connection
// that misses two consecutive sweeps is gone within ~60s worst case.
const DefaultSweepInterval = 30 * time.Second

// Reaper periodically pings every tracked connection and terminates the
// ones that never answered the previous sweep. Termination goes through
// the session's single cleanup routine, so reaped connections leave
// their room exactly like a normal disconnect.
type Reaper struct {
	registry contract.IRegistry
	interval time.Duration
	monitor  *observability.Monitor
	log      *slog.Logger
}

func NewReaper(registry contract.IRegistry, interval time.Duration,
	monitor *observability.Monitor, log *slog.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Reaper{registry: registry, interval: interval, monitor: monitor, log: log}
}

func (w *Reaper) Run(ctx context.Context) error {
	w.log.Info("Starting liveness reaper", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep visits every tracked connection once: stale ones are terminated,
// healthy ones get their flag cleared and a fresh ping. The pong
// restores the flag before the next sweep.
func (w *Reaper) Sweep() {
	w.registry.Each(func(m contract.Member) {
		if !m.Alive() {
			w.log.Info("Terminating inactive connection",
				"class_id", m.Room(), "user_id", m.UserID())
			m.Terminate("liveness timeout")
			w.monitor.ConnectionReaped()
			return
		}
		m.ClearAlive()
		if err := m.Ping(); err != nil {
			w.log.Warn("Ping failed, terminating",
				"class_id", m.Room(), "user_id", m.UserID(), "error", err)
			m.Terminate("ping failed")
			w.monitor.ConnectionReaped()
		}
	})
}
