// Package observability aggregates relay telemetry for logs and the
// stats endpoint.
package observability

import (
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// RelayStats is one snapshot of the relay's counters plus process
// metrics.
type RelayStats struct {
	OpenConnections  int64   `json:"open_connections"`
	MessagesRelayed  uint64  `json:"messages_relayed"`
	TypingRelayed    uint64  `json:"typing_relayed"`
	HandshakesFailed uint64  `json:"handshakes_failed"`
	Reaped           uint64  `json:"reaped"`
	AllocMemMb       uint64  `json:"alloc_mem_mb"`
	NumGC            uint32  `json:"num_gc"`
	RssBytes         uint64  `json:"rss_bytes"`
	CPUPercent       float64 `json:"cpu_percent"`
	UptimeSeconds    int64   `json:"uptime_seconds"`
}

// Monitor owns the relay's atomic counters. All increment methods are
// safe for concurrent use by connection handlers and the reaper.
type Monitor struct {
	started time.Time
	proc    *process.Process

	openConnections  atomic.Int64
	messagesRelayed  atomic.Uint64
	typingRelayed    atomic.Uint64
	handshakesFailed atomic.Uint64
	reaped           atomic.Uint64
}

func NewMonitor() *Monitor {
	m := &Monitor{started: time.Now()}
	// Process stats are best-effort: a failure here only blanks the
	// RSS/CPU fields of snapshots.
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		m.proc = p
	}
	return m
}

func (m *Monitor) ConnectionOpened() { m.openConnections.Add(1) }
func (m *Monitor) ConnectionClosed() { m.openConnections.Add(-1) }
func (m *Monitor) MessageRelayed()   { m.messagesRelayed.Add(1) }
func (m *Monitor) TypingRelayed()    { m.typingRelayed.Add(1) }
func (m *Monitor) HandshakeFailed()  { m.handshakesFailed.Add(1) }
func (m *Monitor) ConnectionReaped() { m.reaped.Add(1) }

// Snapshot renders the current counters with memory and CPU figures for
// this process.
func (m *Monitor) Snapshot() RelayStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := RelayStats{
		OpenConnections:  m.openConnections.Load(),
		MessagesRelayed:  m.messagesRelayed.Load(),
		TypingRelayed:    m.typingRelayed.Load(),
		HandshakesFailed: m.handshakesFailed.Load(),
		Reaped:           m.reaped.Load(),
		AllocMemMb:       mem.Alloc / 1024 / 1024,
		NumGC:            mem.NumGC,
		UptimeSeconds:    int64(time.Since(m.started).Seconds()),
	}

	if m.proc != nil {
		if memInfo, err := m.proc.MemoryInfo(); err == nil {
			stats.RssBytes = memInfo.RSS
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}
	return stats
}
