package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-server/contract"
)

// Stats is the snapshot served on the debug endpoint.
type Stats struct {
	UptimeSeconds    int64   `json:"uptime_seconds"`
	OnlineUsers      int     `json:"online_users"`
	MessagesAccepted uint64  `json:"messages_accepted"`
	MessagesRejected uint64  `json:"messages_rejected"`
	EventsDropped    uint64  `json:"events_dropped"`
	AllocMemMB       uint64  `json:"alloc_mem_mb"`
	NumGC            uint32  `json:"num_gc"`
	NumGoroutine     int     `json:"num_goroutine"`
	RSSBytes         uint64  `json:"rss_bytes"`
	CPUPercent       float64 `json:"cpu_percent"`
	PidStatus        string  `json:"pid_status"`
}

// Monitor aggregates process health and chat throughput counters.
// Counter methods are safe to call from any goroutine; a nil Monitor is a
// no-op so instrumentation points never need a guard.
type Monitor struct {
	log       *slog.Logger
	presence  contract.IPresence
	proc      *process.Process
	startedAt time.Time

	messagesAccepted uint64
	messagesRejected uint64
	eventsDropped    uint64
}

func NewMonitor(log *slog.Logger, presence contract.IPresence) *Monitor {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process introspection unavailable", "err", err)
		p = nil
	}
	return &Monitor{
		log:       log,
		presence:  presence,
		proc:      p,
		startedAt: time.Now(),
	}
}

func (m *Monitor) IncrMessagesAccepted() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.messagesAccepted, 1)
}

func (m *Monitor) IncrMessagesRejected() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.messagesRejected, 1)
}

func (m *Monitor) IncrEventsDropped() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.eventsDropped, 1)
}

// Snapshot collects current process and throughput stats.
func (m *Monitor) Snapshot() Stats {
	if m == nil {
		return Stats{}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := Stats{
		UptimeSeconds:    int64(time.Since(m.startedAt).Seconds()),
		MessagesAccepted: atomic.LoadUint64(&m.messagesAccepted),
		MessagesRejected: atomic.LoadUint64(&m.messagesRejected),
		EventsDropped:    atomic.LoadUint64(&m.eventsDropped),
		AllocMemMB:       mem.Alloc / 1024 / 1024,
		NumGC:            mem.NumGC,
		NumGoroutine:     runtime.NumGoroutine(),
	}
	if m.presence != nil {
		stats.OnlineUsers = len(m.presence.ListOnline())
	}
	if m.proc != nil {
		if memInfo, err := m.proc.MemoryInfo(); err == nil {
			stats.RSSBytes = memInfo.RSS
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
		if status, err := m.proc.Status(); err == nil {
			stats.PidStatus = status
		}
	}
	return stats
}
