package observability

import (
	"campus-assistant/domain"
	"campus-assistant/domain/event"
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type QueueUsage struct {
	Length   int `json:"length"`
	Capacity int `json:"capacity"`
}

// Stats is the snapshot served to operators.
type Stats struct {
	SessionsStarted    uint64                `json:"sessions_started"`
	SessionsEnded      uint64                `json:"sessions_ended"`
	ActiveSessions     int                   `json:"active_sessions"`
	Connections        int                   `json:"connections"`
	Questions          uint64                `json:"questions"`
	Replies            uint64                `json:"replies"`
	Fallbacks          uint64                `json:"fallbacks"`
	IgnoredInputs      uint64                `json:"ignored_inputs"`
	RepliesPerCategory map[string]uint64     `json:"replies_per_category"`
	Queues             map[string]QueueUsage `json:"queues"`

	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	SampledAt  string  `json:"sampled_at,omitempty"`
}

// MonitoringManager aggregates the assistant telemetry.
// It is also a permanent event sink: every appended message goes through it.
type MonitoringManager struct {
	log *slog.Logger

	sessionsStarted uint64
	sessionsEnded   uint64
	questions       uint64
	replies         uint64
	fallbacks       uint64
	ignored         uint64

	mu         sync.RWMutex
	categories map[domain.Category]uint64
	queues     map[string]QueueUsage
	rss        uint64
	cpu        float64
	sampledAt  time.Time
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{
		log:        log,
		categories: make(map[domain.Category]uint64),
		queues:     make(map[string]QueueUsage),
	}
}

func (mm *MonitoringManager) IncrSessionsStarted() {
	atomic.AddUint64(&mm.sessionsStarted, 1)
}

func (mm *MonitoringManager) IncrSessionsEnded() {
	atomic.AddUint64(&mm.sessionsEnded, 1)
}

func (mm *MonitoringManager) IncrIgnoredInputs() {
	atomic.AddUint64(&mm.ignored, 1)
}

// Consume counts questions and replies. The greeting is not a reply.
func (mm *MonitoringManager) Consume(_ context.Context, e event.DomainEvent) error {
	appended, ok := e.(event.MessageAppended)
	if !ok {
		return nil
	}
	message := appended.Message
	if message.FromUser() {
		atomic.AddUint64(&mm.questions, 1)
		return nil
	}
	if message.Category == domain.CategoryGreeting {
		return nil
	}
	atomic.AddUint64(&mm.replies, 1)
	if message.Category == domain.CategoryGeneral {
		atomic.AddUint64(&mm.fallbacks, 1)
	}
	mm.mu.Lock()
	mm.categories[message.Category]++
	mm.mu.Unlock()
	return nil
}

// RecordProcess stores the latest process sample.
func (mm *MonitoringManager) RecordProcess(rss uint64, cpu float64) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.rss = rss
	mm.cpu = cpu
	mm.sampledAt = time.Now()
}

func (mm *MonitoringManager) RecordQueue(name string, length, capacity int) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.queues[name] = QueueUsage{Length: length, Capacity: capacity}
}

func (mm *MonitoringManager) GetLatest() Stats {
	mm.mu.RLock()
	categories := make(map[string]uint64, len(mm.categories))
	for c, n := range mm.categories {
		categories[string(c)] = n
	}
	queues := make(map[string]QueueUsage, len(mm.queues))
	for name, usage := range mm.queues {
		queues[name] = usage
	}
	stats := Stats{
		RepliesPerCategory: categories,
		Queues:             queues,
		RSSBytes:           mm.rss,
		CPUPercent:         mm.cpu,
	}
	if !mm.sampledAt.IsZero() {
		stats.SampledAt = mm.sampledAt.Format(time.RFC3339)
	}
	mm.mu.RUnlock()

	stats.SessionsStarted = atomic.LoadUint64(&mm.sessionsStarted)
	stats.SessionsEnded = atomic.LoadUint64(&mm.sessionsEnded)
	stats.Questions = atomic.LoadUint64(&mm.questions)
	stats.Replies = atomic.LoadUint64(&mm.replies)
	stats.Fallbacks = atomic.LoadUint64(&mm.fallbacks)
	stats.IgnoredInputs = atomic.LoadUint64(&mm.ignored)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.AllocMemMb = m.Alloc / 1024 / 1024
	stats.NumGC = m.NumGC

	mm.log.Debug("Stats requested",
		"questions", stats.Questions,
		"replies", stats.Replies,
		"mem_mb", stats.AllocMemMb,
	)
	return stats
}
