package observability

import (
	"sync/atomic"
	"time"
)

// RelayStats aggregates relay counters for telemetry and the debug surface.
// All counters are atomic; the struct is safe for concurrent use.
type RelayStats struct {
	StartedAt time.Time

	Connects       uint64
	Disconnects    uint64
	Joins          uint64
	Parts          uint64
	FramesRelayed  uint64
	Malformed      uint64
	UnknownSenders uint64
	// Deliveries attempted vs. skipped because the recipient connection
	// was not writable. Attempted vs. party size is an observability
	// signal, not a correctness requirement.
	Deliveries uint64
	Skipped    uint64
}

// StatsView is a plain copy of the counters, for JSON rendering.
type StatsView struct {
	UptimeSeconds  int64  `json:"uptime_seconds"`
	Connects       uint64 `json:"connects"`
	Disconnects    uint64 `json:"disconnects"`
	Joins          uint64 `json:"joins"`
	Parts          uint64 `json:"parts"`
	FramesRelayed  uint64 `json:"frames_relayed"`
	Malformed      uint64 `json:"malformed"`
	UnknownSenders uint64 `json:"unknown_senders"`
	Deliveries     uint64 `json:"deliveries"`
	Skipped        uint64 `json:"skipped"`
}

func NewRelayStats() *RelayStats {
	return &RelayStats{StartedAt: time.Now().UTC()}
}

func (s *RelayStats) IncrConnects()       { atomic.AddUint64(&s.Connects, 1) }
func (s *RelayStats) IncrDisconnects()    { atomic.AddUint64(&s.Disconnects, 1) }
func (s *RelayStats) IncrJoins()          { atomic.AddUint64(&s.Joins, 1) }
func (s *RelayStats) IncrParts()          { atomic.AddUint64(&s.Parts, 1) }
func (s *RelayStats) IncrFramesRelayed()  { atomic.AddUint64(&s.FramesRelayed, 1) }
func (s *RelayStats) IncrMalformed()      { atomic.AddUint64(&s.Malformed, 1) }
func (s *RelayStats) IncrUnknownSenders() { atomic.AddUint64(&s.UnknownSenders, 1) }

func (s *RelayStats) AddDeliveries(n uint64) { atomic.AddUint64(&s.Deliveries, n) }
func (s *RelayStats) AddSkipped(n uint64)    { atomic.AddUint64(&s.Skipped, n) }

// Latest returns a consistent-enough copy for display. Counters are read
// individually; exact cross-counter consistency is not needed here.
func (s *RelayStats) Latest() StatsView {
	return StatsView{
		UptimeSeconds:  int64(time.Since(s.StartedAt).Seconds()),
		Connects:       atomic.LoadUint64(&s.Connects),
		Disconnects:    atomic.LoadUint64(&s.Disconnects),
		Joins:          atomic.LoadUint64(&s.Joins),
		Parts:          atomic.LoadUint64(&s.Parts),
		FramesRelayed:  atomic.LoadUint64(&s.FramesRelayed),
		Malformed:      atomic.LoadUint64(&s.Malformed),
		UnknownSenders: atomic.LoadUint64(&s.UnknownSenders),
		Deliveries:     atomic.LoadUint64(&s.Deliveries),
		Skipped:        atomic.LoadUint64(&s.Skipped),
	}
}
