package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/firekill222/signaling-server/contract"
	"github.com/firekill222/signaling-server/observability"
)

// TelemetryWorker periodically logs relay counters, registry population
// and the process's own memory/CPU footprint.
type TelemetryWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	registry       contract.IRegistry
	stats          *observability.RelayStats
}

func NewTelemetryWorker(log *slog.Logger, metricInterval time.Duration,
	registry contract.IRegistry, stats *observability.RelayStats) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		metricInterval: metricInterval,
		registry:       registry,
		stats:          stats,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *TelemetryWorker) report(p *process.Process) {
	snapshot := w.registry.Snapshot()
	counters := w.stats.Latest()

	rss, cpu, err := getSelfStats(p)
	if err != nil {
		w.log.Debug("Failed to collect self stats", "err", err)
	}

	w.log.Info("Relay telemetry",
		"sessions", snapshot.Sessions,
		"members", snapshot.Members,
		"parties", len(snapshot.Parties),
		"frames_relayed", counters.FramesRelayed,
		"deliveries", counters.Deliveries,
		"skipped", counters.Skipped,
		"malformed", counters.Malformed,
		"rss_bytes", rss,
		"cpu_percent", cpu,
	)
}

// getSelfStats retrieves technical metrics (Memory, CPU) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
