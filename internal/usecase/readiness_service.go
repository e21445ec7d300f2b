package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
)

type ProbeResult struct {
	Name       string
	OK         bool
	Error      string
	DurationMs int64
}

type ReadinessReport struct {
	Ready  bool
	Probes []ProbeResult
}

// ReadinessService pings dependencies concurrently on a shared worker pool.
type ReadinessService struct {
	pool    *ants.Pool
	probes  []Probe
	timeout time.Duration
	logger  *logging.Logger
}

func NewReadinessService(pool *ants.Pool, timeout time.Duration, logger *logging.Logger, probes ...Probe) *ReadinessService {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &ReadinessService{
		pool:    pool,
		probes:  probes,
		timeout: timeout,
		logger:  logger,
	}
}

func (s *ReadinessService) Check(ctx context.Context) (ReadinessReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReadinessService.Check")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results := make([]ProbeResult, len(s.probes))
	var workers sync.WaitGroup
	for i, probe := range s.probes {
		i, probe := i, probe
		workers.Add(1)
		if err := s.pool.Submit(func() {
			defer workers.Done()
			results[i] = runProbe(ctx, probe)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return ReadinessReport{}, fmt.Errorf("submit readiness probe %s: %w", probe.Name(), err)
		}
	}
	workers.Wait()

	report := ReadinessReport{Ready: true, Probes: results}
	for _, result := range results {
		if !result.OK {
			report.Ready = false
			s.logger.WarnContext(ctx, "readiness probe failed", "probe", result.Name, "error", result.Error)
		}
	}

	return report, nil
}

func runProbe(ctx context.Context, probe Probe) ProbeResult {
	started := time.Now()
	result := ProbeResult{Name: probe.Name(), OK: true}
	if err := probe.Ping(ctx); err != nil {
		result.OK = false
		result.Error = err.Error()
	}
	result.DurationMs = time.Since(started).Milliseconds()
	return result
}
