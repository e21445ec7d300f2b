package observability

import (
	"strconv"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/kickoff-dashboard/internal/config"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
)

// InitPyroscope starts continuous profiling when enabled. Page rendering fans
// out across goroutines, so goroutine and mutex profiles are collected too.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              profilingTags(cfg),
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pyroscope enabled",
		"server_address", cfg.PyroscopeServerAddress,
		"application", cfg.PyroscopeAppName,
	)

	return profiler.Stop, nil
}

func profilingTags(cfg config.Config) map[string]string {
	return map[string]string{
		"env":     cfg.AppEnv,
		"service": cfg.ServiceName,
		"version": cfg.ServiceVersion,
		"preview": strconv.FormatBool(cfg.IsPreview),
	}
}
