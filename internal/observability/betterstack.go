package observability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/kickoff-dashboard/internal/config"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	betterStackQueueSize     = 1024
	betterStackBatchSize     = 50
	betterStackFlushInterval = time.Second
)

// InitBetterStackLogger returns a logger that writes JSON to stdout and ships
// entries at or above BETTERSTACK_MIN_LEVEL to Better Stack in batches.
func InitBetterStackLogger(cfg config.Config, baseLogger *logging.Logger) (*logging.Logger, func(context.Context) error, error) {
	if baseLogger == nil {
		baseLogger = logging.NewJSON(cfg.LogLevel)
	}

	if !cfg.BetterStackEnabled {
		baseLogger.Info("betterstack disabled", "reason", "BETTERSTACK_ENABLED=false")
		return baseLogger, func(context.Context) error { return nil }, nil
	}

	endpoint := normalizeBetterStackEndpoint(cfg.BetterStackEndpoint)
	if endpoint == "" {
		return nil, nil, fmt.Errorf("betterstack endpoint cannot be empty")
	}

	shipper := newBetterStackShipper(endpoint, strings.TrimSpace(cfg.BetterStackToken), cfg.BetterStackTimeout)
	encoder := zapcore.NewJSONEncoder(betterStackEncoderConfig())
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), cfg.LogLevel),
		zapcore.NewCore(encoder.Clone(), zapcore.AddSync(shipper), cfg.BetterStackMinLevel).With([]zapcore.Field{
			zap.String("service", cfg.ServiceName),
			zap.String("service_version", cfg.ServiceVersion),
			zap.String("env", cfg.AppEnv),
		}),
	)

	logger := logging.FromZap(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)))
	logger.Info("betterstack enabled",
		"endpoint", endpoint,
		"min_level", cfg.BetterStackMinLevel.String(),
		"service_name", cfg.ServiceName,
		"environment", cfg.AppEnv,
	)

	return logger, func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
		}
		if err := shipper.Close(ctx); err != nil {
			return fmt.Errorf("drain betterstack queue: %w", err)
		}
		if err := logger.Sync(); err != nil && !isIgnorableLoggerSyncError(err) {
			return err
		}
		return nil
	}, nil
}

func betterStackEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "dt",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func normalizeBetterStackEndpoint(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return "https://" + value
}

// betterStackShipper is a zapcore.WriteSyncer that never blocks the caller.
// Entries are queued and posted as a JSON array by a single goroutine; a full
// queue drops entries.
type betterStackShipper struct {
	endpoint string
	token    string
	client   *http.Client
	queue    chan []byte
	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	dropped  atomic.Uint64
}

func newBetterStackShipper(endpoint, token string, timeout time.Duration) *betterStackShipper {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	s := &betterStackShipper{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		queue:    make(chan []byte, betterStackQueueSize),
		done:     make(chan struct{}),
	}
	go s.run()

	return s
}

func (s *betterStackShipper) Write(p []byte) (int, error) {
	entry := bytes.TrimSpace(p)
	if len(entry) == 0 {
		return len(p), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return len(p), nil
	}

	// zap reuses its buffer once Write returns.
	select {
	case s.queue <- append([]byte(nil), entry...):
	default:
		if dropped := s.dropped.Add(1); dropped == 1 || dropped%100 == 0 {
			fmt.Fprintf(os.Stderr, "betterstack queue full; dropped logs=%d\n", dropped)
		}
	}

	return len(p), nil
}

func (s *betterStackShipper) Sync() error {
	return nil
}

func (s *betterStackShipper) run() {
	defer close(s.done)

	ticker := time.NewTicker(betterStackFlushInterval)
	defer ticker.Stop()

	batch := make([][]byte, 0, betterStackBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.send(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) == betterStackBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (s *betterStackShipper) send(batch [][]byte) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_ = buf.WriteByte('[')
	for i, entry := range batch {
		if i > 0 {
			_ = buf.WriteByte(',')
		}
		_, _ = buf.Write(entry)
	}
	_ = buf.WriteByte(']')

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.endpoint, bytes.NewReader(buf.B))
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterstack create request failed: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterstack send logs failed: %v\n", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		fmt.Fprintf(os.Stderr, "betterstack send logs got status=%d entries=%d\n", resp.StatusCode, len(batch))
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (s *betterStackShipper) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isIgnorableLoggerSyncError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bad file descriptor") || strings.Contains(msg, "invalid argument")
}
