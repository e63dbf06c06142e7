package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rohmanhakim/wiki-crawler/internal/config"
	"github.com/rohmanhakim/wiki-crawler/internal/decision"
	"github.com/rohmanhakim/wiki-crawler/internal/logging"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/rohmanhakim/wiki-crawler/internal/metrics"
	"go.uber.org/zap"
)

const metricsShutdownTimeout = 5 * time.Second

// runtime holds the process-wide collaborators of one command run.
type runtime struct {
	logger        *zap.Logger
	recorder      *metadata.Recorder
	decider       decision.Provider
	metricsServer *http.Server
}

func newRuntime(cfg config.Config, in io.Reader, out io.Writer) (*runtime, error) {
	logger, err := logging.New(cfg.LogLevel(), false, cfg.LogFile())
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	crawlMetrics := metrics.New(registry)

	rt := &runtime{
		logger:   logger,
		recorder: metadata.NewRecorder(uuid.NewString(), logger, crawlMetrics),
	}

	if cfg.NonInteractive() {
		rt.decider = decision.Fixed{Answer: decision.Skip}
	} else {
		rt.decider = decision.NewTerminal(in, out)
	}

	if cfg.MetricsAddr() != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(registry))
		rt.metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr(),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := rt.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr()))
	}

	return rt, nil
}

func (rt *runtime) close() {
	if rt.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = rt.metricsServer.Shutdown(ctx)
	}
	_ = rt.logger.Sync()
}
