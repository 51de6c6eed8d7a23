// Copyright © 2022 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package datastream wires up everything a datastream run needs: logging,
// the result backend, the executor, the component registry and metrics.
package datastream

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/conduitio/datastream/pkg/executor"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/csync"
	"github.com/conduitio/datastream/pkg/foundation/ctxutil"
	"github.com/conduitio/datastream/pkg/foundation/database"
	"github.com/conduitio/datastream/pkg/foundation/database/badger"
	"github.com/conduitio/datastream/pkg/foundation/database/inmemory"
	"github.com/conduitio/datastream/pkg/foundation/database/postgres"
	"github.com/conduitio/datastream/pkg/foundation/database/redis"
	"github.com/conduitio/datastream/pkg/foundation/database/sqlite"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/foundation/metrics"
	"github.com/conduitio/datastream/pkg/foundation/metrics/measure"
	"github.com/conduitio/datastream/pkg/foundation/metrics/prometheus"
	"github.com/conduitio/datastream/pkg/foundation/multierror"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/conduitio/datastream/pkg/plugin"
	"github.com/conduitio/datastream/pkg/plugin/builtin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	exitTimeout = 10 * time.Second
)

// Report is the outcome of a single pipeline run.
type Report struct {
	Pipeline string
	Result   funnel.Result
	// Err contains the errors of lost batches and the reader error, if any.
	// Result is valid even if Err is set.
	Err      error
	Duration time.Duration
}

// Runtime sets up all services needed to run pipelines.
type Runtime struct {
	Config Config

	DB       database.DB
	Backend  *executor.Backend
	Registry *plugin.Registry
	// Pool is nil if pipelines run synchronously.
	Pool *executor.Pool[funnel.Result]

	logger       log.CtxLogger
	promRegistry *promclient.Registry
	// inflight tracks running pipelines so Close can wait for them.
	inflight csync.WaitGroup

	metricsListener net.Listener
}

// NewRuntime sets up a Runtime instance and primes it for start.
func NewRuntime(ctx context.Context, cfg Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, cerrors.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := newDB(ctx, logger, cfg)
	if err != nil {
		return nil, cerrors.Errorf("failed to create a DB instance: %w", err)
	}

	promRegistry := configurePrometheus()
	measure.DatastreamInfo.WithValues(Version(true)).Inc()

	registry := plugin.NewRegistry(logger, db)
	if err := builtin.Register(registry); err != nil {
		_ = db.Close()
		return nil, cerrors.Errorf("failed to register builtin components: %w", err)
	}

	backend := executor.NewBackend(db)
	r := &Runtime{
		Config:       cfg,
		DB:           db,
		Backend:      backend,
		Registry:     registry,
		logger:       logger.WithComponent("datastream.Runtime"),
		promRegistry: promRegistry,
	}
	if cfg.Pipeline.Async {
		r.Pool = executor.NewPool[funnel.Result](logger, backend, cfg.Executor.Workers)
	}
	return r, nil
}

func newLogger(level string, format string) log.CtxLogger {
	l, _ := zerolog.ParseLevel(level)
	f, _ := log.ParseFormat(format)
	logger := log.InitLogger(l, f)
	logger = logger.
		Hook(ctxutil.PipelineIDLogCtxHook{}).
		Hook(ctxutil.BatchIDLogCtxHook{})
	zerolog.DefaultContextLogger = &logger.Logger
	return logger
}

func newDB(ctx context.Context, logger log.CtxLogger, cfg Config) (database.DB, error) {
	if cfg.Backend.Driver != nil {
		return cfg.Backend.Driver, nil
	}

	switch cfg.Backend.Type {
	case BackendTypeBadger:
		return badger.New(logger.Logger, cfg.Backend.Badger.Path)
	case BackendTypeSQLite:
		return sqlite.New(ctx, logger.Logger, cfg.Backend.SQLite.Path, cfg.Backend.SQLite.Table)
	case BackendTypePostgres:
		return postgres.New(ctx, logger, cfg.Backend.Postgres.ConnectionString, cfg.Backend.Postgres.Table)
	case BackendTypeRedis:
		return redis.New(ctx, logger, cfg.Backend.Redis.URL, cfg.Backend.Redis.Namespace)
	case BackendTypeInMemory:
		if cfg.Pipeline.Async {
			logger.Debug(ctx).Msg("using in-memory result backend, job records are only visible to this process")
		}
		return &inmemory.DB{}, nil
	default:
		return nil, cerrors.Errorf("invalid backend type %q", cfg.Backend.Type)
	}
}

func configurePrometheus() *promclient.Registry {
	registry := prometheus.NewRegistry(nil)
	metrics.Register(registry)

	promRegistry := promclient.NewRegistry()
	promRegistry.MustRegister(registry)
	return promRegistry
}

// ParsePipelines parses the pipeline file configured in Config.Pipeline.Path.
func (r *Runtime) ParsePipelines(ctx context.Context) ([]funnel.Definition, error) {
	return NewParser(r.logger).ParseFile(ctx, r.Config.Pipeline.Path)
}

// Run runs the pipelines one after another and returns a report for each of
// them. If a metrics address is configured, metrics are served until all
// pipelines are done. The returned error is only set if the runtime itself
// failed, pipeline errors are part of the reports.
func (r *Runtime) Run(ctx context.Context, defs []funnel.Definition) ([]Report, error) {
	g, gctx := errgroup.WithContext(ctx)
	// done stops the metrics server once all pipelines ran
	gctx, done := context.WithCancel(gctx)
	defer done()

	if r.Config.Metrics.Address != "" {
		if err := r.serveMetrics(gctx, g); err != nil {
			return nil, cerrors.Errorf("failed to serve metrics: %w", err)
		}
	}

	reports := make([]Report, 0, len(defs))
	g.Go(func() error {
		defer done()
		for _, def := range defs {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports = append(reports, r.runPipeline(gctx, def))
		}
		return nil
	})

	err := g.Wait()
	return reports, err
}

func (r *Runtime) runPipeline(ctx context.Context, def funnel.Definition) Report {
	r.inflight.Add(1)
	defer r.inflight.Done()

	if def.BatchSize <= 0 {
		def.BatchSize = r.Config.Pipeline.BatchSize
	}
	ctx = ctxutil.ContextWithPipelineID(ctx, def.ID)
	logger := r.logger

	var exec executor.Executor[funnel.Result]
	if r.Pool != nil {
		exec = r.Pool
	}
	opts := []funnel.Option{funnel.WithErrorCallback(funnel.ErrorCallbackFuncs{
		Entry: func(ctx context.Context, e *funnel.Entry) error {
			logger.Debug(ctx).Strs("errors", e.Errors).Msg("entry failed")
			return nil
		},
		Chain: func(ctx context.Context, ce *funnel.ChainError) {
			logger.Err(ctx, ce).Msg("batch lost")
		},
	})}
	if !r.Config.Executor.KeepResults {
		opts = append(opts, funnel.WithForgetResults())
	}
	ds := funnel.New(r.logger, r.Registry, exec, def, opts...)

	rep := Report{Pipeline: def.ID}
	start := time.Now()
	if r.Pool != nil {
		res, err := ds.Process(ctx)
		if werr := res.Wait(ctx); werr != nil {
			// the remaining batches still run, but nobody waits for them
			rep.Err = multierror.Append(err, werr)
			rep.Duration = time.Since(start)
			return rep
		}
		rep.Result = res.Result()
		rep.Err = multierror.Append(err, res.Err())
	} else {
		rep.Result, rep.Err = ds.ProcessSync(ctx)
	}
	rep.Duration = time.Since(start)

	e := logger.Info(ctx)
	if rep.Err != nil || rep.Result.FailedCount > 0 {
		e = logger.Warn(ctx).Err(rep.Err)
	}
	e.Int("ok", rep.Result.OkCount).
		Int("failed", rep.Result.FailedCount).
		Int("skipped", rep.Result.SkippedCount).
		Int("lost_batches", rep.Result.LostBatches).
		Dur(log.DurationField, rep.Duration).
		Msg("pipeline finished")
	return rep
}

func (r *Runtime) serveMetrics(ctx context.Context, g *errgroup.Group) error {
	ln, err := net.Listen("tcp", r.Config.Metrics.Address)
	if err != nil {
		return err
	}
	r.metricsListener = ln

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.promRegistry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		err := srv.Serve(ln)
		if cerrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), exitTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	r.logger.Info(ctx).Str(log.ServerAddressField, ln.Addr().String()).Msg("serving metrics")
	return nil
}

// MetricsAddr returns the address of the metrics endpoint or nil if it is not
// served.
func (r *Runtime) MetricsAddr() net.Addr {
	if r.metricsListener == nil {
		return nil
	}
	return r.metricsListener.Addr()
}

// Close waits for running pipelines and releases all resources. If ctx is
// canceled first, Close stops waiting and releases the resources anyway.
func (r *Runtime) Close(ctx context.Context) error {
	var errs error
	if n := r.inflight.Len(); n > 0 {
		r.logger.Info(ctx).Int("pipelines", n).Msg("waiting for running pipelines")
	}
	if err := r.inflight.Wait(ctx); err != nil {
		r.logger.Warn(ctx).Err(err).Int("pipelines", r.inflight.Len()).Msg("stopped waiting for running pipelines")
		errs = multierror.Append(errs, err)
	}
	if r.Pool != nil {
		if err := r.Pool.Close(ctx); err != nil {
			errs = multierror.Append(errs, cerrors.Errorf("failed to close executor: %w", err))
		}
	}
	if err := r.Registry.Close(); err != nil {
		errs = multierror.Append(errs, cerrors.Errorf("failed to close components: %w", err))
	}
	if err := r.DB.Close(); err != nil {
		errs = multierror.Append(errs, cerrors.Errorf("failed to close DB: %w", err))
	}
	return errs
}
