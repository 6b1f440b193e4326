/**
 * @description
 * This is the main entry point for the harness. It loads the layered
 * configuration, registers the scenario catalogue and runs it once, or on a
 * cron schedule with -schedule.
 *
 * Key features:
 * - Repeatable -set key=value overrides that win over every other source.
 * - -sandbox starts the in-memory banking API and points the run at it.
 * - Reports are written to report.dir and, when configured, streamed to RabbitMQ.
 * - Graceful shutdown: SIGINT/SIGTERM stops scheduling new scenarios.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - github.com/go-chi/chi/v5: metrics and health endpoints.
 */
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/transfa/bank-api-harness/internal/app"
	"github.com/transfa/bank-api-harness/internal/cleanup"
	"github.com/transfa/bank-api-harness/internal/config"
	"github.com/transfa/bank-api-harness/internal/metrics"
	"github.com/transfa/bank-api-harness/internal/report"
	"github.com/transfa/bank-api-harness/internal/sandbox"
	"github.com/transfa/bank-api-harness/internal/suites"
	"github.com/transfa/bank-api-harness/pkg/logger"
	"github.com/transfa/bank-api-harness/pkg/rabbitmq"
	"go.uber.org/zap"
)

// overrides collects repeatable -set key=value flags.
type overrides map[string]string

func (o overrides) String() string {
	pairs := make([]string, 0, len(o))
	for k, v := range o {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (o overrides) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	o[strings.TrimSpace(key)] = strings.TrimSpace(value)
	return nil
}

func main() {
	sets := overrides{}
	var (
		env        = flag.String("env", "", "environment name (default $HARNESS_ENV or test)")
		configDir  = flag.String("config-dir", "configs", "directory holding application*.properties")
		filter     = flag.String("run", "", "only run scenarios whose name matches this regexp")
		list       = flag.Bool("list", false, "list scenarios and exit")
		schedule   = flag.Bool("schedule", false, "run on schedule.cron until interrupted")
		useSandbox = flag.Bool("sandbox", false, "run against an in-process sandbox API")
	)
	flag.Var(sets, "set", "override a config key, key=value (repeatable)")
	flag.Parse()

	os.Exit(run(*env, *configDir, *filter, *list, *schedule, *useSandbox, sets))
}

func run(env, configDir, filter string, list, scheduled, useSandbox bool, sets overrides) int {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	bootLog, _ := logger.New("info")
	provider, settings, err := config.Load(config.Options{Dir: configDir, Env: env, Overrides: sets, Logger: bootLog})
	if err != nil {
		bootLog.Error("cannot load config", zap.Error(err))
		return 2
	}
	log, _ := logger.New(settings.LogLevel)
	defer log.Sync()
	provider.LogSettings()

	opts := app.SuiteOptions{}
	if filter != "" {
		re, err := regexp.Compile(filter)
		if err != nil {
			log.Error("invalid -run pattern", zap.String("pattern", filter), zap.Error(err))
			return 2
		}
		opts.Filter = re
	}

	if useSandbox {
		stop, url, err := startSandbox(settings, log)
		if err != nil {
			log.Error("failed to start sandbox", zap.Error(err))
			return 2
		}
		defer stop()
		settings.BaseURL = url
		settings.BasePort = 0
	}

	m := metrics.New()
	publisher := rabbitmq.NewPublisher(settings.ReportAMQPURL, log)
	defer publisher.Close()

	fileSink := &report.FileSink{Dir: settings.ReportDir}
	sinks := []report.Sink{fileSink}
	if settings.ReportAMQPURL != "" {
		sinks = append(sinks, report.NewAMQPSink(publisher, settings.ReportExchange))
	}
	sink := report.NewMultiSink(log, sinks...)

	newSuite := func() (*app.Suite, error) {
		runEnv, err := app.NewEnv(settings, app.EnvOptions{Logger: log, Observer: m, Recorder: m, Sink: sink})
		if err != nil {
			return nil, err
		}
		suite := app.NewSuite(runEnv, opts)
		suites.RegisterAll(suite)
		return suite, nil
	}

	if list {
		suite, err := newSuite()
		if err != nil {
			log.Error("cannot build suite", zap.Error(err))
			return 2
		}
		for _, name := range suite.Names() {
			fmt.Println(name)
		}
		return 0
	}

	runOnce := func(ctx context.Context) (*report.Report, error) {
		suite, err := newSuite()
		if err != nil {
			return nil, err
		}
		rep, err := suite.Run(ctx)
		if settings.CleanupEnabled && rep != nil {
			cleanup.New(suite.Env().Client, log).Run(context.WithoutCancel(ctx), rep.Created())
		}
		return rep, err
	}

	if settings.MetricsAddr != "" {
		srv := serveMetrics(settings.MetricsAddr, m, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	if scheduled {
		return runScheduled(settings.Schedule, runOnce, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := runOnce(ctx)
	if rep == nil {
		log.Error("run failed", zap.Error(err))
		return 2
	}
	if err != nil {
		log.Warn("run interrupted", zap.Error(err))
	}
	summary := rep.Snapshot()
	fmt.Printf("run %s: %d total, %d passed, %d failed, %d skipped (%s)\n",
		rep.RunID, summary.Total, summary.Passed, summary.Failed, summary.Skipped, rep.Duration.Round(time.Millisecond))
	if fileSink.Path != "" {
		fmt.Printf("report: %s\n", fileSink.Path)
	}
	if rep.Failed() || err != nil {
		return 1
	}
	return 0
}

func runScheduled(spec string, runOnce app.RunFunc, log *zap.Logger) int {
	if spec == "" {
		log.Error("-schedule needs schedule.cron")
		return 2
	}
	scheduler := app.NewScheduler(spec, runOnce, log)
	if err := scheduler.Start(); err != nil {
		return 2
	}
	log.Info("scheduler started")

	// Wait for termination signal to gracefully shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping scheduler")
	<-scheduler.Stop().Done()
	log.Info("scheduler stopped gracefully")
	return 0
}

func serveMetrics(addr string, m *metrics.Metrics, log *zap.Logger) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	server := &http.Server{Addr: addr, Handler: r}
	go func() {
		log.Info("metrics server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return server
}

// startSandbox serves the sandbox on a loopback port and returns its root URL.
func startSandbox(settings config.Settings, log *zap.Logger) (func(), string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, "", err
	}
	sb := sandbox.New(sandbox.Options{BasePath: "/" + strings.Trim(settings.BasePath, "/"), JWTSecret: settings.JWTSecret, Logger: log})
	server := &http.Server{Handler: sb.Router()}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("sandbox server failed", zap.Error(err))
		}
	}()
	url := "http://" + ln.Addr().String()
	log.Info("sandbox started", zap.String("url", url))

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}
	return stop, url, nil
}
