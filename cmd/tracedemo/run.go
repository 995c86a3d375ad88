package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace"
	"github.com/randalmurphal/eventtrace/pkg/eventtrace/config"
	"github.com/randalmurphal/eventtrace/pkg/eventtrace/diag"
	"github.com/randalmurphal/eventtrace/pkg/eventtrace/observability"
)

// runOptions are the flags of the run command.
type runOptions struct {
	configPath  string
	events      int
	label       string
	async       bool
	asyncSet    bool
	metricsAddr string
	filter      string
	timeout     time.Duration
}

var runFlags runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Emit demo events and report delivery counts",
	Long: `Emit demo.Worker events through a proxy, deliver them to a counting
listener and print how many were delivered and lost.

With --async, records are logged by a consumer on the dispatch goroutine
instead of synchronously by the emitting goroutine. With --metrics-addr,
Prometheus metrics are served on /metrics while the command runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runFlags
		opts.asyncSet = cmd.Flags().Changed("async")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDemo(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlags.configPath, "config", "", "settings file (.yaml, .yml, .json or .toml)")
	runCmd.Flags().IntVar(&runFlags.events, "events", 100, "number of events to emit")
	runCmd.Flags().StringVar(&runFlags.label, "context", "demo", "context label attached to emitted events")
	runCmd.Flags().BoolVar(&runFlags.async, "async", false, "log records on the dispatch goroutine")
	runCmd.Flags().StringVar(&runFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	runCmd.Flags().StringVar(&runFlags.filter, "filter", "", "context label pattern the listener is restricted to")
	runCmd.Flags().DurationVar(&runFlags.timeout, "timeout", 10*time.Second, "how long to wait for the queue to drain")
}

// runSummary is what runDemo observed.
type runSummary struct {
	Emitted   int
	Delivered int64
	Failed    int64
	Lost      eventtrace.LostStats
}

func runDemo(ctx context.Context, opts runOptions, out, logOut io.Writer) error {
	cfg := config.New(nil)
	if opts.configPath != "" {
		loaded, err := config.FromFile(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	sysOpts, err := config.SystemOptions(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	sink, err := config.Sink(cfg, logOut)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewPrometheusMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	sysOpts = append(sysOpts, eventtrace.WithSink(sink), eventtrace.WithMetrics(metrics))
	if opts.asyncSet {
		sysOpts = append(sysOpts, eventtrace.WithSyncLogging(!opts.async))
	}
	sys := eventtrace.New(sysOpts...)

	if err := observability.RegisterQueueCollectors(reg, sys); err != nil {
		return fmt.Errorf("register queue metrics: %w", err)
	}

	if opts.metricsAddr != "" {
		shutdown, err := serveMetrics(opts.metricsAddr, reg)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	summary, err := emitAndWait(ctx, sys, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "emitted:   %d\n", summary.Emitted)
	fmt.Fprintf(out, "delivered: %d (%d failed jobs)\n", summary.Delivered, summary.Failed)
	fmt.Fprintf(out, "lost:      %d\n", summary.Lost.Total)
	return nil
}

func emitAndWait(ctx context.Context, sys *eventtrace.System, opts runOptions) (runSummary, error) {
	defer sys.Close(context.Background())

	var regOpts []eventtrace.RegisterOption
	if opts.filter != "" {
		regOpts = append(regOpts, eventtrace.WithFilter(opts.filter))
	}
	listener := newCounter()
	if _, err := sys.AddListener(listener, regOpts...); err != nil {
		return runSummary{}, err
	}
	if !sys.SyncLogging() {
		if _, err := sys.AddConsumer(eventtrace.NewLogConsumer(sys)); err != nil {
			return runSummary{}, err
		}
	}

	proxy := sys.NewProxy(Worker, &worker{name: "demo"}, eventtrace.WithContextLabel(opts.label))
	ctx = diag.With(ctx, "run", uuid.NewString())

	emitted := 0
	for i := 0; i < opts.events; i++ {
		if ctx.Err() != nil {
			break
		}
		job := fmt.Sprintf("job-%d", i/3)
		switch i % 3 {
		case 0:
			proxy.Emit(ctx, JobStarted, job)
		case 1:
			proxy.Emit(ctx, JobProgress, job, 50)
		case 2:
			var jobErr error
			if (i/3)%10 == 9 {
				jobErr = errors.New("demo failure")
			}
			proxy.Emit(ctx, JobFinished, job, jobErr)
		}
		emitted++
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	if err := sys.WaitEmpty(waitCtx); err != nil {
		return runSummary{}, fmt.Errorf("wait for delivery: %w", err)
	}

	return runSummary{
		Emitted:   emitted,
		Delivered: listener.total(),
		Failed:    listener.failed.Load(),
		Lost:      sys.LostEvents(),
	}, nil
}

// serveMetrics serves reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
