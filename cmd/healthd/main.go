// Command healthd runs the health monitoring engine: it evaluates
// alarm rules against an external metric store on a recurring schedule,
// maintains each host's alarm event log, and dispatches notifications
// to an external executable on status transitions.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/promslog"
	promslogflag "github.com/prometheus/common/promslog/flag"

	"github.com/netdata/health-engine/config"
	"github.com/netdata/health-engine/health"
	"github.com/netdata/health-engine/metricquery"
	"github.com/netdata/health-engine/notifier"
	"github.com/netdata/health-engine/silence"
)

func main() {
	var (
		configFile    = kingpin.Flag("config.file", "Path to the health engine configuration file.").Default("/etc/netdata/health.yml").String()
		listenAddress = kingpin.Flag("web.listen-address", "Address to expose Prometheus metrics on.").Default(":9280").String()
		notifyTimeout = kingpin.Flag("notifier.timeout", "Timeout for each notifier invocation. 0 disables the timeout.").Default("0s").Duration()
	)

	promslogConfig := &promslog.Config{}
	promslogflag.AddFlags(kingpin.CommandLine, promslogConfig)
	kingpin.CommandLine.GetFlag("help").Short('h')
	kingpin.Parse()

	logger := promslog.New(promslogConfig)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	coordinator := config.NewCoordinator(*configFile, reg, logger)
	if err := coordinator.Reload(); err != nil {
		logger.Error("failed initial configuration load", "err", err)
		os.Exit(1)
	}
	cfg := coordinator.Config()

	sil := silence.NewEngine()
	if cfg.Health.SilencersFile != "" {
		silence.LoadFile(sil, cfg.Health.SilencersFile, logger)
	}

	metrics := health.NewMetrics(reg)
	n := notifier.New(*notifyTimeout, logger)
	dispatcher := health.NewDispatcher(n, logger)
	dispatcher.SetMetrics(metrics)

	// querier is the metric storage backend (spec.md §6): an external
	// collaborator this repository does not implement. A deployment
	// wires its own metricquery.Querier here before hosts can be
	// registered with AddHost.
	var querier metricquery.Querier
	engine := health.NewEngine(health.EngineConfig{
		MinRunEvery:         cfg.RunAtLeastEvery(),
		HibernationDelay:    cfg.HibernationDelay(),
		SuspensionThreshold: cfg.HibernationDelay(),
	}, querier, sil, dispatcher, metrics, logger)

	coordinator.Subscribe(func(cfg *config.Config) error {
		logger.Info("applying reloaded scheduling configuration")
		return nil
	})

	var g run.Group

	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return engine.Run(ctx)
		}, func(error) {
			cancel()
		})
	}

	{
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *listenAddress, Handler: mux}
		g.Add(func() error {
			logger.Info("listening for metrics", "address", *listenAddress)
			return srv.ListenAndServe()
		}, func(error) {
			_ = srv.Close()
		})
	}

	{
		term := make(chan os.Signal, 1)
		cancel := make(chan struct{})
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)
		g.Add(func() error {
			select {
			case sig := <-term:
				logger.Info("received signal, shutting down", "signal", sig)
			case <-cancel:
			}
			return nil
		}, func(error) {
			close(cancel)
		})
	}

	if err := g.Run(); err != nil {
		logger.Error("healthd exited", "err", err)
		os.Exit(1)
	}
}
