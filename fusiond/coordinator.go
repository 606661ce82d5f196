package fusiond

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/fusion/coordinator"
	"github.com/absmach/fusion/coordinator/api"
	"github.com/absmach/fusion/coordinator/middleware"
	"github.com/absmach/fusion/pkg/aggregate"
	"github.com/absmach/fusion/pkg/clock"
	"github.com/absmach/fusion/pkg/mqtt"
	"github.com/absmach/fusion/pkg/proof"
	"github.com/absmach/fusion/pkg/storage"
	"github.com/absmach/fusion/session"
	"github.com/absmach/magistrala/pkg/jaeger"
	"github.com/absmach/magistrala/pkg/prometheus"
	"github.com/absmach/magistrala/pkg/server"
	httpserver "github.com/absmach/magistrala/pkg/server/http"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const svcName = "coordinator"

var (
	DefTLSVerification = false
	DefCoordinatorURL  = "http://localhost:7070"
)

type Config struct {
	LogLevel       string
	InstanceID     string
	MQTTAddress    string
	MQTTQoS        uint8
	MQTTTimeout    time.Duration
	MQTTUsername   string
	MQTTPassword   string
	BaseTopic      string
	DataDir        string
	ModelRetention uint64
	CombinerImage  string
	Registry       aggregate.RegistryConfig
	Server         server.Config
	OTELURL        url.URL
	TraceRatio     float64
}

func StartCoordinator(ctx context.Context, cancel context.CancelFunc, cfg Config) error {
	g, ctx := errgroup.WithContext(ctx)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, "", cfg.TraceRatio)
		if err != nil {
			return fmt.Errorf("failed to initialize opentelemetry: %s", err.Error())
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				slog.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	var publisher mqtt.PubSub
	if cfg.MQTTAddress != "" {
		ps, err := mqtt.NewPubSub(cfg.MQTTAddress, cfg.MQTTQoS, svcName, cfg.MQTTUsername, cfg.MQTTPassword, cfg.MQTTTimeout, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize mqtt pubsub: %s", err.Error())
		}
		publisher = ps
	}

	store, err := newStore(cfg.DataDir)
	if err != nil {
		return err
	}

	var combiner aggregate.Combiner = aggregate.NewWeightedDelta()
	if cfg.CombinerImage != "" {
		binary, err := cfg.Registry.FetchModule(ctx, cfg.CombinerImage)
		if err != nil {
			return fmt.Errorf("failed to fetch combiner module: %s", err.Error())
		}
		combiner, err = aggregate.NewWasmCombiner(binary)
		if err != nil {
			return fmt.Errorf("failed to initialize wasm combiner: %s", err.Error())
		}
	}

	eng := session.Engine{
		Verifier: proof.NewNonEmpty(),
		Combiner: combiner,
	}

	svc := coordinator.NewService(
		store,
		eng,
		clock.New(),
		publisher,
		cfg.BaseTopic,
		cfg.ModelRetention,
	)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if err := svc.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to participant topics: %s", err.Error())
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, cfg.Server, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}

	// ctx is cancelled once shutdown begins, so the broker teardown
	// runs on a fresh context.
	if publisher != nil {
		topic := coordinator.ParticipantJoinTopic
		if cfg.BaseTopic != "" {
			topic = cfg.BaseTopic + "/" + topic
		}
		if err := publisher.Unsubscribe(context.Background(), topic); err != nil {
			logger.Warn("failed to unsubscribe from participant topics", slog.Any("error", err))
		}
		if err := publisher.Disconnect(context.Background()); err != nil {
			logger.Warn("failed to disconnect mqtt client", slog.Any("error", err))
		}
	}

	return nil
}

func newStore(dataDir string) (storage.Storage, error) {
	if dataDir == "" {
		return storage.NewInMemoryStorage(), nil
	}

	return storage.NewBadgerStorage(dataDir)
}

var coordinatorCmd = []cobra.Command{
	{
		Use:   "start",
		Short: "Start coordinator",
		Long:  `Start coordinator.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := Config{
				LogLevel: "info",
				Server: server.Config{
					Port: "7070",
				},
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			if err := StartCoordinator(ctx, cancel, cfg); err != nil {
				cmd.PrintErrf("failed to start coordinator: %s", err.Error())
			}
			cancel()
		},
	},
}

func NewCoordinatorCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "coordinator [start]",
		Short: "Coordinator management",
		Long:  `Run the secure aggregation coordinator.`,
	}

	for i := range coordinatorCmd {
		cmd.AddCommand(&coordinatorCmd[i])
	}

	return &cmd
}
