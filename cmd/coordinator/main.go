package main

import (
	"context"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/absmach/fusion/fusiond"
	"github.com/absmach/fusion/pkg/aggregate"
	"github.com/absmach/magistrala/pkg/server"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	defHTTPPort   = "7070"
	envPrefixHTTP = "COORDINATOR_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel         string        `env:"COORDINATOR_LOG_LEVEL"        envDefault:"info"`
	InstanceID       string        `env:"COORDINATOR_INSTANCE_ID"`
	MQTTAddress      string        `env:"COORDINATOR_MQTT_ADDRESS"`
	MQTTQoS          uint8         `env:"COORDINATOR_MQTT_QOS"         envDefault:"2"`
	MQTTTimeout      time.Duration `env:"COORDINATOR_MQTT_TIMEOUT"     envDefault:"30s"`
	MQTTUsername     string        `env:"COORDINATOR_MQTT_USERNAME"`
	MQTTPassword     string        `env:"COORDINATOR_MQTT_PASSWORD"`
	BaseTopic        string        `env:"COORDINATOR_BASE_TOPIC"`
	DataDir          string        `env:"COORDINATOR_DATA_DIR"`
	ModelRetention   uint64        `env:"COORDINATOR_MODEL_RETENTION"  envDefault:"10"`
	CombinerImage    string        `env:"COORDINATOR_COMBINER_IMAGE"`
	RegistryURL      string        `env:"COORDINATOR_REGISTRY_URL"`
	RegistryAuth     bool          `env:"COORDINATOR_REGISTRY_AUTH"    envDefault:"false"`
	RegistryUsername string        `env:"COORDINATOR_REGISTRY_USERNAME"`
	RegistryPassword string        `env:"COORDINATOR_REGISTRY_PASSWORD"`
	RegistryToken    string        `env:"COORDINATOR_REGISTRY_TOKEN"`
	OTELURL          url.URL       `env:"COORDINATOR_OTEL_URL"`
	TraceRatio       float64       `env:"COORDINATOR_TRACE_RATIO"      envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		log.Fatalf("failed to load HTTP server configuration : %s", err.Error())
	}

	if err := fusiond.StartCoordinator(ctx, cancel, fusiond.Config{
		LogLevel:       cfg.LogLevel,
		InstanceID:     cfg.InstanceID,
		MQTTAddress:    cfg.MQTTAddress,
		MQTTQoS:        cfg.MQTTQoS,
		MQTTTimeout:    cfg.MQTTTimeout,
		MQTTUsername:   cfg.MQTTUsername,
		MQTTPassword:   cfg.MQTTPassword,
		BaseTopic:      cfg.BaseTopic,
		DataDir:        cfg.DataDir,
		ModelRetention: cfg.ModelRetention,
		CombinerImage:  cfg.CombinerImage,
		Registry: aggregate.RegistryConfig{
			Authenticate: cfg.RegistryAuth,
			Token:        cfg.RegistryToken,
			Username:     cfg.RegistryUsername,
			Password:     cfg.RegistryPassword,
			RegistryURL:  cfg.RegistryURL,
		},
		Server:     httpServerConfig,
		OTELURL:    cfg.OTELURL,
		TraceRatio: cfg.TraceRatio,
	}); err != nil {
		log.Fatalf("coordinator exited with error: %s", err.Error())
	}
}
