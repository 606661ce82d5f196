package fusion

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

const configFilePermission = 0o644

type Config struct {
	Coordinator CoordinatorConfig `toml:"coordinator"`
	Participant ParticipantConfig `toml:"participant"`
	Broker      BrokerConfig      `toml:"broker"`
}

type CoordinatorConfig struct {
	URL             string `toml:"url"`
	TLSVerification bool   `toml:"tls_verification"`
}

type ParticipantConfig struct {
	ID  string `toml:"id"`
	Key string `toml:"key"`
}

type BrokerConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func SaveConfig(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, configFilePermission); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
