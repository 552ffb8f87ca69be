package provision

import (
	"os"

	"github.com/pkg/errors"
	"github.com/webship/target/types"
	yaml "gopkg.in/yaml.v3"
)

const (
	defaultPort    = 22
	defaultAppName = "webapp"
)

// LoadConfig reads the single-host provisioning document and applies
// defaults for the optional fields.
func LoadConfig(path string) (types.Config, error) {
	var cfg types.Config

	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "config file %s is not found", path)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config file %s is corrupted", path)
	}

	if cfg.Host.Address == "" {
		return cfg, errors.New("host.address is required")
	}
	if cfg.Host.User == "" {
		return cfg, errors.New("host.user is required")
	}
	if cfg.Host.Port == 0 {
		cfg.Host.Port = defaultPort
	}
	if cfg.App.Name == "" {
		cfg.App.Name = defaultAppName
	}

	return cfg, nil
}
