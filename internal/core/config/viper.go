package config

import (
	"fmt"
	"strings"

	"github.com/solatis/schemamend/internal/types"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flag names to config keys. Only flags present on
// the FlagSet passed to Load are bound.
var flagKeys = map[string]string{
	"host":     "repair_api.host",
	"port":     "repair_api.port",
	"data-dir": "repair_api.data_dir",
	"workers":  "repair.workers",
	"on-error": "repair.on_error",
	"strict":   "repair.strict_cast",
}

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	return Load(configPath, nil)
}

// Load resolves configuration with CLI flags > environment > config file >
// defaults precedence. flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("repair_api.host", d.RepairAPI.Host)
	v.SetDefault("repair_api.port", d.RepairAPI.Port)
	v.SetDefault("repair_api.max_connections", d.RepairAPI.MaxConnections)
	v.SetDefault("repair_api.request_timeout", d.RepairAPI.RequestTimeout.String())
	v.SetDefault("repair_api.max_batch_size", d.RepairAPI.MaxBatchSize)
	v.SetDefault("repair_api.data_dir", d.RepairAPI.DataDir)
	v.SetDefault("repair.workers", d.Repair.Workers)
	v.SetDefault("repair.on_error", string(d.Repair.OnError))
	v.SetDefault("repair.strict_cast", d.Repair.StrictCast)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		RepairAPI: RepairAPIConfig{
			Host:           v.GetString("repair_api.host"),
			Port:           v.GetInt("repair_api.port"),
			MaxConnections: v.GetInt("repair_api.max_connections"),
			RequestTimeout: v.GetDuration("repair_api.request_timeout"),
			MaxBatchSize:   v.GetInt("repair_api.max_batch_size"),
			DataDir:        v.GetString("repair_api.data_dir"),
		},
		Repair: RepairConfig{
			Workers:    v.GetInt("repair.workers"),
			OnError:    types.ErrorPolicy(v.GetString("repair.on_error")),
			StrictCast: v.GetBool("repair.strict_cast"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive limits.
func validateConfig(cfg *Config) error {
	api := cfg.RepairAPI
	if api.Port <= 0 || api.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", api.Port)
	}
	if api.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", api.MaxConnections)
	}
	if api.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", api.RequestTimeout)
	}
	if api.MaxBatchSize <= 0 || api.MaxBatchSize > types.MaxBatchRecords {
		return fmt.Errorf("max_batch_size must be between 1 and %d, got %d", types.MaxBatchRecords, api.MaxBatchSize)
	}
	if cfg.Repair.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", cfg.Repair.Workers)
	}
	if !cfg.Repair.OnError.Valid() {
		return fmt.Errorf("on_error %q: %w", cfg.Repair.OnError, types.ErrUnknownErrorPolicy)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("repair_api.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use SM_HMAC_SECRET environment variable)")
	}
	return nil
}
