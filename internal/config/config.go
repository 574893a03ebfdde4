// Package config provides layered configuration loading for the unlockr
// service: struct defaults overlaid by UNLOCKR_-prefixed environment
// variables, unmarshalled through koanf and checked with validator.
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces all environment variables, e.g. UNLOCKR_ADDR.
const envPrefix = "UNLOCKR_"

// Size is a byte count that unmarshals from plain integers or IEC strings
// ("64MiB", "128K").
type Size int64

// Config holds the merged runtime configuration for the unlockr service.
type Config struct {
	Addr                 string        `koanf:"addr" validate:"required"`
	DataDir              string        `koanf:"data_dir" validate:"required"`
	MaxUploadBytes       Size          `koanf:"max_upload_bytes" validate:"gt=0"`
	Workers              int           `koanf:"workers" validate:"gte=1"`
	SessionTTL           time.Duration `koanf:"session_ttl" validate:"gt=0"`
	SweepInterval        time.Duration `koanf:"sweep_interval" validate:"gt=0"`
	MetricsFlushInterval time.Duration `koanf:"metrics_flush_interval" validate:"gt=0"`
	MetricsToken         string        `koanf:"metrics_token"`
}

// DefaultAppConfig carries the shipped defaults. Sessions expire after 15
// minutes; abandoned batches are reclaimed by the janitor rather than leaking
// until restart.
var DefaultAppConfig = Config{
	Addr:                 ":8080",
	DataDir:              "./data",
	MaxUploadBytes:       64 << 20, // 64 MiB across the whole upload
	Workers:              4,
	SessionTTL:           15 * time.Minute,
	SweepInterval:        time.Minute,
	MetricsFlushInterval: 5 * time.Second,
}

// Load builds the effective configuration: defaults, then environment.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	envProvider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				StringToSizeHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validateDataDir(cfg.DataDir); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// validateDataDir rejects empty, root, and traversal-bearing paths before
// anything gets created on disk.
func validateDataDir(dir string) error {
	cleaned := strings.TrimSpace(dir)
	if cleaned == "" || cleaned == "." || cleaned == "/" || cleaned == "//" {
		return fmt.Errorf("data dir %q not allowed", dir)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return fmt.Errorf("data dir %q must not contain traversal", dir)
		}
	}
	return nil
}

// StringToSizeHookFunc is a DecodeHookFunc converting strings to Size using
// ParseSize, so environments can say UNLOCKR_MAX_UPLOAD_BYTES=64MiB.
func StringToSizeHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(Size(0)) {
			return data, nil
		}
		n, err := ParseSize(data.(string))
		if err != nil {
			return nil, err
		}
		return Size(n), nil
	}
}
