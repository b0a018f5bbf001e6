package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ParseConfig reads the configuration file at filePath over the defaults.
// A missing file is not an error when filePath is the default location.
// EnvRepositoryRoot, when set, overrides repository_root.
func ParseConfig(ctx context.Context, filePath string) (*AppConfig, error) {
	tracer := otel.Tracer("modelrepo")
	_, span := tracer.Start(ctx, "config.ParseConfig")
	defer span.End()

	span.SetAttributes(attribute.String("config.file", filePath))

	config := Default()

	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
		}
	case errors.Is(err, fs.ErrNotExist) && filePath == DefaultPath():
		span.SetAttributes(attribute.Bool("config.defaults", true))
	default:
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if root := os.Getenv(EnvRepositoryRoot); root != "" {
		config.RepositoryRoot = root
	}
	config.RepositoryRoot = expandHome(config.RepositoryRoot)
	config.SSH.KnownHosts = expandHome(config.SSH.KnownHosts)

	if err := config.Validate(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("invalid config file %s: %w", filePath, err)
	}

	span.SetAttributes(
		attribute.String("config.repository_root", config.RepositoryRoot),
		attribute.Bool("config.store_credentials", config.StoreCredentials),
	)

	return config, nil
}
