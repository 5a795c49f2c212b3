package storage

import (
	"context"
	"fmt"

	"marketly.com/app/internal/config"
)

type FactoryResult struct {
	Driver  string
	Storage Storage
}

// FromConfig builds the configured backend. Config.Validate has already
// checked the required S3 fields.
func FromConfig(ctx context.Context, cfg config.StorageConfig) (FactoryResult, error) {
	switch cfg.Driver {
	case "", "local":
		return FactoryResult{Driver: "local", Storage: NewLocal(cfg.LocalDir, cfg.LocalURLPrefix)}, nil

	case "s3":
		if cfg.S3.Region == "" || cfg.S3.Bucket == "" || cfg.S3.PublicBaseURL == "" {
			return FactoryResult{}, fmt.Errorf("S3 config missing: S3_REGION, S3_BUCKET, S3_PUBLIC_BASE_URL required")
		}
		s, err := NewS3(ctx, S3Config{
			Region:        cfg.S3.Region,
			Bucket:        cfg.S3.Bucket,
			Prefix:        cfg.S3.Prefix,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			Endpoint:      cfg.S3.Endpoint,
		})
		if err != nil {
			return FactoryResult{}, err
		}
		return FactoryResult{Driver: "s3", Storage: s}, nil

	default:
		return FactoryResult{}, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
