package storage

import (
	"context"
	"fmt"

	"avatio/internal/config"
)

// New builds the ObjectStore selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverS3:
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.StorageBucket,
			Region:    cfg.StorageRegion,
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
		})
	case config.StorageDriverMinio:
		region := cfg.StorageRegion
		if region == "auto" {
			region = ""
		}
		return NewMinioStore(MinioOptions{
			Endpoint:  cfg.StorageEndpoint,
			Bucket:    cfg.StorageBucket,
			Region:    region,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			UseSSL:    cfg.StorageUseSSL,
		})
	case config.StorageDriverMemory, "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
