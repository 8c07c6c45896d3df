package storage

import (
	"context"
	"fmt"

	"github.com/duri0214/soil-analysis/config"
)

// Open builds the archive store selected by the storage configuration.
func Open(ctx context.Context, cfg config.StorageConfig) (ArchiveStore, error) {
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		return NewFSStore(cfg.Root)
	case DriverS3:
		return NewS3Store(ctx, S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
