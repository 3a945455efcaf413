package storage

import (
	"context"
	"fmt"

	"github.com/rainbowartistery/atelier/config"
)

// Connect builds the disk named by STORAGE_DISK: local, s3, cloudinary or memory.
func Connect(ctx context.Context) (Disk, error) {
	return Open(ctx, config.StorageDefault())
}

func Open(ctx context.Context, name string) (Disk, error) {
	switch name {
	case "local":
		return NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3Disk(ctx, S3Config{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
	case "cloudinary":
		url := config.CloudinaryURL()
		if url == "" {
			return nil, fmt.Errorf("storage/cloudinary: CLOUDINARY_URL is not configured")
		}
		return NewCloudinaryDisk(url)
	case "memory":
		return NewMemoryDisk(config.StorageURL()), nil
	default:
		return nil, fmt.Errorf("storage: disk %q is not supported (local, s3, cloudinary, memory)", name)
	}
}
