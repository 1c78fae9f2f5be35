package storage

import "path/filepath"

// PathConfig holds configuration for storage path generation.
type PathConfig struct {
	// BasePath is the root directory for blob storage.
	BasePath string

	// ShardLevels is the number of directory levels for sharding.
	// Default: 2 (e.g., /videos/ab/cd/abcdef...)
	ShardLevels int

	// ShardWidth is the number of characters per shard level.
	// Default: 2 (e.g., ab, cd)
	ShardWidth int
}

// DefaultPathConfig returns the default path configuration.
func DefaultPathConfig(basePath string) PathConfig {
	return PathConfig{
		BasePath:    basePath,
		ShardLevels: 2,
		ShardWidth:  2,
	}
}

// ComputePath generates the storage path for a blob ID within a bucket.
// Uses directory sharding to distribute files across directories.
//
// Example with default config (2 levels, 2 chars each):
//
//	bucket: "videos", id: "abcdef12-..."
//	basePath: "/data"
//	result: "/data/videos/ab/cd/abcdef12-..."
func ComputePath(config PathConfig, bucket, id string) string {
	minLength := config.ShardLevels * config.ShardWidth
	if len(id) < minLength {
		return filepath.Join(config.BasePath, bucket, id)
	}

	components := make([]string, 0, config.ShardLevels+3)
	components = append(components, config.BasePath, bucket)

	offset := 0
	for i := 0; i < config.ShardLevels; i++ {
		components = append(components, id[offset:offset+config.ShardWidth])
		offset += config.ShardWidth
	}

	components = append(components, id)

	return filepath.Join(components...)
}
