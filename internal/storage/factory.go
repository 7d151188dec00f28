package storage

import "strings"

// NewStorage creates an ObjectStorage instance based on the configuration.
func NewStorage(cfg *S3Config) (ObjectStorage, error) {
	if cfg.Type == "" {
		cfg.Type = detectStorageType(cfg.Endpoint)
	}

	return NewS3Storage(cfg)
}

// detectStorageType attempts to detect the storage type from the endpoint
func detectStorageType(endpoint string) StorageType {
	if strings.Contains(strings.ToLower(endpoint), "amazonaws.com") {
		return StorageTypeS3
	}
	return StorageTypeS3Compatible
}
