package config

type StorageConfig struct {
	// CheckpointStore is one of memory, redis, postgres or sqlite
	CheckpointStore string
	SQLitePath      string
	// SessionStore is one of memory or redis
	SessionStore string
	// ArchiveMode is one of none, local or s3
	ArchiveMode string
	ArchiveDir  string
	AWSRegion   string
	AWSBucket   string
	AWSPrefix   string
}

func (s StorageConfig) UsesRedis() bool {
	return s.CheckpointStore == "redis" || s.SessionStore == "redis"
}

func (s StorageConfig) UsesPostgres() bool {
	return s.CheckpointStore == "postgres"
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		CheckpointStore: getEnv("CHECKPOINT_STORE", "memory"),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/checkpoints.db"),
		SessionStore:    getEnv("SESSION_STORE", "memory"),
		ArchiveMode:     getEnv("ARCHIVE_MODE", "none"),
		ArchiveDir:      getEnv("ARCHIVE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		AWSBucket:       getEnv("AWS_BUCKET", ""),
		AWSPrefix:       getEnv("AWS_PREFIX", ""),
	}
}
