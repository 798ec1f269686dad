package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // TASKGRAPH_DATABASE_URL (required)
	HTTPAddr    string // TASKGRAPH_HTTP_ADDR (default ":8080")
	NATSURL     string // TASKGRAPH_NATS_URL (optional, empty = no events)
	AuthToken   string // TASKGRAPH_AUTH_TOKEN (optional, empty = auth disabled)

	// Snapshot settings
	SnapshotInterval   time.Duration // TASKGRAPH_SNAPSHOT_INTERVAL (default 3m; 0 = disabled)
	SnapshotS3Bucket   string        // TASKGRAPH_SNAPSHOT_S3_BUCKET (enables S3 when set)
	SnapshotS3Endpoint string        // TASKGRAPH_SNAPSHOT_S3_ENDPOINT (custom endpoint for MinIO)
	SnapshotS3Region   string        // TASKGRAPH_SNAPSHOT_S3_REGION (default "us-east-1")
	SnapshotS3Key      string        // TASKGRAPH_SNAPSHOT_S3_KEY (default "taskgraph/snapshot.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:        os.Getenv("TASKGRAPH_DATABASE_URL"),
		HTTPAddr:           envOrDefault("TASKGRAPH_HTTP_ADDR", ":8080"),
		NATSURL:            os.Getenv("TASKGRAPH_NATS_URL"),
		AuthToken:          os.Getenv("TASKGRAPH_AUTH_TOKEN"),
		SnapshotS3Bucket:   os.Getenv("TASKGRAPH_SNAPSHOT_S3_BUCKET"),
		SnapshotS3Endpoint: os.Getenv("TASKGRAPH_SNAPSHOT_S3_ENDPOINT"),
		SnapshotS3Region:   envOrDefault("TASKGRAPH_SNAPSHOT_S3_REGION", "us-east-1"),
		SnapshotS3Key:      envOrDefault("TASKGRAPH_SNAPSHOT_S3_KEY", "taskgraph/snapshot.jsonl"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("TASKGRAPH_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("TASKGRAPH_SNAPSHOT_INTERVAL", "3m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("TASKGRAPH_SNAPSHOT_INTERVAL: %w", err)
		}
		c.SnapshotInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
