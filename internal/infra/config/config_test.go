package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "STORAGE", "MONGO_URI", "KAFKA_BROKERS", "MIN_STAY_DAYS", "RETRY_BACKOFF", "S3_ENDPOINT", "SCYLLA_HOSTS"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 30, cfg.MinStayDays)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.PhotosEnabled())
	assert.False(t, cfg.ScyllaEnabled())
	assert.Equal(t, "QUORUM", cfg.ScyllaConsistency)
	assert.Equal(t, 168*time.Hour, cfg.InboxTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("MIN_STAY_DAYS", "7")
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("S3_USE_SSL", "yes")
	t.Setenv("SCYLLA_HOSTS", "s1,s2")
	t.Setenv("SCYLLA_CONSISTENCY", "local_quorum")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorageMongo, cfg.Storage)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 7, cfg.MinStayDays)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.S3UseSSL)
	assert.True(t, cfg.ScyllaEnabled())
	assert.Equal(t, []string{"s1", "s2"}, cfg.ScyllaHosts)
	assert.Equal(t, "LOCAL_QUORUM", cfg.ScyllaConsistency)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "duration", key: "IDEMP_TTL", value: "soon"},
		{name: "integer", key: "MIN_STAY_DAYS", value: "thirty"},
		{name: "non positive stay", key: "MIN_STAY_DAYS", value: "0"},
		{name: "boolean", key: "S3_USE_SSL", value: "maybe"},
		{name: "storage", key: "STORAGE", value: "postgres"},
		{name: "backoff", key: "RETRY_BACKOFF", value: "1s,later"},
		{name: "currency", key: "CURRENCY", value: "RUPEE"},
		{name: "scylla timeout", key: "SCYLLA_TIMEOUT", value: "fast"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnvMongoNeedsURI(t *testing.T) {
	t.Setenv("STORAGE", "mongo")
	t.Setenv("MONGO_URI", "")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "MONGO_URI")
}
