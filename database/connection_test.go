package database

import (
	"bytes"
	"context"
	"testing"

	"blogapi/config"
	"blogapi/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{StorageType: config.StorageMemory}

	store, err := Open(context.Background(), cfg, logger.New(&buf, "info", "text"))
	require.NoError(t, err)
	require.NotNil(t, store.Posts)
	require.NotNil(t, store.Users)
	assert.NoError(t, store.Close(context.Background()))
	assert.Contains(t, buf.String(), "in-memory")
}

func TestOpen_UnknownStorage(t *testing.T) {
	var buf bytes.Buffer
	_, err := Open(context.Background(), &config.Config{StorageType: "redis"}, logger.New(&buf, "info", "text"))
	assert.Error(t, err)
}
