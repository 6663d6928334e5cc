package s3

import (
	"testing"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportKey(t *testing.T) {
	at := time.Date(2026, 5, 1, 23, 30, 0, 0, time.FixedZone("X", -3*3600))
	assert.Equal(t, "exports/orders/20260502T023000Z.csv", ExportKey(" Orders ", at))
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(config.BlobConfig{}, nil)
	require.Error(t, err)

	_, err = NewClient(config.BlobConfig{Endpoint: "localhost:9000"}, nil)
	require.Error(t, err)

	client, err := NewClient(config.BlobConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "orderdesk-exports",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "orderdesk-exports", client.Bucket())
}
