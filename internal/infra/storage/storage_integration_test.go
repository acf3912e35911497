//go:build integration
// +build integration

// Run with: go test -tags=integration ./internal/infra/storage/...

package storage

import (
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

const (
	minioUsername = "admin"
	minioPassword = "password"
)

func setupMinio(t *testing.T, ctx context.Context) string {
	container, err := tcminio.Run(ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		tcminio.WithUsername(minioUsername),
		tcminio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return host
}

func TestStoresAgainstMinio(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}
	ctx := context.Background()
	host := setupMinio(t, ctx)

	mstore, err := New(ctx, host, "us-east-1", "clarify", minioUsername, minioPassword, false, "")
	require.NoError(t, err)
	require.NoError(t, mstore.Ping(ctx))

	url, err := mstore.Upload(ctx, "homework-audio/u1/1.mp3", []byte("ID3-minio"), "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://"+host+"/clarify/homework-audio/u1/1.mp3", url)

	s3store, err := NewS3(ctx, S3Config{
		Endpoint:   "http://" + host,
		Region:     "us-east-1",
		AccessKey:  minioUsername,
		SecretKey:  minioPassword,
		BucketName: "clarify",
	})
	require.NoError(t, err)
	url2, err := s3store.Upload(ctx, "homework-audio/u1/2.mp3", []byte("ID3-s3"), "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://"+host+"/clarify/homework-audio/u1/2.mp3", url2)

	// objects exist; read them back through the SDK client
	obj, err := mstore.client.GetObject(ctx, "clarify", "homework-audio/u1/2.mp3", minio.GetObjectOptions{})
	require.NoError(t, err)
	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-s3"), body)
}
