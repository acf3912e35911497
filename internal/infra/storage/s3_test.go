package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[k] = body
	f.types[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func TestS3StoreUpload(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	store := NewS3FromClient(fake, S3Config{BucketName: "clarify", Region: "us-east-1"})

	url, err := store.Upload(context.Background(), "homework-audio/u1/1700000000000.mp3", []byte("ID3"), "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://clarify.s3.us-east-1.amazonaws.com/homework-audio/u1/1700000000000.mp3", url)
	assert.Equal(t, []byte("ID3"), fake.objects["clarify/homework-audio/u1/1700000000000.mp3"])
	assert.Equal(t, "audio/mpeg", fake.types["clarify/homework-audio/u1/1700000000000.mp3"])
}

func TestS3StorePublicURL(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}

	minioStyle := NewS3FromClient(fake, S3Config{BucketName: "clarify", Endpoint: "http://localhost:9000/"})
	url, err := minioStyle.Upload(context.Background(), "homework-images/u 1/5.png", []byte{1}, "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/clarify/homework-images/u%201/5.png", url)
	assert.Equal(t, "application/octet-stream", fake.types["clarify/homework-images/u 1/5.png"])

	cdn := NewS3FromClient(fake, S3Config{BucketName: "clarify", PublicBaseURL: "https://cdn.example.com"})
	url, err = cdn.Upload(context.Background(), "a/b.mp3", []byte{1}, "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a/b.mp3", url)
}

func TestS3StoreUploadError(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}, err: errors.New("access denied")}
	store := NewS3FromClient(fake, S3Config{BucketName: "clarify", Region: "eu-west-1"})

	_, err := store.Upload(context.Background(), "k", []byte{1}, "audio/mpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://clarify/k")
}
