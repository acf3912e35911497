package homework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromise(t *testing.T) {
	p := newPromise[string]()

	_, ok, _ := p.peek()
	assert.False(t, ok)

	go p.resolve("rec-1", nil)
	v, err := p.await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rec-1", v)

	p.resolve("rec-2", errors.New("ignored"))
	v, ok, err = p.peek()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, "rec-1", v)
}

func TestPromiseAwaitHonoursContext(t *testing.T) {
	p := newPromise[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "homework-audio/u1/1700000000000.mp3", AudioKey("u1", 1700000000000))
	assert.Equal(t, "homework-images/u1/5.png", ImageKey("u1", 5, "image/png"))
	assert.Equal(t, "homework-images/u1/5.jpg", ImageKey("u1", 5, "image/jpeg"))
}
