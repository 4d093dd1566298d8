package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Enqueue(t *testing.T) {
	c := NewClient(nil, nil)

	for range sendBuffer {
		require.NoError(t, c.Enqueue([]byte("x")))
	}
	assert.ErrorIs(t, c.Enqueue([]byte("x")), ErrQueueFull)

	c.Close()
	c.Close()
	assert.ErrorIs(t, c.Enqueue([]byte("x")), ErrClosed)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, newLimiter(0, 0))

	l := newLimiter(2, 0)
	assert.Nil(t, l)

	l = newLimiter(2, 1<<40)
	require.NotNil(t, l)
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
