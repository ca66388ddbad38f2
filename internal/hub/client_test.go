package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Outbox(t *testing.T) {
	c := newClient(nil, 1)
	assert.True(t, c.Open())
	assert.WithinDuration(t, time.Now(), c.LastActive(), time.Second)

	require.NoError(t, c.Send([]byte("one")))
	assert.ErrorIs(t, c.Send([]byte("two")), ErrOutboxFull)

	c.closeOutbox()
	c.closeOutbox()
	assert.False(t, c.Open())
	assert.ErrorIs(t, c.Send([]byte("three")), ErrConnectionClosed)
}

func TestClient_TouchAdvancesLastActive(t *testing.T) {
	c := newClient(nil, 1)
	c.lastActive.Store(time.Now().Add(-time.Minute).UnixNano())
	before := c.LastActive()

	c.touch()
	assert.True(t, c.LastActive().After(before))
	assert.WithinDuration(t, time.Now(), c.LastActive(), time.Second)
}
