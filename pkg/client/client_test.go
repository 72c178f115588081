package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialDoesNotBlockOnUnreachableServer(t *testing.T) {
	// grpc.NewClient is lazy: it never dials on the calling goroutine,
	// so Dial against an address nothing is listening on must still
	// succeed immediately and hand back a usable (if not yet connected)
	// Client.
	c, err := Dial("127.0.0.1:0")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.NoError(t, c.Close())
}

func TestCloseSucceedsAfterDial(t *testing.T) {
	c, err := Dial("127.0.0.1:0")
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
