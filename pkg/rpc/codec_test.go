package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodecRoundTrip(t *testing.T) {
	var codec JSONCodec
	req := &LockRequest{TransactionID: 1, RowID: 2, WaitForSignature: true}

	data, err := codec.Marshal(req)
	require.NoError(t, err)

	var got LockRequest
	require.NoError(t, codec.Unmarshal(data, &got))
	assert.Equal(t, *req, got)
}

func TestJSONCodecName(t *testing.T) {
	var codec JSONCodec
	assert.Equal(t, "json", codec.Name())
}

func TestJSONCodecUnmarshalRejectsGarbage(t *testing.T) {
	var codec JSONCodec
	var out LockResponse
	err := codec.Unmarshal([]byte("{not json"), &out)
	assert.Error(t, err)
}
