package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingle(t *testing.T) {
	entries, batch, failure := Parse([]byte(`{"jsonrpc":"2.0","method":"ping","id":1}`))
	require.Nil(t, failure)
	assert.False(t, batch)
	require.Len(t, entries, 1)

	req := entries[0].Request
	require.NotNil(t, req)
	assert.Equal(t, "ping", req.Method)
	assert.Equal(t, json.RawMessage("1"), req.ID)
	assert.False(t, req.IsNotification())
}

func TestParseInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"old version", `{"jsonrpc":"1.0","method":"ping","id":1}`},
		{"version as number", `{"jsonrpc":2.0,"method":"ping","id":1}`},
		{"missing version", `{"method":"ping","id":1}`},
		{"missing method", `{"jsonrpc":"2.0","id":1}`},
		{"null method", `{"jsonrpc":"2.0","method":null,"id":1}`},
		{"method not a string", `{"jsonrpc":"2.0","method":42,"id":1}`},
		{"empty method", `{"jsonrpc":"2.0","method":"","id":1}`},
		{"object id", `{"jsonrpc":"2.0","method":"ping","id":{"a":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, _, failure := Parse([]byte(tt.body))
			require.Nil(t, failure)
			require.Len(t, entries, 1)
			require.NotNil(t, entries[0].Invalid)

			resp := entries[0].Invalid
			assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
			assert.Equal(t, "Invalid Request", resp.Error.Message)
			assert.Nil(t, resp.ID)
		})
	}
}

func TestParseBodyFailures(t *testing.T) {
	_, _, failure := Parse([]byte(`{"jsonrpc":"2.0",`))
	require.NotNil(t, failure)
	assert.Equal(t, CodeParseError, failure.Error.Code)

	_, _, failure = Parse([]byte(``))
	require.NotNil(t, failure)
	assert.Equal(t, CodeParseError, failure.Error.Code)

	_, batch, failure := Parse([]byte(`[]`))
	require.NotNil(t, failure)
	assert.True(t, batch)
	assert.Equal(t, CodeInvalidRequest, failure.Error.Code)

	_, _, failure = Parse([]byte(`"ping"`))
	require.NotNil(t, failure)
	assert.Equal(t, CodeInvalidRequest, failure.Error.Code)
}

func TestParseBatchValidatesEachElement(t *testing.T) {
	body := `[
		{"jsonrpc":"2.0","method":"ping","id":"a"},
		1,
		{"jsonrpc":"1.0","method":"ping","id":"b"},
		{"jsonrpc":"2.0","method":"ping"}
	]`

	entries, batch, failure := Parse([]byte(body))
	require.Nil(t, failure)
	assert.True(t, batch)
	require.Len(t, entries, 4)

	assert.NotNil(t, entries[0].Request)
	assert.NotNil(t, entries[1].Invalid)
	assert.NotNil(t, entries[2].Invalid)
	require.NotNil(t, entries[3].Request)
	assert.True(t, entries[3].Request.IsNotification())
}

func TestNullIDIsNotification(t *testing.T) {
	entries, _, failure := Parse([]byte(`{"jsonrpc":"2.0","method":"ping","id":null}`))
	require.Nil(t, failure)
	require.NotNil(t, entries[0].Request)
	assert.True(t, entries[0].Request.IsNotification())
}

func TestDecodeParams(t *testing.T) {
	type args struct {
		Name string `json:"name"`
	}

	got, err := DecodeParams[args](nil)
	require.NoError(t, err)
	assert.Empty(t, got.Name)

	got, err = DecodeParams[args](json.RawMessage(`{"name":"echo"}`))
	require.NoError(t, err)
	assert.Equal(t, "echo", got.Name)

	_, err = DecodeParams[args](json.RawMessage(`[1,2]`))
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeInvalidParams, rpcErr.Code)

	_, err = DecodeParamsRequired[args](json.RawMessage(`null`))
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "params required", rpcErr.Data)
}
