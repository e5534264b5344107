package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRequests(t *testing.T) {
	reqs, batch, err := ParseRequests([]byte(`{"jsonrpc":"2.0","id":"abc","method":"starknet_chainId"}`))
	require.Nil(t, err)
	require.False(t, batch)
	require.Len(t, reqs, 1)
	require.Equal(t, `"abc"`, string(reqs[0].ID))
	require.Nil(t, reqs[0].Validate())

	reqs, batch, err = ParseRequests([]byte(` [{"jsonrpc":"2.0","id":1,"method":"a"}, 1, {"jsonrpc":"2.0","method":"b"}]`))
	require.Nil(t, err)
	require.True(t, batch)
	require.Len(t, reqs, 3)
	require.Nil(t, reqs[0].Validate())
	require.NotNil(t, reqs[1].Validate())
	require.True(t, reqs[2].IsNotification())

	reqs, batch, err = ParseRequests([]byte(`[]`))
	require.Nil(t, err)
	require.True(t, batch)
	require.Len(t, reqs, 0)

	_, _, err = ParseRequests([]byte(`{"jsonrpc":"2.0","id":1,`))
	require.NotNil(t, err)

	// valid json that is not a request
	reqs, batch, err = ParseRequests([]byte(`"starknet_chainId"`))
	require.Nil(t, err)
	require.False(t, batch)
	require.NotNil(t, reqs[0].Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		req   string
		valid bool
	}{
		{"number id", `{"jsonrpc":"2.0","id":7,"method":"m"}`, true},
		{"string id", `{"jsonrpc":"2.0","id":"7","method":"m"}`, true},
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"m"}`, true},
		{"array params", `{"jsonrpc":"2.0","id":1,"method":"m","params":[]}`, true},
		{"object params", `{"jsonrpc":"2.0","id":1,"method":"m","params":{}}`, true},
		{"object id", `{"jsonrpc":"2.0","id":{},"method":"m"}`, false},
		{"old version", `{"jsonrpc":"1.0","id":1,"method":"m"}`, false},
		{"no method", `{"jsonrpc":"2.0","id":1}`, false},
		{"scalar params", `{"jsonrpc":"2.0","id":1,"method":"m","params":3}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req Request
			require.Nil(t, json.Unmarshal([]byte(tt.req), &req))
			err := req.Validate()
			if tt.valid {
				require.Nil(t, err)
			} else {
				require.NotNil(t, err)
			}
		})
	}
}

func TestResponses(t *testing.T) {
	req := Request{JSONRPC: Version, ID: json.RawMessage(`"id-1"`), Method: "m"}

	data, err := json.Marshal(req.MakeResponse(json.RawMessage(`"0x1"`)))
	require.Nil(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":"id-1","result":"0x1"}`, string(data))

	data, err = json.Marshal(req.MakeResponse(nil))
	require.Nil(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":"id-1","result":null}`, string(data))

	data, err = json.Marshal(req.MakeError(MethodNotFoundError("m")))
	require.Nil(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":"id-1","error":{"code":-32601,"message":"Method not found","data":"m"}}`, string(data))

	data, err = json.Marshal(ErrorResponse(UpstreamUnavailableError()))
	require.Nil(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32001,"message":"Upstream unavailable"}}`, string(data))
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest(3, "starknet_getNonce", []string{"latest", "0x1"})
	require.Nil(t, err)
	data, err := json.Marshal(req)
	require.Nil(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":3,"method":"starknet_getNonce","params":["latest","0x1"]}`, string(data))

	raw := json.RawMessage(`{"block_id" : "latest"}`)
	req, err = NewRequest(4, "m", raw)
	require.Nil(t, err)
	require.Equal(t, string(raw), string(req.Params))

	req, err = NewRequest(5, "m", nil)
	require.Nil(t, err)
	data, err = json.Marshal(req)
	require.Nil(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":5,"method":"m"}`, string(data))
}

func TestErrorString(t *testing.T) {
	require.Equal(t, "RPC error 28 - Class hash not found", NewError(28, "Class hash not found", "").Error())
	require.Equal(t, `RPC error -32602 - Invalid params: "bad"`, NewError(CodeInvalidParams, "Invalid params", "bad").Error())
}

func TestMakeInvalid(t *testing.T) {
	tests := []struct {
		name string
		req  string
		id   string
	}{
		{"number id", `{"jsonrpc":"1.0","id":9,"method":"m"}`, `9`},
		{"string id", `{"jsonrpc":"2.0","id":"a"}`, `"a"`},
		{"object id", `{"jsonrpc":"2.0","id":{"a":1},"method":"m"}`, `null`},
		{"no id", `{"jsonrpc":"1.0","method":"m"}`, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req Request
			require.Nil(t, json.Unmarshal([]byte(tt.req), &req))
			err := req.Validate()
			require.NotNil(t, err)
			resp := req.MakeInvalid(err)
			require.Equal(t, tt.id, string(resp.ID))
			require.Equal(t, CodeInvalidRequest, resp.Error.Code)
		})
	}
}
