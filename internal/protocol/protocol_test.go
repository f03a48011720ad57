package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMarshal(t *testing.T) {
	data, err := json.Marshal(SetDirectory("/srv/site"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"SetDirectory":{"path":"/srv/site"}}`, string(data))

	data, err = json.Marshal(GetStatus())
	require.NoError(t, err)
	assert.Equal(t, `"GetStatus"`, string(data))

	data, err = json.Marshal(Stop())
	require.NoError(t, err)
	assert.Equal(t, `"Stop"`, string(data))
}

func TestCommandUnmarshal(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want Command
	}{
		{"set directory", `{"SetDirectory":{"path":"/srv"}}`, Command{Kind: KindSetDirectory, Path: "/srv"}},
		{"set file", `{"SetFile":{"path":"/srv/readme.txt"}}`, Command{Kind: KindSetFile, Path: "/srv/readme.txt"}},
		{"get status", `"GetStatus"`, Command{Kind: KindGetStatus}},
		{"stop", `"Stop"`, Command{Kind: KindStop}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var cmd Command
			require.NoError(t, json.Unmarshal([]byte(tc.body), &cmd))
			assert.Equal(t, tc.want, cmd)
		})
	}
}

func TestCommandUnmarshalRejectsMalformed(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"unknown unit", `"Restart"`},
		{"unknown tag", `{"Nuke":{"path":"/"}}`},
		{"missing path", `{"SetFile":{}}`},
		{"two tags", `{"SetFile":{"path":"/a"},"SetDirectory":{"path":"/b"}}`},
		{"not a command", `42`},
		{"empty object", `{}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var cmd Command
			assert.Error(t, json.Unmarshal([]byte(tc.body), &cmd))
		})
	}
}

func TestResponseConstructors(t *testing.T) {
	resp := Status("Server running", "/srv/site", 3000)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"Server running","current_path":"/srv/site","port":3000}`, string(data))

	data, err = json.Marshal(Error("no such path"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"no such path"}`, string(data))
}
