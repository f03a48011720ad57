package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/conneroisu/spry/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// controlStub records the raw bodies it receives and replies with a fixed
// response.
type controlStub struct {
	t      *testing.T
	bodies []string
	reply  protocol.Response
}

func (s *controlStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	require.Equal(s.t, http.MethodPost, r.Method)
	require.Equal(s.t, "/control", r.URL.Path)
	require.Equal(s.t, "application/json", r.Header.Get("Content-Type"))

	body, err := io.ReadAll(r.Body)
	require.NoError(s.t, err)
	s.bodies = append(s.bodies, string(body))

	w.Header().Set("Content-Type", "application/json")
	require.NoError(s.t, json.NewEncoder(w).Encode(s.reply))
}

func TestClientSendsExternallyTaggedCommands(t *testing.T) {
	stub := &controlStub{t: t, reply: protocol.Ok("Directory set to: /srv/site")}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	c := New(ts.URL)
	ctx := context.Background()

	resp, err := c.SetDirectory(ctx, "/srv/site")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	_, err = c.SetFile(ctx, "/srv/site/index.html")
	require.NoError(t, err)
	_, err = c.Status(ctx)
	require.NoError(t, err)
	_, err = c.Stop(ctx)
	require.NoError(t, err)

	require.Len(t, stub.bodies, 4)
	assert.JSONEq(t, `{"SetDirectory":{"path":"/srv/site"}}`, stub.bodies[0])
	assert.JSONEq(t, `{"SetFile":{"path":"/srv/site/index.html"}}`, stub.bodies[1])
	assert.JSONEq(t, `"GetStatus"`, stub.bodies[2])
	assert.JSONEq(t, `"Stop"`, stub.bodies[3])
}

func TestClientSurfacesFailureResponses(t *testing.T) {
	stub := &controlStub{t: t, reply: protocol.Error("path does not exist")}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	resp, err := New(ts.URL).SetDirectory(context.Background(), "/nope")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "path does not exist", resp.Message)
}

func TestClientRejectsNonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClientUnreachableServer(t *testing.T) {
	// Port 0 is never listening.
	_, err := New("http://127.0.0.1:0").Status(context.Background())
	require.Error(t, err)
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	stub := &controlStub{t: t, reply: protocol.Ok("ok")}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	_, err := New(ts.URL + "/").Status(context.Background())
	require.NoError(t, err)
	require.Len(t, stub.bodies, 1)
}
