package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, handler http.HandlerFunc) (*Dispatcher, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	d := NewDispatcher(srv.URL, "test-token")
	return d, srv.Close
}

func TestGetChannelSendsAuthAndTraceHeaders(t *testing.T) {
	var gotAuth, gotTrace string
	d, closeSrv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTrace = r.Header.Get("X-Request-Id")
		w.Header().Set("X-Ratelimit-Limit", "5")
		w.Header().Set("X-Ratelimit-Remaining", "4")
		w.WriteHeader(http.StatusOK)
	})
	defer closeSrv()

	resp, err := d.GetChannel(context.Background(), "123")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bot test-token", gotAuth)
	assert.NotEmpty(t, gotTrace)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateChannelMessageMarshalsBody(t *testing.T) {
	var gotBody string
	d, closeSrv := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("X-Ratelimit-Limit", "5")
		w.Header().Set("X-Ratelimit-Remaining", "4")
		w.WriteHeader(http.StatusCreated)
	})
	defer closeSrv()

	resp, err := d.CreateChannelMessage(context.Background(), "42", "hello", "", false)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, gotBody, `"content":"hello"`)
}

func TestDeleteChannelMessagePropagatesTransportError(t *testing.T) {
	d := NewDispatcher("http://127.0.0.1:1", "tok") // nothing listens here
	_, err := d.DeleteChannelMessage(context.Background(), "1", "2")
	assert.Error(t, err)
}
