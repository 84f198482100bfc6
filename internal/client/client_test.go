package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	return New(serverURL, "test-client", 5*time.Second)
}

func TestRegisterSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/register_client", r.URL.Path)
		assert.Equal(t, "test-client", r.URL.Query().Get("client_id"))

		json.NewEncoder(w).Encode(map[string]string{"version": Version})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	assert.NoError(t, c.Register(context.Background()))
}

func TestRegisterVersionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"version": "1.0.0"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.Register(context.Background())
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestRegisterServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	assert.Error(t, c.Register(context.Background()))
}

func TestRegisterUnreachableServer(t *testing.T) {
	c := New("http://127.0.0.1:1", "test-client", 500*time.Millisecond)
	assert.Error(t, c.Register(context.Background()))
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
	}{
		{name: "enabled", enabled: true},
		{name: "disabled", enabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/", r.URL.Path)

				json.NewEncoder(w).Encode(map[string]bool{"enabled": tt.enabled})
			}))
			defer srv.Close()

			enabled, err := newTestClient(srv.URL).Status(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, enabled)
		})
	}
}

func TestEnableDisableDeregister(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	ctx := context.Background()

	require.NoError(t, c.Enable(ctx))
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/enable", gotPath)

	require.NoError(t, c.Disable(ctx))
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/disable", gotPath)

	require.NoError(t, c.Deregister(ctx))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/deregister_client", gotPath)
}

func TestRegisterInteraction(t *testing.T) {
	sentence := []byte{0x01, 0x02, 0x03, 0x04}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/interactions/register", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))

		_, err := uuid.Parse(r.Header.Get("X-Interaction-ID"))
		assert.NoError(t, err, "interaction ID must be a UUID")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, sentence, body)

		json.NewEncoder(w).Encode(map[string]string{"transcript": "hello"})
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).RegisterInteraction(context.Background(), sentence)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(result, &decoded))
	assert.Equal(t, "hello", decoded["transcript"])
}

func TestRegisterInteractionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).RegisterInteraction(context.Background(), []byte{1})
	assert.Error(t, err)
}
