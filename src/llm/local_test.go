package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newLocalServer(t *testing.T, handler http.HandlerFunc) *LocalBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &LocalBackend{BaseURL: srv.URL, Timeout: 5 * time.Second, HTTPClient: srv.Client()}
}

// closedAddr returns a loopback URL nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return "http://" + addr
}

func TestLocalBackendSendsGenerateRequest(t *testing.T) {
	var got generateRequest
	b := newLocalServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, generatePath, r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"  the answer \n"}`))
	})

	text, err := b.Respond(context.Background(), Request{
		System: SystemInstruction,
		Prompt: "Summarize this",
		Image:  []byte("0123456789"),
		Model:  "llava",
	})
	require.NoError(t, err)
	require.Equal(t, "the answer", text)

	require.Equal(t, "llava", got.Model)
	require.Equal(t, SystemInstruction, got.System)
	require.Equal(t, "Summarize this", got.Prompt)
	require.False(t, got.Stream)
	require.Equal(t, []string{base64.StdEncoding.EncodeToString([]byte("0123456789"))}, got.Images)
}

func TestLocalBackendFailureModes(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantKind   Kind
		wantEmpty  bool
		wantSubstr string
	}{
		{
			name: "missing model",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"model 'llava' not found"}`, http.StatusNotFound)
			},
			wantKind:   KindHTTPStatus,
			wantSubstr: "ollama pull llava",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantKind:   KindHTTPStatus,
			wantSubstr: "500",
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"response": ""}`))
			},
			wantEmpty:  true,
			wantSubstr: "empty response",
		},
		{
			name: "whitespace response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"response": "  \n "}`))
			},
			wantEmpty:  true,
			wantSubstr: "empty response",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			wantKind:   KindUnknown,
			wantSubstr: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newLocalServer(t, tt.handler)
			text, err := b.Respond(context.Background(), Request{Prompt: "p", Model: "llava"})
			require.Error(t, err)
			require.Empty(t, text)
			require.Contains(t, err.Error(), tt.wantSubstr)

			if tt.wantEmpty {
				var emptyErr *EmptyResponseError
				require.ErrorAs(t, err, &emptyErr)
				return
			}
			var te *TransportError
			require.ErrorAs(t, err, &te)
			require.Equal(t, tt.wantKind, te.Kind)
		})
	}
}

func TestLocalBackendConnectionRefused(t *testing.T) {
	b := &LocalBackend{BaseURL: closedAddr(t), Timeout: 2 * time.Second}

	_, err := b.Respond(context.Background(), Request{Prompt: "p", Model: "llava"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, KindUnreachable, te.Kind)
	require.Contains(t, err.Error(), "could not connect")

	// Must read differently from a missing-model failure.
	missing := &TransportError{Engine: EngineLocal, Kind: KindHTTPStatus, StatusCode: http.StatusNotFound, Model: "llava"}
	require.NotEqual(t, missing.Error(), err.Error())
	require.NotContains(t, err.Error(), "ollama pull")
}

func TestLocalBackendTimeout(t *testing.T) {
	release := make(chan struct{})
	b := newLocalServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	b.Timeout = 50 * time.Millisecond

	_, err := b.Respond(context.Background(), Request{Prompt: "p", Model: "llava"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, KindTimeout, te.Kind)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLocalBackendPing(t *testing.T) {
	b := newLocalServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, tagsPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	require.NoError(t, b.Ping(context.Background()))

	down := &LocalBackend{BaseURL: closedAddr(t)}
	err := down.Ping(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, KindUnreachable, te.Kind)
}
