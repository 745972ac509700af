package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shaHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestHubFetcherHeaderDigest(t *testing.T) {
	content := []byte("model weights")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/acme/tiny", r.URL.Path)
		w.Header().Set(checksumHeader, shaHex(content))
		w.Write(content)
	}))
	defer srv.Close()

	f := NewHubFetcher(srv.URL, srv.Client())
	var buf bytes.Buffer
	digest, err := f.Fetch(context.Background(), "acme/tiny", &buf)
	require.NoError(t, err)
	assert.Equal(t, shaHex(content), digest)
	assert.Equal(t, content, buf.Bytes())
}

func TestHubFetcherCompanionDigest(t *testing.T) {
	content := []byte("model weights")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/acme/tiny":
			w.Write(content) // no checksum header
		case "/acme/tiny.sha256":
			w.Write([]byte(shaHex(content) + "  model.gguf\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHubFetcher(srv.URL, srv.Client())
	var buf bytes.Buffer
	digest, err := f.Fetch(context.Background(), "acme/tiny", &buf)
	require.NoError(t, err)
	assert.Equal(t, shaHex(content), digest)
}

func TestHubFetcherNoDigestAnywhere(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/acme/tiny" {
			w.Write([]byte("data"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHubFetcher(srv.URL, srv.Client())
	_, err := f.Fetch(context.Background(), "acme/tiny", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no digest advertised")
}

func TestHubFetcherNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewHubFetcher(srv.URL, srv.Client())
	_, err := f.Fetch(context.Background(), "acme/ghost", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = f.Stat(context.Background(), "acme/ghost")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestHubFetcherStat(t *testing.T) {
	content := []byte("0123456789")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Length", "10")
	}))
	defer srv.Close()

	f := NewHubFetcher(srv.URL, srv.Client())
	size, err := f.Stat(context.Background(), "acme/tiny")
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)
}

func TestEndToEndWithHubFetcher(t *testing.T) {
	content := []byte("real transport, real hashing")
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/acme/tiny" {
			gets.Add(1)
		}
		w.Header().Set(checksumHeader, shaHex(content))
		w.Header().Set("Content-Length", "28")
		if r.Method == http.MethodGet {
			w.Write(content)
		}
	}))
	defer srv.Close()

	c, err := New(Options{Dir: t.TempDir(), Fetcher: NewHubFetcher(srv.URL, srv.Client())})
	require.NoError(t, err)

	path, err := c.GetModel(context.Background(), "acme/tiny")
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.True(t, c.IsCached("acme/tiny"))
	assert.Equal(t, int32(1), gets.Load())

	// Warm hit goes nowhere near the network.
	_, err = c.GetModel(context.Background(), "acme/tiny")
	require.NoError(t, err)
	assert.Equal(t, int32(1), gets.Load())
}
