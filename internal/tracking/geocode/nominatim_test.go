package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReturnsDisplayName(t *testing.T) {
	var gotUA, gotFormat, gotLat, gotLon string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotFormat = r.URL.Query().Get("format")
		gotLat = r.URL.Query().Get("lat")
		gotLon = r.URL.Query().Get("lon")
		w.Write([]byte(`{"display_name":"1 Main St, Springfield"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "fieldtrack-test/1.0", time.Second)
	addr, err := c.Resolve(context.Background(), 12.9716, 77.5946)
	require.NoError(t, err)

	assert.Equal(t, "1 Main St, Springfield", addr)
	assert.Equal(t, "fieldtrack-test/1.0", gotUA)
	assert.Equal(t, "jsonv2", gotFormat)
	assert.Equal(t, "12.9716", gotLat)
	assert.Equal(t, "77.5946", gotLon)
}

func TestResolveMissingDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "fieldtrack-test/1.0", time.Second)
	addr, err := c.Resolve(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, UnknownAddress, addr)
}

func TestResolveNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "fieldtrack-test/1.0", time.Second)
	_, err := c.Resolve(context.Background(), 12.9716, 77.5946)
	assert.Error(t, err)
}

func TestResolveRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, "fieldtrack-test/1.0", time.Second)
	_, err := c.Resolve(ctx, 12.9716, 77.5946)
	assert.Error(t, err)
}
