package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRobotsCache_DisallowedPathBlocked(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rc := NewRobotsCache(srv.Client(), "hyperfind-crawler/1.0")
	require.True(t, rc.Allowed(context.Background(), srv.URL+"/public"))
	require.False(t, rc.Allowed(context.Background(), srv.URL+"/private/page"))
}

func TestRobotsCache_FetchErrorDefaultsAllow(t *testing.T) {
	t.Parallel()
	rc := NewRobotsCache(http.DefaultClient, "hyperfind-crawler/1.0")
	require.True(t, rc.Allowed(context.Background(), "http://127.0.0.1:1/anything"))
}

func TestRobotsCache_NonOKStatusDefaultsAllow(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rc := NewRobotsCache(srv.Client(), "hyperfind-crawler/1.0")
	require.True(t, rc.Allowed(context.Background(), srv.URL+"/whatever"))
}

func TestRobotsCache_CachesPerHost(t *testing.T) {
	t.Parallel()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
	}))
	defer srv.Close()

	rc := NewRobotsCache(srv.Client(), "hyperfind-crawler/1.0")
	rc.Allowed(context.Background(), srv.URL+"/a")
	rc.Allowed(context.Background(), srv.URL+"/b")
	require.Equal(t, 1, calls)
}
