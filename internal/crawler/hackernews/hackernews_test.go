package hackernews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateConfig_RejectsBadListType(t *testing.T) {
	t.Parallel()
	c := New(0)
	_, err := c.ValidateConfig(map[string]any{"listType": "weird"})
	require.Error(t, err)
}

func TestValidateConfig_DefaultsListTypeToTop(t *testing.T) {
	t.Parallel()
	c := New(0)
	cfg, err := c.ValidateConfig(map[string]any{})
	require.NoError(t, err)
	require.Equal(t, "top", cfg.(Config).ListType)
}

func TestCrawl_FirebaseListFetchesStoriesAndExternalHTML(t *testing.T) {
	t.Parallel()
	external := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>article body</body></html>")
	}))
	defer external.Close()

	firebase := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "topstories.json"):
			fmt.Fprint(w, "[1]")
		case strings.HasSuffix(r.URL.Path, "item/1.json"):
			fmt.Fprintf(w, `{"id":1,"title":"Show HN: thing","url":"%s","by":"dev","score":10,"descendants":2,"time":1700000000}`, external.URL)
		}
	}))
	defer firebase.Close()

	oldBase := firebaseBase
	firebaseBase = firebase.URL
	defer func() { firebaseBase = oldBase }()

	c := New(0)
	cfg, err := c.ValidateConfig(map[string]any{"listType": "top"})
	require.NoError(t, err)

	seq := c.Crawl(context.Background(), cfg)
	page, ok, err := seq.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Show HN: thing", page.Title)
	require.Contains(t, page.RawHTML, "article body")
	require.Equal(t, "10", page.Metadata["points"])
}
