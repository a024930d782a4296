package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateConfig_RequiresQuery(t *testing.T) {
	t.Parallel()
	c := New(0)
	_, err := c.ValidateConfig(map[string]any{})
	require.Error(t, err)
}

func TestValidateConfig_ClampsMaxPages(t *testing.T) {
	t.Parallel()
	c := New(0)
	cfg, err := c.ValidateConfig(map[string]any{"query": "go", "maxPages": float64(500)})
	require.NoError(t, err)
	require.Equal(t, 100, cfg.(Config).MaxPages)
}

func TestCrawl_SearchesThenParsesEachTitle(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, _ := url.ParseQuery(r.URL.RawQuery)
		switch q.Get("action") {
		case "query":
			fmt.Fprint(w, `{"query":{"search":[{"title":"Go (programming language)"}]}}`)
		case "parse":
			fmt.Fprint(w, `{"parse":{"title":"Go (programming language)","pageid":25107,"text":{"*":"<p>Go is a language.</p>"},"categories":[]}}`)
		}
	}))
	defer srv.Close()

	c := New(0)
	c.client = srv.Client()
	oldBase := apiBase
	apiBase = srv.URL
	defer func() { apiBase = oldBase }()

	cfg, err := c.ValidateConfig(map[string]any{"query": "go"})
	require.NoError(t, err)

	seq := c.Crawl(context.Background(), cfg)
	page, ok, err := seq.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Go (programming language)", page.Title)
	require.Equal(t, "25107", page.Metadata["page_id"])

	_, ok, err = seq.Next(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}
