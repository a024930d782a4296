package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateConfig_RequiresSubredditOrQuery(t *testing.T) {
	t.Parallel()
	c := New(0)
	_, err := c.ValidateConfig(map[string]any{})
	require.Error(t, err)

	cfg, err := c.ValidateConfig(map[string]any{"subreddit": "golang"})
	require.NoError(t, err)
	require.Equal(t, "golang", cfg.(Config).Subreddit)
}

func TestCrawl_SynthesizesPageFromPostAndComments(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/comments/"):
			fmt.Fprint(w, `[{"data":{"children":[]}},{"data":{"children":[{"data":{"body":"great post"}}]}}]`)
		default:
			fmt.Fprint(w, `{"data":{"children":[{"data":{"id":"abc","title":"Why Go?","selftext":"Because it's simple.","author":"gopher","subreddit":"golang","score":42,"num_comments":1,"created_utc":1700000000,"permalink":"/r/golang/comments/abc/why_go/"}}]}}`)
		}
	}))
	defer srv.Close()

	c := New(0)
	c.client = srv.Client()
	oldHost := redditHost
	redditHost = srv.URL
	defer func() { redditHost = oldHost }()

	cfg, err := c.ValidateConfig(map[string]any{"subreddit": "golang"})
	require.NoError(t, err)

	seq := c.Crawl(context.Background(), cfg)
	page, ok, err := seq.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Why Go?", page.Title)
	require.Contains(t, page.RawHTML, "Because it&#39;s simple.")
	require.Contains(t, page.RawHTML, "great post")
	require.Equal(t, "golang", page.Metadata["subreddit"])
}
