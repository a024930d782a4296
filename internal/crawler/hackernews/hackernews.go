// Package hackernews implements the Hacker News crawler: the Algolia search
// API for keyword queries, the Firebase API for top/new/best story lists,
// and a best-effort fetch of each story's external URL to append to the
// synthesized page.
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hyperfind/internal/apperr"
	"hyperfind/internal/crawler"
)

const (
	source          = "hackernews"
	maxPagesCap     = 100
	maxExternalBody = 2 * 1000 * 1000
)

// algoliaSearch and firebaseBase are HN's public API origins, overridable
// in tests.
var (
	algoliaSearch = "https://hn.algolia.com/api/v1/search"
	firebaseBase  = "https://hacker-news.firebaseio.com/v0"
)

// Config is the normalized, validated crawl configuration.
type Config struct {
	Query     string
	ListType  string // top, new, best
	MaxPages  int
	UserAgent string
}

// Crawler implements crawler.Crawler for Hacker News.
type Crawler struct {
	client *http.Client
}

// New builds a Hacker News crawler using an HTTP client bounded by timeout.
func New(timeout time.Duration) *Crawler {
	return &Crawler{client: crawler.NewHTTPClient(timeout)}
}

// ValidateConfig requires listType to be one of top/new/best when query is
// absent, and clamps maxPages to [1,100].
func (c *Crawler) ValidateConfig(raw map[string]any) (any, error) {
	query, _ := crawler.ConfigString(raw, "query")
	listType, _ := crawler.ConfigString(raw, "listType")
	if query == "" {
		switch listType {
		case "top", "new", "best":
		case "":
			listType = "top"
		default:
			return nil, crawler.BadConfig("hackernews.validateConfig", "listType must be one of top, new, best")
		}
	}
	ua, _ := crawler.ConfigString(raw, "userAgent")
	if ua == "" {
		ua = "hyperfind-crawler/1.0"
	}
	return Config{
		Query:     query,
		ListType:  listType,
		MaxPages:  crawler.ClampMaxPages(crawler.ConfigInt(raw, "maxPages", 25), 25, maxPagesCap),
		UserAgent: ua,
	}, nil
}

// Crawl resolves the story records up front (one Algolia search, or a
// Firebase list plus one item fetch per story), then lazily fetches each
// story's external URL and synthesizes its page on demand.
func (c *Crawler) Crawl(ctx context.Context, config any) crawler.Seq {
	cfg, ok := config.(Config)
	if !ok {
		return crawler.NewSliceSeq(nil)
	}

	var stories []hnStory
	var err error
	if cfg.Query != "" {
		stories, err = c.algoliaSearch(ctx, cfg)
	} else {
		stories, err = c.firebaseList(ctx, cfg)
	}
	if err != nil || len(stories) == 0 {
		return crawler.NewSliceSeq(nil)
	}

	i := 0
	return crawler.NewFuncSeq(func(ctx context.Context) (crawler.Page, bool, error) {
		for i < len(stories) {
			story := stories[i]
			i++
			return c.synthesize(ctx, cfg, story), true, nil
		}
		return crawler.Page{}, false, nil
	})
}

type hnStory struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAt   string `json:"created_at"`
}

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAt   string `json:"created_at"`
}

type algoliaResponse struct {
	Hits []algoliaHit `json:"hits"`
}

func (c *Crawler) algoliaSearch(ctx context.Context, cfg Config) ([]hnStory, error) {
	u := fmt.Sprintf("%s?query=%s&tags=story&hitsPerPage=%d", algoliaSearch, url.QueryEscape(cfg.Query), cfg.MaxPages)
	var resp algoliaResponse
	if err := c.getJSON(ctx, cfg, u, &resp); err != nil {
		return nil, err
	}
	out := make([]hnStory, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		id, _ := strconv.Atoi(h.ObjectID)
		out = append(out, hnStory{
			ID: id, Title: h.Title, URL: h.URL, Author: h.Author,
			Points: h.Points, NumComments: h.NumComments, CreatedAt: h.CreatedAt,
		})
	}
	return out, nil
}

func (c *Crawler) firebaseList(ctx context.Context, cfg Config) ([]hnStory, error) {
	var ids []int
	if err := c.getJSON(ctx, cfg, fmt.Sprintf("%s/%sstories.json", firebaseBase, cfg.ListType), &ids); err != nil {
		return nil, err
	}
	if len(ids) > cfg.MaxPages {
		ids = ids[:cfg.MaxPages]
	}
	out := make([]hnStory, 0, len(ids))
	for _, id := range ids {
		var item struct {
			ID    int    `json:"id"`
			Title string `json:"title"`
			URL   string `json:"url"`
			By    string `json:"by"`
			Score int    `json:"score"`
			Descendants int `json:"descendants"`
			Time  int64  `json:"time"`
		}
		if err := c.getJSON(ctx, cfg, fmt.Sprintf("%s/item/%d.json", firebaseBase, id), &item); err != nil {
			continue
		}
		out = append(out, hnStory{
			ID: item.ID, Title: item.Title, URL: item.URL, Author: item.By,
			Points: item.Score, NumComments: item.Descendants,
			CreatedAt: strconv.FormatInt(item.Time, 10),
		})
	}
	return out, nil
}

func (c *Crawler) synthesize(ctx context.Context, cfg Config, story hnStory) crawler.Page {
	hnURL := fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID)

	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<h1>" + html.EscapeString(story.Title) + "</h1>")
	if story.URL != "" {
		if body, ok := c.fetchExternal(ctx, cfg, story.URL); ok {
			sb.WriteString("<div class=\"external\">" + body + "</div>")
		}
	}
	sb.WriteString("</body></html>")

	return crawler.Page{
		URL:     hnURL,
		Title:   story.Title,
		RawHTML: sb.String(),
		Source:  source,
		Metadata: map[string]string{
			"hn_id":        strconv.Itoa(story.ID),
			"hn_url":       story.URL,
			"points":       strconv.Itoa(story.Points),
			"author":       story.Author,
			"num_comments": strconv.Itoa(story.NumComments),
			"created_at":   story.CreatedAt,
		},
	}
}

// fetchExternal best-effort fetches a story's external link HTML. Failure
// is not fatal: the page is still synthesized from the title alone.
func (c *Crawler) fetchExternal(ctx context.Context, cfg Config, rawURL string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "html") {
		return "", false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExternalBody))
	if err != nil {
		return "", false
	}
	return string(body), true
}

func (c *Crawler) getJSON(ctx context.Context, cfg Config, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return apperr.New(apperr.RetryableRemote, "hackernews.fetch", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperr.Newf(apperr.PermanentRemote, "hackernews.fetch", "unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
