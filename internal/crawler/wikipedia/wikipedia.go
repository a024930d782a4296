// Package wikipedia implements the Wikipedia crawler: the search API finds
// candidate page titles for a query, then the parse API fetches each
// candidate's rendered HTML and categories.
package wikipedia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hyperfind/internal/apperr"
	"hyperfind/internal/crawler"
)

const (
	source      = "wikipedia"
	maxPagesCap = 100
)

// apiBase is the Wikipedia API endpoint; overridable in tests.
var apiBase = "https://en.wikipedia.org/w/api.php"

// Config is the normalized, validated crawl configuration.
type Config struct {
	Query     string
	MaxPages  int
	UserAgent string
}

// Crawler implements crawler.Crawler for Wikipedia.
type Crawler struct {
	client *http.Client
}

// New builds a Wikipedia crawler using an HTTP client bounded by timeout.
func New(timeout time.Duration) *Crawler {
	return &Crawler{client: crawler.NewHTTPClient(timeout)}
}

// ValidateConfig requires a non-empty query and clamps maxPages to [1,100].
func (c *Crawler) ValidateConfig(raw map[string]any) (any, error) {
	query, ok := crawler.ConfigString(raw, "query")
	if !ok {
		return nil, crawler.BadConfig("wikipedia.validateConfig", "query is required")
	}
	maxPages := crawler.ClampMaxPages(crawler.ConfigInt(raw, "maxPages", 10), 10, maxPagesCap)
	ua, _ := crawler.ConfigString(raw, "userAgent")
	if ua == "" {
		ua = "hyperfind-crawler/1.0"
	}
	return Config{Query: query, MaxPages: maxPages, UserAgent: ua}, nil
}

// Crawl searches for candidate titles, then lazily fetches and parses each
// one on demand.
func (c *Crawler) Crawl(ctx context.Context, config any) crawler.Seq {
	cfg, ok := config.(Config)
	if !ok {
		return crawler.NewSliceSeq(nil)
	}
	titles, err := c.search(ctx, cfg)
	if err != nil || len(titles) == 0 {
		return crawler.NewSliceSeq(nil)
	}

	i := 0
	return crawler.NewFuncSeq(func(ctx context.Context) (crawler.Page, bool, error) {
		for i < len(titles) {
			title := titles[i]
			i++
			page, err := c.parse(ctx, cfg, title)
			if err != nil {
				continue
			}
			return page, true, nil
		}
		return crawler.Page{}, false, nil
	})
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

func (c *Crawler) search(ctx context.Context, cfg Config) ([]string, error) {
	q := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {cfg.Query},
		"srlimit":  {strconv.Itoa(cfg.MaxPages)},
		"format":   {"json"},
	}
	var resp searchResponse
	if err := c.get(ctx, cfg, q, &resp); err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(resp.Query.Search))
	for _, r := range resp.Query.Search {
		titles = append(titles, r.Title)
	}
	return titles, nil
}

type parseText struct {
	Star string `json:"*"`
}

type parseResponse struct {
	Parse struct {
		Title      string      `json:"title"`
		PageID     int         `json:"pageid"`
		Text       parseText   `json:"text"`
		Categories []parseText `json:"categories"`
	} `json:"parse"`
}

func (c *Crawler) parse(ctx context.Context, cfg Config, title string) (crawler.Page, error) {
	q := url.Values{
		"action": {"parse"},
		"page":   {title},
		"prop":   {"text|categories"},
		"format": {"json"},
	}
	var resp parseResponse
	if err := c.get(ctx, cfg, q, &resp); err != nil {
		return crawler.Page{}, err
	}

	categories := make([]string, 0, len(resp.Parse.Categories))
	for _, cat := range resp.Parse.Categories {
		categories = append(categories, cat.Star)
	}

	pageURL := "https://en.wikipedia.org/wiki/" + url.PathEscape(resp.Parse.Title)
	return crawler.Page{
		URL:     pageURL,
		Title:   resp.Parse.Title,
		RawHTML: resp.Parse.Text.Star,
		Source:  source,
		Metadata: map[string]string{
			"page_id":    strconv.Itoa(resp.Parse.PageID),
			"categories": joinComma(categories),
			"snippet":    truncate(resp.Parse.Text.Star, 280),
		},
	}, nil
}

func (c *Crawler) get(ctx context.Context, cfg Config, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return apperr.New(apperr.RetryableRemote, "wikipedia.fetch", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperr.Newf(apperr.PermanentRemote, "wikipedia.fetch", "unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func joinComma(vals []string) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
