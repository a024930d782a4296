// Package reddit implements the Reddit crawler against Reddit's public JSON
// endpoints: a subreddit listing or a search, synthesizing one HTML page per
// post from its title, selftext, and top comments.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hyperfind/internal/apperr"
	"hyperfind/internal/crawler"
)

const (
	source      = "reddit"
	maxPagesCap = 100
	maxComments = 5
)

// redditHost is Reddit's public JSON API origin; overridable in tests.
var redditHost = "https://www.reddit.com"

// Config is the normalized, validated crawl configuration.
type Config struct {
	Subreddit  string
	Query      string
	MaxPages   int
	Sort       string
	TimeFilter string
	UserAgent  string
}

// Crawler implements crawler.Crawler for Reddit.
type Crawler struct {
	client *http.Client
}

// New builds a Reddit crawler using an HTTP client bounded by timeout.
func New(timeout time.Duration) *Crawler {
	return &Crawler{client: crawler.NewHTTPClient(timeout)}
}

// ValidateConfig requires at least one of subreddit/query, and clamps
// maxPages to [1,100].
func (c *Crawler) ValidateConfig(raw map[string]any) (any, error) {
	subreddit, _ := crawler.ConfigString(raw, "subreddit")
	query, _ := crawler.ConfigString(raw, "query")
	if subreddit == "" && query == "" {
		return nil, crawler.BadConfig("reddit.validateConfig", "at least one of subreddit or query is required")
	}
	sort, _ := crawler.ConfigString(raw, "sort")
	if sort == "" {
		sort = "relevance"
	}
	timeFilter, _ := crawler.ConfigString(raw, "timeFilter")
	if timeFilter == "" {
		timeFilter = "all"
	}
	ua, _ := crawler.ConfigString(raw, "userAgent")
	if ua == "" {
		ua = "hyperfind-crawler/1.0"
	}
	return Config{
		Subreddit:  subreddit,
		Query:      query,
		MaxPages:   crawler.ClampMaxPages(crawler.ConfigInt(raw, "maxPages", 25), 25, maxPagesCap),
		Sort:       sort,
		TimeFilter: timeFilter,
		UserAgent:  ua,
	}, nil
}

// Crawl lists or searches for posts, then lazily fetches each post's
// comments and synthesizes a page on demand.
func (c *Crawler) Crawl(ctx context.Context, config any) crawler.Seq {
	cfg, ok := config.(Config)
	if !ok {
		return crawler.NewSliceSeq(nil)
	}
	posts, err := c.listPosts(ctx, cfg)
	if err != nil || len(posts) == 0 {
		return crawler.NewSliceSeq(nil)
	}

	i := 0
	return crawler.NewFuncSeq(func(ctx context.Context) (crawler.Page, bool, error) {
		for i < len(posts) {
			post := posts[i]
			i++
			page, err := c.synthesize(ctx, cfg, post)
			if err != nil {
				continue
			}
			return page, true, nil
		}
		return crawler.Page{}, false, nil
	})
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *Crawler) listPosts(ctx context.Context, cfg Config) ([]redditPost, error) {
	var endpoint string
	q := url.Values{"limit": {strconv.Itoa(cfg.MaxPages)}}
	switch {
	case cfg.Query != "":
		endpoint = redditHost + "/search.json"
		q.Set("q", cfg.Query)
		q.Set("sort", cfg.Sort)
		q.Set("t", cfg.TimeFilter)
		if cfg.Subreddit != "" {
			q.Set("restrict_sr", "on")
			endpoint = fmt.Sprintf("%s/r/%s/search.json", redditHost, cfg.Subreddit)
		}
	default:
		endpoint = fmt.Sprintf("%s/r/%s/%s.json", redditHost, cfg.Subreddit, sortPath(cfg.Sort))
		q.Set("t", cfg.TimeFilter)
	}

	var resp listingResponse
	if err := c.get(ctx, cfg, endpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	posts := make([]redditPost, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func sortPath(sort string) string {
	switch sort {
	case "hot", "new", "top", "rising":
		return sort
	default:
		return "hot"
	}
}

type commentListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Body string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *Crawler) synthesize(ctx context.Context, cfg Config, post redditPost) (crawler.Page, error) {
	comments, _ := c.topComments(ctx, cfg, post)

	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<h1>" + html.EscapeString(post.Title) + "</h1>")
	if post.Selftext != "" {
		sb.WriteString("<p>" + html.EscapeString(post.Selftext) + "</p>")
	}
	if len(comments) > 0 {
		sb.WriteString("<div class=\"comments\">")
		for _, body := range comments {
			sb.WriteString("<p class=\"comment\">" + html.EscapeString(body) + "</p>")
		}
		sb.WriteString("</div>")
	}
	sb.WriteString("</body></html>")

	pageURL := redditHost + post.Permalink
	return crawler.Page{
		URL:     pageURL,
		Title:   post.Title,
		RawHTML: sb.String(),
		Source:  source,
		Metadata: map[string]string{
			"subreddit":    post.Subreddit,
			"author":       post.Author,
			"score":        strconv.Itoa(post.Score),
			"num_comments": strconv.Itoa(post.NumComments),
			"created_utc":  strconv.FormatFloat(post.CreatedUTC, 'f', 0, 64),
		},
	}, nil
}

func (c *Crawler) topComments(ctx context.Context, cfg Config, post redditPost) ([]string, error) {
	if post.Permalink == "" {
		return nil, nil
	}
	endpoint := redditHost + strings.TrimRight(post.Permalink, "/") + ".json"
	var resp []commentListing
	if err := c.get(ctx, cfg, endpoint+"?limit="+strconv.Itoa(maxComments), &resp); err != nil {
		return nil, err
	}
	if len(resp) < 2 {
		return nil, nil
	}
	out := make([]string, 0, maxComments)
	for _, child := range resp[1].Data.Children {
		if child.Data.Body == "" {
			continue
		}
		out = append(out, child.Data.Body)
		if len(out) >= maxComments {
			break
		}
	}
	return out, nil
}

func (c *Crawler) get(ctx context.Context, cfg Config, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return apperr.New(apperr.RetryableRemote, "reddit.fetch", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperr.Newf(apperr.PermanentRemote, "reddit.fetch", "unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
