// Package custom implements the Custom/Generic BFS crawler: breadth-first
// traversal from seed URLs, same-domain only, consulting a robots.txt cache
// before every fetch and rate-limited by a configurable inter-request delay.
//
// Fetching follows the same hardened pattern as the rest of the corpus's
// HTTP content fetchers: a bounded client and a User-Agent override point.
// go-readability is used only to extract the page title; the page's RawHTML
// is always the full fetched document.
package custom

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"hyperfind/internal/apperr"
	"hyperfind/internal/crawler"
)

const (
	source         = "custom"
	maxPagesCap    = 500
	maxResponseBody = 8 * 1000 * 1000
)

// Config is the normalized, validated crawl configuration.
type Config struct {
	Seeds     []string
	MaxPages  int
	MaxDepth  int
	UserAgent string
	Delay     time.Duration
}

// Crawler implements crawler.Crawler for same-domain BFS crawling.
type Crawler struct {
	client        *http.Client
	robots        *crawler.RobotsCache
	configuredMax int // the operator-configured ceiling on MaxDepth
}

// New builds a Custom/Generic crawler. configuredMaxDepth is the operator's
// ceiling on how deep any crawl may go, regardless of what a job requests.
func New(timeout time.Duration, userAgent string, configuredMaxDepth int) *Crawler {
	client := crawler.NewHTTPClient(timeout)
	return &Crawler{
		client:        client,
		robots:        crawler.NewRobotsCache(client, userAgent),
		configuredMax: configuredMaxDepth,
	}
}

// ValidateConfig requires a non-empty seed list, clamps maxPages to
// [1,500], and clamps maxDepth to the operator-configured ceiling.
func (c *Crawler) ValidateConfig(raw map[string]any) (any, error) {
	seeds := crawler.ConfigStringSlice(raw, "urls")
	if len(seeds) == 0 {
		return nil, crawler.BadConfig("custom.validateConfig", "urls must be a nonempty list")
	}
	for _, s := range seeds {
		if u, err := url.Parse(s); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, crawler.BadConfig("custom.validateConfig", "invalid seed url %q", s)
		}
	}
	ceiling := c.configuredMax
	if ceiling <= 0 {
		ceiling = 3
	}
	maxDepth := crawler.ConfigInt(raw, "maxDepth", ceiling)
	if maxDepth <= 0 || maxDepth > ceiling {
		maxDepth = ceiling
	}
	ua, _ := crawler.ConfigString(raw, "userAgent")
	if ua == "" {
		ua = "hyperfind-crawler/1.0"
	}
	delaySeconds := crawler.ConfigInt(raw, "delaySeconds", 1)
	return Config{
		Seeds:     seeds,
		MaxPages:  crawler.ClampMaxPages(crawler.ConfigInt(raw, "maxPages", 100), 100, maxPagesCap),
		MaxDepth:  maxDepth,
		UserAgent: ua,
		Delay:     time.Duration(delaySeconds) * time.Second,
	}, nil
}

type frontierEntry struct {
	url   string
	depth int
}

// Crawl performs a lazy breadth-first traversal: each call to Next fetches
// and extracts exactly one page, then enqueues its same-domain text/html
// links before returning.
func (c *Crawler) Crawl(ctx context.Context, config any) crawler.Seq {
	cfg, ok := config.(Config)
	if !ok {
		return crawler.NewSliceSeq(nil)
	}

	var frontier []frontierEntry
	seen := make(map[string]bool)
	allowedHosts := make(map[string]bool)
	for _, s := range cfg.Seeds {
		norm := normalizeURL(s)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		frontier = append(frontier, frontierEntry{url: norm, depth: 0})
		if u, err := url.Parse(norm); err == nil {
			allowedHosts[u.Host] = true
		}
	}

	pagesEmitted := 0
	first := true
	return crawler.NewFuncSeq(func(ctx context.Context) (crawler.Page, bool, error) {
		for len(frontier) > 0 && pagesEmitted < cfg.MaxPages {
			entry := frontier[0]
			frontier = frontier[1:]

			if !first && cfg.Delay > 0 {
				select {
				case <-ctx.Done():
					return crawler.Page{}, false, ctx.Err()
				case <-time.After(cfg.Delay):
				}
			}
			first = false

			if !c.robots.Allowed(ctx, entry.url) {
				continue
			}

			page, links, err := c.fetchAndExtract(ctx, cfg, entry.url)
			if err != nil {
				continue
			}

			if entry.depth < cfg.MaxDepth {
				for _, link := range links {
					norm := normalizeURL(link)
					if norm == "" || seen[norm] {
						continue
					}
					u, err := url.Parse(norm)
					if err != nil || !allowedHosts[u.Host] {
						continue
					}
					seen[norm] = true
					frontier = append(frontier, frontierEntry{url: norm, depth: entry.depth + 1})
				}
			}

			pagesEmitted++
			return page, true, nil
		}
		return crawler.Page{}, false, nil
	})
}

// normalizeURL strips the fragment and query string, per the spec's
// same-page-identity rule for BFS deduplication.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	u.Fragment = ""
	u.RawQuery = ""
	return u.String()
}

func (c *Crawler) fetchAndExtract(ctx context.Context, cfg Config, pageURL string) (crawler.Page, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return crawler.Page{}, nil, err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return crawler.Page{}, nil, apperr.New(apperr.RetryableRemote, "custom.fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return crawler.Page{}, nil, apperr.Newf(apperr.PermanentRemote, "custom.fetch", "unexpected status %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "text/html") && !strings.Contains(ct, "xhtml") {
		return crawler.Page{}, nil, apperr.Newf(apperr.PermanentRemote, "custom.fetch", "unsupported content type %q", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return crawler.Page{}, nil, err
	}
	rawHTML := string(body)

	finalURL := resp.Request.URL.String()
	title := ""
	if base, err := url.Parse(finalURL); err == nil {
		if art, err := readability.FromReader(strings.NewReader(rawHTML), base); err == nil {
			title = strings.TrimSpace(art.Title)
		}
	}

	links := extractLinks(rawHTML, finalURL)

	page := crawler.Page{
		URL:     normalizeURL(finalURL),
		Title:   title,
		RawHTML: rawHTML,
		Source:  source,
		Metadata: map[string]string{
			"content_type": ct,
		},
	}
	return page, links, nil
}

// extractLinks walks the parsed HTML for <a href> targets, resolving each
// against base.
func extractLinks(rawHTML, base string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	var links []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "a") {
			for _, attr := range n.Attr {
				if strings.EqualFold(attr.Key, "href") {
					if ref, err := url.Parse(attr.Val); err == nil {
						links = append(links, baseURL.ResolveReference(ref).String())
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}
