package crawler

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// robotsTimeout bounds the robots.txt fetch itself (spec: 10s).
const robotsTimeout = 10 * time.Second

// rules is the parsed disallow set for one host's robots.txt, scoped to a
// single user-agent group (the crawler's own, falling back to "*").
type rules struct {
	disallow []string
}

func (r rules) allows(path string) bool {
	for _, prefix := range r.disallow {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// RobotsCache fetches and caches robots.txt rules per host. A fetch or parse
// failure is cached as "allow all" for that host, matching the spec's
// default-allow-on-error behavior, so a single flaky robots.txt never blocks
// a crawl.
type RobotsCache struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	cache map[string]rules
}

// NewRobotsCache builds a cache that fetches with client and matches rule
// groups for userAgent (falling back to "*").
func NewRobotsCache(client *http.Client, userAgent string) *RobotsCache {
	if client == nil {
		client = NewHTTPClient(robotsTimeout)
	}
	return &RobotsCache{client: client, userAgent: userAgent, cache: make(map[string]rules)}
}

// Allowed reports whether rawURL may be fetched under the cached rules for
// its host, fetching and parsing robots.txt on first reference to that host.
func (c *RobotsCache) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	c.mu.Lock()
	r, ok := c.cache[u.Host]
	c.mu.Unlock()
	if ok {
		return r.allows(u.Path)
	}

	r = c.fetch(ctx, u)
	c.mu.Lock()
	c.cache[u.Host] = r
	c.mu.Unlock()
	return r.allows(u.Path)
}

func (c *RobotsCache) fetch(ctx context.Context, u *url.URL) rules {
	reqCtx, cancel := context.WithTimeout(ctx, robotsTimeout)
	defer cancel()

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return rules{}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return rules{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return rules{}
	}
	return parseRobots(resp.Body, c.userAgent)
}

// parseRobots extracts the Disallow list for the group matching userAgent,
// falling back to the "*" group. It's a minimal line-oriented parser: it
// does not handle Allow precedence, wildcards, or crawl-delay, which is
// sufficient for the default-allow-on-ambiguity policy this crawler needs.
func parseRobots(body io.Reader, userAgent string) rules {
	agentToken := strings.ToLower(strings.SplitN(userAgent, "/", 2)[0])

	var general, specific rules
	matching := false
	isSpecific := false
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		field := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch field {
		case "user-agent":
			ua := strings.ToLower(value)
			matching = ua == "*" || ua == agentToken
			isSpecific = ua == agentToken
		case "disallow":
			if !matching {
				continue
			}
			if isSpecific {
				specific.disallow = append(specific.disallow, value)
			} else {
				general.disallow = append(general.disallow, value)
			}
		}
	}
	if len(specific.disallow) > 0 {
		return specific
	}
	return general
}
