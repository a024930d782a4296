// Package textproc implements hyperfind's text normalization pipeline:
// HTML-to-text extraction, tokenization, stopword removal, and stemming.
// Query-side and index-side code must both go through process/
// processWithPositions so the two stay bit-for-bit aligned.
package textproc

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// droppedSubtrees are element names whose entire text content (including
// descendants) is excluded from htmlToText, grounded on the nav/header/
// footer/script/style list plus svg/iframe (routinely present in crawled
// pages per go-readability/html-to-markdown usage upstream).
var droppedSubtrees = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"noscript": true,
	"svg":      true,
	"iframe":   true,
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// htmlToText strips tags, scripts, styles, nav, header, footer, noscript,
// svg and iframe subtrees, unescapes entities (handled implicitly by the
// HTML tokenizer's text nodes), and collapses whitespace. Empty input
// returns empty output.
func htmlToText(htmlSrc string) string {
	if strings.TrimSpace(htmlSrc) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && droppedSubtrees[strings.ToLower(n.Data)] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(sb.String(), " "))
}

// HTMLToText is the exported entry point for htmlToText.
func HTMLToText(htmlSrc string) string { return htmlToText(htmlSrc) }

var tokenRE = regexp.MustCompile(`[a-zA-Z0-9]+`)

// tokenize splits text into lowercase tokens matching [a-zA-Z0-9]+, dropping
// tokens shorter than 2 or longer than 50 characters.
func tokenize(text string) []string {
	raw := tokenRE.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) < 2 || len(tok) > 50 {
			continue
		}
		out = append(out, strings.ToLower(tok))
	}
	return out
}

// Tokenize is the exported entry point for tokenize.
func Tokenize(text string) []string { return tokenize(text) }

// removeStopwords filters tokens against the English stopword set.
func removeStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if stopwords[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// RemoveStopwords is the exported entry point for removeStopwords.
func RemoveStopwords(tokens []string) []string { return removeStopwords(tokens) }

// stem applies Porter stemming to every token.
func stem(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = PorterStem(t)
	}
	return out
}

// Stem is the exported entry point for stem.
func Stem(tokens []string) []string { return stem(tokens) }

// Processed is the result of process(text, stem).
type Processed struct {
	Original string
	Tokens   []string // stopword-filtered, optionally stemmed
}

// process tokenizes text, removes stopwords, and optionally stems the
// result. It is the single normalization path shared by indexing and
// query-side processing.
func process(text string, doStem bool) Processed {
	tokens := removeStopwords(tokenize(text))
	if doStem {
		tokens = stem(tokens)
	}
	return Processed{Original: text, Tokens: tokens}
}

// Process is the exported entry point for process.
func Process(text string, doStem bool) Processed { return process(text, doStem) }

// PositionedToken pairs a stemmed token with its index in the raw tokenized
// sequence before stopword removal.
type PositionedToken struct {
	Term     string
	Position int
}

// processWithPositions tokenizes text (no stopword filtering applied before
// computing positions), then emits (stemmed-token, original-position) pairs
// for every token that survives stopword removal. The position is the
// token's index in the full raw tokenized sequence, so gaps left by removed
// stopwords are visible to callers doing phrase/proximity scoring.
func processWithPositions(text string) []PositionedToken {
	raw := tokenize(text)
	out := make([]PositionedToken, 0, len(raw))
	for i, t := range raw {
		if stopwords[t] {
			continue
		}
		out = append(out, PositionedToken{Term: PorterStem(t), Position: i})
	}
	return out
}

// ProcessWithPositions is the exported entry point for processWithPositions.
func ProcessWithPositions(text string) []PositionedToken { return processWithPositions(text) }
