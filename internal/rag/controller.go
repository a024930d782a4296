package rag

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"hyperfind/internal/llm"
	"hyperfind/internal/logging"
)

// maxDepthCeiling is the hard upper bound maxDepth is clamped to.
const maxDepthCeiling = 3

// maxFollowUps is the maximum number of follow-up queries requested per
// iteration.
const maxFollowUps = 3

// followUpTopK is the per-follow-up retrieval budget.
const followUpTopK = 3

// contextWindowFactor sizes the re-ranked context set kept after each
// iteration as a multiple of topK.
const contextWindowFactor = 2

// maxSources caps the sources reported in the final answer.
const maxSources = 10

// Answer is the result of a recursive RAG run.
type Answer struct {
	Answer          string
	Sources         []ContextRecord
	Model           string
	DepthReached    int
	QueriesExecuted []string
}

// Controller runs the bounded recursive refinement loop (C9) over a
// Facade and an llm.Provider.
type Controller struct {
	Facade *Facade
	LLM    llm.Provider
	Model  string
}

// NewController constructs a Controller.
func NewController(facade *Facade, provider llm.Provider, model string) *Controller {
	return &Controller{Facade: facade, LLM: provider, Model: model}
}

// Run retrieves context for query, generates an initial answer, then loops
// while depth < maxDepth (clamped to 3): depth is incremented first, then it
// asks the LLM for up to 3 follow-up queries conditioned on (query,
// currentAnswer), retrieves topK'=3 contexts per follow-up, merges unseen
// documents into allContexts, re-ranks by relevanceScore, keeps the top
// 2*topK, and regenerates the answer. DepthReached therefore counts
// iterations attempted, including one that finds no follow-ups and breaks
// immediately. If the LLM is unavailable at any point, it falls back to a
// deterministic answer formatted from the context list.
func (c *Controller) Run(ctx context.Context, query string, maxDepth, topK int) (Answer, error) {
	if maxDepth > maxDepthCeiling {
		maxDepth = maxDepthCeiling
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	if topK <= 0 {
		topK = 10
	}

	records, err := c.Facade.RetrieveContext(ctx, query, topK, MethodHybrid)
	if err != nil {
		return Answer{}, err
	}

	allContexts := make(map[string]ContextRecord, len(records))
	for _, r := range records {
		allContexts[r.DocumentID] = r
	}

	queriesExecuted := []string{query}
	currentAnswer := c.generateAnswer(ctx, query, mapValues(allContexts))

	depth := 0
	for depth < maxDepth {
		depth++

		followUps := c.generateFollowUps(ctx, query, currentAnswer)
		if len(followUps) == 0 {
			break
		}

		for _, fq := range followUps {
			queriesExecuted = append(queriesExecuted, fq)
			fRecords, err := c.Facade.RetrieveContext(ctx, fq, followUpTopK, MethodHybrid)
			if err != nil {
				logging.Log.WithError(err).Warn("rag: follow-up retrieval failed")
				continue
			}
			for _, r := range fRecords {
				if _, seen := allContexts[r.DocumentID]; !seen {
					allContexts[r.DocumentID] = r
				}
			}
		}

		merged := mapValues(allContexts)
		sort.Slice(merged, func(i, j int) bool { return merged[i].RelevanceScore > merged[j].RelevanceScore })
		keep := contextWindowFactor * topK
		if len(merged) > keep {
			merged = merged[:keep]
		}
		allContexts = make(map[string]ContextRecord, len(merged))
		for _, r := range merged {
			allContexts[r.DocumentID] = r
		}

		currentAnswer = c.generateAnswer(ctx, query, mapValues(allContexts))
	}

	sources := mapValues(allContexts)
	sort.Slice(sources, func(i, j int) bool { return sources[i].RelevanceScore > sources[j].RelevanceScore })
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}

	return Answer{
		Answer:          currentAnswer,
		Sources:         sources,
		Model:           c.Model,
		DepthReached:    depth,
		QueriesExecuted: queriesExecuted,
	}, nil
}

// GenerateStream retrieves context for query via the hybrid facade and
// streams the generated answer to h one token at a time, for the
// non-recursive /search/rag stream mode. It performs a single retrieve-then-
// generate pass with no follow-up refinement, so the returned Answer always
// has DepthReached 0. If the LLM is unavailable or the stream produces no
// content, the deterministic fallback answer is delivered to h as one delta.
func (c *Controller) GenerateStream(ctx context.Context, query string, topK int, h llm.StreamHandler) (Answer, error) {
	if topK <= 0 {
		topK = 10
	}

	records, err := c.Facade.RetrieveContext(ctx, query, topK, MethodHybrid)
	if err != nil {
		return Answer{}, err
	}

	sources := append([]ContextRecord(nil), records...)
	sort.Slice(sources, func(i, j int) bool { return sources[i].RelevanceScore > sources[j].RelevanceScore })
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}

	if c.LLM == nil {
		answer := fallbackAnswer(query, records)
		if err := h(answer); err != nil {
			return Answer{}, err
		}
		return Answer{Answer: answer, Sources: sources, Model: c.Model, QueriesExecuted: []string{query}}, nil
	}

	msgs := []llm.Message{
		{Role: "system", Content: "Answer the user's question using only the provided context. Cite sources by title when possible."},
		{Role: "user", Content: answerPrompt(query, records)},
	}

	var full strings.Builder
	err = c.LLM.ChatStream(ctx, msgs, nil, c.Model, func(delta string) error {
		full.WriteString(delta)
		return h(delta)
	})
	if err != nil || full.Len() == 0 {
		logging.Log.WithError(err).Warn("rag: LLM stream unavailable, using deterministic fallback answer")
		answer := fallbackAnswer(query, records)
		if err := h(answer); err != nil {
			return Answer{}, err
		}
		return Answer{Answer: answer, Sources: sources, Model: c.Model, QueriesExecuted: []string{query}}, nil
	}

	return Answer{Answer: full.String(), Sources: sources, Model: c.Model, QueriesExecuted: []string{query}}, nil
}

func mapValues(m map[string]ContextRecord) []ContextRecord {
	out := make([]ContextRecord, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// generateAnswer asks the LLM to synthesize an answer from query and
// context. If the LLM is unavailable, it falls back to a deterministic
// answer built from the context list so the caller always gets a usable
// response.
func (c *Controller) generateAnswer(ctx context.Context, query string, context []ContextRecord) string {
	if c.LLM == nil {
		return fallbackAnswer(query, context)
	}
	msgs := []llm.Message{
		{Role: "system", Content: "Answer the user's question using only the provided context. Cite sources by title when possible."},
		{Role: "user", Content: answerPrompt(query, context)},
	}
	resp, err := c.LLM.Chat(ctx, msgs, nil, c.Model)
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		logging.Log.WithError(err).Warn("rag: LLM unavailable, using deterministic fallback answer")
		return fallbackAnswer(query, context)
	}
	return resp.Content
}

// generateFollowUps asks the LLM for up to maxFollowUps follow-up queries
// conditioned on (query, currentAnswer). Returns nil if the LLM is
// unavailable or produces none, which terminates the refinement loop.
func (c *Controller) generateFollowUps(ctx context.Context, query, currentAnswer string) []string {
	if c.LLM == nil {
		return nil
	}
	msgs := []llm.Message{
		{Role: "system", Content: fmt.Sprintf("Given the question and the current answer, propose up to %d short follow-up search queries that would help verify or deepen the answer. Reply with one query per line and nothing else. If no follow-up is needed, reply with an empty line.", maxFollowUps)},
		{Role: "user", Content: "Question: " + query + "\n\nCurrent answer:\n" + currentAnswer},
	}
	resp, err := c.LLM.Chat(ctx, msgs, nil, c.Model)
	if err != nil {
		logging.Log.WithError(err).Warn("rag: follow-up query generation failed")
		return nil
	}
	return parseFollowUps(resp.Content, maxFollowUps)
}

func parseFollowUps(text string, limit int) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, limit)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if idx := strings.IndexByte(line, '.'); idx > 0 && idx <= 3 {
			if _, err := strconv.Atoi(strings.TrimSpace(line[:idx])); err == nil {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}

func answerPrompt(query string, context []ContextRecord) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nContext:\n")
	for i, r := range context {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.ChunkText)
	}
	return b.String()
}

// fallbackAnswer deterministically formats the best available context into
// an answer when no LLM is reachable.
func fallbackAnswer(query string, context []ContextRecord) string {
	if len(context) == 0 {
		return fmt.Sprintf("No indexed context was found for %q.", query)
	}
	sorted := append([]ContextRecord(nil), context...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelevanceScore > sorted[j].RelevanceScore })

	var b strings.Builder
	fmt.Fprintf(&b, "Based on the %d most relevant indexed sources for %q:\n\n", len(sorted), query)
	for i, r := range sorted {
		title := r.Title
		if title == "" {
			title = r.DocumentID
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, title, truncateRunes(r.ChunkText, 280))
	}
	return b.String()
}
