package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"hyperfind/internal/bm25"
	"hyperfind/internal/llm"
)

func TestController_Run_NoLLMUsesDeterministicFallback(t *testing.T) {
	t.Parallel()
	b := fakeBM25Scorer{scored: []bm25.Scored{{DocID: "doc1", Score: 3}}}
	docs := fakeDocs{docs: map[string]DocumentMeta{"doc1": {Title: "Doc One", CleanText: "clean text about search"}}}
	facade := NewFacade(b, fakeSemanticSearcher{}, docs)

	c := NewController(facade, nil, "test-model")
	answer, err := c.Run(context.Background(), "what is search", 3, 5)
	require.NoError(t, err)
	require.Contains(t, answer.Answer, "Doc One")
	require.Equal(t, 1, answer.DepthReached)
	require.Equal(t, []string{"what is search"}, answer.QueriesExecuted)
	require.NotEmpty(t, answer.Sources)
}

func TestController_Run_MaxDepthClampedToCeiling(t *testing.T) {
	t.Parallel()
	facade := NewFacade(fakeBM25Scorer{}, fakeSemanticSearcher{}, fakeDocs{})
	c := NewController(facade, nil, "m")
	answer, err := c.Run(context.Background(), "q", 99, 5)
	require.NoError(t, err)
	require.LessOrEqual(t, answer.DepthReached, 3)
}

type scriptedProvider struct {
	responses []llm.Message
	calls     int
}

func (p *scriptedProvider) Chat(context.Context, []llm.Message, []llm.ToolSchema, string) (llm.Message, error) {
	if p.calls >= len(p.responses) {
		return llm.Message{Role: "assistant", Content: ""}, nil
	}
	r := p.responses[p.calls]
	p.calls++
	return r, nil
}

func (p *scriptedProvider) ChatStream(context.Context, []llm.Message, []llm.ToolSchema, string, llm.StreamHandler) error {
	return nil
}

func TestController_Run_FollowUpLoopTerminatesWhenNoFollowUps(t *testing.T) {
	t.Parallel()
	b := fakeBM25Scorer{scored: []bm25.Scored{{DocID: "doc1", Score: 3}}}
	facade := NewFacade(b, fakeSemanticSearcher{}, fakeDocs{})

	provider := &scriptedProvider{responses: []llm.Message{
		{Role: "assistant", Content: "initial answer"},
		{Role: "assistant", Content: ""}, // no follow-ups
	}}
	c := NewController(facade, provider, "m")
	answer, err := c.Run(context.Background(), "q", 3, 5)
	require.NoError(t, err)
	require.Equal(t, "initial answer", answer.Answer)
	require.Equal(t, 1, answer.DepthReached)
}

func TestController_Run_FollowUpsMergeNewDocuments(t *testing.T) {
	t.Parallel()
	b := fakeBM25Scorer{scored: []bm25.Scored{{DocID: "doc1", Score: 3}}}
	s := fakeSemanticSearcher{}
	facade := NewFacade(b, s, fakeDocs{})

	provider := &scriptedProvider{responses: []llm.Message{
		{Role: "assistant", Content: "initial answer"},
		{Role: "assistant", Content: "follow up query one"},
		{Role: "assistant", Content: "refined answer"},
		{Role: "assistant", Content: ""},
	}}
	c := NewController(facade, provider, "m")
	answer, err := c.Run(context.Background(), "q", 3, 5)
	require.NoError(t, err)
	require.Equal(t, "refined answer", answer.Answer)
	require.Equal(t, 2, answer.DepthReached)
	require.Contains(t, answer.QueriesExecuted, "follow up query one")
}

func TestParseFollowUps(t *testing.T) {
	t.Parallel()
	out := parseFollowUps("- first query\n- second query\n\n- third\n- fourth", 3)
	require.Equal(t, []string{"first query", "second query", "third"}, out)
}

func TestParseFollowUps_Empty(t *testing.T) {
	t.Parallel()
	require.Empty(t, parseFollowUps("", 3))
	require.Empty(t, parseFollowUps("\n\n", 3))
}

func TestController_GenerateStream_NoLLMDeliversFallbackAsSingleDelta(t *testing.T) {
	t.Parallel()
	b := fakeBM25Scorer{scored: []bm25.Scored{{DocID: "doc1", Score: 3}}}
	docs := fakeDocs{docs: map[string]DocumentMeta{"doc1": {Title: "Doc One", CleanText: "clean text about search"}}}
	facade := NewFacade(b, fakeSemanticSearcher{}, docs)

	c := NewController(facade, nil, "test-model")
	var deltas []string
	answer, err := c.GenerateStream(context.Background(), "what is search", 5, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, answer.DepthReached)
	require.Len(t, deltas, 1)
	require.Equal(t, answer.Answer, deltas[0])
}

func TestController_GenerateStream_AccumulatesProviderDeltas(t *testing.T) {
	t.Parallel()
	b := fakeBM25Scorer{scored: []bm25.Scored{{DocID: "doc1", Score: 3}}}
	facade := NewFacade(b, fakeSemanticSearcher{}, fakeDocs{})

	provider := &streamingProvider{deltas: []string{"hello ", "world"}}
	c := NewController(facade, provider, "m")
	var got strings.Builder
	answer, err := c.GenerateStream(context.Background(), "q", 5, func(delta string) error {
		got.WriteString(delta)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "hello world", answer.Answer)
	require.Equal(t, "hello world", got.String())
}

type streamingProvider struct {
	deltas []string
}

func (p *streamingProvider) Chat(context.Context, []llm.Message, []llm.ToolSchema, string) (llm.Message, error) {
	return llm.Message{}, nil
}

func (p *streamingProvider) ChatStream(_ context.Context, _ []llm.Message, _ []llm.ToolSchema, _ string, h llm.StreamHandler) error {
	for _, d := range p.deltas {
		if err := h(d); err != nil {
			return err
		}
	}
	return nil
}

func TestFallbackAnswer_NoContext(t *testing.T) {
	t.Parallel()
	out := fallbackAnswer("query", nil)
	require.Contains(t, out, "No indexed context")
}
