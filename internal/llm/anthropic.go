package llm

import (
	"context"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"hyperfind/internal/apperr"
)

// defaultMaxTokens bounds a single completion when the caller doesn't
// otherwise constrain it.
const defaultMaxTokens = 4096

// AnthropicClient implements Provider against the Anthropic Messages API.
type AnthropicClient struct {
	sdk anthropic.Client
}

// NewAnthropic builds an AnthropicClient. baseURL may be empty to use
// Anthropic's default endpoint.
func NewAnthropic(apiKey, baseURL string, httpClient *http.Client) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(baseURL, "/")))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &AnthropicClient{sdk: anthropic.NewClient(opts...)}
}

func (c *AnthropicClient) Chat(ctx context.Context, msgs []Message, _ []ToolSchema, model string) (Message, error) {
	system, converted := adaptAnthropicMessages(msgs)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  converted,
		System:    system,
		MaxTokens: defaultMaxTokens,
	}

	resp, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return Message{}, apperr.New(apperr.LLMUnavailable, "llm.AnthropicClient.Chat", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return Message{Role: "assistant", Content: sb.String()}, nil
}

func (c *AnthropicClient) ChatStream(ctx context.Context, msgs []Message, _ []ToolSchema, model string, h StreamHandler) error {
	system, converted := adaptAnthropicMessages(msgs)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  converted,
		System:    system,
		MaxTokens: defaultMaxTokens,
	}

	stream := c.sdk.Messages.NewStreaming(ctx, params)
	for stream.Next() {
		event := stream.Current()
		delta, ok := event.AsAny().(anthropic.RawContentBlockDeltaEvent)
		if !ok {
			continue
		}
		text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
		if !ok || text.Text == "" {
			continue
		}
		if err := h(text.Text); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return apperr.New(apperr.LLMUnavailable, "llm.AnthropicClient.ChatStream", err)
	}
	return nil
}

func adaptAnthropicMessages(msgs []Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		switch strings.ToLower(m.Role) {
		case "system":
			if content != "" {
				system = append(system, anthropic.TextBlockParam{Text: m.Content})
			}
		case "assistant":
			if content != "" {
				out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			}
		default:
			if content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		}
	}
	return system, out
}
