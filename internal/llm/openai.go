package llm

import (
	"context"
	"net/http"
	"strings"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"hyperfind/internal/apperr"
)

// OpenAIClient implements Provider against OpenAI's Chat Completions API,
// and against any OpenAI-compatible endpoint reachable via baseURL (local
// inference servers, Azure-style gateways).
type OpenAIClient struct {
	sdk sdk.Client
}

// NewOpenAI builds an OpenAIClient. baseURL may be empty to use OpenAI's
// default endpoint.
func NewOpenAI(apiKey, baseURL string, httpClient *http.Client) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIClient{sdk: sdk.NewClient(opts...)}
}

func (c *OpenAIClient) Chat(ctx context.Context, msgs []Message, _ []ToolSchema, model string) (Message, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(model),
		Messages: adaptOpenAIMessages(msgs),
	}

	comp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return Message{}, apperr.New(apperr.LLMUnavailable, "llm.OpenAIClient.Chat", err)
	}
	if len(comp.Choices) == 0 {
		return Message{Role: "assistant"}, nil
	}
	return Message{Role: "assistant", Content: comp.Choices[0].Message.Content}, nil
}

func (c *OpenAIClient) ChatStream(ctx context.Context, msgs []Message, _ []ToolSchema, model string, h StreamHandler) error {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(model),
		Messages: adaptOpenAIMessages(msgs),
	}

	stream := c.sdk.Chat.Completions.NewStreaming(ctx, params)
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := h(delta); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return apperr.New(apperr.LLMUnavailable, "llm.OpenAIClient.ChatStream", err)
	}
	return nil
}

func adaptOpenAIMessages(msgs []Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch strings.ToLower(m.Role) {
		case "system":
			out = append(out, sdk.SystemMessage(m.Content))
		case "assistant":
			out = append(out, sdk.AssistantMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}
