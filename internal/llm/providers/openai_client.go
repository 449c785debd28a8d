// File path: internal/llm/providers/openai_client.go
package providers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"

	"github.com/raglens/raglens/internal/common"
)

const defaultChatMaxTokens = 1000

type OpenAIProvider struct {
	client        openai.Client
	chatModel     string
	embedModel    string
	chatMaxTokens int64
}

func NewOpenAIProvider(client openai.Client) *OpenAIProvider {
	chatModel := os.Getenv("OPENAI_CHAT_MODEL")
	if chatModel == "" {
		chatModel = "gpt-4o"
	}
	embedModel := os.Getenv("OPENAI_EMBED_MODEL")
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	maxTokens := int64(defaultChatMaxTokens)
	if raw := strings.TrimSpace(os.Getenv("OPENAI_CHAT_MAX_TOKENS")); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			maxTokens = parsed
		}
	}
	logger := common.Logger()
	logger.Info("llm: OpenAI provider configured", "chat_model", chatModel, "embed_model", embedModel)
	return &OpenAIProvider{client: client, chatModel: chatModel, embedModel: embedModel, chatMaxTokens: maxTokens}
}

func (o *OpenAIProvider) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	logger := common.Logger()
	logger.Debug("llm: sending chat completion request", "model", o.chatModel, "messages", len(messages), "json", opts.JSONObject)
	resp, err := o.client.Chat.Completions.New(ctx, o.chatParams(messages, opts))
	if err != nil {
		logger.Error("llm: chat completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	logger.Debug("llm: chat completion succeeded")
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) ChatStream(ctx context.Context, messages []Message, opts ChatOptions, emit func(delta string) error) (string, error) {
	logger := common.Logger()
	logger.Debug("llm: starting streamed completion", "model", o.chatModel, "messages", len(messages))
	stream := o.client.Chat.Completions.NewStreaming(ctx, o.chatParams(messages, opts))
	defer stream.Close()
	var answer strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		answer.WriteString(delta)
		if emit != nil {
			if err := emit(delta); err != nil {
				return answer.String(), err
			}
		}
	}
	if err := stream.Err(); err != nil {
		logger.Error("llm: streamed completion failed", "error", err)
		return "", err
	}
	logger.Debug("llm: streamed completion finished", "length", answer.Len())
	return answer.String(), nil
}

func (o *OpenAIProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, nil
	}
	logger := common.Logger()
	logger.Debug("llm: creating embeddings", "model", o.embedModel, "items", len(input))
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(o.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: input},
	})
	if err != nil {
		logger.Error("llm: embedding request failed", "error", err)
		return nil, err
	}
	vectors := make([][]float32, len(input))
	for _, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		if idx := int(data.Index); idx >= 0 && idx < len(vectors) {
			vectors[idx] = vec
		}
	}
	logger.Debug("llm: embedding request succeeded", "returned", len(resp.Data))
	return vectors, nil
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}

func (o *OpenAIProvider) chatParams(messages []Message, opts ChatOptions) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.chatModel),
		Messages:    toMessageParams(messages),
		Temperature: openai.Float(opts.Temperature),
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = o.chatMaxTokens
	}
	params.MaxTokens = openai.Int(maxTokens)
	if opts.JSONObject {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

func toMessageParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch strings.ToLower(msg.Role) {
		case "system":
			out = append(out, openai.SystemMessage(msg.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
