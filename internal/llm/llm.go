// File path: internal/llm/llm.go
package llm

import (
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/azure"
	"github.com/openai/openai-go/v2/option"

	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/llm/providers"
)

type Message = providers.Message

type ChatOptions = providers.ChatOptions

type Provider = providers.Provider

// NewProvider selects the generative backend from the environment: Azure
// OpenAI when AZURE_OPENAI_ENDPOINT is set, plain OpenAI when OPENAI_API_KEY
// is set, otherwise the deterministic local fallback.
func NewProvider() Provider {
	logger := common.Logger()
	if endpoint := strings.TrimSpace(os.Getenv("AZURE_OPENAI_ENDPOINT")); endpoint != "" {
		apiVersion := strings.TrimSpace(os.Getenv("AZURE_OPENAI_API_VERSION"))
		if apiVersion == "" {
			apiVersion = "2024-06-01"
		}
		opts := []option.RequestOption{azure.WithEndpoint(endpoint, apiVersion)}
		if apiKey := strings.TrimSpace(os.Getenv("AZURE_OPENAI_API_KEY")); apiKey != "" {
			opts = append(opts, azure.WithAPIKey(apiKey))
		}
		client := openai.NewClient(opts...)
		logger.Info("llm: Azure OpenAI provider selected", "endpoint", endpoint, "api_version", apiVersion)
		return providers.NewOpenAIProvider(client)
	}
	if apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); apiKey != "" {
		opts := []option.RequestOption{option.WithAPIKey(apiKey)}
		if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
			logger.Info("llm: configuring OpenAI client with custom endpoint", "endpoint", endpoint)
			opts = append(opts, option.WithBaseURL(endpoint))
		}
		client := openai.NewClient(opts...)
		logger.Info("llm: OpenAI provider selected")
		return providers.NewOpenAIProvider(client)
	}
	logger.Warn("llm: no API key configured; falling back to local provider")
	return providers.NewLocalProvider()
}
