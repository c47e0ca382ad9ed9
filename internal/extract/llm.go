package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jonesrussell/shopcrawl/internal/config"
	"github.com/jonesrussell/shopcrawl/internal/discover"
	"github.com/jonesrussell/shopcrawl/internal/logger"
	"github.com/jonesrussell/shopcrawl/internal/scrapeapi"
)

const (
	// maxPageContentChars caps the HTML passed to the model.
	maxPageContentChars = 60000

	llmSystemPrompt = "You extract product data from e-commerce HTML. " +
		"Respond with JSON only, matching the schema the user describes. " +
		"Never invent products that are not present in the page."
)

// PageFetcher renders a page and returns its HTML. The scrape client's
// Links call satisfies this.
type PageFetcher interface {
	Links(ctx context.Context, pageURL string) (*scrapeapi.LinksResult, error)
}

// LLMExtractor is an extraction Backend that fetches rendered HTML and runs
// a JSON-mode chat completion against an OpenAI-compatible endpoint.
type LLMExtractor struct {
	client *openai.Client
	model  string
	pages  PageFetcher
	logger logger.Interface
}

// NewLLMExtractor creates an LLM-backed extractor.
func NewLLMExtractor(cfg *config.LLMConfig, pages PageFetcher, log logger.Interface) *LLMExtractor {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &LLMExtractor{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		pages:  pages,
		logger: log,
	}
}

// Extract implements Backend. Links are extracted locally from the rendered
// HTML so the fallback tier has candidates to work with.
func (e *LLMExtractor) Extract(ctx context.Context, pageURL, prompt string, opts scrapeapi.CallOptions) (*scrapeapi.ExtractResult, error) {
	page, err := e.pages.Links(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("llm extract fetch page: %w", err)
	}

	result, err := e.complete(ctx, prompt, page.HTML)
	if err != nil {
		return nil, err
	}

	result.Links = page.Links
	if len(result.Links) == 0 && page.HTML != "" {
		result.Links = discover.ExtractAnchors(page.HTML, pageURL)
	}

	return result, nil
}

// ExtractOne implements Backend for a single product page.
func (e *LLMExtractor) ExtractOne(ctx context.Context, productURL, prompt string, opts scrapeapi.CallOptions) (*scrapeapi.ProductPayload, error) {
	page, err := e.pages.Links(ctx, productURL)
	if err != nil {
		return nil, fmt.Errorf("llm extract fetch page: %w", err)
	}

	result, err := e.complete(ctx, prompt, page.HTML)
	if err != nil {
		return nil, err
	}

	if len(result.Products) == 0 {
		return nil, fmt.Errorf("llm extract: empty response for %s", productURL)
	}

	payload := result.Products[0]
	if payload.ProductURL == "" {
		payload.ProductURL = productURL
	}

	return &payload, nil
}

// complete runs one JSON-mode chat completion and parses the product array.
func (e *LLMExtractor) complete(ctx context.Context, prompt, html string) (*scrapeapi.ExtractResult, error) {
	content := html
	if len(content) > maxPageContentChars {
		content = content[:maxPageContentChars]
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llmSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt + "\n\nPage HTML:\n" + content},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm completion: no choices returned")
	}

	var result scrapeapi.ExtractResult
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if unmarshalErr := json.Unmarshal([]byte(raw), &result); unmarshalErr != nil {
		return nil, fmt.Errorf("llm completion parse: %w", unmarshalErr)
	}

	return &result, nil
}
