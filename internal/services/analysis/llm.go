package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoProvider is returned when neither LLM provider is configured.
var ErrNoProvider = errors.New("no LLM provider configured: set ANTHROPIC_API_KEY or OPENAI_API_KEY")

const (
	defaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	defaultOpenAIURL    = "https://api.openai.com/v1/chat/completions"

	systemPrompt = "You are a financial analyst assistant. Analyze invoice data and provide concise, actionable insights."
)

// LLMClient calls Anthropic first when configured and falls back to
// OpenAI. Transient failures retry with exponential backoff.
type LLMClient struct {
	http         *resty.Client
	anthropicKey string
	openaiKey    string
	anthropicURL string
	openaiURL    string
}

func NewLLMClient() *LLMClient {
	client := resty.New()
	client.SetTimeout(time.Second * 30)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(time.Second * 4)
	client.SetRetryMaxWaitTime(time.Second * 10)

	return &LLMClient{
		http:         client,
		anthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		openaiKey:    os.Getenv("OPENAI_API_KEY"),
		anthropicURL: defaultAnthropicURL,
		openaiURL:    defaultOpenAIURL,
	}
}

func (c *LLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.anthropicKey != "" {
		text, err := c.anthropic(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if c.openaiKey == "" {
			return "", fmt.Errorf("anthropic: %w", err)
		}
	}
	if c.openaiKey != "" {
		text, err := c.openai(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("openai: %w", err)
		}
		return text, nil
	}
	return "", ErrNoProvider
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *LLMClient) anthropic(ctx context.Context, prompt string) (string, error) {
	var out anthropicResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.anthropicKey).
		SetHeader("anthropic-version", "2023-06-01").
		SetBody(map[string]interface{}{
			"model":       "claude-3-haiku-20240307",
			"max_tokens":  500,
			"temperature": 0.1,
			"system":      systemPrompt,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		}).
		SetResult(&out).
		Post(c.anthropicURL)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Content) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return out.Content[0].Text, nil
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *LLMClient) openai(ctx context.Context, prompt string) (string, error) {
	var out openaiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.openaiKey).
		SetBody(map[string]interface{}{
			"model":       "gpt-3.5-turbo",
			"max_tokens":  500,
			"temperature": 0.1,
			"messages": []map[string]string{
				{"role": "system", "content": systemPrompt},
				{"role": "user", "content": prompt},
			},
		}).
		SetResult(&out).
		Post(c.openaiURL)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return out.Choices[0].Message.Content, nil
}
