package llm

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// #endregion

// #region provider-interface

// Provider is a chat-completion backend. Implementations: OllamaProvider
// (local server) and OpenAIProvider (hosted API).
type Provider interface {
	// Name identifies the backend in traces and logs.
	Name() string
	// Available reports whether the backend is reachable and configured.
	Available(ctx context.Context) bool
	// Complete sends a system+user prompt pair and returns the raw
	// assistant message content.
	Complete(ctx context.Context, system, user string) (string, error)
}

// Select picks the first available provider, preferring primary. The
// choice is made once per run; callers hold onto the result.
func Select(ctx context.Context, primary, secondary Provider) (Provider, error) {
	if primary != nil && primary.Available(ctx) {
		log.Printf("[LLM] using provider %s", primary.Name())
		return primary, nil
	}
	if secondary != nil && secondary.Available(ctx) {
		log.Printf("[LLM] using provider %s", secondary.Name())
		return secondary, nil
	}
	return nil, fmt.Errorf("no llm provider available")
}

// #endregion provider-interface

// #region ollama

// OllamaProvider talks to a local Ollama server.
type OllamaProvider struct {
	baseURL string
	model   string
	httpc   *http.Client
}

// NewOllamaProvider creates a provider for the Ollama chat endpoint.
func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (p *OllamaProvider) Name() string { return "ollama/" + p.model }

// Available probes the tags endpoint; any 200 means the server is up.
func (p *OllamaProvider) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete runs a non-streaming chat completion.
func (p *OllamaProvider) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(ollamaChatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama chat %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return out.Message.Content, nil
}

// #endregion ollama

// #region openai

// OpenAIProvider talks to the OpenAI chat completions API.
type OpenAIProvider struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

// NewOpenAIProvider creates a provider for the OpenAI API. An empty
// baseURL defaults to the public endpoint.
func NewOpenAIProvider(baseURL, apiKey, model string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (p *OpenAIProvider) Name() string { return "openai/" + p.model }

// Available only checks the key looks plausible; the API has no cheap probe.
func (p *OpenAIProvider) Available(ctx context.Context) bool {
	return len(p.apiKey) > 10
}

type openaiChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete runs a chat completion at low temperature.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(openaiChatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai chat %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out openaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// #endregion openai
