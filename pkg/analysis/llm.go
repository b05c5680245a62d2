package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChatClient is the external language-model capability. Both adapters in
// this package depend on it so tests can substitute fakes.
type ChatClient interface {
	Chat(ctx context.Context, system, user string) (string, error)
	ChatJSON(ctx context.Context, system, user string) (string, error)
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	modelName  string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL, modelName string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		modelName:  modelName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	return c.call(ctx, system, user, false)
}

func (c *Client) ChatJSON(ctx context.Context, system, user string) (string, error) {
	return c.call(ctx, system, user, true)
}

func (c *Client) call(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("llm api key not configured")
	}

	payload := map[string]interface{}{
		"model": c.modelName,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"max_tokens": 250,
	}
	if jsonMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	payloadBytes, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm returned status %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("no response from LLM")
}
