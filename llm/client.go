package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"WenyanScene-server/config"
)

// Backend 区分两个文本生成后端
type Backend string

const (
	// Fast 响应较快的通用模型
	Fast Backend = "fast"
	// Reasoning 推理模型，token 额度更大
	Reasoning Backend = "reasoning"
)

// Caller 文本生成调用契约，便于在流水线中替换为测试实现
type Caller interface {
	Call(ctx context.Context, backend Backend, systemPrompt, userPrompt string) (string, error)
}

// UpstreamError 远端返回非成功状态或响应缺少 message 内容
type UpstreamError struct {
	Backend    Backend
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s backend: %s", e.Backend, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s backend: status %d: %s", e.Backend, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

type backend struct {
	cfg        config.LLMBackendConfig
	httpClient *http.Client
}

// Client 基于 OpenAI 兼容 chat/completions 接口的客户端，不包含任何重试逻辑
type Client struct {
	backends map[Backend]*backend
}

func NewClient(fast, reasoning config.LLMBackendConfig) *Client {
	return &Client{
		backends: map[Backend]*backend{
			Fast:      newBackend(fast),
			Reasoning: newBackend(reasoning),
		},
	}
}

func newBackend(cfg config.LLMBackendConfig) *backend {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	return &backend{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
}

// Call 以 system/user 两条消息调用指定后端，返回 choices[0].message.content
func (c *Client) Call(ctx context.Context, which Backend, systemPrompt, userPrompt string) (string, error) {
	b, ok := c.backends[which]
	if !ok {
		return "", fmt.Errorf("unknown llm backend: %s", which)
	}

	reqBody := chatRequest{
		Model: b.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   b.cfg.MaxTokens,
		Temperature: b.cfg.Temperature,
		Stream:      false,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(b.cfg.APIURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", &UpstreamError{Backend: which, Message: "execute request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{Backend: which, Message: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{Backend: which, StatusCode: resp.StatusCode, Message: truncate(string(respBody), 500)}
	}

	var result struct {
		Choices []struct {
			Message *struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &UpstreamError{Backend: which, Message: "unmarshal response", Err: err}
	}
	if len(result.Choices) == 0 {
		return "", &UpstreamError{Backend: which, Message: "response missing choices"}
	}
	if result.Choices[0].Message == nil || result.Choices[0].Message.Content == "" {
		return "", &UpstreamError{Backend: which, Message: "response missing message content"}
	}
	return result.Choices[0].Message.Content, nil
}

// truncate 按字符截断，避免切开多字节字符
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
