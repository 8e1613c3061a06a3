package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"WenyanScene-server/llm"
	"WenyanScene-server/logger"
)

// 视频任务状态
const (
	VideoStatusQueued    = "queued"
	VideoStatusRunning   = "running"
	VideoStatusSuccess   = "success"
	VideoStatusFailed    = "failed"
	VideoStatusCancelled = "cancelled"
)

const (
	imageBackend llm.Backend = "image"
	videoBackend llm.Backend = "video"
)

type Config struct {
	APIKey          string
	ImageAPI        string
	ImageModel      string
	ImageSize       string
	VideoAPI        string
	VideoStatusAPI  string
	VideoModel      string
	Resolution      string
	Duration        int
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	MaxPollAttempts int
}

// MediaGenerationFailed 视频服务报告任务失败或被取消
type MediaGenerationFailed struct {
	TaskID string
	Status string
	Reason string
}

func (e *MediaGenerationFailed) Error() string {
	return fmt.Sprintf("video task %s %s: %s", e.TaskID, e.Status, e.Reason)
}

// TickFunc 每次轮询前回调，attempt 从 0 开始
type TickFunc func(attempt, maxAttempts int)

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.MaxPollAttempts == 0 {
		cfg.MaxPollAttempts = 40
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log,
	}
}

// GenerateImage 同步生成图片。优先返回内联 base64 数据（data URL），否则返回远程 URL。
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"prompt": prompt,
		"model":  c.cfg.ImageModel,
		"size":   c.cfg.ImageSize,
		"extra_body": map[string]interface{}{
			"guidance_scale": 7.5,
			"seed":           42,
		},
	}
	var result struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
			URL     string `json:"url"`
		} `json:"data"`
	}
	url := strings.TrimRight(c.cfg.ImageAPI, "/") + "/images/generations"
	if err := c.postJSON(ctx, imageBackend, url, reqBody, &result); err != nil {
		return "", err
	}
	if len(result.Data) == 0 {
		return "", &llm.UpstreamError{Backend: imageBackend, Message: "response missing data"}
	}
	if b64 := result.Data[0].B64JSON; b64 != "" {
		return "data:image/jpeg;base64," + b64, nil
	}
	if u := result.Data[0].URL; u != "" {
		return u, nil
	}
	return "", &llm.UpstreamError{Backend: imageBackend, Message: "response has neither b64_json nor url"}
}

// SubmitVideo 提交异步视频任务，返回 task_id
func (c *Client) SubmitVideo(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"prompt":     prompt,
		"model":      c.cfg.VideoModel,
		"resolution": c.cfg.Resolution,
		"duration":   c.cfg.Duration,
	}
	var result struct {
		TaskID string `json:"task_id"`
	}
	if err := c.postJSON(ctx, videoBackend, c.cfg.VideoAPI, reqBody, &result); err != nil {
		return "", err
	}
	if result.TaskID == "" {
		return "", &llm.UpstreamError{Backend: videoBackend, Message: "response missing task_id"}
	}
	return result.TaskID, nil
}

type videoStatus struct {
	Status string `json:"status"`
	Output *struct {
		FileURL string `json:"file_url"`
		Text    string `json:"text"`
	} `json:"output"`
}

// PollVideo 按固定间隔轮询任务状态，最多 MaxPollAttempts 次。
// success 返回视频地址；failed/cancelled 返回 *MediaGenerationFailed；
// 超过次数上限仍未结束时返回空地址且不报错。
// 单次请求的超时不超过轮询间隔，因此总耗时不超过 PollInterval*MaxPollAttempts。
func (c *Client) PollVideo(ctx context.Context, taskID string, onTick TickFunc) (string, error) {
	statusURL := strings.TrimRight(c.cfg.VideoStatusAPI, "/") + "/" + taskID
	max := c.cfg.MaxPollAttempts

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < max; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("polling canceled: %w", ctx.Err())
			case <-ticker.C:
			}
		}
		if onTick != nil {
			onTick(attempt, max)
		}

		st, err := c.fetchStatus(ctx, statusURL)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("polling canceled: %w", ctx.Err())
			}
			c.log.Warn("video status check failed", "task_id", taskID, "attempt", attempt+1, "error", err)
			continue
		}
		c.log.Debug("video status", "task_id", taskID, "attempt", attempt+1, "status", st.Status)

		switch st.Status {
		case VideoStatusSuccess:
			if st.Output == nil {
				return "", nil
			}
			return st.Output.FileURL, nil
		case VideoStatusFailed, VideoStatusCancelled:
			reason := "无具体原因"
			if st.Output != nil && st.Output.Text != "" {
				reason = st.Output.Text
			}
			return "", &MediaGenerationFailed{TaskID: taskID, Status: st.Status, Reason: reason}
		}
	}
	c.log.Warn("video polling timeout", "task_id", taskID, "attempts", max)
	return "", nil
}

// GenerateVideo 提交视频任务并轮询至结束
func (c *Client) GenerateVideo(ctx context.Context, prompt string, onTick TickFunc) (string, error) {
	taskID, err := c.SubmitVideo(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.log.Info("video task submitted", "task_id", taskID)
	return c.PollVideo(ctx, taskID, onTick)
}

func (c *Client) fetchStatus(ctx context.Context, statusURL string) (*videoStatus, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.PollInterval)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &llm.UpstreamError{Backend: videoBackend, Message: "status request", Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &llm.UpstreamError{Backend: videoBackend, Message: "read status", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &llm.UpstreamError{Backend: videoBackend, StatusCode: resp.StatusCode, Message: string(body)}
	}
	var st videoStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, &llm.UpstreamError{Backend: videoBackend, Message: "decode status", Err: err}
	}
	return &st, nil
}

func (c *Client) postJSON(ctx context.Context, which llm.Backend, url string, reqBody interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &llm.UpstreamError{Backend: which, Message: "execute request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &llm.UpstreamError{Backend: which, Message: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return &llm.UpstreamError{Backend: which, StatusCode: resp.StatusCode, Message: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &llm.UpstreamError{Backend: which, Message: "decode response", Err: err}
	}
	return nil
}
