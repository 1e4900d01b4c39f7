/*
 * @module service/embedding/client
 * @description 嵌入服务HTTP客户端，将文本转换为固定维度向量，支持指数退避重试和限流感知
 * @architecture 适配器模式 - 封装外部嵌入服务，提供统一的Provider接口
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 请求构造 -> HTTP调用 -> 失败重试 -> 向量返回
 * @rules 限流错误使用更长退避；总尝试次数有硬上限以约束延迟
 * @dependencies net/http, encoding/json, esghub-service/service/models
 * @refs service/kpi_mapping/matcher.go, service/kpi_mapping/dictionary_cache.go
 */

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"esghub-service/service/models"
)

// Provider 嵌入服务接口，text -> 固定维度向量
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// RetryConfig 重试策略配置
type RetryConfig struct {
	MaxAttempts        int           `json:"max_attempts"`
	BaseDelay          time.Duration `json:"base_delay"`
	RateLimitBaseDelay time.Duration `json:"rate_limit_base_delay"`
	MaxDelay           time.Duration `json:"max_delay"`
}

// DefaultRetryConfig 默认重试策略
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:        3,
		BaseDelay:          500 * time.Millisecond,
		RateLimitBaseDelay: 2 * time.Second,
		MaxDelay:           30 * time.Second,
	}
}

// Client 嵌入服务HTTP客户端
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	retry      RetryConfig
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

type embedErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient 创建嵌入服务客户端，配置来自环境变量
func NewClient() *Client {
	timeout := 30 * time.Second
	if val := os.Getenv("EMBEDDING_TIMEOUT_SECONDS"); val != "" {
		if sec, err := strconv.Atoi(val); err == nil && sec > 0 {
			timeout = time.Duration(sec) * time.Second
		}
	}

	retry := DefaultRetryConfig()
	if val := os.Getenv("EMBEDDING_MAX_ATTEMPTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			retry.MaxAttempts = n
		}
	}

	return &Client{
		baseURL:    getEnvWithDefault("EMBEDDING_API_URL", "https://api.openai.com/v1/embeddings"),
		apiKey:     os.Getenv("EMBEDDING_API_KEY"),
		model:      getEnvWithDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

// NewClientWithConfig 创建指定配置的嵌入服务客户端，供测试使用
func NewClientWithConfig(baseURL, apiKey, model string, retry RetryConfig) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      retry,
	}
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Embed 将单条文本转换为向量
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch 批量转换文本为向量，带退避重试
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, models.NewValidationError("texts", "嵌入文本列表为空")
	}

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			// 指数退避，限流错误使用更长的基础延迟
			base := c.retry.BaseDelay
			if models.IsRateLimitError(lastErr) {
				base = c.retry.RateLimitBaseDelay
			}
			delay := base * time.Duration(1<<uint(attempt-1))
			if delay > c.retry.MaxDelay {
				delay = c.retry.MaxDelay
			}
			slog.Warn("嵌入请求重试",
				"attempt", attempt+1,
				"max_attempts", c.retry.MaxAttempts,
				"delay", delay.String(),
				"error", lastErr.Error())
			select {
			case <-ctx.Done():
				return nil, &models.ProviderError{Provider: c.model, Cause: ctx.Err()}
			case <-time.After(delay):
			}
		}

		vectors, err := c.doEmbed(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		// 客户端错误（非限流）不重试
		if pe, ok := err.(*models.ProviderError); ok && !pe.RateLimited &&
			pe.StatusCode >= 400 && pe.StatusCode < 500 {
			return nil, err
		}
	}

	return nil, lastErr
}

// doEmbed 执行单次嵌入请求
func (c *Client) doEmbed(ctx context.Context, texts []string) ([][]float64, error) {
	reqBody := embedRequest{Input: texts, Model: c.model}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &models.ProviderError{Provider: c.model, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &models.ProviderError{Provider: c.model, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.ProviderError{Provider: c.model, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.ProviderError{Provider: c.model, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp embedErrorResponse
		message := string(body)
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		return nil, &models.ProviderError{
			Provider:    c.model,
			StatusCode:  resp.StatusCode,
			RateLimited: resp.StatusCode == http.StatusTooManyRequests,
			Cause:       fmt.Errorf("%s", message),
		}
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &models.ProviderError{Provider: c.model, StatusCode: resp.StatusCode, Cause: err}
	}
	if len(result.Data) != len(texts) {
		return nil, &models.ProviderError{
			Provider:   c.model,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("返回向量数量不匹配: 期望 %d, 实际 %d", len(texts), len(result.Data)),
		}
	}

	vectors := make([][]float64, len(texts))
	for _, item := range result.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, &models.ProviderError{
				Provider:   c.model,
				StatusCode: resp.StatusCode,
				Cause:      fmt.Errorf("返回向量索引越界: %d", item.Index),
			}
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}
