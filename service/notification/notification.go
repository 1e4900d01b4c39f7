/*
 * @module service/notification/notification
 * @description 通知渠道接口和实现，向协作方推送缺失KPI与临近截止日事件
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/compliance_req.md
 * @stateFlow 事件产生 -> 渠道过滤 -> 通知发送
 * @rules 通知投递机制属于外部协作方，此处只负责事件构造和分发；单渠道失败不影响其他渠道
 * @dependencies net/http, encoding/json, esghub-service/service/models
 * @refs service/compliance/scheduler.go
 */

package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"esghub-service/service/models"
)

// 事件类型常量
const (
	EventMissingKPI          = "missing_kpi"
	EventApproachingDeadline = "approaching_deadline"
	EventCriticalResult      = "critical_result"
)

// ComplianceEvent 合规通知事件
type ComplianceEvent struct {
	Type      string       `json:"type"`
	Period    string       `json:"period"`
	Standard  string       `json:"standard"`
	Severity  string       `json:"severity"`
	Message   string       `json:"message"`
	Payload   models.JSONB `json:"payload,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Sender 通知发送器接口
type Sender interface {
	Send(event *ComplianceEvent) error
	GetChannelType() string
	IsEnabled() bool
}

// WebhookChannel Webhook通知渠道
type WebhookChannel struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Enabled bool              `json:"is_enabled"`

	httpClient *http.Client
}

// NewWebhookChannel 创建Webhook渠道
func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{
		URL:        url,
		Enabled:    url != "",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send 发送Webhook通知
func (w *WebhookChannel) Send(event *ComplianceEvent) error {
	if !w.Enabled {
		return fmt.Errorf("Webhook通知渠道未启用")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("事件序列化失败: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range w.Headers {
		req.Header.Set(key, value)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Webhook发送失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Webhook返回错误状态: %d", resp.StatusCode)
	}
	return nil
}

// GetChannelType 获取渠道类型
func (w *WebhookChannel) GetChannelType() string {
	return "webhook"
}

// IsEnabled 检查是否启用
func (w *WebhookChannel) IsEnabled() bool {
	return w.Enabled
}

// EmailChannel 邮件通知渠道
type EmailChannel struct {
	FromAddress string   `json:"from_address"`
	ToAddresses []string `json:"to_addresses"`
	Enabled     bool     `json:"is_enabled"`
}

// Send 发送邮件通知
func (e *EmailChannel) Send(event *ComplianceEvent) error {
	if !e.Enabled {
		return fmt.Errorf("邮件通知渠道未启用")
	}

	subject := fmt.Sprintf("[%s] %s %s 合规通知", event.Severity, event.Period, event.Standard)
	// 简化实现 - 实际投递由外部邮件网关完成
	slog.Info("发送邮件通知", "to", e.ToAddresses, "subject", subject, "message", event.Message)
	return nil
}

// GetChannelType 获取渠道类型
func (e *EmailChannel) GetChannelType() string {
	return "email"
}

// IsEnabled 检查是否启用
func (e *EmailChannel) IsEnabled() bool {
	return e.Enabled
}

// Manager 通知管理器，向所有启用渠道分发事件
type Manager struct {
	channels []Sender
}

// NewManager 创建通知管理器
func NewManager(channels ...Sender) *Manager {
	return &Manager{channels: channels}
}

// AddChannel 添加通知渠道
func (m *Manager) AddChannel(channel Sender) {
	m.channels = append(m.channels, channel)
}

// Notify 分发事件到所有启用渠道，单渠道失败记日志不中断
func (m *Manager) Notify(event *ComplianceEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, channel := range m.channels {
		if !channel.IsEnabled() {
			continue
		}
		if err := channel.Send(event); err != nil {
			slog.Warn("通知发送失败",
				"channel", channel.GetChannelType(),
				"event_type", event.Type,
				"error", err.Error())
		}
	}
}
