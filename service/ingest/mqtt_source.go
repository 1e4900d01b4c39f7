/*
 * @module service/ingest/mqtt_source
 * @description MQTT计量数据源，订阅能耗/排放等计量上报主题，按条数或时间窗聚批后驱动流水线
 * @architecture 适配器模式 - 封装paho客户端，流式读数到批次的缓冲转换
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 连接订阅 -> 读数缓冲 -> 条数/窗口触发flush -> 批次执行
 * @rules 缓冲读数达到上限或窗口到期即flush；flush失败丢弃当前批次并记日志
 * @dependencies github.com/eclipse/paho.mqtt.golang, esghub-service/service/pipeline
 * @refs service/pipeline/orchestrator.go, service/init.go
 */

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"esghub-service/service/models"
	"esghub-service/service/pipeline"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MeterReading 单条计量读数
type MeterReading struct {
	KPIIdentifier string  `json:"kpi_identifier"`
	Value         float64 `json:"value"`
	Unit          string  `json:"unit"`
	Period        string  `json:"period"`
}

// MQTTSource MQTT计量数据源
type MQTTSource struct {
	client       mqtt.Client
	topic        string
	orchestrator *pipeline.Orchestrator

	mu       sync.Mutex
	buffer   []MeterReading
	maxBatch int
	maxAge   time.Duration
	ticker   *time.Ticker
	cancel   context.CancelFunc
}

// NewMQTTSourceFromEnv 按环境变量创建MQTT数据源，未配置broker时返回nil
func NewMQTTSourceFromEnv(orchestrator *pipeline.Orchestrator) *MQTTSource {
	broker := os.Getenv("MQTT_BROKER_URL")
	if broker == "" {
		return nil
	}

	source := &MQTTSource{
		topic:        getEnvWithDefault("MQTT_METER_TOPIC", "esg/meters/#"),
		orchestrator: orchestrator,
		maxBatch:     200,
		maxAge:       time.Minute,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("esghub-ingest-%d", os.Getpid())).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	if username := os.Getenv("MQTT_USERNAME"); username != "" {
		opts.SetUsername(username)
		opts.SetPassword(os.Getenv("MQTT_PASSWORD"))
	}

	source.client = mqtt.NewClient(opts)
	return source
}

// Start 连接并订阅计量主题
func (s *MQTTSource) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT连接失败: %w", token.Error())
	}

	if token := s.client.Subscribe(s.topic, 1, s.onMessage); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT订阅失败: %w", token.Error())
	}

	s.ticker = time.NewTicker(s.maxAge)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.ticker.C:
				s.flush(ctx)
			}
		}
	}()

	slog.Info("MQTT计量数据源启动", "topic", s.topic)
	return nil
}

// onMessage 读数入缓冲，达到条数上限立即flush
func (s *MQTTSource) onMessage(_ mqtt.Client, message mqtt.Message) {
	var reading MeterReading
	if err := json.Unmarshal(message.Payload(), &reading); err != nil {
		slog.Warn("计量读数反序列化失败", "topic", message.Topic(), "error", err.Error())
		return
	}

	s.mu.Lock()
	s.buffer = append(s.buffer, reading)
	full := len(s.buffer) >= s.maxBatch
	s.mu.Unlock()

	if full {
		s.flush(context.Background())
	}
}

// flush 将缓冲读数转换为原始行批次并执行流水线
func (s *MQTTSource) flush(ctx context.Context) {
	s.mu.Lock()
	readings := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	if len(readings) == 0 {
		return
	}

	rows := make([]models.RawRow, 0, len(readings))
	period := ""
	for _, reading := range readings {
		rows = append(rows, models.RawRow{
			"kpi":    reading.KPIIdentifier,
			"value":  reading.Value,
			"unit":   reading.Unit,
			"period": reading.Period,
		})
		if period == "" {
			period = reading.Period
		}
	}

	config := models.ColumnConfig{
		KPIColumn:    "kpi",
		ValueColumn:  "value",
		UnitColumn:   "unit",
		PeriodColumn: "period",
	}

	opts := pipeline.DefaultOptions()
	opts.Period = period
	opts.PersistMappings = true
	opts.GenerateReport = false

	result, err := s.orchestrator.Run(ctx, rows, config, nil, opts)
	if err != nil {
		slog.Error("MQTT批次流水线执行失败", "readings", len(readings), "error", err.Error())
		return
	}
	slog.Info("MQTT批次处理完成", "batch_id", result.BatchID, "readings", len(readings))
}

// Stop 停止订阅并断开连接
func (s *MQTTSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.client.Unsubscribe(s.topic)
	s.client.Disconnect(250)
}
