/*
 * @module service/ingest/kafka_source
 * @description Kafka批次数据源，消费上游解析器发布的原始行批次并驱动映射流水线
 * @architecture 适配器模式 - 封装kafka-go消费者，消息到批次的转换
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 连接建立 -> 消息消费 -> 批次执行 -> 位点提交
 * @rules 批次执行失败的消息记日志后仍提交位点，依赖上游重发而非本地无限重试
 * @dependencies github.com/segmentio/kafka-go, esghub-service/service/pipeline
 * @refs service/pipeline/orchestrator.go, service/init.go
 */

package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"

	"esghub-service/service/models"
	"esghub-service/service/pipeline"

	"github.com/segmentio/kafka-go"
)

// BatchMessage Kafka消息载荷：一个待映射的原始行批次
type BatchMessage struct {
	Period       string                    `json:"period"`
	ColumnConfig models.ColumnConfig       `json:"column_config"`
	RuleSet      *models.ComplianceRuleSet `json:"rule_set,omitempty"`
	Rows         []models.RawRow           `json:"rows"`
}

// KafkaSource Kafka批次数据源
type KafkaSource struct {
	reader       *kafka.Reader
	orchestrator *pipeline.Orchestrator
	cancel       context.CancelFunc
}

// NewKafkaSourceFromEnv 按环境变量创建Kafka数据源，未配置broker时返回nil
func NewKafkaSourceFromEnv(orchestrator *pipeline.Orchestrator) *KafkaSource {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil
	}
	topic := getEnvWithDefault("KAFKA_BATCH_TOPIC", "esg-raw-batches")
	groupID := getEnvWithDefault("KAFKA_GROUP_ID", "esghub-mapping")

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        strings.Split(brokers, ","),
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: 0,
	})
	return &KafkaSource{reader: reader, orchestrator: orchestrator}
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Start 启动消费循环
func (s *KafkaSource) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	slog.Info("Kafka批次数据源启动", "topic", s.reader.Config().Topic)

	go func() {
		for {
			message, err := s.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("Kafka消息拉取失败", "error", err.Error())
				continue
			}

			s.handleMessage(ctx, message)

			if err := s.reader.CommitMessages(ctx, message); err != nil {
				slog.Error("Kafka位点提交失败", "error", err.Error())
			}
		}
	}()
}

// handleMessage 解析批次消息并执行流水线
func (s *KafkaSource) handleMessage(ctx context.Context, message kafka.Message) {
	var batch BatchMessage
	if err := json.Unmarshal(message.Value, &batch); err != nil {
		slog.Error("批次消息反序列化失败", "offset", message.Offset, "error", err.Error())
		return
	}

	opts := pipeline.DefaultOptions()
	opts.Period = batch.Period
	opts.PersistMappings = true

	result, err := s.orchestrator.Run(ctx, batch.Rows, batch.ColumnConfig, batch.RuleSet, opts)
	if err != nil {
		slog.Error("Kafka批次流水线执行失败", "offset", message.Offset, "error", err.Error())
		return
	}
	slog.Info("Kafka批次处理完成",
		"offset", message.Offset,
		"batch_id", result.BatchID,
		"matched", result.MatchedCount)
}

// Stop 停止消费并关闭连接
func (s *KafkaSource) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.reader.Close()
}
