/*
 * @module service/pipeline/metrics
 * @description 流水线Prometheus指标：批次计数、分组匹配延迟、嵌入服务错误、合规率
 * @architecture 监控层
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 指标注册 -> 流水线执行时打点 -> /metrics暴露
 * @dependencies github.com/prometheus/client_golang/prometheus
 * @refs orchestrator.go, main.go
 */

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esghub_pipeline_batches_total",
		Help: "流水线批次执行总数",
	}, []string{"status"})

	groupMatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "esghub_pipeline_group_match_seconds",
		Help:    "单个KPI分组匹配耗时",
		Buckets: prometheus.DefBuckets,
	})

	groupMatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esghub_pipeline_groups_total",
		Help: "分组匹配结果计数",
	}, []string{"outcome"})

	providerErrorTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esghub_embedding_provider_errors_total",
		Help: "嵌入服务错误总数",
	})

	complianceRateGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "esghub_compliance_rate",
		Help: "最近一次合规评估的合规率",
	}, []string{"period", "standard"})
)
