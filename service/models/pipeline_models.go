/*
 * @module service/models/pipeline_models
 * @description 流水线编排相关模型：执行选项、分组诊断、批次结果
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 批次输入 -> 分组 -> 匹配 -> 合规评估 -> 批次结果
 * @rules 单分组失败不影响批次内其他分组
 * @dependencies time
 * @refs service/pipeline
 */

package models

import "time"

// GroupDiagnostic 单分组处理诊断信息
type GroupDiagnostic struct {
	KPIIdentifier string        `json:"kpi_identifier"`
	Matched       bool          `json:"matched"`
	Confidence    float64       `json:"confidence"`
	Duration      time.Duration `json:"duration"`
	TimedOut      bool          `json:"timed_out,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// PipelineResult 批次流水线执行结果
type PipelineResult struct {
	BatchID      string            `json:"batch_id"`
	Period       string            `json:"period,omitempty"`
	Grouping     *GroupingResult   `json:"grouping"`
	Mappings     []*KPIMapping     `json:"mappings"`
	Compliance   *ComplianceResult `json:"compliance,omitempty"`
	Report       *DetailedReport   `json:"report,omitempty"`
	Diagnostics  []GroupDiagnostic `json:"diagnostics"`
	MatchedCount int               `json:"matched_count"`
	FailedCount  int               `json:"failed_count"`
	Duration     time.Duration     `json:"duration"`
	Warnings     []string          `json:"warnings,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
}
