/*
 * @module service/pipeline/orchestrator
 * @description 流水线编排器，驱动分组->匹配->合规评估->报告生成的批次执行，带分组级失败隔离
 * @architecture 分层架构 - 编排层，有界工作池并发匹配
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 行分组 -> 并发匹配 -> 结果收集 -> 可选合规评估 -> 可选报告生成
 * @rules 单分组失败不中断批次；结果按索引写入避免丢失更新；批次超时取消未开始的匹配；延迟超预算记警告不算失败
 * @dependencies esghub-service/service/kpi_mapping, esghub-service/service/compliance
 * @refs service/init.go, api/controllers/pipeline_controller.go
 */

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"esghub-service/service/compliance"
	"esghub-service/service/kpi_mapping"
	"esghub-service/service/models"

	"github.com/google/uuid"
)

// Options 流水线执行选项
type Options struct {
	Workers              int                      `json:"workers"`
	BatchTimeout         time.Duration            `json:"batch_timeout"`
	PerItemLatencyBudget time.Duration            `json:"per_item_latency_budget"`
	Match                kpi_mapping.MatchOptions `json:"match"`
	Period               string                   `json:"period"`
	PersistMappings      bool                     `json:"persist_mappings"`
	GenerateReport       bool                     `json:"generate_report"`
}

// DefaultOptions 默认执行选项
func DefaultOptions() Options {
	return Options{
		Workers:              4,
		BatchTimeout:         5 * time.Minute,
		PerItemLatencyBudget: 3 * time.Second,
		Match:                kpi_mapping.DefaultMatchOptions(),
		GenerateReport:       true,
	}
}

// Orchestrator 流水线编排器
type Orchestrator struct {
	analyzer  *kpi_mapping.GroupAnalyzer
	matcher   *kpi_mapping.Matcher
	evaluator *compliance.Evaluator
	reporter  *compliance.ReportGenerator
	store     *compliance.ResultStore
}

// NewOrchestrator 创建流水线编排器，依赖由组合根注入
func NewOrchestrator(
	analyzer *kpi_mapping.GroupAnalyzer,
	matcher *kpi_mapping.Matcher,
	evaluator *compliance.Evaluator,
	reporter *compliance.ReportGenerator,
	store *compliance.ResultStore,
) *Orchestrator {
	return &Orchestrator{
		analyzer:  analyzer,
		matcher:   matcher,
		evaluator: evaluator,
		reporter:  reporter,
		store:     store,
	}
}

// Run 执行批次流水线：分组 -> 并发匹配 -> 可选合规评估与报告
func (o *Orchestrator) Run(ctx context.Context, rows []models.RawRow, config models.ColumnConfig,
	ruleSet *models.ComplianceRuleSet, opts Options) (*models.PipelineResult, error) {

	startedAt := time.Now()
	result := &models.PipelineResult{
		BatchID:   uuid.New().String(),
		Period:    opts.Period,
		StartedAt: startedAt,
	}

	if len(rows) == 0 {
		batchTotal.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("rows", "批次行数据为空")
	}

	grouping, err := o.analyzer.Analyze(rows, config)
	if err != nil {
		batchTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	result.Grouping = grouping

	if grouping.Empty {
		result.Duration = time.Since(startedAt)
		batchTotal.WithLabelValues("empty").Inc()
		slog.Info("批次未形成任何KPI分组", "batch_id", result.BatchID, "total_rows", grouping.TotalRows)
		return result, nil
	}

	result.Mappings, result.Diagnostics = o.matchGroups(ctx, grouping.Groups, opts)

	for _, diagnostic := range result.Diagnostics {
		if diagnostic.Matched {
			result.MatchedCount++
		}
		if diagnostic.Error != "" {
			result.FailedCount++
		}
	}

	if opts.PersistMappings && o.store != nil {
		if err := o.store.SaveMappings(ctx, result.BatchID, opts.Period, result.Mappings); err != nil {
			// 持久化失败不丢弃内存结果
			slog.Warn("映射结果持久化失败", "batch_id", result.BatchID, "error", err.Error())
			result.Warnings = append(result.Warnings, fmt.Sprintf("映射结果持久化失败: %v", err))
		}
	}

	if ruleSet != nil {
		complianceResult, err := o.evaluator.Evaluate(result.Mappings, ruleSet, opts.Period)
		if err != nil {
			return nil, err
		}
		result.Compliance = complianceResult
		complianceRateGauge.WithLabelValues(opts.Period, ruleSet.Standard).Set(complianceResult.ComplianceRate)

		if opts.GenerateReport {
			report, err := o.reporter.Generate(complianceResult)
			if err != nil {
				return nil, err
			}
			result.Report = report
		}
	}

	result.Duration = time.Since(startedAt)
	batchTotal.WithLabelValues("completed").Inc()
	slog.Info("批次流水线执行完成",
		"batch_id", result.BatchID,
		"groups", len(result.Mappings),
		"matched", result.MatchedCount,
		"failed", result.FailedCount,
		"duration", result.Duration.String())
	return result, nil
}

// matchGroups 有界工作池并发匹配，结果按索引写入
func (o *Orchestrator) matchGroups(ctx context.Context, groups []*models.KPIGroup, opts Options) ([]*models.KPIMapping, []models.GroupDiagnostic) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(groups) {
		workers = len(groups)
	}

	batchCtx := ctx
	var cancel context.CancelFunc
	if opts.BatchTimeout > 0 {
		batchCtx, cancel = context.WithTimeout(ctx, opts.BatchTimeout)
		defer cancel()
	}

	mappings := make([]*models.KPIMapping, len(groups))
	diagnostics := make([]models.GroupDiagnostic, len(groups))

	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				group := groups[i]

				// 批次超时后未开始的分组直接标记为超时未映射
				select {
				case <-batchCtx.Done():
					mappings[i] = &models.KPIMapping{Group: group, Error: "批次超时，匹配未执行"}
					diagnostics[i] = models.GroupDiagnostic{
						KPIIdentifier: group.KPIIdentifier,
						TimedOut:      true,
						Error:         "批次超时，匹配未执行",
					}
					continue
				default:
				}

				groupStart := time.Now()
				mapping := o.matcher.MatchGroup(batchCtx, group, opts.Match)
				elapsed := time.Since(groupStart)

				groupMatchDuration.Observe(elapsed.Seconds())
				mappings[i] = mapping

				diagnostic := models.GroupDiagnostic{
					KPIIdentifier: group.KPIIdentifier,
					Matched:       mapping.BestMatch != nil,
					Confidence:    mapping.AdjustedConfidence,
					Duration:      elapsed,
				}
				if mapping.Error != "" {
					diagnostic.Error = mapping.Error
					providerErrorTotal.Inc()
					if batchCtx.Err() != nil {
						diagnostic.TimedOut = true
					}
				}
				diagnostics[i] = diagnostic

				switch {
				case diagnostic.TimedOut:
					groupMatchTotal.WithLabelValues("timed_out").Inc()
				case diagnostic.Error != "":
					groupMatchTotal.WithLabelValues("error").Inc()
				case diagnostic.Matched:
					groupMatchTotal.WithLabelValues("matched").Inc()
				default:
					groupMatchTotal.WithLabelValues("unmatched").Inc()
				}

				// 延迟预算持续超限记警告，不作为失败
				if opts.PerItemLatencyBudget > 0 && elapsed > opts.PerItemLatencyBudget {
					slog.Warn("分组匹配延迟超出预算",
						"kpi_identifier", group.KPIIdentifier,
						"elapsed", elapsed.String(),
						"budget", opts.PerItemLatencyBudget.String())
				}
			}
		}()
	}

	for i := range groups {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return mappings, diagnostics
}
