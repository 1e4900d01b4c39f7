/*
 * @module api/controllers/pipeline_controller
 * @description 批次流水线控制器，接收原始表格行数据并执行分组、语义匹配与合规评估
 * @architecture MVC架构 - 控制器层
 * @dependencies esghub-service/service/pipeline, github.com/go-chi/render
 * @refs service/pipeline/orchestrator.go, service/models/pipeline_models.go
 */

package controllers

import (
	"net/http"
	"time"

	"esghub-service/service/models"
	"esghub-service/service/pipeline"

	"github.com/go-chi/render"
)

// PipelineController 批次流水线控制器
type PipelineController struct {
	orchestrator *pipeline.Orchestrator
}

// NewPipelineController 创建流水线控制器实例
func NewPipelineController(orchestrator *pipeline.Orchestrator) *PipelineController {
	return &PipelineController{orchestrator: orchestrator}
}

// RunPipelineRequest 流水线执行请求
type RunPipelineRequest struct {
	Period       string                    `json:"period"`
	Rows         []models.RawRow           `json:"rows"`
	ColumnConfig models.ColumnConfig       `json:"column_config"`
	RuleSet      *models.ComplianceRuleSet `json:"rule_set,omitempty"`
	Options      *RunPipelineOptions       `json:"options,omitempty"`
}

// RunPipelineOptions 流水线执行可选参数，未设置时使用默认值
type RunPipelineOptions struct {
	Workers                int     `json:"workers,omitempty"`
	BatchTimeoutSeconds    int     `json:"batch_timeout_seconds,omitempty"`
	TopK                   int     `json:"top_k,omitempty"`
	MinConfidenceThreshold float64 `json:"min_confidence_threshold,omitempty"`
	PersistMappings        bool    `json:"persist_mappings,omitempty"`
	SkipReport             bool    `json:"skip_report,omitempty"`
}

// RunPipeline 执行批次流水线
// @Summary 执行批次流水线
// @Description 对原始表格行数据执行分组、样本类型推断、KPI语义匹配与可选的合规评估
// @Tags 流水线
// @Accept json
// @Produce json
// @Param request body RunPipelineRequest true "批次数据与执行参数"
// @Success 200 {object} APIResponse{data=models.PipelineResult} "执行成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /pipeline/run [post]
func (c *PipelineController) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req RunPipelineRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	opts := pipeline.DefaultOptions()
	opts.Period = req.Period
	if req.Options != nil {
		if req.Options.Workers > 0 {
			opts.Workers = req.Options.Workers
		}
		if req.Options.BatchTimeoutSeconds > 0 {
			opts.BatchTimeout = time.Duration(req.Options.BatchTimeoutSeconds) * time.Second
		}
		if req.Options.TopK > 0 {
			opts.Match.TopK = req.Options.TopK
		}
		if req.Options.MinConfidenceThreshold > 0 {
			opts.Match.MinConfidenceThreshold = req.Options.MinConfidenceThreshold
		}
		opts.PersistMappings = req.Options.PersistMappings
		opts.GenerateReport = !req.Options.SkipReport
	}

	result, err := c.orchestrator.Run(r.Context(), req.Rows, req.ColumnConfig, req.RuleSet, opts)
	if err != nil {
		if models.IsValidationError(err) || models.IsInvalidStandardError(err) {
			render.JSON(w, r, BadRequestResponse("批次数据校验失败", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("流水线执行失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("流水线执行成功", result))
}
