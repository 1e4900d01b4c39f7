/*
 * @module api/controllers/compliance_controller
 * @description 合规检查控制器，提供合规评估、详细报告与定期检查登记接口
 * @architecture MVC架构 - 控制器层
 * @dependencies esghub-service/service/compliance, github.com/go-chi/render
 * @refs service/compliance/evaluator.go, service/compliance/result_store.go
 */

package controllers

import (
	"net/http"
	"time"

	"esghub-service/service/compliance"
	"esghub-service/service/models"

	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// ComplianceController 合规检查控制器
type ComplianceController struct {
	evaluator *compliance.Evaluator
	reporter  *compliance.ReportGenerator
	store     *compliance.ResultStore
	scheduler *compliance.Scheduler
}

// NewComplianceController 创建合规检查控制器实例
func NewComplianceController(
	evaluator *compliance.Evaluator,
	reporter *compliance.ReportGenerator,
	store *compliance.ResultStore,
	scheduler *compliance.Scheduler,
) *ComplianceController {
	return &ComplianceController{
		evaluator: evaluator,
		reporter:  reporter,
		store:     store,
		scheduler: scheduler,
	}
}

// CheckComplianceRequest 合规检查请求
type CheckComplianceRequest struct {
	Period  string                    `json:"period"`
	RuleSet *models.ComplianceRuleSet `json:"rule_set"`
}

// CheckComplianceResponse 合规检查响应
type CheckComplianceResponse struct {
	Result   *models.ComplianceResult `json:"result"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// CheckCompliance 执行合规检查
// @Summary 执行合规检查
// @Description 基于指定期间已持久化的KPI映射结果执行合规评估，同一(period,standard)的结果幂等
// @Tags 合规
// @Accept json
// @Produce json
// @Param request body CheckComplianceRequest true "检查期间与规则集"
// @Success 200 {object} APIResponse{data=CheckComplianceResponse} "检查成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /compliance/check [post]
func (c *ComplianceController) CheckCompliance(w http.ResponseWriter, r *http.Request) {
	var req CheckComplianceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.Period == "" {
		render.JSON(w, r, BadRequestResponse("period不能为空", nil))
		return
	}
	if req.RuleSet == nil {
		render.JSON(w, r, BadRequestResponse("rule_set不能为空", nil))
		return
	}

	result, warnings, err := c.store.GetOrCompute(r.Context(), req.Period, req.RuleSet.Standard,
		func() (*models.ComplianceResult, error) {
			mappings, err := c.store.LoadMappings(r.Context(), req.Period)
			if err != nil {
				return nil, err
			}
			return c.evaluator.Evaluate(mappings, req.RuleSet, req.Period)
		})
	if err != nil {
		if models.IsValidationError(err) || models.IsInvalidStandardError(err) {
			render.JSON(w, r, BadRequestResponse("合规检查参数错误", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("合规检查失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("合规检查完成", &CheckComplianceResponse{
		Result:   result,
		Warnings: warnings,
	}))
}

// GetComplianceReport 获取详细合规报告
// @Summary 获取详细合规报告
// @Description 获取指定期间和标准的详细合规报告，包含摘要、整改建议与后续步骤
// @Tags 合规
// @Produce json
// @Param period query string true "报告期间，如2024-Q1"
// @Param standard query string true "合规标准(issb/csrd/custom)"
// @Success 200 {object} APIResponse{data=models.DetailedReport} "获取成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /compliance/report [get]
func (c *ComplianceController) GetComplianceReport(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	standard := r.URL.Query().Get("standard")
	if period == "" || standard == "" {
		render.JSON(w, r, BadRequestResponse("period和standard不能为空", nil))
		return
	}

	ruleSet := &models.ComplianceRuleSet{Standard: standard}
	result, _, err := c.store.GetOrCompute(r.Context(), period, standard,
		func() (*models.ComplianceResult, error) {
			mappings, err := c.store.LoadMappings(r.Context(), period)
			if err != nil {
				return nil, err
			}
			return c.evaluator.Evaluate(mappings, ruleSet, period)
		})
	if err != nil {
		if models.IsInvalidStandardError(err) {
			render.JSON(w, r, BadRequestResponse("不支持的合规标准", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("合规报告生成失败", err))
		return
	}

	report, err := c.reporter.Generate(result)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("合规报告生成失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("合规报告生成成功", report))
}

// RegisterCheckRequest 定期检查登记请求
type RegisterCheckRequest struct {
	Period                 string   `json:"period"`
	Standard               string   `json:"standard"`
	Categories             []string `json:"categories,omitempty"`
	MinConfidenceThreshold float64  `json:"min_confidence_threshold,omitempty"`
	Deadline               string   `json:"deadline,omitempty"`
}

// RegisterCheck 登记定期合规检查
// @Summary 登记定期合规检查
// @Description 登记一个由调度器定期执行的合规检查任务
// @Tags 合规
// @Accept json
// @Produce json
// @Param request body RegisterCheckRequest true "登记信息"
// @Success 200 {object} APIResponse{data=models.ComplianceCheckRegistration} "登记成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /compliance/registrations [post]
func (c *ComplianceController) RegisterCheck(w http.ResponseWriter, r *http.Request) {
	var req RegisterCheckRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.Period == "" || req.Standard == "" {
		render.JSON(w, r, BadRequestResponse("period和standard不能为空", nil))
		return
	}

	registration := &models.ComplianceCheckRegistration{
		ID:                     uuid.New().String(),
		Period:                 req.Period,
		Standard:               req.Standard,
		Categories:             req.Categories,
		MinConfidenceThreshold: req.MinConfidenceThreshold,
		IsEnabled:              true,
	}
	if req.Deadline != "" {
		deadline, err := parseDeadline(req.Deadline)
		if err != nil {
			render.JSON(w, r, BadRequestResponse("deadline格式错误，应为YYYY-MM-DD", err))
			return
		}
		registration.Deadline = deadline
	}

	if err := c.scheduler.Register(r.Context(), registration); err != nil {
		if models.IsValidationError(err) || models.IsInvalidStandardError(err) {
			render.JSON(w, r, BadRequestResponse("登记信息校验失败", err))
			return
		}
		render.JSON(w, r, InternalErrorResponse("定期检查登记失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("定期检查登记成功", registration))
}

func parseDeadline(value string) (*time.Time, error) {
	deadline, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &deadline, nil
}
