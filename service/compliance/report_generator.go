/*
 * @module service/compliance/report_generator
 * @description 合规报告生成器，将合规结果确定性地转换为摘要、建议和后续步骤
 * @architecture 分层架构 - 业务服务层，纯转换无副作用
 * @documentReference ai_docs/compliance_req.md
 * @stateFlow 合规结果 -> 摘要生成 -> 按类别建议 -> 按严重度排序后续步骤
 * @rules 文案选取使用数据驱动查找表，新增标准或类别无需改代码
 * @dependencies esghub-service/service/models
 * @refs evaluator.go
 */

package compliance

import (
	"fmt"
	"sort"

	"esghub-service/service/models"
)

// 状态文案表
var statusLabels = map[string]string{
	models.StatusCompliant: "合规",
	models.StatusWarning:   "部分合规",
	models.StatusCritical:  "存在重大缺失",
}

// 类别建议文案表
var categoryRecommendations = map[string]string{
	models.CategoryEnvironment: "环境(E)类KPI存在缺失，请核对排放量、能耗、水资源等数据源的列名和单位后重新上传",
	models.CategorySocial:      "社会(S)类KPI存在缺失，请确认人事系统导出的雇佣、多样性、安全数据是否完整",
	models.CategoryGovernance:  "治理(G)类KPI存在缺失，请与法务/董事会事务部门确认治理指标的填报",
	models.CategoryFinancial:   "财务类KPI存在缺失，请核对财务报表导出数据",
}

// 严重度排序权重与行动文案表
var severityRank = map[string]int{
	models.SeverityCritical: 0,
	models.SeverityWarning:  1,
}

var severityActions = map[string]func(kpi models.MissingKPI, unit, standardName string) string{
	models.SeverityCritical: func(kpi models.MissingKPI, unit, standardName string) string {
		return fmt.Sprintf("【必须】补充 %s（%s），该项为 %s 标准的强制披露项", kpi.KPIName, unit, standardName)
	},
	models.SeverityWarning: func(kpi models.MissingKPI, unit, standardName string) string {
		return fmt.Sprintf("【建议】补充 %s（%s），完善披露覆盖率", kpi.KPIName, unit)
	},
}

// ReportGenerator 合规报告生成器
type ReportGenerator struct {
	registry *StandardRegistry
}

// NewReportGenerator 创建报告生成器实例
func NewReportGenerator(registry *StandardRegistry) *ReportGenerator {
	return &ReportGenerator{registry: registry}
}

// Generate 生成详细报告，ComplianceResult的纯派生物
func (g *ReportGenerator) Generate(result *models.ComplianceResult) (*models.DetailedReport, error) {
	if result == nil {
		return nil, models.NewValidationError("result", "合规结果不能为空")
	}

	report := &models.DetailedReport{
		Summary:         g.buildSummary(result),
		Recommendations: g.buildRecommendations(result),
		NextSteps:       g.buildNextSteps(result),
	}
	return report, nil
}

// buildSummary 摘要：标准、期间、合规率、缺失统计
func (g *ReportGenerator) buildSummary(result *models.ComplianceResult) string {
	standardName := g.registry.DisplayName(result.Standard)
	statusLabel := statusLabels[result.Status]
	if statusLabel == "" {
		statusLabel = result.Status
	}

	return fmt.Sprintf("%s 期间对 %s 标准的合规评估结果：%s。要求KPI共 %d 项，合规率 %.1f%%，缺失 %d 项（critical %d 项、warning %d 项）。",
		result.Period,
		standardName,
		statusLabel,
		result.TotalKPIs,
		result.ComplianceRate,
		len(result.MissingKPIs),
		result.CriticalMissingCount,
		result.WarningMissingCount)
}

// buildRecommendations 每个存在缺失的类别产出一条建议
func (g *ReportGenerator) buildRecommendations(result *models.ComplianceResult) []string {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, missing := range result.MissingKPIs {
		if !seen[missing.Category] {
			seen[missing.Category] = true
			categories = append(categories, missing.Category)
		}
	}

	recommendations := make([]string, 0, len(categories))
	for _, category := range categories {
		if text, ok := categoryRecommendations[category]; ok {
			recommendations = append(recommendations, text)
		} else {
			recommendations = append(recommendations, fmt.Sprintf("%s 类KPI存在缺失，请核对数据源", category))
		}
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "所有要求KPI均已覆盖，建议保持当前数据采集流程")
	}
	return recommendations
}

// buildNextSteps 后续步骤，critical优先，同级按KPI ID稳定排序
func (g *ReportGenerator) buildNextSteps(result *models.ComplianceResult) []string {
	missing := make([]models.MissingKPI, len(result.MissingKPIs))
	copy(missing, result.MissingKPIs)

	sort.SliceStable(missing, func(i, j int) bool {
		if severityRank[missing[i].Severity] != severityRank[missing[j].Severity] {
			return severityRank[missing[i].Severity] < severityRank[missing[j].Severity]
		}
		return missing[i].KPIID < missing[j].KPIID
	})

	steps := make([]string, 0, len(missing)+1)
	standardName := g.registry.DisplayName(result.Standard)

	for _, kpi := range missing {
		action, ok := severityActions[kpi.Severity]
		if !ok {
			action = severityActions[models.SeverityWarning]
		}
		unit := kpi.ExpectedUnit
		if unit == "" {
			unit = "单位未设定"
		}
		steps = append(steps, action(kpi, unit, standardName))
	}

	if result.Status == models.StatusCompliant {
		steps = append(steps, "归档本期合规结果并准备披露材料")
	} else {
		steps = append(steps, "补充数据后重新执行合规评估")
	}
	return steps
}
