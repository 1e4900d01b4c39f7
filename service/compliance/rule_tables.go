/*
 * @module service/compliance/rule_tables
 * @description 合规标准规则表，以数据驱动的查找表承载各标准的要求KPI清单，替代分支硬编码
 * @architecture 数据驱动注册表模式 - 新增标准只需登记表项
 * @documentReference ai_docs/compliance_req.md
 * @stateFlow 标准登记 -> 按标准/类别查询要求清单
 * @rules 未知标准返回InvalidStandardError；custom标准支持显式清单或yaegi脚本
 * @dependencies github.com/traefik/yaegi, esghub-service/service/models
 * @refs evaluator.go, service/database/migrate.go
 */

package compliance

import (
	"fmt"
	"strings"

	"esghub-service/service/models"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// StandardDefinition 单个合规标准的定义
type StandardDefinition struct {
	Code         string               `json:"code"`
	DisplayName  string               `json:"display_name"`
	RequiredKPIs []models.RequiredKPI `json:"required_kpis"`
}

// 内置标准规则表。要求KPI的ID对应kpi_definitions表的种子数据
var builtinStandards = map[string]*StandardDefinition{
	models.StandardISSB: {
		Code:        models.StandardISSB,
		DisplayName: "ISSB (IFRS S2)",
		RequiredKPIs: []models.RequiredKPI{
			{KPIID: "CO2_SCOPE1", Category: models.CategoryEnvironment, Severity: models.SeverityCritical},
			{KPIID: "CO2_SCOPE2", Category: models.CategoryEnvironment, Severity: models.SeverityCritical},
			{KPIID: "CO2_SCOPE3", Category: models.CategoryEnvironment, Severity: models.SeverityWarning},
			{KPIID: "ENERGY_CONSUMPTION", Category: models.CategoryEnvironment, Severity: models.SeverityWarning},
			{KPIID: "RENEWABLE_ENERGY_RATIO", Category: models.CategoryEnvironment, Severity: models.SeverityWarning},
		},
	},
	models.StandardCSRD: {
		Code:        models.StandardCSRD,
		DisplayName: "CSRD (ESRS)",
		RequiredKPIs: []models.RequiredKPI{
			{KPIID: "CO2_SCOPE1", Category: models.CategoryEnvironment, Severity: models.SeverityCritical},
			{KPIID: "CO2_SCOPE2", Category: models.CategoryEnvironment, Severity: models.SeverityCritical},
			{KPIID: "CO2_SCOPE3", Category: models.CategoryEnvironment, Severity: models.SeverityCritical},
			{KPIID: "ENERGY_CONSUMPTION", Category: models.CategoryEnvironment, Severity: models.SeverityWarning},
			{KPIID: "WATER_USAGE", Category: models.CategoryEnvironment, Severity: models.SeverityWarning},
			{KPIID: "WASTE_TOTAL", Category: models.CategoryEnvironment, Severity: models.SeverityWarning},
			{KPIID: "EMPLOYEE_COUNT", Category: models.CategorySocial, Severity: models.SeverityWarning},
			{KPIID: "FEMALE_MANAGER_RATIO", Category: models.CategorySocial, Severity: models.SeverityCritical},
			{KPIID: "TURNOVER_RATE", Category: models.CategorySocial, Severity: models.SeverityWarning},
			{KPIID: "ACCIDENT_RATE", Category: models.CategorySocial, Severity: models.SeverityCritical},
			{KPIID: "BOARD_INDEPENDENCE_RATIO", Category: models.CategoryGovernance, Severity: models.SeverityWarning},
			{KPIID: "COMPLIANCE_VIOLATIONS", Category: models.CategoryGovernance, Severity: models.SeverityCritical},
		},
	},
}

// StandardRegistry 标准注册表
type StandardRegistry struct {
	standards map[string]*StandardDefinition
}

// NewStandardRegistry 创建内置标准注册表
func NewStandardRegistry() *StandardRegistry {
	registry := &StandardRegistry{standards: make(map[string]*StandardDefinition)}
	for code, def := range builtinStandards {
		registry.standards[code] = def
	}
	return registry
}

// Register 登记新标准
func (r *StandardRegistry) Register(def *StandardDefinition) {
	r.standards[def.Code] = def
}

// RequiredKPIs 解析规则集得到要求KPI清单
// custom标准优先使用显式清单，其次执行规则脚本；其余标准查内置表
func (r *StandardRegistry) RequiredKPIs(ruleSet *models.ComplianceRuleSet) ([]models.RequiredKPI, error) {
	if ruleSet.Standard == models.StandardCustom {
		if len(ruleSet.CustomRequiredKPIs) > 0 {
			return ruleSet.CustomRequiredKPIs, nil
		}
		if ruleSet.CustomScript != "" {
			return evalCustomScript(ruleSet.CustomScript)
		}
		return nil, models.NewValidationError("custom_required_kpis", "custom标准需要显式清单或规则脚本")
	}

	def, ok := r.standards[ruleSet.Standard]
	if !ok {
		return nil, &models.InvalidStandardError{Standard: ruleSet.Standard}
	}
	return def.RequiredKPIs, nil
}

// DisplayName 标准展示名，未登记的返回原始代码
func (r *StandardRegistry) DisplayName(standard string) string {
	if def, ok := r.standards[standard]; ok {
		return def.DisplayName
	}
	return standard
}

// evalCustomScript 执行custom标准的规则脚本
// 脚本需定义 RequiredKPIs() []string，每项格式 "KPI_ID|Category|severity"
func evalCustomScript(script string) ([]models.RequiredKPI, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("规则脚本解释器初始化失败: %w", err)
	}

	if _, err := i.Eval(script); err != nil {
		return nil, models.NewValidationError("custom_script", fmt.Sprintf("规则脚本解析失败: %v", err))
	}

	value, err := i.Eval("RequiredKPIs()")
	if err != nil {
		return nil, models.NewValidationError("custom_script", fmt.Sprintf("规则脚本执行失败: %v", err))
	}

	entries, ok := value.Interface().([]string)
	if !ok {
		return nil, models.NewValidationError("custom_script", "RequiredKPIs()必须返回[]string")
	}

	required := make([]models.RequiredKPI, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, "|")
		if len(parts) != 3 {
			return nil, models.NewValidationError("custom_script",
				fmt.Sprintf("脚本条目格式错误: %q, 期望 KPI_ID|Category|severity", entry))
		}
		required = append(required, models.RequiredKPI{
			KPIID:    strings.TrimSpace(parts[0]),
			Category: strings.TrimSpace(parts[1]),
			Severity: strings.TrimSpace(parts[2]),
		})
	}
	return required, nil
}
