/*
 * @module service/compliance/evaluator
 * @description 合规规则评估器，检查映射结果是否覆盖标准要求的KPI，产出可审计的合规结果
 * @architecture 分层架构 - 业务服务层，纯计算无副作用
 * @documentReference ai_docs/compliance_req.md
 * @stateFlow 要求清单解析 -> 类别过滤 -> 覆盖判定 -> 缺失汇总 -> 状态判定
 * @rules totalRequired为0时complianceRate=100；critical缺失优先判定critical状态；相同输入产出相同结果（时间戳除外）
 * @dependencies esghub-service/service/models
 * @refs rule_tables.go, report_generator.go, result_store.go
 */

package compliance

import (
	"time"

	"esghub-service/service/models"
)

// DictionaryProvider 字典定义只读访问接口
type DictionaryProvider interface {
	Definitions() []*models.CanonicalKPIDefinition
}

// Evaluator 合规规则评估器
type Evaluator struct {
	registry   *StandardRegistry
	dictionary DictionaryProvider
}

// NewEvaluator 创建评估器实例
func NewEvaluator(registry *StandardRegistry, dictionary DictionaryProvider) *Evaluator {
	return &Evaluator{registry: registry, dictionary: dictionary}
}

// Evaluate 评估映射集合对规则集的合规性
func (e *Evaluator) Evaluate(mappings []*models.KPIMapping, ruleSet *models.ComplianceRuleSet, period string) (*models.ComplianceResult, error) {
	if ruleSet == nil {
		return nil, models.NewValidationError("rule_set", "合规规则集不能为空")
	}

	required, err := e.registry.RequiredKPIs(ruleSet)
	if err != nil {
		return nil, err
	}

	// 类别过滤：requiredCategories为空视为全部类别
	categoryFilter := make(map[string]bool, len(ruleSet.RequiredCategories))
	for _, category := range ruleSet.RequiredCategories {
		categoryFilter[category] = true
	}
	filtered := make([]models.RequiredKPI, 0, len(required))
	for _, kpi := range required {
		if len(categoryFilter) == 0 || categoryFilter[kpi.Category] {
			filtered = append(filtered, kpi)
		}
	}

	// 达标映射集合：bestMatch存在且置信度达阈值
	mapped := make(map[string]bool, len(mappings))
	for _, mapping := range mappings {
		if mapping.BestMatch != nil && mapping.AdjustedConfidence >= ruleSet.MinConfidenceThreshold {
			mapped[mapping.BestMatch.ID] = true
		}
	}

	definitionIndex := e.buildDefinitionIndex()

	result := &models.ComplianceResult{
		Period:      period,
		Standard:    ruleSet.Standard,
		TotalKPIs:   len(filtered),
		MissingKPIs: make([]models.MissingKPI, 0),
		CheckedAt:   time.Now(),
	}

	for _, kpi := range filtered {
		if mapped[kpi.KPIID] {
			continue
		}

		severity := kpi.Severity
		if override, ok := ruleSet.SeverityOverrides[kpi.KPIID]; ok {
			severity = override
		}

		missing := models.MissingKPI{
			KPIID:    kpi.KPIID,
			KPIName:  kpi.KPIID,
			Category: kpi.Category,
			Severity: severity,
		}
		if def, ok := definitionIndex[kpi.KPIID]; ok {
			missing.KPIName = def.Name
			missing.ExpectedUnit = def.PreferredUnit
		}
		result.MissingKPIs = append(result.MissingKPIs, missing)

		if severity == models.SeverityCritical {
			result.CriticalMissingCount++
		} else {
			result.WarningMissingCount++
		}
	}

	// 空真：无要求KPI时合规率为100
	if result.TotalKPIs == 0 {
		result.ComplianceRate = 100
	} else {
		covered := result.TotalKPIs - len(result.MissingKPIs)
		result.ComplianceRate = float64(covered) / float64(result.TotalKPIs) * 100
	}

	result.Status = determineStatus(result)
	return result, nil
}

// determineStatus 状态判定：critical缺失 > warning缺失或未满100 > compliant
func determineStatus(result *models.ComplianceResult) string {
	if result.CriticalMissingCount > 0 {
		return models.StatusCritical
	}
	if result.WarningMissingCount > 0 || result.ComplianceRate < 100 {
		return models.StatusWarning
	}
	return models.StatusCompliant
}

// buildDefinitionIndex 以ID为键索引字典定义，用于补全缺失KPI的名称和单位
func (e *Evaluator) buildDefinitionIndex() map[string]*models.CanonicalKPIDefinition {
	index := make(map[string]*models.CanonicalKPIDefinition)
	if e.dictionary == nil {
		return index
	}
	for _, def := range e.dictionary.Definitions() {
		index[def.ID] = def
	}
	return index
}
