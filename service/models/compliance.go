/*
 * @module service/models/compliance
 * @description 合规评估数据模型，包含合规规则集、合规结果、缺失KPI和详细报告
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/compliance_req.md
 * @stateFlow 映射结果 -> 规则评估 -> 合规结果 -> 报告生成
 * @rules totalRequired为0时complianceRate恒为100（空真），status判定critical优先于warning
 * @dependencies gorm.io/gorm, github.com/lib/pq
 * @refs service/compliance
 */

package models

import (
	"time"

	"github.com/lib/pq"
)

// 合规标准常量
const (
	StandardISSB   = "issb"
	StandardCSRD   = "csrd"
	StandardCustom = "custom"
)

// 缺失严重度常量
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// 合规状态常量
const (
	StatusCompliant = "compliant"
	StatusWarning   = "warning"
	StatusCritical  = "critical"
)

// RequiredKPI 标准要求的KPI条目
type RequiredKPI struct {
	KPIID    string `json:"kpi_id"`
	Category string `json:"category"`
	Severity string `json:"severity"`
}

// ComplianceRuleSet 合规规则集
type ComplianceRuleSet struct {
	Standard               string            `json:"standard"`
	RequiredCategories     []string          `json:"required_categories"`
	MinConfidenceThreshold float64           `json:"min_confidence_threshold"`
	SeverityOverrides      map[string]string `json:"severity_overrides,omitempty"`
	// CustomRequiredKPIs 仅在standard为custom时使用
	CustomRequiredKPIs []RequiredKPI `json:"custom_required_kpis,omitempty"`
	// CustomScript 自定义标准的规则脚本（Go片段），返回要求KPI列表
	CustomScript string `json:"custom_script,omitempty"`
}

// MissingKPI 缺失KPI条目
type MissingKPI struct {
	KPIID        string `json:"kpi_id"`
	KPIName      string `json:"kpi_name"`
	Category     string `json:"category"`
	Severity     string `json:"severity"`
	ExpectedUnit string `json:"expected_unit"`
}

// ComplianceResult 合规评估结果
type ComplianceResult struct {
	Period               string       `json:"period"`
	Standard             string       `json:"standard"`
	TotalKPIs            int          `json:"total_kpis"`
	MissingKPIs          []MissingKPI `json:"missing_kpis"`
	CriticalMissingCount int          `json:"critical_missing_count"`
	WarningMissingCount  int          `json:"warning_missing_count"`
	ComplianceRate       float64      `json:"compliance_rate"`
	Status               string       `json:"status"`
	CheckedAt            time.Time    `json:"checked_at"`
}

// DetailedReport 合规详细报告，ComplianceResult的纯派生物
type DetailedReport struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	NextSteps       []string `json:"next_steps"`
}

// ComplianceResultRecord 合规结果的持久化记录，按(period, standard)幂等取用
type ComplianceResultRecord struct {
	ID                   string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Period               string     `json:"period" gorm:"type:varchar(32);uniqueIndex:idx_period_standard"`
	Standard             string     `json:"standard" gorm:"type:varchar(32);uniqueIndex:idx_period_standard"`
	TotalKPIs            int        `json:"total_kpis" gorm:"column:total_kpis"`
	MissingKPIs          JSONBArray `json:"missing_kpis" gorm:"column:missing_kpis;type:jsonb"`
	CriticalMissingCount int        `json:"critical_missing_count"`
	WarningMissingCount  int        `json:"warning_missing_count"`
	ComplianceRate       float64    `json:"compliance_rate"`
	Status               string     `json:"status" gorm:"type:varchar(16);index"`
	CheckedAt            time.Time  `json:"checked_at"`
	CreatedAt            time.Time  `json:"created_at"`
}

// TableName 指定表名
func (ComplianceResultRecord) TableName() string {
	return "compliance_results"
}

// ComplianceCheckRegistration 定时合规监控登记
type ComplianceCheckRegistration struct {
	ID                     string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Period                 string         `json:"period" gorm:"type:varchar(32);index"`
	Standard               string         `json:"standard" gorm:"type:varchar(32)"`
	Categories             pq.StringArray `json:"categories" gorm:"type:text[]"`
	MinConfidenceThreshold float64        `json:"min_confidence_threshold"`
	Deadline               *time.Time     `json:"deadline,omitempty"`
	IsEnabled              bool           `json:"is_enabled" gorm:"default:true"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (ComplianceCheckRegistration) TableName() string {
	return "compliance_check_registrations"
}
