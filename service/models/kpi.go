/*
 * @module service/models/kpi
 * @description KPI映射核心数据模型，包含原始记录、KPI分组、标准KPI定义和映射结果
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 原始记录 -> 分组聚合 -> 语义匹配 -> 映射结果持久化
 * @rules 映射置信度必须在[0,1]区间内，KPI分组至少包含一条记录
 * @dependencies gorm.io/gorm, github.com/lib/pq
 * @refs service/kpi_mapping, service/compliance
 */

package models

import (
	"time"

	"github.com/lib/pq"
)

// KPI类别常量
const (
	CategoryEnvironment = "Environment"
	CategorySocial      = "Social"
	CategoryGovernance  = "Governance"
	CategoryFinancial   = "Financial"
)

// RawRow 上游解析器产出的按列名取值的原始行
type RawRow map[string]interface{}

// ColumnConfig 列角色配置，指定原始表格中各语义列的列名
type ColumnConfig struct {
	KPIColumn    string `json:"kpi_column"`
	ValueColumn  string `json:"value_column"`
	UnitColumn   string `json:"unit_column"`
	PeriodColumn string `json:"period_column,omitempty"`
}

// RawRecord 解析后的单条KPI原始记录
type RawRecord struct {
	KPIIdentifierRaw string  `json:"kpi_identifier_raw"`
	Value            float64 `json:"value"`
	Unit             string  `json:"unit"`
	Period           string  `json:"period,omitempty"`
	RowRef           int     `json:"row_ref"`
}

// KPIGroup 按标识符归并后的KPI分组，批次内临时对象
type KPIGroup struct {
	KPIIdentifier   string      `json:"kpi_identifier"`
	Records         []RawRecord `json:"records"`
	AggregatedValue float64     `json:"aggregated_value"`
	CommonUnit      string      `json:"common_unit"`
	RecordCount     int         `json:"record_count"`
	ValueRange      [2]float64  `json:"value_range"`
	QualityScore    float64     `json:"quality_score"`
	SampleValues    []string    `json:"sample_values,omitempty"`
}

// GroupingResult 分组分析结果
type GroupingResult struct {
	Groups         []*KPIGroup `json:"groups"`
	TotalRows      int         `json:"total_rows"`
	ValidRows      int         `json:"valid_rows"`
	RejectedRows   int         `json:"rejected_rows"`
	UniqueKPICount int         `json:"unique_kpi_count"`
	Empty          bool        `json:"empty"`
}

// CanonicalKPIDefinition 标准KPI字典定义
type CanonicalKPIDefinition struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name          string          `json:"name" gorm:"type:varchar(255);not null"`
	Category      string          `json:"category" gorm:"type:varchar(32);not null;index"`
	PreferredUnit string          `json:"preferred_unit" gorm:"type:varchar(64)"`
	Aliases       pq.StringArray  `json:"aliases" gorm:"type:text[]"`
	Description   string          `json:"description" gorm:"type:text"`
	IsActive      bool            `json:"is_active" gorm:"default:true;index"`
	Embedding     JSONBFloatArray `json:"-" gorm:"type:jsonb"`
	EmbeddedAt    *time.Time      `json:"embedded_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName 指定表名
func (CanonicalKPIDefinition) TableName() string {
	return "kpi_definitions"
}

// HasEmbedding 判断定义是否已生成嵌入向量
func (d *CanonicalKPIDefinition) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// SimilarityCandidate 相似度候选项
type SimilarityCandidate struct {
	KPIDefinition *CanonicalKPIDefinition `json:"kpi_definition"`
	RawSimilarity float64                 `json:"raw_similarity"`
}

// ConfidenceBoosts 置信度加成明细，四项独立上报
type ConfidenceBoosts struct {
	UnitMatch   float64 `json:"unit_match"`
	DataQuality float64 `json:"data_quality"`
	SampleSize  float64 `json:"sample_size"`
	ValueRange  float64 `json:"value_range"`
}

// Total 加成合计
func (b ConfidenceBoosts) Total() float64 {
	return b.UnitMatch + b.DataQuality + b.SampleSize + b.ValueRange
}

// KPIMapping 单个KPI分组的映射结果
type KPIMapping struct {
	Group              *KPIGroup               `json:"group"`
	BestMatch          *CanonicalKPIDefinition `json:"best_match,omitempty"`
	OriginalConfidence float64                 `json:"original_confidence"`
	AdjustedConfidence float64                 `json:"adjusted_confidence"`
	Boosts             ConfidenceBoosts        `json:"confidence_boosts"`
	Alternatives       []SimilarityCandidate   `json:"alternatives,omitempty"`
	Error              string                  `json:"error,omitempty"`
}

// KPIMappingRecord 映射结果的持久化记录，作为流水线的持久产物
type KPIMappingRecord struct {
	ID                 string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BatchID            string     `json:"batch_id" gorm:"type:varchar(36);index"`
	Period             string     `json:"period" gorm:"type:varchar(32);index"`
	KPIIdentifier      string     `json:"kpi_identifier" gorm:"column:kpi_identifier;type:varchar(255);not null"`
	MatchedKPIID       string     `json:"matched_kpi_id" gorm:"column:matched_kpi_id;type:varchar(64);index"`
	AggregatedValue    float64    `json:"aggregated_value"`
	CommonUnit         string     `json:"common_unit" gorm:"type:varchar(64)"`
	RecordCount        int        `json:"record_count"`
	QualityScore       float64    `json:"quality_score"`
	OriginalConfidence float64    `json:"original_confidence"`
	AdjustedConfidence float64    `json:"adjusted_confidence"`
	Boosts             JSONB      `json:"boosts" gorm:"type:jsonb"`
	Alternatives       JSONBArray `json:"alternatives" gorm:"type:jsonb"`
	ErrorMessage       string     `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt          time.Time  `json:"created_at"`
}

// TableName 指定表名
func (KPIMappingRecord) TableName() string {
	return "kpi_mappings"
}
