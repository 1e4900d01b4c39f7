/*
 * @module service/kpi_mapping/grouping
 * @description 行分组与数据质量分析器，按KPI标识符归并原始行、聚合数值并计算质量评分
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 行提取 -> 标识符归一分组 -> 数值聚合 -> 质量评分
 * @rules 标识符为空或数值不可解析的行计入rejected但不入组；聚合策略为求和（ESG容量型KPI跨行累加）
 * @dependencies github.com/spf13/cast, esghub-service/service/models
 * @refs type_inference.go, matcher.go, service/pipeline
 */

package kpi_mapping

import (
	"strconv"

	"esghub-service/service/models"

	"github.com/spf13/cast"
)

// 质量评分权重：单位一致性、非空比例、数值解析成功率
const (
	unitConsistencyWeight = 0.4
	nonNullWeight         = 0.3
	parseSuccessWeight    = 0.3
)

// GroupAnalyzer 行分组与数据质量分析器
type GroupAnalyzer struct {
	inferencer *TypeInferencer
}

// NewGroupAnalyzer 创建分组分析器实例
func NewGroupAnalyzer() *GroupAnalyzer {
	return &GroupAnalyzer{inferencer: NewTypeInferencer()}
}

// identifierStats 以归一化标识符为键的行级统计，用于质量评分
type identifierStats struct {
	totalRows    int
	nonNullRows  int
	parsedRows   int
	displayName  string
	sampleValues []string
}

// Analyze 对原始行序列执行分组与质量分析
func (a *GroupAnalyzer) Analyze(rows []models.RawRow, config models.ColumnConfig) (*models.GroupingResult, error) {
	if config.KPIColumn == "" {
		return nil, models.NewValidationError("kpi_column", "KPI列名不能为空")
	}
	if config.ValueColumn == "" {
		return nil, models.NewValidationError("value_column", "数值列名不能为空")
	}

	result := &models.GroupingResult{TotalRows: len(rows)}

	groups := make(map[string]*models.KPIGroup)
	stats := make(map[string]*identifierStats)
	order := make([]string, 0)

	for rowIndex, row := range rows {
		rawIdentifier := cast.ToString(row[config.KPIColumn])
		key := NormalizeIdentifier(rawIdentifier)
		if key == "" {
			result.RejectedRows++
			continue
		}

		st, exists := stats[key]
		if !exists {
			st = &identifierStats{displayName: key}
			stats[key] = st
		}
		st.totalRows++

		valueCell := row[config.ValueColumn]
		valueText := cast.ToString(valueCell)
		if valueCell != nil && valueText != "" {
			st.nonNullRows++
			if len(st.sampleValues) < maxSampleCount {
				st.sampleValues = append(st.sampleValues, valueText)
			}
		}

		value, parseErr := parseCellValue(valueCell)
		if parseErr != nil {
			result.RejectedRows++
			continue
		}
		st.parsedRows++

		unit := NormalizeUnit(cast.ToString(row[config.UnitColumn]))
		period := ""
		if config.PeriodColumn != "" {
			period = cast.ToString(row[config.PeriodColumn])
		}

		record := models.RawRecord{
			KPIIdentifierRaw: rawIdentifier,
			Value:            value,
			Unit:             unit,
			Period:           period,
			RowRef:           rowIndex,
		}

		group, exists := groups[key]
		if !exists {
			group = &models.KPIGroup{
				KPIIdentifier: key,
				ValueRange:    [2]float64{value, value},
			}
			groups[key] = group
			order = append(order, key)
		}
		group.Records = append(group.Records, record)
		result.ValidRows++
	}

	if len(order) == 0 {
		result.Empty = true
		return result, nil
	}

	for _, key := range order {
		group := groups[key]
		a.finalizeGroup(group, stats[key])
		result.Groups = append(result.Groups, group)
	}
	result.UniqueKPICount = len(result.Groups)
	return result, nil
}

// finalizeGroup 聚合分组数值并计算质量评分
func (a *GroupAnalyzer) finalizeGroup(group *models.KPIGroup, st *identifierStats) {
	group.RecordCount = len(group.Records)
	group.SampleValues = st.sampleValues

	sum := 0.0
	min := group.Records[0].Value
	max := group.Records[0].Value
	unitCounts := make(map[string]int)
	unitOrder := make([]string, 0)

	for _, record := range group.Records {
		sum += record.Value
		if record.Value < min {
			min = record.Value
		}
		if record.Value > max {
			max = record.Value
		}
		if _, seen := unitCounts[record.Unit]; !seen {
			unitOrder = append(unitOrder, record.Unit)
		}
		unitCounts[record.Unit]++
	}

	// 聚合策略：求和。容量型ESG指标（排放量/用电量等）跨行跨期累加
	group.AggregatedValue = sum
	group.ValueRange = [2]float64{min, max}

	// 众数单位，计数相同时取先出现者
	modalUnit := ""
	modalCount := 0
	for _, unit := range unitOrder {
		if unitCounts[unit] > modalCount {
			modalUnit = unit
			modalCount = unitCounts[unit]
		}
	}
	group.CommonUnit = modalUnit

	unitConsistency := float64(modalCount) / float64(group.RecordCount)
	nonNullRatio := 0.0
	parseRatio := 0.0
	if st.totalRows > 0 {
		nonNullRatio = float64(st.nonNullRows) / float64(st.totalRows)
		parseRatio = float64(st.parsedRows) / float64(st.totalRows)
	}

	group.QualityScore = unitConsistencyWeight*unitConsistency +
		nonNullWeight*nonNullRatio +
		parseSuccessWeight*parseRatio
}

// SampleValues 返回指定分组的原始样本值，供类型推断使用
// 优先使用分组时采集的单元格原文，保留千分位、全角数字等原始格式
func (a *GroupAnalyzer) SampleValues(group *models.KPIGroup) []string {
	if len(group.SampleValues) > 0 {
		return group.SampleValues
	}

	samples := make([]string, 0, maxSampleCount)
	for _, record := range group.Records {
		samples = append(samples, strconv.FormatFloat(record.Value, 'f', -1, 64))
		if len(samples) >= maxSampleCount {
			break
		}
	}
	return samples
}

// parseCellValue 解析单元格数值，兼容字符串形式的千分位和全角数字
// 空单元格视为不可解析而不是0
func parseCellValue(cell interface{}) (float64, error) {
	if cell == nil {
		return 0, models.NewValidationError("value", "单元格为空")
	}
	if text, ok := cell.(string); ok {
		cleaned := CleanNumericString(text)
		if cleaned == "" {
			return 0, models.NewValidationError("value", "单元格为空")
		}
		return cast.ToFloat64E(cleaned)
	}
	return cast.ToFloat64E(cell)
}
