/*
 * @module service/kpi_mapping/grouping_test
 * @description 行分组与数据质量分析器单元测试
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试准备 -> 行构造 -> 分组分析 -> 结果验证
 * @rules 覆盖标识符归一、聚合求和、众数单位、质量评分与拒绝行统计
 * @dependencies testing, stretchr/testify
 */

package kpi_mapping

import (
	"testing"

	"esghub-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() models.ColumnConfig {
	return models.ColumnConfig{
		KPIColumn:   "kpi",
		ValueColumn: "value",
		UnitColumn:  "unit",
	}
}

func makeRow(kpi, value, unit interface{}) models.RawRow {
	return models.RawRow{"kpi": kpi, "value": value, "unit": unit}
}

// TestAnalyzeSumsSameIdentifier 同一标识符的多行聚合为求和
func TestAnalyzeSumsSameIdentifier(t *testing.T) {
	analyzer := NewGroupAnalyzer()

	rows := []models.RawRow{
		makeRow("CO2_SCOPE1", "100", "t-CO2"),
		makeRow("CO2_SCOPE1", "200", "t-CO2"),
		makeRow("CO2_SCOPE1", "300", "t-CO2"),
	}

	result, err := analyzer.Analyze(rows, defaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)

	group := result.Groups[0]
	assert.Equal(t, "CO2_SCOPE1", group.KPIIdentifier)
	assert.Equal(t, 600.0, group.AggregatedValue)
	assert.Equal(t, 3, group.RecordCount)
	assert.Equal(t, "t-co2", group.CommonUnit)
	assert.Equal(t, [2]float64{100, 300}, group.ValueRange)
	// 单位一致、全部非空、全部可解析
	assert.InDelta(t, 1.0, group.QualityScore, 1e-9)
	assert.Equal(t, 3, result.ValidRows)
	assert.Equal(t, 0, result.RejectedRows)
}

// TestAnalyzeNormalizesIdentifier 全角/大小写/空白差异归并到同一分组
func TestAnalyzeNormalizesIdentifier(t *testing.T) {
	analyzer := NewGroupAnalyzer()

	rows := []models.RawRow{
		makeRow("co2_scope1", "1", "t"),
		makeRow("  CO2_SCOPE1 ", "2", "t"),
		makeRow("ＣＯ２_ＳＣＯＰＥ１", "3", "t"),
	}

	result, err := analyzer.Analyze(rows, defaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, "CO2_SCOPE1", result.Groups[0].KPIIdentifier)
	assert.Equal(t, 6.0, result.Groups[0].AggregatedValue)
}

// TestAnalyzeRejectsUnparsableRows 空标识符和不可解析数值计入rejected
func TestAnalyzeRejectsUnparsableRows(t *testing.T) {
	analyzer := NewGroupAnalyzer()

	rows := []models.RawRow{
		makeRow("ENERGY", "1,200.5", "kWh"), // 千分位可解析
		makeRow("ENERGY", "abc", "kWh"),     // 不可解析
		makeRow("ENERGY", nil, "kWh"),       // 空单元格
		makeRow("", "100", "kWh"),           // 空标识符
	}

	result, err := analyzer.Analyze(rows, defaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)

	group := result.Groups[0]
	assert.Equal(t, 1200.5, group.AggregatedValue)
	assert.Equal(t, 1, group.RecordCount)
	assert.Equal(t, 1, result.ValidRows)
	assert.Equal(t, 3, result.RejectedRows)

	// 质量评分：单位一致1.0，非空2/3，解析成功1/3
	expected := 0.4*1.0 + 0.3*(2.0/3.0) + 0.3*(1.0/3.0)
	assert.InDelta(t, expected, group.QualityScore, 1e-9)
}

// TestAnalyzeModalUnitFirstSeenTiebreak 众数单位计数相同时取先出现者
func TestAnalyzeModalUnitFirstSeenTiebreak(t *testing.T) {
	analyzer := NewGroupAnalyzer()

	rows := []models.RawRow{
		makeRow("WATER", "10", "m3"),
		makeRow("WATER", "20", "kl"),
		makeRow("WATER", "30", "m3"),
		makeRow("WATER", "40", "kl"),
	}

	result, err := analyzer.Analyze(rows, defaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, "m3", result.Groups[0].CommonUnit)
	// 单位一致性2/4
	expected := 0.4*0.5 + 0.3*1.0 + 0.3*1.0
	assert.InDelta(t, expected, result.Groups[0].QualityScore, 1e-9)
}

// TestAnalyzePreservesFirstSeenOrder 分组按首次出现顺序输出
func TestAnalyzePreservesFirstSeenOrder(t *testing.T) {
	analyzer := NewGroupAnalyzer()

	rows := []models.RawRow{
		makeRow("B_KPI", "1", ""),
		makeRow("A_KPI", "2", ""),
		makeRow("B_KPI", "3", ""),
	}

	result, err := analyzer.Analyze(rows, defaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Groups, 2)
	assert.Equal(t, "B_KPI", result.Groups[0].KPIIdentifier)
	assert.Equal(t, "A_KPI", result.Groups[1].KPIIdentifier)
	assert.Equal(t, 2, result.UniqueKPICount)
}

// TestAnalyzeEmptyResult 全部行被拒绝时标记Empty而不报错
func TestAnalyzeEmptyResult(t *testing.T) {
	analyzer := NewGroupAnalyzer()

	rows := []models.RawRow{
		makeRow("", "1", ""),
		makeRow(nil, "2", ""),
	}

	result, err := analyzer.Analyze(rows, defaultConfig())
	require.NoError(t, err)
	assert.True(t, result.Empty)
	assert.Empty(t, result.Groups)
	assert.Equal(t, 2, result.RejectedRows)
}

// TestAnalyzeMissingColumnConfig 列配置缺失返回校验错误
func TestAnalyzeMissingColumnConfig(t *testing.T) {
	analyzer := NewGroupAnalyzer()

	_, err := analyzer.Analyze(nil, models.ColumnConfig{ValueColumn: "value"})
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))

	_, err = analyzer.Analyze(nil, models.ColumnConfig{KPIColumn: "kpi"})
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

// TestAnalyzeKeepsRawSampleValues 样本值保留单元格原文，嵌入描述文本可见原始格式
func TestAnalyzeKeepsRawSampleValues(t *testing.T) {
	analyzer := NewGroupAnalyzer()

	rows := []models.RawRow{
		makeRow("ENERGY_CONSUMPTION", "1,200", "kWh"),
		makeRow("ENERGY_CONSUMPTION", "１２３", "kWh"),
	}

	result, err := analyzer.Analyze(rows, defaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)

	group := result.Groups[0]
	samples := analyzer.SampleValues(group)
	assert.Equal(t, []string{"1,200", "１２３"}, samples)

	inference := NewTypeInferencer().InferColumnType(samples)
	text := BuildDescriptiveText(group.KPIIdentifier, inference)
	assert.Contains(t, text, "1,200")
	assert.Contains(t, text, "１２３")
}

// TestSampleValuesFallback 手工构造的分组无原文样本时回退为已解析数值
func TestSampleValuesFallback(t *testing.T) {
	analyzer := NewGroupAnalyzer()

	group := &models.KPIGroup{
		Records: []models.RawRecord{{Value: 100.5}, {Value: 200}},
	}
	assert.Equal(t, []string{"100.5", "200"}, analyzer.SampleValues(group))
}

// TestParseCellValue 单元格数值解析：千分位、全角数字、空值
func TestParseCellValue(t *testing.T) {
	value, err := parseCellValue("1,234.5")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, value)

	value, err = parseCellValue("１２３")
	require.NoError(t, err)
	assert.Equal(t, 123.0, value)

	value, err = parseCellValue(42)
	require.NoError(t, err)
	assert.Equal(t, 42.0, value)

	_, err = parseCellValue(nil)
	assert.Error(t, err)

	_, err = parseCellValue("")
	assert.Error(t, err)

	_, err = parseCellValue("N/A")
	assert.Error(t, err)
}
