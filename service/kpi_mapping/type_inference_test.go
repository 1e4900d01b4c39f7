/*
 * @module service/kpi_mapping/type_inference_test
 * @description 样本值类型推断器单元测试
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 样本构造 -> 类型推断 -> 分类与置信度验证
 * @rules 覆盖固定优先级、阈值边界、纯数字串排除与描述文本构造
 * @dependencies testing, stretchr/testify
 */

package kpi_mapping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInferBoolean 布尔词表命中率达到阈值判定为布尔
func TestInferBoolean(t *testing.T) {
	inferencer := NewTypeInferencer()

	result := inferencer.InferColumnType([]string{"true", "false", "Yes", "no", "はい"})
	assert.Equal(t, DataTypeBoolean, result.DataType)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)

	// 命中率3/5未达0.8，降级为数值判定
	result = inferencer.InferColumnType([]string{"true", "false", "yes", "123", "456"})
	assert.NotEqual(t, DataTypeBoolean, result.DataType)
}

// TestInferBooleanPriorityOverNumeric "1"/"0"既在布尔词表又可解析为数值，布尔优先
func TestInferBooleanPriorityOverNumeric(t *testing.T) {
	inferencer := NewTypeInferencer()

	result := inferencer.InferColumnType([]string{"1", "0", "1", "0", "1"})
	assert.Equal(t, DataTypeBoolean, result.DataType)
}

// TestInferDate 三种日期格式均可判定
func TestInferDate(t *testing.T) {
	inferencer := NewTypeInferencer()

	result := inferencer.InferColumnType([]string{"2024-01-15", "2024-02-01", "2024-3-5"})
	assert.Equal(t, DataTypeDate, result.DataType)
	assert.Equal(t, "YYYY-MM-DD", result.Pattern)

	result = inferencer.InferColumnType([]string{"2024/01/15", "2024/2/1"})
	assert.Equal(t, DataTypeDate, result.DataType)
	assert.Equal(t, "YYYY/MM/DD", result.Pattern)

	result = inferencer.InferColumnType([]string{"2024年1月15日", "2024年2月", "2024年12月31日"})
	assert.Equal(t, DataTypeDate, result.DataType)
	assert.Equal(t, "YYYY年MM月DD日", result.Pattern)
}

// TestInferDateExcludesPureDigits 纯数字串不判定为日期，避免计数列误判
func TestInferDateExcludesPureDigits(t *testing.T) {
	inferencer := NewTypeInferencer()

	result := inferencer.InferColumnType([]string{"20240115", "20240201", "20240305"})
	assert.Equal(t, DataTypeNumber, result.DataType)
}

// TestInferPercentage 含%样本过半判定为百分比
func TestInferPercentage(t *testing.T) {
	inferencer := NewTypeInferencer()

	result := inferencer.InferColumnType([]string{"12.5%", "30%", "45.2%", "8%"})
	assert.Equal(t, DataTypePercentage, result.DataType)
	assert.Equal(t, "%", result.Unit)
}

// TestInferCurrency 货币符号超过30%判定为货币
func TestInferCurrency(t *testing.T) {
	inferencer := NewTypeInferencer()

	result := inferencer.InferColumnType([]string{"¥1,200", "¥500", "3000"})
	assert.Equal(t, DataTypeCurrency, result.DataType)
	assert.Equal(t, "¥", result.Unit)
}

// TestInferNumber 普通数值列，千分位与全角数字兼容
func TestInferNumber(t *testing.T) {
	inferencer := NewTypeInferencer()

	result := inferencer.InferColumnType([]string{"1,200.5", "300", "１２３"})
	assert.Equal(t, DataTypeNumber, result.DataType)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.Equal(t, 3, result.Statistics.NumericCount)
}

// TestInferTextFallback 均不命中时回落为文本，固定置信度
func TestInferTextFallback(t *testing.T) {
	inferencer := NewTypeInferencer()

	result := inferencer.InferColumnType([]string{"東京本社", "大阪支社", "名古屋支社"})
	assert.Equal(t, DataTypeText, result.DataType)
	assert.InDelta(t, textConfidence, result.Confidence, 1e-9)
	assert.Len(t, result.Examples, 3)
}

// TestInferEmptySamples 无有效样本时回落为文本
func TestInferEmptySamples(t *testing.T) {
	inferencer := NewTypeInferencer()

	result := inferencer.InferColumnType([]string{"", "  ", ""})
	assert.Equal(t, DataTypeText, result.DataType)
	assert.Equal(t, 0, result.Statistics.Count)
}

// TestInferSampleCap 样本数量上限为10
func TestInferSampleCap(t *testing.T) {
	inferencer := NewTypeInferencer()

	samples := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		samples = append(samples, "100")
	}
	result := inferencer.InferColumnType(samples)
	assert.Equal(t, maxSampleCount, result.Statistics.Count)
}

// TestBuildDescriptiveText 描述文本包含标识符、类型与统计信息且确定性
func TestBuildDescriptiveText(t *testing.T) {
	inferencer := NewTypeInferencer()
	inference := inferencer.InferColumnType([]string{"100", "200", "300"})

	text := BuildDescriptiveText("CO2_SCOPE1", inference)
	require.NotEmpty(t, text)
	assert.True(t, strings.HasPrefix(text, "KPI: CO2_SCOPE1"))
	assert.Contains(t, text, "type: number")
	assert.Contains(t, text, "samples=3")

	// 相同输入生成相同文本
	again := BuildDescriptiveText("CO2_SCOPE1", inferencer.InferColumnType([]string{"100", "200", "300"}))
	assert.Equal(t, text, again)
}
