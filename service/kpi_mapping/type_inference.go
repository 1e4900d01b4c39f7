/*
 * @module service/kpi_mapping/type_inference
 * @description 样本值类型推断器，按固定优先级（布尔→日期→数值→文本）对列样本做语义类型分类
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 样本收集 -> 优先级分类 -> 统计汇总 -> 描述文本构造
 * @rules 布尔/日期模式更具体，必须先于宽松的数值解析判定；纯数字串不判定为日期
 * @dependencies regexp, strconv, esghub-service/service/models
 * @refs grouping.go, matcher.go
 */

package kpi_mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 数据类型常量
const (
	DataTypeBoolean    = "boolean"
	DataTypeDate       = "date"
	DataTypeNumber     = "number"
	DataTypePercentage = "percentage"
	DataTypeCurrency   = "currency"
	DataTypeText       = "text"
)

// 分类判定阈值
const (
	booleanThreshold = 0.8
	dateThreshold    = 0.7
	numericThreshold = 0.7
	textConfidence   = 0.6

	maxSampleCount = 10
)

// 布尔值固定词表
var booleanTokens = map[string]bool{
	"true": true, "false": true,
	"yes": true, "no": true,
	"1": true, "0": true,
	"はい": true, "いいえ": true,
	"on": true, "off": true,
}

var (
	isoDatePattern      = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	slashDatePattern    = regexp.MustCompile(`^\d{1,4}/\d{1,2}/\d{1,4}$`)
	japaneseDatePattern = regexp.MustCompile(`^\d{4}年\d{1,2}月(\d{1,2}日)?$`)
	pureDigitPattern    = regexp.MustCompile(`^\d+$`)

	currencySymbols = []string{"¥", "$", "€", "£", "円", "￥"}
)

// TypeStatistics 样本统计信息
type TypeStatistics struct {
	Count        int     `json:"count"`
	NumericCount int     `json:"numeric_count"`
	UniqueValues int     `json:"unique_values"`
	AvgLength    float64 `json:"avg_length"`
}

// TypeInferenceResult 类型推断结果
type TypeInferenceResult struct {
	DataType   string         `json:"data_type"`
	Unit       string         `json:"unit,omitempty"`
	Pattern    string         `json:"pattern,omitempty"`
	Confidence float64        `json:"confidence"`
	Summary    string         `json:"summary"`
	Statistics TypeStatistics `json:"statistics"`
	Examples   []string       `json:"examples"`
}

// TypeInferencer 样本值类型推断器
type TypeInferencer struct{}

// NewTypeInferencer 创建类型推断器实例
func NewTypeInferencer() *TypeInferencer {
	return &TypeInferencer{}
}

// InferColumnType 推断列样本的语义类型，最多取前10个非空样本
func (t *TypeInferencer) InferColumnType(rawSamples []string) *TypeInferenceResult {
	samples := make([]string, 0, maxSampleCount)
	for _, s := range rawSamples {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			continue
		}
		samples = append(samples, trimmed)
		if len(samples) >= maxSampleCount {
			break
		}
	}

	stats := t.computeStatistics(samples)

	if len(samples) == 0 {
		return &TypeInferenceResult{
			DataType:   DataTypeText,
			Confidence: textConfidence,
			Summary:    "无有效样本",
			Statistics: stats,
		}
	}

	// 分类按固定优先级执行：布尔 -> 日期 -> 数值 -> 文本
	if result := t.tryBoolean(samples, stats); result != nil {
		return result
	}
	if result := t.tryDate(samples, stats); result != nil {
		return result
	}
	if result := t.tryNumeric(samples, stats); result != nil {
		return result
	}

	return &TypeInferenceResult{
		DataType:   DataTypeText,
		Confidence: textConfidence,
		Summary:    fmt.Sprintf("文本列, %d 个样本", len(samples)),
		Statistics: stats,
		Examples:   firstN(samples, 3),
	}
}

// tryBoolean 布尔判定，命中率需达到阈值
func (t *TypeInferencer) tryBoolean(samples []string, stats TypeStatistics) *TypeInferenceResult {
	matched := 0
	for _, s := range samples {
		if booleanTokens[strings.ToLower(s)] {
			matched++
		}
	}
	ratio := float64(matched) / float64(len(samples))
	if ratio < booleanThreshold {
		return nil
	}
	return &TypeInferenceResult{
		DataType:   DataTypeBoolean,
		Confidence: ratio,
		Summary:    fmt.Sprintf("布尔列, %d/%d 样本命中布尔词表", matched, len(samples)),
		Statistics: stats,
		Examples:   firstN(samples, 3),
	}
}

// tryDate 日期判定，纯数字串排除以避免计数列被误判
func (t *TypeInferencer) tryDate(samples []string, stats TypeStatistics) *TypeInferenceResult {
	matched := 0
	pattern := ""
	for _, s := range samples {
		folded := CleanNumericString(s)
		if pureDigitPattern.MatchString(folded) {
			continue
		}
		switch {
		case isoDatePattern.MatchString(folded):
			matched++
			if pattern == "" {
				pattern = "YYYY-MM-DD"
			}
		case slashDatePattern.MatchString(folded):
			matched++
			if pattern == "" {
				pattern = "YYYY/MM/DD"
			}
		case japaneseDatePattern.MatchString(s):
			matched++
			if pattern == "" {
				pattern = "YYYY年MM月DD日"
			}
		}
	}
	ratio := float64(matched) / float64(len(samples))
	if ratio < dateThreshold {
		return nil
	}
	return &TypeInferenceResult{
		DataType:   DataTypeDate,
		Pattern:    pattern,
		Confidence: ratio,
		Summary:    fmt.Sprintf("日期列, %d/%d 样本命中日期格式", matched, len(samples)),
		Statistics: stats,
		Examples:   firstN(samples, 3),
	}
}

// tryNumeric 数值判定，细分为百分比/货币/普通数值
func (t *TypeInferencer) tryNumeric(samples []string, stats TypeStatistics) *TypeInferenceResult {
	matched := 0
	percentCount := 0
	currencyCount := 0
	firstSymbol := ""

	for _, s := range samples {
		cleaned := CleanNumericString(s)
		hasPercent := strings.Contains(cleaned, "%")
		symbol := findCurrencySymbol(s)

		stripped := strings.TrimSuffix(cleaned, "%")
		if symbol != "" {
			stripped = strings.ReplaceAll(stripped, foldedSymbol(symbol), "")
			stripped = strings.TrimSpace(stripped)
		}
		if _, err := strconv.ParseFloat(stripped, 64); err != nil {
			continue
		}

		matched++
		if hasPercent {
			percentCount++
		}
		if symbol != "" {
			currencyCount++
			if firstSymbol == "" {
				firstSymbol = symbol
			}
		}
	}

	ratio := float64(matched) / float64(len(samples))
	if ratio < numericThreshold {
		return nil
	}

	result := &TypeInferenceResult{
		DataType:   DataTypeNumber,
		Confidence: ratio,
		Statistics: stats,
		Examples:   firstN(samples, 3),
	}

	switch {
	case float64(percentCount)/float64(len(samples)) > 0.5:
		result.DataType = DataTypePercentage
		result.Unit = "%"
		result.Summary = fmt.Sprintf("百分比列, %d/%d 样本含%%", percentCount, len(samples))
	case float64(currencyCount)/float64(len(samples)) > 0.3:
		result.DataType = DataTypeCurrency
		result.Unit = firstSymbol
		result.Summary = fmt.Sprintf("货币列, 符号 %s", firstSymbol)
	default:
		result.Summary = fmt.Sprintf("数值列, %d/%d 样本可解析为数值", matched, len(samples))
	}
	return result
}

// computeStatistics 计算样本统计信息
func (t *TypeInferencer) computeStatistics(samples []string) TypeStatistics {
	stats := TypeStatistics{Count: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	unique := make(map[string]bool, len(samples))
	totalLength := 0
	for _, s := range samples {
		unique[s] = true
		totalLength += len([]rune(s))
		if _, err := strconv.ParseFloat(CleanNumericString(strings.TrimSuffix(s, "%")), 64); err == nil {
			stats.NumericCount++
		}
	}
	stats.UniqueValues = len(unique)
	stats.AvgLength = float64(totalLength) / float64(len(samples))
	return stats
}

// BuildDescriptiveText 构造送入嵌入服务的确定性描述文本
func BuildDescriptiveText(identifier string, inference *TypeInferenceResult) string {
	var sb strings.Builder
	sb.WriteString("KPI: ")
	sb.WriteString(identifier)
	sb.WriteString("; type: ")
	sb.WriteString(inference.DataType)
	if inference.Unit != "" {
		sb.WriteString("; unit: ")
		sb.WriteString(inference.Unit)
	}
	if inference.Pattern != "" {
		sb.WriteString("; pattern: ")
		sb.WriteString(inference.Pattern)
	}
	sb.WriteString("; ")
	sb.WriteString(inference.Summary)
	sb.WriteString(fmt.Sprintf("; samples=%d numeric=%d unique=%d avg_len=%.1f",
		inference.Statistics.Count,
		inference.Statistics.NumericCount,
		inference.Statistics.UniqueValues,
		inference.Statistics.AvgLength))
	if len(inference.Examples) > 0 {
		sb.WriteString("; examples: ")
		sb.WriteString(strings.Join(firstN(inference.Examples, 3), ", "))
	}
	return sb.String()
}

// findCurrencySymbol 返回样本中第一个出现的货币符号
func findCurrencySymbol(s string) string {
	for _, symbol := range currencySymbols {
		if strings.Contains(s, symbol) {
			return symbol
		}
	}
	return ""
}

// foldedSymbol 货币符号的宽度折叠形式，与CleanNumericString的输出对齐
func foldedSymbol(symbol string) string {
	return CleanNumericString(symbol)
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
