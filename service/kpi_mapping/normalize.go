/*
 * @module service/kpi_mapping/normalize
 * @description 文本规范化工具：全角/半角折叠、大小写归一、数值字符串清洗
 * @architecture 工具函数模式
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 无状态转换：输入 -> 规范化 -> 输出
 * @rules 分组键与单位比较前必须先做宽度折叠和大小写归一，日文报表混用全角字符
 * @dependencies golang.org/x/text/width, strings
 * @refs grouping.go, matcher.go
 */

package kpi_mapping

import (
	"strings"

	"golang.org/x/text/width"
)

// NormalizeIdentifier 规范化KPI标识符：宽度折叠、去空白、统一大写
func NormalizeIdentifier(raw string) string {
	folded := width.Fold.String(strings.TrimSpace(raw))
	return strings.ToUpper(folded)
}

// NormalizeUnit 规范化单位：宽度折叠、去空白、统一小写
func NormalizeUnit(raw string) string {
	folded := width.Fold.String(strings.TrimSpace(raw))
	return strings.ToLower(folded)
}

// CleanNumericString 清洗数值字符串：宽度折叠后去除千分位逗号和空白
func CleanNumericString(raw string) string {
	folded := width.Fold.String(strings.TrimSpace(raw))
	folded = strings.ReplaceAll(folded, ",", "")
	return strings.TrimSpace(folded)
}
