/*
 * @module service/compliance/rule_tables_test
 * @description 合规标准规则表单元测试
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 规则集构造 -> 要求清单解析 -> 清单与错误验证
 * @rules 覆盖内置标准查表、custom显式清单、规则脚本执行与格式校验
 * @dependencies testing, stretchr/testify
 */

package compliance

import (
	"testing"

	"esghub-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRequiredKPIsBuiltinStandards 内置标准查表
func TestRequiredKPIsBuiltinStandards(t *testing.T) {
	registry := NewStandardRegistry()

	issb, err := registry.RequiredKPIs(&models.ComplianceRuleSet{Standard: models.StandardISSB})
	require.NoError(t, err)
	assert.Len(t, issb, 5)

	csrd, err := registry.RequiredKPIs(&models.ComplianceRuleSet{Standard: models.StandardCSRD})
	require.NoError(t, err)
	assert.Len(t, csrd, 12)
}

// TestRequiredKPIsUnknownStandard 未知标准返回InvalidStandardError
func TestRequiredKPIsUnknownStandard(t *testing.T) {
	registry := NewStandardRegistry()

	_, err := registry.RequiredKPIs(&models.ComplianceRuleSet{Standard: "gri"})
	require.Error(t, err)
	assert.True(t, models.IsInvalidStandardError(err))
}

// TestRequiredKPIsCustomExplicitList custom标准优先使用显式清单
func TestRequiredKPIsCustomExplicitList(t *testing.T) {
	registry := NewStandardRegistry()

	explicit := []models.RequiredKPI{
		{KPIID: "RND_EXPENSE", Category: models.CategoryFinancial, Severity: models.SeverityWarning},
	}
	required, err := registry.RequiredKPIs(&models.ComplianceRuleSet{
		Standard:           models.StandardCustom,
		CustomRequiredKPIs: explicit,
	})
	require.NoError(t, err)
	assert.Equal(t, explicit, required)
}

// TestRequiredKPIsCustomScript 规则脚本定义要求清单
func TestRequiredKPIsCustomScript(t *testing.T) {
	registry := NewStandardRegistry()

	script := `
func RequiredKPIs() []string {
	return []string{
		"CO2_SCOPE1|Environment|critical",
		"TRAINING_HOURS|Social|warning",
	}
}
`
	required, err := registry.RequiredKPIs(&models.ComplianceRuleSet{
		Standard:     models.StandardCustom,
		CustomScript: script,
	})
	require.NoError(t, err)
	require.Len(t, required, 2)
	assert.Equal(t, "CO2_SCOPE1", required[0].KPIID)
	assert.Equal(t, models.SeverityCritical, required[0].Severity)
	assert.Equal(t, models.CategorySocial, required[1].Category)
}

// TestRequiredKPIsCustomScriptBadEntry 脚本条目格式错误返回校验错误
func TestRequiredKPIsCustomScriptBadEntry(t *testing.T) {
	registry := NewStandardRegistry()

	script := `
func RequiredKPIs() []string {
	return []string{"CO2_SCOPE1"}
}
`
	_, err := registry.RequiredKPIs(&models.ComplianceRuleSet{
		Standard:     models.StandardCustom,
		CustomScript: script,
	})
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

// TestRequiredKPIsCustomScriptSyntaxError 脚本解析失败返回校验错误
func TestRequiredKPIsCustomScriptSyntaxError(t *testing.T) {
	registry := NewStandardRegistry()

	_, err := registry.RequiredKPIs(&models.ComplianceRuleSet{
		Standard:     models.StandardCustom,
		CustomScript: "func RequiredKPIs() []string {",
	})
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

// TestRequiredKPIsCustomWithoutListOrScript custom标准缺少清单和脚本时报错
func TestRequiredKPIsCustomWithoutListOrScript(t *testing.T) {
	registry := NewStandardRegistry()

	_, err := registry.RequiredKPIs(&models.ComplianceRuleSet{Standard: models.StandardCustom})
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

// TestRegisterNewStandard 登记新标准后可查询
func TestRegisterNewStandard(t *testing.T) {
	registry := NewStandardRegistry()

	registry.Register(&StandardDefinition{
		Code:        "internal",
		DisplayName: "社内基準",
		RequiredKPIs: []models.RequiredKPI{
			{KPIID: "REVENUE", Category: models.CategoryFinancial, Severity: models.SeverityWarning},
		},
	})

	required, err := registry.RequiredKPIs(&models.ComplianceRuleSet{Standard: "internal"})
	require.NoError(t, err)
	assert.Len(t, required, 1)
	assert.Equal(t, "社内基準", registry.DisplayName("internal"))
	assert.Equal(t, "unknown", registry.DisplayName("unknown"))
}
