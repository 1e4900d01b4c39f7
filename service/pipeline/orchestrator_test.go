/*
 * @module service/pipeline/orchestrator_test
 * @description 批次流水线编排器单元测试
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 字典准备 -> 流水线执行 -> 映射/诊断/合规结果验证
 * @rules 覆盖端到端执行、单分组失败隔离、批次超时与持久化失败降级
 * @dependencies testing, stretchr/testify, esghub-service/testutil
 */

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"esghub-service/service/compliance"
	"esghub-service/service/kpi_mapping"
	"esghub-service/service/models"
	"esghub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selectiveProvider 可对特定标识符注入失败的嵌入服务桩
type selectiveProvider struct {
	vector  []float64
	failFor string
}

func (p *selectiveProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if p.failFor != "" && strings.Contains(text, p.failFor) {
		return nil, errors.New("embedding service unavailable")
	}
	return p.vector, nil
}

func (p *selectiveProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vector, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

type orchestratorFixture struct {
	orchestrator *Orchestrator
	tdb          *testutil.TestDB
	store        *compliance.ResultStore
}

// newFixture 构造带sqlite字典与全量依赖的编排器
func newFixture(t *testing.T, provider *selectiveProvider) *orchestratorFixture {
	t.Helper()

	tdb := testutil.NewTestDB()
	factory := testutil.NewTestDataFactory(tdb.DB)
	for _, id := range []string{"CO2_SCOPE1", "CO2_SCOPE2", "ENERGY_CONSUMPTION"} {
		factory.CreateDefinition(func(def *models.CanonicalKPIDefinition) {
			def.ID = id
			def.Name = id
			def.PreferredUnit = "t-co2"
			def.Embedding = []float64{1, 0, 0}
		})
	}

	cache := kpi_mapping.NewDictionaryCache(kpi_mapping.NewDictionaryStore(tdb.DB), provider)
	require.NoError(t, cache.Load(context.Background()))

	registry := compliance.NewStandardRegistry()
	store := compliance.NewResultStore(tdb.DB, nil)
	orchestrator := NewOrchestrator(
		kpi_mapping.NewGroupAnalyzer(),
		kpi_mapping.NewMatcher(provider, cache),
		compliance.NewEvaluator(registry, cache),
		compliance.NewReportGenerator(registry),
		store,
	)
	return &orchestratorFixture{orchestrator: orchestrator, tdb: tdb, store: store}
}

func testRows() []models.RawRow {
	return []models.RawRow{
		{"kpi": "CO2_SCOPE1", "value": "100", "unit": "t-co2"},
		{"kpi": "CO2_SCOPE1", "value": "200", "unit": "t-co2"},
		{"kpi": "CO2_SCOPE2", "value": "50", "unit": "t-co2"},
	}
}

// TestRunEndToEnd 完整流水线：分组、匹配、合规评估与报告
func TestRunEndToEnd(t *testing.T) {
	provider := &selectiveProvider{vector: []float64{1, 0, 0}}
	fixture := newFixture(t, provider)
	defer fixture.tdb.Close()

	opts := DefaultOptions()
	opts.Period = "2024-Q1"
	ruleSet := &models.ComplianceRuleSet{
		Standard:               models.StandardISSB,
		MinConfidenceThreshold: 0.5,
	}

	result, err := fixture.orchestrator.Run(context.Background(), testRows(), testutil.DefaultColumnConfig(), ruleSet, opts)
	require.NoError(t, err)

	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, "2024-Q1", result.Period)
	require.NotNil(t, result.Grouping)
	assert.Equal(t, 2, result.Grouping.UniqueKPICount)
	require.Len(t, result.Mappings, 2)
	assert.Equal(t, 2, result.MatchedCount)
	assert.Equal(t, 0, result.FailedCount)

	require.NotNil(t, result.Compliance)
	assert.Equal(t, models.StandardISSB, result.Compliance.Standard)
	require.NotNil(t, result.Report)
	assert.NotEmpty(t, result.Report.Summary)
}

// TestRunIsolatesGroupFailure 单分组嵌入失败不影响其余分组
func TestRunIsolatesGroupFailure(t *testing.T) {
	provider := &selectiveProvider{vector: []float64{1, 0, 0}, failFor: "CO2_SCOPE2"}
	fixture := newFixture(t, provider)
	defer fixture.tdb.Close()

	opts := DefaultOptions()
	opts.Period = "2024-Q1"

	result, err := fixture.orchestrator.Run(context.Background(), testRows(), testutil.DefaultColumnConfig(), nil, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.MatchedCount)
	assert.Equal(t, 1, result.FailedCount)

	var failed *models.GroupDiagnostic
	for i := range result.Diagnostics {
		if result.Diagnostics[i].Error != "" {
			failed = &result.Diagnostics[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "CO2_SCOPE2", failed.KPIIdentifier)
	assert.False(t, failed.Matched)
}

// TestRunEmptyRows 空批次返回校验错误
func TestRunEmptyRows(t *testing.T) {
	provider := &selectiveProvider{vector: []float64{1, 0, 0}}
	fixture := newFixture(t, provider)
	defer fixture.tdb.Close()

	_, err := fixture.orchestrator.Run(context.Background(), nil, testutil.DefaultColumnConfig(), nil, DefaultOptions())
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

// TestRunEmptyGrouping 全部行被拒绝时返回空结果而不报错
func TestRunEmptyGrouping(t *testing.T) {
	provider := &selectiveProvider{vector: []float64{1, 0, 0}}
	fixture := newFixture(t, provider)
	defer fixture.tdb.Close()

	rows := []models.RawRow{
		{"kpi": "", "value": "100", "unit": ""},
	}
	result, err := fixture.orchestrator.Run(context.Background(), rows, testutil.DefaultColumnConfig(), nil, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, result.Grouping.Empty)
	assert.Empty(t, result.Mappings)
	assert.Nil(t, result.Compliance)
}

// TestRunBatchTimeout 批次超时后未开始的分组标记为超时未映射
func TestRunBatchTimeout(t *testing.T) {
	provider := &selectiveProvider{vector: []float64{1, 0, 0}}
	fixture := newFixture(t, provider)
	defer fixture.tdb.Close()

	opts := DefaultOptions()
	opts.BatchTimeout = time.Nanosecond

	result, err := fixture.orchestrator.Run(context.Background(), testRows(), testutil.DefaultColumnConfig(), nil, opts)
	require.NoError(t, err)

	assert.Equal(t, 0, result.MatchedCount)
	for _, diagnostic := range result.Diagnostics {
		assert.True(t, diagnostic.TimedOut)
		assert.NotEmpty(t, diagnostic.Error)
	}
}

// TestRunPersistsMappings 开启持久化时映射记录落库
func TestRunPersistsMappings(t *testing.T) {
	provider := &selectiveProvider{vector: []float64{1, 0, 0}}
	fixture := newFixture(t, provider)
	defer fixture.tdb.Close()

	opts := DefaultOptions()
	opts.Period = "2024-Q1"
	opts.PersistMappings = true

	result, err := fixture.orchestrator.Run(context.Background(), testRows(), testutil.DefaultColumnConfig(), nil, opts)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	loaded, err := fixture.store.LoadMappings(context.Background(), "2024-Q1")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

// TestRunPersistFailureIsWarning 持久化失败降级为警告，内存结果完整返回
func TestRunPersistFailureIsWarning(t *testing.T) {
	provider := &selectiveProvider{vector: []float64{1, 0, 0}}
	fixture := newFixture(t, provider)
	defer fixture.tdb.Close()

	require.NoError(t, fixture.tdb.DB.Exec("DROP TABLE kpi_mappings").Error)

	opts := DefaultOptions()
	opts.Period = "2024-Q1"
	opts.PersistMappings = true

	result, err := fixture.orchestrator.Run(context.Background(), testRows(), testutil.DefaultColumnConfig(), nil, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchedCount)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "持久化失败")
}
