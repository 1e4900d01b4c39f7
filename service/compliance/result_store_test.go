/*
 * @module service/compliance/result_store_test
 * @description 合规结果存储单元测试
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试数据库准备 -> 存取往返 -> 幂等与冲突覆盖验证
 * @rules 覆盖get-or-compute幂等、(period,standard)冲突覆盖与映射记录往返
 * @dependencies testing, stretchr/testify, esghub-service/testutil
 */

package compliance

import (
	"context"
	"testing"
	"time"

	"esghub-service/service/models"
	"esghub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(period, standard string) *models.ComplianceResult {
	return &models.ComplianceResult{
		Period:               period,
		Standard:             standard,
		TotalKPIs:            5,
		CriticalMissingCount: 1,
		WarningMissingCount:  0,
		ComplianceRate:       80,
		Status:               models.StatusCritical,
		MissingKPIs: []models.MissingKPI{
			{KPIID: "CO2_SCOPE1", KPIName: "Scope1排出量", Category: models.CategoryEnvironment, Severity: models.SeverityCritical, ExpectedUnit: "t-CO2"},
		},
		CheckedAt: time.Now(),
	}
}

// TestGetOrComputeComputesOnce 首次计算后，同一(period,standard)复用持久化结果
func TestGetOrComputeComputesOnce(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	store := NewResultStore(tdb.DB, nil)
	ctx := context.Background()

	computeCalls := 0
	compute := func() (*models.ComplianceResult, error) {
		computeCalls++
		return sampleResult("2024-Q1", models.StandardISSB), nil
	}

	first, warnings, err := store.GetOrCompute(ctx, "2024-Q1", models.StandardISSB, compute)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 1, computeCalls)
	assert.Equal(t, models.StatusCritical, first.Status)

	second, _, err := store.GetOrCompute(ctx, "2024-Q1", models.StandardISSB, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, computeCalls, "第二次调用不应重新计算")
	assert.Equal(t, first.ComplianceRate, second.ComplianceRate)
	require.Len(t, second.MissingKPIs, 1)
	assert.Equal(t, "CO2_SCOPE1", second.MissingKPIs[0].KPIID)
	assert.Equal(t, "t-CO2", second.MissingKPIs[0].ExpectedUnit)

	// 不同standard独立计算
	_, _, err = store.GetOrCompute(ctx, "2024-Q1", models.StandardCSRD, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, computeCalls)
}

// TestSaveOverwritesOnConflict 同一(period,standard)再次保存时覆盖
func TestSaveOverwritesOnConflict(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	store := NewResultStore(tdb.DB, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleResult("2024-Q1", models.StandardISSB)))

	updated := sampleResult("2024-Q1", models.StandardISSB)
	updated.Status = models.StatusCompliant
	updated.ComplianceRate = 100
	updated.CriticalMissingCount = 0
	updated.MissingKPIs = nil
	require.NoError(t, store.Save(ctx, updated))

	var count int64
	tdb.DB.Model(&models.ComplianceResultRecord{}).Count(&count)
	assert.Equal(t, int64(1), count)

	stored, err := store.fromDatabase(ctx, "2024-Q1", models.StandardISSB)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompliant, stored.Status)
	assert.Equal(t, 100.0, stored.ComplianceRate)
}

// TestGetOrComputePropagatesComputeError 计算失败时错误向上传播，不做持久化
func TestGetOrComputePropagatesComputeError(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	store := NewResultStore(tdb.DB, nil)

	_, _, err := store.GetOrCompute(context.Background(), "2024-Q1", models.StandardISSB,
		func() (*models.ComplianceResult, error) {
			return nil, models.NewValidationError("rule_set", "测试错误")
		})
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))

	var count int64
	tdb.DB.Model(&models.ComplianceResultRecord{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

// TestSaveMappingsRoundTrip 映射记录持久化后可按期间重建评估视图
func TestSaveMappingsRoundTrip(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	store := NewResultStore(tdb.DB, nil)
	ctx := context.Background()

	mappings := []*models.KPIMapping{
		{
			Group: &models.KPIGroup{
				KPIIdentifier:   "CO2_SCOPE1",
				AggregatedValue: 600,
				CommonUnit:      "t-co2",
				RecordCount:     3,
				QualityScore:    0.95,
			},
			BestMatch:          &models.CanonicalKPIDefinition{ID: "CO2_SCOPE1"},
			OriginalConfidence: 0.82,
			AdjustedConfidence: 0.97,
			Boosts:             models.ConfidenceBoosts{UnitMatch: 0.15},
			Alternatives: []models.SimilarityCandidate{
				{KPIDefinition: &models.CanonicalKPIDefinition{ID: "CO2_SCOPE2"}, RawSimilarity: 0.7},
			},
		},
		{
			Group: &models.KPIGroup{KPIIdentifier: "UNKNOWN_KPI", RecordCount: 1},
			Error: "embedding service unavailable",
		},
	}

	require.NoError(t, store.SaveMappings(ctx, "batch-1", "2024-Q1", mappings))

	loaded, err := store.LoadMappings(ctx, "2024-Q1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byIdentifier := make(map[string]*models.KPIMapping, len(loaded))
	for _, mapping := range loaded {
		byIdentifier[mapping.Group.KPIIdentifier] = mapping
	}

	matched := byIdentifier["CO2_SCOPE1"]
	require.NotNil(t, matched)
	assert.Equal(t, 600.0, matched.Group.AggregatedValue)
	require.NotNil(t, matched.BestMatch)
	assert.Equal(t, "CO2_SCOPE1", matched.BestMatch.ID)
	assert.Equal(t, 0.97, matched.AdjustedConfidence)

	failed := byIdentifier["UNKNOWN_KPI"]
	require.NotNil(t, failed)
	assert.Nil(t, failed.BestMatch)
	assert.Equal(t, "embedding service unavailable", failed.Error)

	// 其他期间不可见
	other, err := store.LoadMappings(ctx, "2024-Q2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

// TestSaveMappingsEmpty 空映射集合保存为no-op
func TestSaveMappingsEmpty(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	store := NewResultStore(tdb.DB, nil)

	require.NoError(t, store.SaveMappings(context.Background(), "batch-1", "2024-Q1", nil))
}
