/*
 * @module api/controllers/pipeline_controller_test
 * @description 流水线控制器单元测试
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @rules 确保流水线API的参数校验与错误映射正确
 * @dependencies testing, net/http/httptest, stretchr/testify
 */

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"esghub-service/service/compliance"
	"esghub-service/service/kpi_mapping"
	"esghub-service/service/models"
	"esghub-service/service/pipeline"
	"esghub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedProvider 固定向量的嵌入服务桩
type fixedProvider struct {
	vector []float64
}

func (p *fixedProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	return p.vector, nil
}

func (p *fixedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = p.vector
	}
	return vectors, nil
}

func newPipelineController(t *testing.T) (*PipelineController, *testutil.TestDB) {
	t.Helper()

	tdb := testutil.NewTestDB()
	factory := testutil.NewTestDataFactory(tdb.DB)
	factory.CreateDefinition(func(def *models.CanonicalKPIDefinition) {
		def.ID = "CO2_SCOPE1"
		def.Name = "Scope1排出量"
		def.PreferredUnit = "t-co2"
		def.Embedding = []float64{1, 0, 0}
	})

	provider := &fixedProvider{vector: []float64{1, 0, 0}}
	cache := kpi_mapping.NewDictionaryCache(kpi_mapping.NewDictionaryStore(tdb.DB), provider)
	require.NoError(t, cache.Load(context.Background()))

	registry := compliance.NewStandardRegistry()
	orchestrator := pipeline.NewOrchestrator(
		kpi_mapping.NewGroupAnalyzer(),
		kpi_mapping.NewMatcher(provider, cache),
		compliance.NewEvaluator(registry, cache),
		compliance.NewReportGenerator(registry),
		compliance.NewResultStore(tdb.DB, nil),
	)
	return NewPipelineController(orchestrator), tdb
}

// TestRunPipelineSuccess 正常批次返回成功响应与流水线结果
func TestRunPipelineSuccess(t *testing.T) {
	controller, tdb := newPipelineController(t)
	defer tdb.Close()

	payload := RunPipelineRequest{
		Period: "2024-Q1",
		Rows: []models.RawRow{
			{"kpi": "CO2_SCOPE1", "value": "100", "unit": "t-co2"},
			{"kpi": "CO2_SCOPE1", "value": "200", "unit": "t-co2"},
		},
		ColumnConfig: testutil.DefaultColumnConfig(),
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/pipeline/run", bytes.NewReader(body))
	w := httptest.NewRecorder()
	controller.RunPipeline(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2024-Q1", data["period"])
	assert.NotEmpty(t, data["batch_id"])
}

// TestRunPipelineBadJSON 非法JSON返回400状态码响应
func TestRunPipelineBadJSON(t *testing.T) {
	controller, tdb := newPipelineController(t)
	defer tdb.Close()

	req := httptest.NewRequest(http.MethodPost, "/pipeline/run", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	controller.RunPipeline(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 400, response.Status)
}

// TestRunPipelineEmptyRows 空批次映射为参数错误响应
func TestRunPipelineEmptyRows(t *testing.T) {
	controller, tdb := newPipelineController(t)
	defer tdb.Close()

	payload := RunPipelineRequest{
		Period:       "2024-Q1",
		ColumnConfig: testutil.DefaultColumnConfig(),
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/pipeline/run", bytes.NewReader(body))
	w := httptest.NewRecorder()
	controller.RunPipeline(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 400, response.Status)
	assert.Contains(t, response.Msg, "校验失败")
}

// errProvider 嵌入调用固定失败的桩
type errProvider struct{}

func (p *errProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, errors.New("connection refused: 10.0.0.8:8443")
}

func (p *errProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return nil, errors.New("connection refused: 10.0.0.8:8443")
}

// TestMatchColumnProviderFailureSanitized 嵌入服务失败时不向调用方透传底层原因
func TestMatchColumnProviderFailureSanitized(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	factory := testutil.NewTestDataFactory(tdb.DB)
	factory.CreateDefinition(func(def *models.CanonicalKPIDefinition) {
		def.ID = "CO2_SCOPE1"
		def.Embedding = []float64{1, 0, 0}
	})

	provider := &errProvider{}
	cache := kpi_mapping.NewDictionaryCache(kpi_mapping.NewDictionaryStore(tdb.DB), provider)
	require.NoError(t, cache.Load(context.Background()))
	controller := NewDictionaryController(cache, kpi_mapping.NewMatcher(provider, cache))

	body, err := json.Marshal(MatchColumnRequest{ColumnName: "CO2排出量"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/mappings/match", bytes.NewReader(body))
	w := httptest.NewRecorder()
	controller.MatchColumn(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 500, response.Status)
	assert.NotContains(t, response.Msg, "connection refused")
	assert.Contains(t, response.Msg, "语义匹配失败")
}

// TestHealthEndpoints 健康与就绪检查
func TestHealthEndpoints(t *testing.T) {
	controller := NewHealthController(func() (int, bool) { return 5, true })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	controller.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "esghub-service", response.Service)

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	w = httptest.NewRecorder()
	controller.Ready(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var ready HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, 5, ready.DictionarySize)
}

// TestReadyNotLoaded 字典未加载时就绪检查返回503
func TestReadyNotLoaded(t *testing.T) {
	controller := NewHealthController(func() (int, bool) { return 0, false })

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	controller.Ready(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var ready HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ready))
	assert.Equal(t, "not_ready", ready.Status)
}
