/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"esghub-service/service/models"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.CanonicalKPIDefinition{},
		&models.KPIMappingRecord{},
		&models.ComplianceResultRecord{},
		&models.ComplianceCheckRegistration{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	// 清空所有表的数据
	tables := []string{
		"kpi_definitions",
		"kpi_mappings",
		"compliance_results",
		"compliance_check_registrations",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// DefinitionOption KPI定义选项函数类型
type DefinitionOption func(*models.CanonicalKPIDefinition)

// CreateDefinition 创建测试KPI定义
func (f *TestDataFactory) CreateDefinition(opts ...DefinitionOption) *models.CanonicalKPIDefinition {
	definition := &models.CanonicalKPIDefinition{
		ID:            generateID("kpi"),
		Name:          "测试KPI定义",
		Category:      models.CategoryEnvironment,
		PreferredUnit: "t-CO2",
		Aliases:       pq.StringArray{"テスト指標", "测试指标"},
		Description:   "这是一个测试KPI定义",
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	// 应用选项
	for _, opt := range opts {
		opt(definition)
	}

	err := f.DB.Create(definition).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test kpi definition: %v", err))
	}

	return definition
}

// WithEmbedding 设置定义的嵌入向量
func WithEmbedding(vector []float64) DefinitionOption {
	return func(d *models.CanonicalKPIDefinition) {
		now := time.Now()
		d.Embedding = vector
		d.EmbeddedAt = &now
	}
}

// MappingRecordOption 映射记录选项函数类型
type MappingRecordOption func(*models.KPIMappingRecord)

// CreateMappingRecord 创建测试映射记录
func (f *TestDataFactory) CreateMappingRecord(period, kpiIdentifier, matchedKPIID string, opts ...MappingRecordOption) *models.KPIMappingRecord {
	record := &models.KPIMappingRecord{
		ID:                 generateID("map"),
		BatchID:            generateID("batch"),
		Period:             period,
		KPIIdentifier:      kpiIdentifier,
		MatchedKPIID:       matchedKPIID,
		AggregatedValue:    600,
		CommonUnit:         "t-CO2",
		RecordCount:        3,
		QualityScore:       0.9,
		OriginalConfidence: 0.85,
		AdjustedConfidence: 0.9,
		CreatedAt:          time.Now(),
	}

	// 应用选项
	for _, opt := range opts {
		opt(record)
	}

	err := f.DB.Create(record).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test mapping record: %v", err))
	}

	return record
}

// MakeRawRows 构造原始行数据，列名固定为kpi/value/unit
func MakeRawRows(cells ...[3]interface{}) []models.RawRow {
	rows := make([]models.RawRow, 0, len(cells))
	for _, cell := range cells {
		rows = append(rows, models.RawRow{
			"kpi":   cell[0],
			"value": cell[1],
			"unit":  cell[2],
		})
	}
	return rows
}

// DefaultColumnConfig 默认测试列配置
func DefaultColumnConfig() models.ColumnConfig {
	return models.ColumnConfig{
		KPIColumn:   "kpi",
		ValueColumn: "value",
		UnitColumn:  "unit",
	}
}

// 辅助函数
func generateID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), generateSuffix())
}

func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
