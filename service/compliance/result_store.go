/*
 * @module service/compliance/result_store
 * @description 合规结果与映射结果的持久化存储，redis按(period,standard)做get-or-compute缓存
 * @architecture 分层架构 - 数据访问层，cache-aside
 * @documentReference ai_docs/compliance_req.md
 * @stateFlow 缓存查询 -> 数据库查询 -> 计算 -> 双写回填
 * @rules 计算成功后持久化失败不丢弃内存结果，以次级警告返回
 * @dependencies gorm.io/gorm, github.com/go-redis/redis/v8, esghub-service/service/models
 * @refs evaluator.go, service/pipeline
 */

package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"esghub-service/service/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResultStore 合规结果存储
type ResultStore struct {
	db       *gorm.DB
	redis    *redis.Client
	cacheTTL time.Duration
}

// NewResultStore 创建结果存储实例，redis可为nil（仅数据库路径）
func NewResultStore(db *gorm.DB, redisClient *redis.Client) *ResultStore {
	return &ResultStore{
		db:       db,
		redis:    redisClient,
		cacheTTL: 6 * time.Hour,
	}
}

func cacheKey(period, standard string) string {
	return fmt.Sprintf("esghub:compliance:%s:%s", period, standard)
}

// GetOrCompute 按(period,standard)幂等获取合规结果，未命中时计算并持久化
// 返回值中的warnings为次级警告（如持久化失败），不影响主结果
func (s *ResultStore) GetOrCompute(ctx context.Context, period, standard string,
	compute func() (*models.ComplianceResult, error)) (*models.ComplianceResult, []string, error) {

	if cached := s.fromCache(ctx, period, standard); cached != nil {
		return cached, nil, nil
	}

	if stored, err := s.fromDatabase(ctx, period, standard); err == nil && stored != nil {
		s.toCache(ctx, stored)
		return stored, nil, nil
	}

	result, err := compute()
	if err != nil {
		return nil, nil, err
	}

	warnings := make([]string, 0)
	if err := s.Save(ctx, result); err != nil {
		slog.Warn("合规结果持久化失败，返回内存结果", "period", period, "standard", standard, "error", err.Error())
		warnings = append(warnings, fmt.Sprintf("合规结果持久化失败: %v", err))
	} else {
		s.toCache(ctx, result)
	}
	return result, warnings, nil
}

// Save 持久化合规结果，(period,standard)冲突时覆盖
func (s *ResultStore) Save(ctx context.Context, result *models.ComplianceResult) error {
	missingPayload := make(models.JSONBArray, 0, len(result.MissingKPIs))
	for _, missing := range result.MissingKPIs {
		missingPayload = append(missingPayload, models.JSONB{
			"kpi_id":        missing.KPIID,
			"kpi_name":      missing.KPIName,
			"category":      missing.Category,
			"severity":      missing.Severity,
			"expected_unit": missing.ExpectedUnit,
		})
	}

	record := &models.ComplianceResultRecord{
		ID:                   uuid.New().String(),
		Period:               result.Period,
		Standard:             result.Standard,
		TotalKPIs:            result.TotalKPIs,
		MissingKPIs:          missingPayload,
		CriticalMissingCount: result.CriticalMissingCount,
		WarningMissingCount:  result.WarningMissingCount,
		ComplianceRate:       result.ComplianceRate,
		Status:               result.Status,
		CheckedAt:            result.CheckedAt,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "period"}, {Name: "standard"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_kpis", "missing_kpis", "critical_missing_count",
			"warning_missing_count", "compliance_rate", "status", "checked_at",
		}),
	}).Create(record).Error
	if err != nil {
		return &models.PersistenceError{Operation: "save_compliance_result", Cause: err}
	}
	return nil
}

// fromCache redis缓存读取，失败静默降级
func (s *ResultStore) fromCache(ctx context.Context, period, standard string) *models.ComplianceResult {
	if s.redis == nil {
		return nil
	}
	payload, err := s.redis.Get(ctx, cacheKey(period, standard)).Bytes()
	if err != nil {
		return nil
	}
	var result models.ComplianceResult
	if json.Unmarshal(payload, &result) != nil {
		return nil
	}
	return &result
}

// toCache redis缓存回填，失败只记日志
func (s *ResultStore) toCache(ctx context.Context, result *models.ComplianceResult) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(result.Period, result.Standard), payload, s.cacheTTL).Err(); err != nil {
		slog.Warn("合规结果缓存写入失败", "period", result.Period, "error", err.Error())
	}
}

// fromDatabase 数据库读取持久化结果
func (s *ResultStore) fromDatabase(ctx context.Context, period, standard string) (*models.ComplianceResult, error) {
	var record models.ComplianceResultRecord
	err := s.db.WithContext(ctx).
		Where("period = ? AND standard = ?", period, standard).
		First(&record).Error
	if err != nil {
		return nil, err
	}

	result := &models.ComplianceResult{
		Period:               record.Period,
		Standard:             record.Standard,
		TotalKPIs:            record.TotalKPIs,
		MissingKPIs:          make([]models.MissingKPI, 0, len(record.MissingKPIs)),
		CriticalMissingCount: record.CriticalMissingCount,
		WarningMissingCount:  record.WarningMissingCount,
		ComplianceRate:       record.ComplianceRate,
		Status:               record.Status,
		CheckedAt:            record.CheckedAt,
	}
	for _, entry := range record.MissingKPIs {
		result.MissingKPIs = append(result.MissingKPIs, models.MissingKPI{
			KPIID:        stringField(entry, "kpi_id"),
			KPIName:      stringField(entry, "kpi_name"),
			Category:     stringField(entry, "category"),
			Severity:     stringField(entry, "severity"),
			ExpectedUnit: stringField(entry, "expected_unit"),
		})
	}
	return result, nil
}

// SaveMappings 持久化批次映射结果，作为流水线的持久产物
func (s *ResultStore) SaveMappings(ctx context.Context, batchID, period string, mappings []*models.KPIMapping) error {
	if len(mappings) == 0 {
		return nil
	}

	records := make([]*models.KPIMappingRecord, 0, len(mappings))
	for _, mapping := range mappings {
		record := &models.KPIMappingRecord{
			ID:                 uuid.New().String(),
			BatchID:            batchID,
			Period:             period,
			KPIIdentifier:      mapping.Group.KPIIdentifier,
			AggregatedValue:    mapping.Group.AggregatedValue,
			CommonUnit:         mapping.Group.CommonUnit,
			RecordCount:        mapping.Group.RecordCount,
			QualityScore:       mapping.Group.QualityScore,
			OriginalConfidence: mapping.OriginalConfidence,
			AdjustedConfidence: mapping.AdjustedConfidence,
			ErrorMessage:       mapping.Error,
			Boosts: models.JSONB{
				"unit_match":   mapping.Boosts.UnitMatch,
				"data_quality": mapping.Boosts.DataQuality,
				"sample_size":  mapping.Boosts.SampleSize,
				"value_range":  mapping.Boosts.ValueRange,
			},
		}
		if mapping.BestMatch != nil {
			record.MatchedKPIID = mapping.BestMatch.ID
		}
		alternatives := make(models.JSONBArray, 0, len(mapping.Alternatives))
		for _, alt := range mapping.Alternatives {
			alternatives = append(alternatives, models.JSONB{
				"kpi_id":         alt.KPIDefinition.ID,
				"raw_similarity": alt.RawSimilarity,
			})
		}
		record.Alternatives = alternatives
		records = append(records, record)
	}

	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return &models.PersistenceError{Operation: "save_kpi_mappings", Cause: err}
	}
	return nil
}

// LoadMappings 按期间读取已持久化的映射，重建评估所需的最小映射视图
func (s *ResultStore) LoadMappings(ctx context.Context, period string) ([]*models.KPIMapping, error) {
	var records []models.KPIMappingRecord
	err := s.db.WithContext(ctx).
		Where("period = ?", period).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, &models.PersistenceError{Operation: "load_kpi_mappings", Cause: err}
	}

	mappings := make([]*models.KPIMapping, 0, len(records))
	for _, record := range records {
		mapping := &models.KPIMapping{
			Group: &models.KPIGroup{
				KPIIdentifier:   record.KPIIdentifier,
				AggregatedValue: record.AggregatedValue,
				CommonUnit:      record.CommonUnit,
				RecordCount:     record.RecordCount,
				QualityScore:    record.QualityScore,
			},
			OriginalConfidence: record.OriginalConfidence,
			AdjustedConfidence: record.AdjustedConfidence,
			Error:              record.ErrorMessage,
		}
		if record.MatchedKPIID != "" {
			mapping.BestMatch = &models.CanonicalKPIDefinition{ID: record.MatchedKPIID}
		}
		mappings = append(mappings, mapping)
	}
	return mappings, nil
}

func stringField(entry models.JSONB, key string) string {
	if value, ok := entry[key].(string); ok {
		return value
	}
	return ""
}
