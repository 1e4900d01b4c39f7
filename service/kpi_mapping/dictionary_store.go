/*
 * @module service/kpi_mapping/dictionary_store
 * @description 标准KPI字典存储，读取激活定义并回写再生成的嵌入向量
 * @architecture 分层架构 - 数据访问层
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 定义读取 -> 嵌入生成 -> 向量回写
 * @dependencies gorm.io/gorm, esghub-service/service/models
 * @refs dictionary_cache.go, service/database/migrate.go
 */

package kpi_mapping

import (
	"context"
	"time"

	"esghub-service/service/models"

	"gorm.io/gorm"
)

// DictionaryStore 标准KPI字典存储
type DictionaryStore struct {
	db *gorm.DB
}

// NewDictionaryStore 创建字典存储实例
func NewDictionaryStore(db *gorm.DB) *DictionaryStore {
	return &DictionaryStore{db: db}
}

// ListActive 读取所有激活的KPI定义
func (s *DictionaryStore) ListActive(ctx context.Context) ([]*models.CanonicalKPIDefinition, error) {
	var definitions []*models.CanonicalKPIDefinition
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&definitions).Error
	if err != nil {
		return nil, &models.PersistenceError{Operation: "list_kpi_definitions", Cause: err}
	}
	return definitions, nil
}

// SaveEmbedding 持久化单个定义的嵌入向量
func (s *DictionaryStore) SaveEmbedding(ctx context.Context, id string, vector []float64) error {
	now := time.Now()
	err := s.db.WithContext(ctx).
		Model(&models.CanonicalKPIDefinition{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"embedding":   models.JSONBFloatArray(vector),
			"embedded_at": &now,
		}).Error
	if err != nil {
		return &models.PersistenceError{Operation: "save_kpi_embedding", Cause: err}
	}
	return nil
}
