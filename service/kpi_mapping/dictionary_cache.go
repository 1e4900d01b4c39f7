/*
 * @module service/kpi_mapping/dictionary_cache
 * @description 字典嵌入缓存，进程生命周期内持有预嵌入的KPI定义快照，再生成时原子替换
 * @architecture 缓存快照模式 - 组合根显式持有，不使用包级单例
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 启动加载 -> 匹配只读 -> 再生成构建新快照 -> 原子替换
 * @rules 匹配期间字典只读；再生成是唯一写者，发布完整新快照，读者不会看到半更新状态
 * @dependencies sync, esghub-service/service/embedding, esghub-service/service/models
 * @refs matcher.go, dictionary_store.go
 */

package kpi_mapping

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"esghub-service/service/embedding"
	"esghub-service/service/models"
)

// dictionarySnapshot 不可变字典快照
type dictionarySnapshot struct {
	definitions []*models.CanonicalKPIDefinition
	builtAt     time.Time
}

// DictionaryCache 字典嵌入缓存
type DictionaryCache struct {
	store    *DictionaryStore
	provider embedding.Provider

	mu       sync.RWMutex
	snapshot *dictionarySnapshot
}

// NewDictionaryCache 创建字典缓存实例
func NewDictionaryCache(store *DictionaryStore, provider embedding.Provider) *DictionaryCache {
	return &DictionaryCache{store: store, provider: provider}
}

// Load 从存储加载已持久化的定义和向量，构建初始快照
func (c *DictionaryCache) Load(ctx context.Context) error {
	definitions, err := c.store.ListActive(ctx)
	if err != nil {
		return err
	}

	embedded := 0
	for _, def := range definitions {
		if def.HasEmbedding() {
			embedded++
		}
	}
	slog.Info("字典缓存加载完成", "definitions", len(definitions), "embedded", embedded)

	c.swap(&dictionarySnapshot{definitions: definitions, builtAt: time.Now()})
	return nil
}

// Definitions 返回当前快照中的定义列表，调用方不得修改
func (c *DictionaryCache) Definitions() []*models.CanonicalKPIDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil
	}
	return c.snapshot.definitions
}

// Regenerate 重新生成全部定义的嵌入向量并原子替换快照
// 向量同时回写存储；任一定义嵌入失败则整体失败，旧快照保持可用
func (c *DictionaryCache) Regenerate(ctx context.Context) (int, error) {
	definitions, err := c.store.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	if len(definitions) == 0 {
		c.swap(&dictionarySnapshot{builtAt: time.Now()})
		return 0, nil
	}

	texts := make([]string, len(definitions))
	for i, def := range definitions {
		texts[i] = definitionText(def)
	}

	vectors, err := c.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("字典嵌入生成失败: %w", err)
	}

	for i, def := range definitions {
		def.Embedding = models.JSONBFloatArray(vectors[i])
		if err := c.store.SaveEmbedding(ctx, def.ID, vectors[i]); err != nil {
			return 0, err
		}
	}

	c.swap(&dictionarySnapshot{definitions: definitions, builtAt: time.Now()})
	slog.Info("字典嵌入再生成完成", "definitions", len(definitions))
	return len(definitions), nil
}

// swap 原子替换快照
func (c *DictionaryCache) swap(next *dictionarySnapshot) {
	c.mu.Lock()
	c.snapshot = next
	c.mu.Unlock()
}

// definitionText 定义的嵌入输入文本：名称+类别+首选单位+别名
func definitionText(def *models.CanonicalKPIDefinition) string {
	parts := []string{
		"KPI: " + def.Name,
		"id: " + def.ID,
		"category: " + def.Category,
	}
	if def.PreferredUnit != "" {
		parts = append(parts, "unit: "+def.PreferredUnit)
	}
	if len(def.Aliases) > 0 {
		parts = append(parts, "aliases: "+strings.Join(def.Aliases, ", "))
	}
	if def.Description != "" {
		parts = append(parts, def.Description)
	}
	return strings.Join(parts, "; ")
}
