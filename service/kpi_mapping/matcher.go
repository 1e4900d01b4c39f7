/*
 * @module service/kpi_mapping/matcher
 * @description 语义KPI匹配器，对分组描述文本做嵌入并与标准字典做余弦相似度排序，叠加多因子置信度加成
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 描述文本构造 -> 嵌入请求 -> 余弦排序 -> 置信度加成 -> 阈值判定
 * @rules 负相似度截断为0；adjustedConfidence始终落在[0,1]；嵌入失败只影响当前分组
 * @dependencies math, sort, esghub-service/service/embedding, esghub-service/service/models
 * @refs grouping.go, type_inference.go, dictionary_cache.go
 */

package kpi_mapping

import (
	"context"
	"math"
	"sort"

	"esghub-service/service/embedding"
	"esghub-service/service/models"
)

// BoostConfig 置信度加成配置，幅度均为可调参数而非业务常量
type BoostConfig struct {
	UnitMatchBonus       float64 `json:"unit_match_bonus"`
	UnitFamilyBonus      float64 `json:"unit_family_bonus"`
	DataQualityMax       float64 `json:"data_quality_max"`
	SampleSizeMax        float64 `json:"sample_size_max"`
	SampleSizeSaturation int     `json:"sample_size_saturation"`
	ValueRangeBonus      float64 `json:"value_range_bonus"`
}

// DefaultBoostConfig 默认加成幅度
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{
		UnitMatchBonus:       0.15,
		UnitFamilyBonus:      0.07,
		DataQualityMax:       0.10,
		SampleSizeMax:        0.05,
		SampleSizeSaturation: 10,
		ValueRangeBonus:      0.03,
	}
}

// MatchOptions 匹配选项
type MatchOptions struct {
	TopK                   int         `json:"top_k"`
	MinConfidenceThreshold float64     `json:"min_confidence_threshold"`
	Boosts                 BoostConfig `json:"boosts"`
}

// DefaultMatchOptions 默认匹配选项
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		TopK:                   3,
		MinConfidenceThreshold: 0.5,
		Boosts:                 DefaultBoostConfig(),
	}
}

// 可换算单位族：同族单位给部分加成
var unitFamilies = map[string]string{
	"t-co2": "co2-mass", "kg-co2": "co2-mass", "t-co2e": "co2-mass", "kg-co2e": "co2-mass",
	"kwh": "energy", "mwh": "energy", "gwh": "energy", "gj": "energy", "mj": "energy",
	"m3": "volume", "kl": "volume", "l": "volume", "m³": "volume",
	"t": "mass", "kg": "mass", "g": "mass",
	"%": "ratio", "percent": "ratio",
	"人": "count", "名": "count", "件": "count", "people": "count", "persons": "count",
	"円": "currency", "yen": "currency", "jpy": "currency", "usd": "currency", "eur": "currency",
	"時間": "duration", "h": "duration", "hours": "duration",
}

// 类别数量级区间：聚合值落在区间内给小额加成
var categoryValueBands = map[string][2]float64{
	models.CategoryEnvironment: {0.01, 1e9},
	models.CategorySocial:      {0, 1e7},
	models.CategoryGovernance:  {0, 1e5},
	models.CategoryFinancial:   {0, 1e13},
}

// Matcher 语义KPI匹配器
type Matcher struct {
	provider   embedding.Provider
	dictionary *DictionaryCache
	analyzer   *GroupAnalyzer
	inferencer *TypeInferencer
}

// NewMatcher 创建语义匹配器实例
func NewMatcher(provider embedding.Provider, dictionary *DictionaryCache) *Matcher {
	return &Matcher{
		provider:   provider,
		dictionary: dictionary,
		analyzer:   NewGroupAnalyzer(),
		inferencer: NewTypeInferencer(),
	}
}

// MatchGroup 对单个KPI分组执行语义匹配
// 嵌入服务失败记录在映射的Error字段，置信度归0，不向批次传播
func (m *Matcher) MatchGroup(ctx context.Context, group *models.KPIGroup, opts MatchOptions) *models.KPIMapping {
	mapping := &models.KPIMapping{Group: group}

	definitions := m.embeddedDefinitions()
	if len(definitions) == 0 {
		// 空字典或未嵌入字典是无匹配结果，不是错误
		return mapping
	}

	samples := m.analyzer.SampleValues(group)
	inference := m.inferencer.InferColumnType(samples)
	text := m.describeGroup(group, inference)

	vector, err := m.provider.Embed(ctx, text)
	if err != nil {
		mapping.Error = err.Error()
		return mapping
	}

	candidates := rankCandidates(vector, definitions, opts.TopK)
	if len(candidates) == 0 {
		return mapping
	}

	best := candidates[0]
	mapping.OriginalConfidence = best.RawSimilarity
	mapping.Boosts = m.computeBoosts(group, best.KPIDefinition, opts.Boosts)
	mapping.AdjustedConfidence = clamp01(mapping.OriginalConfidence + mapping.Boosts.Total())

	if mapping.AdjustedConfidence >= opts.MinConfidenceThreshold {
		mapping.BestMatch = best.KPIDefinition
	}
	if len(candidates) > 1 {
		mapping.Alternatives = candidates[1:]
	}
	return mapping
}

// MatchColumn 对裸列名+样本执行语义匹配，无分组上下文时仅嵌入相似度生效
func (m *Matcher) MatchColumn(ctx context.Context, columnName string, samples []string, opts MatchOptions) *models.KPIMapping {
	group := &models.KPIGroup{
		KPIIdentifier: NormalizeIdentifier(columnName),
		RecordCount:   len(samples),
	}
	mapping := &models.KPIMapping{Group: group}

	definitions := m.embeddedDefinitions()
	if len(definitions) == 0 {
		return mapping
	}

	inference := m.inferencer.InferColumnType(samples)
	text := BuildDescriptiveText(group.KPIIdentifier, inference)

	vector, err := m.provider.Embed(ctx, text)
	if err != nil {
		mapping.Error = err.Error()
		return mapping
	}

	candidates := rankCandidates(vector, definitions, opts.TopK)
	if len(candidates) == 0 {
		return mapping
	}

	mapping.OriginalConfidence = candidates[0].RawSimilarity
	mapping.AdjustedConfidence = clamp01(mapping.OriginalConfidence)
	if mapping.AdjustedConfidence >= opts.MinConfidenceThreshold {
		mapping.BestMatch = candidates[0].KPIDefinition
	}
	if len(candidates) > 1 {
		mapping.Alternatives = candidates[1:]
	}
	return mapping
}

// embeddedDefinitions 返回快照中已有向量的定义
func (m *Matcher) embeddedDefinitions() []*models.CanonicalKPIDefinition {
	all := m.dictionary.Definitions()
	embedded := make([]*models.CanonicalKPIDefinition, 0, len(all))
	for _, def := range all {
		if def.HasEmbedding() {
			embedded = append(embedded, def)
		}
	}
	return embedded
}

// describeGroup 构造分组的嵌入描述文本
func (m *Matcher) describeGroup(group *models.KPIGroup, inference *TypeInferenceResult) string {
	text := BuildDescriptiveText(group.KPIIdentifier, inference)
	if group.CommonUnit != "" {
		text += "; common_unit: " + group.CommonUnit
	}
	return text
}

// computeBoosts 计算四项独立加成
func (m *Matcher) computeBoosts(group *models.KPIGroup, candidate *models.CanonicalKPIDefinition, cfg BoostConfig) models.ConfidenceBoosts {
	return models.ConfidenceBoosts{
		UnitMatch:   unitMatchBoost(group.CommonUnit, candidate, cfg),
		DataQuality: clampNonNegative(group.QualityScore) * cfg.DataQualityMax,
		SampleSize:  sampleSizeBoost(group.RecordCount, cfg),
		ValueRange:  valueRangeBoost(group.AggregatedValue, candidate.Category, cfg),
	}
}

// unitMatchBoost 单位匹配加成：完全匹配（含别名）给全额，同族给部分
func unitMatchBoost(commonUnit string, candidate *models.CanonicalKPIDefinition, cfg BoostConfig) float64 {
	unit := NormalizeUnit(commonUnit)
	if unit == "" {
		return 0
	}
	preferred := NormalizeUnit(candidate.PreferredUnit)
	if unit == preferred && preferred != "" {
		return cfg.UnitMatchBonus
	}
	for _, alias := range candidate.Aliases {
		if unit == NormalizeUnit(alias) {
			return cfg.UnitMatchBonus
		}
	}
	if preferred != "" {
		if family, ok := unitFamilies[unit]; ok && family == unitFamilies[preferred] {
			return cfg.UnitFamilyBonus
		}
	}
	return 0
}

// sampleSizeBoost 样本量加成，收益递减，超过饱和点封顶
func sampleSizeBoost(recordCount int, cfg BoostConfig) float64 {
	if recordCount <= 0 || cfg.SampleSizeSaturation <= 0 {
		return 0
	}
	ratio := float64(recordCount) / float64(cfg.SampleSizeSaturation)
	if ratio > 1 {
		ratio = 1
	}
	// 平方根曲线：样本量翻倍的边际收益递减
	return cfg.SampleSizeMax * math.Sqrt(ratio)
}

// valueRangeBoost 数值合理性加成：聚合值落在类别数量级区间内给小额奖励
func valueRangeBoost(aggregatedValue float64, category string, cfg BoostConfig) float64 {
	band, ok := categoryValueBands[category]
	if !ok {
		return 0
	}
	abs := math.Abs(aggregatedValue)
	if abs >= band[0] && abs <= band[1] {
		return cfg.ValueRangeBonus
	}
	return 0
}

// rankCandidates 余弦相似度排序，负值截断为0，取top-K
func rankCandidates(vector []float64, definitions []*models.CanonicalKPIDefinition, topK int) []models.SimilarityCandidate {
	if topK <= 0 {
		topK = 3
	}

	candidates := make([]models.SimilarityCandidate, 0, len(definitions))
	for _, def := range definitions {
		similarity := cosineSimilarity(vector, def.Embedding)
		if similarity < 0 {
			similarity = 0
		}
		candidates = append(candidates, models.SimilarityCandidate{
			KPIDefinition: def,
			RawSimilarity: similarity,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RawSimilarity > candidates[j].RawSimilarity
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// cosineSimilarity 余弦相似度，维度不一致或零向量返回0
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
