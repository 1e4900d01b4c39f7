/*
 * @module api/controllers/dictionary_controller
 * @description KPI字典控制器，提供标准KPI定义查询、向量重建与单列语义匹配接口
 * @architecture MVC架构 - 控制器层
 * @dependencies esghub-service/service/kpi_mapping, github.com/go-chi/render
 * @refs service/kpi_mapping/dictionary_cache.go, service/kpi_mapping/matcher.go
 */

package controllers

import (
	"log/slog"
	"net/http"

	"esghub-service/service/kpi_mapping"

	"github.com/go-chi/render"
)

// DictionaryController KPI字典控制器
type DictionaryController struct {
	cache   *kpi_mapping.DictionaryCache
	matcher *kpi_mapping.Matcher
}

// NewDictionaryController 创建KPI字典控制器实例
func NewDictionaryController(cache *kpi_mapping.DictionaryCache, matcher *kpi_mapping.Matcher) *DictionaryController {
	return &DictionaryController{cache: cache, matcher: matcher}
}

// ListDefinitions 查询标准KPI定义
// @Summary 查询标准KPI定义
// @Description 返回当前字典快照中的全部标准KPI定义
// @Tags KPI字典
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.CanonicalKPIDefinition} "查询成功"
// @Router /kpi-dictionary [get]
func (c *DictionaryController) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	definitions := c.cache.Definitions()
	render.JSON(w, r, SuccessResponse("查询成功", definitions))
}

// RegenerateEmbeddingsResponse 向量重建响应
type RegenerateEmbeddingsResponse struct {
	RegeneratedCount int `json:"regenerated_count"`
}

// RegenerateEmbeddings 重建KPI字典向量
// @Summary 重建KPI字典向量
// @Description 对字典中全部KPI定义重新生成嵌入向量并原子替换缓存快照，失败时保留旧快照
// @Tags KPI字典
// @Produce json
// @Success 200 {object} APIResponse{data=RegenerateEmbeddingsResponse} "重建成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /kpi-dictionary/regenerate-embeddings [post]
func (c *DictionaryController) RegenerateEmbeddings(w http.ResponseWriter, r *http.Request) {
	count, err := c.cache.Regenerate(r.Context())
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("向量重建失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("向量重建成功", &RegenerateEmbeddingsResponse{
		RegeneratedCount: count,
	}))
}

// MatchColumnRequest 单列语义匹配请求
type MatchColumnRequest struct {
	ColumnName             string   `json:"column_name"`
	Samples                []string `json:"samples,omitempty"`
	TopK                   int      `json:"top_k,omitempty"`
	MinConfidenceThreshold float64  `json:"min_confidence_threshold,omitempty"`
}

// MatchColumn 单列语义匹配
// @Summary 单列语义匹配
// @Description 对单个列名及样本值执行KPI语义匹配，仅计算相似度不含分组加成
// @Tags KPI字典
// @Accept json
// @Produce json
// @Param request body MatchColumnRequest true "列名与样本值"
// @Success 200 {object} APIResponse{data=models.KPIMapping} "匹配成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /mappings/match [post]
func (c *DictionaryController) MatchColumn(w http.ResponseWriter, r *http.Request) {
	var req MatchColumnRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.ColumnName == "" {
		render.JSON(w, r, BadRequestResponse("column_name不能为空", nil))
		return
	}

	opts := kpi_mapping.DefaultMatchOptions()
	if req.TopK > 0 {
		opts.TopK = req.TopK
	}
	if req.MinConfidenceThreshold > 0 {
		opts.MinConfidenceThreshold = req.MinConfidenceThreshold
	}

	mapping := c.matcher.MatchColumn(r.Context(), req.ColumnName, req.Samples, opts)
	if mapping.Error != "" {
		// 具体失败原因留在日志，不透传给调用方
		slog.Warn("单列语义匹配失败", "column", req.ColumnName, "cause", mapping.Error)
		render.JSON(w, r, &APIResponse{Status: 500, Msg: "语义匹配失败，嵌入服务暂时不可用"})
		return
	}

	render.JSON(w, r, SuccessResponse("匹配完成", mapping))
}
