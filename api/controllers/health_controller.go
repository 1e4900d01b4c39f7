/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供服务健康与就绪状态检查
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow HTTP请求处理流程
 * @rules 就绪检查依赖KPI字典缓存加载状态，用于容器健康检查和负载均衡
 * @dependencies net/http
 * @refs service/kpi_mapping/dictionary_cache.go
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// ReadinessProbe 就绪探针，返回字典定义数量与是否就绪
type ReadinessProbe func() (int, bool)

// HealthController 健康检查控制器
type HealthController struct {
	probe ReadinessProbe
}

// NewHealthController 创建健康检查控制器实例，probe为nil时就绪检查仅返回存活状态
func NewHealthController(probe ReadinessProbe) *HealthController {
	return &HealthController{probe: probe}
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Status         string    `json:"status" example:"ok"`
	Timestamp      time.Time `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version        string    `json:"version" example:"1.0.0"`
	Service        string    `json:"service" example:"esghub-service"`
	DictionarySize int       `json:"dictionary_size,omitempty" example:"42"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "esghub-service",
	}

	render.JSON(w, r, response)
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查服务是否就绪，KPI字典缓存未加载时返回503
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "esghub-service",
	}

	if c.probe != nil {
		size, ready := c.probe()
		response.DictionarySize = size
		if !ready {
			response.Status = "not_ready"
			render.Status(r, http.StatusServiceUnavailable)
		}
	}

	render.JSON(w, r, response)
}
