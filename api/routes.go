/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs service/init.go
 */

package api

import (
	"esghub-service/api/controllers"
	"esghub-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查，就绪状态依赖字典缓存加载
	healthController := controllers.NewHealthController(func() (int, bool) {
		definitions := service.GlobalDictionaryCache.Definitions()
		return len(definitions), len(definitions) > 0
	})
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 批次流水线
	r.Route("/pipeline", func(r chi.Router) {
		pipelineController := controllers.NewPipelineController(service.GlobalOrchestrator)
		r.Post("/run", pipelineController.RunPipeline)
	})

	// 合规检查
	r.Route("/compliance", func(r chi.Router) {
		complianceController := controllers.NewComplianceController(
			service.GlobalEvaluator,
			service.GlobalReportGenerator,
			service.GlobalResultStore,
			service.GlobalComplianceScheduler,
		)
		r.Post("/check", complianceController.CheckCompliance)
		r.Get("/report", complianceController.GetComplianceReport)
		r.Post("/registrations", complianceController.RegisterCheck)
	})

	// KPI字典与单列匹配
	dictionaryController := controllers.NewDictionaryController(service.GlobalDictionaryCache, service.GlobalMatcher)
	r.Route("/kpi-dictionary", func(r chi.Router) {
		r.Get("/", dictionaryController.ListDefinitions)
		r.Post("/regenerate-embeddings", dictionaryController.RegenerateEmbeddings)
	})
	r.Route("/mappings", func(r chi.Router) {
		r.Post("/match", dictionaryController.MatchColumn)
	})
}
