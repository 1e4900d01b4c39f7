/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、缓存加载、各业务服务的组装
 * @architecture 分层架构 - 组合根
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 应用启动时执行初始化流程：数据库 -> 迁移 -> 字典缓存 -> 业务服务 -> 数据源/调度器
 * @rules 字典嵌入缓存由组合根显式持有并注入，不使用隐藏的包级单例
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, github.com/go-redis/redis/v8
 * @refs service/kpi_mapping, service/compliance, service/pipeline
 */

package service

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"esghub-service/logger"
	"esghub-service/service/compliance"
	"esghub-service/service/database"
	"esghub-service/service/distributed_lock"
	"esghub-service/service/embedding"
	"esghub-service/service/ingest"
	"esghub-service/service/kpi_mapping"
	"esghub-service/service/notification"
	"esghub-service/service/pipeline"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB          *gorm.DB
	RedisClient *redis.Client

	GlobalEmbeddingClient     *embedding.Client
	GlobalDictionaryCache     *kpi_mapping.DictionaryCache
	GlobalMatcher             *kpi_mapping.Matcher
	GlobalGroupAnalyzer       *kpi_mapping.GroupAnalyzer
	GlobalEvaluator           *compliance.Evaluator
	GlobalReportGenerator     *compliance.ReportGenerator
	GlobalResultStore         *compliance.ResultStore
	GlobalComplianceScheduler *compliance.Scheduler
	GlobalOrchestrator        *pipeline.Orchestrator
	GlobalNotifier            *notification.Manager
	GlobalKafkaSource         *ingest.KafkaSource
	GlobalMQTTSource          *ingest.MQTTSource
)

func init() {
	logger.InitLogger()
	initDatabase()
	runMigrations()
	initRedis()
	initServices()
	startBackgroundComponents()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Tokyo",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	if err := database.InitializeData(DB); err != nil {
		log.Fatalf("字典种子数据初始化失败: %v", err)
	}
	log.Println("数据库迁移完成")
}

// initRedis 初始化Redis客户端，未配置时禁用缓存和分布式锁
func initRedis() {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		log.Println("未配置REDIS_HOST，合规结果缓存与分布式锁禁用")
		return
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, getEnvWithDefault("REDIS_PORT", "6379")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Redis连接失败，降级为无缓存模式: %v", err)
		RedisClient = nil
	}
}

// initServices 组装业务服务
func initServices() {
	GlobalEmbeddingClient = embedding.NewClient()

	dictionaryStore := kpi_mapping.NewDictionaryStore(DB)
	GlobalDictionaryCache = kpi_mapping.NewDictionaryCache(dictionaryStore, GlobalEmbeddingClient)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := GlobalDictionaryCache.Load(ctx); err != nil {
		log.Fatalf("字典缓存加载失败: %v", err)
	}

	GlobalGroupAnalyzer = kpi_mapping.NewGroupAnalyzer()
	GlobalMatcher = kpi_mapping.NewMatcher(GlobalEmbeddingClient, GlobalDictionaryCache)

	registry := compliance.NewStandardRegistry()
	GlobalEvaluator = compliance.NewEvaluator(registry, GlobalDictionaryCache)
	GlobalReportGenerator = compliance.NewReportGenerator(registry)
	GlobalResultStore = compliance.NewResultStore(DB, RedisClient)

	GlobalNotifier = notification.NewManager()
	if webhookURL := os.Getenv("NOTIFY_WEBHOOK_URL"); webhookURL != "" {
		GlobalNotifier.AddChannel(notification.NewWebhookChannel(webhookURL))
	}

	GlobalOrchestrator = pipeline.NewOrchestrator(
		GlobalGroupAnalyzer,
		GlobalMatcher,
		GlobalEvaluator,
		GlobalReportGenerator,
		GlobalResultStore,
	)

	GlobalComplianceScheduler = compliance.NewScheduler(
		DB, GlobalEvaluator, GlobalResultStore, GlobalNotifier,
		os.Getenv("COMPLIANCE_CHECK_CRON"),
	)
	if RedisClient != nil {
		GlobalComplianceScheduler.SetDistributedLock(distributed_lock.NewRedisLock(RedisClient))
	}
}

// startBackgroundComponents 启动调度器和可选数据源
func startBackgroundComponents() {
	if err := GlobalComplianceScheduler.Start(); err != nil {
		log.Fatalf("合规调度器启动失败: %v", err)
	}

	ctx := context.Background()

	if GlobalKafkaSource = ingest.NewKafkaSourceFromEnv(GlobalOrchestrator); GlobalKafkaSource != nil {
		GlobalKafkaSource.Start(ctx)
	}

	if GlobalMQTTSource = ingest.NewMQTTSourceFromEnv(GlobalOrchestrator); GlobalMQTTSource != nil {
		if err := GlobalMQTTSource.Start(ctx); err != nil {
			slog.Error("MQTT数据源启动失败", "error", err.Error())
			GlobalMQTTSource = nil
		}
	}
}
