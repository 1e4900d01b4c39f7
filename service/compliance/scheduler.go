/*
 * @module service/compliance/scheduler
 * @description 定时合规监控调度器，周期性重评已登记的(period,standard)检查并推送通知事件
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/compliance_req.md
 * @stateFlow 启动调度器 -> 加载登记 -> 定时评估 -> 事件通知
 * @rules 多实例部署时通过分布式锁防重；单个登记失败不影响其他登记
 * @dependencies github.com/robfig/cron/v3, esghub-service/service/distributed_lock
 * @refs evaluator.go, result_store.go, service/notification
 */

package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"esghub-service/service/distributed_lock"
	"esghub-service/service/models"
	"esghub-service/service/notification"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// 截止日临近判定窗口
const deadlineWarningWindow = 14 * 24 * time.Hour

// 登记未指定阈值时的默认置信度阈值
const defaultCheckThreshold = 0.5

// Scheduler 定时合规监控调度器
type Scheduler struct {
	db        *gorm.DB
	evaluator *Evaluator
	store     *ResultStore
	notifier  *notification.Manager
	cron      *cron.Cron
	cronSpec  string
	lock      distributed_lock.DistributedLock
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
}

// NewScheduler 创建合规调度器实例
func NewScheduler(db *gorm.DB, evaluator *Evaluator, store *ResultStore, notifier *notification.Manager, cronSpec string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if cronSpec == "" {
		// 每天早上8点
		cronSpec = "0 8 * * *"
	}
	return &Scheduler{
		db:        db,
		evaluator: evaluator,
		store:     store,
		notifier:  notifier,
		cron:      cron.New(),
		cronSpec:  cronSpec,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetDistributedLock 设置分布式锁
func (s *Scheduler) SetDistributedLock(lock distributed_lock.DistributedLock) {
	s.lock = lock
	if lock != nil {
		slog.Info("合规调度器已启用分布式锁")
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	if s.started {
		return fmt.Errorf("合规调度器已经启动")
	}

	if _, err := s.cron.AddFunc(s.cronSpec, s.runScheduledChecks); err != nil {
		return fmt.Errorf("注册合规检查定时任务失败: %w", err)
	}
	s.cron.Start()
	s.started = true
	slog.Info("合规调度器启动完成", "cron", s.cronSpec)
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}
	s.cron.Stop()
	s.cancel()
	s.started = false
	slog.Info("合规调度器已停止")
}

// Register 登记定时合规检查
func (s *Scheduler) Register(ctx context.Context, registration *models.ComplianceCheckRegistration) error {
	if registration.Period == "" || registration.Standard == "" {
		return models.NewValidationError("registration", "period和standard不能为空")
	}
	if err := s.db.WithContext(ctx).Create(registration).Error; err != nil {
		return &models.PersistenceError{Operation: "register_compliance_check", Cause: err}
	}
	return nil
}

// runScheduledChecks 执行全部已登记的检查
func (s *Scheduler) runScheduledChecks() {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Minute)
	defer cancel()

	if s.lock != nil {
		acquired, err := s.lock.TryLock(ctx, "compliance_scheduled_checks", 10*time.Minute)
		if err != nil || !acquired {
			slog.Info("合规定时检查由其他实例执行，本实例跳过")
			return
		}
		defer func() {
			if err := s.lock.Unlock(ctx, "compliance_scheduled_checks"); err != nil {
				slog.Warn("释放合规检查锁失败", "error", err.Error())
			}
		}()
	}

	var registrations []models.ComplianceCheckRegistration
	if err := s.db.WithContext(ctx).Where("is_enabled = ?", true).Find(&registrations).Error; err != nil {
		slog.Error("加载合规检查登记失败", "error", err.Error())
		return
	}

	for _, registration := range registrations {
		if err := s.runCheck(ctx, &registration); err != nil {
			slog.Error("定时合规检查失败",
				"period", registration.Period,
				"standard", registration.Standard,
				"error", err.Error())
		}
	}
}

// runCheck 执行单个登记的合规检查并按结果通知
func (s *Scheduler) runCheck(ctx context.Context, registration *models.ComplianceCheckRegistration) error {
	threshold := registration.MinConfidenceThreshold
	if threshold <= 0 {
		threshold = defaultCheckThreshold
	}
	ruleSet := &models.ComplianceRuleSet{
		Standard:               registration.Standard,
		RequiredCategories:     registration.Categories,
		MinConfidenceThreshold: threshold,
	}

	result, _, err := s.store.GetOrCompute(ctx, registration.Period, registration.Standard,
		func() (*models.ComplianceResult, error) {
			mappings, err := s.store.LoadMappings(ctx, registration.Period)
			if err != nil {
				return nil, err
			}
			return s.evaluator.Evaluate(mappings, ruleSet, registration.Period)
		})
	if err != nil {
		return err
	}

	if result.Status == models.StatusCritical {
		s.notifier.Notify(&notification.ComplianceEvent{
			Type:     notification.EventCriticalResult,
			Period:   result.Period,
			Standard: result.Standard,
			Severity: models.SeverityCritical,
			Message: fmt.Sprintf("合规检查存在 %d 项critical缺失，合规率 %.1f%%",
				result.CriticalMissingCount, result.ComplianceRate),
			Payload: models.JSONB{"missing_count": len(result.MissingKPIs)},
		})
	} else if len(result.MissingKPIs) > 0 {
		s.notifier.Notify(&notification.ComplianceEvent{
			Type:     notification.EventMissingKPI,
			Period:   result.Period,
			Standard: result.Standard,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("合规检查存在 %d 项缺失KPI", len(result.MissingKPIs)),
		})
	}

	if registration.Deadline != nil {
		remaining := time.Until(*registration.Deadline)
		if remaining > 0 && remaining <= deadlineWarningWindow && result.Status != models.StatusCompliant {
			s.notifier.Notify(&notification.ComplianceEvent{
				Type:     notification.EventApproachingDeadline,
				Period:   result.Period,
				Standard: result.Standard,
				Severity: models.SeverityWarning,
				Message: fmt.Sprintf("距离披露截止日还有 %d 天，当前状态 %s",
					int(remaining.Hours()/24), result.Status),
			})
		}
	}
	return nil
}
