/*
 * @module service/distributed_lock/redis_lock
 * @description Redis分布式锁，多实例部署时防止定时合规检查重复执行
 * @architecture 工具层 - 提供分布式锁能力
 * @documentReference ai_docs/compliance_req.md
 * @stateFlow 获取锁 -> 执行检查 -> 释放锁/自动过期
 * @rules 使用Redis SET NX实现，持有者校验后才释放
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/compliance/scheduler.go, service/init.go
 */

package distributed_lock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// DistributedLock 分布式锁接口
type DistributedLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// RedisLock Redis分布式锁实现
type RedisLock struct {
	client     *redis.Client
	instanceID string
}

// NewRedisLock 基于已有Redis客户端创建分布式锁
func NewRedisLock(client *redis.Client) *RedisLock {
	hostname, _ := os.Hostname()
	return &RedisLock{
		client:     client,
		instanceID: fmt.Sprintf("%s:%d", hostname, os.Getpid()),
	}
}

// TryLock 尝试获取锁，SET NX语义
func (l *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, lockKey(key), l.instanceID, ttl).Result()
}

// Unlock 释放锁，仅持有者可释放
func (l *RedisLock) Unlock(ctx context.Context, key string) error {
	holder, err := l.client.Get(ctx, lockKey(key)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if holder != l.instanceID {
		return fmt.Errorf("锁 %s 由其他实例 %s 持有", key, holder)
	}
	return l.client.Del(ctx, lockKey(key)).Err()
}

func lockKey(key string) string {
	return "esghub:lock:" + key
}
