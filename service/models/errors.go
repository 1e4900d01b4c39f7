/*
 * @module service/models/errors
 * @description 错误分类定义：校验错误、嵌入服务错误、未知标准错误、持久化错误
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 错误产生 -> 按类型传播 -> API边界统一处理
 * @rules 校验错误在公共边界快速失败；服务错误按分组隔离；无匹配不是错误
 * @dependencies errors, fmt
 * @refs service/kpi_mapping, service/compliance, api/controllers
 */

package models

import (
	"errors"
	"fmt"
)

// ValidationError 输入校验错误，处理开始前即被拒绝
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("输入校验失败: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("输入校验失败: %s", e.Message)
}

// NewValidationError 创建校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ProviderError 嵌入服务错误，按分组隔离，不中断批次
type ProviderError struct {
	Provider    string
	StatusCode  int
	RateLimited bool
	Cause       error
}

func (e *ProviderError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("嵌入服务 %s 限流 (status=%d): %v", e.Provider, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("嵌入服务 %s 调用失败 (status=%d): %v", e.Provider, e.StatusCode, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// InvalidStandardError 未知合规标准错误
type InvalidStandardError struct {
	Standard string
}

func (e *InvalidStandardError) Error() string {
	return fmt.Sprintf("未知的合规标准: %s", e.Standard)
}

// PersistenceError 存储协作方错误
type PersistenceError struct {
	Operation string
	Cause     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("持久化操作 %s 失败: %v", e.Operation, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// IsValidationError 判断是否为校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsProviderError 判断是否为嵌入服务错误
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsRateLimitError 判断是否为限流错误
func IsRateLimitError(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.RateLimited
	}
	return false
}

// IsInvalidStandardError 判断是否为未知标准错误
func IsInvalidStandardError(err error) bool {
	var ie *InvalidStandardError
	return errors.As(err, &ie)
}
