package util

import (
	"errors"
	"net/http"

	"course_bot_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// DomainError 按错误类别映射 HTTP 状态码；未识别的错误按持久化故障处理
func DomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrCourseNotFound),
		errors.Is(err, ErrLessonNotFound),
		errors.Is(err, ErrQuizNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrLessonLocked),
		errors.Is(err, ErrCourseNotPurchased):
		Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidSessionState),
		errors.Is(err, ErrNoActiveSession):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrQuizzesRemaining),
		errors.Is(err, ErrQuizAlreadyTaken),
		errors.Is(err, ErrCourseNotPassed):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrEmailRegistered):
		BadRequest(c, err.Error())
	default:
		LogInternalError(c, err)
	}
}
