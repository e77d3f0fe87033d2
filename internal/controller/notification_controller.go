package controller

import (
	"course_bot_backend/internal/service"
	"course_bot_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationService *service.NotificationService
}

func NewNotificationController(notificationService *service.NotificationService) *NotificationController {
	return &NotificationController{NotificationService: notificationService}
}

// BroadcastRequest 群发请求：key 为文案目录里的词条键
type BroadcastRequest struct {
	Key    string            `json:"key" binding:"required"`
	Params map[string]string `json:"params"`
}

// BroadcastToCourse godoc
// @Summary 课程群发
// @Description 给课程内有学习记录的学员逐个投递；单个失败不中断
// @Tags 通知
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body BroadcastRequest true "文案键与占位参数"
// @Success 200 {object} util.Response{data=service.BroadcastReport} "成功"
// @Router /api/admin/courses/{id}/broadcast [post]
func (c *NotificationController) BroadcastToCourse(ctx *gin.Context) {
	courseID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	var req BroadcastRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	report, err := c.NotificationService.BroadcastToCourse(courseID, req.Key, req.Params)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, report)
}
