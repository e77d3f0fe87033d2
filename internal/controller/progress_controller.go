package controller

import (
	"course_bot_backend/internal/service"
	"course_bot_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
	QuizService     *service.QuizService
}

func NewProgressController(progressService *service.ProgressService, quizService *service.QuizService) *ProgressController {
	return &ProgressController{
		ProgressService: progressService,
		QuizService:     quizService,
	}
}

// GetProgress godoc
// @Summary 课程进度
// @Description 当前学员在课程内已完成/总课时数
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.ProgressSummary} "成功"
// @Router /api/courses/{id}/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	summary, err := c.ProgressService.GetProgress(claims.UserID, courseID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// NextQuiz godoc
// @Summary 下一张未作答的卷子
// @Description 课程里的卷子全部答完时 data 为空
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Quiz} "成功"
// @Router /api/courses/{id}/quizzes/next [get]
func (c *ProgressController) NextQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	quiz, err := c.QuizService.NextUnansweredQuiz(claims.UserID, courseID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}
