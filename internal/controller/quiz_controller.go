package controller

import (
	"strconv"

	"course_bot_backend/internal/service"
	"course_bot_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService   *service.QuizService
	AccessService *service.AccessService
}

func NewQuizController(quizService *service.QuizService, accessService *service.AccessService) *QuizController {
	return &QuizController{
		QuizService:   quizService,
		AccessService: accessService,
	}
}

func (c *QuizController) gate(ctx *gin.Context, userID, quizID uint) bool {
	quiz, err := c.QuizService.GetQuiz(quizID)
	if err != nil {
		util.DomainError(ctx, err)
		return false
	}
	allowed, err := c.AccessService.CanAccessQuiz(userID, quiz.CourseID, quiz.LessonID)
	if err != nil {
		util.DomainError(ctx, err)
		return false
	}
	if !allowed {
		util.DomainError(ctx, util.ErrLessonLocked)
		return false
	}
	return true
}

// StartQuiz godoc
// @Summary 开始测验
// @Description 创建答题会话并返回第一题；已有会话被覆盖
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.QuestionView} "成功"
// @Failure 403 {object} util.Response "前置课时未完成"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/{id}/start [post]
func (c *QuizController) StartQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	if !c.gate(ctx, claims.UserID, quizID) {
		return
	}
	view, err := c.QuizService.Start(ctx.Request.Context(), claims.UserID, quizID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// AnswerRequest 逐题作答（聊天端按钮回调的等价载荷）
type AnswerRequest struct {
	QuestionIndex int `json:"questionIndex" binding:"min=0"`
	Option        int `json:"option" binding:"min=0"`
}

// SubmitAnswer godoc
// @Summary 提交一题
// @Description 题号与活动会话不符的陈旧提交返回 409
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Param   body body AnswerRequest true "作答"
// @Success 200 {object} util.Response{data=service.SubmitFeedback} "成功"
// @Failure 409 {object} util.Response "会话不存在或已推进"
// @Router /api/quizzes/{id}/answer [post]
func (c *QuizController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	fb, err := c.QuizService.Submit(ctx.Request.Context(), claims.UserID, quizID, req.QuestionIndex, req.Option)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, fb)
}

// NextQuestion godoc
// @Summary 当前待答题
// @Description 重新渲染会话当前指向的题目，不记录作答
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Param   index query int true "题号"
// @Success 200 {object} util.Response{data=service.QuestionView} "成功"
// @Failure 409 {object} util.Response "会话不存在或题号不符"
// @Router /api/quizzes/{id}/next [get]
func (c *QuizController) NextQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	index, convErr := strconv.Atoi(ctx.DefaultQuery("index", "0"))
	if convErr != nil {
		util.DomainError(ctx, util.ErrInvalidInput)
		return
	}
	view, err := c.QuizService.Next(ctx.Request.Context(), claims.UserID, quizID, index)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// SubmitQuizRequest 整卷提交
type SubmitQuizRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

// SubmitQuiz godoc
// @Summary 整卷提交
// @Description 非交互式入口；已作答过的卷子返回 409，课程测验答尽时附带结业判定
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Param   body body SubmitQuizRequest true "全部作答"
// @Success 200 {object} util.Response{data=service.BulkResult} "成功"
// @Failure 409 {object} util.Response "该卷已作答"
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) SubmitQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	if !c.gate(ctx, claims.UserID, quizID) {
		return
	}
	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.QuizService.SubmitQuiz(ctx.Request.Context(), claims.UserID, quizID, req.Answers)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// RestartCourse godoc
// @Summary 课程重考
// @Description 清空课程内全部作答记录并从第一张卷子重新开卷
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.QuestionView} "成功"
// @Failure 403 {object} util.Response "课程未解锁"
// @Failure 404 {object} util.Response "课程没有测验"
// @Router /api/courses/{id}/quizzes/restart [post]
func (c *QuizController) RestartCourse(ctx *gin.Context) {
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
	view, err := c.QuizService.Restart(ctx.Request.Context(), claims.UserID, courseID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
