package controller

import (
	"course_bot_backend/internal/service"
	"course_bot_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService  *service.CourseService
	PaymentService *service.PaymentService
}

func NewCourseController(courseService *service.CourseService, paymentService *service.PaymentService) *CourseController {
	return &CourseController{
		CourseService:  courseService,
		PaymentService: paymentService,
	}
}

// ListCourses godoc
// @Summary 课程列表
// @Description 获取全部已发布课程
// @Tags 课程
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	courses, err := c.CourseService.ListCourses()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// GetCourse godoc
// @Summary 课程详情
// @Description 获取课程及其课时列表
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	courseID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	course, err := c.CourseService.GetCourse(courseID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// CreateCourse godoc
// @Summary 创建课程
// @Description 管理端新建课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CourseCreateRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req service.CourseCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.CourseService.CreateCourse(req)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// AddLesson godoc
// @Summary 追加课时
// @Description 课时序号按当前数量顺延
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.LessonCreateRequest true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson} "创建成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/admin/courses/{id}/lessons [post]
func (c *CourseController) AddLesson(ctx *gin.Context) {
	courseID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	var req service.LessonCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	lesson, err := c.CourseService.AddLesson(courseID, req)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// AddQuiz godoc
// @Summary 追加测验
// @Description 为课程（或指定课时）追加一套测验题
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.QuizCreateRequest true "测验信息"
// @Success 201 {object} util.Response{data=model.Quiz} "创建成功"
// @Failure 400 {object} util.Response "题目或答案序号非法"
// @Router /api/admin/courses/{id}/quizzes [post]
func (c *CourseController) AddQuiz(ctx *gin.Context) {
	courseID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	var req service.QuizCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.CourseService.AddQuiz(courseID, req)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// GetLesson godoc
// @Summary 获取课时内容
// @Description 未解锁的课时返回 403
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Failure 403 {object} util.Response "课时未解锁"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/lessons/{id} [get]
func (c *CourseController) GetLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	lessonID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	lesson, err := c.CourseService.GetLesson(claims.UserID, lessonID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// CompleteLesson godoc
// @Summary 标记课时完成
// @Description 重复标记是幂等的
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "课时未解锁"
// @Router /api/lessons/{id}/complete [post]
func (c *CourseController) CompleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	lessonID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	if err := c.CourseService.CompleteLesson(claims.UserID, lessonID); err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"completed": true})
}

// DeleteLesson godoc
// @Summary 删除课时
// @Description 同时清理学员在该课时上的完成记录
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/admin/lessons/{id} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	lessonID, err := util.ParseUintParam(ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	if err := c.CourseService.DeleteLesson(lessonID); err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// PurchaseCourse godoc
// @Summary 购买课程
// @Description 记录一笔已完成的购买，解锁首个课时
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 201 {object} util.Response{data=model.Payment} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id}/purchase [post]
func (c *CourseController) PurchaseCourse(ctx *gin.Context) {
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
	payment, err := c.PaymentService.RecordPurchase(claims.UserID, courseID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Created(ctx, payment)
}

// ListMyPayments godoc
// @Summary 我的购买记录
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Payment} "成功"
// @Router /api/payments [get]
func (c *CourseController) ListMyPayments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	payments, err := c.PaymentService.ListByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, payments)
}
