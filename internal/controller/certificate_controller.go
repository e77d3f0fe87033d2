package controller

import (
	"course_bot_backend/internal/service"
	"course_bot_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	CompletionService  *service.CompletionService
	CertificateService *service.CertificateService
}

func NewCertificateController(completionService *service.CompletionService, certificateService *service.CertificateService) *CertificateController {
	return &CertificateController{
		CompletionService:  completionService,
		CertificateService: certificateService,
	}
}

// CourseSummary godoc
// @Summary 课程结业小结
// @Description 对已答完全部卷子的课程重算结业判定；证书签发是幂等的，
// @Description 答完瞬间签发失败的学员从这里重试
// @Tags 证书
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CompletionOutcome} "成功"
// @Failure 409 {object} util.Response "课程还有未作答的卷子"
// @Router /api/courses/{id}/summary [get]
func (c *CertificateController) CourseSummary(ctx *gin.Context) {
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
	outcome, err := c.CompletionService.OnCourseQuizzesExhausted(ctx.Request.Context(), claims.UserID, courseID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}
	util.Success(ctx, outcome)
}

// ListMyCertificates godoc
// @Summary 我的证书
// @Tags 证书
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Certificate} "成功"
// @Router /api/certificates [get]
func (c *CertificateController) ListMyCertificates(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	certs, err := c.CertificateService.ListByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}
