package app

import (
	"course_bot_backend/internal/config"
	"course_bot_backend/internal/middleware"
	"course_bot_backend/internal/model"
	"course_bot_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerLearnerRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 课程目录对游客可见，课时内容不可见
		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:id", c.course.GetCourse)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	// 课时：顺序解锁
	rg.GET("/lessons/:id", c.course.GetLesson)
	rg.POST("/lessons/:id/complete", c.course.CompleteLesson)

	// 购买与进度
	rg.POST("/courses/:id/purchase", c.course.PurchaseCourse)
	rg.GET("/payments", c.course.ListMyPayments)
	rg.GET("/courses/:id/progress", c.progress.GetProgress)

	// 测验会话
	rg.POST("/quizzes/:id/start", c.quiz.StartQuiz)
	rg.POST("/quizzes/:id/answer", c.quiz.SubmitAnswer)
	rg.GET("/quizzes/:id/next", c.quiz.NextQuestion)
	rg.POST("/quizzes/:id/submit", c.quiz.SubmitQuiz)
	rg.GET("/courses/:id/quizzes/next", c.progress.NextQuiz)
	rg.POST("/courses/:id/quizzes/restart", c.quiz.RestartCourse)

	// 结业与证书
	rg.GET("/courses/:id/summary", c.certificate.CourseSummary)
	rg.GET("/certificates", c.certificate.ListMyCertificates)
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.Teacher, model.Admin))
	{
		admin.POST("/courses", c.course.CreateCourse)
		admin.POST("/courses/:id/lessons", c.course.AddLesson)
		admin.POST("/courses/:id/quizzes", c.course.AddQuiz)
		admin.DELETE("/lessons/:id", c.course.DeleteLesson)
		admin.POST("/courses/:id/broadcast", c.notification.BroadcastToCourse)
	}
}
