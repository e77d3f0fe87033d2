package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course_bot_backend/internal/config"
	"course_bot_backend/internal/controller"
	"course_bot_backend/internal/repository"
	"course_bot_backend/internal/service"
	"course_bot_backend/internal/util"
	"course_bot_backend/pkg/database"
	"course_bot_backend/pkg/logger"
	"course_bot_backend/pkg/monitoring"
	"course_bot_backend/pkg/security"
	"course_bot_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	quiz        *repository.QuizRepository
	progress    *repository.ProgressRepository
	certificate *repository.CertificateRepository
	payment     *repository.PaymentRepository
}

type services struct {
	auth         *service.AuthService
	payment      *service.PaymentService
	progress     *service.ProgressService
	access       *service.AccessService
	certificate  *service.CertificateService
	completion   *service.CompletionService
	quiz         *service.QuizService
	course       *service.CourseService
	translator   *service.Translator
	notification *service.NotificationService
}

type controllers struct {
	auth         *controller.AuthController
	course       *controller.CourseController
	quiz         *controller.QuizController
	progress     *controller.ProgressController
	certificate  *controller.CertificateController
	notification *controller.NotificationController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) ConfigCallbacks() []func(*config.Config) {
	return a.configCallbacks
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		quiz:        repository.NewQuizRepository(db),
		progress:    repository.NewProgressRepository(db),
		certificate: repository.NewCertificateRepository(db),
		payment:     repository.NewPaymentRepository(db),
	}
}

// sessionStore 答题会话存储：单实例默认内存，多实例部署切 Redis
func (a *App) sessionStore(cfg *config.Config, rdb *redis.Client) service.SessionStore {
	if cfg.Session.Store == util.SessionStoreRedis {
		logger.Log.Info("quiz sessions backed by redis", zap.String("keyPrefix", cfg.Session.KeyPrefix))
		return service.NewRedisSessionStore(rdb, cfg.Session.KeyPrefix)
	}
	logger.Log.Info("quiz sessions backed by process memory")
	return service.NewMemorySessionStore()
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	storage, err := service.NewStorageProvider(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize storage provider", zap.Error(err))
	}
	translator, err := service.NewTranslator(cfg.I18n.CatalogPath, cfg.I18n.DefaultLanguage, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to load i18n catalogs", zap.Error(err))
	}
	s.translator = translator

	s.auth = service.NewAuthService(repos.user, cfg)
	s.payment = service.NewPaymentService(repos.payment, repos.course)
	s.progress = service.NewProgressService(repos.progress, repos.course)
	s.access = service.NewAccessService(repos.user, repos.course, s.progress, s.payment)
	s.certificate = service.NewCertificateService(repos.certificate, repos.user, repos.course, storage, service.TextRenderer{})
	s.completion = service.NewCompletionService(repos.quiz, s.certificate)
	s.quiz = service.NewQuizService(repos.quiz, a.sessionStore(cfg, rdb), s.access, s.completion)
	s.course = service.NewCourseService(repos.course, repos.quiz, s.access, s.progress)
	s.notification = service.NewNotificationService(repos.user, &service.LogMessageSender{Logger: logger.Log}, translator, logger.Log)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client, cfg *config.Config) *controllers {
	var healthRedis *redis.Client
	if cfg.Session.Store == util.SessionStoreRedis {
		healthRedis = rdb
	}
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		course:       controller.NewCourseController(s.course, s.payment),
		quiz:         controller.NewQuizController(s.quiz, s.access),
		progress:     controller.NewProgressController(s.progress, s.quiz),
		certificate:  controller.NewCertificateController(s.completion, s.certificate),
		notification: controller.NewNotificationController(s.notification),
		health:       controller.NewHealthController(db, healthRedis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	// 会话存内存时 Redis 可选；配置了就连，连不上再报错
	var rdb *redis.Client
	if cfg.Session.Store == util.SessionStoreRedis || cfg.Redis.Host != "" {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			if cfg.Session.Store == util.SessionStoreRedis {
				logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			}
			logger.Log.Warn("redis unavailable, continuing without it", zap.Error(err))
			rdb = nil
		}
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb, cfg)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("course-bot", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
