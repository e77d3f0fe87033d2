// @title Course Bot 后端 API
// @version 1.0
// @description 聊天端课程机器人的后端服务：顺序解锁课时、答题会话与结业证书。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"course_bot_backend/internal/app"
	"course_bot_backend/internal/config"
	"course_bot_backend/pkg/configwatcher"
	"course_bot_backend/pkg/logger"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	// 配置热更新：变更时回放给已注册的回调
	go configwatcher.WatchConfig("configs/config.yaml", func(updated *config.Config) {
		for _, cb := range application.ConfigCallbacks() {
			cb(updated)
		}
	})

	application.Run()
}
