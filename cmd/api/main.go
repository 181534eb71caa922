package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/unilab-dev/uni-records-api/api/swagger"
	"github.com/unilab-dev/uni-records-api/internal/handler"
	internalmiddleware "github.com/unilab-dev/uni-records-api/internal/middleware"
	"github.com/unilab-dev/uni-records-api/internal/repository"
	"github.com/unilab-dev/uni-records-api/internal/service"
	"github.com/unilab-dev/uni-records-api/pkg/cache"
	"github.com/unilab-dev/uni-records-api/pkg/config"
	"github.com/unilab-dev/uni-records-api/pkg/database"
	"github.com/unilab-dev/uni-records-api/pkg/logger"
	corsmiddleware "github.com/unilab-dev/uni-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unilab-dev/uni-records-api/pkg/middleware/requestid"
)

// @title University Records API
// @version 1.0.0
// @description Students, groups, disciplines and exam records service
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	ctx := context.Background()
	start := time.Now()
	if err := database.InitSchema(ctx, db); err != nil {
		logr.Sugar().Fatalw("failed to initialize schema", "error", err)
	}
	metricsSvc.ObserveDBQuery("init_schema", time.Since(start))
	if cfg.Database.SeedOnInit {
		start = time.Now()
		if err := database.Seed(ctx, db); err != nil {
			logr.Sugar().Fatalw("failed to seed reference data", "error", err)
		}
		metricsSvc.ObserveDBQuery("seed", time.Since(start))
	}

	statsCache := repository.NewStatsCache(nil, logr)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, exam stats served without cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			statsCache = repository.NewStatsCache(redisClient, logr)
		}
	}

	validate := validator.New()

	groupRepo := repository.NewGroupRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	disciplineRepo := repository.NewDisciplineRepository(db)
	examRepo := repository.NewExamRepository(db)

	groupSvc := service.NewGroupService(groupRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	disciplineSvc := service.NewDisciplineService(disciplineRepo, logr)
	examSvc := service.NewExamService(examRepo, studentRepo, disciplineRepo, statsCache, cfg.Stats.CacheTTL, logr)
	exportSvc := service.NewExportService(studentRepo, examSvc, logr)

	groupHandler := handler.NewGroupHandler(groupSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	disciplineHandler := handler.NewDisciplineHandler(disciplineSvc)
	examHandler := handler.NewExamHandler(examSvc, exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/groups", groupHandler.List)
		api.POST("/groups", groupHandler.Create)
		api.DELETE("/groups/:id", groupHandler.Delete)

		api.GET("/disciplines", disciplineHandler.List)
		api.POST("/disciplines", disciplineHandler.Create)

		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)

		api.GET("/students/:id/exams", examHandler.ListForStudent)
		api.GET("/students/:id/exams/stats", examHandler.Stats)
		api.GET("/students/:id/exams/export", examHandler.Export)

		api.POST("/exams", examHandler.Create)
		api.GET("/exams/:id", examHandler.Get)
		api.PUT("/exams/:id", examHandler.Update)
		api.DELETE("/exams/:id", examHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
