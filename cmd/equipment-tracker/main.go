package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/equipment-tracker/api/swagger"
	"github.com/noah-isme/equipment-tracker/internal/handler"
	internalmiddleware "github.com/noah-isme/equipment-tracker/internal/middleware"
	"github.com/noah-isme/equipment-tracker/internal/repository"
	"github.com/noah-isme/equipment-tracker/internal/service"
	"github.com/noah-isme/equipment-tracker/pkg/cache"
	"github.com/noah-isme/equipment-tracker/pkg/config"
	"github.com/noah-isme/equipment-tracker/pkg/database"
	"github.com/noah-isme/equipment-tracker/pkg/jobs"
	"github.com/noah-isme/equipment-tracker/pkg/logger"
	corsmiddleware "github.com/noah-isme/equipment-tracker/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/equipment-tracker/pkg/middleware/requestid"
	"github.com/noah-isme/equipment-tracker/pkg/storage"
)

// @title Equipment Tracker API
// @version 1.0.0
// @description Inventory of equipment, maintenance and assignments
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

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewSQLite(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	defer db.Close()

	exportsStore, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		return fmt.Errorf("prepare exports dir: %w", err)
	}
	backupsStore, err := storage.NewLocalStorage(cfg.Backup.Dir)
	if err != nil {
		return fmt.Errorf("prepare backup dir: %w", err)
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	cacheSvc, closeCache := newCache(ctx, cfg, metricsSvc, logr)
	defer closeCache()

	app := buildServices(cfg, db, cacheSvc, metricsSvc, exportsStore, backupsStore, logr)

	// File housekeeping only: export pruning and optional backups. Domain
	// operations never go through the queue.
	queue := jobs.NewQueue("housekeeping", app.housekeeping.Handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()
	if err := queue.Every(cfg.Jobs.PruneInterval, service.JobPruneExports); err != nil {
		return err
	}
	if err := queue.Every(cfg.Jobs.BackupInterval, service.JobCreateBackup); err != nil {
		return err
	}

	router := buildRouter(cfg, db, app, metricsSvc, logr)

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "db", cfg.Database.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Jobs.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCache connects to Redis when caching is enabled. An unreachable server
// disables the cache instead of failing startup.
func newCache(ctx context.Context, cfg *config.Config, metricsSvc *service.MetricsService, logr *zap.Logger) (*service.CacheService, func()) {
	if !cfg.Dashboard.CacheEnabled {
		return service.NewCacheService(nil, metricsSvc, cfg.Dashboard.CacheTTL, logr, false), func() {}
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("cache disabled", zap.Error(err))
		return service.NewCacheService(nil, metricsSvc, cfg.Dashboard.CacheTTL, logr, false), func() {}
	}
	repo := repository.NewCacheRepository(client, "equipment-tracker:")
	logr.Info("cache enabled", zap.String("redis", cache.Addr(cfg.Redis)))
	closeFn := func() {
		if err := repo.Close(); err != nil {
			logr.Warn("close cache", zap.Error(err))
		}
	}
	return service.NewCacheService(repo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true), closeFn
}

type services struct {
	equipment    *service.EquipmentService
	maintenance  *service.MaintenanceService
	assignments  *service.AssignmentService
	reports      *service.ReportService
	scheduler    *service.MaintenanceScheduler
	dashboard    *service.DashboardService
	exports      *service.ExportService
	imports      *service.ImportService
	backups      *service.BackupService
	housekeeping *service.HousekeepingService
}

func buildServices(cfg *config.Config, db *sqlx.DB, cacheSvc *service.CacheService, metricsSvc *service.MetricsService, exportsStore, backupsStore *storage.LocalStorage, logr *zap.Logger) *services {
	validate := service.NewValidator()

	equipmentRepo := repository.NewEquipmentRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	app := &services{}
	app.equipment = service.NewEquipmentService(equipmentRepo, assignmentRepo, cacheSvc, validate, logr)
	app.maintenance = service.NewMaintenanceService(maintenanceRepo, equipmentRepo, cacheSvc, validate, logr)
	app.assignments = service.NewAssignmentService(assignmentRepo, equipmentRepo, cacheSvc, validate, logr)
	app.reports = service.NewReportService(equipmentRepo, maintenanceRepo, metricsSvc, validate, logr)
	app.scheduler = service.NewMaintenanceScheduler(equipmentRepo, maintenanceRepo, metricsSvc, service.SchedulerConfig{
		LookAheadDays:        cfg.Scheduler.LookAheadDays,
		DefaultIntervalDays:  cfg.Scheduler.DefaultIntervalDays,
		CategoryIntervalDays: cfg.Scheduler.CategoryIntervalDays,
	}, validate, logr)
	app.dashboard = service.NewDashboardService(reportRepo, maintenanceRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	app.exports = service.NewExportService(service.ExportServiceParams{
		Equipment:   equipmentRepo,
		Reports:     app.reports,
		Schedule:    app.scheduler,
		Storage:     exportsStore,
		PDFFontPath: cfg.Exports.PDFFontPath,
		Metrics:     metricsSvc,
		Validator:   validate,
		Logger:      logr,
	})
	app.imports = service.NewImportService(app.equipment, metricsSvc, logr)
	app.backups = service.NewBackupService(cfg.Database.Path, backupsStore, db, cacheSvc, logr)
	app.housekeeping = service.NewHousekeepingService(exportsStore, app.backups, cfg.Jobs.ExportsRetention, logr)
	return app
}

func buildRouter(cfg *config.Config, db *sqlx.DB, app *services, metricsSvc *service.MetricsService, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	equipmentHandler := handler.NewEquipmentHandler(app.equipment, app.maintenance, app.assignments)
	maintenanceHandler := handler.NewMaintenanceHandler(app.maintenance)
	assignmentHandler := handler.NewAssignmentHandler(app.assignments)
	reportHandler := handler.NewReportHandler(app.reports, app.scheduler)
	dashboardHandler := handler.NewDashboardHandler(app.dashboard)
	transferHandler := handler.NewTransferHandler(app.exports, app.imports, app.backups)

	api := r.Group(cfg.APIPrefix)
	api.GET("/catalog", equipmentHandler.Catalog)

	equipment := api.Group("/equipment")
	equipment.GET("", equipmentHandler.List)
	equipment.POST("", equipmentHandler.Create)
	equipment.GET("/lookup", equipmentHandler.LookupByQuery)
	equipment.GET("/lookup/:inventoryNumber", equipmentHandler.Lookup)
	equipment.GET("/:id", equipmentHandler.Get)
	equipment.PATCH("/:id", equipmentHandler.Update)
	equipment.DELETE("/:id", equipmentHandler.Delete)
	equipment.GET("/:id/maintenance", equipmentHandler.Maintenance)
	equipment.GET("/:id/assignments", equipmentHandler.Assignments)

	maintenance := api.Group("/maintenance")
	maintenance.POST("", maintenanceHandler.Create)
	maintenance.GET("/:id", maintenanceHandler.Get)
	maintenance.PATCH("/:id", maintenanceHandler.Update)
	maintenance.DELETE("/:id", maintenanceHandler.Delete)

	assignments := api.Group("/assignments")
	assignments.GET("", assignmentHandler.List)
	assignments.POST("", assignmentHandler.Create)
	assignments.GET("/:id", assignmentHandler.Get)
	assignments.PATCH("/:id", assignmentHandler.Update)
	assignments.DELETE("/:id", assignmentHandler.Delete)

	reports := api.Group("/reports")
	reports.GET("/maintenance", reportHandler.Maintenance)
	reports.GET("/maintenance/summary", reportHandler.MaintenanceSummary)
	reports.GET("/depreciation", reportHandler.Depreciation)
	api.GET("/maintenance-schedule", reportHandler.Schedule)

	api.GET("/dashboard", dashboardHandler.Summary)

	api.GET("/exports/:dataset", transferHandler.Export)
	api.POST("/imports/equipment", transferHandler.ImportEquipment)
	api.GET("/backups", transferHandler.ListBackups)
	api.POST("/backups", transferHandler.CreateBackup)
	api.POST("/backups/restore", transferHandler.RestoreBackup)

	return r
}
