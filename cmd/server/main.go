package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wms-backend/internal/audit"
	"wms-backend/internal/auth"
	"wms-backend/internal/bin"
	"wms-backend/internal/clock"
	"wms-backend/internal/config"
	"wms-backend/internal/dashboard"
	"wms-backend/internal/database"
	"wms-backend/internal/i18n"
	"wms-backend/internal/inventory"
	"wms-backend/internal/jobs"
	"wms-backend/internal/logger"
	"wms-backend/internal/middleware"
	"wms-backend/internal/movement"
	"wms-backend/internal/notify"
	"wms-backend/internal/product"
	"wms-backend/internal/reports"
	"wms-backend/internal/reservation"
	"wms-backend/internal/supplier"
	"wms-backend/internal/telemetry"
	"wms-backend/internal/transfer"
	"wms-backend/internal/users"
	"wms-backend/internal/warehouse"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	log := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = log.Sync() }()

	for _, w := range cfg.Warnings() {
		log.Warn("configuration", zap.String("warning", w))
	}
	if err := clock.SetLocation(cfg.Timezone); err != nil {
		log.Fatal("timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Fatal("telemetry setup", zap.Error(err))
	}

	if err := database.Init(cfg, logger.Named(log, "gorm")); err != nil {
		log.Fatal("database", zap.Error(err))
	}

	runner := jobs.NewRunner(&jobs.Deps{
		DB:     database.DB,
		Config: cfg,
		Mailer: notify.NewGatewayClient(cfg.Email),
	}, jobs.Default(), logger.Named(log, "jobs"))
	scheduler := jobs.NewScheduler(runner, clock.Location, logger.Named(log, "scheduler"))
	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(); err != nil {
			log.Fatal("scheduler", zap.Error(err))
		}
	}

	app := newApp(cfg, log, scheduler)

	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTPPort))
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if err := scheduler.Stop(sctx); err != nil {
		log.Error("scheduler shutdown", zap.Error(err))
	}
	if err := shutdownTracing(sctx); err != nil {
		log.Error("telemetry shutdown", zap.Error(err))
	}
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		var fv *inventory.FefoViolationError
		if errors.As(err, &fv) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":              fv.Error(),
				"error_code":         "FEFO_VIOLATION",
				"oldest_bin_code":    fv.OldestBinCode,
				"oldest_use_by_date": fv.OldestUseByDate,
			})
		}
		log.Error("unexpected error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": i18n.T("internal_error"),
		})
	}
}

func newApp(cfg *config.Config, log *zap.Logger, scheduler *jobs.Scheduler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.ServiceName,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	if cfg.Telemetry.OTLPEndpoint != "" {
		app.Use(middleware.Tracing())
	}
	app.Use(middleware.RequestLogger(logger.Named(log, "http")))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition, Retry-After",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	registerRoutes(app, cfg, scheduler)
	return app
}

func registerRoutes(app *fiber.App, cfg *config.Config, scheduler *jobs.Scheduler) {
	rl := cfg.RateLimit
	api := app.Group("/api/v1")

	// Public auth
	authRoutes := api.Group("/auth", middleware.AuthLimiter(rl))
	authRoutes.Post("/login", auth.LoginHandler(cfg))
	authRoutes.Post("/refresh", auth.RefreshHandler(cfg))
	authRoutes.Post("/bootstrap-admin", auth.BootstrapAdminHandler())

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))
	protected.Use(middleware.ReadLimiter(rl), middleware.WriteLimiter(rl))

	viewer := auth.RequireViewer()
	staff := auth.RequireWarehouse()
	manager := auth.RequireManager()
	admin := auth.RequireAdmin()
	bulk := middleware.BulkLimiter(rl)

	protected.Get("/auth/me", auth.MeHandler())

	// Felhasználók
	protected.Get("/users", admin, users.ListUsersHandler())
	protected.Post("/users", admin, users.CreateUserHandler())
	protected.Get("/users/:id", admin, users.GetUserHandler())
	protected.Put("/users/:id", admin, users.UpdateUserHandler())
	protected.Delete("/users/:id", admin, users.DeleteUserHandler())

	// Raktárak
	protected.Get("/warehouses", viewer, warehouse.ListWarehousesHandler())
	protected.Post("/warehouses", manager, warehouse.CreateWarehouseHandler())
	protected.Get("/warehouses/:id", viewer, warehouse.GetWarehouseHandler())
	protected.Get("/warehouses/:id/stats", viewer, warehouse.WarehouseStatsHandler())
	protected.Put("/warehouses/:id", manager, warehouse.UpdateWarehouseHandler())
	protected.Delete("/warehouses/:id", admin, warehouse.DeleteWarehouseHandler())

	// Tárolóhelyek
	protected.Get("/bins", viewer, bin.ListBinsHandler())
	protected.Post("/bins", staff, bin.CreateBinHandler())
	protected.Post("/bins/bulk/preview", manager, bulk, bin.PreviewBulkHandler())
	protected.Post("/bins/bulk", manager, bulk, bin.CreateBulkHandler())
	protected.Post("/bins/bulk-delete", staff, bulk, bin.BulkDeleteHandler())
	protected.Post("/bins/bulk-archive", staff, bulk, bin.BulkArchiveHandler())
	protected.Get("/bins/:id", viewer, bin.GetBinHandler())
	protected.Get("/bins/:id/capacity", viewer, bin.CapacityHandler())
	protected.Get("/bins/:id/history", viewer, bin.HistoryHandler())
	protected.Put("/bins/:id", staff, bin.UpdateBinHandler())
	protected.Delete("/bins/:id", staff, bin.DeleteBinHandler())
	protected.Post("/bins/:id/archive", staff, bin.ArchiveBinHandler())
	protected.Post("/bins/:id/restore", staff, bin.RestoreBinHandler())

	// Termékek
	protected.Get("/products", viewer, product.ListProductsHandler())
	protected.Post("/products", manager, product.CreateProductHandler())
	protected.Post("/products/import", manager, bulk, product.ImportProductsHandler())
	protected.Get("/products/:id", viewer, product.GetProductHandler())
	protected.Put("/products/:id", manager, product.UpdateProductHandler())
	protected.Delete("/products/:id", manager, product.DeleteProductHandler())

	// Beszállítók
	protected.Get("/suppliers", viewer, supplier.ListSuppliersHandler())
	protected.Post("/suppliers", manager, supplier.CreateSupplierHandler())
	protected.Get("/suppliers/:id", viewer, supplier.GetSupplierHandler())
	protected.Put("/suppliers/:id", manager, supplier.UpdateSupplierHandler())
	protected.Delete("/suppliers/:id", manager, supplier.DeleteSupplierHandler())

	// Készlet
	protected.Post("/inventory/receive", staff, inventory.ReceiveHandler())
	protected.Post("/inventory/issue", staff, inventory.IssueHandler())
	protected.Post("/inventory/adjust", manager, inventory.AdjustHandler())
	protected.Post("/inventory/scrap", manager, inventory.ScrapHandler())
	protected.Get("/inventory/stock-levels", viewer, inventory.StockLevelsHandler())
	protected.Get("/inventory/stock-levels/export", viewer, bulk, inventory.ExportStockLevelsHandler())
	protected.Get("/inventory/fefo-recommendation", viewer, inventory.FefoRecommendationHandler())
	protected.Post("/inventory/fefo-recommendation", viewer, inventory.FefoRecommendationHandler())
	protected.Get("/inventory/expiry-warnings", viewer, inventory.ExpiryWarningsHandler())
	protected.Get("/inventory/expired", viewer, inventory.ExpiredHandler())
	protected.Get("/inventory/cmr-check", viewer, inventory.CMRCheckHandler())

	// Mozgások
	protected.Get("/movements", viewer, movement.ListMovementsHandler())
	protected.Get("/movements/:id", viewer, movement.GetMovementHandler())

	// Áthelyezések
	protected.Post("/transfers", staff, transfer.CreateTransferHandler())
	protected.Post("/transfers/cross-warehouse", manager, transfer.CreateCrossWarehouseHandler())
	protected.Get("/transfers", viewer, transfer.ListTransfersHandler())
	protected.Get("/transfers/pending", viewer, transfer.PendingTransfersHandler())
	protected.Get("/transfers/:id", viewer, transfer.GetTransferHandler())
	protected.Post("/transfers/:id/dispatch", staff, transfer.DispatchHandler())
	protected.Post("/transfers/:id/confirm", staff, transfer.ConfirmHandler())
	protected.Delete("/transfers/:id", manager, transfer.CancelHandler())

	// Foglalások
	protected.Post("/reservations", staff, reservation.CreateReservationHandler())
	protected.Get("/reservations", viewer, reservation.ListReservationsHandler())
	protected.Get("/reservations/expiring", viewer, reservation.ExpiringReservationsHandler())
	protected.Get("/reservations/:id", viewer, reservation.GetReservationHandler())
	protected.Post("/reservations/:id/fulfill", staff, reservation.FulfillReservationHandler())
	protected.Delete("/reservations/:id", manager, reservation.CancelReservationHandler())

	// Irányítópult
	protected.Get("/dashboard/stats", viewer, dashboard.StatsHandler())
	protected.Get("/dashboard/charts", viewer, dashboard.ChartsHandler())

	// Riportok
	reportRoutes := protected.Group("/reports", middleware.ReportsLimiter(rl))
	reportRoutes.Get("/inventory-summary", viewer, reports.InventorySummaryHandler())
	reportRoutes.Get("/inventory-summary/export", viewer, reports.ExportInventorySummaryHandler())
	reportRoutes.Get("/product-locations", viewer, reports.ProductLocationsHandler())
	reportRoutes.Get("/occupancy-history", viewer, reports.OccupancyHistoryHandler())

	// Háttérfeladatok
	protected.Post("/jobs/trigger", admin, jobs.TriggerHandler(scheduler))
	protected.Get("/jobs/status/:task_id", manager, jobs.StatusHandler())
	protected.Get("/jobs/executions", manager, jobs.ListExecutionsHandler())
	protected.Get("/jobs/executions/:id", manager, jobs.GetExecutionHandler())

	// Audit logs
	protected.Get("/audit-logs", admin, audit.ListAuditLogsHandler())
	protected.Post("/audit-logs/:id/undo", admin, audit.UndoAuditLogHandler())
}
