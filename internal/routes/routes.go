package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pocketbook/pocketbook/internal/blob"
	"github.com/pocketbook/pocketbook/internal/config"
	"github.com/pocketbook/pocketbook/internal/docstore"
	"github.com/pocketbook/pocketbook/internal/identity"
	"github.com/pocketbook/pocketbook/internal/ledger"
	"github.com/pocketbook/pocketbook/internal/middleware"
	"github.com/pocketbook/pocketbook/internal/stats"
	"github.com/pocketbook/pocketbook/internal/transaction"
	"github.com/pocketbook/pocketbook/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Blobs  blob.Store
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var store docstore.Store
	if d.DB != nil {
		store = docstore.NewPostgres(d.DB)
	} else {
		store = docstore.NewMemory()
	}

	blobs := d.Blobs
	if blobs == nil {
		blobs = blob.StaticStore{}
	}

	walletRepo := wallet.NewRepository(store)
	txRepo := transaction.NewRepository(store)
	userRepo := identity.NewRepository(store)

	walletSvc := wallet.NewService(walletRepo, txRepo, blobs, d.Logger)
	ledgerSvc := ledger.NewService(store, walletRepo, txRepo, blobs)
	statsSvc := stats.NewService(txRepo)
	identitySvc := identity.NewService(userRepo, blobs)

	walletHandler := wallet.NewHandler(walletSvc)
	txHandler := ledger.NewHandler(ledgerSvc)
	statsHandler := stats.NewHandler(statsSvc)
	profileHandler := identity.NewHandler(identitySvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	protected := api.Group("", middleware.OwnerAuth([]byte(d.Cfg.JWTSecret)))
	protected.Use(middleware.WriteRateLimit(d.Cache, d.Cfg.WriteRatePerMin))

	RegisterWalletRoutes(protected, walletHandler)
	RegisterTransactionRoutes(protected, txHandler)
	RegisterStatsRoutes(protected, statsHandler)
	RegisterProfileRoutes(protected, profileHandler)

	return nil
}
