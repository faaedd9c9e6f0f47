package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/krishnacouponstore/code-sub002/internal/auth"
	"github.com/krishnacouponstore/code-sub002/internal/gateway"
	"github.com/krishnacouponstore/code-sub002/internal/guard"
	"github.com/krishnacouponstore/code-sub002/internal/handler"
	adminhandler "github.com/krishnacouponstore/code-sub002/internal/handler/admin"
	"github.com/krishnacouponstore/code-sub002/internal/infra"
	"github.com/krishnacouponstore/code-sub002/internal/repository"
	"github.com/krishnacouponstore/code-sub002/internal/service"
	"github.com/krishnacouponstore/code-sub002/internal/settlement"
	"github.com/krishnacouponstore/code-sub002/internal/topup"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	Config *infra.Config
	JWTMgr *auth.JWTManager
	Logger *slog.Logger
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	cfg := deps.Config
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Repositories
	userRepo := repository.NewUserRepository()
	slotRepo := repository.NewSlotRepository()
	couponRepo := repository.NewCouponRepository()
	purchaseRepo := repository.NewPurchaseRepository()
	topupRepo := repository.NewTopupRepository()
	outboxRepo := repository.NewOutboxRepository()
	txRunner := repository.NewTxRunner(pool)

	// Gateway client and guards
	gatewayClient := gateway.NewHTTPClient(
		cfg.GatewayBaseURL,
		cfg.GatewayUserToken,
		cfg.GatewayRedirectURL,
		time.Duration(cfg.GatewayTimeoutSec)*time.Second,
	)
	breaker := guard.NewCircuitBreaker(5, 30*time.Second)
	topupLimiter := guard.NewRateLimiter(10, time.Minute)

	// Engines
	settlementEngine := settlement.NewEngine(txRunner, userRepo, slotRepo, couponRepo, purchaseRepo, outboxRepo, logger)
	topupSvc := topup.NewService(
		txRunner, pool, userRepo, topupRepo, outboxRepo,
		gatewayClient, breaker,
		topup.Bounds{Min: cfg.TopupMinAmount, Max: cfg.TopupMaxAmount},
		logger,
	)
	authSvc := service.NewAuthService(pool, userRepo, jwtMgr)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	purchaseHandler := handler.NewPurchaseHandler(settlementEngine, slotRepo, purchaseRepo, couponRepo, pool)
	topupHandler := handler.NewTopupHandler(topupSvc, topupLimiter)
	walletHandler := handler.NewWalletHandler(userRepo, topupRepo, pool)
	webhookHandler := handler.NewWebhookHandler(topupSvc, logger)

	// Admin handlers
	slotAdmin := adminhandler.NewSlotAdminHandler(slotRepo, couponRepo, pool)
	reportsAdmin := adminhandler.NewReportsHandler(purchaseRepo, topupRepo, pool)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS)

	// Webhooks (no auth, no JSON content-type middleware: the gateway may
	// post form-urlencoded bodies)
	r.Post("/webhooks/payment", webhookHandler.HandlePaymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(handler.JSONContentType)

		// Health (no auth)
		r.Get("/health", handler.HealthHandler(pool))

		// Auth routes (no auth)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthenticateUser(jwtMgr))

			r.Post("/purchases", purchaseHandler.Create)
			r.Get("/purchases/me", purchaseHandler.ListMine)

			r.Route("/topups", func(r chi.Router) {
				r.Post("/order", topupHandler.CreateOrder)
				r.Post("/status", topupHandler.CheckStatus)
			})

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/balance", walletHandler.GetBalance)
				r.Get("/topups", walletHandler.ListTopups)
			})
		})

		// Admin-authenticated routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.AuthenticateAdmin(jwtMgr))

			r.Route("/slots", func(r chi.Router) {
				r.Get("/", slotAdmin.ListSlots)
				r.Post("/", slotAdmin.CreateSlot)
				r.Post("/{slotID}/tiers", slotAdmin.AddTier)
				r.Post("/{slotID}/coupons", slotAdmin.UploadCoupons)
			})

			r.Get("/reports/revenue", reportsAdmin.GetRevenueSummary)
		})
	})

	return r
}
