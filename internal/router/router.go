package router

import (
	"database/sql"

	"lengolf_pos_backend/internal/handlers"
	"lengolf_pos_backend/internal/middleware"
	"lengolf_pos_backend/internal/repositories"
	"lengolf_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	staffRepo := repositories.NewStaffRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	productRepo := repositories.NewProductRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)

	// Initialize Services
	amountValidator := services.NewAmountValidator(nil)
	pinCache := services.NewPinCache(services.StaffCacheTTL, nil)
	staffResolver := services.NewStaffResolver(staffRepo, pinCache)
	orderLoader := services.NewOrderLoader(orderRepo, sessionRepo, productRepo, bookingRepo)
	transactionService := services.NewTransactionService(transactionRepo, db)
	paymentService := services.NewPaymentService(
		amountValidator, staffResolver, orderLoader, transactionService,
		sessionRepo, orderRepo, transactionRepo, db,
	)
	authService := services.NewStaffAuthService(staffResolver, staffRepo)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	sessionHandler := handlers.NewSessionHandler(paymentService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupPaymentRoutes(authenticated, paymentHandler)
		SetupSessionRoutes(authenticated, sessionHandler)
		SetupTransactionRoutes(authenticated, transactionHandler)
	}
}
