package router

import (
	"lengolf_pos_backend/internal/handlers"
	"lengolf_pos_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the public authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
	}
}

// SetupPaymentRoutes sets up the payment completion routes.
func SetupPaymentRoutes(authenticatedGroup *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	paymentRoutes := authenticatedGroup.Group("/payments")
	paymentRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		paymentRoutes.POST("", paymentHandler.CompletePayment)
		paymentRoutes.POST("/split", paymentHandler.CompleteSplitPayment)
	}
}

// SetupSessionRoutes sets up the table session routes used by the payment
// workflow.
func SetupSessionRoutes(authenticatedGroup *gin.RouterGroup, sessionHandler *handlers.SessionHandler) {
	sessionRoutes := authenticatedGroup.Group("/table-sessions")
	sessionRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		sessionRoutes.GET("/:id/payment-status", sessionHandler.GetPaymentStatus)
		sessionRoutes.POST("/:id/close", sessionHandler.CloseTableSession)
	}
}

// SetupTransactionRoutes sets up the transaction lookup and void routes.
func SetupTransactionRoutes(authenticatedGroup *gin.RouterGroup, transactionHandler *handlers.TransactionHandler) {
	transactionRoutes := authenticatedGroup.Group("/transactions")
	transactionRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		transactionRoutes.GET("/:id", transactionHandler.GetTransaction)
		transactionRoutes.POST("/:id/items/:line/void", transactionHandler.VoidTransactionItem)
	}
}
