package router

import (
	"fmt"
	"strings"

	"github.com/educycle/marketplace/internal/cache"
	"github.com/educycle/marketplace/internal/config"
	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/http/handlers/api"
	"github.com/educycle/marketplace/internal/logger"
	"github.com/educycle/marketplace/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP surface.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	handler := api.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts, retry in %d seconds",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// Browsing and the chatbot need no account.
		apiV1.GET("/items", handler.ListItems)
		apiV1.GET("/items/:id", handler.GetItem)
		apiV1.GET("/items/:id/reviews", handler.ListItemReviews)
		apiV1.GET("/categories", handler.ListCategories)
		apiV1.POST("/chat", handler.ChatAsk)
		apiV1.GET("/chat/:session_id", handler.ChatTranscript)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", handler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), handler.Login)
		}

		// Gateway callbacks authenticate via signatures, not tokens.
		apiV1.POST("/payments/webhook/card", handler.CardWebhook)
		apiV1.POST("/payments/webhook/wallet", handler.WalletWebhook)

		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", handler.Profile)
			user.GET("/me/items", handler.MyItems)

			user.POST("/items", handler.CreateItem)
			user.PUT("/items/:id", handler.UpdateItem)
			user.DELETE("/items/:id", handler.DeleteItem)

			user.GET("/cart", handler.GetCart)
			user.POST("/cart/items", handler.AddCartItem)
			user.PUT("/cart/items/:item_id", handler.UpdateCartItem)
			user.DELETE("/cart/items/:item_id", handler.DeleteCartItem)
			user.DELETE("/cart", handler.ClearCart)

			user.POST("/checkout", handler.Checkout)
			user.GET("/orders", handler.ListOrders)
			user.GET("/sales", handler.ListSales)
			user.GET("/orders/:id", handler.GetOrder)
			user.POST("/orders/:id/advance", handler.AdvanceOrder)
			user.POST("/orders/:id/cancel", handler.CancelOrder)

			user.POST("/orders/:id/payments", handler.InitiatePayment)
			user.GET("/orders/:id/payments", handler.ListOrderPayments)
			user.POST("/payments/:id/refund", handler.RefundPayment)

			user.GET("/notifications", handler.ListNotifications)
			user.GET("/notifications/unread-count", handler.UnreadNotificationCount)
			user.POST("/notifications/:id/read", handler.MarkNotificationRead)
			user.POST("/notifications/read-all", handler.MarkAllNotificationsRead)

			user.POST("/messages", handler.SendMessage)
			user.GET("/messages", handler.Inbox)
			user.GET("/messages/conversations/:peer_id", handler.Conversation)
			user.POST("/messages/:id/read", handler.MarkMessageRead)
			user.GET("/messages/unread-count", handler.UnreadMessageCount)

			user.POST("/items/:id/reviews", handler.CreateReview)
			user.PUT("/reviews/:id", handler.UpdateReview)
			user.DELETE("/reviews/:id", handler.DeleteReview)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
