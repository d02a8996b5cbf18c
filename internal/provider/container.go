package provider

import (
	"github.com/educycle/marketplace/internal/cache"
	"github.com/educycle/marketplace/internal/config"
	"github.com/educycle/marketplace/internal/logger"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/queue"
	"github.com/educycle/marketplace/internal/repository"
	"github.com/educycle/marketplace/internal/service"
)

// Container wires repositories and services together.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	ItemRepo         repository.ItemRepository
	CartRepo         repository.CartRepository
	OrderRepo        repository.OrderRepository
	PaymentRepo      repository.PaymentRepository
	NotificationRepo repository.NotificationRepository
	MessageRepo      repository.MessageRepository
	ReviewRepo       repository.ReviewRepository
	ChatRepo         repository.ChatRepository

	// Services
	UserService         *service.UserService
	EmailService        *service.EmailService
	NotificationService *service.NotificationService
	ItemService         *service.ItemService
	CartService         *service.CartService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	MessageService      *service.MessageService
	ReviewService       *service.ReviewService
	ChatbotService      *service.ChatbotService
}

// NewContainer initializes the container.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ItemRepo = repository.NewItemRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.MessageRepo = repository.NewMessageRepository(db)
	c.ReviewRepo = repository.NewReviewRepository(db)
	c.ChatRepo = repository.NewChatRepository(db)
}

func (c *Container) initServices() {
	currency := c.Config.Payment.Currency

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.UserService = service.NewUserService(c.Config.JWT, c.UserRepo)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.UserRepo, c.EmailService, c.QueueClient)
	c.ItemService = service.NewItemService(c.ItemRepo, c.ReviewRepo, c.NotificationService)
	c.CartService = service.NewCartService(c.CartRepo, c.ItemRepo, currency)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ItemRepo, c.CartRepo, c.NotificationService, c.EmailService, c.QueueClient, currency)
	c.PaymentService = service.NewPaymentService(c.PaymentRepo, c.OrderRepo, c.ItemRepo, c.NotificationService, &c.Config.Payment)
	c.MessageService = service.NewMessageService(c.MessageRepo, c.UserRepo, c.ItemRepo, c.NotificationService)
	c.ReviewService = service.NewReviewService(c.ReviewRepo, c.ItemRepo, c.NotificationService)
	c.ChatbotService = service.NewChatbotService(c.ChatRepo)
}
