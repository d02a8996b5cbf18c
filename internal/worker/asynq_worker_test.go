package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/educycle/marketplace/internal/config"
	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/provider"
	"github.com/educycle/marketplace/internal/queue"
	"github.com/educycle/marketplace/internal/repository"
	"github.com/educycle/marketplace/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T, name string) (*gorm.DB, *Consumer) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Item{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{}, &models.Notification{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// email disabled so handlers exercise their skip paths without SMTP
	emailSvc := service.NewEmailService(&config.EmailConfig{Enabled: false})
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, emailSvc, nil)
	orderSvc := service.NewOrderService(orderRepo, itemRepo, cartRepo, notificationSvc, emailSvc, nil, "INR")

	container := &provider.Container{
		UserRepo:            userRepo,
		ItemRepo:            itemRepo,
		CartRepo:            cartRepo,
		OrderRepo:           orderRepo,
		NotificationRepo:    notificationRepo,
		EmailService:        emailSvc,
		NotificationService: notificationSvc,
		OrderService:        orderSvc,
	}
	return db, NewConsumer(container)
}

func notificationTask(t *testing.T, payload queue.NotificationEmailPayload) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskNotificationEmail, body)
}

func orderStatusTask(t *testing.T, payload queue.OrderStatusEmailPayload) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskOrderStatusEmail, body)
}

func TestHandleNotificationEmailBadPayload(t *testing.T) {
	_, consumer := setupConsumerTest(t, "worker_bad_payload")
	task := asynq.NewTask(queue.TaskNotificationEmail, []byte("{not json"))
	if err := consumer.handleNotificationEmail(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestHandleNotificationEmailSkipsMissingRow(t *testing.T) {
	_, consumer := setupConsumerTest(t, "worker_missing_notification")
	if err := consumer.handleNotificationEmail(context.Background(), notificationTask(t, queue.NotificationEmailPayload{NotificationID: 0})); err != nil {
		t.Fatalf("expected zero id to be dropped, got %v", err)
	}
	if err := consumer.handleNotificationEmail(context.Background(), notificationTask(t, queue.NotificationEmailPayload{NotificationID: 9999})); err != nil {
		t.Fatalf("expected missing row to be dropped, got %v", err)
	}
}

func TestHandleNotificationEmailDisabledEmailIsNotRetried(t *testing.T) {
	db, consumer := setupConsumerTest(t, "worker_email_disabled")
	user := models.User{Username: "buyer", Email: "buyer@campus.example", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	notification := models.Notification{
		UserID:  user.ID,
		Type:    constants.NotificationTypeItemSold,
		Title:   "Item sold",
		Message: "Your item sold.",
	}
	if err := db.Create(&notification).Error; err != nil {
		t.Fatalf("seed notification failed: %v", err)
	}

	if err := consumer.handleNotificationEmail(context.Background(), notificationTask(t, queue.NotificationEmailPayload{NotificationID: notification.ID})); err != nil {
		t.Fatalf("disabled email should not fail the task, got %v", err)
	}
}

func TestHandleOrderStatusEmailSkipsUnknownOrder(t *testing.T) {
	_, consumer := setupConsumerTest(t, "worker_unknown_order")
	task := orderStatusTask(t, queue.OrderStatusEmailPayload{OrderID: 9999, Status: constants.OrderStatusConfirmed})
	if err := consumer.handleOrderStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("expected unknown order to be dropped, got %v", err)
	}
}

func TestHandleOrderStatusEmailDisabledEmailIsNotRetried(t *testing.T) {
	db, consumer := setupConsumerTest(t, "worker_order_email_disabled")
	buyer := models.User{Username: "orderbuyer", Email: "orderbuyer@campus.example", PasswordHash: "x"}
	if err := db.Create(&buyer).Error; err != nil {
		t.Fatalf("seed buyer failed: %v", err)
	}
	seller := models.User{Username: "orderseller", Email: "orderseller@campus.example", PasswordHash: "x"}
	if err := db.Create(&seller).Error; err != nil {
		t.Fatalf("seed seller failed: %v", err)
	}
	order := models.Order{
		OrderNo:       "EC20260830120000123456",
		BuyerID:       buyer.ID,
		SellerID:      seller.ID,
		Status:        constants.OrderStatusConfirmed,
		TotalAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		Currency:      "INR",
		PaymentMethod: constants.PaymentMethodCOD,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order failed: %v", err)
	}

	task := orderStatusTask(t, queue.OrderStatusEmailPayload{OrderID: order.ID, Status: constants.OrderStatusConfirmed})
	if err := consumer.handleOrderStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("disabled email should not fail the task, got %v", err)
	}
}
