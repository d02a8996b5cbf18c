package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type orderTestEnv struct {
	db       *gorm.DB
	orderSvc *OrderService
	cartSvc  *CartService
}

func setupOrderTest(t *testing.T, name string) *orderTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Item{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{}, &models.Payment{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	itemRepo := repository.NewItemRepository(db)
	cartRepo := repository.NewCartRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	notificationSvc := NewNotificationService(notificationRepo, userRepo, nil, nil)
	orderSvc := NewOrderService(orderRepo, itemRepo, cartRepo, notificationSvc, nil, nil, "INR")
	cartSvc := NewCartService(cartRepo, itemRepo, "INR")
	return &orderTestEnv{db: db, orderSvc: orderSvc, cartSvc: cartSvc}
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@campus.example",
		PasswordHash: "x",
		DisplayName:  username,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createTestItem(t *testing.T, db *gorm.DB, sellerID uint, name string, price int64) *models.Item {
	t.Helper()
	var money *models.Money
	if price >= 0 {
		m := models.NewMoneyFromDecimal(decimal.NewFromInt(price))
		money = &m
	}
	item := &models.Item{
		SellerID: sellerID,
		Name:     name,
		Category: constants.ItemCategoryTextbook,
		Price:    money,
		Status:   constants.ItemStatusAvailable,
		IsActive: true,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	return item
}

func TestCheckoutSplitsOrdersBySeller(t *testing.T) {
	env := setupOrderTest(t, "order_checkout_split")
	buyer := createTestUser(t, env.db, "buyer")
	seller1 := createTestUser(t, env.db, "seller1")
	seller2 := createTestUser(t, env.db, "seller2")
	itemA := createTestItem(t, env.db, seller1.ID, "Linear Algebra", 100)
	itemB := createTestItem(t, env.db, seller2.ID, "Desk Lamp", 50)

	if err := env.cartSvc.Add(buyer.ID, itemA.ID, 2); err != nil {
		t.Fatalf("add item A failed: %v", err)
	}
	if err := env.cartSvc.Add(buyer.ID, itemB.ID, 1); err != nil {
		t.Fatalf("add item B failed: %v", err)
	}

	orders, err := env.orderSvc.Checkout(CheckoutInput{
		BuyerID:         buyer.ID,
		ShippingAddress: "Hostel B, Room 12",
		PaymentMethod:   constants.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}

	totalsBySeller := map[uint]string{}
	for _, order := range orders {
		if order.Status != constants.OrderStatusPending {
			t.Fatalf("expected pending order, got %s", order.Status)
		}
		if order.PaymentMethod != constants.PaymentMethodCOD {
			t.Fatalf("unexpected payment method: %s", order.PaymentMethod)
		}
		if !strings.HasPrefix(order.OrderNo, "EC") {
			t.Fatalf("unexpected order no: %s", order.OrderNo)
		}
		totalsBySeller[order.SellerID] = order.TotalAmount.String()
	}
	if totalsBySeller[seller1.ID] != "200.00" {
		t.Fatalf("expected 200.00 for seller1, got %s", totalsBySeller[seller1.ID])
	}
	if totalsBySeller[seller2.ID] != "50.00" {
		t.Fatalf("expected 50.00 for seller2, got %s", totalsBySeller[seller2.ID])
	}

	var cartCount int64
	if err := env.db.Model(&models.CartItem{}).Where("user_id = ?", buyer.ID).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 0 {
		t.Fatalf("expected empty cart after checkout, got %d lines", cartCount)
	}

	var locked models.Item
	if err := env.db.First(&locked, itemA.ID).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if locked.Status != constants.ItemStatusPending {
		t.Fatalf("expected pending item after checkout, got %s", locked.Status)
	}
}

func TestCheckoutSnapshotsPriceAtTime(t *testing.T) {
	env := setupOrderTest(t, "order_checkout_snapshot")
	buyer := createTestUser(t, env.db, "buyer")
	seller := createTestUser(t, env.db, "seller")
	item := createTestItem(t, env.db, seller.ID, "Calculus", 120)

	if err := env.cartSvc.Add(buyer.ID, item.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	orders, err := env.orderSvc.Checkout(CheckoutInput{
		BuyerID:       buyer.ID,
		PaymentMethod: constants.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// editing the listing later must not touch the order history
	newPrice := models.NewMoneyFromDecimal(decimal.NewFromInt(999))
	if err := env.db.Model(&models.Item{}).Where("id = ?", item.ID).Update("price", newPrice).Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}

	var lines []models.OrderItem
	if err := env.db.Where("order_id = ?", orders[0].ID).Find(&lines).Error; err != nil {
		t.Fatalf("load order items failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].PriceAtTime.String() != "120.00" {
		t.Fatalf("expected snapshot 120.00, got %s", lines[0].PriceAtTime.String())
	}
	if lines[0].ItemName != "Calculus" {
		t.Fatalf("unexpected item name snapshot: %s", lines[0].ItemName)
	}
}

func TestCheckoutUnpricedItemCountsAsZero(t *testing.T) {
	env := setupOrderTest(t, "order_checkout_unpriced")
	buyer := createTestUser(t, env.db, "buyer")
	seller := createTestUser(t, env.db, "seller")
	free := createTestItem(t, env.db, seller.ID, "Old Notes", -1)
	priced := createTestItem(t, env.db, seller.ID, "Desk Fan", 75)

	if err := env.cartSvc.Add(buyer.ID, free.ID, 1); err != nil {
		t.Fatalf("add free item failed: %v", err)
	}
	if err := env.cartSvc.Add(buyer.ID, priced.ID, 1); err != nil {
		t.Fatalf("add priced item failed: %v", err)
	}

	orders, err := env.orderSvc.Checkout(CheckoutInput{
		BuyerID:       buyer.ID,
		PaymentMethod: constants.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if orders[0].TotalAmount.String() != "75.00" {
		t.Fatalf("expected 75.00, got %s", orders[0].TotalAmount.String())
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := setupOrderTest(t, "order_checkout_empty")
	buyer := createTestUser(t, env.db, "buyer")

	_, err := env.orderSvc.Checkout(CheckoutInput{
		BuyerID:       buyer.ID,
		PaymentMethod: constants.PaymentMethodCOD,
	})
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected cart empty error, got %v", err)
	}
}

func TestCheckoutInvalidMethod(t *testing.T) {
	env := setupOrderTest(t, "order_checkout_method")
	_, err := env.orderSvc.Checkout(CheckoutInput{
		BuyerID:       1,
		PaymentMethod: constants.PaymentMethod("crypto"),
	})
	if !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("expected invalid method error, got %v", err)
	}
}

func TestCheckoutFailureLeavesNothingBehind(t *testing.T) {
	env := setupOrderTest(t, "order_checkout_rollback")
	buyer := createTestUser(t, env.db, "buyer")
	seller := createTestUser(t, env.db, "seller")
	good := createTestItem(t, env.db, seller.ID, "Router", 80)
	gone := createTestItem(t, env.db, seller.ID, "Sold Chair", 40)

	if err := env.cartSvc.Add(buyer.ID, good.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := env.cartSvc.Add(buyer.ID, gone.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	// second line sells out between carting and checkout
	if err := env.db.Model(&models.Item{}).Where("id = ?", gone.ID).Update("status", constants.ItemStatusSold).Error; err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	_, err := env.orderSvc.Checkout(CheckoutInput{
		BuyerID:       buyer.ID,
		PaymentMethod: constants.PaymentMethodCOD,
	})
	if !errors.Is(err, ErrItemNotAvailable) {
		t.Fatalf("expected item not available, got %v", err)
	}

	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders after failed checkout, got %d", orderCount)
	}
	var first models.Item
	if err := env.db.First(&first, good.ID).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if first.Status != constants.ItemStatusAvailable {
		t.Fatalf("expected first item untouched, got %s", first.Status)
	}
	var cartCount int64
	if err := env.db.Model(&models.CartItem{}).Where("user_id = ?", buyer.ID).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 2 {
		t.Fatalf("expected cart intact after failed checkout, got %d lines", cartCount)
	}
}

func TestCancelPendingOrderRestoresItems(t *testing.T) {
	env := setupOrderTest(t, "order_cancel")
	buyer := createTestUser(t, env.db, "buyer")
	seller := createTestUser(t, env.db, "seller")
	item := createTestItem(t, env.db, seller.ID, "Bookshelf", 60)

	if err := env.cartSvc.Add(buyer.ID, item.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	orders, err := env.orderSvc.Checkout(CheckoutInput{
		BuyerID:       buyer.ID,
		PaymentMethod: constants.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	cancelled, err := env.orderSvc.Cancel(orders[0].ID, buyer.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Fatalf("expected cancelled_at to be set")
	}

	var reloaded models.Item
	if err := env.db.First(&reloaded, item.ID).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if reloaded.Status != constants.ItemStatusAvailable {
		t.Fatalf("expected item back on the shelf, got %s", reloaded.Status)
	}

	// cancel is final
	if _, err := env.orderSvc.Cancel(orders[0].ID, buyer.ID); !errors.Is(err, ErrOrderStateInvalid) {
		t.Fatalf("expected state invalid on double cancel, got %v", err)
	}
}

func TestAdvanceFollowsSellerChain(t *testing.T) {
	env := setupOrderTest(t, "order_advance")
	buyer := createTestUser(t, env.db, "buyer")
	seller := createTestUser(t, env.db, "seller")
	item := createTestItem(t, env.db, seller.ID, "Monitor", 150)

	if err := env.cartSvc.Add(buyer.ID, item.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	orders, err := env.orderSvc.Checkout(CheckoutInput{
		BuyerID:       buyer.ID,
		PaymentMethod: constants.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	orderID := orders[0].ID

	// shipping before payment confirmation is rejected
	if _, err := env.orderSvc.Advance(orderID, seller.ID, constants.OrderStatusShipped); !errors.Is(err, ErrOrderStateInvalid) {
		t.Fatalf("expected state invalid from pending, got %v", err)
	}

	if err := env.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", constants.OrderStatusConfirmed).Error; err != nil {
		t.Fatalf("confirm order failed: %v", err)
	}

	// only the seller advances
	if _, err := env.orderSvc.Advance(orderID, buyer.ID, constants.OrderStatusShipped); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for buyer, got %v", err)
	}

	shipped, err := env.orderSvc.Advance(orderID, seller.ID, constants.OrderStatusShipped)
	if err != nil {
		t.Fatalf("advance to shipped failed: %v", err)
	}
	if shipped.Status != constants.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", shipped.Status)
	}
	delivered, err := env.orderSvc.Advance(orderID, seller.ID, constants.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("advance to delivered failed: %v", err)
	}
	if delivered.Status != constants.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", delivered.Status)
	}

	// advancing records an in-app notification for the buyer
	var notifyCount int64
	if err := env.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", buyer.ID, constants.NotificationTypeOrderStatus).
		Count(&notifyCount).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if notifyCount < 2 {
		t.Fatalf("expected order status notifications, got %d", notifyCount)
	}
}

func TestGenerateOrderNoShape(t *testing.T) {
	orderNo := generateOrderNo()
	if !strings.HasPrefix(orderNo, "EC") {
		t.Fatalf("unexpected prefix: %s", orderNo)
	}
	if len(orderNo) != 2+14+6 {
		t.Fatalf("unexpected length: %d (%s)", len(orderNo), orderNo)
	}
}

func TestCheckoutNotifiesBothPartiesPerItem(t *testing.T) {
	env := setupOrderTest(t, "order_checkout_notify")
	buyer := createTestUser(t, env.db, "buyer")
	seller := createTestUser(t, env.db, "seller")
	item1 := createTestItem(t, env.db, seller.ID, "Physics Vol 1", 300)
	item2 := createTestItem(t, env.db, seller.ID, "Physics Vol 2", 350)
	for _, id := range []uint{item1.ID, item2.ID} {
		if err := env.cartSvc.Add(buyer.ID, id, 1); err != nil {
			t.Fatalf("add to cart failed: %v", err)
		}
	}

	orders, err := env.orderSvc.Checkout(CheckoutInput{
		BuyerID:       buyer.ID,
		PaymentMethod: constants.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	var sold []models.Notification
	if err := env.db.Where("user_id = ? AND type = ?", seller.ID, constants.NotificationTypeItemSold).Find(&sold).Error; err != nil {
		t.Fatalf("load seller notifications failed: %v", err)
	}
	if len(sold) != 2 {
		t.Fatalf("expected 2 item_sold notifications, got %d", len(sold))
	}
	var purchased []models.Notification
	if err := env.db.Where("user_id = ? AND type = ?", buyer.ID, constants.NotificationTypeItemPurchased).Find(&purchased).Error; err != nil {
		t.Fatalf("load buyer notifications failed: %v", err)
	}
	if len(purchased) != 2 {
		t.Fatalf("expected 2 item_purchased notifications, got %d", len(purchased))
	}

	// each notification points at its line item and order
	seen := map[uint]bool{}
	for _, n := range sold {
		if n.ItemID == nil || n.OrderID == nil || *n.OrderID != orders[0].ID {
			t.Fatalf("notification missing item/order link: %+v", n)
		}
		seen[*n.ItemID] = true
	}
	if !seen[item1.ID] || !seen[item2.ID] {
		t.Fatalf("expected one item_sold notification per line item, got items %v", seen)
	}
}
