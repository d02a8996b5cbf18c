package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/logger"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/queue"
	"github.com/educycle/marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// allowedOrderTransitions maps each order status to the statuses it
// may move to. Cancellation is buyer-initiated and only from pending;
// the forward chain is seller-driven after payment confirms.
var allowedOrderTransitions = map[string][]string{
	constants.OrderStatusPending:   {constants.OrderStatusConfirmed, constants.OrderStatusCancelled},
	constants.OrderStatusConfirmed: {constants.OrderStatusShipped},
	constants.OrderStatusShipped:   {constants.OrderStatusDelivered},
}

// CheckoutInput describes a cart checkout.
type CheckoutInput struct {
	BuyerID         uint
	ShippingAddress string
	PaymentMethod   constants.PaymentMethod
}

// OrderService creates and advances orders. A checkout produces one
// order per distinct seller in the cart, all inside one transaction:
// either every order and every item lock lands, or nothing does.
type OrderService struct {
	orderRepo           repository.OrderRepository
	itemRepo            repository.ItemRepository
	cartRepo            repository.CartRepository
	notificationService *NotificationService
	emailService        *EmailService
	queueClient         *queue.Client
	currency            string
}

// NewOrderService creates the order service.
func NewOrderService(orderRepo repository.OrderRepository, itemRepo repository.ItemRepository, cartRepo repository.CartRepository, notificationService *NotificationService, emailService *EmailService, queueClient *queue.Client, currency string) *OrderService {
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	return &OrderService{
		orderRepo:           orderRepo,
		itemRepo:            itemRepo,
		cartRepo:            cartRepo,
		notificationService: notificationService,
		emailService:        emailService,
		queueClient:         queueClient,
		currency:            currency,
	}
}

// sellerPlan accumulates one seller's slice of the cart while the
// checkout walks the lines in first-seen seller order.
type sellerPlan struct {
	sellerID uint
	items    []models.OrderItem
	total    decimal.Decimal
}

// Checkout converts the buyer's cart into orders, one per distinct
// seller. Each line is snapshotted at its current price; a listing
// without a price counts as zero. All orders, item locks and the cart
// wipe commit atomically.
func (s *OrderService) Checkout(input CheckoutInput) ([]models.Order, error) {
	if !input.PaymentMethod.Valid() {
		return nil, ErrPaymentMethodInvalid
	}

	lines, err := s.cartRepo.ListByUser(input.BuyerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	now := time.Now()
	var orders []models.Order
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		itemRepo := s.itemRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		plans := make([]*sellerPlan, 0, 2)
		planBySeller := make(map[uint]*sellerPlan)

		for i := range lines {
			line := lines[i]
			item, err := itemRepo.GetByIDForUpdate(line.ItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return ErrItemNotFound
			}
			if item.SellerID == input.BuyerID {
				return ErrOwnItem
			}
			if !item.IsActive || item.Status != constants.ItemStatusAvailable {
				return ErrItemNotAvailable
			}
			if line.Quantity < 1 {
				return ErrInvalidQuantity
			}

			unit := decimal.Zero
			if item.Price != nil {
				unit = item.Price.Decimal
			}
			lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))

			plan, ok := planBySeller[item.SellerID]
			if !ok {
				plan = &sellerPlan{sellerID: item.SellerID, total: decimal.Zero}
				planBySeller[item.SellerID] = plan
				plans = append(plans, plan)
			}
			plan.items = append(plan.items, models.OrderItem{
				ItemID:      item.ID,
				ItemName:    item.Name,
				Quantity:    line.Quantity,
				PriceAtTime: models.NewMoneyFromDecimal(unit),
			})
			plan.total = plan.total.Add(lineTotal)

			if err := itemRepo.UpdateStatus(item.ID, constants.ItemStatusPending); err != nil {
				return err
			}
		}

		for _, plan := range plans {
			order := models.Order{
				OrderNo:         generateOrderNo(),
				BuyerID:         input.BuyerID,
				SellerID:        plan.sellerID,
				Status:          constants.OrderStatusPending,
				Currency:        s.currency,
				TotalAmount:     models.NewMoneyFromDecimal(plan.total),
				ShippingAddress: strings.TrimSpace(input.ShippingAddress),
				PaymentMethod:   input.PaymentMethod,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := orderRepo.Create(&order, plan.items); err != nil {
				return err
			}
			order.Items = plan.items
			orders = append(orders, order)
		}

		return cartRepo.ClearByUser(input.BuyerID)
	})
	if err != nil {
		return nil, err
	}
	s.notifyCheckout(orders)
	return orders, nil
}

// notifyCheckout tells both parties about a placed order, one pair of
// notifications per line item. Best effort, runs after commit.
func (s *OrderService) notifyCheckout(orders []models.Order) {
	if s.notificationService == nil {
		return
	}
	for i := range orders {
		order := &orders[i]
		for j := range order.Items {
			line := &order.Items[j]
			itemID := line.ItemID
			if _, err := s.notificationService.Notify(NotifyInput{
				UserID:  order.SellerID,
				Type:    constants.NotificationTypeItemSold,
				Title:   "Item Sold!",
				Message: fmt.Sprintf("Your item %q has been sold in order %s.", line.ItemName, order.OrderNo),
				ItemID:  &itemID,
				OrderID: &order.ID,
			}); err != nil {
				logger.Warnw("item_sold_notify_failed", "order_id", order.ID, "item_id", itemID, "error", err)
			}
			if _, err := s.notificationService.Notify(NotifyInput{
				UserID:  order.BuyerID,
				Type:    constants.NotificationTypeItemPurchased,
				Title:   "Order Confirmed!",
				Message: fmt.Sprintf("Your order for %q has been placed as %s.", line.ItemName, order.OrderNo),
				ItemID:  &itemID,
				OrderID: &order.ID,
			}); err != nil {
				logger.Warnw("item_purchased_notify_failed", "order_id", order.ID, "item_id", itemID, "error", err)
			}
		}
	}
}

// Get fetches an order visible to the given user. Only the buyer and
// the seller may see an order.
func (s *OrderService) Get(id uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListForBuyer fetches a user's purchases.
func (s *OrderService) ListForBuyer(buyerID uint, page, pageSize int, status string) ([]models.Order, int64, error) {
	return s.orderRepo.List(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		BuyerID:  buyerID,
		Status:   status,
	})
}

// ListForSeller fetches a user's sales.
func (s *OrderService) ListForSeller(sellerID uint, page, pageSize int, status string) ([]models.Order, int64, error) {
	return s.orderRepo.List(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: sellerID,
		Status:   status,
	})
}

// Advance moves an order along the seller-driven chain
// confirmed -> shipped -> delivered.
func (s *OrderService) Advance(id uint, sellerID uint, nextStatus string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.SellerID != sellerID {
		return nil, ErrForbidden
	}
	if nextStatus == constants.OrderStatusCancelled || !isOrderTransitionAllowed(order.Status, nextStatus) {
		return nil, ErrOrderStateInvalid
	}

	if err := s.orderRepo.UpdateStatus(order.ID, nextStatus, nil); err != nil {
		return nil, err
	}
	order.Status = nextStatus
	s.notifyStatusChange(order)
	return order, nil
}

// Cancel aborts a pending order. Only the buyer may cancel, and only
// before payment confirms. The order's items return to the shelf.
func (s *OrderService) Cancel(id uint, buyerID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndBuyer(id, buyerID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return nil, ErrOrderStateInvalid
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		itemRepo := s.itemRepo.WithTx(tx)

		if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusCancelled, map[string]interface{}{
			"cancelled_at": &now,
		}); err != nil {
			return err
		}
		for i := range order.Items {
			if err := itemRepo.UpdateStatus(order.Items[i].ItemID, constants.ItemStatusAvailable); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = constants.OrderStatusCancelled
	order.CancelledAt = &now
	s.notifyStatusChange(order)
	return order, nil
}

// notifyStatusChange records the in-app notification and dispatches
// the status email. Both legs are best effort.
func (s *OrderService) notifyStatusChange(order *models.Order) {
	if order == nil {
		return
	}
	if s.notificationService != nil {
		if _, err := s.notificationService.NotifyInApp(NotifyInput{
			UserID:  order.BuyerID,
			Type:    constants.NotificationTypeOrderStatus,
			Title:   fmt.Sprintf("Order %s %s", order.OrderNo, order.Status),
			Message: fmt.Sprintf("Your order %s is now %s.", order.OrderNo, order.Status),
			OrderID: &order.ID,
		}); err != nil {
			logger.Warnw("order_status_notify_failed", "order_id", order.ID, "error", err)
		}
	}
	s.dispatchStatusEmail(order)
}

// dispatchStatusEmail queues the status email when the queue is
// enabled, otherwise sends inline.
func (s *OrderService) dispatchStatusEmail(order *models.Order) {
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
			OrderID: order.ID,
			Status:  order.Status,
		})
		if err != nil {
			logger.Warnw("order_status_email_enqueue_failed", "order_id", order.ID, "error", err)
		}
		return
	}
	if err := s.SendStatusEmail(order.ID, order.Status); err != nil {
		logger.Warnw("order_status_email_send_failed", "order_id", order.ID, "error", err)
	}
}

// SendStatusEmail mails the buyer about an order status change.
// Called inline when the queue is disabled and from the worker
// otherwise.
func (s *OrderService) SendStatusEmail(orderID uint, status string) error {
	if s.emailService == nil {
		return nil
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	email, err := s.orderRepo.ResolveBuyerEmailByOrderID(orderID)
	if err != nil {
		return err
	}
	if email == "" {
		return nil
	}
	return s.emailService.SendOrderStatusEmail(email, OrderStatusEmailInput{
		OrderNo:  order.OrderNo,
		Status:   status,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
	})
}

func isOrderTransitionAllowed(from, to string) bool {
	for _, allowed := range allowedOrderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("EC%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
