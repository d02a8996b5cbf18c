package constants

// PaymentMethod is the closed set of supported payment methods.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
	PaymentMethodCOD    PaymentMethod = "cod"
)

// Valid reports whether m is one of the supported methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodWallet, PaymentMethodCOD:
		return true
	}
	return false
}

// Order status constants
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Payment status constants
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

// Item category constants
const (
	ItemCategoryTextbook  = "textbook"
	ItemCategoryEquipment = "equipment"
	ItemCategoryDecor     = "decor"
	ItemCategoryAppliance = "appliance"
	ItemCategoryOther     = "other"
)

// ItemCategories lists the selectable categories in display order.
var ItemCategories = []string{
	ItemCategoryTextbook,
	ItemCategoryEquipment,
	ItemCategoryDecor,
	ItemCategoryAppliance,
	ItemCategoryOther,
}

// Item availability constants
const (
	ItemStatusAvailable = "available"
	ItemStatusPending   = "pending"
	ItemStatusSold      = "sold"
)

// Notification type constants
const (
	NotificationTypeItemAdded       = "item_added"
	NotificationTypeItemSold        = "item_sold"
	NotificationTypeItemPurchased   = "item_purchased"
	NotificationTypeReviewReceived  = "review_received"
	NotificationTypeMessageReceived = "message_received"
	NotificationTypeOrderStatus     = "order_status"
)

// Chat sender constants
const (
	ChatSenderUser = "user"
	ChatSenderBot  = "bot"
)

// Queue constants
const (
	QueueDefault          = "default"
	TaskNotificationEmail = "notification:email"
	TaskOrderStatusEmail  = "order:status_email"
)

// Cache defaults
const (
	RedisPrefixDefault = "ec"
)

// Currency constants
const (
	SiteCurrencyDefault = "INR"
)
