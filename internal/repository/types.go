package repository

// ItemListFilter narrows item listing queries.
type ItemListFilter struct {
	Page       int
	PageSize   int
	Category   string
	Search     string
	SellerID   uint
	Status     string
	OnlyActive bool
}

// OrderListFilter narrows order listing queries.
type OrderListFilter struct {
	Page     int
	PageSize int
	BuyerID  uint
	SellerID uint
	Status   string
	OrderNo  string
}

// NotificationListFilter narrows notification listing queries.
type NotificationListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	UnreadOnly bool
}

// MessageListFilter narrows message listing queries.
type MessageListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	PeerID   uint
}
