package repository

import (
	"errors"
	"strings"

	"github.com/educycle/marketplace/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository is the payment data access interface.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	Update(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByProviderRef(providerRef string) (*models.Payment, error)
	GetLatestByProviderIntent(providerIntent string) (*models.Payment, error)
	ListByOrderID(orderID uint) ([]models.Payment, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository is the GORM implementation.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates the payment repository.
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx binds a transaction.
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create inserts a payment.
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// Update saves a payment.
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// GetByID fetches a payment by id.
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByProviderRef fetches the payment already bound to a gateway
// transaction id. Used to drop webhook replays before any mutation.
func (r *GormPaymentRepository) GetByProviderRef(providerRef string) (*models.Payment, error) {
	providerRef = strings.TrimSpace(providerRef)
	if providerRef == "" {
		return nil, nil
	}
	var payment models.Payment
	result := r.db.Where("provider_ref = ?", providerRef).Order("id desc").Limit(1).Find(&payment)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

// GetLatestByProviderIntent fetches the newest payment created for a
// gateway intent / provider order id.
func (r *GormPaymentRepository) GetLatestByProviderIntent(providerIntent string) (*models.Payment, error) {
	providerIntent = strings.TrimSpace(providerIntent)
	if providerIntent == "" {
		return nil, nil
	}
	var payment models.Payment
	result := r.db.Where("provider_intent = ?", providerIntent).Order("id desc").Limit(1).Find(&payment)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

// ListByOrderID fetches an order's payment attempts, newest first.
func (r *GormPaymentRepository) ListByOrderID(orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.Where("order_id = ?", orderID).Order("id desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
