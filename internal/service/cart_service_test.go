package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T, name string) (*gorm.DB, *CartService) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Item{}, &models.CartItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewCartService(repository.NewCartRepository(db), repository.NewItemRepository(db), "INR")
	return db, svc
}

func TestCartAddIncrementsExistingLine(t *testing.T) {
	db, svc := setupCartTest(t, "cart_add_increment")
	buyer := createTestUser(t, db, "buyer")
	seller := createTestUser(t, db, "seller")
	item := createTestItem(t, db, seller.ID, "Physics Vol 1", 100)

	if err := svc.Add(buyer.ID, item.ID, 1); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := svc.Add(buyer.ID, item.ID, 2); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	summary, err := svc.Get(buyer.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(summary.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(summary.Lines))
	}
	if summary.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", summary.Lines[0].Quantity)
	}
	if summary.Total.String() != "300.00" {
		t.Fatalf("expected total 300.00, got %s", summary.Total.String())
	}
}

func TestCartAddRejectsOwnItem(t *testing.T) {
	db, svc := setupCartTest(t, "cart_add_own")
	seller := createTestUser(t, db, "seller")
	item := createTestItem(t, db, seller.ID, "My Own Lamp", 20)

	if err := svc.Add(seller.ID, item.ID, 1); !errors.Is(err, ErrOwnItem) {
		t.Fatalf("expected own item error, got %v", err)
	}
}

func TestCartAddRejectsBadQuantityAndUnavailable(t *testing.T) {
	db, svc := setupCartTest(t, "cart_add_invalid")
	buyer := createTestUser(t, db, "buyer")
	seller := createTestUser(t, db, "seller")
	item := createTestItem(t, db, seller.ID, "Heater", 40)

	if err := svc.Add(buyer.ID, item.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if err := svc.Add(buyer.ID, 9999, 1); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}

	if err := db.Model(&models.Item{}).Where("id = ?", item.ID).Update("status", constants.ItemStatusSold).Error; err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if err := svc.Add(buyer.ID, item.ID, 1); !errors.Is(err, ErrItemNotAvailable) {
		t.Fatalf("expected item not available, got %v", err)
	}
}

func TestCartGetDropsStaleLines(t *testing.T) {
	db, svc := setupCartTest(t, "cart_stale")
	buyer := createTestUser(t, db, "buyer")
	seller := createTestUser(t, db, "seller")
	keep := createTestItem(t, db, seller.ID, "Kettle", 30)
	stale := createTestItem(t, db, seller.ID, "Chair", 45)

	if err := svc.Add(buyer.ID, keep.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.Add(buyer.ID, stale.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := db.Model(&models.Item{}).Where("id = ?", stale.ID).Update("status", constants.ItemStatusSold).Error; err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	summary, err := svc.Get(buyer.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(summary.Lines) != 1 || summary.Lines[0].ItemID != keep.ID {
		t.Fatalf("expected only the live line, got %+v", summary.Lines)
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", buyer.ID).Count(&count).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected stale line removed from storage, got %d", count)
	}
}

func TestCartSetQuantityAndRemove(t *testing.T) {
	db, svc := setupCartTest(t, "cart_set_remove")
	buyer := createTestUser(t, db, "buyer")
	seller := createTestUser(t, db, "seller")
	item := createTestItem(t, db, seller.ID, "Tube Light", 15)

	if err := svc.Add(buyer.ID, item.ID, 5); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.SetQuantity(buyer.ID, item.ID, 2); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if err := svc.SetQuantity(buyer.ID, item.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}

	summary, err := svc.Get(buyer.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if summary.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", summary.Lines[0].Quantity)
	}

	if err := svc.Remove(buyer.ID, item.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	summary, err = svc.Get(buyer.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(summary.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(summary.Lines))
	}
}
