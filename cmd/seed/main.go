package main

import (
	"github.com/educycle/marketplace/internal/config"
	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/logger"
	"github.com/educycle/marketplace/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Seeds demo accounts and listings for local development.
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	users := []struct {
		Username    string
		Email       string
		DisplayName string
	}{
		{Username: "meera", Email: "meera@campus.edu", DisplayName: "Meera Nair"},
		{Username: "arjun", Email: "arjun@campus.edu", DisplayName: "Arjun Rao"},
		{Username: "fatima", Email: "fatima@campus.edu", DisplayName: "Fatima Khan"},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}

	userIDs := map[string]uint{}
	for _, u := range users {
		var existing models.User
		if err := models.DB.Where("username = ?", u.Username).First(&existing).Error; err == nil {
			stdLog.Printf("User already exists: %s", u.Username)
			userIDs[u.Username] = existing.ID
			continue
		}
		user := models.User{
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: string(hash),
			DisplayName:  u.DisplayName,
		}
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Printf("Failed to create user %s: %v", u.Username, err)
			continue
		}
		stdLog.Printf("Created user: %s (password: password123)", u.Username)
		userIDs[u.Username] = user.ID
	}

	price := func(v float64) *models.Money {
		m := models.NewMoneyFromDecimal(decimal.NewFromFloat(v))
		return &m
	}

	items := []models.Item{
		{
			SellerID:    userIDs["meera"],
			Name:        "Calculus: Early Transcendentals (8th ed.)",
			Description: "Lightly annotated, all pages intact. Great for first-year math.",
			Category:    constants.ItemCategoryTextbook,
			Price:       price(450),
			Condition:   "good",
		},
		{
			SellerID:    userIDs["meera"],
			Name:        "Desk lamp with USB port",
			Description: "Warm and cool modes, barely used.",
			Category:    constants.ItemCategoryAppliance,
			Price:       price(300),
			Condition:   "like new",
		},
		{
			SellerID:        userIDs["arjun"],
			Name:            "Badminton racket (Yonex)",
			Description:     "Strings in good shape. Happy to swap instead of sell.",
			Category:        constants.ItemCategoryEquipment,
			DesiredSwapItem: "table tennis paddle",
			Condition:       "used",
		},
		{
			SellerID:    userIDs["arjun"],
			Name:        "Mini fridge, 50L",
			Description: "Fits under a hostel desk. Pickup only.",
			Category:    constants.ItemCategoryAppliance,
			Price:       price(2500),
			Condition:   "used",
		},
		{
			SellerID:    userIDs["fatima"],
			Name:        "Fairy lights, 10m",
			Description: "Free to a good home, moving out this week.",
			Category:    constants.ItemCategoryDecor,
			Condition:   "good",
		},
		{
			SellerID:    userIDs["fatima"],
			Name:        "Organic Chemistry notes bundle",
			Description: "Handwritten notes for two semesters, scanned copy included.",
			Category:    constants.ItemCategoryTextbook,
			Price:       price(150),
		},
	}

	for _, item := range items {
		if item.SellerID == 0 {
			continue
		}
		var existing models.Item
		if err := models.DB.Where("seller_id = ? AND name = ?", item.SellerID, item.Name).First(&existing).Error; err == nil {
			stdLog.Printf("Item already exists: %s", item.Name)
			continue
		}
		item.Status = constants.ItemStatusAvailable
		item.IsActive = true
		if err := models.DB.Create(&item).Error; err != nil {
			stdLog.Printf("Failed to create item %s: %v", item.Name, err)
			continue
		}
		stdLog.Printf("Created item: %s", item.Name)
	}

	stdLog.Printf("Seed complete")
}
