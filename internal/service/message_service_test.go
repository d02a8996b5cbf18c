package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type messageTestEnv struct {
	db  *gorm.DB
	svc *MessageService
}

func setupMessageTest(t *testing.T, name string) *messageTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Item{}, &models.Message{}, &models.Notification{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	messageRepo := repository.NewMessageRepository(db)
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	notificationSvc := NewNotificationService(notificationRepo, userRepo, nil, nil)
	return &messageTestEnv{
		db:  db,
		svc: NewMessageService(messageRepo, userRepo, itemRepo, notificationSvc),
	}
}

func TestSendMessageNotifiesRecipient(t *testing.T) {
	env := setupMessageTest(t, "message_send")
	sender := createTestUser(t, env.db, "sender")
	recipient := createTestUser(t, env.db, "recipient")
	item := createTestItem(t, env.db, recipient.ID, "Desk Lamp", 300)

	msg, err := env.svc.Send(SendMessageInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		ItemID:      &item.ID,
		Body:        "Is the lamp still available?",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.ID == 0 {
		t.Fatalf("expected persisted message")
	}

	var notifications []models.Notification
	if err := env.db.Where("user_id = ?", recipient.ID).Find(&notifications).Error; err != nil {
		t.Fatalf("load notifications failed: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications))
	}

	unread, err := env.svc.CountUnread(recipient.ID)
	if err != nil {
		t.Fatalf("count unread failed: %v", err)
	}
	if unread != 1 {
		t.Fatalf("expected 1 unread message, got %d", unread)
	}
}

func TestSendMessageValidation(t *testing.T) {
	env := setupMessageTest(t, "message_validate")
	sender := createTestUser(t, env.db, "valsender")
	recipient := createTestUser(t, env.db, "valrecipient")

	if _, err := env.svc.Send(SendMessageInput{SenderID: sender.ID, RecipientID: recipient.ID, Body: "   "}); !errors.Is(err, ErrMessageBodyEmpty) {
		t.Fatalf("expected empty body rejection, got %v", err)
	}
	if _, err := env.svc.Send(SendMessageInput{SenderID: sender.ID, RecipientID: sender.ID, Body: "hi"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected self-message rejection, got %v", err)
	}
	if _, err := env.svc.Send(SendMessageInput{SenderID: sender.ID, RecipientID: 9999, Body: "hi"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected unknown recipient rejection, got %v", err)
	}
	missing := uint(9999)
	if _, err := env.svc.Send(SendMessageInput{SenderID: sender.ID, RecipientID: recipient.ID, ItemID: &missing, Body: "hi"}); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected unknown item rejection, got %v", err)
	}
}

func TestConversationAndMarkRead(t *testing.T) {
	env := setupMessageTest(t, "message_conversation")
	alice := createTestUser(t, env.db, "alice")
	bob := createTestUser(t, env.db, "bob")

	first, err := env.svc.Send(SendMessageInput{SenderID: alice.ID, RecipientID: bob.ID, Body: "hello"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := env.svc.Send(SendMessageInput{SenderID: bob.ID, RecipientID: alice.ID, Body: "hey"}); err != nil {
		t.Fatalf("reply failed: %v", err)
	}

	messages, total, err := env.svc.Conversation(alice.ID, bob.ID, 1, 20)
	if err != nil {
		t.Fatalf("conversation failed: %v", err)
	}
	if total != 2 || len(messages) != 2 {
		t.Fatalf("expected 2 messages, got total=%d len=%d", total, len(messages))
	}
	if messages[0].Body != "hello" {
		t.Fatalf("expected oldest first, got %q", messages[0].Body)
	}

	// only the recipient can mark a message read
	if err := env.svc.MarkRead(first.ID, alice.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for sender mark-read, got %v", err)
	}
	if err := env.svc.MarkRead(first.ID, bob.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	unread, err := env.svc.CountUnread(bob.ID)
	if err != nil {
		t.Fatalf("count unread failed: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected 0 unread, got %d", unread)
	}
}
