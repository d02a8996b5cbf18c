package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/educycle/marketplace/internal/config"
	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/models"
)

// EmailService sends plain-text mail over SMTP. Email is the
// best-effort leg of every notification: callers log failures and
// move on.
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService creates the email service.
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendNotificationEmail mails the email copy of an in-app notification.
func (s *EmailService) SendNotificationEmail(toEmail string, notification *models.Notification) error {
	if notification == nil {
		return nil
	}
	subject := strings.TrimSpace(notification.Title)
	if subject == "" {
		subject = "You have a new notification"
	}
	body := strings.TrimSpace(notification.Message)
	if body == "" {
		body = subject
	}
	return s.sendTextEmail(toEmail, subject, body)
}

// OrderStatusEmailInput describes an order status change email.
type OrderStatusEmailInput struct {
	OrderNo  string
	Status   string
	Amount   models.Money
	Currency string
}

// SendOrderStatusEmail mails the buyer about an order status change.
func (s *EmailService) SendOrderStatusEmail(toEmail string, input OrderStatusEmailInput) error {
	subject, body := buildOrderStatusContent(input)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendCustomEmail sends a test or ad-hoc email.
func (s *EmailService) SendCustomEmail(toEmail, subject, body string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "SMTP configuration test"
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = "This is a test email from EduCycle. If you received it, SMTP is configured correctly."
	}
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	if s.cfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
}

func buildOrderStatusContent(input OrderStatusEmailInput) (string, string) {
	status := strings.ToLower(strings.TrimSpace(input.Status))
	amount := input.Amount.String()
	currency := strings.TrimSpace(input.Currency)
	subject := fmt.Sprintf("Order %s is now %s", input.OrderNo, status)
	switch status {
	case constants.OrderStatusConfirmed:
		body := fmt.Sprintf("Your order %s has been confirmed.\n\nTotal: %s %s\n\nThe seller will arrange handover soon.", input.OrderNo, amount, currency)
		return subject, body
	case constants.OrderStatusShipped:
		body := fmt.Sprintf("Your order %s is on its way.\n\nTotal: %s %s", input.OrderNo, amount, currency)
		return subject, body
	case constants.OrderStatusDelivered:
		body := fmt.Sprintf("Your order %s has been delivered.\n\nTotal: %s %s\n\nIf everything looks good, consider leaving the seller a review.", input.OrderNo, amount, currency)
		return subject, body
	case constants.OrderStatusCancelled:
		body := fmt.Sprintf("Your order %s has been cancelled.\n\nTotal: %s %s", input.OrderNo, amount, currency)
		return subject, body
	default:
		body := fmt.Sprintf("Your order %s status changed to %s.\n\nTotal: %s %s", input.OrderNo, status, amount, currency)
		return subject, body
	}
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
