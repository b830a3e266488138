package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// OrderNotification contains order data for Telegram notification.
type OrderNotification struct {
	OrderNumber   string
	TotalAmount   decimal.Decimal
	Currency      string
	TotalItems    int
	CustomerPhone string
	CustomerEmail string
}

// PaymentNotification contains payment outcome data for Telegram notification.
type PaymentNotification struct {
	OrderNumber   string
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
}

// FormatPrice formats a price with currency and thousand separators.
func FormatPrice(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "UZS"
	}
	str := amount.Round(0).String()

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && digit != '-' && (length-i)%3 == 0 && str[i-1] != '-' {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + " " + currency
}

// NotifyNewOrder sends a new-order notification to the admin chat.
func (s *TelegramService) NotifyNewOrder(n OrderNotification) error {
	var msg strings.Builder
	msg.WriteString("🛍 <b>New order</b>\n\n")
	msg.WriteString(fmt.Sprintf("Order: <code>%s</code>\n", n.OrderNumber))
	msg.WriteString(fmt.Sprintf("Items: %d\n", n.TotalItems))
	msg.WriteString(fmt.Sprintf("Total: <b>%s</b>\n", FormatPrice(n.TotalAmount, n.Currency)))
	if n.CustomerPhone != "" {
		msg.WriteString(fmt.Sprintf("Phone: %s\n", n.CustomerPhone))
	}
	if n.CustomerEmail != "" {
		msg.WriteString(fmt.Sprintf("Email: %s\n", n.CustomerEmail))
	}
	return s.SendToAdmin(msg.String())
}

// NotifyPaymentSuccess sends a payment-confirmed notification to the admin chat.
func (s *TelegramService) NotifyPaymentSuccess(n PaymentNotification) error {
	var msg strings.Builder
	msg.WriteString("✅ <b>Payment confirmed</b>\n\n")
	msg.WriteString(fmt.Sprintf("Order: <code>%s</code>\n", n.OrderNumber))
	msg.WriteString(fmt.Sprintf("Transaction: <code>%s</code>\n", n.TransactionID))
	msg.WriteString(fmt.Sprintf("Amount: <b>%s</b>\n", FormatPrice(n.Amount, n.Currency)))
	return s.SendToAdmin(msg.String())
}
