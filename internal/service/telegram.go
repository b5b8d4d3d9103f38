package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"futures-testnet-bot/internal/config"
	"futures-testnet-bot/internal/logger"
	"futures-testnet-bot/internal/model"
)

// TelegramService pushes order notifications. With no credentials
// configured every send is a silent no-op, so callers never guard.
type TelegramService struct {
	Cfg *config.Config
}

func NewTelegramService(cfg *config.Config) *TelegramService {
	return &TelegramService{Cfg: cfg}
}

func (s *TelegramService) SendMessage(text string) {
	if s.Cfg.TelegramToken == "" || s.Cfg.TelegramChatID == "" {
		logger.Debug("Telegram credentials not set, skipping message")
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.Cfg.TelegramToken)
	payload := map[string]string{
		"chat_id":    s.Cfg.TelegramChatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal Telegram payload", "error", err)
		return
	}

	// Send async
	go func() {
		resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonPayload))
		if err != nil {
			logger.Error("Failed to send Telegram message", "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			logger.Error("Telegram API error", "status", resp.Status)
		}
	}()
}

// NotifyOrderPlaced announces a freshly acknowledged order.
func (s *TelegramService) NotifyOrderPlaced(o model.NormalizedOrder, ack model.OrderAck) {
	now := time.Now().Format("02/01/2006, 15:04:05")

	var priceLine string
	switch o.Type {
	case model.TypeMarket:
		priceLine = "💲 Price: MARKET"
	case model.TypeStopLimit:
		priceLine = fmt.Sprintf("💲 Price: %s (stop %s)", o.Price, o.StopPrice)
	default:
		priceLine = fmt.Sprintf("💲 Price: %s", o.Price)
	}

	msg := fmt.Sprintf(
		"🤖 Futures Testnet Bot - %s\n"+
			"🆔 Order ID: %d\n"+
			"📊 Status: %s\n"+
			"🟢 Side: %s (%s)\n"+
			"📦 Qty: %s\n"+
			"%s\n"+
			"📅 Date: %s",
		o.Symbol,
		ack.OrderID,
		s.escapeMarkdown(ack.Status),
		o.Side,
		o.Type,
		o.Quantity,
		priceLine,
		now,
	)
	s.SendMessage(msg)
}

// NotifyOrderFilled announces a fill from the user-data stream.
func (s *TelegramService) NotifyOrderFilled(u OrderUpdate) {
	now := time.Now().Format("02/01/2006, 15:04:05")
	msg := fmt.Sprintf(
		"✅ Order %s - %s\n"+
			"🆔 Order ID: %d\n"+
			"🟢 Side: %s (%s)\n"+
			"📦 Filled: %s / %s\n"+
			"💲 Avg Price: %s\n"+
			"📅 Date: %s",
		s.escapeMarkdown(u.Status),
		u.Symbol,
		u.OrderID,
		u.Side,
		u.Type,
		u.CumFilledQty,
		u.Quantity,
		u.AvgPrice,
		now,
	)
	s.SendMessage(msg)
}

// NotifyRejection reports an order that never left the bot.
func (s *TelegramService) NotifyRejection(symbol, code, message string) {
	msg := fmt.Sprintf(
		"⚠️ *Order rejected* - %s\n"+
			"Code: %s\n"+
			"%s",
		symbol,
		s.escapeMarkdown(code),
		s.escapeMarkdown(message),
	)
	s.SendMessage(msg)
}

func (s *TelegramService) escapeMarkdown(text string) string {
	// Replace _ with \_ to prevent Markdown parsing errors
	return strings.ReplaceAll(text, "_", "\\_")
}
