package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"futures-testnet-bot/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	StreamBaseURL        = "wss://fstream.binance.com/ws"
	TestnetStreamBaseURL = "wss://stream.binancefuture.com/ws"
)

// ListenKeyManager is the slice of the gateway the stream needs for
// listen-key lifecycle.
type ListenKeyManager interface {
	StartUserStream(ctx context.Context) (string, error)
	KeepAliveUserStream(ctx context.Context, listenKey string) error
	CloseUserStream(ctx context.Context, listenKey string) error
}

// OrderUpdate is the order payload of a futures ORDER_TRADE_UPDATE event.
type OrderUpdate struct {
	Symbol        string `json:"s"`
	ClientOrderID string `json:"c"`
	Side          string `json:"S"`
	Type          string `json:"o"`
	TimeInForce   string `json:"f"`
	Quantity      string `json:"q"`
	Price         string `json:"p"`
	AvgPrice      string `json:"ap"`
	StopPrice     string `json:"sp"`
	ExecutionType string `json:"x"` // NEW, CANCELED, EXPIRED, TRADE
	Status        string `json:"X"` // NEW, PARTIALLY_FILLED, FILLED, CANCELED, EXPIRED
	OrderID       int64  `json:"i"`
	LastFilledQty string `json:"l"`
	CumFilledQty  string `json:"z"`
	LastFillPrice string `json:"L"`
	Commission    string `json:"n"`
	CommAsset     string `json:"N"`
	TradeTime     int64  `json:"T"`
	TradeID       int64  `json:"t"`
	ReduceOnly    bool   `json:"R"`
	RealizedPnL   string `json:"rp"`
}

type userDataEvent struct {
	Event     string      `json:"e"`
	EventTime int64       `json:"E"`
	TxTime    int64       `json:"T"`
	Order     OrderUpdate `json:"o"`
}

// StreamService reads the futures user-data stream and forwards order
// updates. Listen keys expire after 60 minutes, so a keepalive ping goes
// out every 30.
type StreamService struct {
	keys    ListenKeyManager
	baseURL string

	ListenKey string
	WSConn    *websocket.Conn
	Updates   chan OrderUpdate
	StopCh    chan struct{}
}

func NewStreamService(keys ListenKeyManager, testnet bool) *StreamService {
	base := StreamBaseURL
	if testnet {
		base = TestnetStreamBaseURL
	}
	return &StreamService{
		keys:    keys,
		baseURL: base,
		Updates: make(chan OrderUpdate, 100),
	}
}

// Start acquires a listen key, connects, and blocks in the read loop
// until the connection drops or Stop is called.
func (s *StreamService) Start(ctx context.Context) error {
	key, err := s.keys.StartUserStream(ctx)
	if err != nil {
		return fmt.Errorf("failed to get listen key: %w", err)
	}
	s.ListenKey = key
	logger.Info("ListenKey acquired")

	url := fmt.Sprintf("%s/%s", s.baseURL, s.ListenKey)
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	s.WSConn = c
	logger.Info("WebSocket connected to futures user stream")

	s.StopCh = make(chan struct{})
	go s.keepAliveLoop(ctx)

	s.readLoop()
	return nil
}

func (s *StreamService) keepAliveLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.StopCh:
			return
		case <-ticker.C:
			if err := s.keys.KeepAliveUserStream(ctx, s.ListenKey); err != nil {
				logger.Error("Failed to keep alive listen key", "error", err)
			} else {
				logger.Debug("ListenKey keepalive sent")
			}
		}
	}
}

func (s *StreamService) readLoop() {
	defer func() {
		if s.WSConn != nil {
			s.WSConn.Close()
		}
		logger.Warn("User stream connection closed")
	}()

	for {
		select {
		case <-s.StopCh:
			return
		default:
			_, message, err := s.WSConn.ReadMessage()
			if err != nil {
				logger.Error("WebSocket read error", "error", err)
				return
			}

			var event userDataEvent
			if err := json.Unmarshal(message, &event); err != nil {
				logger.Error("Failed to parse user stream message", "error", err, "msg", string(message))
				continue
			}

			// The stream also carries ACCOUNT_UPDATE and margin-call
			// events; only order updates matter here.
			if event.Event == "ORDER_TRADE_UPDATE" {
				s.Updates <- event.Order
			}
		}
	}
}

func (s *StreamService) Stop(ctx context.Context) error {
	logger.Info("Stopping user stream...")
	if s.StopCh != nil {
		close(s.StopCh)
	}
	if s.ListenKey != "" {
		_ = s.keys.CloseUserStream(ctx, s.ListenKey)
	}
	if s.WSConn != nil {
		return s.WSConn.Close()
	}
	return nil
}
