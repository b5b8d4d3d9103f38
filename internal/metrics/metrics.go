package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"futures-testnet-bot/internal/config"
	"futures-testnet-bot/internal/logger"
)

const batchSize = 50

// Tracker records order round-trip latencies (build → validate → exchange
// ack) and batch-logs min/max/avg, optionally shipping the batch to an
// external metrics endpoint.
type Tracker struct {
	mu         sync.Mutex
	minTime    time.Duration
	maxTime    time.Duration
	totalTime  time.Duration
	orderCount int64
	batchCount int
	startTime  time.Time
	cfg        *config.Config
}

// MetricsPayload is the JSON body for the metrics API.
type MetricsPayload struct {
	Strategy    string `json:"strategy"`
	Orders      string `json:"orders"`
	Min         string `json:"min"`
	Max         string `json:"max"`
	Avg         string `json:"avg"`
	Uptime      string `json:"uptime"`
	LastUpdated string `json:"lastUpdated"`
}

func NewTracker(cfg *config.Config) *Tracker {
	return &Tracker{
		minTime:   time.Duration(1<<63 - 1),
		startTime: time.Now(),
		cfg:       cfg,
	}
}

// TrackOrder records one order round trip.
func (t *Tracker) TrackOrder(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.orderCount++
	t.batchCount++
	t.totalTime += duration

	if duration < t.minTime {
		t.minTime = duration
	}
	if duration > t.maxTime {
		t.maxTime = duration
	}

	if t.batchCount >= batchSize {
		avgTime := t.totalTime / time.Duration(t.orderCount)

		logger.Info("Order latency metrics",
			"last_ms", duration.Milliseconds(),
			"min_ms", t.minTime.Milliseconds(),
			"max_ms", t.maxTime.Milliseconds(),
			"avg_ms", avgTime.Milliseconds(),
			"total_orders", t.orderCount,
		)

		t.sendMetricsToAPI(avgTime)
		t.batchCount = 0
	}
}

func (t *Tracker) sendMetricsToAPI(avgTime time.Duration) {
	if t.cfg.MetricsAPIURL == "" {
		return
	}

	uptime := int64(time.Since(t.startTime).Seconds())
	payload := MetricsPayload{
		Strategy:    "futures-testnet-bot",
		Orders:      fmt.Sprintf("%d", t.orderCount),
		Min:         fmt.Sprintf("%.3f", t.minTime.Seconds()),
		Max:         fmt.Sprintf("%.3f", t.maxTime.Seconds()),
		Avg:         fmt.Sprintf("%.3f", avgTime.Seconds()),
		Uptime:      fmt.Sprintf("%d", uptime),
		LastUpdated: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal metrics payload", "error", err)
		return
	}

	req, err := http.NewRequest("POST", t.cfg.MetricsAPIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		logger.Error("Failed to create metrics API request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.cfg.MetricsAPIToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		logger.Error("Failed to send metrics to API", "error", err)
		return
	}
	defer resp.Body.Close()
}
