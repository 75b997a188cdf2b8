// Package services hosts the background workers that run alongside the
// HTTP server.
package services

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/colletr/colletr/backend/internal/catalog"
	"github.com/colletr/colletr/backend/internal/logger"
	"github.com/colletr/colletr/backend/internal/metrics"
	"github.com/colletr/colletr/backend/internal/valuation"
)

// maxRecentEvents bounds the triggered-alert history kept for the status
// endpoint.
const maxRecentEvents = 50

// AlertEvent records one triggered price alert.
type AlertEvent struct {
	CollectionID  string    `json:"collection_id"`
	ItemID        string    `json:"item_id"`
	ItemName      string    `json:"item_name"`
	PreviousPrice float64   `json:"previous_price"`
	CurrentPrice  float64   `json:"current_price"`
	ChangePercent float64   `json:"change_percent"`
	Direction     string    `json:"direction"` // "up" | "down"
	TriggeredAt   time.Time `json:"triggered_at"`
}

// AlertStatus is the worker snapshot exposed over the API.
type AlertStatus struct {
	LastRunTime       time.Time    `json:"last_run_time"`
	NextRunTime       time.Time    `json:"next_run_time"`
	ItemsCheckedToday int          `json:"items_checked_today"`
	QueueSize         int          `json:"queue_size"`
	RecentEvents      []AlertEvent `json:"recent_events,omitempty"`
}

// AlertWorker periodically re-prices every alert-enabled item and flags
// moves beyond the item's configured threshold.
type AlertWorker struct {
	store    *catalog.Store
	gateway  valuation.Gateway
	interval time.Duration
	log      logger.Logger
	mu       sync.RWMutex

	// Priority queue for user-requested refreshes
	urgentQueue []string
	urgentMu    sync.Mutex

	// Stats (reset at midnight)
	itemsCheckedToday int
	lastRunTime       time.Time
	lastStatsDay      time.Time

	recentEvents []AlertEvent
}

func NewAlertWorker(store *catalog.Store, gateway valuation.Gateway, interval time.Duration, log logger.Logger) *AlertWorker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &AlertWorker{
		store:    store,
		gateway:  gateway,
		interval: interval,
		log:      log,
	}
}

// QueueRefresh adds an item to the high-priority check queue and returns its
// 1-indexed position.
func (w *AlertWorker) QueueRefresh(itemID string) int {
	w.urgentMu.Lock()
	defer w.urgentMu.Unlock()

	for i, id := range w.urgentQueue {
		if id == itemID {
			return i + 1
		}
	}
	w.urgentQueue = append(w.urgentQueue, itemID)
	w.log.Info("alert worker: queued refresh",
		logger.String("item_id", itemID),
		logger.Int("queue_size", len(w.urgentQueue)))
	return len(w.urgentQueue)
}

// GetQueueSize returns current urgent queue size.
func (w *AlertWorker) GetQueueSize() int {
	w.urgentMu.Lock()
	defer w.urgentMu.Unlock()
	return len(w.urgentQueue)
}

// resetDailyStatsIfNeeded resets itemsCheckedToday at midnight.
func (w *AlertWorker) resetDailyStatsIfNeeded() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if w.lastStatsDay.Before(today) {
		w.itemsCheckedToday = 0
		w.lastStatsDay = today
	}
}

// Start begins the background alert sweep loop. It runs one sweep
// immediately, then one per interval until ctx is canceled.
func (w *AlertWorker) Start(ctx context.Context) {
	w.log.Info("alert worker started", logger.String("interval", w.interval.String()))

	if checked, err := w.Sweep(ctx); err != nil {
		w.log.Error("alert worker: initial sweep failed", logger.Error(err))
	} else if checked > 0 {
		w.log.Info("alert worker: initial sweep done", logger.Int("items_checked", checked))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("alert worker stopping")
			return
		case <-ticker.C:
			if checked, err := w.Sweep(ctx); err != nil {
				w.log.Error("alert worker: sweep failed", logger.Error(err))
			} else if checked > 0 {
				w.log.Info("alert worker: sweep done", logger.Int("items_checked", checked))
			}
		}
	}
}

// Sweep re-prices every alert-enabled item, urgent requests first, and
// records threshold breaches. Gateway failures skip the item; the sweep
// itself only fails on context cancellation.
func (w *AlertWorker) Sweep(ctx context.Context) (int, error) {
	w.resetDailyStatsIfNeeded()

	targets := w.store.AlertTargets()
	if len(targets) == 0 {
		return 0, nil
	}

	w.urgentMu.Lock()
	urgent := make(map[string]bool, len(w.urgentQueue))
	for _, id := range w.urgentQueue {
		urgent[id] = true
	}
	w.urgentQueue = nil
	w.urgentMu.Unlock()

	ordered := make([]catalog.AlertTarget, 0, len(targets))
	for _, t := range targets {
		if urgent[t.Item.ID] {
			ordered = append(ordered, t)
		}
	}
	for _, t := range targets {
		if !urgent[t.Item.ID] {
			ordered = append(ordered, t)
		}
	}

	checked := 0
	for _, target := range ordered {
		if ctx.Err() != nil {
			return checked, ctx.Err()
		}
		if w.checkTarget(ctx, target) {
			checked++
		}
	}

	w.mu.Lock()
	w.itemsCheckedToday += checked
	w.lastRunTime = time.Now()
	w.mu.Unlock()

	return checked, nil
}

// checkTarget re-prices one item and records a breach event when the move
// exceeds the alert threshold. Reports whether the item was checked.
func (w *AlertWorker) checkTarget(ctx context.Context, target catalog.AlertTarget) bool {
	item := target.Item
	metrics.AlertChecksTotal.Inc()

	v, err := w.gateway.Valuate(ctx, item.Name, item.Condition)
	if err != nil {
		w.log.Warn("alert worker: valuation failed, skipping item",
			logger.String("item_id", item.ID),
			logger.Error(err))
		return false
	}

	// Keep the fresh valuation on the item; a stale token means a
	// user-initiated refresh is in flight and wins.
	if token, ok := w.store.BeginValuation(target.CollectionID, item.ID); ok {
		if _, err := w.store.ApplyValuation(ctx, target.CollectionID, item.ID, token, *v); err != nil {
			w.log.Warn("alert worker: failed to persist valuation",
				logger.String("item_id", item.ID),
				logger.Error(err))
		}
	}

	previous := item.PriceAlert.LastCheckedPrice
	current := v.AveragePrice
	if previous > 0 && current > 0 {
		change := (current - previous) / previous * 100
		if math.Abs(change) >= item.PriceAlert.ThresholdPercentage {
			direction := "up"
			if change < 0 {
				direction = "down"
			}
			w.recordEvent(AlertEvent{
				CollectionID:  target.CollectionID,
				ItemID:        item.ID,
				ItemName:      item.Name,
				PreviousPrice: previous,
				CurrentPrice:  current,
				ChangePercent: change,
				Direction:     direction,
				TriggeredAt:   time.Now(),
			})
			metrics.AlertsTriggeredTotal.Inc()
			w.log.Info("price alert triggered",
				logger.String("item_id", item.ID),
				logger.String("name", item.Name),
				logger.Float64("previous", previous),
				logger.Float64("current", current),
				logger.Float64("change_percent", change))
		}
	}

	if _, err := w.store.RecordAlertCheck(ctx, target.CollectionID, item.ID, current); err != nil {
		w.log.Warn("alert worker: failed to record check",
			logger.String("item_id", item.ID),
			logger.Error(err))
	}
	return true
}

func (w *AlertWorker) recordEvent(event AlertEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.recentEvents = append([]AlertEvent{event}, w.recentEvents...)
	if len(w.recentEvents) > maxRecentEvents {
		w.recentEvents = w.recentEvents[:maxRecentEvents]
	}
}

// GetStatus returns the current worker snapshot.
func (w *AlertWorker) GetStatus() AlertStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return AlertStatus{
		LastRunTime:       w.lastRunTime,
		NextRunTime:       w.lastRunTime.Add(w.interval),
		ItemsCheckedToday: w.itemsCheckedToday,
		QueueSize:         w.GetQueueSize(),
		RecentEvents:      append([]AlertEvent(nil), w.recentEvents...),
	}
}
