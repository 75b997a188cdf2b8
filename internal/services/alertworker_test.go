package services

import (
	"context"
	"testing"
	"time"

	"github.com/colletr/colletr/backend/internal/catalog"
	"github.com/colletr/colletr/backend/internal/logger"
	"github.com/colletr/colletr/backend/internal/models"
	"github.com/colletr/colletr/backend/internal/valuation"
)

// fakeGateway returns a fixed price per item name.
type fakeGateway struct {
	prices map[string]float64
	err    error
	calls  int
}

func (f *fakeGateway) Identify(context.Context, []byte, models.Category) (*valuation.Identification, error) {
	return nil, &valuation.IdentificationError{Err: context.Canceled}
}

func (f *fakeGateway) Valuate(_ context.Context, name string, _ models.Condition) (*models.Valuation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Valuation{
		Currency:     "BRL",
		AveragePrice: f.prices[name],
		LastUpdated:  time.Now(),
	}, nil
}

func newAlertFixture(t *testing.T, lastChecked, threshold float64) (*catalog.Store, models.Collection, models.Item) {
	t.Helper()
	ctx := context.Background()
	store := catalog.NewStore(logger.Nop(), catalog.ChangeHooks{})

	col, err := store.CreateCollection(ctx, "alerts", "", models.CategoryConsoles)
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	item, ok, err := store.AddItem(ctx, col.ID, models.AddItemRequest{Name: "Mega Drive"})
	if err != nil || !ok {
		t.Fatalf("AddItem: ok=%v err=%v", ok, err)
	}
	_, err = store.SetPriceAlert(ctx, col.ID, item.ID, models.PriceAlert{
		Enabled:             true,
		ThresholdPercentage: threshold,
		LastCheckedPrice:    lastChecked,
	})
	if err != nil {
		t.Fatalf("SetPriceAlert: %v", err)
	}
	return store, col, item
}

func TestSweepTriggersOnThresholdBreach(t *testing.T) {
	store, col, item := newAlertFixture(t, 400, 10)
	gw := &fakeGateway{prices: map[string]float64{"Mega Drive": 500}} // +25%

	w := NewAlertWorker(store, gw, time.Hour, logger.Nop())
	checked, err := w.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if checked != 1 {
		t.Fatalf("checked = %d, want 1", checked)
	}

	status := w.GetStatus()
	if len(status.RecentEvents) != 1 {
		t.Fatalf("got %d events, want 1", len(status.RecentEvents))
	}
	event := status.RecentEvents[0]
	if event.ItemID != item.ID || event.Direction != "up" {
		t.Errorf("event = %+v", event)
	}
	if event.ChangePercent != 25 {
		t.Errorf("ChangePercent = %v, want 25", event.ChangePercent)
	}

	// The check price and the valuation both moved forward.
	items, _ := store.Items(col.ID)
	if items[0].PriceAlert.LastCheckedPrice != 500 {
		t.Errorf("LastCheckedPrice = %v, want 500", items[0].PriceAlert.LastCheckedPrice)
	}
	if items[0].Valuation == nil || items[0].Valuation.AveragePrice != 500 {
		t.Errorf("valuation not refreshed: %+v", items[0].Valuation)
	}
}

func TestSweepStaysQuietBelowThreshold(t *testing.T) {
	store, _, _ := newAlertFixture(t, 400, 10)
	gw := &fakeGateway{prices: map[string]float64{"Mega Drive": 420}} // +5%

	w := NewAlertWorker(store, gw, time.Hour, logger.Nop())
	if _, err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if events := w.GetStatus().RecentEvents; len(events) != 0 {
		t.Errorf("got %d events, want none", len(events))
	}
}

func TestSweepSkipsItemOnGatewayFailure(t *testing.T) {
	store, col, _ := newAlertFixture(t, 400, 10)
	gw := &fakeGateway{err: &valuation.ValuationError{Err: context.DeadlineExceeded}}

	w := NewAlertWorker(store, gw, time.Hour, logger.Nop())
	checked, err := w.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if checked != 0 {
		t.Errorf("checked = %d, want 0", checked)
	}

	// The stale price survives for the next sweep.
	items, _ := store.Items(col.ID)
	if items[0].PriceAlert.LastCheckedPrice != 400 {
		t.Errorf("LastCheckedPrice = %v, want unchanged 400", items[0].PriceAlert.LastCheckedPrice)
	}
}

func TestSweepIgnoresDisabledAlerts(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewStore(logger.Nop(), catalog.ChangeHooks{})
	col, _ := store.CreateCollection(ctx, "alerts", "", models.CategoryConsoles)
	item, _, _ := store.AddItem(ctx, col.ID, models.AddItemRequest{Name: "Saturn"})
	store.SetPriceAlert(ctx, col.ID, item.ID, models.PriceAlert{
		Enabled:             false,
		ThresholdPercentage: 10,
	})

	gw := &fakeGateway{prices: map[string]float64{"Saturn": 999}}
	w := NewAlertWorker(store, gw, time.Hour, logger.Nop())
	checked, err := w.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if checked != 0 || gw.calls != 0 {
		t.Errorf("disabled alert was checked: checked=%d calls=%d", checked, gw.calls)
	}
}

func TestQueueRefreshDeduplicates(t *testing.T) {
	store, _, item := newAlertFixture(t, 0, 10)
	w := NewAlertWorker(store, &fakeGateway{}, time.Hour, logger.Nop())

	if pos := w.QueueRefresh(item.ID); pos != 1 {
		t.Errorf("first queue position = %d, want 1", pos)
	}
	if pos := w.QueueRefresh(item.ID); pos != 1 {
		t.Errorf("duplicate queue position = %d, want 1", pos)
	}
	if size := w.GetQueueSize(); size != 1 {
		t.Errorf("queue size = %d, want 1", size)
	}
}
