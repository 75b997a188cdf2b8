// Package catalog is the single source of truth for collections and items.
// All mutation flows through named operations on Store; state is never
// edited structurally from outside. Every successful mutation triggers the
// on-change hooks, which the server wires to whole-state snapshot saves.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/colletr/colletr/backend/internal/logger"
	"github.com/colletr/colletr/backend/internal/metrics"
	"github.com/colletr/colletr/backend/internal/models"
)

// ReferentialIntegrityError blocks deletion of a category still referenced
// by at least one collection. No partial mutation happens.
type ReferentialIntegrityError struct {
	CategoryName string
	References   int
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("category %q is used by %d collection(s)", e.CategoryName, e.References)
}

// ErrInvalidThreshold is returned when a price alert threshold is outside
// the [1,50] percent range.
var ErrInvalidThreshold = fmt.Errorf("alert threshold must be between %v and %v percent",
	models.MinAlertThreshold, models.MaxAlertThreshold)

// ChangeHooks receive the full state after each successful mutation.
// A hook error is reported to the caller but the in-memory mutation stands;
// the next successful save catches up.
type ChangeHooks struct {
	Collections func(ctx context.Context, collections []models.Collection) error
	Categories  func(ctx context.Context, categories []models.CustomCategory) error
}

// Store owns all collections, their items, and the custom category tags.
//
// Mutations against ids that do not resolve are lenient no-ops: they return
// false and change nothing. The HTTP layer maps that to 404; the store
// itself never errors on a miss.
type Store struct {
	mu          sync.RWMutex
	collections []models.Collection
	categories  []models.CustomCategory

	// valuationSeq issues per-item tokens so a stale async valuation
	// result can be detected and discarded (see BeginValuation).
	valuationSeq map[string]uint64

	hooks ChangeHooks
	log   logger.Logger
}

func NewStore(log logger.Logger, hooks ChangeHooks) *Store {
	return &Store{
		valuationSeq: make(map[string]uint64),
		hooks:        hooks,
		log:          log,
	}
}

// Bootstrap seeds the store with loaded state. Hooks do not fire: the data
// just came from disk.
func (s *Store) Bootstrap(collections []models.Collection, categories []models.CustomCategory) {
	s.mu.Lock()
	s.collections = cloneCollections(collections)
	s.categories = append([]models.CustomCategory(nil), categories...)
	s.mu.Unlock()
	s.updateGauges()
}

// --- Collections ---

func (s *Store) Collections() []models.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCollections(s.collections)
}

func (s *Store) CollectionByID(id string) (models.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.collections {
		if s.collections[i].ID == id {
			return cloneCollection(s.collections[i]), true
		}
	}
	return models.Collection{}, false
}

func (s *Store) CreateCollection(ctx context.Context, name, description string, category models.Category) (models.Collection, error) {
	col := models.Collection{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Category:    category,
		Items:       []models.Item{},
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.collections = append(s.collections, col)
	s.mu.Unlock()

	s.log.Info("collection created",
		logger.String("collection_id", col.ID),
		logger.String("category", string(category)))

	return cloneCollection(col), s.collectionsChanged(ctx)
}

func (s *Store) UpdateCollection(ctx context.Context, id string, req models.UpdateCollectionRequest) (models.Collection, bool, error) {
	s.mu.Lock()
	idx := s.collectionIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Collection{}, false, nil
	}

	col := &s.collections[idx]
	if req.Name != nil {
		col.Name = *req.Name
	}
	if req.Description != nil {
		col.Description = *req.Description
	}
	if req.Category != nil {
		col.Category = *req.Category
	}
	updated := cloneCollection(*col)
	s.mu.Unlock()

	return updated, true, s.collectionsChanged(ctx)
}

func (s *Store) DeleteCollection(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	idx := s.collectionIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.collections = append(s.collections[:idx], s.collections[idx+1:]...)
	s.mu.Unlock()

	return true, s.collectionsChanged(ctx)
}

// --- Items ---

func (s *Store) Items(collectionID string) ([]models.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.collectionIndex(collectionID)
	if idx < 0 {
		return nil, false
	}
	return append([]models.Item(nil), s.collections[idx].Items...), true
}

// AddItem prepends a new item to the collection: display order is
// newest-first. Returns false without mutating when the collection does not
// resolve.
func (s *Store) AddItem(ctx context.Context, collectionID string, req models.AddItemRequest) (models.Item, bool, error) {
	item := models.Item{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		ItemType:     req.ItemType,
		Condition:    req.Condition,
		ImageRef:     req.ImageRef,
		Valuation:    req.Valuation,
		AddedAt:      time.Now(),
	}
	if item.ItemType == "" {
		item.ItemType = models.ItemTypeOther
	}
	if item.Condition == "" {
		item.Condition = models.ConditionLoose
	}

	s.mu.Lock()
	idx := s.collectionIndex(collectionID)
	if idx < 0 {
		s.mu.Unlock()
		return models.Item{}, false, nil
	}
	col := &s.collections[idx]
	col.Items = append([]models.Item{item}, col.Items...)
	s.mu.Unlock()

	s.log.Info("item added",
		logger.String("collection_id", collectionID),
		logger.String("item_id", item.ID),
		logger.String("name", item.Name))

	return item, true, s.collectionsChanged(ctx)
}

// UpdateItem replaces fields of the matching item in place; list position is
// preserved and nil request fields stay untouched.
func (s *Store) UpdateItem(ctx context.Context, collectionID, itemID string, req models.UpdateItemRequest) (models.Item, bool, error) {
	s.mu.Lock()
	item := s.findItem(collectionID, itemID)
	if item == nil {
		s.mu.Unlock()
		return models.Item{}, false, nil
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Manufacturer != nil {
		item.Manufacturer = *req.Manufacturer
	}
	if req.ItemType != nil {
		item.ItemType = *req.ItemType
	}
	if req.Condition != nil {
		item.Condition = *req.Condition
	}
	if req.ImageRef != nil {
		item.ImageRef = *req.ImageRef
	}
	if req.Valuation != nil {
		item.Valuation = req.Valuation
	}
	updated := *item
	s.mu.Unlock()

	return updated, true, s.collectionsChanged(ctx)
}

func (s *Store) DeleteItem(ctx context.Context, collectionID, itemID string) (bool, error) {
	s.mu.Lock()
	idx := s.collectionIndex(collectionID)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	col := &s.collections[idx]
	found := false
	for i := range col.Items {
		if col.Items[i].ID == itemID {
			col.Items = append(col.Items[:i], col.Items[i+1:]...)
			found = true
			break
		}
	}
	if found {
		delete(s.valuationSeq, itemID)
	}
	s.mu.Unlock()

	if !found {
		return false, nil
	}
	return true, s.collectionsChanged(ctx)
}

// SetPriceAlert attaches or overwrites the price alert on one item.
func (s *Store) SetPriceAlert(ctx context.Context, collectionID, itemID string, alert models.PriceAlert) (bool, error) {
	if alert.ThresholdPercentage < models.MinAlertThreshold || alert.ThresholdPercentage > models.MaxAlertThreshold {
		return false, ErrInvalidThreshold
	}

	s.mu.Lock()
	item := s.findItem(collectionID, itemID)
	if item == nil {
		s.mu.Unlock()
		return false, nil
	}
	item.PriceAlert = &alert
	s.mu.Unlock()

	return true, s.collectionsChanged(ctx)
}

// --- Valuation tokens ---
//
// Two overlapping valuation requests for the same item would race
// last-write-wins without coordination. BeginValuation issues a
// monotonically increasing token per item; ApplyValuation discards any
// result whose token is no longer the latest outstanding one.

func (s *Store) BeginValuation(collectionID, itemID string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findItem(collectionID, itemID) == nil {
		return 0, false
	}
	s.valuationSeq[itemID]++
	return s.valuationSeq[itemID], true
}

// ApplyValuation stores the valuation if token is still the latest issued
// for the item. Returns false when the item is gone or the result is stale.
// A valuation violating min <= avg <= max is stored as-is: the gateway is
// best-effort and the store must tolerate it.
func (s *Store) ApplyValuation(ctx context.Context, collectionID, itemID string, token uint64, v models.Valuation) (bool, error) {
	s.mu.Lock()
	item := s.findItem(collectionID, itemID)
	if item == nil || s.valuationSeq[itemID] != token {
		s.mu.Unlock()
		return false, nil
	}
	item.Valuation = &v
	s.mu.Unlock()

	return true, s.collectionsChanged(ctx)
}

// AlertTarget is one alert-enabled item, snapshotted for the alert worker.
type AlertTarget struct {
	CollectionID string
	Item         models.Item
}

// AlertTargets returns every item with an enabled price alert.
func (s *Store) AlertTargets() []AlertTarget {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var targets []AlertTarget
	for i := range s.collections {
		for _, item := range s.collections[i].Items {
			if item.PriceAlert != nil && item.PriceAlert.Enabled {
				targets = append(targets, AlertTarget{
					CollectionID: s.collections[i].ID,
					Item:         item,
				})
			}
		}
	}
	return targets
}

// RecordAlertCheck updates the alert's last checked price after a worker
// sweep.
func (s *Store) RecordAlertCheck(ctx context.Context, collectionID, itemID string, price float64) (bool, error) {
	s.mu.Lock()
	item := s.findItem(collectionID, itemID)
	if item == nil || item.PriceAlert == nil {
		s.mu.Unlock()
		return false, nil
	}
	item.PriceAlert.LastCheckedPrice = price
	s.mu.Unlock()

	return true, s.collectionsChanged(ctx)
}

// --- Stats ---

func (s *Store) Stats(collectionID string) (models.CollectionStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.collectionIndex(collectionID)
	if idx < 0 {
		return models.CollectionStats{}, false
	}

	col := s.collections[idx]
	stats := models.CollectionStats{TotalItems: len(col.Items)}

	byManufacturer := make(map[string]*models.ValueBucket)
	byType := make(map[string]*models.ValueBucket)
	for _, item := range col.Items {
		value := item.AveragePriceOrZero()
		stats.TotalValue += value
		if item.Valuation != nil {
			stats.ValuedItems++
		}

		manufacturer := item.Manufacturer
		if manufacturer == "" {
			manufacturer = "Unknown"
		}
		bumpBucket(byManufacturer, manufacturer, value)
		bumpBucket(byType, string(item.ItemType), value)
	}

	stats.ByManufacturer = sortBuckets(byManufacturer)
	stats.ByType = sortBuckets(byType)
	return stats, true
}

func bumpBucket(buckets map[string]*models.ValueBucket, name string, value float64) {
	b, ok := buckets[name]
	if !ok {
		b = &models.ValueBucket{Name: name}
		buckets[name] = b
	}
	b.Count++
	b.Value += value
}

func sortBuckets(buckets map[string]*models.ValueBucket) []models.ValueBucket {
	out := make([]models.ValueBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// --- internal helpers (callers hold s.mu) ---

func (s *Store) collectionIndex(id string) int {
	for i := range s.collections {
		if s.collections[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findItem(collectionID, itemID string) *models.Item {
	idx := s.collectionIndex(collectionID)
	if idx < 0 {
		return nil
	}
	col := &s.collections[idx]
	for i := range col.Items {
		if col.Items[i].ID == itemID {
			return &col.Items[i]
		}
	}
	return nil
}

func (s *Store) collectionsChanged(ctx context.Context) error {
	s.updateGauges()
	if s.hooks.Collections == nil {
		return nil
	}
	return s.hooks.Collections(ctx, s.Collections())
}

func (s *Store) categoriesChanged(ctx context.Context) error {
	if s.hooks.Categories == nil {
		return nil
	}
	return s.hooks.Categories(ctx, s.Categories())
}

func (s *Store) updateGauges() {
	s.mu.RLock()
	items := 0
	value := 0.0
	for i := range s.collections {
		items += len(s.collections[i].Items)
		value += s.collections[i].TotalValue()
	}
	collections := len(s.collections)
	s.mu.RUnlock()

	metrics.CatalogItemsTotal.Set(float64(items))
	metrics.CatalogValueTotal.Set(value)
	metrics.CatalogCollections.Set(float64(collections))
}

func cloneCollection(col models.Collection) models.Collection {
	out := col
	out.Items = append([]models.Item(nil), col.Items...)
	return out
}

func cloneCollections(collections []models.Collection) []models.Collection {
	out := make([]models.Collection, len(collections))
	for i := range collections {
		out[i] = cloneCollection(collections[i])
	}
	return out
}
