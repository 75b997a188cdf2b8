// Package persist snapshots the whole catalog state into a blob store.
// Saves are whole-state overwrites on every mutation; there is no diffing
// and no rollback. A failed save leaves the in-memory state authoritative.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/colletr/colletr/backend/internal/metrics"
	"github.com/colletr/colletr/backend/internal/models"
	"github.com/colletr/colletr/backend/internal/storage"
)

// Storage keys. The legacy key predates multi-collection support and is
// read once, migrated, then deleted.
const (
	KeyCollections      = "colletr_collections"
	KeyLegacyItems      = "colletr_items"
	KeyCustomCategories = "colletr_custom_categories"
)

// Defaults for the collection synthesized during legacy migration.
const (
	legacyCollectionName        = "Minha Coleção"
	legacyCollectionDescription = "Coleção importada"
)

// CorruptStateError means a persisted snapshot exists but does not parse as
// the expected shape. It is surfaced to the user rather than silently
// discarded: the data is still in the store, untouched.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt state under key %q: %v", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// PersistenceError means a write to the blob store failed. In-memory state
// remains valid; the save is retried on the next mutation.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist key %q: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Adapter loads and saves catalog snapshots.
type Adapter struct {
	store storage.BlobStore
}

func NewAdapter(store storage.BlobStore) *Adapter {
	return &Adapter{store: store}
}

// LoadResult is the outcome of a startup load.
type LoadResult struct {
	Collections []models.Collection
	// FirstRun is true when neither a current snapshot nor legacy data
	// exists; the UI should prompt for collection creation.
	FirstRun bool
	// Migrated is true when legacy single-collection data was converted.
	Migrated bool
}

// Load reads the current snapshot, falling back to one-time legacy migration,
// falling back to empty first-run state.
func (a *Adapter) Load(ctx context.Context) (*LoadResult, error) {
	data, err := a.store.Get(ctx, KeyCollections)
	if err == nil {
		var collections []models.Collection
		if err := json.Unmarshal(data, &collections); err != nil {
			return nil, &CorruptStateError{Key: KeyCollections, Err: err}
		}
		return &LoadResult{Collections: collections}, nil
	}
	if !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, fmt.Errorf("load %s: %w", KeyCollections, err)
	}

	return a.migrateLegacy(ctx)
}

// migrateLegacy wraps a pre-multi-collection flat item list into exactly one
// synthesized collection, persists the new format, and deletes the legacy key.
func (a *Adapter) migrateLegacy(ctx context.Context) (*LoadResult, error) {
	data, err := a.store.Get(ctx, KeyLegacyItems)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return &LoadResult{FirstRun: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KeyLegacyItems, err)
	}

	var items []models.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &CorruptStateError{Key: KeyLegacyItems, Err: err}
	}

	collections := []models.Collection{{
		ID:          uuid.NewString(),
		Name:        legacyCollectionName,
		Description: legacyCollectionDescription,
		Category:    models.CategoryConsoles,
		Items:       items,
		CreatedAt:   time.Now(),
	}}

	if err := a.SaveCollections(ctx, collections); err != nil {
		return nil, err
	}
	if err := a.store.Delete(ctx, KeyLegacyItems); err != nil {
		return nil, fmt.Errorf("delete %s: %w", KeyLegacyItems, err)
	}

	return &LoadResult{Collections: collections, Migrated: true}, nil
}

// SaveCollections overwrites the snapshot with the full collection set.
func (a *Adapter) SaveCollections(ctx context.Context, collections []models.Collection) error {
	data, err := json.Marshal(collections)
	if err != nil {
		metrics.SnapshotSaveFailures.Inc()
		return &PersistenceError{Key: KeyCollections, Err: err}
	}
	if err := a.store.Put(ctx, KeyCollections, data); err != nil {
		metrics.SnapshotSaveFailures.Inc()
		return &PersistenceError{Key: KeyCollections, Err: err}
	}
	metrics.SnapshotSavesTotal.Inc()
	return nil
}

// LoadCategories reads the custom category tags; a missing key is an empty set.
func (a *Adapter) LoadCategories(ctx context.Context) ([]models.CustomCategory, error) {
	data, err := a.store.Get(ctx, KeyCustomCategories)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KeyCustomCategories, err)
	}

	var categories []models.CustomCategory
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, &CorruptStateError{Key: KeyCustomCategories, Err: err}
	}
	return categories, nil
}

// SaveCategories overwrites the custom category set. Saved independently of
// the collection snapshot on every category change.
func (a *Adapter) SaveCategories(ctx context.Context, categories []models.CustomCategory) error {
	if categories == nil {
		categories = []models.CustomCategory{}
	}
	data, err := json.Marshal(categories)
	if err != nil {
		return &PersistenceError{Key: KeyCustomCategories, Err: err}
	}
	if err := a.store.Put(ctx, KeyCustomCategories, data); err != nil {
		return &PersistenceError{Key: KeyCustomCategories, Err: err}
	}
	return nil
}
