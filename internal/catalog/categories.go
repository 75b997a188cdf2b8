package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/colletr/colletr/backend/internal/logger"
	"github.com/colletr/colletr/backend/internal/models"
)

func (s *Store) Categories() []models.CustomCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CustomCategory(nil), s.categories...)
}

func (s *Store) AddCategory(ctx context.Context, name string) (models.CustomCategory, error) {
	cat := models.CustomCategory{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.categories = append(s.categories, cat)
	s.mu.Unlock()

	return cat, s.categoriesChanged(ctx)
}

// RenameCategory updates the tag and cascades the rename to every collection
// whose category equals the old name. Collections reference categories by
// name, not id, so a custom category sharing a name with a built-in value
// would cascade onto those collections too; preserved from the original
// behavior rather than silently changed.
func (s *Store) RenameCategory(ctx context.Context, id, newName string) (bool, error) {
	s.mu.Lock()
	var oldName string
	found := false
	for i := range s.categories {
		if s.categories[i].ID == id {
			oldName = s.categories[i].Name
			s.categories[i].Name = newName
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return false, nil
	}

	cascaded := 0
	for i := range s.collections {
		if string(s.collections[i].Category) == oldName {
			s.collections[i].Category = models.Category(newName)
			cascaded++
		}
	}
	s.mu.Unlock()

	s.log.Info("category renamed",
		logger.String("category_id", id),
		logger.String("old", oldName),
		logger.String("new", newName),
		logger.Int("cascaded_collections", cascaded))

	if err := s.categoriesChanged(ctx); err != nil {
		return true, err
	}
	if cascaded > 0 {
		return true, s.collectionsChanged(ctx)
	}
	return true, nil
}

// DeleteCategory removes the tag. It fails with ReferentialIntegrityError,
// leaving the tag set unchanged, while any collection still uses the
// category name.
func (s *Store) DeleteCategory(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.categories {
		if s.categories[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	name := s.categories[idx].Name
	references := 0
	for i := range s.collections {
		if string(s.collections[i].Category) == name {
			references++
		}
	}
	if references > 0 {
		s.mu.Unlock()
		return true, &ReferentialIntegrityError{CategoryName: name, References: references}
	}

	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	s.mu.Unlock()

	return true, s.categoriesChanged(ctx)
}
