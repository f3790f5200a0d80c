package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-manager/backend/internal/models"

	"gorm.io/gorm"
)

var ErrTodoNotFound = errors.New("todo not found")

type TodoFilter struct {
	// OwnerID restricts the result to one owner when non-empty.
	OwnerID string
	Status  *models.TodoStatus
}

// TodoUpdate is an already validated partial write. Nil fields are not
// touched; DescriptionSet distinguishes "clear" from "leave alone".
type TodoUpdate struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Status         *models.TodoStatus
	UpdatedAt      time.Time
}

// TodoStore is the durable todo table. Every method is a single
// statement; callers get no transaction spanning two calls.
type TodoStore interface {
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, id string) (*models.Todo, error)
	List(ctx context.Context, filter TodoFilter) ([]models.Todo, error)
	Update(ctx context.Context, id, ownerID string, update TodoUpdate) error
	Delete(ctx context.Context, id string) error
	DeleteOwnedDraft(ctx context.Context, id, ownerID string) error
}

type GormTodoStore struct {
	db *gorm.DB
}

func NewTodoStore(db *gorm.DB) *GormTodoStore {
	return &GormTodoStore{db: db}
}

func (s *GormTodoStore) Create(ctx context.Context, todo *models.Todo) error {
	if err := s.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (s *GormTodoStore) GetByID(ctx context.Context, id string) (*models.Todo, error) {
	var todo models.Todo
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&todo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("get todo %s: %w", id, err)
	}
	return &todo, nil
}

// List returns the most recently touched todos first. Ties fall back to
// insertion order, kept by the auto-incremented seq column.
func (s *GormTodoStore) List(ctx context.Context, filter TodoFilter) ([]models.Todo, error) {
	query := s.db.WithContext(ctx).Model(&models.Todo{})
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	todos := make([]models.Todo, 0)
	err := query.
		Order("updated_at DESC").
		Order("seq ASC").
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Update writes the changed columns in one statement guarded by owner,
// so a row that changed hands or vanished is reported as not found.
func (s *GormTodoStore) Update(ctx context.Context, id, ownerID string, update TodoUpdate) error {
	changes := map[string]interface{}{
		"updated_at": update.UpdatedAt,
	}
	if update.Title != nil {
		changes["title"] = *update.Title
	}
	if update.DescriptionSet {
		changes["description"] = update.Description
	}
	if update.Status != nil {
		changes["status"] = *update.Status
	}

	result := s.db.WithContext(ctx).
		Model(&models.Todo{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(changes)
	if result.Error != nil {
		return fmt.Errorf("update todo %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

func (s *GormTodoStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Todo{})
	if result.Error != nil {
		return fmt.Errorf("delete todo %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// DeleteOwnedDraft deletes id only while it is still a draft owned by
// ownerID. A zero-row result leaves the caller to re-read and classify.
func (s *GormTodoStore) DeleteOwnedDraft(ctx context.Context, id, ownerID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND status = ?", id, ownerID, models.StatusDraft).
		Delete(&models.Todo{})
	if result.Error != nil {
		return fmt.Errorf("delete todo %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}
