package models

import (
	"strings"
	"time"
)

type TodoStatus string

const (
	StatusDraft      TodoStatus = "draft"
	StatusInProgress TodoStatus = "in_progress"
	StatusCompleted  TodoStatus = "completed"
)

func (s TodoStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Todo is the only persisted entity. OwnerName is derived on read and
// never stored.
type Todo struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null"`
	Description *string    `json:"description"`
	Status      TodoStatus `json:"status" gorm:"not null;default:draft"`
	OwnerID     string     `json:"ownerId" gorm:"column:owner_id;not null;index"`
	OwnerName   *string    `json:"ownerName" gorm:"-"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

func (Todo) TableName() string {
	return "todos"
}

// CreateTodoInput is the body of POST /todos.
type CreateTodoInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// TodoPatch carries the optional fields of PATCH /todos/:id. A nil field
// is left untouched.
type TodoPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// NormalizeDescription trims d and maps blank text to nil.
func NormalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
