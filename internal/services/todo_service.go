package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

// ListOptions narrows a listing. The zero value lists everything the
// actor may see.
type ListOptions struct {
	Status *string
}

type TodoService interface {
	ListTodos(ctx context.Context, actor *models.Session, opts ListOptions) ([]models.Todo, error)
	GetTodo(ctx context.Context, actor *models.Session, id string) (*models.Todo, error)
	// CreateTodo and UpdateTodo take a nil input when the request body
	// could not be decoded; that is reported only after the actor has
	// passed the policy checks.
	CreateTodo(ctx context.Context, actor *models.Session, input *models.CreateTodoInput) (*models.Todo, error)
	UpdateTodo(ctx context.Context, actor *models.Session, id string, patch *models.TodoPatch) (*models.Todo, error)
	DeleteTodo(ctx context.Context, actor *models.Session, id string) error
}

type TodoServiceImpl struct {
	store     repositories.TodoStore
	directory repositories.UserDirectory
	now       func() time.Time
	newID     func() (string, error)
}

type TodoServiceOption func(*TodoServiceImpl)

func WithClock(now func() time.Time) TodoServiceOption {
	return func(s *TodoServiceImpl) { s.now = now }
}

func WithIDGenerator(newID func() (string, error)) TodoServiceOption {
	return func(s *TodoServiceImpl) { s.newID = newID }
}

func NewTodoService(store repositories.TodoStore, directory repositories.UserDirectory, opts ...TodoServiceOption) *TodoServiceImpl {
	if directory == nil {
		directory = repositories.NoopDirectory{}
	}
	s := &TodoServiceImpl{
		store:     store,
		directory: directory,
		now:       time.Now,
		newID:     newUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *TodoServiceImpl) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *TodoServiceImpl) ListTodos(ctx context.Context, actor *models.Session, opts ListOptions) ([]models.Todo, error) {
	if actor == nil {
		return nil, unauthenticated()
	}
	if decision := DecideList(actor.Role); !decision.Allowed {
		return nil, s.denied(actor, "", decision)
	}

	filter := repositories.TodoFilter{OwnerID: ListOwnerFilter(actor.Role, actor.UserID)}
	if opts.Status != nil {
		status := models.TodoStatus(*opts.Status)
		if !status.Valid() {
			return nil, invalidInput(MsgInvalidStatus)
		}
		filter.Status = &status
	}

	todos, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.attachOwnerNames(ctx, todos)
	return todos, nil
}

func (s *TodoServiceImpl) GetTodo(ctx context.Context, actor *models.Session, id string) (*models.Todo, error) {
	if actor == nil {
		return nil, unauthenticated()
	}

	todo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision := DecideView(actor.Role, todo.OwnerID, actor.UserID); !decision.Allowed {
		return nil, s.denied(actor, id, decision)
	}

	s.setOwnerName(ctx, actor, todo)
	return todo, nil
}

func (s *TodoServiceImpl) CreateTodo(ctx context.Context, actor *models.Session, input *models.CreateTodoInput) (*models.Todo, error) {
	if actor == nil {
		return nil, unauthenticated()
	}
	if decision := DecideCreate(actor.Role); !decision.Allowed {
		return nil, s.denied(actor, "", decision)
	}
	if input == nil {
		return nil, invalidInput(MsgInvalidJSON)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalidInput(MsgEmptyTitle)
	}

	status := models.StatusDraft
	if input.Status != nil {
		status = models.TodoStatus(*input.Status)
		if !status.Valid() {
			return nil, invalidInput(MsgInvalidStatus)
		}
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate todo id: %w", err)
	}

	now := s.timestamp()
	todo := &models.Todo{
		ID:          id,
		Title:       title,
		Description: models.NormalizeDescription(input.Description),
		Status:      status,
		OwnerID:     actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, todo); err != nil {
		return nil, err
	}

	todo.OwnerName = sessionName(actor)
	return todo, nil
}

func (s *TodoServiceImpl) UpdateTodo(ctx context.Context, actor *models.Session, id string, patch *models.TodoPatch) (*models.Todo, error) {
	if actor == nil {
		return nil, unauthenticated()
	}
	// Roles that can never update are refused before the lookup.
	if decision := DecideUpdateRole(actor.Role); !decision.Allowed {
		return nil, s.denied(actor, id, decision)
	}

	todo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision := DecideUpdate(actor.Role, todo.OwnerID, actor.UserID); !decision.Allowed {
		return nil, s.denied(actor, id, decision)
	}
	if patch == nil {
		return nil, invalidInput(MsgInvalidJSON)
	}

	update, err := validatePatch(*patch)
	if err != nil {
		return nil, err
	}
	update.UpdatedAt = nextUpdatedAt(s.timestamp(), todo.UpdatedAt)

	if err := s.store.Update(ctx, id, actor.UserID, update); err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return nil, notFound()
		}
		return nil, err
	}

	applyUpdate(todo, update)
	s.setOwnerName(ctx, actor, todo)
	return todo, nil
}

func (s *TodoServiceImpl) DeleteTodo(ctx context.Context, actor *models.Session, id string) error {
	if actor == nil {
		return unauthenticated()
	}

	todo, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	decision := DecideDelete(actor.Role, todo.OwnerID, actor.UserID, todo.Status)
	if !decision.Allowed {
		return s.denied(actor, id, decision)
	}

	if actor.Role == models.RoleAdmin {
		err = s.store.Delete(ctx, id)
	} else {
		err = s.store.DeleteOwnedDraft(ctx, id, actor.UserID)
	}
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrTodoNotFound) {
		return err
	}

	// The row changed between the read and the guarded delete.
	current, loadErr := s.load(ctx, id)
	if loadErr != nil {
		return loadErr
	}
	decision = DecideDelete(actor.Role, current.OwnerID, actor.UserID, current.Status)
	if !decision.Allowed {
		return s.denied(actor, id, decision)
	}
	return notFound()
}

func (s *TodoServiceImpl) load(ctx context.Context, id string) (*models.Todo, error) {
	todo, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return nil, notFound()
		}
		return nil, err
	}
	return todo, nil
}

func (s *TodoServiceImpl) denied(actor *models.Session, todoID string, decision AuthorizationDecision) error {
	log.Printf("Access denied: action=%s user=%s role=%s todo=%s reason=%q",
		decision.Action, actor.UserID, actor.Role, todoID, decision.Reason)
	return forbidden(decision.Reason)
}

// setOwnerName uses the session name when the actor owns the todo and
// the directory otherwise.
func (s *TodoServiceImpl) setOwnerName(ctx context.Context, actor *models.Session, todo *models.Todo) {
	if todo.OwnerID == actor.UserID {
		todo.OwnerName = sessionName(actor)
		return
	}
	todos := []models.Todo{*todo}
	s.attachOwnerNames(ctx, todos)
	todo.OwnerName = todos[0].OwnerName
}

// attachOwnerNames is best effort: a directory failure leaves every
// ownerName null and is only logged.
func (s *TodoServiceImpl) attachOwnerNames(ctx context.Context, todos []models.Todo) {
	if len(todos) == 0 {
		return
	}
	ownerIDs := make([]string, 0, len(todos))
	for _, t := range todos {
		ownerIDs = append(ownerIDs, t.OwnerID)
	}

	names, err := s.directory.ResolveNamesByIDs(ctx, ownerIDs)
	if err != nil {
		log.Printf("Owner name resolution failed: %v", err)
		return
	}
	for i := range todos {
		if name, ok := names[todos[i].OwnerID]; ok {
			n := name
			todos[i].OwnerName = &n
		}
	}
}

func sessionName(actor *models.Session) *string {
	if actor.Name == "" {
		return nil
	}
	name := actor.Name
	return &name
}

func validatePatch(patch models.TodoPatch) (repositories.TodoUpdate, error) {
	var update repositories.TodoUpdate

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return update, invalidInput(MsgEmptyTitle)
		}
		update.Title = &title
	}
	if patch.Description != nil {
		update.Description = models.NormalizeDescription(patch.Description)
		update.DescriptionSet = true
	}
	if patch.Status != nil {
		status := models.TodoStatus(*patch.Status)
		if !status.Valid() {
			return update, invalidInput(MsgInvalidStatus)
		}
		update.Status = &status
	}

	if update.Title == nil && !update.DescriptionSet && update.Status == nil {
		return update, invalidInput(MsgNoValidFields)
	}
	return update, nil
}

func applyUpdate(todo *models.Todo, update repositories.TodoUpdate) {
	if update.Title != nil {
		todo.Title = *update.Title
	}
	if update.DescriptionSet {
		todo.Description = update.Description
	}
	if update.Status != nil {
		todo.Status = *update.Status
	}
	todo.UpdatedAt = update.UpdatedAt
}

// nextUpdatedAt keeps updatedAt strictly increasing even when the clock
// has not moved (or moved backwards) since the previous write.
func nextUpdatedAt(now, previous time.Time) time.Time {
	if floor := previous.Add(time.Microsecond); now.Before(floor) {
		return floor.UTC()
	}
	return now
}
