package repositories_test

import (
	"context"
	"testing"
	"time"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TodoStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *repositories.GormTodoStore
	base  time.Time
}

func (s *TodoStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repositories.NewTodoStore(setupTestDB(s.T()))
	s.base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *TodoStoreSuite) insert(id, owner string, status models.TodoStatus, created, updated time.Duration) *models.Todo {
	todo := &models.Todo{
		ID:        id,
		Title:     "todo " + id,
		Status:    status,
		OwnerID:   owner,
		CreatedAt: s.base.Add(created),
		UpdatedAt: s.base.Add(updated),
	}
	s.Require().NoError(s.store.Create(s.ctx, todo))
	return todo
}

func ids(todos []models.Todo) []string {
	out := make([]string, len(todos))
	for i, t := range todos {
		out[i] = t.ID
	}
	return out
}

func (s *TodoStoreSuite) TestCreateAndGet() {
	desc := "details"
	todo := &models.Todo{
		ID:          "t1",
		Title:       "Write report",
		Description: &desc,
		Status:      models.StatusDraft,
		OwnerID:     "u1",
		CreatedAt:   s.base,
		UpdatedAt:   s.base,
	}
	s.Require().NoError(s.store.Create(s.ctx, todo))

	got, err := s.store.GetByID(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal("Write report", got.Title)
	s.Require().NotNil(got.Description)
	s.Equal("details", *got.Description)
	s.Equal(models.StatusDraft, got.Status)
	s.Equal("u1", got.OwnerID)
	s.True(got.CreatedAt.Equal(s.base))
	s.Nil(got.OwnerName)
}

func (s *TodoStoreSuite) TestGetMissing() {
	_, err := s.store.GetByID(s.ctx, "nope")
	s.ErrorIs(err, repositories.ErrTodoNotFound)
}

func (s *TodoStoreSuite) TestCreateDuplicateID() {
	s.insert("dup", "u1", models.StatusDraft, 0, 0)
	err := s.store.Create(s.ctx, &models.Todo{
		ID: "dup", Title: "again", Status: models.StatusDraft, OwnerID: "u1",
		CreatedAt: s.base, UpdatedAt: s.base,
	})
	s.Error(err)
}

func (s *TodoStoreSuite) TestListOrdering() {
	s.insert("b", "u1", models.StatusDraft, 0, time.Minute)
	s.insert("a", "u1", models.StatusDraft, 0, time.Minute)
	s.insert("c", "u2", models.StatusDraft, time.Second, 3*time.Minute)
	s.insert("d", "u1", models.StatusDraft, -time.Second, time.Minute)
	s.insert("e", "u1", models.StatusDraft, 0, 500*time.Microsecond)

	todos, err := s.store.List(s.ctx, repositories.TodoFilter{})
	s.Require().NoError(err)
	// c newest; b,a,d share updated_at so insertion order decides; e oldest.
	s.Equal([]string{"c", "b", "a", "d", "e"}, ids(todos))
}

func (s *TodoStoreSuite) TestListIdenticalTimestampsKeepInsertionOrder() {
	s.insert("f3c1", "u1", models.StatusDraft, 0, 0)
	s.insert("0a9e", "u1", models.StatusDraft, 0, 0)
	s.insert("7b22", "u1", models.StatusDraft, 0, 0)

	todos, err := s.store.List(s.ctx, repositories.TodoFilter{OwnerID: "u1"})
	s.Require().NoError(err)
	s.Equal([]string{"f3c1", "0a9e", "7b22"}, ids(todos))
}

func (s *TodoStoreSuite) TestListSubSecondOrdering() {
	s.insert("x", "u1", models.StatusDraft, 0, 0)
	s.insert("y", "u1", models.StatusDraft, 0, 1500*time.Microsecond)
	s.insert("z", "u1", models.StatusDraft, 0, 150*time.Microsecond)

	todos, err := s.store.List(s.ctx, repositories.TodoFilter{})
	s.Require().NoError(err)
	s.Equal([]string{"y", "z", "x"}, ids(todos))
}

func (s *TodoStoreSuite) TestListFilters() {
	s.insert("t1", "u1", models.StatusDraft, 0, 0)
	s.insert("t2", "u1", models.StatusCompleted, 0, time.Second)
	s.insert("t3", "u2", models.StatusDraft, 0, 2*time.Second)

	mine, err := s.store.List(s.ctx, repositories.TodoFilter{OwnerID: "u1"})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"t1", "t2"}, ids(mine))

	completed := models.StatusCompleted
	done, err := s.store.List(s.ctx, repositories.TodoFilter{OwnerID: "u1", Status: &completed})
	s.Require().NoError(err)
	s.Equal([]string{"t2"}, ids(done))

	none, err := s.store.List(s.ctx, repositories.TodoFilter{OwnerID: "nobody"})
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *TodoStoreSuite) TestUpdateGuardedByOwner() {
	s.insert("t1", "u1", models.StatusDraft, 0, 0)
	title := "New title"
	status := models.StatusInProgress
	later := s.base.Add(time.Hour)

	err := s.store.Update(s.ctx, "t1", "u2", repositories.TodoUpdate{Title: &title, UpdatedAt: later})
	s.ErrorIs(err, repositories.ErrTodoNotFound)

	err = s.store.Update(s.ctx, "t1", "u1", repositories.TodoUpdate{Title: &title, Status: &status, UpdatedAt: later})
	s.Require().NoError(err)

	got, err := s.store.GetByID(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal("New title", got.Title)
	s.Equal(models.StatusInProgress, got.Status)
	s.True(got.UpdatedAt.Equal(later))
	s.True(got.CreatedAt.Equal(s.base))
}

func (s *TodoStoreSuite) TestUpdateClearsDescription() {
	desc := "old"
	s.Require().NoError(s.store.Create(s.ctx, &models.Todo{
		ID: "t1", Title: "t", Description: &desc, Status: models.StatusDraft, OwnerID: "u1",
		CreatedAt: s.base, UpdatedAt: s.base,
	}))

	err := s.store.Update(s.ctx, "t1", "u1", repositories.TodoUpdate{DescriptionSet: true, UpdatedAt: s.base.Add(time.Second)})
	s.Require().NoError(err)

	got, _ := s.store.GetByID(s.ctx, "t1")
	s.Nil(got.Description)
}

func (s *TodoStoreSuite) TestUpdateMissing() {
	title := "x"
	err := s.store.Update(s.ctx, "missing", "u1", repositories.TodoUpdate{Title: &title, UpdatedAt: s.base})
	s.ErrorIs(err, repositories.ErrTodoNotFound)
}

func (s *TodoStoreSuite) TestDelete() {
	s.insert("t1", "u1", models.StatusCompleted, 0, 0)

	s.Require().NoError(s.store.Delete(s.ctx, "t1"))
	s.ErrorIs(s.store.Delete(s.ctx, "t1"), repositories.ErrTodoNotFound)

	_, err := s.store.GetByID(s.ctx, "t1")
	s.ErrorIs(err, repositories.ErrTodoNotFound)
}

func (s *TodoStoreSuite) TestDeleteOwnedDraft() {
	s.insert("draft", "u1", models.StatusDraft, 0, 0)
	s.insert("active", "u1", models.StatusInProgress, 0, 0)

	s.ErrorIs(s.store.DeleteOwnedDraft(s.ctx, "draft", "u2"), repositories.ErrTodoNotFound)
	s.ErrorIs(s.store.DeleteOwnedDraft(s.ctx, "active", "u1"), repositories.ErrTodoNotFound)
	s.NoError(s.store.DeleteOwnedDraft(s.ctx, "draft", "u1"))

	_, err := s.store.GetByID(s.ctx, "active")
	s.NoError(err)
}

func TestTodoStoreSuite(t *testing.T) {
	suite.Run(t, new(TodoStoreSuite))
}

func TestTodoStore_RejectsInvalidRows(t *testing.T) {
	store := repositories.NewTodoStore(setupTestDB(t))
	now := time.Now().UTC()

	err := store.Create(context.Background(), &models.Todo{
		ID: "bad", Title: "t", Status: "archived", OwnerID: "u1", CreatedAt: now, UpdatedAt: now,
	})
	assert.Error(t, err)

	err = store.Create(context.Background(), &models.Todo{
		ID: "blank", Title: "  ", Status: models.StatusDraft, OwnerID: "u1", CreatedAt: now, UpdatedAt: now,
	})
	require.Error(t, err)
}
