package handlers

import (
	"errors"
	"log"
	"net/http"

	"todo-manager/backend/internal/middleware"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	todoService services.TodoService
}

func NewTodoHandler(todoService services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

func (h *TodoHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/todos", h.ListTodos)
	group.POST("/todos", h.CreateTodo)
	group.GET("/todos/:id", h.GetTodo)
	group.PATCH("/todos/:id", h.UpdateTodo)
	group.DELETE("/todos/:id", h.DeleteTodo)
}

func (h *TodoHandler) ListTodos(c *gin.Context) {
	var opts services.ListOptions
	if status, ok := c.GetQuery("status"); ok {
		opts.Status = &status
	}

	todos, err := h.todoService.ListTodos(c.Request.Context(), middleware.CurrentSession(c), opts)
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

func (h *TodoHandler) GetTodo(c *gin.Context) {
	todo, err := h.todoService.GetTodo(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"))
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) CreateTodo(c *gin.Context) {
	var input *models.CreateTodoInput
	var body models.CreateTodoInput
	if err := c.ShouldBindJSON(&body); err == nil {
		input = &body
	}

	todo, err := h.todoService.CreateTodo(c.Request.Context(), middleware.CurrentSession(c), input)
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	var patch *models.TodoPatch
	var body models.TodoPatch
	if err := c.ShouldBindJSON(&body); err == nil {
		patch = &body
	}

	todo, err := h.todoService.UpdateTodo(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"), patch)
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	if err := h.todoService.DeleteTodo(c.Request.Context(), middleware.CurrentSession(c), c.Param("id")); err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

func handleTodoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		writeError(c, http.StatusUnauthorized, "unauthorized", services.ErrorMessage(err, services.MsgUnauthorized))
	case errors.Is(err, services.ErrForbidden):
		writeError(c, http.StatusForbidden, "forbidden", services.ErrorMessage(err, "Forbidden"))
	case errors.Is(err, services.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "invalid_input", services.ErrorMessage(err, "Invalid input"))
	case errors.Is(err, services.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", services.ErrorMessage(err, services.MsgTodoNotFound))
	default:
		log.Printf("Todo request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		writeError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": code, "message": message})
}
