package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
)

const (
	MsgUnauthorized  = "Unauthorized"
	MsgInvalidJSON   = "Invalid JSON body"
	MsgEmptyTitle    = "Title cannot be empty"
	MsgInvalidStatus = "Invalid status"
	MsgNoValidFields = "No valid fields to update"
	MsgTodoNotFound  = "Todo not found"
)

// TodoError carries one of the sentinel kinds above plus the message
// shown to the client. Match it with errors.Is against the kind.
type TodoError struct {
	Kind    error
	Message string
}

func (e *TodoError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *TodoError) Unwrap() error {
	return e.Kind
}

func newTodoError(kind error, message string) *TodoError {
	return &TodoError{Kind: kind, Message: message}
}

func unauthenticated() error {
	return newTodoError(ErrUnauthenticated, MsgUnauthorized)
}

func forbidden(reason string) error {
	return newTodoError(ErrForbidden, reason)
}

func invalidInput(message string) error {
	return newTodoError(ErrInvalidInput, message)
}

func notFound() error {
	return newTodoError(ErrNotFound, MsgTodoNotFound)
}

// ErrorMessage returns the client-facing message for err, falling back
// to fallback for errors that are not a *TodoError.
func ErrorMessage(err error, fallback string) string {
	var te *TodoError
	if errors.As(err, &te) {
		return te.Message
	}
	return fallback
}
