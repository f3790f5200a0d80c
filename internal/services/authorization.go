package services

import "todo-manager/backend/internal/models"

// Access rules for todos. Rights are decided per operation from role,
// ownership and status; there is no role hierarchy. A manager can read
// everything but change nothing, and cannot even delete a draft a user
// could delete.
//
//	            user                   manager   admin
//	list/view   own only               all       all
//	create      yes                    no        no
//	update      own only               no        no
//	delete      own and draft only     no        any

type Action string

const (
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

const (
	ReasonCannotCreate  = "Forbidden: cannot create todos"
	ReasonCannotUpdate  = "Forbidden: cannot update todos"
	ReasonCannotDelete  = "Forbidden: cannot delete todos"
	ReasonNotOwner      = "Forbidden: not your todo"
	ReasonOnlyDraft     = "Forbidden: can only delete draft todos"
	ReasonUnknownRole   = "Forbidden: unknown role"
	reasonAllowed       = "allowed"
	reasonOwnerAllowed  = "owner"
	reasonElevatedRead  = "elevated role may read all todos"
	reasonAdminOverride = "admin may delete any todo"
)

type AuthorizationDecision struct {
	Action  Action `json:"action"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func allow(action Action, reason string) AuthorizationDecision {
	return AuthorizationDecision{Action: action, Allowed: true, Reason: reason}
}

func deny(action Action, reason string) AuthorizationDecision {
	return AuthorizationDecision{Action: action, Allowed: false, Reason: reason}
}

func DecideList(role models.Role) AuthorizationDecision {
	switch role {
	case models.RoleUser:
		return allow(ActionList, reasonOwnerAllowed)
	case models.RoleManager, models.RoleAdmin:
		return allow(ActionList, reasonElevatedRead)
	}
	return deny(ActionList, ReasonUnknownRole)
}

// ListOwnerFilter is the owner a listing must be restricted to, or ""
// when the role may see every todo.
func ListOwnerFilter(role models.Role, userID string) string {
	if role == models.RoleUser {
		return userID
	}
	return ""
}

func DecideView(role models.Role, ownerID, userID string) AuthorizationDecision {
	switch role {
	case models.RoleUser:
		if ownerID != userID {
			return deny(ActionView, ReasonNotOwner)
		}
		return allow(ActionView, reasonOwnerAllowed)
	case models.RoleManager, models.RoleAdmin:
		return allow(ActionView, reasonElevatedRead)
	}
	return deny(ActionView, ReasonUnknownRole)
}

func DecideCreate(role models.Role) AuthorizationDecision {
	if role == models.RoleUser {
		return allow(ActionCreate, reasonAllowed)
	}
	return deny(ActionCreate, ReasonCannotCreate)
}

// DecideUpdateRole is the part of DecideUpdate that needs no todo.
func DecideUpdateRole(role models.Role) AuthorizationDecision {
	if role != models.RoleUser {
		return deny(ActionUpdate, ReasonCannotUpdate)
	}
	return allow(ActionUpdate, reasonOwnerAllowed)
}

func DecideUpdate(role models.Role, ownerID, userID string) AuthorizationDecision {
	if decision := DecideUpdateRole(role); !decision.Allowed {
		return decision
	}
	if ownerID != userID {
		return deny(ActionUpdate, ReasonNotOwner)
	}
	return allow(ActionUpdate, reasonOwnerAllowed)
}

func DecideDelete(role models.Role, ownerID, userID string, status models.TodoStatus) AuthorizationDecision {
	switch role {
	case models.RoleAdmin:
		return allow(ActionDelete, reasonAdminOverride)
	case models.RoleUser:
		if ownerID != userID {
			return deny(ActionDelete, ReasonNotOwner)
		}
		if status != models.StatusDraft {
			return deny(ActionDelete, ReasonOnlyDraft)
		}
		return allow(ActionDelete, reasonOwnerAllowed)
	}
	return deny(ActionDelete, ReasonCannotDelete)
}

func CanListTodos(role models.Role) bool {
	return DecideList(role).Allowed
}

func CanViewTodo(role models.Role, ownerID, userID string) bool {
	return DecideView(role, ownerID, userID).Allowed
}

func CanCreateTodo(role models.Role) bool {
	return DecideCreate(role).Allowed
}

func CanUpdateTodo(role models.Role, ownerID, userID string) bool {
	return DecideUpdate(role, ownerID, userID).Allowed
}

func CanDeleteTodo(role models.Role, ownerID, userID string, status models.TodoStatus) bool {
	return DecideDelete(role, ownerID, userID, status).Allowed
}
