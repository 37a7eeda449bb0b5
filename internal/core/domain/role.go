package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Role is one of the closed set of roles the backend assigns.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleStaff    Role = "STAFF"
	RoleCustomer Role = "CUSTOMER"
	RoleUnknown  Role = ""
)

// Action names something a user may be allowed to do in the UI.
type Action string

const (
	ActionViewProducts  Action = "product:view"
	ActionCreateProduct Action = "product:create"
	ActionUpdateProduct Action = "product:update"
	ActionDeleteProduct Action = "product:delete"
)

// roleActions maps every role to the actions it grants. Adding a role or
// widening one is a change to this table only.
var roleActions = map[Role][]Action{
	RoleAdmin: {
		ActionViewProducts,
		ActionCreateProduct,
		ActionUpdateProduct,
		ActionDeleteProduct,
	},
	RoleStaff:    {ActionViewProducts},
	RoleCustomer: {ActionViewProducts},
}

// ParseRole normalises a backend role string. Anything outside the closed
// set becomes RoleUnknown, which grants nothing.
func ParseRole(s string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := roleActions[r]; ok {
		return r
	}
	return RoleUnknown
}

// UnmarshalJSON parses the role through ParseRole so that unexpected values
// coming from the backend never gain capabilities.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// Can reports whether the role grants action.
func (r Role) Can(action Action) bool {
	for _, a := range roleActions[r] {
		if a == action {
			return true
		}
	}
	return false
}

// Actions returns the sorted list of actions the role grants.
func (r Role) Actions() []Action {
	out := append([]Action(nil), roleActions[r]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsAdmin reports whether the role is the admin-capable role.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Label is the display form of the role, "unknown" for RoleUnknown.
func (r Role) Label() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return strings.ToLower(string(r))
}
