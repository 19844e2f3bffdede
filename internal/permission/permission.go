// Package permission implements per-field access control: the grant
// model, the decision function, and the matrix-editing operations an
// administrator uses to build a user's permission set.
package permission

import (
	"errors"
	"fmt"
)

var ErrInvalidEnum = errors.New("invalid enum value")

// Action is an operation category applicable to a field.
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Actions is the closed action enumeration, in rendering order.
var Actions = []Action{ActionView, ActionEdit, ActionDelete}

// Role is the coarse user role. Admin is a standing override: every
// permission query succeeds regardless of the permission set.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleStandard:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: role %q", ErrInvalidEnum, s)
}

// Field is an independently authorizable attribute of a managed
// entity. The engine treats it as an opaque token; the valid values
// come from configuration via Fields.
type Field string

// Fields is the canonical ordered field enumeration.
type Fields []Field

// Contains reports whether f is part of the enumeration.
func (fs Fields) Contains(f Field) bool {
	for _, v := range fs {
		if v == f {
			return true
		}
	}
	return false
}

// FieldPermission is one field's grant: the set of actions a user may
// perform on it. Actions is never empty in a normalized set.
type FieldPermission struct {
	Field   Field    `json:"field"`
	Actions []Action `json:"actions"`
}

func (p FieldPermission) hasAction(a Action) bool {
	for _, v := range p.Actions {
		if v == a {
			return true
		}
	}
	return false
}

// Set is a user's complete permission set. Invariants (established by
// Normalize and preserved by every matrix operation): at most one
// entry per field, no entry with an empty action list.
type Set []FieldPermission

// find returns the index of the entry for f, or -1.
func (s Set) find(f Field) int {
	for i, p := range s {
		if p.Field == f {
			return i
		}
	}
	return -1
}

// Normalize validates a raw permission collection against the closed
// enumerations and returns an invariant-holding Set: duplicate field
// entries collapse (last write wins), empty-action entries are
// dropped, and any field or action outside the enumerations fails
// with ErrInvalidEnum. This is the single authority other components
// rely on; sets must not be assembled ad hoc.
func Normalize(raw []FieldPermission, fields Fields) (Set, error) {
	merged := make(map[Field][]Action, len(raw))
	var order []Field

	for _, p := range raw {
		if !fields.Contains(p.Field) {
			return nil, fmt.Errorf("%w: field %q", ErrInvalidEnum, p.Field)
		}
		var actions []Action
		for _, a := range p.Actions {
			switch a {
			case ActionView, ActionEdit, ActionDelete:
			default:
				return nil, fmt.Errorf("%w: action %q", ErrInvalidEnum, a)
			}
			if !containsAction(actions, a) {
				actions = append(actions, a)
			}
		}
		if _, seen := merged[p.Field]; !seen {
			order = append(order, p.Field)
		}
		merged[p.Field] = actions
	}

	out := make(Set, 0, len(order))
	for _, f := range order {
		if len(merged[f]) == 0 {
			continue
		}
		out = append(out, FieldPermission{Field: f, Actions: merged[f]})
	}
	return out, nil
}

func containsAction(actions []Action, a Action) bool {
	for _, v := range actions {
		if v == a {
			return true
		}
	}
	return false
}

// clone deep-copies a set so matrix operations never alias the input.
func (s Set) clone() Set {
	out := make(Set, len(s))
	for i, p := range s {
		out[i] = FieldPermission{
			Field:   p.Field,
			Actions: append([]Action(nil), p.Actions...),
		}
	}
	return out
}
