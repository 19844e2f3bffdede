package catalog

import (
	"fmt"
	"sort"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/permission"
)

// CheckWrite enforces per-field edit grants over a mutation payload.
// Every key must be inside the field enumeration and every field must
// carry an edit grant; one failing field rejects the whole mutation,
// never a pruned subset. Only payload keys are named in the rejection.
func CheckWrite(role permission.Role, set permission.Set, payload map[string]any, fields permission.Fields) error {
	var denied []string
	for key := range payload {
		f := permission.Field(key)
		if !fields.Contains(f) {
			return apperr.InvalidEnum(fmt.Sprintf("invalid enum value: field %q", key))
		}
		if !permission.Allowed(role, set, f, permission.ActionEdit) {
			denied = append(denied, key)
		}
	}
	if len(denied) > 0 {
		sort.Strings(denied)
		return apperr.FieldForbidden(denied)
	}
	return nil
}

// CheckDelete gates whole-record deletion on holding a delete grant
// for at least one field, matching the affordance the visibility
// resolver exposes to the client.
func CheckDelete(role permission.Role, set permission.Set, fields permission.Fields) error {
	if !permission.CanDeleteAny(role, set, fields) {
		return apperr.Forbidden("You are not permitted to delete products")
	}
	return nil
}

// FilterVisible projects a shaped product onto the fields the user
// may view. Record metadata (id, timestamps) is always kept.
func FilterVisible(row map[string]any, role permission.Role, set permission.Set, fields permission.Fields) map[string]any {
	visible := permission.VisibleFields(role, set, fields)
	out := make(map[string]any, len(visible)+3)
	for _, key := range []string{"id", "createdAt", "updatedAt"} {
		if v, ok := row[key]; ok {
			out[key] = v
		}
	}
	for _, f := range visible {
		if v, ok := row[string(f)]; ok {
			out[string(f)] = v
		}
	}
	return out
}
