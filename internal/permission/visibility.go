package permission

// VisibleFields returns the ordered subsequence of fields the user
// may view. Admins receive the full, unfiltered list. Holds no state
// of its own; it is a projection of Allowed over the enumeration.
func VisibleFields(role Role, set Set, fields Fields) Fields {
	if role == RoleAdmin {
		return append(Fields(nil), fields...)
	}
	out := make(Fields, 0, len(fields))
	for _, f := range fields {
		if Allowed(role, set, f, ActionView) {
			out = append(out, f)
		}
	}
	return out
}

// CanEditAny reports whether the user may mutate at least one field.
// Gates mutation affordances such as an "Add" control.
func CanEditAny(role Role, set Set, fields Fields) bool {
	return anyAllowed(role, set, fields, ActionEdit)
}

// CanDeleteAny reports whether the user may delete on at least one
// field. Gates a row's action column and record deletion.
func CanDeleteAny(role Role, set Set, fields Fields) bool {
	return anyAllowed(role, set, fields, ActionDelete)
}

func anyAllowed(role Role, set Set, fields Fields, a Action) bool {
	if role == RoleAdmin {
		return true
	}
	for _, f := range fields {
		if Allowed(role, set, f, a) {
			return true
		}
	}
	return false
}
