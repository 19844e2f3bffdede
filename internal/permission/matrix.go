package permission

// Matrix operations return a fresh Set and never mutate their input,
// so callers can diff before/after. All of them preserve the Set
// invariants: one entry per field, no empty action lists.

// ToggleCell flips a single (field, action) grant. Granting creates
// the field entry if absent; revoking prunes the entry when its last
// action is removed. Applying it twice restores the original set.
func ToggleCell(set Set, f Field, a Action) Set {
	out := set.clone()
	i := out.find(f)
	if i == -1 {
		return append(out, FieldPermission{Field: f, Actions: []Action{a}})
	}
	if !out[i].hasAction(a) {
		out[i].Actions = append(out[i].Actions, a)
		return out
	}
	remaining := removeAction(out[i].Actions, a)
	if len(remaining) == 0 {
		return append(out[:i], out[i+1:]...)
	}
	out[i].Actions = remaining
	return out
}

// ToggleAllForField grants or revokes the full action row for one
// field. Enabling replaces whatever partial grant was present with
// the complete action enumeration; disabling removes the entry
// entirely.
func ToggleAllForField(set Set, f Field, enabled bool) Set {
	out := set.clone()
	i := out.find(f)
	if !enabled {
		if i == -1 {
			return out
		}
		return append(out[:i], out[i+1:]...)
	}
	full := append([]Action(nil), Actions...)
	if i == -1 {
		return append(out, FieldPermission{Field: f, Actions: full})
	}
	out[i].Actions = full
	return out
}

// ToggleAllForAction grants or revokes one action column across every
// field in the enumeration, including fields with no current entry.
// Disabling prunes entries left with no actions.
func ToggleAllForAction(set Set, fields Fields, a Action, enabled bool) Set {
	out := set.clone()
	for _, f := range fields {
		i := out.find(f)
		if enabled {
			if i == -1 {
				out = append(out, FieldPermission{Field: f, Actions: []Action{a}})
			} else if !out[i].hasAction(a) {
				out[i].Actions = append(out[i].Actions, a)
			}
			continue
		}
		if i == -1 {
			continue
		}
		remaining := removeAction(out[i].Actions, a)
		if len(remaining) == 0 {
			out = append(out[:i], out[i+1:]...)
		} else {
			out[i].Actions = remaining
		}
	}
	return out
}

// FieldFullyGranted reports whether every action is granted on f.
// Drives the per-row select-all checkbox.
func FieldFullyGranted(set Set, f Field) bool {
	i := set.find(f)
	if i == -1 {
		return false
	}
	for _, a := range Actions {
		if !set[i].hasAction(a) {
			return false
		}
	}
	return true
}

// ActionGrantedForAll reports whether a is granted on every field in
// the enumeration. Drives the per-column select-all checkbox.
func ActionGrantedForAll(set Set, fields Fields, a Action) bool {
	for _, f := range fields {
		i := set.find(f)
		if i == -1 || !set[i].hasAction(a) {
			return false
		}
	}
	return true
}

func removeAction(actions []Action, a Action) []Action {
	out := make([]Action, 0, len(actions))
	for _, v := range actions {
		if v != a {
			out = append(out, v)
		}
	}
	return out
}
