package permission

// Allowed answers "may a user with this role and permission set
// perform action a on field f". The admin bypass lives here and only
// here so call sites cannot forget it. Pure function, safe for
// concurrent use.
func Allowed(role Role, set Set, f Field, a Action) bool {
	if role == RoleAdmin {
		return true
	}
	i := set.find(f)
	if i == -1 {
		return false
	}
	return set[i].hasAction(a)
}
