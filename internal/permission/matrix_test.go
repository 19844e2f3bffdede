package permission

import (
	"reflect"
	"testing"
)

func assertInvariants(t *testing.T, set Set) {
	t.Helper()
	seen := make(map[Field]bool)
	for _, p := range set {
		if seen[p.Field] {
			t.Fatalf("duplicate entry for field %s: %v", p.Field, set)
		}
		seen[p.Field] = true
		if len(p.Actions) == 0 {
			t.Fatalf("empty action set for field %s: %v", p.Field, set)
		}
	}
}

func TestToggleCell_GrantThenRevokeRestoresOriginal(t *testing.T) {
	original := Set{{Field: "name", Actions: []Action{ActionView}}}

	toggled := ToggleCell(original, "stock", ActionEdit)
	assertInvariants(t, toggled)
	if !Allowed(RoleStandard, toggled, "stock", ActionEdit) {
		t.Fatal("expected stock/edit granted after toggle")
	}

	back := ToggleCell(toggled, "stock", ActionEdit)
	assertInvariants(t, back)
	if !reflect.DeepEqual(back, original) {
		t.Fatalf("double toggle did not restore original: %v != %v", back, original)
	}
}

func TestToggleCell_RevokingLastActionPrunesEntry(t *testing.T) {
	set := Set{{Field: "stock", Actions: []Action{ActionEdit}}}
	out := ToggleCell(set, "stock", ActionEdit)
	assertInvariants(t, out)
	if len(out) != 0 {
		t.Fatalf("expected empty set, got %v", out)
	}
}

func TestToggleCell_DoesNotMutateInput(t *testing.T) {
	set := Set{{Field: "name", Actions: []Action{ActionView}}}
	snapshot := set.clone()

	_ = ToggleCell(set, "name", ActionEdit)
	_ = ToggleCell(set, "name", ActionView)

	if !reflect.DeepEqual(set, snapshot) {
		t.Fatalf("input set mutated: %v != %v", set, snapshot)
	}
}

func TestToggleCell_EmptySetExample(t *testing.T) {
	// From empty: granting stock/edit yields exactly one entry, and
	// disabling the whole field row empties the set again.
	set := ToggleCell(nil, "stock", ActionEdit)
	want := Set{{Field: "stock", Actions: []Action{ActionEdit}}}
	if !reflect.DeepEqual(set, want) {
		t.Fatalf("got %v, want %v", set, want)
	}

	cleared := ToggleAllForField(set, "stock", false)
	if len(cleared) != 0 {
		t.Fatalf("expected empty set, got %v", cleared)
	}
}

func TestToggleAllForField_EnableReplacesPartialGrant(t *testing.T) {
	set := Set{{Field: "name", Actions: []Action{ActionDelete}}}
	out := ToggleAllForField(set, "name", true)
	assertInvariants(t, out)

	for _, a := range Actions {
		if !Allowed(RoleStandard, out, "name", a) {
			t.Fatalf("expected name/%s granted after enable-all", a)
		}
	}
	if len(out) != 1 || len(out[0].Actions) != len(Actions) {
		t.Fatalf("expected full action row, got %v", out)
	}
}

func TestToggleAllForField_DisableLeavesOthersUntouched(t *testing.T) {
	set := Set{
		{Field: "name", Actions: []Action{ActionView, ActionEdit}},
		{Field: "stock", Actions: []Action{ActionView}},
	}

	enabled := ToggleAllForField(set, "name", true)
	disabled := ToggleAllForField(enabled, "name", false)
	assertInvariants(t, disabled)

	if disabled.find("name") != -1 {
		t.Fatalf("expected no entry for name, got %v", disabled)
	}
	i := disabled.find("stock")
	if i == -1 || !reflect.DeepEqual(disabled[i], set[1]) {
		t.Fatalf("stock entry changed: %v", disabled)
	}
}

func TestToggleAllForAction_EnableCoversEveryField(t *testing.T) {
	set := Set{{Field: "name", Actions: []Action{ActionEdit}}}
	out := ToggleAllForAction(set, testFields, ActionView, true)
	assertInvariants(t, out)

	for _, f := range testFields {
		if !Allowed(RoleStandard, out, f, ActionView) {
			t.Fatalf("expected %s/view granted", f)
		}
	}
	// Pre-existing grants survive.
	if !Allowed(RoleStandard, out, "name", ActionEdit) {
		t.Fatal("expected name/edit to survive column enable")
	}
	if !ActionGrantedForAll(out, testFields, ActionView) {
		t.Fatal("column checkbox should report checked")
	}
}

func TestToggleAllForAction_DisablePrunesEmptiedEntries(t *testing.T) {
	set := Set{
		{Field: "name", Actions: []Action{ActionView}},
		{Field: "stock", Actions: []Action{ActionView, ActionEdit}},
	}
	out := ToggleAllForAction(set, testFields, ActionView, false)
	assertInvariants(t, out)

	if out.find("name") != -1 {
		t.Fatalf("expected name entry pruned, got %v", out)
	}
	if !Allowed(RoleStandard, out, "stock", ActionEdit) {
		t.Fatal("expected stock/edit to survive column disable")
	}
	if Allowed(RoleStandard, out, "stock", ActionView) {
		t.Fatal("expected stock/view revoked")
	}
}

func TestFieldFullyGranted(t *testing.T) {
	set := Set{
		{Field: "name", Actions: []Action{ActionView, ActionEdit, ActionDelete}},
		{Field: "stock", Actions: []Action{ActionView}},
	}
	if !FieldFullyGranted(set, "name") {
		t.Fatal("name should be fully granted")
	}
	if FieldFullyGranted(set, "stock") {
		t.Fatal("stock should not be fully granted")
	}
	if FieldFullyGranted(set, "image") {
		t.Fatal("absent field should not be fully granted")
	}
}

func TestActionGrantedForAll(t *testing.T) {
	set := ToggleAllForAction(nil, testFields, ActionDelete, true)
	if !ActionGrantedForAll(set, testFields, ActionDelete) {
		t.Fatal("delete should be granted across all fields")
	}

	partial := ToggleCell(set, "image", ActionDelete)
	if ActionGrantedForAll(partial, testFields, ActionDelete) {
		t.Fatal("one missing field should uncheck the column")
	}
}
