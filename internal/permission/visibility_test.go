package permission

import (
	"reflect"
	"testing"
)

func TestVisibleFields_AdminGetsFullOrderedList(t *testing.T) {
	got := VisibleFields(RoleAdmin, nil, testFields)
	if !reflect.DeepEqual(got, testFields) {
		t.Fatalf("admin should see all fields in order, got %v", got)
	}
}

func TestVisibleFields_StandardSeesViewGrantsInOrder(t *testing.T) {
	set := Set{
		{Field: "stock", Actions: []Action{ActionView}},
		{Field: "name", Actions: []Action{ActionView}},
		{Field: "manufacturer", Actions: []Action{ActionEdit}}, // no view
	}
	got := VisibleFields(RoleStandard, set, testFields)
	want := Fields{"name", "stock"} // canonical order, not grant order
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestVisibleFields_ViewOnlyNameExample(t *testing.T) {
	set := Set{{Field: "name", Actions: []Action{ActionView}}}

	visible := VisibleFields(RoleStandard, set, testFields)
	if len(visible) != 1 || visible[0] != "name" {
		t.Fatalf("expected only name visible, got %v", visible)
	}
	for _, f := range visible {
		if f == "productCode" {
			t.Fatal("productCode must not be visible")
		}
	}
	if Allowed(RoleStandard, set, "name", ActionEdit) {
		t.Fatal("view grant must not imply edit")
	}
}

func TestCapabilityBooleans(t *testing.T) {
	set := Set{{Field: "name", Actions: []Action{ActionView}}}

	if CanEditAny(RoleStandard, set, testFields) {
		t.Fatal("no edit grant anywhere, CanEditAny should be false")
	}
	if CanDeleteAny(RoleStandard, set, testFields) {
		t.Fatal("no delete grant anywhere, CanDeleteAny should be false")
	}

	withEdit := ToggleCell(set, "stock", ActionEdit)
	if !CanEditAny(RoleStandard, withEdit, testFields) {
		t.Fatal("edit grant on one field should flip CanEditAny")
	}

	if !CanEditAny(RoleAdmin, nil, testFields) || !CanDeleteAny(RoleAdmin, nil, testFields) {
		t.Fatal("admin capabilities are unconditional")
	}
}
