package catalog

import (
	"errors"
	"testing"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/permission"
)

var testFields = permission.Fields{
	"image", "name", "productCode", "size", "manufacturer",
	"stock", "badStock", "bookings", "availableStock",
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

func TestCheckWrite_RejectsWholeMutationOnOneDeniedField(t *testing.T) {
	// Actor may edit name only; payload touches name and stock.
	set := permission.Set{{Field: "name", Actions: []permission.Action{permission.ActionEdit}}}
	payload := map[string]any{"name": "Widget", "stock": 5}

	err := CheckWrite(permission.RoleStandard, set, payload, testFields)
	if err == nil {
		t.Fatal("expected rejection")
	}
	if code := appErrCode(t, err); code != "FIELD_FORBIDDEN" {
		t.Fatalf("expected FIELD_FORBIDDEN, got %s", code)
	}

	var appErr *apperr.AppError
	errors.As(err, &appErr)
	if len(appErr.Details) != 1 || appErr.Details[0].Field != "stock" {
		t.Fatalf("rejection should name only the denied payload field, got %v", appErr.Details)
	}
}

func TestCheckWrite_AllowsFullyGrantedPayload(t *testing.T) {
	set := permission.Set{
		{Field: "name", Actions: []permission.Action{permission.ActionEdit}},
		{Field: "stock", Actions: []permission.Action{permission.ActionEdit}},
	}
	payload := map[string]any{"name": "Widget", "stock": 5}

	if err := CheckWrite(permission.RoleStandard, set, payload, testFields); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
}

func TestCheckWrite_AdminBypass(t *testing.T) {
	payload := map[string]any{"name": "Widget", "stock": 5, "badStock": 1}
	if err := CheckWrite(permission.RoleAdmin, nil, payload, testFields); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
}

func TestCheckWrite_RejectsUnknownPayloadKey(t *testing.T) {
	// Unknown keys are rejected before the engine is consulted, even
	// for admins.
	payload := map[string]any{"password": "x"}
	err := CheckWrite(permission.RoleAdmin, nil, payload, testFields)
	if err == nil {
		t.Fatal("expected rejection for unknown key")
	}
	if code := appErrCode(t, err); code != "INVALID_ENUM_VALUE" {
		t.Fatalf("expected INVALID_ENUM_VALUE, got %s", code)
	}
}

func TestCheckDelete(t *testing.T) {
	noDelete := permission.Set{{Field: "name", Actions: []permission.Action{permission.ActionEdit}}}
	err := CheckDelete(permission.RoleStandard, noDelete, testFields)
	if err == nil {
		t.Fatal("expected rejection without any delete grant")
	}
	if code := appErrCode(t, err); code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %s", code)
	}

	withDelete := permission.ToggleCell(noDelete, "name", permission.ActionDelete)
	if err := CheckDelete(permission.RoleStandard, withDelete, testFields); err != nil {
		t.Fatalf("delete grant on one field should suffice: %v", err)
	}
	if err := CheckDelete(permission.RoleAdmin, nil, testFields); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
}

func TestFilterVisible(t *testing.T) {
	row := map[string]any{
		"id":             "p1",
		"name":           "Widget",
		"productCode":    "W-1",
		"stock":          int64(5),
		"availableStock": int64(3),
		"createdAt":      "2024-01-01",
		"updatedAt":      "2024-01-02",
	}
	set := permission.Set{{Field: "name", Actions: []permission.Action{permission.ActionView}}}

	got := FilterVisible(row, permission.RoleStandard, set, testFields)
	if got["name"] != "Widget" {
		t.Fatalf("expected name visible, got %v", got)
	}
	if _, ok := got["productCode"]; ok {
		t.Fatal("productCode must be filtered out")
	}
	if _, ok := got["stock"]; ok {
		t.Fatal("stock must be filtered out")
	}
	if got["id"] != "p1" || got["createdAt"] == nil || got["updatedAt"] == nil {
		t.Fatalf("record metadata must be kept, got %v", got)
	}

	admin := FilterVisible(row, permission.RoleAdmin, nil, testFields)
	if admin["productCode"] != "W-1" || admin["availableStock"] != int64(3) {
		t.Fatalf("admin should see everything, got %v", admin)
	}
}
