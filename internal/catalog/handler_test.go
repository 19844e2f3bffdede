package catalog

import "testing"

func TestShapeProduct_DerivesAvailableStock(t *testing.T) {
	row := map[string]any{
		"id":           "p1",
		"image":        "/uploads/x.png",
		"name":         "Widget",
		"product_code": "W-1",
		"size":         "M",
		"manufacturer": "Acme",
		"stock":        int32(50),
		"bad_stock":    int32(3),
		"bookings":     int32(7),
	}

	got := shapeProduct(row)
	if got["productCode"] != "W-1" {
		t.Fatalf("expected productCode mapped, got %v", got["productCode"])
	}
	if got["availableStock"] != int64(40) {
		t.Fatalf("expected availableStock 40, got %v", got["availableStock"])
	}
	if got["stock"] != int64(50) || got["badStock"] != int64(3) || got["bookings"] != int64(7) {
		t.Fatalf("stock fields not normalized: %v", got)
	}
}

func TestWriteValues_CoercesNumericsAndSkipsDerived(t *testing.T) {
	h := &Handler{fields: testFields}

	values, details := h.writeValues(map[string]any{
		"name":           "Widget",
		"stock":          "12",         // multipart form value
		"badStock":       float64(2),   // JSON number
		"availableStock": float64(999), // derived, never written
	})
	if len(details) > 0 {
		t.Fatalf("unexpected validation details: %v", details)
	}
	if values["name"] != "Widget" {
		t.Fatalf("expected name passed through, got %v", values)
	}
	if values["stock"] != int64(12) || values["bad_stock"] != int64(2) {
		t.Fatalf("numeric coercion failed: %v", values)
	}
	if _, ok := values["availableStock"]; ok {
		t.Fatal("derived field must not map to a column")
	}
	if _, ok := values["available_stock"]; ok {
		t.Fatal("derived field must not map to a column")
	}
}

func TestWriteValues_RejectsNonIntegerStock(t *testing.T) {
	h := &Handler{fields: testFields}
	_, details := h.writeValues(map[string]any{"stock": "lots"})
	if len(details) != 1 || details[0].Field != "stock" {
		t.Fatalf("expected validation detail for stock, got %v", details)
	}
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{"name", "stock", "availableStock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %v", fields)
	}

	if _, err := ParseFields([]string{"name", "password"}); err == nil {
		t.Fatal("expected error for unbacked field")
	}
	if _, err := ParseFields(nil); err == nil {
		t.Fatal("expected error for empty enumeration")
	}
}
