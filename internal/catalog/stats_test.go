package catalog

import "testing"

func TestStatsEvaluator_Defaults(t *testing.T) {
	eval, err := NewStatsEvaluator(
		"availableStock < 10", "availableStock == 0", "stock * 10")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	products := []map[string]any{
		{"stock": int64(50), "availableStock": int64(40)},
		{"stock": int64(5), "availableStock": int64(5)},
		{"stock": int64(2), "availableStock": int64(0)},
	}

	stats, err := eval.Evaluate(products)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if stats.TotalProducts != 3 {
		t.Fatalf("expected 3 products, got %d", stats.TotalProducts)
	}
	if stats.LowStock != 2 {
		t.Fatalf("expected 2 low-stock products, got %d", stats.LowStock)
	}
	if stats.OutOfStock != 1 {
		t.Fatalf("expected 1 out-of-stock product, got %d", stats.OutOfStock)
	}
	if stats.TotalValue != 570 {
		t.Fatalf("expected total value 570, got %v", stats.TotalValue)
	}
}

func TestStatsEvaluator_RejectsBadExpression(t *testing.T) {
	if _, err := NewStatsEvaluator("stock <", "availableStock == 0", "stock"); err == nil {
		t.Fatal("expected compile error for malformed rule")
	}
}

func TestStatsEvaluator_EmptyCatalog(t *testing.T) {
	eval, err := NewStatsEvaluator(
		"availableStock < 10", "availableStock == 0", "stock * 10")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	stats, err := eval.Evaluate(nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if stats.TotalProducts != 0 || stats.LowStock != 0 || stats.TotalValue != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}
