package catalog

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Stats summarizes the catalog for the dashboard.
type Stats struct {
	TotalProducts int     `json:"totalProducts"`
	LowStock      int     `json:"lowStock"`
	OutOfStock    int     `json:"outOfStock"`
	TotalValue    float64 `json:"totalValue"`
}

// StatsEvaluator classifies products with configurable expressions,
// compiled once at startup and evaluated against each shaped product.
type StatsEvaluator struct {
	lowStock   *vm.Program
	outOfStock *vm.Program
	value      *vm.Program
}

func NewStatsEvaluator(lowStockRule, outOfStockRule, valueExpr string) (*StatsEvaluator, error) {
	low, err := expr.Compile(lowStockRule, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile low_stock_rule: %w", err)
	}
	out, err := expr.Compile(outOfStockRule, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile out_of_stock_rule: %w", err)
	}
	value, err := expr.Compile(valueExpr)
	if err != nil {
		return nil, fmt.Errorf("compile value_expr: %w", err)
	}
	return &StatsEvaluator{lowStock: low, outOfStock: out, value: value}, nil
}

// Evaluate runs the classification rules over every product.
func (e *StatsEvaluator) Evaluate(products []map[string]any) (*Stats, error) {
	stats := &Stats{TotalProducts: len(products)}
	for _, p := range products {
		low, err := expr.Run(e.lowStock, p)
		if err != nil {
			return nil, fmt.Errorf("evaluate low_stock_rule: %w", err)
		}
		if low == true {
			stats.LowStock++
		}

		out, err := expr.Run(e.outOfStock, p)
		if err != nil {
			return nil, fmt.Errorf("evaluate out_of_stock_rule: %w", err)
		}
		if out == true {
			stats.OutOfStock++
		}

		value, err := expr.Run(e.value, p)
		if err != nil {
			return nil, fmt.Errorf("evaluate value_expr: %w", err)
		}
		stats.TotalValue += toFloat(value)
	}
	return stats, nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	default:
		return 0
	}
}
