package resolver

import (
	"context"
	"fmt"
)

// Order selects how the raw resolution becomes an install order.
type Order string

const (
	// OrderRaw installs the pre-order walk as is, duplicates included.
	OrderRaw Order = "raw"
	// OrderDedupe keeps the first occurrence of each name.
	OrderDedupe Order = "dedupe"
	// OrderTopological places every dependency before its dependents.
	OrderTopological Order = "topological"
)

// DefaultOrder avoids downloading shared dependencies more than once.
const DefaultOrder = OrderDedupe

// ParseOrder validates an order name. The empty string selects DefaultOrder.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "":
		return DefaultOrder, nil
	case OrderRaw, OrderDedupe, OrderTopological:
		return Order(s), nil
	default:
		return "", fmt.Errorf("unknown install order %q (want raw, dedupe or topological)", s)
	}
}

// Plan is the outcome of resolving a root package.
type Plan struct {
	Root    string
	Order   Order
	Raw     []string // dependencies in pre-order, root excluded
	Install []string // final install set, root last
}

// Duplicates returns how many entries of Raw repeat an earlier entry.
func (p *Plan) Duplicates() int {
	return len(p.Raw) - len(Dedupe(p.Raw))
}

// Plan resolves root and builds the install set for the given order.
func (r *Resolver) Plan(ctx context.Context, root string, order Order) (*Plan, error) {
	if order == "" {
		order = DefaultOrder
	}

	w := &walk{r: r, ctx: ctx, graph: newGraph()}
	if err := w.visit(root); err != nil {
		return nil, err
	}

	plan := &Plan{
		Root:  root,
		Order: order,
		Raw:   w.order,
	}

	switch order {
	case OrderRaw:
		plan.Install = append(append([]string{}, w.order...), root)
	case OrderDedupe:
		plan.Install = append(Dedupe(w.order), root)
	case OrderTopological:
		sorted, err := w.graph.dependenciesFirst()
		if err != nil {
			return nil, err
		}
		plan.Install = sorted
	default:
		return nil, fmt.Errorf("unknown install order %q", order)
	}

	r.logger.Debug("install plan", "root", root, "order", order, "raw", len(plan.Raw), "install", len(plan.Install))
	return plan, nil
}

// Dedupe keeps the first occurrence of each name, preserving order.
func Dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
