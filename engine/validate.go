package engine

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/brokerd/broker"
)

// validateOrder is the admission gate run before any state mutation. It
// returns a human-readable rejection reason, or "" when the order may
// proceed. It never mutates anything.
func (e *Engine) validateOrder(o *broker.Order) string {
	if !e.started.Load() {
		return "Broker is not started"
	}
	if o == nil {
		return "Order is empty"
	}
	if strings.TrimSpace(o.Symbol) == "" {
		return "Symbol is empty"
	}
	if o.Quantity.IsZero() {
		return "Quantity is zero"
	}
	if o.Kind.Conditional() && o.Price.IsZero() {
		return "Price is empty"
	}
	if _, ok := e.securities[o.Symbol]; !ok {
		return fmt.Sprintf("Symbol %s is not found", o.Symbol)
	}
	return ""
}
