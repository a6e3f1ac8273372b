package broker

// Events is the outbound notification surface of the execution engine.
// Every call is fire-and-forget: the engine never holds its collection
// locks while notifying, and implementations must not block for long.
type Events interface {
	AccountChanged(AccountInfo)

	// OrdersChanged carries the full live order list; OrdersUpdated carries
	// only the orders touched by one event.
	OrdersChanged([]Order)
	OrdersUpdated([]Order)

	PositionChanged(Position)
	PositionsChanged([]Position)

	OrderRejected(Order, string)
	HistoricalOrder(Order, HistoryStatus)

	EngineError(error)
}

// NopEvents is an Events implementation that ignores everything. Embed it
// to implement only the notifications you care about.
type NopEvents struct{}

func (NopEvents) AccountChanged(AccountInfo)          {}
func (NopEvents) OrdersChanged([]Order)               {}
func (NopEvents) OrdersUpdated([]Order)               {}
func (NopEvents) PositionChanged(Position)            {}
func (NopEvents) PositionsChanged([]Position)         {}
func (NopEvents) OrderRejected(Order, string)         {}
func (NopEvents) HistoricalOrder(Order, HistoryStatus) {}
func (NopEvents) EngineError(error)                   {}

// Multi fans every notification out to each of the given consumers in order.
func Multi(events ...Events) Events {
	return multiEvents(events)
}

type multiEvents []Events

func (m multiEvents) AccountChanged(a AccountInfo) {
	for _, e := range m {
		e.AccountChanged(a)
	}
}

func (m multiEvents) OrdersChanged(orders []Order) {
	for _, e := range m {
		e.OrdersChanged(orders)
	}
}

func (m multiEvents) OrdersUpdated(orders []Order) {
	for _, e := range m {
		e.OrdersUpdated(orders)
	}
}

func (m multiEvents) PositionChanged(p Position) {
	for _, e := range m {
		e.PositionChanged(p)
	}
}

func (m multiEvents) PositionsChanged(positions []Position) {
	for _, e := range m {
		e.PositionsChanged(positions)
	}
}

func (m multiEvents) OrderRejected(o Order, reason string) {
	for _, e := range m {
		e.OrderRejected(o, reason)
	}
}

func (m multiEvents) HistoricalOrder(o Order, status HistoryStatus) {
	for _, e := range m {
		e.HistoricalOrder(o, status)
	}
}

func (m multiEvents) EngineError(err error) {
	for _, e := range m {
		e.EngineError(err)
	}
}
