package sim

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/brokerd/broker"
	"github.com/rustyeddy/brokerd/market"
)

// captureSink records the reports a venue delivers.
type captureSink struct {
	executions []broker.Execution
	positions  []broker.Position
}

func (s *captureSink) ProcessOrderUpdate(o broker.Order)          {}
func (s *captureSink) ProcessOrderExecution(x broker.Execution)   { s.executions = append(s.executions, x) }
func (s *captureSink) ProcessPositionUpdate(p broker.Position)    { s.positions = append(s.positions, p) }
func (s *captureSink) OnNewTick(string, decimal.Decimal, decimal.Decimal, time.Time) {
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newVenue(t *testing.T) (*Venue, *captureSink, *market.TickStore) {
	t.Helper()
	ticks := market.NewTickStore()
	v := New(ticks, market.Securities{
		"EURUSD": {Symbol: "EURUSD", BaseCurrency: "EUR", QuoteCurrency: "USD", Currency: "USD"},
	})
	sink := &captureSink{}
	v.Connect(sink)
	if err := v.Login(context.Background(), broker.Credentials{Account: "ACC-1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := v.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = v.Stop(context.Background()) })
	return v, sink, ticks
}

func setTick(ticks *market.TickStore, bid, ask string) {
	ticks.Set(market.Tick{
		Symbol: "EURUSD",
		Bid:    d(bid),
		Ask:    d(ask),
		Time:   time.Now().UTC(),
	})
}

func TestLoginRequiresAccount(t *testing.T) {
	v := New(market.NewTickStore(), nil)
	if err := v.Login(context.Background(), broker.Credentials{}); err == nil {
		t.Fatal("login accepted empty credentials")
	}
}

func TestStartRequiresSink(t *testing.T) {
	v := New(market.NewTickStore(), nil)
	if err := v.Start(context.Background()); err == nil {
		t.Fatal("started with no report sink")
	}
}

func TestBuyFillsAtAsk(t *testing.T) {
	v, sink, ticks := newVenue(t)
	setTick(ticks, "1.0999", "1.1001")

	err := v.PlaceOrder(broker.Order{
		ClientID: "c-1",
		Symbol:   "EURUSD",
		Side:     broker.SideBuy,
		Kind:     broker.KindMarket,
		Quantity: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if len(sink.executions) != 1 {
		t.Fatalf("have %d executions, want 1", len(sink.executions))
	}
	x := sink.executions[0]
	if !x.Price.Equal(d("1.1001")) {
		t.Fatalf("fill price = %s, want ask 1.1001", x.Price)
	}
	if !x.FilledQuantity.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("filled = %s, want 10", x.FilledQuantity)
	}
	if x.OrderID == "" {
		t.Fatal("no venue order id assigned")
	}

	if len(sink.positions) != 1 {
		t.Fatalf("have %d position reports, want 1", len(sink.positions))
	}
	p := sink.positions[0]
	if p.Side != broker.SideBuy || !p.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("position = %+v, want 10 long", p)
	}
}

func TestSellFillsAtBid(t *testing.T) {
	v, sink, ticks := newVenue(t)
	setTick(ticks, "1.0999", "1.1001")

	if err := v.PlaceOrder(broker.Order{
		Symbol:   "EURUSD",
		Side:     broker.SideSell,
		Kind:     broker.KindMarket,
		Quantity: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("place: %v", err)
	}
	if !sink.executions[0].Price.Equal(d("1.0999")) {
		t.Fatalf("fill price = %s, want bid 1.0999", sink.executions[0].Price)
	}
	if sink.positions[0].Side != broker.SideSell {
		t.Fatalf("position side = %s, want Sell", sink.positions[0].Side)
	}
}

func TestConditionalOrdersAreRefused(t *testing.T) {
	v, _, ticks := newVenue(t)
	setTick(ticks, "1.0999", "1.1001")

	err := v.PlaceOrder(broker.Order{
		Symbol:   "EURUSD",
		Side:     broker.SideBuy,
		Kind:     broker.KindLimit,
		Price:    d("1.0950"),
		Quantity: decimal.NewFromInt(5),
	})
	if err == nil {
		t.Fatal("limit order was accepted")
	}
}

func TestPlaceWithoutPriceFails(t *testing.T) {
	v, _, _ := newVenue(t)
	err := v.PlaceOrder(broker.Order{
		Symbol:   "EURUSD",
		Side:     broker.SideBuy,
		Kind:     broker.KindMarket,
		Quantity: decimal.NewFromInt(5),
	})
	if err == nil {
		t.Fatal("filled with no tick cached")
	}
}

func TestSameSideFillsExtendAtWeightedAverage(t *testing.T) {
	v, sink, ticks := newVenue(t)

	setTick(ticks, "1.0999", "1.1000")
	if err := v.PlaceOrder(broker.Order{
		Symbol: "EURUSD", Side: broker.SideBuy, Kind: broker.KindMarket,
		Quantity: decimal.NewFromInt(4),
	}); err != nil {
		t.Fatalf("place: %v", err)
	}
	setTick(ticks, "1.1009", "1.1010")
	if err := v.PlaceOrder(broker.Order{
		Symbol: "EURUSD", Side: broker.SideBuy, Kind: broker.KindMarket,
		Quantity: decimal.NewFromInt(6),
	}); err != nil {
		t.Fatalf("place: %v", err)
	}

	p := sink.positions[len(sink.positions)-1]
	if !p.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("quantity = %s, want 10", p.Quantity)
	}
	// (4*1.1000 + 6*1.1010) / 10
	if !p.AvgPrice.Equal(d("1.1006")) {
		t.Fatalf("avg price = %s, want 1.1006", p.AvgPrice)
	}
}

func TestReducingFillReportsSmallerPosition(t *testing.T) {
	v, sink, ticks := newVenue(t)

	setTick(ticks, "1.0999", "1.1000")
	if err := v.PlaceOrder(broker.Order{
		Symbol: "EURUSD", Side: broker.SideBuy, Kind: broker.KindMarket,
		Quantity: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := v.PlaceOrder(broker.Order{
		Symbol: "EURUSD", Side: broker.SideSell, Kind: broker.KindMarket,
		Quantity: decimal.NewFromInt(4),
	}); err != nil {
		t.Fatalf("place: %v", err)
	}

	p := sink.positions[len(sink.positions)-1]
	if p.Side != broker.SideBuy || !p.Quantity.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("position = %+v, want 6 long", p)
	}
}

func TestOvershootFlipsThePosition(t *testing.T) {
	v, sink, ticks := newVenue(t)

	setTick(ticks, "1.0999", "1.1000")
	if err := v.PlaceOrder(broker.Order{
		Symbol: "EURUSD", Side: broker.SideBuy, Kind: broker.KindMarket,
		Quantity: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("place: %v", err)
	}
	setTick(ticks, "1.1049", "1.1050")
	if err := v.PlaceOrder(broker.Order{
		Symbol: "EURUSD", Side: broker.SideSell, Kind: broker.KindMarket,
		Quantity: decimal.NewFromInt(12),
	}); err != nil {
		t.Fatalf("place: %v", err)
	}

	p := sink.positions[len(sink.positions)-1]
	if p.Side != broker.SideSell || !p.Quantity.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("position = %+v, want 2 short", p)
	}
	// a reversal carries the flip fill price, not the old average
	if !p.AvgPrice.Equal(d("1.1049")) {
		t.Fatalf("avg price = %s, want 1.1049", p.AvgPrice)
	}
}

func TestFlatteningFillReportsZero(t *testing.T) {
	v, sink, ticks := newVenue(t)

	setTick(ticks, "1.0999", "1.1000")
	if err := v.PlaceOrder(broker.Order{
		Symbol: "EURUSD", Side: broker.SideBuy, Kind: broker.KindMarket,
		Quantity: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := v.PlaceOrder(broker.Order{
		Symbol: "EURUSD", Side: broker.SideSell, Kind: broker.KindMarket,
		Quantity: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("place: %v", err)
	}

	p := sink.positions[len(sink.positions)-1]
	if !p.Quantity.IsZero() {
		t.Fatalf("quantity = %s, want 0", p.Quantity)
	}
}

func TestCancelReportsRemainingQuantity(t *testing.T) {
	v, sink, _ := newVenue(t)

	if err := v.CancelOrder(broker.Order{
		ID:             "V-1",
		Symbol:         "EURUSD",
		Side:           broker.SideBuy,
		Kind:           broker.KindLimit,
		Quantity:       decimal.NewFromInt(5),
		FilledQuantity: decimal.NewFromInt(2),
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	x := sink.executions[0]
	if !x.CancelledQuantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("cancelled = %s, want remaining 3", x.CancelledQuantity)
	}
}
