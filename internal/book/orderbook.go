package book

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Config controls construction of an OrderBook.
type Config struct {
	TickPrice   int32
	Comparator  IDComparator
	InitialSize int
	StepSize    int
	Logger      zerolog.Logger
	Observer    Observer
}

// OrderBook composes one ask and one bid Depth and routes incoming orders
// between them.
type OrderBook struct {
	tickPrice int32
	ask       *Depth
	bid       *Depth
}

// New constructs an OrderBook per the given Config.
func New(cfg Config) *OrderBook {
	if cfg.InitialSize <= 0 {
		cfg.InitialSize = 1000
	}
	if cfg.StepSize <= 0 {
		cfg.StepSize = 1000
	}
	return &OrderBook{
		tickPrice: cfg.TickPrice,
		ask:       newDepth(Ask, cfg.TickPrice, cfg.InitialSize, cfg.StepSize, cfg.Comparator, cfg.Logger, cfg.Observer),
		bid:       newDepth(Bid, cfg.TickPrice, cfg.InitialSize, cfg.StepSize, cfg.Comparator, cfg.Logger, cfg.Observer),
	}
}

func (b *OrderBook) depth(side OrderSide) *Depth {
	if side == Ask {
		return b.ask
	}
	return b.bid
}

func (b *OrderBook) opposite(side OrderSide) *Depth {
	if side == Ask {
		return b.bid
	}
	return b.ask
}

// AddOrder matches the incoming order against the opposite side, then
// rests any remainder on the same side. The size/id/price boundary
// checks run first, before Match ever touches resting liquidity, so a
// malformed order is rejected with zero state change rather than
// partially traded against the book.
func (b *OrderBook) AddOrder(order Order) error {
	if err := b.depth(order.Side).validate(order); err != nil {
		return err
	}
	b.opposite(order.Side).Match(&order)
	if order.Size <= 0 {
		return nil
	}
	return b.depth(order.Side).Add(order)
}

// DeleteOrder cancels a resting order. The caller supplies Side directly,
// and it routes to that *same* side the order rests on rather than the
// opposite side AddOrder uses for matching.
func (b *OrderBook) DeleteOrder(side OrderSide, id string) error {
	return b.depth(side).DeleteOrder(id)
}

// Clear empties both ladders.
func (b *OrderBook) Clear() {
	b.ask.Clear()
	b.bid.Clear()
}

// ResetTickPrice refines the quantum for both ladders, validating the
// divisor rule once at the book level before forwarding.
func (b *OrderBook) ResetTickPrice(newTick int32) error {
	reject := func() error {
		b.ask.log.Warn().Int32("current_tick", b.tickPrice).Int32("new_tick", newTick).Msg("rejecting invalid retick")
		return ErrInvalidRetick
	}
	if newTick <= 0 {
		return reject()
	}
	if (newTick > b.tickPrice && newTick%b.tickPrice != 0) ||
		(newTick < b.tickPrice && b.tickPrice%newTick != 0) {
		return reject()
	}
	if newTick >= b.tickPrice {
		return reject()
	}

	if err := b.ask.ResetTickPrice(newTick); err != nil {
		return err
	}
	if err := b.bid.ResetTickPrice(newTick); err != nil {
		return err
	}
	b.tickPrice = newTick
	return nil
}

// BestAsk and BestBid report top-of-book prices.
func (b *OrderBook) BestAsk() (int32, bool) { return b.ask.BestPrice() }
func (b *OrderBook) BestBid() (int32, bool) { return b.bid.BestPrice() }

// Print writes both ladders in the CLI's print format.
func (b *OrderBook) Print(w io.Writer) {
	fmt.Fprintf(w, "orderbook tick=%d\n", b.tickPrice)
	b.ask.WriteTo(w)
	b.bid.WriteTo(w)
}
