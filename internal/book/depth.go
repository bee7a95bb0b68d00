package book

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Depth is one side of a book: a circular array of price-level heads
// indexed around top/bottom, plus an id index for O(1) cancellation.
type Depth struct {
	side       OrderSide
	indexStep  int32 // +1 for Ask, -1 for Bid
	stepSize   int
	tickPrice  int32
	current    int // current_size
	top        int // -1 when empty
	bottom     int // -1 when empty
	priceNodes []*orderNode
	idIndex    map[string]*orderNode
	less       lessFunc
	log        zerolog.Logger
	obs        Observer
}

func newDepth(side OrderSide, tickPrice int32, initialSize, stepSize int, cmp IDComparator, log zerolog.Logger, obs Observer) *Depth {
	step := int32(1)
	if side == Bid {
		step = -1
	}
	if obs == nil {
		obs = NopObserver{}
	}
	return &Depth{
		side:       side,
		indexStep:  step,
		stepSize:   stepSize,
		tickPrice:  tickPrice,
		current:    initialSize,
		top:        -1,
		bottom:     -1,
		priceNodes: make([]*orderNode, initialSize),
		idIndex:    make(map[string]*orderNode),
		less:       lessFuncFor(cmp),
		log:        log,
		obs:        obs,
	}
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// indexForPrice maps price to its ring-buffer slot. Only valid while the
// ladder is non-empty.
func (d *Depth) indexForPrice(price int32) int {
	topPrice := d.priceNodes[d.top].value.Price
	offset := (price - topPrice) / d.tickPrice
	return mod(d.top+int(offset*d.indexStep), d.current)
}

// validate rejects an order that fails the size/id/price boundary checks
// before it ever reaches a ladder, logging and counting the rejection
// the same way regardless of whether the caller is about to match it or
// rest it.
func (d *Depth) validate(order Order) error {
	if order.Size <= 0 || order.ID == "" || d.tickPrice <= 0 || order.Price <= 0 || order.Price%d.tickPrice != 0 {
		d.log.Error().Str("side", d.side.String()).Str("id", order.ID).Int32("price", order.Price).Int32("size", order.Size).Msg("malformed order rejected")
		d.obs.OnReject(d.side, "malformed")
		return ErrMalformedOrder
	}
	return nil
}

// Add validates and rests an order on this side's ladder.
func (d *Depth) Add(order Order) error {
	if err := d.validate(order); err != nil {
		return err
	}
	if _, resting := d.idIndex[order.ID]; resting {
		d.log.Warn().Str("side", d.side.String()).Str("id", order.ID).Msg("ignoring duplicate order id")
		d.obs.OnReject(d.side, "duplicate")
		return ErrDuplicateOrderID
	}

	if d.top == -1 {
		d.top, d.bottom = 0, 0
		return d.addLinkNode(0, order)
	}

	topPrice := d.priceNodes[d.top].value.Price
	bottomPrice := d.priceNodes[d.bottom].value.Price

	var required int
	switch d.side {
	case Ask:
		if order.Price >= topPrice {
			required = int((order.Price - topPrice) / d.tickPrice)
		} else {
			required = int((bottomPrice - order.Price) / d.tickPrice)
		}
	default: // Bid
		if order.Price <= topPrice {
			required = int((topPrice - order.Price) / d.tickPrice)
		} else {
			required = int((order.Price - bottomPrice) / d.tickPrice)
		}
	}

	if required >= d.current {
		d.grow(required)
		return d.Add(order)
	}

	idx := d.indexForPrice(order.Price)
	if err := d.addLinkNode(idx, order); err != nil {
		return err
	}

	switch d.side {
	case Ask:
		if order.Price < topPrice {
			d.top = idx
		}
		if order.Price > bottomPrice {
			d.bottom = idx
		}
	default: // Bid
		if order.Price < bottomPrice {
			d.bottom = idx
		}
		if order.Price > topPrice {
			d.top = idx
		}
	}
	return nil
}

func (d *Depth) addLinkNode(idx int, order Order) error {
	newHead, inserted, node := insertSorted(d.priceNodes[idx], order, false, d.less)
	if !inserted {
		d.log.Warn().Str("side", d.side.String()).Str("id", order.ID).Msg("ignoring duplicate order id")
		d.obs.OnReject(d.side, "duplicate")
		return ErrDuplicateOrderID
	}
	d.priceNodes[idx] = newHead
	d.idIndex[order.ID] = node
	d.obs.OnAdd(d.side, order, true)
	return nil
}

// grow re-lays the live range into a larger backing array so that
// required extra slots fit.
func (d *Depth) grow(required int) {
	enlarge := (required/d.stepSize)*d.stepSize + d.stepSize - d.current
	newSize := d.current + enlarge
	newNodes := make([]*orderNode, newSize)

	topPrice := d.priceNodes[d.top].value.Price
	elemSize := mod(d.bottom-d.top, d.current)
	newBottom := 0
	for i, idx := 0, d.top; i <= elemSize; i, idx = i+1, mod(idx+1, d.current) {
		if d.priceNodes[idx] == nil {
			continue
		}
		price := d.priceNodes[idx].value.Price
		newIdx := int((price - topPrice) * d.indexStep / d.tickPrice)
		newNodes[newIdx] = d.priceNodes[idx]
		newBottom = newIdx
	}

	d.priceNodes = newNodes
	d.top = 0
	d.bottom = newBottom
	d.current = newSize
	d.obs.OnGrow(d.side, newSize)
	d.log.Debug().Str("side", d.side.String()).Int("new_size", newSize).Msg("grew price ladder")
}

// aggressive reports whether a resting order at levelPrice is executable
// against an incoming limit of limitPrice on the opposite side.
func (d *Depth) aggressive(levelPrice, limitPrice int32) bool {
	if d.side == Ask {
		return levelPrice <= limitPrice
	}
	return levelPrice >= limitPrice
}

// Match consumes resting liquidity on this (opposite) side against
// incoming. incoming.Size is decremented in place; any
// remainder is left for the caller to rest on the same-side Depth.
func (d *Depth) Match(incoming *Order) {
	if d.top == -1 {
		return
	}

	elemSize := mod(d.bottom-d.top, d.current)
	idx := d.top
	for i := 0; i <= elemSize && incoming.Size > 0; i, idx = i+1, mod(idx+1, d.current) {
		node := d.priceNodes[idx]
		if node == nil {
			continue
		}
		levelPrice := node.value.Price
		if !d.aggressive(levelPrice, incoming.Price) {
			break
		}

		for node != nil && incoming.Size > 0 {
			if node.value.Size > incoming.Size {
				filled := incoming.Size
				node.value.Size -= incoming.Size
				incoming.Size = 0
				d.obs.OnFill(d.side, node.value.ID, incoming, filled, levelPrice)
			} else {
				filled := node.value.Size
				incoming.Size -= node.value.Size
				delete(d.idIndex, node.value.ID)
				d.obs.OnFill(d.side, node.value.ID, incoming, filled, levelPrice)
				d.priceNodes[idx] = popFront(node)
				node = d.priceNodes[idx]
			}
		}
	}

	d.resetTop()
}

// DeleteOrder cancels a resting order by id.
func (d *Depth) DeleteOrder(id string) error {
	node, ok := d.idIndex[id]
	if !ok {
		d.log.Warn().Str("side", d.side.String()).Str("id", id).Msg("cancel of unknown order id")
		d.obs.OnReject(d.side, "unknown")
		return ErrUnknownOrderID
	}

	idx := d.indexForPrice(node.value.Price)
	cancelled := node.value
	d.priceNodes[idx] = unlink(d.priceNodes[idx], node)
	delete(d.idIndex, id)
	d.obs.OnCancel(d.side, cancelled)

	if d.priceNodes[idx] == nil {
		if idx == d.top {
			d.resetTop()
		} else if idx == d.bottom {
			d.resetBottom()
		}
	}
	return nil
}

// resetTop advances top past any drained leading slots.
func (d *Depth) resetTop() {
	if d.top == -1 {
		return
	}
	elemSize := mod(d.bottom-d.top, d.current)
	idx := d.top
	found := false
	for i := 0; i <= elemSize; i++ {
		if d.priceNodes[idx] != nil {
			found = true
			break
		}
		idx = mod(idx+1, d.current)
	}
	if !found {
		d.top, d.bottom = -1, -1
		return
	}
	d.top = idx
}

// resetBottom is the mirror of resetTop, walking backwards.
func (d *Depth) resetBottom() {
	if d.top == -1 {
		return
	}
	elemSize := mod(d.bottom-d.top, d.current)
	idx := d.bottom
	found := false
	for i := 0; i <= elemSize; i++ {
		if d.priceNodes[idx] != nil {
			found = true
			break
		}
		idx = mod(idx-1, d.current)
	}
	if !found {
		d.top, d.bottom = -1, -1
		return
	}
	d.bottom = idx
}

// ResetTickPrice refines the quantum.
func (d *Depth) ResetTickPrice(newTick int32) error {
	if newTick <= 0 {
		d.log.Warn().Str("side", d.side.String()).Int32("current_tick", d.tickPrice).Int32("new_tick", newTick).Msg("rejecting invalid retick")
		d.obs.OnReject(d.side, "retick")
		return ErrInvalidRetick
	}

	if d.top == -1 {
		d.tickPrice = newTick
		return nil
	}

	if newTick >= d.tickPrice || d.tickPrice%newTick != 0 {
		d.log.Warn().Str("side", d.side.String()).Int32("current_tick", d.tickPrice).Int32("new_tick", newTick).Msg("rejecting invalid retick")
		d.obs.OnReject(d.side, "retick")
		return ErrInvalidRetick
	}

	mult := int(d.tickPrice / newTick)
	newSize := d.current * mult
	newNodes := make([]*orderNode, newSize)

	elemSize := mod(d.bottom-d.top, d.current)
	idx := d.top
	for i := 0; i <= elemSize; i, idx = i+1, mod(idx+1, d.current) {
		if d.priceNodes[idx] == nil {
			continue
		}
		newNodes[idx*mult] = d.priceNodes[idx]
	}

	oldTick := d.tickPrice
	d.priceNodes = newNodes
	d.top *= mult
	d.bottom *= mult
	d.current = newSize
	d.tickPrice = newTick
	d.obs.OnRetick(oldTick, newTick)
	d.log.Debug().Str("side", d.side.String()).Int32("old_tick", oldTick).Int32("new_tick", newTick).Msg("refined tick price")
	return nil
}

// Clear destroys every resting level.
func (d *Depth) Clear() {
	if d.top == -1 {
		return
	}
	elemSize := mod(d.bottom-d.top, d.current)
	idx := d.top
	for i := 0; i <= elemSize; i, idx = i+1, mod(idx+1, d.current) {
		d.priceNodes[idx] = nil
	}
	d.idIndex = make(map[string]*orderNode)
	d.top, d.bottom = -1, -1
}

// BestPrice reports the top-of-book price for this side; ok is false when
// the ladder is empty.
func (d *Depth) BestPrice() (price int32, ok bool) {
	if d.top == -1 {
		return 0, false
	}
	return d.priceNodes[d.top].value.Price, true
}

// WriteTo renders the ladder in the print/observation format used by the CLI: top, bottom,
// current size, then each non-empty slot's price and FIFO.
func (d *Depth) WriteTo(w io.Writer) {
	fmt.Fprintf(w, "%s top=%d bottom=%d size=%d\n", d.side, d.top, d.bottom, d.current)
	if d.top == -1 {
		return
	}

	elemSize := mod(d.bottom-d.top, d.current)
	idx := d.top
	for i := 0; i <= elemSize; i, idx = i+1, mod(idx+1, d.current) {
		node := d.priceNodes[idx]
		if node == nil {
			continue
		}
		var sb strings.Builder
		for n := node; n != nil; n = n.next {
			fmt.Fprintf(&sb, "(%d,%s) ", n.value.Size, n.value.ID)
		}
		fmt.Fprintf(w, "  %d[%d]: %s\n", node.value.Price, idx, strings.TrimSpace(sb.String()))
	}
}
