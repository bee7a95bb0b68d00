// Package ledger is a trade tape: every fill reported by the book core
// is appended, in sequence order, to a tidwall/btree ordered
// collection.
//
// The ledger is a pure observer. Nothing in internal/book consults it,
// and it cannot influence matching.
package ledger

import (
	"time"

	"ferrule/internal/book"

	"github.com/tidwall/btree"
)

// TradeRecord is one completed fill, keyed by a monotonic sequence number
// so ties at the same wall-clock instant still order deterministically.
type TradeRecord struct {
	Seq          uint64
	At           time.Time
	RestingSide  book.OrderSide
	RestingID    string
	IncomingID   string
	IncomingSide book.OrderSide
	Price        int32
	Quantity     int32
}

func byseq(a, b TradeRecord) bool { return a.Seq < b.Seq }

// Now is overridable in tests so records get deterministic timestamps.
var Now = time.Now

// Ledger implements book.Observer, recording only fills.
type Ledger struct {
	tree *btree.BTreeG[TradeRecord]
	seq  uint64
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{tree: btree.NewBTreeG(byseq)}
}

func (l *Ledger) OnAdd(book.OrderSide, book.Order, bool) {}
func (l *Ledger) OnCancel(book.OrderSide, book.Order)    {}
func (l *Ledger) OnReject(book.OrderSide, string)        {}
func (l *Ledger) OnGrow(book.OrderSide, int)             {}
func (l *Ledger) OnRetick(int32, int32)                  {}

// OnFill records one completed fill. side is the resting Depth's side (the
// maker); incoming is the aggressor (the taker).
func (l *Ledger) OnFill(side book.OrderSide, restingID string, incoming *book.Order, filledQty, price int32) {
	l.seq++
	l.tree.Set(TradeRecord{
		Seq:          l.seq,
		At:           Now(),
		RestingSide:  side,
		RestingID:    restingID,
		IncomingID:   incoming.ID,
		IncomingSide: incoming.Side,
		Price:        price,
		Quantity:     filledQty,
	})
}

// Len reports the number of recorded trades.
func (l *Ledger) Len() int { return l.tree.Len() }

// Records returns every trade in sequence order.
func (l *Ledger) Records() []TradeRecord {
	out := make([]TradeRecord, 0, l.tree.Len())
	l.tree.Scan(func(tr TradeRecord) bool {
		out = append(out, tr)
		return true
	})
	return out
}

// Since returns every trade with Seq >= from, in sequence order.
func (l *Ledger) Since(from uint64) []TradeRecord {
	var out []TradeRecord
	l.tree.Ascend(TradeRecord{Seq: from}, func(tr TradeRecord) bool {
		out = append(out, tr)
		return true
	})
	return out
}

// TotalQuantity sums every recorded fill's quantity, used by match-conservation checks in tests.
func (l *Ledger) TotalQuantity() int64 {
	var total int64
	l.tree.Scan(func(tr TradeRecord) bool {
		total += int64(tr.Quantity)
		return true
	})
	return total
}
