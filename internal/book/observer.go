package book

// Observer is the side channel described in the design notes: the core calls
// it after a state change has already been committed, never before, and
// never branches on anything it returns. Implementations (metrics
// recorders, trade ledgers) must not retain the *Order pointers they are
// given beyond the call.
type Observer interface {
	OnAdd(side OrderSide, order Order, resting bool)
	OnFill(side OrderSide, restingID string, incoming *Order, filledQty int32, price int32)
	OnCancel(side OrderSide, order Order)
	OnReject(side OrderSide, kind string)
	OnGrow(side OrderSide, newSize int)
	OnRetick(oldTick, newTick int32)
}

// NopObserver discards every event. It is the default so the core has no
// observable side effects unless a caller wires one in.
type NopObserver struct{}

func (NopObserver) OnAdd(OrderSide, Order, bool)                   {}
func (NopObserver) OnFill(OrderSide, string, *Order, int32, int32) {}
func (NopObserver) OnCancel(OrderSide, Order)                      {}
func (NopObserver) OnReject(OrderSide, string)                     {}
func (NopObserver) OnGrow(OrderSide, int)                          {}
func (NopObserver) OnRetick(int32, int32)                          {}

// MultiObserver fans one event out to several observers, letting a book
// wire both a metrics recorder and a trade ledger without either knowing
// about the other.
func MultiObserver(observers ...Observer) Observer {
	return multiObserver(observers)
}

type multiObserver []Observer

func (m multiObserver) OnAdd(side OrderSide, o Order, resting bool) {
	for _, obs := range m {
		obs.OnAdd(side, o, resting)
	}
}

func (m multiObserver) OnFill(side OrderSide, restingID string, incoming *Order, qty, price int32) {
	for _, obs := range m {
		obs.OnFill(side, restingID, incoming, qty, price)
	}
}

func (m multiObserver) OnCancel(side OrderSide, o Order) {
	for _, obs := range m {
		obs.OnCancel(side, o)
	}
}

func (m multiObserver) OnReject(side OrderSide, kind string) {
	for _, obs := range m {
		obs.OnReject(side, kind)
	}
}

func (m multiObserver) OnGrow(side OrderSide, newSize int) {
	for _, obs := range m {
		obs.OnGrow(side, newSize)
	}
}

func (m multiObserver) OnRetick(oldTick, newTick int32) {
	for _, obs := range m {
		obs.OnRetick(oldTick, newTick)
	}
}
