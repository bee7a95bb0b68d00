package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScenarioBook() *OrderBook {
	return New(Config{
		TickPrice:   1,
		Comparator:  LexInteger,
		InitialSize: 10,
		StepSize:    10,
	})
}

// Scenario 1: Simple rest.
func TestScenarioSimpleRest(t *testing.T) {
	ob := newScenarioBook()
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Bid, Price: 100, Size: 5}))

	price, ok := ob.BestBid()
	require.True(t, ok)
	assert.EqualValues(t, 100, price)

	_, ok = ob.BestAsk()
	assert.False(t, ok)
}

// Scenario 2: Full cross.
func TestScenarioFullCross(t *testing.T) {
	ob := newScenarioBook()
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Bid, Price: 100, Size: 5}))
	require.NoError(t, ob.AddOrder(Order{ID: "2", Side: Ask, Price: 100, Size: 5}))

	_, ok := ob.BestBid()
	assert.False(t, ok)
	_, ok = ob.BestAsk()
	assert.False(t, ok)
	assert.Empty(t, ob.bid.idIndex)
	assert.Empty(t, ob.ask.idIndex)
}

// Scenario 3: Partial cross, rest remainder.
func TestScenarioPartialCrossRestsRemainder(t *testing.T) {
	ob := newScenarioBook()
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Bid, Price: 100, Size: 3}))
	require.NoError(t, ob.AddOrder(Order{ID: "2", Side: Ask, Price: 99, Size: 5}))

	_, ok := ob.BestBid()
	assert.False(t, ok)

	price, ok := ob.BestAsk()
	require.True(t, ok)
	assert.EqualValues(t, 99, price)

	node := ob.ask.idIndex["2"]
	require.NotNil(t, node)
	assert.EqualValues(t, 2, node.value.Size)
}

// Scenario 4: Sweep multiple levels.
func TestScenarioSweepMultipleLevels(t *testing.T) {
	ob := newScenarioBook()
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Bid, Price: 98, Size: 1}))
	require.NoError(t, ob.AddOrder(Order{ID: "2", Side: Bid, Price: 99, Size: 2}))
	require.NoError(t, ob.AddOrder(Order{ID: "3", Side: Bid, Price: 100, Size: 3}))

	require.NoError(t, ob.AddOrder(Order{ID: "4", Side: Ask, Price: 98, Size: 5}))

	_, ok := ob.BestAsk()
	assert.False(t, ok)

	price, ok := ob.BestBid()
	require.True(t, ok)
	assert.EqualValues(t, 98, price)

	node := ob.bid.idIndex["1"]
	require.NotNil(t, node)
	assert.EqualValues(t, 1, node.value.Size)

	assert.NotContains(t, ob.bid.idIndex, "2")
	assert.NotContains(t, ob.bid.idIndex, "3")
}

// Scenario 5: Cancel interior.
func TestScenarioCancelInterior(t *testing.T) {
	ob := newScenarioBook()
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Ask, Price: 100, Size: 1}))
	require.NoError(t, ob.AddOrder(Order{ID: "2", Side: Ask, Price: 102, Size: 1}))
	require.NoError(t, ob.AddOrder(Order{ID: "3", Side: Ask, Price: 104, Size: 1}))

	require.NoError(t, ob.DeleteOrder(Ask, "2"))

	price, ok := ob.BestAsk()
	require.True(t, ok)
	assert.EqualValues(t, 100, price)

	idx102 := ob.ask.indexForPrice(102)
	assert.Nil(t, ob.ask.priceNodes[idx102])

	idx104 := ob.ask.indexForPrice(104)
	assert.NotNil(t, ob.ask.priceNodes[idx104])
	assert.Equal(t, idx104, ob.ask.bottom)
}

// Scenario 6: Growth.
func TestScenarioGrowth(t *testing.T) {
	ob := newScenarioBook()
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Ask, Price: 5, Size: 1}))
	require.NoError(t, ob.AddOrder(Order{ID: "2", Side: Ask, Price: 200, Size: 1}))

	assert.GreaterOrEqual(t, ob.ask.current, 200)

	idx5 := ob.ask.indexForPrice(5)
	idx200 := ob.ask.indexForPrice(200)
	assert.NotNil(t, ob.ask.priceNodes[idx5])
	assert.NotNil(t, ob.ask.priceNodes[idx200])
	assert.Equal(t, ob.ask.top, idx5)
	assert.Equal(t, ob.ask.bottom, idx200)
}

// Scenario 7: Retick refine.
func TestScenarioRetickRefine(t *testing.T) {
	ob := New(Config{TickPrice: 10, Comparator: LexInteger, InitialSize: 10, StepSize: 10})
	require.NoError(t, ob.AddOrder(Order{ID: "0", Side: Ask, Price: 90, Size: 1}))
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Ask, Price: 100, Size: 1}))

	oldIdx := ob.ask.indexForPrice(100)
	require.NotEqual(t, 0, oldIdx)

	require.NoError(t, ob.ResetTickPrice(2))

	newIdx := ob.ask.indexForPrice(100)
	assert.Equal(t, oldIdx*5, newIdx)
	assert.NotNil(t, ob.ask.priceNodes[newIdx])

	require.NoError(t, ob.AddOrder(Order{ID: "2", Side: Ask, Price: 102, Size: 1}))
	assert.Contains(t, ob.ask.idIndex, "2")

	err := ob.ResetTickPrice(3)
	assert.ErrorIs(t, err, ErrInvalidRetick)
}

// Scenario 8: Duplicate id drop.
func TestScenarioDuplicateIDDrop(t *testing.T) {
	ob := newScenarioBook()
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Bid, Price: 100, Size: 5}))
	err := ob.AddOrder(Order{ID: "1", Side: Bid, Price: 101, Size: 3})
	assert.ErrorIs(t, err, ErrDuplicateOrderID)

	_, ok := ob.BestBid()
	require.True(t, ok)
	node := ob.bid.idIndex["1"]
	require.NotNil(t, node)
	assert.EqualValues(t, 100, node.value.Price)
	assert.EqualValues(t, 5, node.value.Size)
}

func TestDeleteUnknownOrderIsLoggedNotFatal(t *testing.T) {
	ob := newScenarioBook()
	err := ob.DeleteOrder(Ask, "missing")
	assert.ErrorIs(t, err, ErrUnknownOrderID)
}

func TestMalformedOrderRejected(t *testing.T) {
	ob := newScenarioBook()
	assert.ErrorIs(t, ob.AddOrder(Order{ID: "1", Side: Ask, Price: 100, Size: 0}), ErrMalformedOrder)
	assert.ErrorIs(t, ob.AddOrder(Order{ID: "", Side: Ask, Price: 100, Size: 5}), ErrMalformedOrder)
	assert.NoError(t, ob.AddOrder(Order{ID: "1", Side: Ask, Price: 101, Size: 5}))
}

// A malformed order must be rejected before it ever reaches Match, not
// just before it rests: otherwise it can consume resting liquidity on
// the opposite side and then get dropped, leaving the book short.
func TestMalformedOrderRejectedBeforeMatching(t *testing.T) {
	ob := New(Config{TickPrice: 10, Comparator: LexInteger, InitialSize: 10, StepSize: 10})
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Bid, Price: 100, Size: 10}))

	// Price 95 is not a multiple of tick 10; size is otherwise valid and
	// would be aggressive against the resting bid if it were ever matched.
	err := ob.AddOrder(Order{ID: "2", Side: Ask, Price: 95, Size: 3})
	assert.ErrorIs(t, err, ErrMalformedOrder)

	node := ob.bid.idIndex["1"]
	require.NotNil(t, node)
	assert.EqualValues(t, 10, node.value.Size)
}

func TestClearEmptiesBothSides(t *testing.T) {
	ob := newScenarioBook()
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Bid, Price: 100, Size: 5}))
	require.NoError(t, ob.AddOrder(Order{ID: "2", Side: Ask, Price: 101, Size: 5}))

	ob.Clear()

	_, ok := ob.BestBid()
	assert.False(t, ok)
	_, ok = ob.BestAsk()
	assert.False(t, ok)
	assert.Empty(t, ob.bid.idIndex)
	assert.Empty(t, ob.ask.idIndex)
}

// A resting order on one side never leaves a crossed book, because
// AddOrder always matches the opposite side first.
func TestNonCrossingAfterPartialFills(t *testing.T) {
	ob := newScenarioBook()
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Bid, Price: 100, Size: 10}))
	require.NoError(t, ob.AddOrder(Order{ID: "3", Side: Ask, Price: 99, Size: 4}))
	require.NoError(t, ob.AddOrder(Order{ID: "2", Side: Ask, Price: 105, Size: 10}))

	bid, bidOk := ob.BestBid()
	ask, askOk := ob.BestAsk()
	require.True(t, bidOk)
	require.True(t, askOk)
	assert.Less(t, bid, ask)
}

// Adds and cancels only, no matching: resting size is exactly what's left.
func TestConservationOfRestingSize(t *testing.T) {
	ob := newScenarioBook()
	require.NoError(t, ob.AddOrder(Order{ID: "1", Side: Bid, Price: 100, Size: 4}))
	require.NoError(t, ob.AddOrder(Order{ID: "2", Side: Bid, Price: 101, Size: 6}))
	require.NoError(t, ob.DeleteOrder(Bid, "1"))

	var total int32
	for _, n := range ob.bid.idIndex {
		total += n.value.Size
	}
	assert.EqualValues(t, 6, total)
}
