package book

import "errors"

// Sentinel errors for the core's rejection taxonomy. Every core operation still runs to
// completion and mutates no further state when one of these fires; the
// error is returned for callers that want a typed result (via errors.Is)
// and is always logged through the injected logger as well.
var (
	ErrDuplicateOrderID = errors.New("book: duplicate order id on add")
	ErrUnknownOrderID   = errors.New("book: unknown order id on delete")
	ErrInvalidRetick    = errors.New("book: invalid tick refinement")
	ErrMalformedOrder   = errors.New("book: malformed order")
)
