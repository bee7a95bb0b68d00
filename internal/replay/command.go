// Package replay implements a CSV command-replay format as an outer
// driver: a typed command parser plus a file loader and an interactive
// REPL, both of which only ever call the public book.OrderBook
// operations.
package replay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ferrule/internal/book"
)

// Action identifies which of the three replay-line operations a Command
// performs.
type Action int

const (
	Add Action = iota
	Cancel
	Retick
)

// Command is one parsed replay line: `action, id, type, size, price`.
type Command struct {
	Action Action
	ID     string
	Side   book.OrderSide
	Size   int32
	Price  int32
}

var (
	// ErrBlankLine marks a comment or empty line; callers should skip it
	// rather than treat it as a parse failure.
	ErrBlankLine     = errors.New("replay: blank or comment line")
	ErrInvalidAction = errors.New("replay: invalid action")
	ErrInvalidSide   = errors.New("replay: invalid side")
	ErrMalformedLine = errors.New("replay: malformed line")
)

// ParseLine parses one line of the command-replay format.
func ParseLine(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Command{}, ErrBlankLine
	}

	fields := strings.Split(trimmed, ",")
	if len(fields) != 5 {
		return Command{}, fmt.Errorf("%w: expected 5 comma-separated fields, got %d", ErrMalformedLine, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	action, id, typeField, sizeField, priceField := fields[0], fields[1], fields[2], fields[3], fields[4]

	switch action {
	case "A":
		side, err := parseSide(typeField)
		if err != nil {
			return Command{}, err
		}
		if id == "" {
			return Command{}, fmt.Errorf("%w: add requires an id", ErrMalformedLine)
		}
		size, err := parseInt32(sizeField, "size")
		if err != nil {
			return Command{}, err
		}
		price, err := parseInt32(priceField, "price")
		if err != nil {
			return Command{}, err
		}
		return Command{Action: Add, ID: id, Side: side, Size: size, Price: price}, nil

	case "X":
		side, err := parseSide(typeField)
		if err != nil {
			return Command{}, err
		}
		if id == "" {
			return Command{}, fmt.Errorf("%w: cancel requires an id", ErrMalformedLine)
		}
		return Command{Action: Cancel, ID: id, Side: side}, nil

	case "T":
		price, err := parseInt32(priceField, "price")
		if err != nil {
			return Command{}, err
		}
		return Command{Action: Retick, Price: price}, nil

	default:
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
}

func parseSide(s string) (book.OrderSide, error) {
	switch s {
	case "S":
		return book.Ask, nil
	case "B":
		return book.Bid, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

func parseInt32(s, field string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrMalformedLine, field, s, err)
	}
	return int32(n), nil
}

// Apply performs a parsed Command against book, routing to the matching
// public operation.
func Apply(cmd Command, ob *book.OrderBook) error {
	switch cmd.Action {
	case Add:
		return ob.AddOrder(book.Order{ID: cmd.ID, Side: cmd.Side, Size: cmd.Size, Price: cmd.Price})
	case Cancel:
		return ob.DeleteOrder(cmd.Side, cmd.ID)
	case Retick:
		return ob.ResetTickPrice(cmd.Price)
	default:
		return fmt.Errorf("%w: unknown action %d", ErrInvalidAction, cmd.Action)
	}
}
