package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"ferrule/internal/book"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// REPL is the interactive driver: it reads the same
// line grammar as Loader but one line at a time from an io.Reader,
// printing the book after every mutating command.
type REPL struct {
	book *book.OrderBook
	log  zerolog.Logger
	out  io.Writer
}

// NewREPL returns a REPL that writes prompts and book snapshots to out.
func NewREPL(ob *book.OrderBook, log zerolog.Logger, out io.Writer) *REPL {
	return &REPL{book: ob, log: log, out: out}
}

// Run reads lines from in until EOF or ctx is cancelled.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, "ferrule book repl -- A,id,S|B,size,price  X,id,S|B,,  T,,,,newtick  (# comments, blank lines ignored)")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := fillMissingID(scanner.Text())
		cmd, err := ParseLine(line)
		if err != nil {
			if errors.Is(err, ErrBlankLine) {
				continue
			}
			fmt.Fprintf(r.out, "error: %v\n", err)
			continue
		}

		if err := Apply(cmd, r.book); err != nil {
			fmt.Fprintf(r.out, "rejected: %v\n", err)
		}
		r.book.Print(r.out)
	}
	return scanner.Err()
}

// fillMissingID synthesizes an order id for an interactively-typed Add
// line that left the id field blank, e.g. "A,,B,10,100". This is a REPL
// convenience only; the replay file format always requires an explicit
// id, and the core never generates ids itself.
func fillMissingID(line string) string {
	fields := strings.SplitN(strings.TrimSpace(line), ",", 5)
	if len(fields) != 5 || fields[0] != "A" || fields[1] != "" {
		return line
	}
	fields[1] = uuid.New().String()
	return strings.Join(fields, ",")
}
