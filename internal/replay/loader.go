package replay

import (
	"bufio"
	"context"
	"errors"
	"os"

	"ferrule/internal/book"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"
)

const defaultBatchSize = 64

// Loader replays the command-replay format against a book.OrderBook.
// Parsing of each batch of lines is fanned out across a tomb-supervised
// worker pool, but every Apply against the book happens on the calling
// goroutine in line order, since the core must be driven
// single-threaded.
type Loader struct {
	book      *book.OrderBook
	log       zerolog.Logger
	batchSize int
}

// NewLoader returns a Loader with the default batch size.
func NewLoader(ob *book.OrderBook, log zerolog.Logger) *Loader {
	return &Loader{book: ob, log: log, batchSize: defaultBatchSize}
}

// ReplayFile reads path and replays it line by line, returning the number
// of commands successfully applied.
func (l *Loader) ReplayFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	return l.Replay(ctx, lines)
}

type parseResult struct {
	line int
	cmd  Command
	err  error
}

// Replay parses and applies lines in fixed-size batches: parsing within a
// batch runs concurrently, application is always sequential.
func (l *Loader) Replay(ctx context.Context, lines []string) (int, error) {
	applied := 0

	for start := 0; start < len(lines); start += l.batchSize {
		end := start + l.batchSize
		if end > len(lines) {
			end = len(lines)
		}
		batch := lines[start:end]
		results := make([]parseResult, len(batch))

		// A tomb is dead once every goroutine it tracks has returned, so
		// each batch gets its own.
		t, _ := tomb.WithContext(ctx)
		for i, line := range batch {
			i, line := i, line
			t.Go(func() error {
				cmd, err := ParseLine(line)
				results[i] = parseResult{line: start + i + 1, cmd: cmd, err: err}
				return nil
			})
		}
		if err := t.Wait(); err != nil {
			return applied, err
		}

		for _, r := range results {
			if r.err != nil {
				if errors.Is(r.err, ErrBlankLine) {
					continue
				}
				l.log.Warn().Int("line", r.line).Err(r.err).Msg("skipping unparseable replay line")
				continue
			}
			if err := Apply(r.cmd, l.book); err != nil {
				l.log.Debug().Int("line", r.line).Err(err).Msg("replay command rejected by book")
				continue
			}
			applied++
		}

		if err := ctx.Err(); err != nil {
			return applied, err
		}
	}

	return applied, nil
}
