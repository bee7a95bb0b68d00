// Command bookctl is a local, non-networked driver for a book: a
// file-replay loader and an interactive REPL, both reaching the core
// only through ferrule/internal/book's public operations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ferrule/internal/book"
	"ferrule/internal/ledger"
	"ferrule/internal/metrics"
	"ferrule/internal/replay"

	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	tickPrice := flag.Int64("tick", 1, "tick price quantum")
	comparator := flag.String("id-cmp", "lex", "order id comparator: lex or int")
	initialSize := flag.Int("initial-size", 1000, "initial ring buffer size per side")
	stepSize := flag.Int("step-size", 1000, "ring buffer growth step per side")

	sub := os.Args[1]
	flag.CommandLine.Parse(os.Args[2:])

	cmp := book.LexString
	if *comparator == "int" {
		cmp = book.LexInteger
	}

	led := ledger.New()
	rec := metrics.NewRecorder("ferrule")
	ob := book.New(book.Config{
		TickPrice:   int32(*tickPrice),
		Comparator:  cmp,
		InitialSize: *initialSize,
		StepSize:    *stepSize,
		Logger:      logger,
		Observer:    book.MultiObserver(rec, led),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch sub {
	case "replay":
		args := flag.Args()
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "usage: bookctl replay <file>")
			os.Exit(2)
		}
		loader := replay.NewLoader(ob, logger)
		n, err := loader.ReplayFile(ctx, args[0])
		if err != nil {
			logger.Error().Err(err).Msg("replay failed")
			os.Exit(1)
		}
		fmt.Printf("applied %d commands, %d trades recorded\n", n, led.Len())
		ob.Print(os.Stdout)

	case "repl":
		r := replay.NewREPL(ob, logger, os.Stdout)
		if err := r.Run(ctx, os.Stdin); err != nil {
			logger.Error().Err(err).Msg("repl exited with error")
			os.Exit(1)
		}

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: bookctl <replay|repl> [flags] [args]")
	flag.PrintDefaults()
}
