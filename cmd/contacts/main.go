// Command contacts benchmarks sqlbind against Postgres.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mitranim/sqlbind/internal/contacts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := contacts.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
