// Command cinema-loadtest runs the search, seat map and browser load
// profiles against a deployment. It exits with status 99 when a
// threshold is crossed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/target/cinema-ui/internal/loadtest"
)

const exitThresholdsCrossed = 99

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err)) //nolint:forbidigo // exit status carries the threshold verdict.
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var te *loadtest.ThresholdError
	if errors.As(err, &te) {
		return exitThresholdsCrossed
	}
	return 1
}
