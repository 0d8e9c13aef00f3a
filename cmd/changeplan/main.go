// Command changeplan computes release plans from changeset files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relicta-tech/changeplan/internal/cli"
	buildversion "github.com/relicta-tech/changeplan/internal/version"
)

// Set through -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

// gracePeriod bounds how long a canceled command may take to return.
const gracePeriod = 10 * time.Second

func main() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	cli.SetVersionInfo(buildversion.Resolve(version), commit, date)

	os.Exit(run(context.Background(), signals, cli.ExecuteContext, cli.Cleanup, os.Stderr, os.Exit))
}

// run executes the command line and returns the exit code. The first signal
// cancels the command. A second signal, or a command that ignores the
// cancellation for longer than gracePeriod, ends the process through exit.
func run(
	parent context.Context,
	signals <-chan os.Signal,
	execute func(context.Context) error,
	cleanup func(),
	stderr io.Writer,
	exit func(int),
) int {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	finished := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		watchSignals(signals, finished, cancel, stderr, exit)
	}()

	err := execute(ctx)
	close(finished)
	<-watcherDone
	defer cleanup()

	switch {
	case err == nil:
		return exitOK
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "Operation canceled")
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}

func watchSignals(signals <-chan os.Signal, finished <-chan struct{}, cancel context.CancelFunc, stderr io.Writer, exit func(int)) {
	if signals == nil {
		return
	}

	select {
	case sig := <-signals:
		fmt.Fprintf(stderr, "\nReceived %v, stopping\n", sig)
		cancel()
	case <-finished:
		return
	}

	grace := time.NewTimer(gracePeriod)
	defer grace.Stop()

	select {
	case <-finished:
	case sig := <-signals:
		fmt.Fprintf(stderr, "\nReceived %v again, exiting immediately\n", sig)
		exit(exitError)
	case <-grace.C:
		fmt.Fprintf(stderr, "\nStill running after %v, exiting\n", gracePeriod)
		exit(exitError)
	}
}
