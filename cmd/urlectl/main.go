// urlectl inspects and converts Utah RLE raster files.
//
// Usage:
//
//	urlectl inspect <file> [<file> ...]
//	urlectl convert [-m save-all|overlay|clear] [-e little|big] <input> <output>
//
// See `urlectl <command> --help` for flag details.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbolino/go-urle/cmd/urlectl/cmd"
)

var gitSHA = "NA"

func main() {
	ctx, cnc := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cnc()
	go func() {
		defer cnc()
		<-ctx.Done()
	}()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := cmd.NewRoot(ctx, gitSHA).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
