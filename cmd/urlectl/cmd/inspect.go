package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kbolino/go-urle/rle"
	"github.com/spf13/cobra"
)

func newInspectCmd(ctx context.Context) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "inspect <file> [<file> ...]",
		Short: "decode and report on one or more RLE files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bad := 0
			for _, path := range args {
				if err := inspectFile(ctx, path, quiet); err != nil {
					bad++
					slog.ErrorContext(ctx, "inspect failed", "file", path, "error", err)
					if !quiet {
						fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					}
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d files failed to decode", bad, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")
	return cmd
}

func inspectFile(ctx context.Context, path string, quiet bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, order, comments, err := rle.Decode(f)
	if err != nil {
		var rlErr *rle.Error
		if errors.As(err, &rlErr) {
			return fmt.Errorf("%s: %w", rlErr.Kind, err)
		}
		return err
	}

	if quiet {
		return nil
	}

	fmt.Printf("%s: OK\n", path)
	fmt.Printf("  dimensions: %dx%d\n", img.Width(), img.Height())
	fmt.Printf("  channels:   %d (colors=%d alpha=%v)\n", img.Channels(), img.Header.NColors, img.Header.Alpha)
	fmt.Printf("  byte order: %s\n", orderName(order))
	fmt.Printf("  background: %v\n", img.Header.Background)
	fmt.Printf("  clear-first: %v\n", img.Header.Flags&rle.FlagClearFirst != 0)
	if len(img.Header.ColorMap) > 0 {
		fmt.Printf("  colormap:   %d maps x %d entries\n", img.Header.NColorMap, 1<<img.Header.CMapLen)
	}
	for _, c := range comments {
		fmt.Printf("  comment:    %s\n", c)
	}
	return nil
}

func orderName(order rle.Endian) string {
	if order == rle.BigEndian {
		return "big"
	}
	return "little"
}
