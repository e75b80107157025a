package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kbolino/go-urle/rle"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
)

func newConvertCmd(ctx context.Context) *cobra.Command {
	var modeStr, endianStr string

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "re-encode an RLE file, optionally changing background mode or byte order",
		Long: "convert decodes the input and re-encodes it. A .gz suffix on either " +
			"path transparently wraps that side in gzip; the RLE stream itself is " +
			"never gzip-framed internally, only the file on disk.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseMode(modeStr)
			if err != nil {
				return err
			}
			order, err := parseEndian(endianStr)
			if err != nil {
				return err
			}
			return convertFile(ctx, args[0], args[1], mode, order)
		},
	}
	cmd.Flags().StringVarP(&modeStr, "mode", "m", "overlay", "background mode: save-all, overlay, clear")
	cmd.Flags().StringVarP(&endianStr, "endian", "e", "little", "output byte order: little, big")
	return cmd
}

func parseMode(s string) (rle.BackgroundMode, error) {
	switch strings.ToLower(s) {
	case "save-all", "saveall":
		return rle.SaveAll, nil
	case "overlay":
		return rle.Overlay, nil
	case "clear":
		return rle.Clear, nil
	default:
		return 0, fmt.Errorf("unknown background mode %q", s)
	}
}

func parseEndian(s string) (rle.Endian, error) {
	switch strings.ToLower(s) {
	case "little", "le":
		return rle.LittleEndian, nil
	case "big", "be":
		return rle.BigEndian, nil
	default:
		return 0, fmt.Errorf("unknown byte order %q", s)
	}
}

func convertFile(ctx context.Context, inPath, outPath string, mode rle.BackgroundMode, order rle.Endian) error {
	in, err := openMaybeGzip(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	img, srcOrder, _, err := rle.Decode(in)
	if err != nil {
		return fmt.Errorf("decode %s: %w", inPath, err)
	}
	slog.InfoContext(ctx, "decoded", "file", inPath, "byte_order", orderName(srcOrder),
		"width", img.Width(), "height", img.Height())

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	var w io.Writer = out
	var gz *gzip.Writer
	if strings.HasSuffix(outPath, ".gz") {
		gz = gzip.NewWriter(out)
		w = gz
	}

	if err := rle.EncodeWithEndian(w, img, mode, order); err != nil {
		return fmt.Errorf("encode %s: %w", outPath, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "encoded", "file", outPath, "byte_order", orderName(order), "mode", mode.String())
	return nil
}

func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return gzipReadCloser{gz: gz, f: f}, nil
}

// gzipReadCloser closes both the gzip reader and the underlying file.
type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g gzipReadCloser) Close() error {
	if err := g.gz.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}
