package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewRoot builds the urlectl command tree.
func NewRoot(ctx context.Context, gitSHA string) *cobra.Command {
	root := &cobra.Command{
		Use:   "urlectl",
		Short: "inspect and convert Utah RLE raster files",
		Long:  "urlectl reads and writes Utah Raster Toolkit RLE (.rle) files: codec diagnostics, and straight-through re-encoding between background modes and byte orders.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevelStr, _ := cmd.Flags().GetString("log-level")
			logFile, _ := cmd.Flags().GetString("log-file")

			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevelStr))); err != nil {
				level = slog.LevelInfo
			}

			var out io.Writer = os.Stderr
			if logFile != "" {
				out = &lumberjack.Logger{
					Filename:   logFile,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, // days
				}
			}

			logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
			requestID := uuid.New().String()
			slog.SetDefault(logger.With("request_id", requestID))
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}

	root.AddCommand(
		newVersionCmd(gitSHA),
		newInspectCmd(ctx),
		newConvertCmd(ctx),
	)

	pf := root.PersistentFlags()
	pf.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "rotate logs to this file instead of stderr")
	return root
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("  ", indent), cmd.Use+":", cmd.Short)
	for _, sub := range cmd.Commands() {
		printCommandTree(sub, indent+1)
	}
}

func newVersionCmd(gitSHA string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the build's git SHA",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitSHA)
		},
	}
}
