// Package main implements the groundtruth CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/clinops/groundtruth/internal/core"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(historyCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatCLIError(err))
		os.Exit(1)
	}
}

// formatCLIError appends mapped operator guidance to errors the pipeline
// knows how to explain.
func formatCLIError(err error) string {
	if core.IsUserFacing(err) {
		return fmt.Sprintf("Error: %v\n%s", err, core.FormatUserError(err))
	}
	return "Error: " + err.Error()
}
