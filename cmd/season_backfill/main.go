package main

import (
	"log/slog"
	"os"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("Season backfill failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
