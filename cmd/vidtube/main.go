package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/videotube/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("vidtube exited", "error", err)
		os.Exit(1)
	}
}
