package main

import (
	"errors"
	"log"
	"os"

	"camwatch/internal/app"
	"camwatch/internal/stream"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		if errors.Is(err, stream.ErrStreamUnavailable) {
			// No in-process reconnect; the supervisor restarts us.
			application.Logger().Error("Stream lost: %v", err)
			application.Close()
			os.Exit(1)
		}
		application.Logger().Error("Pipeline stopped: %v", err)
		application.Close()
		os.Exit(1)
	}
}
