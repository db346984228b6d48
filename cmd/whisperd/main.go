// Command whisperd is a local speech-to-text HTTP server.
//
// It accepts base64 audio on POST /transcribe, normalizes it with ffmpeg and
// transcribes it with a whisper model loaded through the configured engine.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/whisperd/bootstrap"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	if err := wire(ctx, app); err != nil {
		return err
	}
	return app.Run(ctx)
}
