package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	app := &app{stdout: os.Stdout, stderr: os.Stderr}
	app.log = slog.New(slog.NewTextHandler(app.stderr, nil))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		app.log.Warn("Could not load .env file", "err", err)
	}

	if err := newRootCmd(app).Execute(); err != nil {
		app.log.Error("Tap failed", "err", err)
		os.Exit(1)
	}
}
