package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/fskhalsa/humidity-manager/pkg/controller"
)

func main() {
	flag.Parse()

	err := controller.InitializeController()
	if err != nil {
		slog.Error("failed to initialize the humidity controller", "error", err)
		os.Exit(1)
	}
}
