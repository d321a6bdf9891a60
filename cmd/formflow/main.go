// Package main provides the formflow command for working with template files offline.
package main

import (
	"context"
	"os"

	"github.com/dukex/formflow/pkg/log"
)

func main() {
	log.Setup(os.Getenv("LOG_LEVEL"))

	err := newCommand().Run(context.Background(), os.Args)
	if err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
