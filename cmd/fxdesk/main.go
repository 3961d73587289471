package main

import (
	"os"

	"github.com/rustyeddy/fxdesk/cmd/fxdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
