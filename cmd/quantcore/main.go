package main

import (
	"os"

	"github.com/rustyeddy/quantcore/cmd/quantcore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
