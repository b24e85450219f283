package main

import (
	"os"

	"github.com/csheth/candyrag/cmd/candyrag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
