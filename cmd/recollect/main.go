package main

import (
	"os"

	"github.com/scafell/recollect/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
